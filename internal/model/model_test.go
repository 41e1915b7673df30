package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoneForBoundaries(t *testing.T) {
	tests := []struct {
		daysLeft int
		want     UrgencyZone
	}{
		{-30, ZoneOverdue},
		{-1, ZoneOverdue},
		{0, ZoneRed},
		{5, ZoneRed},
		{6, ZoneOrange},
		{10, ZoneOrange},
		{11, ZoneGreen},
		{365, ZoneGreen},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ZoneFor(tt.daysLeft), "daysLeft=%d", tt.daysLeft)
	}
}

func TestDateDaysUntil(t *testing.T) {
	today := MustParseDate("2026-03-08")

	assert.Equal(t, 0, today.DaysUntil(today))
	assert.Equal(t, 1, today.DaysUntil(MustParseDate("2026-03-09")))
	assert.Equal(t, -7, today.DaysUntil(MustParseDate("2026-03-01")))
	// crosses the March DST switch in most zones; civil dates are unaffected
	assert.Equal(t, 31, today.DaysUntil(MustParseDate("2026-04-08")))
}

func TestDateOfUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	instant := time.Date(2026, 3, 8, 21, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-03-08", DateOf(instant).String())
	assert.Equal(t, "2026-03-09", DateOf(instant.In(loc)).String())
}

func TestDateStartOfWeek(t *testing.T) {
	wednesday := MustParseDate("2026-03-11")
	assert.Equal(t, "2026-03-08", wednesday.StartOfWeek().String())

	sunday := MustParseDate("2026-03-08")
	assert.Equal(t, sunday, sunday.StartOfWeek())
}

func TestDateJSON(t *testing.T) {
	type wrapper struct {
		D *Date `json:"d"`
	}

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2026-03-01T10:00:00.000Z"}`), &w))
	require.NotNil(t, w.D)
	assert.Equal(t, "2026-03-01", w.D.String())

	out, err := json.Marshal(wrapper{D: w.D})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2026-03-01"}`, string(out))

	var zero Date
	out, err = json.Marshal(zero)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"d":42}`), &w))
	assert.Error(t, json.Unmarshal([]byte(`{"d":"not-a-date"}`), &w))
}

func TestDeadlineTypeLabel(t *testing.T) {
	assert.Equal(t, "Graded Assignment", TypeAssignment.Label())
	assert.Equal(t, "OPPE", TypePracticalExam.Label())
	assert.Equal(t, "Task", TypeCustom.Label())
	assert.Equal(t, "Task", DeadlineType("lecture").Label())

	assert.True(t, TypeCustom.IsValid())
	assert.True(t, TypeEndTerm.IsValid())
	assert.False(t, DeadlineType("Exam").IsValid())
}

func TestSubjectMetadata(t *testing.T) {
	assert.Equal(t, "All Courses", SubjectAll.Label())
	assert.Equal(t, "muted", SubjectAll.Color())
	assert.Equal(t, LevelNone, SubjectAll.Level())

	assert.Equal(t, "DL GenAI", Subject("DL_GENAI").Label())
	assert.Equal(t, "amber", Subject("DL_GENAI").Color())
	assert.Equal(t, "steel", Subject("PYTHON").Color())
	assert.Equal(t, "emerald", Subject("TOC").Color())

	assert.Equal(t, "XYZ", Subject("XYZ").Label())
	assert.Equal(t, "muted", Subject("XYZ").Color())

	seen := map[Subject]bool{}
	for _, c := range Courses {
		assert.False(t, seen[c.ID], "duplicate course %s", c.ID)
		seen[c.ID] = true
		assert.NotEqual(t, LevelNone, c.Level, c.ID)
	}
}

func TestParseSubjects(t *testing.T) {
	subjects, err := ParseSubjects([]string{"mlp", " TDS ", "MLP", ""})
	require.NoError(t, err)
	assert.Equal(t, []Subject{"MLP", "TDS"}, subjects)

	_, err = ParseSubjects([]string{"MLP", "NOPE"})
	assert.True(t, errors.Is(err, ErrUnknownCourse))
}

func TestSortSubjects(t *testing.T) {
	subjects := []Subject{"TDS", "ZZZ", "MATHS1", "MLP"}
	SortSubjects(subjects)
	assert.Equal(t, []Subject{"MATHS1", "MLP", "TDS", "ZZZ"}, subjects)
}

func TestDeadlineStateSelects(t *testing.T) {
	state := DefaultDeadlineState()
	state.SelectedCourses = []Subject{"MLP"}

	assert.True(t, state.Selects(SubjectAll))
	assert.True(t, state.Selects("MLP"))
	assert.False(t, state.Selects("TDS"))
}

func TestValidLeadHours(t *testing.T) {
	for _, h := range LeadHourOptions {
		assert.True(t, ValidLeadHours(h))
	}
	assert.False(t, ValidLeadHours(0))
	assert.False(t, ValidLeadHours(36))
}

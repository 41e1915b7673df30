package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deadline-intel/internal/model"
)

var testToday = model.MustParseDate("2026-03-04") // a Wednesday

func rec(id string, subject model.Subject, daysFromToday, priority int) model.Deadline {
	return model.Deadline{
		ID:       id,
		Title:    "Title " + id,
		Subject:  subject,
		Type:     model.TypeAssignment,
		Date:     testToday.AddDays(daysFromToday),
		Priority: priority,
	}
}

func configured(courses ...model.Subject) model.DeadlineState {
	state := model.DefaultDeadlineState()
	state.SelectedCourses = courses
	state.HasConfiguredCourses = true
	return state
}

func ids(items []model.EnrichedItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestDeriveFirstRunGate(t *testing.T) {
	records := []model.Deadline{rec("a", model.SubjectAll, 1, 1), rec("b", "MLP", 2, 5)}
	state := model.DefaultDeadlineState()
	state.SelectedCourses = []model.Subject{"MLP"}

	snap := Derive(records, state, testToday)

	assert.Empty(t, snap.Items)
	assert.Empty(t, snap.Pending)
	assert.Nil(t, snap.NextCritical)
	assert.Equal(t, 100, snap.Stats.CompletionRate)
	assert.False(t, snap.Stats.AtRisk)
}

func TestDeriveCourseFilter(t *testing.T) {
	records := []model.Deadline{
		rec("all", model.SubjectAll, 3, 1),
		rec("mlp", "MLP", 3, 5),
		rec("tds", "TDS", 3, 5),
	}

	snap := Derive(records, configured("MLP"), testToday)
	assert.Equal(t, []string{"all", "mlp"}, ids(snap.Items))

	snap = Derive(records, configured(), testToday)
	assert.Equal(t, []string{"all"}, ids(snap.Items))
}

func TestDeriveBuckets(t *testing.T) {
	records := []model.Deadline{
		rec("green", "MLP", 11, 5),
		rec("orange10", "MLP", 10, 5),
		rec("red5", "MLP", 5, 5),
		rec("orange6", "MLP", 6, 5),
		rec("red0", "MLP", 0, 5),
		rec("late3", "MLP", -3, 5),
		rec("late1", "MLP", -1, 5),
		rec("done", "MLP", 1, 5),
	}
	state := configured("MLP")
	state.CompletedIDs = []string{"done"}

	snap := Derive(records, state, testToday)

	assert.Equal(t, []string{"late3", "late1"}, ids(snap.Overdue))
	assert.Equal(t, []string{"red0", "red5"}, ids(snap.Red))
	assert.Equal(t, []string{"orange6", "orange10"}, ids(snap.Orange))
	assert.Equal(t, []string{"red0", "red5", "orange6"}, ids(snap.Upcoming7))
	assert.Equal(t, []string{"done"}, ids(snap.Completed))
	assert.Len(t, snap.Pending, 7)
	for _, it := range snap.Items {
		assert.Equal(t, model.ZoneFor(it.DaysLeft), it.Urgency)
	}
}

func TestDeriveNextCritical(t *testing.T) {
	t.Run("priority breaks day ties", func(t *testing.T) {
		records := []model.Deadline{rec("low", "MLP", 2, 5), rec("high", "MLP", 2, 1), rec("later", "MLP", 4, 1)}
		snap := Derive(records, configured("MLP"), testToday)
		require.NotNil(t, snap.NextCritical)
		assert.Equal(t, "high", snap.NextCritical.ID)
	})

	t.Run("overdue and completed are skipped", func(t *testing.T) {
		records := []model.Deadline{rec("late", "MLP", -1, 1), rec("done", "MLP", 0, 1), rec("next", "MLP", 3, 5)}
		state := configured("MLP")
		state.CompletedIDs = []string{"done"}
		snap := Derive(records, state, testToday)
		require.NotNil(t, snap.NextCritical)
		assert.Equal(t, "next", snap.NextCritical.ID)
	})

	t.Run("full ties keep record order", func(t *testing.T) {
		records := []model.Deadline{rec("first", "MLP", 2, 3), rec("second", "MLP", 2, 3)}
		snap := Derive(records, configured("MLP"), testToday)
		require.NotNil(t, snap.NextCritical)
		assert.Equal(t, "first", snap.NextCritical.ID)
	})

	t.Run("none pending", func(t *testing.T) {
		snap := Derive([]model.Deadline{rec("late", "MLP", -2, 1)}, configured("MLP"), testToday)
		assert.Nil(t, snap.NextCritical)
	})
}

func TestDeriveAtRiskThreshold(t *testing.T) {
	two := []model.Deadline{rec("a", "MLP", 0, 5), rec("b", "MLP", 7, 5), rec("c", "MLP", 8, 5), rec("d", "MLP", -1, 5)}
	assert.False(t, Derive(two, configured("MLP"), testToday).Stats.AtRisk)

	three := append(two, rec("e", "MLP", 3, 5))
	assert.True(t, Derive(three, configured("MLP"), testToday).Stats.AtRisk)
}

func TestDeriveCompletionRate(t *testing.T) {
	t.Run("vacuous population is 100", func(t *testing.T) {
		snap := Derive([]model.Deadline{rec("a", "MLP", 3, 5)}, configured("MLP"), testToday)
		assert.Equal(t, 100, snap.Stats.CompletionRate)
	})

	t.Run("past due and completed form the population", func(t *testing.T) {
		records := []model.Deadline{
			rec("late-done", "MLP", -5, 5),
			rec("late-missed", "MLP", -2, 5),
			rec("late-missed2", "MLP", -1, 5),
			rec("future-done", "MLP", 9, 5),
			rec("future", "MLP", 9, 5),
		}
		state := configured("MLP")
		state.CompletedIDs = []string{"late-done", "future-done"}
		snap := Derive(records, state, testToday)
		assert.Equal(t, 50, snap.Stats.CompletionRate)
	})

	t.Run("rounds to nearest, halves up", func(t *testing.T) {
		records := []model.Deadline{rec("a", "MLP", -1, 5), rec("b", "MLP", -1, 5), rec("c", "MLP", -1, 5)}
		state := configured("MLP")
		state.CompletedIDs = []string{"a", "b"}
		assert.Equal(t, 67, Derive(records, state, testToday).Stats.CompletionRate)

		var eight []model.Deadline
		for i := 0; i < 8; i++ {
			eight = append(eight, rec(string(rune('a'+i)), "MLP", -1, 5))
		}
		state.CompletedIDs = []string{"a"}
		assert.Equal(t, 13, Derive(eight, state, testToday).Stats.CompletionRate)
	})
}

func TestDeriveCompletedThisWeek(t *testing.T) {
	// testToday is Wednesday; the week started on Sunday, three days ago.
	records := []model.Deadline{
		rec("saturday", "MLP", -4, 5),
		rec("sunday", "MLP", -3, 5),
		rec("today", "MLP", 0, 5),
		rec("friday", "MLP", 2, 5),
	}
	state := configured("MLP")
	state.CompletedIDs = []string{"saturday", "sunday", "today", "friday"}

	assert.Equal(t, 2, Derive(records, state, testToday).Stats.CompletedThisWeek)
}

func TestDeriveTodayDeadlines(t *testing.T) {
	records := []model.Deadline{
		rec("p5", "MLP", 0, 5),
		rec("tomorrow", "MLP", 1, 1),
		rec("p1-done", "MLP", 0, 1),
		rec("p3", model.SubjectAll, 0, 3),
	}
	state := configured("MLP")
	state.CompletedIDs = []string{"p1-done"}

	snap := Derive(records, state, testToday)
	assert.Equal(t, []string{"p1-done", "p3", "p5"}, ids(snap.TodayDeadlines))
}

func TestDeriveStaleCompletionsTolerated(t *testing.T) {
	state := configured("MLP")
	state.CompletedIDs = []string{"custom-deleted", "a"}
	state.Streak = 4

	snap := Derive([]model.Deadline{rec("a", "MLP", 1, 5)}, state, testToday)
	assert.Equal(t, []string{"a"}, ids(snap.Completed))
	assert.Equal(t, 4, snap.Stats.Streak)
}

func TestSubjectSummaries(t *testing.T) {
	records := []model.Deadline{
		rec("quiz", model.SubjectAll, 1, 1),
		rec("mlp1", "MLP", 2, 5),
		rec("mlp2", "MLP", 6, 5),
		rec("mlp-done", "MLP", -3, 5),
		rec("tds1", "TDS", 20, 5),
	}
	state := configured("TDS", "MLP")
	state.CompletedIDs = []string{"mlp-done"}

	snap := Derive(records, state, testToday)
	require.Len(t, snap.Subjects, 2)

	mlp, tds := snap.Subjects[0], snap.Subjects[1]
	assert.Equal(t, model.Subject("MLP"), mlp.Subject, "courses follow catalog order")
	assert.Equal(t, 4, mlp.Total)
	assert.Equal(t, 1, mlp.Completed)
	assert.Equal(t, 25, mlp.Percent)
	assert.Equal(t, 3, mlp.DueIn7)
	assert.Equal(t, RiskRed, mlp.Risk)
	assert.Equal(t, []string{"quiz", "mlp1", "mlp2"}, ids(mlp.Upcoming))

	assert.Equal(t, 2, tds.Total)
	assert.Equal(t, 1, tds.DueIn7)
	assert.Equal(t, RiskGreen, tds.Risk)

	assert.Equal(t, []string{"quiz", "tds1"}, ids(snap.SubjectItems("TDS")))
}

func TestSubjectSummaryLimitsAndRisk(t *testing.T) {
	var records []model.Deadline
	for i := 0; i < 7; i++ {
		records = append(records, rec(string(rune('a'+i)), "MLP", 10+i, 5))
	}
	sum := summarize("MLP", Derive(records, configured("MLP"), testToday).Items)
	assert.Len(t, sum.Upcoming, subjectTopUpcoming)
	assert.Equal(t, 0, sum.Percent)

	assert.Equal(t, RiskGreen, riskFor(1))
	assert.Equal(t, RiskYellow, riskFor(2))
	assert.Equal(t, RiskRed, riskFor(3))
	assert.Equal(t, 0, summarize("MLP", nil).Percent)
}

func TestCrunchClusters(t *testing.T) {
	day := func(n int) model.Date { return testToday.AddDays(n) }

	t.Run("no cluster below three items per window", func(t *testing.T) {
		records := []model.Deadline{rec("a", "MLP", 1, 5), rec("b", "MLP", 4, 5), rec("c", "MLP", 8, 5)}
		snap := Derive(records, configured("MLP"), testToday)
		assert.Empty(t, snap.Clusters)
	})

	t.Run("overlapping windows merge", func(t *testing.T) {
		records := []model.Deadline{
			rec("a", "MLP", 10, 5), rec("b", "MLP", 11, 5), rec("c", "MLP", 12, 5),
			rec("d", "MLP", 14, 5), rec("e", "MLP", 15, 5),
			rec("far1", "MLP", 30, 5), rec("far2", "MLP", 31, 5), rec("far3", "MLP", 33, 5),
		}
		snap := Derive(records, configured("MLP"), testToday)
		require.Len(t, snap.Clusters, 2)
		assert.Equal(t, Cluster{Start: day(10), End: day(15), Count: 5}, snap.Clusters[0])
		assert.Equal(t, Cluster{Start: day(30), End: day(33), Count: 3}, snap.Clusters[1])
	})

	t.Run("completed items do not count", func(t *testing.T) {
		records := []model.Deadline{rec("a", "MLP", 1, 5), rec("b", "MLP", 2, 5), rec("c", "MLP", 3, 5)}
		state := configured("MLP")
		state.CompletedIDs = []string{"b"}
		assert.Empty(t, Derive(records, state, testToday).Clusters)
	})
}

package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deadline-intel/internal/model"
)

func TestCustomDeadlineInputValidate(t *testing.T) {
	date := model.MustParseDate("2026-03-01")

	assert.NoError(t, CustomDeadlineInput{Title: "Submit draft", Date: date}.Validate())
	assert.ErrorIs(t, CustomDeadlineInput{Title: "   ", Date: date}.Validate(), model.ErrTitleRequired)
	assert.ErrorIs(t, CustomDeadlineInput{Title: "Submit draft"}.Validate(), model.ErrDateRequired)
}

func TestCustomDeadlineLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	d, err := env.custom.Add(ctx, CustomDeadlineInput{
		Title:       "  Submit draft ",
		Date:        model.MustParseDate("2026-03-01"),
		Description: " chapter 2 ",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(d.ID, model.CustomIDPrefix))
	assert.Equal(t, "Submit draft", d.Title)
	assert.Equal(t, "chapter 2", d.Description)
	assert.Equal(t, model.SubjectAll, d.Subject)
	assert.Equal(t, model.TypeCustom, d.Type)
	assert.Equal(t, model.CustomPriority, d.Priority)
	assert.True(t, d.IsCustom)

	assert.Equal(t, []model.Deadline{d}, env.custom.List(ctx))

	require.NoError(t, env.custom.Delete(ctx, d.ID))
	assert.Empty(t, env.custom.List(ctx))

	require.NoError(t, env.custom.Delete(ctx, d.ID), "second delete is a no-op")
}

func TestCustomDeadlineIDsAreUnique(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		d, err := env.custom.Add(ctx, CustomDeadlineInput{Title: "Same title", Date: testToday})
		require.NoError(t, err)
		assert.False(t, seen[d.ID])
		seen[d.ID] = true
	}
	assert.Len(t, env.custom.List(ctx), 20)
}

func TestCustomDeleteKeepsOthers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a, err := env.custom.Add(ctx, CustomDeadlineInput{Title: "A", Date: testToday})
	require.NoError(t, err)
	b, err := env.custom.Add(ctx, CustomDeadlineInput{Title: "B", Date: testToday.AddDays(1)})
	require.NoError(t, err)

	require.NoError(t, env.custom.Delete(ctx, a.ID))
	assert.Equal(t, []model.Deadline{b}, env.custom.List(ctx))
}

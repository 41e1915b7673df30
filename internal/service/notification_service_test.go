package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"deadline-intel/internal/model"
	"deadline-intel/internal/notify"
)

type fakeNotifier struct {
	permission notify.Permission
	// grant is what RequestPermission resolves to.
	grant    notify.Permission
	requests int
	shown    []notify.Reminder
	failTag  string
}

func (f *fakeNotifier) Permission(context.Context) notify.Permission { return f.permission }

func (f *fakeNotifier) RequestPermission(context.Context) (notify.Permission, error) {
	f.requests++
	f.permission = f.grant
	return f.grant, nil
}

func (f *fakeNotifier) Show(_ context.Context, r notify.Reminder) error {
	if r.Tag == f.failTag {
		return errors.New("delivery failed")
	}
	f.shown = append(f.shown, r)
	return nil
}

func newNotificationService(t *testing.T, n notify.Notifier) (*NotificationService, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	return NewNotificationService(env.repo, n, zap.NewNop()), env
}

func enabledService(t *testing.T, n *fakeNotifier) (*NotificationService, *testEnv) {
	t.Helper()
	svc, env := newNotificationService(t, n)
	_, err := svc.SetEnabled(context.Background(), true)
	require.NoError(t, err)
	return svc, env
}

func pendingItem(id string, daysLeft int) model.EnrichedItem {
	return model.Enrich(rec(id, "MLP", daysLeft, 5), false, testToday)
}

func TestReminderBody(t *testing.T) {
	assert.Equal(t, "Overdue by 3 day(s)!", ReminderBody(-3))
	assert.Equal(t, "Overdue by 1 day(s)!", ReminderBody(-1))
	assert.Equal(t, "Due today!", ReminderBody(0))
	assert.Equal(t, "Due tomorrow!", ReminderBody(1))
	assert.Equal(t, "Due in 2 day(s)", ReminderBody(2))
}

func TestScanDedupPerDay(t *testing.T) {
	n := &fakeNotifier{permission: notify.PermissionGranted}
	svc, _ := enabledService(t, n)
	ctx := context.Background()

	item := model.Enrich(rec("quiz", model.SubjectAll, 0, 1), false, testToday)

	shown, err := svc.Scan(ctx, []model.EnrichedItem{item}, testToday)
	require.NoError(t, err)
	require.Len(t, shown, 1)
	assert.Equal(t, notify.Reminder{Title: "📌 Title quiz", Body: "Due today!", Tag: "quiz"}, shown[0])

	shown, err = svc.Scan(ctx, []model.EnrichedItem{item}, testToday)
	require.NoError(t, err)
	assert.Empty(t, shown)

	tomorrow := testToday.AddDays(1)
	overdue := model.Enrich(item.Deadline, false, tomorrow)
	shown, err = svc.Scan(ctx, []model.EnrichedItem{overdue}, tomorrow)
	require.NoError(t, err)
	require.Len(t, shown, 1)
	assert.Equal(t, "Overdue by 1 day(s)!", shown[0].Body)

	assert.Len(t, n.shown, 2)
}

func TestScanLeadWindow(t *testing.T) {
	ctx := context.Background()
	items := []model.EnrichedItem{
		pendingItem("late", -2),
		pendingItem("today", 0),
		pendingItem("tomorrow", 1),
		pendingItem("two-days", 2),
		pendingItem("week", 7),
	}

	cases := []struct {
		lead int
		want []string
	}{
		{lead: 1, want: []string{"late", "today"}},
		{lead: 12, want: []string{"late", "today"}},
		{lead: 24, want: []string{"late", "today", "tomorrow"}},
		{lead: 48, want: []string{"late", "today", "tomorrow", "two-days"}},
	}

	for _, tc := range cases {
		n := &fakeNotifier{permission: notify.PermissionGranted}
		svc, _ := enabledService(t, n)
		require.NoError(t, svc.SetLeadHours(ctx, tc.lead))

		shown, err := svc.Scan(ctx, items, testToday)
		require.NoError(t, err)

		var tags []string
		for _, r := range shown {
			tags = append(tags, r.Tag)
		}
		assert.Equal(t, tc.want, tags, "lead %dh", tc.lead)
	}
}

func TestScanGates(t *testing.T) {
	ctx := context.Background()
	items := []model.EnrichedItem{pendingItem("today", 0)}

	t.Run("disabled", func(t *testing.T) {
		n := &fakeNotifier{permission: notify.PermissionGranted}
		svc, _ := newNotificationService(t, n)
		shown, err := svc.Scan(ctx, items, testToday)
		require.NoError(t, err)
		assert.Empty(t, shown)
		assert.Empty(t, n.shown)
	})

	t.Run("permission revoked after enabling", func(t *testing.T) {
		n := &fakeNotifier{permission: notify.PermissionGranted}
		svc, _ := enabledService(t, n)
		n.permission = notify.PermissionDenied
		shown, err := svc.Scan(ctx, items, testToday)
		require.NoError(t, err)
		assert.Empty(t, shown)
	})

	t.Run("no notifier", func(t *testing.T) {
		svc, _ := newNotificationService(t, nil)
		settings, err := svc.SetEnabled(ctx, true)
		require.NoError(t, err)
		assert.False(t, settings.Enabled)
		assert.Equal(t, notify.PermissionUnsupported, settings.Permission)

		shown, err := svc.Scan(ctx, items, testToday)
		require.NoError(t, err)
		assert.Empty(t, shown)
	})

	t.Run("completed items are ignored", func(t *testing.T) {
		n := &fakeNotifier{permission: notify.PermissionGranted}
		svc, _ := enabledService(t, n)
		done := model.Enrich(rec("done", "MLP", 0, 5), true, testToday)
		shown, err := svc.Scan(ctx, []model.EnrichedItem{done}, testToday)
		require.NoError(t, err)
		assert.Empty(t, shown)
	})
}

func TestScanFailedDeliveryIsRetried(t *testing.T) {
	n := &fakeNotifier{permission: notify.PermissionGranted, failTag: "flaky"}
	svc, env := enabledService(t, n)
	ctx := context.Background()
	items := []model.EnrichedItem{pendingItem("flaky", 0), pendingItem("ok", 0)}

	shown, err := svc.Scan(ctx, items, testToday)
	require.NoError(t, err)
	require.Len(t, shown, 1)
	assert.Equal(t, "ok", shown[0].Tag)

	prefs := env.repo.LoadNotifications(ctx)
	assert.NotContains(t, prefs.LastNotified, "flaky")
	assert.Contains(t, prefs.LastNotified, "ok")

	n.failTag = ""
	shown, err = svc.Scan(ctx, items, testToday)
	require.NoError(t, err)
	require.Len(t, shown, 1)
	assert.Equal(t, "flaky", shown[0].Tag)
}

func TestScanPrunesOldBookkeeping(t *testing.T) {
	n := &fakeNotifier{permission: notify.PermissionGranted}
	svc, env := enabledService(t, n)
	ctx := context.Background()

	prefs := env.repo.LoadNotifications(ctx)
	prefs.LastNotified["ancient"] = testToday.AddDays(-31)
	prefs.LastNotified["recent"] = testToday.AddDays(-30)
	require.NoError(t, env.repo.SaveNotifications(ctx, prefs))

	_, err := svc.Scan(ctx, []model.EnrichedItem{pendingItem("today", 0)}, testToday)
	require.NoError(t, err)

	prefs = env.repo.LoadNotifications(ctx)
	assert.NotContains(t, prefs.LastNotified, "ancient")
	assert.Contains(t, prefs.LastNotified, "recent")
	assert.Equal(t, testToday, prefs.LastNotified["today"])
}

func TestSetEnabledRequestsPermission(t *testing.T) {
	ctx := context.Background()

	t.Run("granted on request", func(t *testing.T) {
		n := &fakeNotifier{permission: notify.PermissionDefault, grant: notify.PermissionGranted}
		svc, _ := newNotificationService(t, n)
		settings, err := svc.SetEnabled(ctx, true)
		require.NoError(t, err)
		assert.Equal(t, 1, n.requests)
		assert.True(t, settings.Enabled)
		assert.Equal(t, notify.PermissionGranted, settings.Permission)
	})

	t.Run("dismissed leaves it off", func(t *testing.T) {
		n := &fakeNotifier{permission: notify.PermissionDefault, grant: notify.PermissionDefault}
		svc, _ := newNotificationService(t, n)
		settings, err := svc.SetEnabled(ctx, true)
		require.NoError(t, err)
		assert.False(t, settings.Enabled)
		assert.True(t, settings.CanEnable)
	})

	t.Run("denied cannot be enabled", func(t *testing.T) {
		n := &fakeNotifier{permission: notify.PermissionDenied, grant: notify.PermissionDenied}
		svc, _ := newNotificationService(t, n)
		assert.False(t, svc.CanEnable(ctx))
		settings, err := svc.SetEnabled(ctx, true)
		require.NoError(t, err)
		assert.False(t, settings.Enabled)
		assert.False(t, settings.CanEnable)
	})

	t.Run("disabling always works", func(t *testing.T) {
		n := &fakeNotifier{permission: notify.PermissionGranted}
		svc, _ := enabledService(t, n)
		n.permission = notify.PermissionDenied
		settings, err := svc.SetEnabled(ctx, false)
		require.NoError(t, err)
		assert.False(t, settings.Enabled)
	})
}

func TestSetLeadHours(t *testing.T) {
	svc, _ := newNotificationService(t, &fakeNotifier{permission: notify.PermissionGranted})
	ctx := context.Background()

	assert.Equal(t, model.DefaultLeadHours, svc.Settings(ctx).LeadHours)

	require.NoError(t, svc.SetLeadHours(ctx, 48))
	assert.Equal(t, 48, svc.Settings(ctx).LeadHours)

	assert.ErrorIs(t, svc.SetLeadHours(ctx, 36), model.ErrInvalidLeadHours)
	assert.Equal(t, 48, svc.Settings(ctx).LeadHours)
}

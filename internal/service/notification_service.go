package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"deadline-intel/internal/model"
	"deadline-intel/internal/notify"
	"deadline-intel/internal/repository"
)

// lastNotifiedRetentionDays bounds how long dedup bookkeeping is kept.
const lastNotifiedRetentionDays = 30

// NotificationSettings is what the settings screens show.
type NotificationSettings struct {
	Enabled    bool              `json:"enabled"`
	LeadHours  int               `json:"leadHours"`
	Permission notify.Permission `json:"permission"`
	CanEnable  bool              `json:"canEnable"`
}

// NotificationService decides which pending items deserve a reminder on each
// evaluation and remembers what was already sent today.
type NotificationService struct {
	mu       sync.Mutex
	repo     *repository.StateRepository
	notifier notify.Notifier
	log      *zap.Logger
}

// NewNotificationService accepts a nil notifier; reminders are then disabled.
func NewNotificationService(repo *repository.StateRepository, notifier notify.Notifier, log *zap.Logger) *NotificationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &NotificationService{repo: repo, notifier: notifier, log: log}
}

func (s *NotificationService) Permission(ctx context.Context) notify.Permission {
	if s.notifier == nil {
		return notify.PermissionUnsupported
	}
	return s.notifier.Permission(ctx)
}

func (s *NotificationService) CanEnable(ctx context.Context) bool {
	return s.Permission(ctx) != notify.PermissionDenied
}

func (s *NotificationService) Settings(ctx context.Context) NotificationSettings {
	s.mu.Lock()
	prefs := s.repo.LoadNotifications(ctx)
	s.mu.Unlock()

	p := s.Permission(ctx)
	return NotificationSettings{
		Enabled:    prefs.Enabled,
		LeadHours:  prefs.LeadHours,
		Permission: p,
		CanEnable:  p != notify.PermissionDenied,
	}
}

// RequestPermission asks the platform for permission and turns reminders on
// when it is granted.
func (s *NotificationService) RequestPermission(ctx context.Context) (notify.Permission, error) {
	if s.notifier == nil {
		return notify.PermissionUnsupported, nil
	}
	p, err := s.notifier.RequestPermission(ctx)
	if err != nil {
		s.log.Warn("notification permission request failed", zap.Error(err))
	}
	if p != notify.PermissionGranted {
		return p, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prefs := s.repo.LoadNotifications(ctx)
	prefs.Enabled = true
	if err := s.repo.SaveNotifications(ctx, prefs); err != nil {
		return p, err
	}
	return p, nil
}

// SetEnabled turns reminders on or off. Turning them on without permission
// requests it first and leaves the flag untouched unless it is granted.
func (s *NotificationService) SetEnabled(ctx context.Context, enabled bool) (NotificationSettings, error) {
	if enabled {
		switch p := s.Permission(ctx); p {
		case notify.PermissionGranted:
		case notify.PermissionUnsupported:
			return s.Settings(ctx), nil
		default:
			if _, err := s.RequestPermission(ctx); err != nil {
				return s.Settings(ctx), err
			}
			return s.Settings(ctx), nil
		}
	}

	s.mu.Lock()
	prefs := s.repo.LoadNotifications(ctx)
	prefs.Enabled = enabled
	err := s.repo.SaveNotifications(ctx, prefs)
	s.mu.Unlock()
	if err != nil {
		return s.Settings(ctx), err
	}
	return s.Settings(ctx), nil
}

func (s *NotificationService) SetLeadHours(ctx context.Context, hours int) error {
	if !model.ValidLeadHours(hours) {
		return fmt.Errorf("lead %dh: %w", hours, model.ErrInvalidLeadHours)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prefs := s.repo.LoadNotifications(ctx)
	prefs.LeadHours = hours
	return s.repo.SaveNotifications(ctx, prefs)
}

// Scan shows a reminder for every pending item inside the lead window that
// has not been reminded about today, and returns what was shown.
//
// The window check uses daysLeft*24, so an item due tomorrow always reads as
// 24 hours away regardless of the time of day.
func (s *NotificationService) Scan(ctx context.Context, pending []model.EnrichedItem, today model.Date) ([]notify.Reminder, error) {
	if s.notifier == nil {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := s.repo.LoadNotifications(ctx)
	if !prefs.Enabled {
		return nil, nil
	}
	if p := s.notifier.Permission(ctx); p != notify.PermissionGranted {
		s.log.Debug("reminders skipped", zap.String("permission", string(p)))
		return nil, nil
	}

	var shown []notify.Reminder
	for _, item := range pending {
		if item.Completed {
			continue
		}
		if item.DaysLeft*24 > prefs.LeadHours {
			continue
		}
		if last, ok := prefs.LastNotified[item.ID]; ok && last.Equal(today) {
			continue
		}

		r := notify.Reminder{
			Title: "📌 " + item.Title,
			Body:  ReminderBody(item.DaysLeft),
			Tag:   item.ID,
		}
		if err := s.notifier.Show(ctx, r); err != nil {
			s.log.Warn("reminder not delivered", zap.String("id", item.ID), zap.Error(err))
			continue
		}
		prefs.LastNotified[item.ID] = today
		shown = append(shown, r)
	}

	if len(shown) == 0 {
		return nil, nil
	}

	pruneLastNotified(prefs.LastNotified, today)
	if err := s.repo.SaveNotifications(ctx, prefs); err != nil {
		return shown, err
	}
	s.log.Info("reminders sent", zap.Int("count", len(shown)))
	return shown, nil
}

// ReminderBody phrases how far away a deadline is.
func ReminderBody(daysLeft int) string {
	switch {
	case daysLeft < 0:
		return fmt.Sprintf("Overdue by %d day(s)!", -daysLeft)
	case daysLeft == 0:
		return "Due today!"
	case daysLeft == 1:
		return "Due tomorrow!"
	default:
		return fmt.Sprintf("Due in %d day(s)", daysLeft)
	}
}

func pruneLastNotified(last map[string]model.Date, today model.Date) {
	cutoff := today.AddDays(-lastNotifiedRetentionDays)
	for id, day := range last {
		if day.Before(cutoff) {
			delete(last, id)
		}
	}
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"deadline-intel/internal/model"
)

// Keys of the three independent persisted entries.
const (
	KeyState         = "deadline-intel-state"
	KeyCustom        = "deadline-intel-custom"
	KeyNotifications = "deadline-intel-notif"
)

// StateRepository reads and writes typed entries on top of a KV store.
//
// Reads never fail: a missing, unreadable or malformed entry (or field) is
// replaced by its default and logged. Writes return transport errors.
type StateRepository struct {
	kv      KV
	profile string
	log     *zap.Logger
}

func NewStateRepository(kv KV, profile string, log *zap.Logger) *StateRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &StateRepository{kv: kv, profile: strings.TrimSpace(profile), log: log}
}

func (r *StateRepository) key(name string) string {
	if r.profile == "" {
		return name
	}
	return r.profile + ":" + name
}

func (r *StateRepository) load(ctx context.Context, name string) (string, bool) {
	raw, found, err := r.kv.Get(ctx, r.key(name))
	if err != nil {
		r.log.Warn("state read failed, using defaults", zap.String("key", name), zap.Error(err))
		return "", false
	}
	return raw, found
}

func (r *StateRepository) save(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := r.kv.Set(ctx, r.key(name), string(data)); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

func (r *StateRepository) LoadState(ctx context.Context) model.DeadlineState {
	raw, found := r.load(ctx, KeyState)
	if !found {
		return model.DefaultDeadlineState()
	}
	state, healed := decodeState(raw)
	if len(healed) > 0 {
		r.log.Warn("malformed state fields replaced by defaults", zap.String("key", KeyState), zap.Strings("fields", healed))
	}
	return state
}

func (r *StateRepository) SaveState(ctx context.Context, state model.DeadlineState) error {
	return r.save(ctx, KeyState, state)
}

func (r *StateRepository) LoadCustom(ctx context.Context) []model.Deadline {
	raw, found := r.load(ctx, KeyCustom)
	if !found {
		return []model.Deadline{}
	}
	records, dropped := decodeCustom(raw)
	if dropped > 0 {
		r.log.Warn("malformed custom deadlines dropped", zap.Int("count", dropped))
	}
	return records
}

// SaveCustom writes the custom records. An empty list removes the entry.
func (r *StateRepository) SaveCustom(ctx context.Context, records []model.Deadline) error {
	if len(records) == 0 {
		if err := r.kv.Delete(ctx, r.key(KeyCustom)); err != nil {
			return fmt.Errorf("clear %s: %w", KeyCustom, err)
		}
		return nil
	}
	return r.save(ctx, KeyCustom, records)
}

func (r *StateRepository) LoadNotifications(ctx context.Context) model.NotificationPrefs {
	raw, found := r.load(ctx, KeyNotifications)
	if !found {
		return model.DefaultNotificationPrefs()
	}
	prefs, healed := decodeNotifications(raw)
	if len(healed) > 0 {
		r.log.Warn("malformed notification fields replaced by defaults", zap.Strings("fields", healed))
	}
	return prefs
}

func (r *StateRepository) SaveNotifications(ctx context.Context, prefs model.NotificationPrefs) error {
	if prefs.LastNotified == nil {
		prefs.LastNotified = map[string]model.Date{}
	}
	return r.save(ctx, KeyNotifications, prefs)
}

// decodeState decodes field by field so one bad field does not discard the rest.
// It returns the names of fields that fell back to defaults.
func decodeState(raw string) (model.DeadlineState, []string) {
	state := model.DefaultDeadlineState()
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil || fields == nil {
		return state, []string{"*"}
	}

	var healed []string
	// field reports false for absent or mistyped values; a partially decoded value is discarded.
	field := func(name string, dst any) bool {
		v, ok := fields[name]
		if !ok {
			return false
		}
		if err := json.Unmarshal(v, dst); err != nil {
			healed = append(healed, name)
			return false
		}
		return true
	}

	var ids []string
	if field("completedIds", &ids) {
		state.CompletedIDs = uniqueStrings(ids)
	}

	var streak int
	if field("streak", &streak) && streak > 0 {
		state.Streak = streak
	}

	var last *model.Date
	if field("lastCompletionDate", &last) && last != nil && !last.IsZero() {
		state.LastCompletionDate = last
	}

	var theme model.Theme
	if field("theme", &theme) && theme.IsValid() {
		state.Theme = theme
	}

	var courses []model.Subject
	if field("selectedCourses", &courses) {
		state.SelectedCourses = uniqueSubjects(courses)
	}

	// anything but a literal true counts as "not configured"
	var configured bool
	if field("hasConfiguredCourses", &configured) {
		state.HasConfiguredCourses = configured
	}

	return state, healed
}

// decodeCustom keeps records with a custom- id and a date, first occurrence wins.
func decodeCustom(raw string) ([]model.Deadline, int) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []model.Deadline{}, 1
	}

	records := make([]model.Deadline, 0, len(items))
	seen := make(map[string]bool, len(items))
	dropped := 0
	for _, item := range items {
		var d model.Deadline
		if err := json.Unmarshal(item, &d); err != nil || !strings.HasPrefix(d.ID, model.CustomIDPrefix) || d.Date.IsZero() || seen[d.ID] {
			dropped++
			continue
		}
		seen[d.ID] = true
		d.Subject = model.SubjectAll
		d.Type = model.TypeCustom
		d.IsCustom = true
		if d.Priority == 0 {
			d.Priority = model.CustomPriority
		}
		records = append(records, d)
	}
	return records, dropped
}

func decodeNotifications(raw string) (model.NotificationPrefs, []string) {
	prefs := model.DefaultNotificationPrefs()
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil || fields == nil {
		return prefs, []string{"*"}
	}

	var healed []string
	if v, ok := fields["enabled"]; ok {
		if err := json.Unmarshal(v, &prefs.Enabled); err != nil {
			healed = append(healed, "enabled")
		}
	}
	if v, ok := fields["leadHours"]; ok {
		var hours int
		if err := json.Unmarshal(v, &hours); err != nil || !model.ValidLeadHours(hours) {
			healed = append(healed, "leadHours")
		} else {
			prefs.LeadHours = hours
		}
	}
	if v, ok := fields["lastNotified"]; ok {
		var entries map[string]json.RawMessage
		if err := json.Unmarshal(v, &entries); err != nil {
			healed = append(healed, "lastNotified")
		}
		for id, rawDate := range entries {
			var d model.Date
			if err := json.Unmarshal(rawDate, &d); err != nil || d.IsZero() {
				continue
			}
			prefs.LastNotified[id] = d
		}
	}
	return prefs, healed
}

func uniqueStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func uniqueSubjects(in []model.Subject) []model.Subject {
	out := make([]model.Subject, 0, len(in))
	seen := make(map[model.Subject]bool, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

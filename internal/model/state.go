package model

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

func (t Theme) IsValid() bool { return t == ThemeDark || t == ThemeLight }

// DeadlineState is the main persisted entry: completions, streak and course preferences.
type DeadlineState struct {
	CompletedIDs         []string  `json:"completedIds"`
	Streak               int       `json:"streak"`
	LastCompletionDate   *Date     `json:"lastCompletionDate"`
	Theme                Theme     `json:"theme"`
	SelectedCourses      []Subject `json:"selectedCourses"`
	HasConfiguredCourses bool      `json:"hasConfiguredCourses"`
}

func DefaultDeadlineState() DeadlineState {
	return DeadlineState{
		CompletedIDs:    []string{},
		Theme:           ThemeDark,
		SelectedCourses: []Subject{},
	}
}

// CompletedSet indexes CompletedIDs for lookups.
func (s DeadlineState) CompletedSet() map[string]bool {
	set := make(map[string]bool, len(s.CompletedIDs))
	for _, id := range s.CompletedIDs {
		set[id] = true
	}
	return set
}

// Selects reports whether subject passes the course filter.
func (s DeadlineState) Selects(subject Subject) bool {
	if subject == SubjectAll {
		return true
	}
	for _, c := range s.SelectedCourses {
		if c == subject {
			return true
		}
	}
	return false
}

// LeadHourOptions are the reminder windows a user can choose from.
var LeadHourOptions = []int{1, 6, 12, 24, 48}

const DefaultLeadHours = 24

func ValidLeadHours(h int) bool {
	for _, opt := range LeadHourOptions {
		if opt == h {
			return true
		}
	}
	return false
}

// NotificationPrefs is the persisted reminder configuration and dedup bookkeeping.
type NotificationPrefs struct {
	Enabled      bool            `json:"enabled"`
	LeadHours    int             `json:"leadHours"`
	LastNotified map[string]Date `json:"lastNotified"`
}

func DefaultNotificationPrefs() NotificationPrefs {
	return NotificationPrefs{
		LeadHours:    DefaultLeadHours,
		LastNotified: map[string]Date{},
	}
}

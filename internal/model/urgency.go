package model

// UrgencyZone groups items by days remaining.
type UrgencyZone string

const (
	ZoneOverdue UrgencyZone = "overdue"
	ZoneRed     UrgencyZone = "red"
	ZoneOrange  UrgencyZone = "orange"
	ZoneGreen   UrgencyZone = "green"
)

// ZoneFor maps days left to a zone: <0 overdue, 0-5 red, 6-10 orange, >10 green.
func ZoneFor(daysLeft int) UrgencyZone {
	switch {
	case daysLeft < 0:
		return ZoneOverdue
	case daysLeft <= 5:
		return ZoneRed
	case daysLeft <= 10:
		return ZoneOrange
	default:
		return ZoneGreen
	}
}

// EnrichedItem is a record joined with per-read state. It is never persisted.
type EnrichedItem struct {
	Deadline
	Completed bool        `json:"completed"`
	DaysLeft  int         `json:"daysLeft"`
	Urgency   UrgencyZone `json:"urgency"`
}

// Enrich computes completion and days left against today.
func Enrich(d Deadline, completed bool, today Date) EnrichedItem {
	daysLeft := today.DaysUntil(d.Date)
	return EnrichedItem{
		Deadline:  d,
		Completed: completed,
		DaysLeft:  daysLeft,
		Urgency:   ZoneFor(daysLeft),
	}
}

package service

import (
	"time"

	"deadline-intel/internal/model"
)

// Clock supplies "today" in the user's time zone.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return Clock{Now: time.Now, Location: loc}
}

// FixedClock always reports the given day. Used by tests and replays.
func FixedClock(day model.Date) Clock {
	return Clock{
		Now:      func() time.Time { return day.Time().Add(12 * time.Hour) },
		Location: time.UTC,
	}
}

func (c Clock) Today() model.Date {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return model.DateOf(now().In(loc))
}

package model

import "time"

// StateEntry is one row of the local key-value store.
type StateEntry struct {
	Key       string `gorm:"primaryKey;column:entry_key"`
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

package model

import "errors"

// Validation errors returned at the input boundary.
var (
	ErrTitleRequired    = errors.New("title is required")
	ErrDateRequired     = errors.New("date is required")
	ErrInvalidTheme     = errors.New("theme must be dark or light")
	ErrInvalidLeadHours = errors.New("lead time must be one of 1, 6, 12, 24, 48 hours")
	ErrUnknownCourse    = errors.New("unknown course")
	ErrDeadlineNotFound = errors.New("deadline not found")
)

// Package notify delivers deadline reminders to the user.
package notify

import "context"

// Permission mirrors the host's notification permission state.
type Permission string

const (
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
	PermissionDefault     Permission = "default"
	PermissionUnsupported Permission = "unsupported"
)

// Reminder is one message shown to the user. Tag identifies the deadline it is about.
type Reminder struct {
	Title string
	Body  string
	Tag   string
}

// Notifier is the platform notification capability.
type Notifier interface {
	Permission(ctx context.Context) Permission
	RequestPermission(ctx context.Context) (Permission, error)
	Show(ctx context.Context, r Reminder) error
}

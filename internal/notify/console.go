package notify

import (
	"context"
	"fmt"
	"io"
)

// Console prints reminders to a writer. Permission is always granted.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Permission(context.Context) Permission { return PermissionGranted }

func (c *Console) RequestPermission(context.Context) (Permission, error) {
	return PermissionGranted, nil
}

func (c *Console) Show(_ context.Context, r Reminder) error {
	_, err := fmt.Fprintf(c.w, "🔔 %s · %s\n", r.Title, r.Body)
	return err
}

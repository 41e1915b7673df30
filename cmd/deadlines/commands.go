package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"deadline-intel/internal/bot"
	"deadline-intel/internal/model"
	"deadline-intel/internal/service"
)

type opener func(ctx context.Context) (*app, error)

// cli holds the opener so tests can swap in an in-memory app.
type cli struct {
	open   opener
	report service.Report
}

type action func(ctx context.Context, a *app, out io.Writer, args []string) error

// run opens the app, runs fn and then runs a reminder scan.
func (c *cli) run(fn action) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := c.open(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := fn(ctx, a, cmd.OutOrStdout(), args); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		return a.scan(ctx)
	}
}

func newRootCmd(open opener) *cobra.Command {
	c := &cli{open: open, report: service.PlainReport()}

	root := &cobra.Command{
		Use:           "deadlines",
		Short:         "Personal academic deadline dashboard",
		Long:          `Tracks course deadlines for the term: urgency zones, completion streaks, custom deadlines and reminders.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          c.run(c.dashboard),
	}

	dashboardCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the next critical deadline, stats and urgency zones",
		Args:  cobra.NoArgs,
		RunE:  c.run(c.dashboard),
	}

	var listSubject string
	var listAll bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List pending deadlines",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, out io.Writer, _ []string) error {
			return c.list(ctx, a, out, listSubject, listAll)
		}),
	}
	listCmd.Flags().StringVarP(&listSubject, "subject", "s", "", "only deadlines for this course code")
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "include completed deadlines")

	subjectsCmd := &cobra.Command{
		Use:   "subjects",
		Short: "Show progress per selected course",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, out io.Writer, _ []string) error {
			_, err := fmt.Fprintln(out, c.report.Subjects(a.deadlines.Snapshot(ctx)))
			return err
		}),
	}

	timelineCmd := &cobra.Command{
		Use:   "timeline",
		Short: "Show pending deadlines by month with crunch periods",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, out io.Writer, _ []string) error {
			_, err := fmt.Fprintln(out, c.report.Timeline(a.deadlines.Snapshot(ctx)))
			return err
		}),
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark a deadline done, or pending again",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run(c.toggle),
	}

	var description string
	addCmd := &cobra.Command{
		Use:   "add <title> <YYYY-MM-DD>",
		Short: "Add a custom deadline",
		Args:  cobra.ExactArgs(2),
		RunE: c.run(func(ctx context.Context, a *app, out io.Writer, args []string) error {
			return c.add(ctx, a, out, args[0], args[1], description)
		}),
	}
	addCmd.Flags().StringVarP(&description, "description", "d", "", "optional note")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a custom deadline",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run(c.delete),
	}

	coursesCmd := &cobra.Command{
		Use:   "courses",
		Short: "Show the course list and your selection",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, out io.Writer, _ []string) error {
			_, err := fmt.Fprintln(out, c.report.CourseList(a.deadlines.State(ctx).SelectedCourses))
			return err
		}),
	}
	coursesCmd.AddCommand(&cobra.Command{
		Use:   "set [codes...]",
		Short: "Replace the selected courses; no codes selects none",
		Args:  cobra.ArbitraryArgs,
		RunE:  c.run(c.setCourses),
	})

	themeCmd := &cobra.Command{
		Use:       "theme <dark|light>",
		Short:     "Set the display theme",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(model.ThemeDark), string(model.ThemeLight)},
		RunE: c.run(func(ctx context.Context, a *app, out io.Writer, args []string) error {
			if err := a.deadlines.SetTheme(ctx, model.Theme(strings.ToLower(args[0]))); err != nil {
				return err
			}
			_, err := fmt.Fprintf(out, "Theme set to %s.\n", strings.ToLower(args[0]))
			return err
		}),
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear completions and the streak; courses and theme are kept",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, out io.Writer, _ []string) error {
			if err := a.deadlines.Reset(ctx); err != nil {
				return err
			}
			_, err := fmt.Fprintln(out, "Progress cleared.")
			return err
		}),
	}

	root.AddCommand(
		dashboardCmd,
		listCmd,
		subjectsCmd,
		timelineCmd,
		toggleCmd,
		addCmd,
		deleteCmd,
		coursesCmd,
		themeCmd,
		resetCmd,
		c.notifyCmd(),
		c.botCmd(),
	)
	return root
}

func (c *cli) notifyCmd() *cobra.Command {
	notifyCmd := &cobra.Command{
		Use:   "notify",
		Short: "Show reminder settings",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, a *app, out io.Writer, _ []string) error {
			return printSettings(out, a.notifications.Settings(ctx))
		}),
	}

	setEnabled := func(enabled bool) action {
		return func(ctx context.Context, a *app, out io.Writer, _ []string) error {
			settings, err := a.notifications.SetEnabled(ctx, enabled)
			if err != nil {
				return err
			}
			return printSettings(out, settings)
		}
	}

	notifyCmd.AddCommand(
		&cobra.Command{
			Use:   "on",
			Short: "Turn reminders on, asking for permission if needed",
			Args:  cobra.NoArgs,
			RunE:  c.run(setEnabled(true)),
		},
		&cobra.Command{
			Use:   "off",
			Short: "Turn reminders off",
			Args:  cobra.NoArgs,
			RunE:  c.run(setEnabled(false)),
		},
		&cobra.Command{
			Use:   "lead <hours>",
			Short: "Remind this many hours ahead: 1, 6, 12, 24 or 48",
			Args:  cobra.ExactArgs(1),
			RunE: c.run(func(ctx context.Context, a *app, out io.Writer, args []string) error {
				hours, err := strconv.Atoi(strings.TrimSuffix(args[0], "h"))
				if err != nil {
					return fmt.Errorf("lead %q: %w", args[0], model.ErrInvalidLeadHours)
				}
				if err := a.notifications.SetLeadHours(ctx, hours); err != nil {
					return err
				}
				return printSettings(out, a.notifications.Settings(ctx))
			}),
		},
		&cobra.Command{
			Use:   "scan",
			Short: "Run a reminder scan now",
			Args:  cobra.NoArgs,
			// the scan itself happens after every command
			RunE: c.run(func(context.Context, *app, io.Writer, []string) error { return nil }),
		},
	)
	return notifyCmd
}

func (c *cli) botCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Serve the dashboard to the owner chat on Telegram",
		Args:  cobra.NoArgs,
		RunE:  c.run(runBot),
	}
}

func (c *cli) dashboard(ctx context.Context, a *app, out io.Writer, _ []string) error {
	_, err := fmt.Fprintln(out, c.report.Dashboard(a.deadlines.Snapshot(ctx), a.deadlines.Term()))
	return err
}

func (c *cli) list(ctx context.Context, a *app, out io.Writer, subject string, all bool) error {
	snap := a.deadlines.Snapshot(ctx)

	title, items := "Pending", snap.Pending
	if all {
		title, items = "All", snap.Items
	}

	if subject != "" {
		subjects, err := model.ParseSubjects([]string{subject})
		if err != nil {
			return err
		}
		filtered := make([]model.EnrichedItem, 0, len(items))
		for _, it := range items {
			if it.AppliesTo(subjects[0]) {
				filtered = append(filtered, it)
			}
		}
		title, items = title+" · "+subjects[0].Label(), filtered
	}

	_, err := fmt.Fprintln(out, c.report.List(title, items))
	return err
}

func (c *cli) toggle(ctx context.Context, a *app, out io.Writer, args []string) error {
	id := args[0]
	completed, err := a.deadlines.Toggle(ctx, id)
	if err != nil {
		return err
	}

	if !completed {
		_, err = fmt.Fprintf(out, "↩️ %s is pending again.\n", id)
		return err
	}
	_, err = fmt.Fprintf(out, "✅ %s done. 🔥 Streak %d\n", id, a.deadlines.State(ctx).Streak)
	return err
}

func (c *cli) add(ctx context.Context, a *app, out io.Writer, title, rawDate, description string) error {
	date, err := model.ParseDate(rawDate)
	if err != nil {
		return err
	}

	input := service.CustomDeadlineInput{Title: title, Date: date, Description: description}
	if err := input.Validate(); err != nil {
		return err
	}

	d, err := a.custom.Add(ctx, input)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "Added %s: %s on %s\n", d.ID, d.Title, d.Date)
	return err
}

func (c *cli) delete(ctx context.Context, a *app, out io.Writer, args []string) error {
	id := args[0]
	if d, ok := a.deadlines.Find(ctx, id); ok && !d.IsCustom {
		return fmt.Errorf("delete %s: catalog deadlines cannot be deleted", id)
	}
	if err := a.custom.Delete(ctx, id); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "Deleted %s.\n", id)
	return err
}

func (c *cli) setCourses(ctx context.Context, a *app, out io.Writer, args []string) error {
	subjects, err := model.ParseSubjects(args)
	if err != nil {
		return err
	}
	if err := a.deadlines.SetSelectedCourses(ctx, subjects); err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, c.report.CourseList(a.deadlines.State(ctx).SelectedCourses))
	return err
}

func printSettings(out io.Writer, s service.NotificationSettings) error {
	state := "off"
	if s.Enabled {
		state = "on"
	}
	_, err := fmt.Fprintf(out, "Reminders: %s · %dh ahead · permission %s\n", state, s.LeadHours, s.Permission)
	return err
}

func runBot(ctx context.Context, a *app, _ io.Writer, _ []string) error {
	if err := a.cfg.ValidateBot(); err != nil {
		return err
	}
	if a.telegram == nil {
		return fmt.Errorf("telegram is unreachable")
	}

	tg := bot.New(a.telegram, a.cfg.Telegram.ChatID, a.deadlines, a.custom, a.notifications, a.log)

	if a.cfg.DigestTime != "" {
		loc, err := a.cfg.Location()
		if err != nil {
			return err
		}
		scheduler := service.NewSchedulerService(loc, a.log)
		id, err := scheduler.ScheduleDaily(a.cfg.DigestTime, func() {
			jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := tg.SendDigest(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("digest", zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("schedule digest: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
		a.log.Info("digest scheduled", zap.Time("next", scheduler.Next(id)))
	}

	a.log.Info("deadline bot started")
	if err := tg.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot stopped: %w", err)
	}
	a.log.Info("shutdown complete")
	return nil
}

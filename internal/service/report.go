package service

import (
	"fmt"
	"html"
	"strings"

	"deadline-intel/internal/model"
)

// Report renders snapshots as text. HTML output targets Telegram's parse mode;
// plain output targets the terminal.
type Report struct {
	html bool
}

func PlainReport() Report { return Report{} }

func HTMLReport() Report { return Report{html: true} }

func (r Report) esc(s string) string {
	if r.html {
		return html.EscapeString(s)
	}
	return s
}

func (r Report) bold(s string) string {
	if r.html {
		return "<b>" + html.EscapeString(s) + "</b>"
	}
	return s
}

func (r Report) italic(s string) string {
	if r.html {
		return "<i>" + html.EscapeString(s) + "</i>"
	}
	return s
}

func (r Report) code(s string) string {
	if r.html {
		return "<code>" + html.EscapeString(s) + "</code>"
	}
	return s
}

// Dashboard is the home view: next critical item, stats and urgency buckets.
func (r Report) Dashboard(snap Snapshot, term string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📋 %s\n", r.bold("Deadline Intel · "+term)))
	b.WriteString(fmt.Sprintf("🗓 %s\n", snap.Today.Format("Monday, January 2")))

	if !snap.HasConfiguredCourses {
		b.WriteString("\nNo courses selected yet. Pick your courses to see deadlines.\n")
		return strings.TrimSpace(b.String())
	}

	if next := snap.NextCritical; next != nil {
		b.WriteString(fmt.Sprintf("\n🎯 %s\n", r.bold("Next critical")))
		b.WriteString(fmt.Sprintf("%s · %s\n", r.bold(next.Title), r.esc(next.Subject.Label())))
		b.WriteString(fmt.Sprintf("   %s · %s\n", next.Date.Format("Monday, January 2"), dayLabel(*next)))
	} else {
		b.WriteString("\n🎯 Nothing pending. All clear.\n")
	}

	risk := "CLEAR"
	if snap.Stats.AtRisk {
		risk = "AT RISK"
	}
	b.WriteString(fmt.Sprintf("\n🔥 Streak %d · ✅ This week %d · 📈 Rate %d%% · %s\n",
		snap.Stats.Streak, snap.Stats.CompletedThisWeek, snap.Stats.CompletionRate, r.bold(risk)))

	r.section(&b, "⚠️", "Overdue", snap.Overdue)
	r.section(&b, "🔴", "Red zone · due within 5 days", snap.Red)
	r.section(&b, "🟠", "Orange zone · 6 to 10 days", snap.Orange)

	if len(snap.TodayDeadlines) > 0 {
		r.section(&b, "📌", "Due today", snap.TodayDeadlines)
	}

	return strings.TrimSpace(b.String())
}

func (r Report) section(b *strings.Builder, icon, title string, items []model.EnrichedItem) {
	if len(items) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("\n%s %s\n", icon, r.bold(fmt.Sprintf("%s (%d)", title, len(items)))))
	for _, item := range items {
		b.WriteString(r.Item(item))
	}
}

// List renders items one per line with a heading.
func (r Report) List(title string, items []model.EnrichedItem) string {
	var b strings.Builder
	b.WriteString(r.bold(fmt.Sprintf("%s (%d)", title, len(items))))
	b.WriteByte('\n')
	if len(items) == 0 {
		b.WriteString("— nothing here\n")
	}
	for _, item := range items {
		b.WriteString(r.Item(item))
	}
	return strings.TrimSpace(b.String())
}

// Item renders one deadline row.
func (r Report) Item(item model.EnrichedItem) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s %s", itemIcon(item), r.esc(strings.TrimSpace(item.Title))))
	sb.WriteString(fmt.Sprintf(" %s", r.italic("("+item.Subject.Label()+" · "+item.Type.Label()+")")))
	sb.WriteString(fmt.Sprintf("\n   ⏰ %s · %s · %s", item.Date.String(), dayLabel(item), r.code(item.ID)))

	if item.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", r.esc(strings.TrimSpace(item.Description))))
	}

	sb.WriteByte('\n')
	return sb.String()
}

// Subjects renders the per-course progress cards.
func (r Report) Subjects(snap Snapshot) string {
	var b strings.Builder
	b.WriteString(r.bold("Courses"))
	b.WriteByte('\n')
	if len(snap.Subjects) == 0 {
		b.WriteString("— no courses selected\n")
	}
	for _, sum := range snap.Subjects {
		b.WriteString(fmt.Sprintf("\n%s %s · %d/%d done (%d%%) · %d due this week\n",
			riskIcon(sum.Risk), r.bold(sum.Subject.Label()), sum.Completed, sum.Total, sum.Percent, sum.DueIn7))
		for _, item := range sum.Upcoming {
			b.WriteString(fmt.Sprintf("   • %s · %s\n", r.esc(item.Title), dayLabel(item)))
		}
	}
	return strings.TrimSpace(b.String())
}

// Timeline lists pending work by date with crunch periods highlighted.
func (r Report) Timeline(snap Snapshot) string {
	var b strings.Builder
	b.WriteString(r.bold("Timeline"))
	b.WriteByte('\n')

	if len(snap.Clusters) == 0 {
		b.WriteString("No crunch periods ahead.\n")
	}
	for _, c := range snap.Clusters {
		b.WriteString(fmt.Sprintf("🔥 Crunch %s – %s · %d items\n", c.Start.Format("Jan 2"), c.End.Format("Jan 2"), c.Count))
	}

	var lastMonth string
	for _, item := range snap.Pending {
		month := item.Date.Format("January 2006")
		if month != lastMonth {
			b.WriteString(fmt.Sprintf("\n%s\n", r.bold(month)))
			lastMonth = month
		}
		marker := "  "
		if inCluster(snap.Clusters, item.Date) {
			marker = "▌ "
		}
		b.WriteString(fmt.Sprintf("%s%s %s %s\n", marker, item.Date.Format("Jan 02"), itemIcon(item), r.esc(item.Title)))
	}
	return strings.TrimSpace(b.String())
}

// CourseList shows the catalog of courses with the selected ones checked.
func (r Report) CourseList(selected []model.Subject) string {
	chosen := make(map[model.Subject]bool, len(selected))
	for _, s := range selected {
		chosen[s] = true
	}

	var b strings.Builder
	var level model.Level = "-"
	for _, c := range model.Courses {
		if c.Level != level {
			level = c.Level
			b.WriteString(fmt.Sprintf("\n%s\n", r.bold(strings.ToUpper(string(level)))))
		}
		mark := "▫️"
		if chosen[c.ID] {
			mark = "✅"
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n", mark, r.code(string(c.ID)), r.esc(c.Name)))
	}
	return strings.TrimSpace(b.String())
}

// dayLabel is the short countdown shown next to an item.
func dayLabel(item model.EnrichedItem) string {
	switch {
	case item.Completed:
		return "Done"
	case item.DaysLeft < 0:
		return fmt.Sprintf("%dd overdue", -item.DaysLeft)
	case item.DaysLeft == 0:
		return "Today"
	default:
		return fmt.Sprintf("%dd", item.DaysLeft)
	}
}

func itemIcon(item model.EnrichedItem) string {
	if item.Completed {
		return "✅"
	}
	switch item.Urgency {
	case model.ZoneOverdue:
		return "⚠️"
	case model.ZoneRed:
		return "🔴"
	case model.ZoneOrange:
		return "🟠"
	default:
		return "🟢"
	}
}

func riskIcon(risk RiskLevel) string {
	switch risk {
	case RiskRed:
		return "🔴"
	case RiskYellow:
		return "🟡"
	default:
		return "🟢"
	}
}

func inCluster(clusters []Cluster, day model.Date) bool {
	for _, c := range clusters {
		if !day.Before(c.Start) && !day.After(c.End) {
			return true
		}
	}
	return false
}

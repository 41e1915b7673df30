package service

import (
	"math"
	"sort"

	"deadline-intel/internal/model"
)

const (
	// upcomingWindowDays bounds the "next 7 days" views and the at-risk count.
	upcomingWindowDays = 7
	atRiskThreshold    = 3

	subjectTopUpcoming = 5

	crunchWindowDays = 4
	crunchMinItems   = 3
)

// RiskLevel grades a single course by how many items fall due this week.
type RiskLevel string

const (
	RiskGreen  RiskLevel = "green"
	RiskYellow RiskLevel = "yellow"
	RiskRed    RiskLevel = "red"
)

func riskFor(dueIn7 int) RiskLevel {
	switch {
	case dueIn7 >= 3:
		return RiskRed
	case dueIn7 >= 2:
		return RiskYellow
	default:
		return RiskGreen
	}
}

type Stats struct {
	CompletedThisWeek int  `json:"completedThisWeek"`
	CompletionRate    int  `json:"completionRate"`
	AtRisk            bool `json:"atRisk"`
	Streak            int  `json:"streak"`
}

// SubjectSummary is the per-course progress card.
type SubjectSummary struct {
	Subject   model.Subject        `json:"subject"`
	Total     int                  `json:"total"`
	Completed int                  `json:"completed"`
	Percent   int                  `json:"percent"`
	DueIn7    int                  `json:"dueIn7"`
	Risk      RiskLevel            `json:"risk"`
	Upcoming  []model.EnrichedItem `json:"upcoming"`
}

// Cluster is a run of days where pending work piles up.
type Cluster struct {
	Start model.Date `json:"start"`
	End   model.Date `json:"end"`
	Count int        `json:"count"`
}

// Snapshot is everything the dashboard shows for one day. It is recomputed
// on every read and never stored.
type Snapshot struct {
	Today model.Date `json:"today"`

	Items     []model.EnrichedItem `json:"items"`
	Pending   []model.EnrichedItem `json:"pending"`
	Completed []model.EnrichedItem `json:"completed"`

	NextCritical   *model.EnrichedItem  `json:"nextCritical"`
	Overdue        []model.EnrichedItem `json:"overdue"`
	Red            []model.EnrichedItem `json:"red"`
	Orange         []model.EnrichedItem `json:"orange"`
	Upcoming7      []model.EnrichedItem `json:"upcoming7"`
	TodayDeadlines []model.EnrichedItem `json:"todayDeadlines"`

	Stats    Stats            `json:"stats"`
	Subjects []SubjectSummary `json:"subjects"`
	Clusters []Cluster        `json:"clusters"`

	Theme                model.Theme     `json:"theme"`
	SelectedCourses      []model.Subject `json:"selectedCourses"`
	HasConfiguredCourses bool            `json:"hasConfiguredCourses"`
}

// Derive builds the snapshot for today from the full record set (catalog
// followed by custom records) and the persisted state.
func Derive(records []model.Deadline, state model.DeadlineState, today model.Date) Snapshot {
	snap := Snapshot{
		Today:                today,
		Items:                []model.EnrichedItem{},
		Pending:              []model.EnrichedItem{},
		Completed:            []model.EnrichedItem{},
		Theme:                state.Theme,
		SelectedCourses:      append([]model.Subject(nil), state.SelectedCourses...),
		HasConfiguredCourses: state.HasConfiguredCourses,
	}
	model.SortSubjects(snap.SelectedCourses)
	snap.Stats.Streak = state.Streak

	if state.HasConfiguredCourses {
		done := state.CompletedSet()
		for _, rec := range records {
			if !state.Selects(rec.Subject) {
				continue
			}
			snap.Items = append(snap.Items, model.Enrich(rec, done[rec.ID], today))
		}
	}

	for _, item := range snap.Items {
		if item.Completed {
			snap.Completed = append(snap.Completed, item)
		} else {
			snap.Pending = append(snap.Pending, item)
		}
	}

	snap.Overdue = filterByDays(snap.Pending, func(it model.EnrichedItem) bool { return it.Urgency == model.ZoneOverdue })
	snap.Red = filterByDays(snap.Pending, func(it model.EnrichedItem) bool { return it.Urgency == model.ZoneRed })
	snap.Orange = filterByDays(snap.Pending, func(it model.EnrichedItem) bool { return it.Urgency == model.ZoneOrange })
	snap.Upcoming7 = filterByDays(snap.Pending, dueWithinWeek)
	snap.NextCritical = nextCritical(snap.Pending)

	snap.TodayDeadlines = []model.EnrichedItem{}
	for _, item := range snap.Items {
		if item.Date.Equal(today) {
			snap.TodayDeadlines = append(snap.TodayDeadlines, item)
		}
	}
	sort.SliceStable(snap.TodayDeadlines, func(i, j int) bool {
		return snap.TodayDeadlines[i].Priority < snap.TodayDeadlines[j].Priority
	})

	weekStart := today.StartOfWeek()
	for _, item := range snap.Completed {
		if !item.Date.Before(weekStart) && !item.Date.After(today) {
			snap.Stats.CompletedThisWeek++
		}
	}
	snap.Stats.CompletionRate = completionRate(snap.Items)
	snap.Stats.AtRisk = len(snap.Upcoming7) >= atRiskThreshold

	snap.Subjects = make([]SubjectSummary, 0, len(snap.SelectedCourses))
	for _, subject := range snap.SelectedCourses {
		snap.Subjects = append(snap.Subjects, summarize(subject, snap.SubjectItems(subject)))
	}
	snap.Clusters = crunchClusters(snap.Pending)

	return snap
}

// SubjectItems returns the items of one course, including those that apply to all courses.
func (s Snapshot) SubjectItems(subject model.Subject) []model.EnrichedItem {
	out := []model.EnrichedItem{}
	for _, item := range s.Items {
		if item.AppliesTo(subject) {
			out = append(out, item)
		}
	}
	return out
}

// Find looks an item up in the active pool.
func (s Snapshot) Find(id string) (model.EnrichedItem, bool) {
	for _, item := range s.Items {
		if item.ID == id {
			return item, true
		}
	}
	return model.EnrichedItem{}, false
}

func dueWithinWeek(it model.EnrichedItem) bool {
	return it.DaysLeft >= 0 && it.DaysLeft <= upcomingWindowDays
}

// filterByDays keeps matching items sorted ascending by days left, stable on input order.
func filterByDays(items []model.EnrichedItem, keep func(model.EnrichedItem) bool) []model.EnrichedItem {
	out := []model.EnrichedItem{}
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysLeft < out[j].DaysLeft })
	return out
}

// nextCritical picks the soonest non-overdue pending item, priority breaking ties.
// Remaining ties resolve to the earlier record.
func nextCritical(pending []model.EnrichedItem) *model.EnrichedItem {
	var best *model.EnrichedItem
	for i := range pending {
		item := pending[i]
		if item.DaysLeft < 0 {
			continue
		}
		if best == nil ||
			item.DaysLeft < best.DaysLeft ||
			(item.DaysLeft == best.DaysLeft && item.Priority < best.Priority) {
			best = &item
		}
	}
	return best
}

// completionRate is the share of completed items among those completed or
// already past due. An empty population counts as 100%.
func completionRate(items []model.EnrichedItem) int {
	var total, done int
	for _, item := range items {
		if item.DaysLeft < 0 || item.Completed {
			total++
			if item.Completed {
				done++
			}
		}
	}
	if total == 0 {
		return 100
	}
	return percent(done, total)
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(whole)))
}

func summarize(subject model.Subject, items []model.EnrichedItem) SubjectSummary {
	sum := SubjectSummary{Subject: subject, Total: len(items)}
	var pending []model.EnrichedItem
	for _, item := range items {
		if item.Completed {
			sum.Completed++
			continue
		}
		pending = append(pending, item)
		if dueWithinWeek(item) {
			sum.DueIn7++
		}
	}
	sum.Percent = percent(sum.Completed, sum.Total)
	sum.Risk = riskFor(sum.DueIn7)

	sum.Upcoming = filterByDays(pending, func(it model.EnrichedItem) bool { return it.DaysLeft >= 0 })
	if len(sum.Upcoming) > subjectTopUpcoming {
		sum.Upcoming = sum.Upcoming[:subjectTopUpcoming]
	}
	return sum
}

// crunchClusters slides a four-day window across the pending items and
// reports the spans where at least three of them fall due. Windows that
// overlap or touch are merged.
func crunchClusters(pending []model.EnrichedItem) []Cluster {
	clusters := []Cluster{}
	if len(pending) < crunchMinItems {
		return clusters
	}

	first, last := pending[0].Date, pending[0].Date
	for _, item := range pending[1:] {
		if item.Date.Before(first) {
			first = item.Date
		}
		if item.Date.After(last) {
			last = item.Date
		}
	}

	countIn := func(start, end model.Date) int {
		n := 0
		for _, item := range pending {
			if !item.Date.Before(start) && !item.Date.After(end) {
				n++
			}
		}
		return n
	}

	span := crunchWindowDays - 1
	for day := first.AddDays(-span); !day.After(last); day = day.AddDays(1) {
		end := day.AddDays(span)
		if countIn(day, end) < crunchMinItems {
			continue
		}
		if n := len(clusters); n > 0 && !clusters[n-1].End.Before(day.AddDays(-1)) {
			clusters[n-1].End = end
			continue
		}
		clusters = append(clusters, Cluster{Start: day, End: end})
	}

	// Shrink each span to the due dates it actually holds.
	for i := range clusters {
		c := &clusters[i]
		var lo, hi model.Date
		for _, item := range pending {
			if item.Date.Before(c.Start) || item.Date.After(c.End) {
				continue
			}
			c.Count++
			if lo.IsZero() || item.Date.Before(lo) {
				lo = item.Date
			}
			if hi.IsZero() || item.Date.After(hi) {
				hi = item.Date
			}
		}
		c.Start, c.End = lo, hi
	}
	return clusters
}

// Package stats derives time-bucketed views from the raw session list.
// Every function is pure and handles an empty list by returning zero-filled
// buckets.
package stats

import (
	"sort"
	"time"

	"focustimer/internal/model"
)

// Bucket is one time slot of an aggregation view. ByLabel keys are label
// ids, with the empty string holding unlabeled time.
type Bucket struct {
	Count   int            `json:"count"`
	Seconds int            `json:"seconds"`
	ByLabel map[string]int `json:"byLabel,omitempty"`
}

// Totals reports today's sessions and the rolling 7-day window ending now.
func Totals(sessions []model.Session, now time.Time) (today, week Bucket) {
	dayStart := startOfDay(now)
	weekStart := now.Add(-7 * 24 * time.Hour)
	for _, s := range sessions {
		if !s.Date.Before(dayStart) && !s.Date.After(now) {
			today.Count++
			today.Seconds += s.Duration
		}
		if s.Date.After(weekStart) && !s.Date.After(now) {
			week.Count++
			week.Seconds += s.Duration
		}
	}
	return today, week
}

// WeekView buckets sessions into the 7 days of a week starting Monday.
// Offset 0 is the current week, 1 the previous, and so on. Bucket 0 is
// Monday.
func WeekView(sessions []model.Session, now time.Time, offset int) []Bucket {
	start := startOfWeek(now).AddDate(0, 0, -7*offset)
	end := start.AddDate(0, 0, 7)
	buckets := newBuckets(7)
	for _, s := range sessions {
		if s.Date.Before(start) || !s.Date.Before(end) {
			continue
		}
		day := calendarDaysBetween(start, s.Date.In(now.Location()))
		if day < 0 || day > 6 {
			continue
		}
		fill(&buckets[day], s)
	}
	return buckets
}

// MonthView buckets sessions into the days of a month; offset counts months
// back from now. Bucket 0 is the 1st.
func MonthView(sessions []model.Session, now time.Time, offset int) []Bucket {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -offset, 0)
	next := first.AddDate(0, 1, 0)
	days := next.AddDate(0, 0, -1).Day()
	buckets := newBuckets(days)
	for _, s := range sessions {
		local := s.Date.In(now.Location())
		if local.Before(first) || !local.Before(next) {
			continue
		}
		fill(&buckets[local.Day()-1], s)
	}
	return buckets
}

// YearView buckets sessions into the 12 months of a year; offset counts
// years back from now. Bucket 0 is January.
func YearView(sessions []model.Session, now time.Time, offset int) []Bucket {
	year := now.Year() - offset
	buckets := newBuckets(12)
	for _, s := range sessions {
		local := s.Date.In(now.Location())
		if local.Year() != year {
			continue
		}
		fill(&buckets[int(local.Month())-1], s)
	}
	return buckets
}

// LabelTotal is one row of the per-label breakdown. LabelID is empty for
// the unlabeled bucket; Ratio is the share of grand-total seconds.
type LabelTotal struct {
	LabelID string  `json:"label,omitempty"`
	Count   int     `json:"count"`
	Seconds int     `json:"seconds"`
	Ratio   float64 `json:"ratio"`
}

// LabelView aggregates the whole history per label, including an unlabeled
// bucket, sorted by total time descending.
func LabelView(sessions []model.Session) []LabelTotal {
	byLabel := make(map[string]*LabelTotal)
	grand := 0
	for _, s := range sessions {
		total, ok := byLabel[s.Label]
		if !ok {
			total = &LabelTotal{LabelID: s.Label}
			byLabel[s.Label] = total
		}
		total.Count++
		total.Seconds += s.Duration
		grand += s.Duration
	}
	if _, ok := byLabel[""]; !ok {
		byLabel[""] = &LabelTotal{}
	}

	out := make([]LabelTotal, 0, len(byLabel))
	for _, total := range byLabel {
		if grand > 0 {
			total.Ratio = float64(total.Seconds) / float64(grand)
		}
		out = append(out, *total)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Seconds != out[j].Seconds {
			return out[i].Seconds > out[j].Seconds
		}
		return out[i].LabelID < out[j].LabelID
	})
	return out
}

func newBuckets(n int) []Bucket {
	buckets := make([]Bucket, n)
	for i := range buckets {
		buckets[i].ByLabel = make(map[string]int)
	}
	return buckets
}

func fill(b *Bucket, s model.Session) {
	b.Count++
	b.Seconds += s.Duration
	b.ByLabel[s.Label] += s.Duration
}

// calendarDaysBetween counts whole calendar days from a's date to b's date.
// Comparing UTC-normalized midnights keeps daylight-saving shifts from
// skewing the count in locations where a day is not 24 hours long.
func calendarDaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from) / (24 * time.Hour))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns the Monday 00:00 of t's week.
func startOfWeek(t time.Time) time.Time {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	return startOfDay(t).AddDate(0, 0, -daysSinceMonday)
}

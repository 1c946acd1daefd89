package progress

import (
	"fmt"
	"time"
)

const labelLayout = "2006.01.02"

// GenerateWeeks returns count consecutive Monday-to-Sunday weeks beginning on start.
// Ids are W1..Wn and labels read "YYYY.MM.DD ~ YYYY.MM.DD".
func GenerateWeeks(start time.Time, count int) []WeekMeta {
	if count <= 0 {
		return nil
	}

	monday := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	weeks := make([]WeekMeta, 0, count)
	for i := 0; i < count; i++ {
		from := monday.AddDate(0, 0, 7*i)
		to := from.AddDate(0, 0, 6)
		weeks = append(weeks, WeekMeta{
			ID:    fmt.Sprintf("W%d", i+1),
			Label: from.Format(labelLayout) + " ~ " + to.Format(labelLayout),
			Start: from,
			End:   to,
		})
	}
	return weeks
}

// Calendar is the week window computed once at startup.
type Calendar struct {
	weeks []WeekMeta
	index map[string]int
}

// NewCalendar generates the window. start must be a Monday.
func NewCalendar(start time.Time, count int) (*Calendar, error) {
	if start.Weekday() != time.Monday {
		return nil, fmt.Errorf("week start %s is a %s, want Monday", start.Format(time.DateOnly), start.Weekday())
	}
	if count <= 0 {
		return nil, fmt.Errorf("week count must be positive, got %d", count)
	}

	weeks := GenerateWeeks(start, count)
	index := make(map[string]int, len(weeks))
	for i, w := range weeks {
		index[w.ID] = i
	}
	return &Calendar{weeks: weeks, index: index}, nil
}

// Weeks returns a copy of the window in chronological order.
func (c *Calendar) Weeks() []WeekMeta {
	return append([]WeekMeta(nil), c.weeks...)
}

// Lookup returns the week with the given id.
func (c *Calendar) Lookup(weekID string) (WeekMeta, bool) {
	i, ok := c.index[weekID]
	if !ok {
		return WeekMeta{}, false
	}
	return c.weeks[i], true
}

// Current returns the week containing now, or the first week when now is outside the window.
func (c *Calendar) Current(now time.Time) WeekMeta {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for _, w := range c.weeks {
		if !day.Before(w.Start) && !day.After(w.End) {
			return w
		}
	}
	return c.weeks[0]
}

package progress

import "fmt"

// percent rounds 100*filled/total half up without going through floating point.
func percent(filled, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*filled + total) / (2 * total)
}

// clampedFilled bounds a stored count to [0, total]. Stored counts can exceed total after a
// structure edit lowers it; the stored value is left untouched.
func clampedFilled(doc WeekDocument, item Item) int {
	filled := doc.Filled(item.ID)
	if filled < 0 {
		return 0
	}
	if filled > item.Total {
		return max(item.Total, 0)
	}
	return filled
}

func sumItems(doc WeekDocument, items []Item) (filled, total int) {
	for _, item := range items {
		filled += clampedFilled(doc, item)
		total += max(item.Total, 0)
	}
	return filled, total
}

func newStat(filled, total int) Stat {
	return Stat{Percent: percent(filled, total), Minutes: filled * BlockMinutes}
}

// WeekStats derives the completion percent and studied minutes of a whole week.
func WeekStats(doc WeekDocument, structure []Category) Stat {
	var filled, total int
	for _, cat := range structure {
		f, t := sumItems(doc, cat.Items)
		filled += f
		total += t
	}
	return newStat(filled, total)
}

// CategoryStats derives one Stat per category, in structure order.
func CategoryStats(doc WeekDocument, structure []Category) []CategoryStat {
	stats := make([]CategoryStat, 0, len(structure))
	for _, cat := range structure {
		filled, total := sumItems(doc, cat.Items)
		stats = append(stats, CategoryStat{
			ID:    cat.ID,
			Label: cat.Label,
			Color: cat.Color,
			Stat:  newStat(filled, total),
		})
	}
	return stats
}

// ItemCompletion reports the recorded count of item and whether it is complete.
// An item with a zero total is never complete.
func ItemCompletion(doc WeekDocument, item Item) Completion {
	filled := doc.Filled(item.ID)
	return Completion{
		Filled:    filled,
		Completed: item.Total > 0 && filled >= item.Total,
	}
}

// NextFill returns the count after clicking block blockIndex of a bar filled to current.
// Clicking sets the bar to blockIndex+1, unless it already is exactly there, in which case it
// retracts to blockIndex.
func NextFill(current, blockIndex int) int {
	if current == blockIndex+1 {
		return blockIndex
	}
	return blockIndex + 1
}

// ToggleBlock computes the new completed count of item after a click on blockIndex.
func ToggleBlock(doc WeekDocument, item Item, blockIndex int) (int, error) {
	if blockIndex < 0 || blockIndex >= item.Total {
		return 0, fmt.Errorf("%w: block %d of item %s with %d blocks", ErrBlockOutOfRange, blockIndex, item.ID, item.Total)
	}
	return NextFill(doc.Filled(item.ID), blockIndex), nil
}

// IsAllCategoriesComplete reports whether every category is at 100%. An empty list is not complete.
func IsAllCategoriesComplete(stats []CategoryStat) bool {
	if len(stats) == 0 {
		return false
	}
	for _, s := range stats {
		if s.Percent != 100 {
			return false
		}
	}
	return true
}

// CompletedCategories returns the categories at 100%, in order.
func CompletedCategories(stats []CategoryStat) []CategoryStat {
	done := make([]CategoryStat, 0, len(stats))
	for _, s := range stats {
		if s.Percent == 100 {
			done = append(done, s)
		}
	}
	return done
}

// RadarSeries is the per-category percent series.
type RadarSeries struct {
	Labels   []string `json:"labels"`
	Percents []int    `json:"percents"`
}

// DoughnutSeries is the per-category minutes series with category colors.
type DoughnutSeries struct {
	Labels  []string `json:"labels"`
	Minutes []int    `json:"minutes"`
	Colors  []string `json:"colors"`
}

// Charts bundles the chart projections of CategoryStats.
type Charts struct {
	Radar    RadarSeries    `json:"radar"`
	Doughnut DoughnutSeries `json:"doughnut"`
}

// BuildCharts projects category stats into chart series.
func BuildCharts(stats []CategoryStat) Charts {
	n := len(stats)
	c := Charts{
		Radar:    RadarSeries{Labels: make([]string, 0, n), Percents: make([]int, 0, n)},
		Doughnut: DoughnutSeries{Labels: make([]string, 0, n), Minutes: make([]int, 0, n), Colors: make([]string, 0, n)},
	}
	for _, s := range stats {
		c.Radar.Labels = append(c.Radar.Labels, s.Label)
		c.Radar.Percents = append(c.Radar.Percents, s.Percent)
		c.Doughnut.Labels = append(c.Doughnut.Labels, s.Label)
		c.Doughnut.Minutes = append(c.Doughnut.Minutes, s.Minutes)
		c.Doughnut.Colors = append(c.Doughnut.Colors, s.Color)
	}
	return c
}

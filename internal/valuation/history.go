package valuation

import (
	"sort"
	"time"

	"github.com/savings-tracker/internal/models"
)

// BuildHistory projects resolved daily observations onto a dense day-by-day
// grid: one row per calendar day from windowDays before the reference day up
// to the reference day inclusive, one column per (platform, account) pair
// labelled "platform - account". Gaps are forward-filled with the most
// recent known amount for that pair; a pair stays nil on every day before
// its first observation, which is how "no data yet" is kept distinct from a
// genuine zero balance.
func BuildHistory(resolved []models.ResolvedDay, windowDays int, reference time.Time, loc *time.Location) []models.HistoryRow {
	refDate := civilDate(reference, loc)

	// Every pair that appears anywhere in the resolved set gets a column,
	// even on days it has no observation.
	byPair := make(map[models.SeriesKey]map[int]models.ResolvedDay)
	for _, row := range resolved {
		key := row.Pair()
		if byPair[key] == nil {
			byPair[key] = make(map[int]models.ResolvedDay)
		}
		byPair[key][row.DaysAgo] = row
	}

	pairs := make([]models.SeriesKey, 0, len(byPair))
	for key := range byPair {
		pairs = append(pairs, key)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Platform != pairs[j].Platform {
			return pairs[i].Platform < pairs[j].Platform
		}
		return pairs[i].Account < pairs[j].Account
	})

	lastKnown := make(map[models.SeriesKey]*float64, len(pairs))

	rows := make([]models.HistoryRow, 0, windowDays+1)
	for daysAgo := windowDays; daysAgo >= 0; daysAgo-- {
		values := make(map[string]*float64, len(pairs))
		for _, key := range pairs {
			if obs, ok := byPair[key][daysAgo]; ok {
				amount := obs.Amount.InexactFloat64()
				lastKnown[key] = &amount
			}
			values[key.Label()] = lastKnown[key]
		}
		rows = append(rows, models.HistoryRow{
			Date:   refDate.AddDate(0, 0, -daysAgo),
			Values: values,
		})
	}

	return rows
}

// BuildHistoryPercentage converts an absolute-amount history into cumulative
// day-over-day return indexes. Per column, each day's value is divided by
// the prior day's value and the ratios are multiplied up, normalizing the
// index to the start of the visible window. The first day of the window has
// no prior day and is nil; once any link in the chain is missing or divides
// by zero, the remainder of that column stays nil.
func BuildHistoryPercentage(history []models.HistoryRow) []models.HistoryRow {
	if len(history) == 0 {
		return nil
	}

	labels := make(map[string]bool)
	for _, row := range history {
		for label := range row.Values {
			labels[label] = true
		}
	}

	rows := make([]models.HistoryRow, len(history))
	for i, row := range history {
		values := make(map[string]*float64, len(labels))
		for label := range labels {
			values[label] = nil
		}
		rows[i] = models.HistoryRow{
			Date:   row.Date,
			Values: values,
		}
	}

	for label := range labels {
		acc := 1.0
		started := false
		broken := false
		for i := 1; i < len(history); i++ {
			cur := history[i].Values[label]
			prev := history[i-1].Values[label]

			if broken || cur == nil || prev == nil || *prev == 0 {
				if started {
					broken = true
				}
				continue
			}

			acc *= *cur / *prev
			started = true
			index := acc
			rows[i].Values[label] = &index
		}
	}

	return rows
}

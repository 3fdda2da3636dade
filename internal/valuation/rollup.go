package valuation

import (
	"github.com/savings-tracker/internal/models"
	"github.com/shopspring/decimal"
)

// Period lags in days. Month and year use the calendar approximations the
// period-over-period comparisons have always used.
const (
	lagToday     = 0
	lagYesterday = 1
	lagWeek      = 7
	lagMonth     = 30
	lagYear      = 365
)

// BuildPortfolio rolls resolved daily observations up into the current
// portfolio view: per-platform holdings and weights for today and yesterday,
// the grand totals, and day/week/month/year percentage changes.
//
// Missing data stays absent throughout: a platform with no usable
// observation for a period is omitted from that period's map, and a
// percentage change whose reference total is absent or zero is nil. Nothing
// here ever fabricates a zero or divides by one.
func BuildPortfolio(resolved []models.ResolvedDay) models.PortfolioSnapshot {
	today := selectAtLag(resolved, lagToday, false)
	yesterday := selectAtLag(resolved, lagYesterday, false)
	week := selectAtLag(resolved, lagWeek, true)
	month := selectAtLag(resolved, lagMonth, true)
	year := selectAtLag(resolved, lagYear, true)

	todayTotals := platformTotals(today)
	yesterdayTotals := platformTotals(yesterday)

	todayGrand := grandTotal(todayTotals)
	yesterdayGrand := grandTotal(yesterdayTotals)

	snapshot := models.PortfolioSnapshot{
		Holdings: models.HoldingsByPeriod{
			Today:     roundedHoldings(todayTotals),
			Yesterday: roundedHoldings(yesterdayTotals),
		},
		Weightings: models.HoldingsByPeriod{
			Today:     weights(todayTotals, todayGrand),
			Yesterday: weights(yesterdayTotals, yesterdayGrand),
		},
		Total:          todayGrand.Round(2).InexactFloat64(),
		YesterdayTotal: yesterdayGrand.Round(2).InexactFloat64(),
	}

	// Day-over-day is only comparable when every series contributing to
	// today also has a yesterday observation; otherwise the two totals
	// cover different account sets and the change would be misleading.
	if covers(yesterday, today) {
		snapshot.PctChange = pctChange(todayGrand, yesterdayGrand, len(yesterday) > 0)
	}
	snapshot.WeekOverWeek = pctChange(todayGrand, grandTotal(platformTotals(week)), len(week) > 0)
	snapshot.MonthOverMonth = pctChange(todayGrand, grandTotal(platformTotals(month)), len(month) > 0)
	snapshot.YearOverYear = pctChange(todayGrand, grandTotal(platformTotals(year)), len(year) > 0)

	return snapshot
}

// selectAtLag picks, per (platform, account) pair, the observation closest
// to the target lag: the smallest DaysAgo at or beyond the lag. With
// twoSided set, a pair with no observation that far back falls back to its
// largest DaysAgo on the near side, so every pair contributes its best
// available approximation instead of silently dropping out.
func selectAtLag(resolved []models.ResolvedDay, lag int, twoSided bool) []models.ResolvedDay {
	far := make(map[models.SeriesKey]models.ResolvedDay)
	near := make(map[models.SeriesKey]models.ResolvedDay)

	for _, row := range resolved {
		key := row.Pair()
		if row.DaysAgo >= lag {
			if cur, ok := far[key]; !ok || row.DaysAgo < cur.DaysAgo {
				far[key] = row
			}
		} else if twoSided {
			if cur, ok := near[key]; !ok || row.DaysAgo > cur.DaysAgo {
				near[key] = row
			}
		}
	}

	selected := make([]models.ResolvedDay, 0, len(far)+len(near))
	for _, row := range far {
		selected = append(selected, row)
	}
	for key, row := range near {
		if _, ok := far[key]; !ok {
			selected = append(selected, row)
		}
	}
	return selected
}

// platformTotals sums the selected per-account amounts by platform.
func platformTotals(rows []models.ResolvedDay) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		totals[row.Platform] = totals[row.Platform].Add(row.Amount)
	}
	return totals
}

func grandTotal(totals map[string]decimal.Decimal) decimal.Decimal {
	var sum decimal.Decimal
	for _, t := range totals {
		sum = sum.Add(t)
	}
	return sum
}

// roundedHoldings converts platform totals to the output representation,
// rounded to 2 decimal places. Returns nil when the period has no data so
// the absence is visible to callers.
func roundedHoldings(totals map[string]decimal.Decimal) map[string]float64 {
	if len(totals) == 0 {
		return nil
	}
	out := make(map[string]float64, len(totals))
	for platform, total := range totals {
		out[platform] = total.Round(2).InexactFloat64()
	}
	return out
}

// weights computes each platform's share of the grand total as a percentage
// rounded to 1 decimal place. When the grand total is zero or there is no
// data the weights are undefined and reported as nil, never as garbage.
func weights(totals map[string]decimal.Decimal, grand decimal.Decimal) map[string]float64 {
	if len(totals) == 0 || grand.IsZero() {
		return nil
	}
	hundred := decimal.NewFromInt(100)
	out := make(map[string]float64, len(totals))
	for platform, total := range totals {
		out[platform] = total.Mul(hundred).Div(grand).Round(1).InexactFloat64()
	}
	return out
}

// pctChange computes round(100*current/reference − 100, 1), or nil when the
// reference period has no data or a zero total.
func pctChange(current, reference decimal.Decimal, hasData bool) *float64 {
	if !hasData || reference.IsZero() {
		return nil
	}
	hundred := decimal.NewFromInt(100)
	change := current.Mul(hundred).Div(reference).Sub(hundred).Round(1).InexactFloat64()
	return &change
}

// covers reports whether every pair present in want also appears in have.
func covers(have, want []models.ResolvedDay) bool {
	pairs := make(map[models.SeriesKey]bool, len(have))
	for _, row := range have {
		pairs[row.Pair()] = true
	}
	for _, row := range want {
		if !pairs[row.Pair()] {
			return false
		}
	}
	return true
}

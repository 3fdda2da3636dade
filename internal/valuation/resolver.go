// Package valuation implements the portfolio valuation core: reducing the
// append-only snapshot ledger to daily observations, rolling those up into a
// cross-sectional portfolio view, and projecting dense day-by-day history.
// Everything in this package is a pure function of its inputs; derived views
// are recomputed on every query and never persisted.
package valuation

import (
	"sort"
	"time"

	"github.com/savings-tracker/internal/models"
)

// UnboundedLookback disables the lookback restriction in ResolveDaily.
const UnboundedLookback = -1

// ResolveDaily reduces raw ledger snapshots to at most one observation per
// (platform, account, calendar day), keeping the latest-timestamped snapshot
// of each day. Days are bucketed in loc, the canonical timezone; mixing
// bucketing timezones across one computation is a correctness bug, so every
// downstream consumer must pass the same location.
//
// When two snapshots share an identical maximum timestamp the one appended
// last (highest ledger ID) wins, which keeps repeated resolution
// deterministic.
//
// Rows bucketed after the reference day (future-dated by clock skew) are
// dropped. When lookbackDays >= 0 rows more than lookbackDays days before
// the reference day are dropped too. The result is ordered by platform,
// account, then DaysAgo ascending.
func ResolveDaily(snapshots []models.Snapshot, reference time.Time, lookbackDays int, loc *time.Location) []models.ResolvedDay {
	refDate := civilDate(reference, loc)

	type bucketKey struct {
		platform string
		account  string
		date     time.Time
	}

	best := make(map[bucketKey]models.Snapshot)
	for _, s := range snapshots {
		key := bucketKey{platform: s.Platform, account: s.Account, date: civilDate(s.Time, loc)}
		cur, ok := best[key]
		if !ok || s.Time.After(cur.Time) || (s.Time.Equal(cur.Time) && s.ID > cur.ID) {
			best[key] = s
		}
	}

	resolved := make([]models.ResolvedDay, 0, len(best))
	for key, s := range best {
		daysAgo := daysBetween(key.date, refDate)
		if daysAgo < 0 {
			continue
		}
		if lookbackDays >= 0 && daysAgo > lookbackDays {
			continue
		}
		resolved = append(resolved, models.ResolvedDay{
			Platform: s.Platform,
			Account:  s.Account,
			Amount:   s.Amount,
			Date:     key.date,
			DaysAgo:  daysAgo,
		})
	}

	sort.Slice(resolved, func(i, j int) bool {
		if resolved[i].Platform != resolved[j].Platform {
			return resolved[i].Platform < resolved[j].Platform
		}
		if resolved[i].Account != resolved[j].Account {
			return resolved[i].Account < resolved[j].Account
		}
		return resolved[i].DaysAgo < resolved[j].DaysAgo
	})

	return resolved
}

// civilDate returns the calendar date of t in loc, represented as midnight
// UTC so that date arithmetic is immune to DST transitions in loc.
func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole days from earlier to later. Both arguments
// must be civilDate values.
func daysBetween(earlier, later time.Time) int {
	return int(later.Sub(earlier).Hours() / 24)
}

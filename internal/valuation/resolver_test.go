package valuation

import (
	"testing"
	"time"

	"github.com/savings-tracker/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(id int64, t time.Time, platform, account string, amount float64) models.Snapshot {
	return models.Snapshot{
		ID:       id,
		Time:     t,
		Platform: platform,
		Account:  account,
		Amount:   decimal.NewFromFloat(amount),
	}
}

func TestResolveDaily_LatestOfDayWins(t *testing.T) {
	ref := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	snapshots := []models.Snapshot{
		snap(1, day.Add(8*time.Hour), "BNZ", "Everyday", 100),
		snap(2, day.Add(10*time.Hour), "BNZ", "Everyday", 105),
		snap(3, day.Add(11*time.Hour), "BNZ", "Everyday", 110),
	}

	resolved := ResolveDaily(snapshots, ref, UnboundedLookback, time.UTC)
	require.Len(t, resolved, 1)
	assert.True(t, resolved[0].Amount.Equal(decimal.NewFromInt(110)),
		"expected the latest-timestamped snapshot of the day, got %s", resolved[0].Amount)
	assert.Equal(t, 0, resolved[0].DaysAgo)
}

func TestResolveDaily_IdenticalTimestampTieBreak(t *testing.T) {
	ref := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	at := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	snapshots := []models.Snapshot{
		snap(7, at, "BNZ", "Everyday", 100),
		snap(8, at, "BNZ", "Everyday", 200),
	}

	resolved := ResolveDaily(snapshots, ref, UnboundedLookback, time.UTC)
	require.Len(t, resolved, 1)
	assert.True(t, resolved[0].Amount.Equal(decimal.NewFromInt(200)),
		"the later-appended snapshot should win the tie")

	// Input order must not matter
	resolved = ResolveDaily([]models.Snapshot{snapshots[1], snapshots[0]}, ref, UnboundedLookback, time.UTC)
	require.Len(t, resolved, 1)
	assert.True(t, resolved[0].Amount.Equal(decimal.NewFromInt(200)))
}

func TestResolveDaily_FutureRowsDropped(t *testing.T) {
	ref := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	snapshots := []models.Snapshot{
		snap(1, ref.AddDate(0, 0, 1), "BNZ", "Everyday", 100),
		snap(2, ref.Add(-time.Hour), "BNZ", "Everyday", 90),
	}

	resolved := ResolveDaily(snapshots, ref, UnboundedLookback, time.UTC)
	require.Len(t, resolved, 1)
	assert.True(t, resolved[0].Amount.Equal(decimal.NewFromInt(90)))
}

func TestResolveDaily_LookbackFiltersOnBucketDay(t *testing.T) {
	ref := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	snapshots := []models.Snapshot{
		snap(1, ref.AddDate(0, 0, -10), "BNZ", "Everyday", 50),
		snap(2, ref.AddDate(0, 0, -3), "BNZ", "Everyday", 60),
		snap(3, ref, "BNZ", "Everyday", 70),
	}

	resolved := ResolveDaily(snapshots, ref, 5, time.UTC)
	require.Len(t, resolved, 2)
	assert.Equal(t, 0, resolved[0].DaysAgo)
	assert.Equal(t, 3, resolved[1].DaysAgo)
}

func TestResolveDaily_BucketsInCanonicalTimezone(t *testing.T) {
	auckland, err := time.LoadLocation("Pacific/Auckland")
	require.NoError(t, err)

	// 11:30 UTC is already the next calendar day in Auckland.
	observed := time.Date(2026, 1, 10, 11, 30, 0, 0, time.UTC)
	ref := time.Date(2026, 1, 11, 20, 0, 0, 0, auckland)

	resolved := ResolveDaily([]models.Snapshot{snap(1, observed, "BNZ", "Everyday", 100)}, ref, UnboundedLookback, auckland)
	require.Len(t, resolved, 1)
	assert.Equal(t, 0, resolved[0].DaysAgo, "snapshot should bucket to the Auckland calendar day")
}

func TestResolveDaily_Ordering(t *testing.T) {
	ref := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	snapshots := []models.Snapshot{
		snap(1, ref.AddDate(0, 0, -1), "Sharesies", "Growth", 10),
		snap(2, ref, "BNZ", "Everyday", 20),
		snap(3, ref.AddDate(0, 0, -2), "BNZ", "Everyday", 30),
		snap(4, ref, "BNZ", "Savings", 40),
	}

	resolved := ResolveDaily(snapshots, ref, UnboundedLookback, time.UTC)
	require.Len(t, resolved, 4)

	assert.Equal(t, "BNZ", resolved[0].Platform)
	assert.Equal(t, "Everyday", resolved[0].Account)
	assert.Equal(t, 0, resolved[0].DaysAgo)
	assert.Equal(t, 2, resolved[1].DaysAgo)
	assert.Equal(t, "Savings", resolved[2].Account)
	assert.Equal(t, "Sharesies", resolved[3].Platform)
}

func TestResolveDaily_MultipleSeriesSameDayIndependent(t *testing.T) {
	ref := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	snapshots := []models.Snapshot{
		snap(1, ref.Add(-2*time.Hour), "BNZ", "Everyday", 100),
		snap(2, ref.Add(-1*time.Hour), "BNZ", "Savings", 200),
	}

	resolved := ResolveDaily(snapshots, ref, UnboundedLookback, time.UTC)
	assert.Len(t, resolved, 2, "series must not collapse across accounts")
}

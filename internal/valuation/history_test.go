package valuation

import (
	"testing"
	"time"

	"github.com/savings-tracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var historyRef = time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)

func TestBuildHistory_ForwardFill(t *testing.T) {
	// Only one snapshot, two days before the reference: every day in the
	// window carries the value forward.
	resolved := []models.ResolvedDay{
		resolvedRow("P1", "A1", 200, 2),
	}

	rows := BuildHistory(resolved, 2, historyRef, time.UTC)
	require.Len(t, rows, 3)

	assert.Equal(t, time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), rows[2].Date)

	for _, row := range rows {
		v := row.Values["P1 - A1"]
		require.NotNil(t, v, "day %s should be forward-filled", row.Date)
		assert.Equal(t, 200.0, *v)
	}
}

func TestBuildHistory_NilBeforeSeriesStarts(t *testing.T) {
	resolved := []models.ResolvedDay{
		resolvedRow("P1", "A1", 100, 3),
		resolvedRow("P2", "B1", 50, 1),
	}

	rows := BuildHistory(resolved, 3, historyRef, time.UTC)
	require.Len(t, rows, 4)

	// P2 - B1 starts on day-1: nil before, never zero.
	assert.Nil(t, rows[0].Values["P2 - B1"])
	assert.Nil(t, rows[1].Values["P2 - B1"])
	require.NotNil(t, rows[2].Values["P2 - B1"])
	assert.Equal(t, 50.0, *rows[2].Values["P2 - B1"])
	require.NotNil(t, rows[3].Values["P2 - B1"])
	assert.Equal(t, 50.0, *rows[3].Values["P2 - B1"])

	// Every row carries a column for every pair in the resolved set.
	for _, row := range rows {
		assert.Contains(t, row.Values, "P1 - A1")
		assert.Contains(t, row.Values, "P2 - B1")
	}
}

func TestBuildHistory_NewerObservationOverridesFill(t *testing.T) {
	resolved := []models.ResolvedDay{
		resolvedRow("P1", "A1", 100, 2),
		resolvedRow("P1", "A1", 130, 0),
	}

	rows := BuildHistory(resolved, 2, historyRef, time.UTC)
	require.Len(t, rows, 3)
	assert.Equal(t, 100.0, *rows[0].Values["P1 - A1"])
	assert.Equal(t, 100.0, *rows[1].Values["P1 - A1"], "gap day keeps the older value")
	assert.Equal(t, 130.0, *rows[2].Values["P1 - A1"])
}

func TestBuildHistory_EmptyWindow(t *testing.T) {
	rows := BuildHistory(nil, 2, historyRef, time.UTC)
	require.Len(t, rows, 3, "the dense grid exists even with no data")
	for _, row := range rows {
		assert.Empty(t, row.Values)
	}
}

func TestBuildHistoryPercentage_CumulativeIndex(t *testing.T) {
	resolved := []models.ResolvedDay{
		resolvedRow("P1", "A1", 100, 2),
		resolvedRow("P1", "A1", 110, 1),
		resolvedRow("P1", "A1", 121, 0),
	}

	rows := BuildHistoryPercentage(BuildHistory(resolved, 2, historyRef, time.UTC))
	require.Len(t, rows, 3)

	assert.Nil(t, rows[0].Values["P1 - A1"], "first window day has no prior day")
	require.NotNil(t, rows[1].Values["P1 - A1"])
	assert.InDelta(t, 1.1, *rows[1].Values["P1 - A1"], 1e-9)
	require.NotNil(t, rows[2].Values["P1 - A1"])
	assert.InDelta(t, 1.21, *rows[2].Values["P1 - A1"], 1e-9)
}

func TestBuildHistoryPercentage_FlatWhenForwardFilled(t *testing.T) {
	resolved := []models.ResolvedDay{
		resolvedRow("P1", "A1", 200, 2),
	}

	rows := BuildHistoryPercentage(BuildHistory(resolved, 2, historyRef, time.UTC))
	require.Len(t, rows, 3)
	require.NotNil(t, rows[1].Values["P1 - A1"])
	assert.InDelta(t, 1.0, *rows[1].Values["P1 - A1"], 1e-9)
	require.NotNil(t, rows[2].Values["P1 - A1"])
	assert.InDelta(t, 1.0, *rows[2].Values["P1 - A1"], 1e-9)
}

func TestBuildHistoryPercentage_LeadingNilsDoNotPoison(t *testing.T) {
	// Series starts mid-window: nil until one day after the first
	// observation, then the index accumulates normally.
	resolved := []models.ResolvedDay{
		resolvedRow("P1", "A1", 100, 1),
		resolvedRow("P1", "A1", 105, 0),
	}

	rows := BuildHistoryPercentage(BuildHistory(resolved, 3, historyRef, time.UTC))
	require.Len(t, rows, 4)
	assert.Nil(t, rows[0].Values["P1 - A1"])
	assert.Nil(t, rows[1].Values["P1 - A1"])
	assert.Nil(t, rows[2].Values["P1 - A1"], "the series' first day has no prior value")
	require.NotNil(t, rows[3].Values["P1 - A1"])
	assert.InDelta(t, 1.05, *rows[3].Values["P1 - A1"], 1e-9)
}

func TestBuildHistoryPercentage_ZeroLinkBreaksChain(t *testing.T) {
	resolved := []models.ResolvedDay{
		resolvedRow("P1", "A1", 100, 3),
		resolvedRow("P1", "A1", 0, 2),
		resolvedRow("P1", "A1", 50, 1),
		resolvedRow("P1", "A1", 60, 0),
	}

	rows := BuildHistoryPercentage(BuildHistory(resolved, 3, historyRef, time.UTC))
	require.Len(t, rows, 4)
	require.NotNil(t, rows[1].Values["P1 - A1"], "ratio onto zero is still defined")
	assert.InDelta(t, 0.0, *rows[1].Values["P1 - A1"], 1e-9)
	assert.Nil(t, rows[2].Values["P1 - A1"], "division by a zero prior day is unavailable")
	assert.Nil(t, rows[3].Values["P1 - A1"], "a broken link poisons the rest of the column")
}

func TestBuildHistoryPercentage_Empty(t *testing.T) {
	assert.Nil(t, BuildHistoryPercentage(nil))
}

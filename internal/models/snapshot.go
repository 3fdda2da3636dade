// Package models defines the data model for the savings tracker: the
// append-only balance snapshot and the derived portfolio views.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot represents one observed balance for one account at one instant.
// Snapshots are written exactly once and never updated or deleted; a
// (platform, account) pair identifies a logical time series ordered by Time.
type Snapshot struct {
	// ID is the ledger sequence assigned on insert. It carries no business
	// meaning beyond making the latest-per-day tie-break deterministic when
	// two snapshots share an identical timestamp.
	ID       int64           `json:"id" db:"id"`
	Time     time.Time       `json:"time" db:"time"`
	Platform string          `json:"platform" db:"platform"`
	Account  string          `json:"account" db:"account"`
	Amount   decimal.Decimal `json:"amount" db:"amount"`
}

// ResolvedDay is the single latest snapshot for an account on one calendar
// day, bucketed in the canonical timezone. It is derived on every query and
// never persisted.
type ResolvedDay struct {
	Platform string          `json:"platform"`
	Account  string          `json:"account"`
	Amount   decimal.Decimal `json:"amount"`
	Date     time.Time       `json:"date"`
	DaysAgo  int             `json:"daysAgo"`
}

// Pair returns the (platform, account) series key.
func (r ResolvedDay) Pair() SeriesKey {
	return SeriesKey{Platform: r.Platform, Account: r.Account}
}

// SeriesKey identifies a logical balance time series.
type SeriesKey struct {
	Platform string
	Account  string
}

// Label returns the display label used for history columns.
func (k SeriesKey) Label() string {
	return k.Platform + " - " + k.Account
}

// PortfolioSnapshot is the cross-sectional portfolio rollup at a reference
// instant. Maps are keyed by platform. Absent values are nil, never zero:
// a platform with no data for a period is simply missing from that period's
// map, and a percentage change with no usable reference total is a nil
// pointer.
type PortfolioSnapshot struct {
	Holdings       HoldingsByPeriod `json:"holdings"`
	Weightings     HoldingsByPeriod `json:"weightings"`
	Total          float64          `json:"total"`
	YesterdayTotal float64          `json:"yesterday_total"`
	PctChange      *float64         `json:"pct_change"`
	WeekOverWeek   *float64         `json:"week_over_week"`
	MonthOverMonth *float64         `json:"month_over_month"`
	YearOverYear   *float64         `json:"year_over_year"`
}

// HoldingsByPeriod holds per-platform values for today and yesterday.
// A nil map means the period has no data at all.
type HoldingsByPeriod struct {
	Today     map[string]float64 `json:"today"`
	Yesterday map[string]float64 `json:"yesterday"`
}

// HistoryRow is one day of the dense account-by-account history grid.
// Values is keyed by "platform - account" labels; a nil entry means the
// series had no observation at or before that date.
type HistoryRow struct {
	Date   time.Time           `json:"date"`
	Values map[string]*float64 `json:"values"`
}

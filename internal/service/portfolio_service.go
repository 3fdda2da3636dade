package service

import (
	"context"
	"time"

	"github.com/savings-tracker/internal/logging"
	"github.com/savings-tracker/internal/models"
	"github.com/savings-tracker/internal/types"
	"github.com/savings-tracker/internal/valuation"
)

// PortfolioService answers the read-side queries: current portfolio rollup
// and day-by-day history. Every query is a point-in-time scan of the ledger
// followed by pure recomputation, so concurrent appends are safe and a
// partially completed save cycle simply shows up as absent data.
type PortfolioService struct {
	ledger SnapshotLedger
	cache  QueryCache
	loc    *time.Location

	// now is replaceable in tests
	now func() time.Time
}

// NewPortfolioService creates a new portfolio service. loc is the canonical
// day-bucketing timezone used for every computation.
func NewPortfolioService(ledger SnapshotLedger, cache QueryCache, loc *time.Location) *PortfolioService {
	return &PortfolioService{
		ledger: ledger,
		cache:  cache,
		loc:    loc,
		now:    time.Now,
	}
}

// CurrentPortfolio computes the portfolio rollup at the current instant.
func (s *PortfolioService) CurrentPortfolio(ctx context.Context) (*models.PortfolioSnapshot, error) {
	reference := s.now()

	if s.cache != nil {
		var cached models.PortfolioSnapshot
		key := s.cache.Key("portfolio")
		if found, err := s.cacheGet(ctx, key, &cached); err == nil && found {
			return &cached, nil
		}
	}

	// Unbounded scan: the year-over-year comparison needs the full series.
	snapshots, err := s.ledger.ListSince(ctx, nil)
	if err != nil {
		return nil, err
	}

	resolved := valuation.ResolveDaily(snapshots, reference, valuation.UnboundedLookback, s.loc)
	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"scanned":  len(snapshots),
		"resolved": len(resolved),
	}).Debug("Resolved daily observations for rollup")

	portfolio := valuation.BuildPortfolio(resolved)

	if s.cache != nil {
		s.cacheSet(ctx, s.cache.Key("portfolio"), &portfolio)
	}

	return &portfolio, nil
}

// History returns one row per day over the trailing window, forward-filled
// per account.
func (s *PortfolioService) History(ctx context.Context, days int) ([]models.HistoryRow, error) {
	if days < 0 {
		return nil, &types.ServiceError{Code: types.CodeInvalidParameter, Message: "days must be non-negative"}
	}

	if s.cache != nil {
		var cached []models.HistoryRow
		key := s.cache.Key("history", days)
		if found, err := s.cacheGet(ctx, key, &cached); err == nil && found {
			return cached, nil
		}
	}

	rows, err := s.buildHistory(ctx, days)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cacheSet(ctx, s.cache.Key("history", days), rows)
	}

	return rows, nil
}

// HistoryPercentage returns the history as cumulative day-over-day return
// indexes per account, normalized to the start of the window.
func (s *PortfolioService) HistoryPercentage(ctx context.Context, days int) ([]models.HistoryRow, error) {
	if days < 0 {
		return nil, &types.ServiceError{Code: types.CodeInvalidParameter, Message: "days must be non-negative"}
	}

	if s.cache != nil {
		var cached []models.HistoryRow
		key := s.cache.Key("historypct", days)
		if found, err := s.cacheGet(ctx, key, &cached); err == nil && found {
			return cached, nil
		}
	}

	rows, err := s.buildHistory(ctx, days)
	if err != nil {
		return nil, err
	}
	pct := valuation.BuildHistoryPercentage(rows)

	if s.cache != nil {
		s.cacheSet(ctx, s.cache.Key("historypct", days), pct)
	}

	return pct, nil
}

func (s *PortfolioService) buildHistory(ctx context.Context, days int) ([]models.HistoryRow, error) {
	reference := s.now()

	// Bound the scan to the window plus a day of timezone slop; the
	// resolver applies the precise bucket-day cutoff.
	since := reference.AddDate(0, 0, -(days + 1))
	snapshots, err := s.ledger.ListSince(ctx, &since)
	if err != nil {
		return nil, err
	}

	resolved := valuation.ResolveDaily(snapshots, reference, days, s.loc)
	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"scanned":  len(snapshots),
		"resolved": len(resolved),
		"days":     days,
	}).Debug("Resolved daily observations for history")

	return valuation.BuildHistory(resolved, days, reference, s.loc), nil
}

func (s *PortfolioService) cacheGet(ctx context.Context, key string, dest interface{}) (bool, error) {
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Query cache read failed, recomputing")
		return false, err
	}
	return found, nil
}

func (s *PortfolioService) cacheSet(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Query cache write failed")
	}
}

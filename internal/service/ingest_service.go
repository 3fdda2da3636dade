// Package service orchestrates the ledger, the valuation core, and the
// query cache behind the two narrow interfaces the rest of the system uses:
// append a snapshot, and query current/historical portfolio state.
package service

import (
	"context"
	"time"

	"github.com/savings-tracker/internal/logging"
	"github.com/savings-tracker/internal/models"
	"github.com/savings-tracker/internal/types"
	"github.com/shopspring/decimal"
)

// SnapshotLedger is the append/scan interface to the savings ledger.
type SnapshotLedger interface {
	Append(ctx context.Context, snapshot *models.Snapshot) error
	ListSince(ctx context.Context, since *time.Time) ([]models.Snapshot, error)
}

// QueryCache caches derived query results. Implemented by
// storage.QueryCache; a nil cache disables caching entirely.
type QueryCache interface {
	Key(query string, params ...interface{}) string
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Invalidate(ctx context.Context) error
}

// IngestService appends balance snapshots to the ledger
type IngestService struct {
	ledger SnapshotLedger
	cache  QueryCache
}

// NewIngestService creates a new ingest service
func NewIngestService(ledger SnapshotLedger, cache QueryCache) *IngestService {
	return &IngestService{ledger: ledger, cache: cache}
}

// IngestInput represents one observed balance to append
type IngestInput struct {
	Platform   string          `json:"platform"`
	Account    string          `json:"account"`
	Amount     decimal.Decimal `json:"amount"`
	ObservedAt time.Time       `json:"observedAt"`
}

// Ingest appends one snapshot. Each append is independent: a rejected or
// failed append never affects snapshots already written, and callers doing
// multi-platform save cycles must expect partial success.
func (s *IngestService) Ingest(ctx context.Context, input *IngestInput) (*models.Snapshot, error) {
	if input.Platform == "" {
		return nil, &types.ServiceError{Code: types.CodeInvalidSnapshot, Message: "platform is required"}
	}
	if input.Account == "" {
		return nil, &types.ServiceError{Code: types.CodeInvalidSnapshot, Message: "account is required"}
	}
	if input.ObservedAt.IsZero() {
		return nil, &types.ServiceError{Code: types.CodeInvalidSnapshot, Message: "observation time is required"}
	}

	snapshot := &models.Snapshot{
		Time:     input.ObservedAt,
		Platform: input.Platform,
		Account:  input.Account,
		Amount:   input.Amount,
	}

	if err := s.ledger.Append(ctx, snapshot); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"platform": snapshot.Platform,
		"account":  snapshot.Account,
		"amount":   snapshot.Amount.String(),
	}).Info("Snapshot appended")

	// Derived views are recomputed from the ledger, so cached results are
	// stale from this point on. Cache trouble only costs a recompute.
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			logging.FromContext(ctx).WithError(err).Warn("Failed to invalidate query cache")
		}
	}

	return snapshot, nil
}

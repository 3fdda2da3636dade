package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/savings-tracker/internal/models"
	"github.com/shopspring/decimal"
)

// SavingsRepository is the append-only snapshot ledger. There is no update
// or delete path and no uniqueness constraint: re-appending an identical
// snapshot produces a duplicate data point, which is legal.
type SavingsRepository struct {
	db *PostgresDB
}

// NewSavingsRepository creates a new savings repository
func NewSavingsRepository(db *PostgresDB) *SavingsRepository {
	return &SavingsRepository{db: db}
}

// Append inserts one snapshot into the ledger. Failures are classified as
// ErrSnapshotRejected (the row itself is bad) or ErrStorageUnreachable
// (the store could not be reached); other appends are unaffected either way.
func (r *SavingsRepository) Append(ctx context.Context, snapshot *models.Snapshot) error {
	query := `
		INSERT INTO savings (time, platform, account, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.Pool().QueryRow(ctx, query,
		snapshot.Time,
		snapshot.Platform,
		snapshot.Account,
		snapshot.Amount,
	).Scan(&snapshot.ID)
	if err != nil {
		return classifyAppendError(err)
	}
	return nil
}

// ListSince scans the ledger, optionally restricted to snapshots observed at
// or after since. Rows come back ordered by platform, account, time and
// finally ledger sequence, so the resolver sees each series in insertion
// order within a timestamp tie.
func (r *SavingsRepository) ListSince(ctx context.Context, since *time.Time) ([]models.Snapshot, error) {
	query := `
		SELECT id, time, platform, account, amount::text
		FROM savings
	`
	args := []interface{}{}
	if since != nil {
		query += ` WHERE time >= $1`
		args = append(args, *since)
	}
	query += ` ORDER BY platform, account, time, id`

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var snapshots []models.Snapshot
	for rows.Next() {
		var s models.Snapshot
		var amount string
		if err := rows.Scan(&s.ID, &s.Time, &s.Platform, &s.Account, &amount); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrStorageUnavailable, err)
		}
		s.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("%w: bad amount %q: %v", ErrStorageUnavailable, amount, err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return snapshots, nil
}

// classifyAppendError maps a pgx error onto the ledger's sentinel errors.
// SQLSTATE classes 22 (data exception) and 23 (integrity constraint
// violation) mean the row was rejected; everything else is treated as the
// store being unreachable.
func classifyAppendError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23") {
			return fmt.Errorf("%w: %s", ErrSnapshotRejected, pgErr.Message)
		}
	}
	return fmt.Errorf("%w: %v", ErrStorageUnreachable, err)
}

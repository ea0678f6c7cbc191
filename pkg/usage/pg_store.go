package usage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/entitlekit/pkg/catalog"
)

// PostgresStore implements Store on PostgreSQL. The conditional
// increment is a single INSERT ... ON CONFLICT DO UPDATE ... WHERE
// statement, so the database serializes racing consumers on the row.
//
// Requires the usage_counters table from the pkg/pg migrations.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed counter store.
// Panics if the pool is nil to fail fast during initialization.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	if db == nil {
		panic("usage: pgx pool is required")
	}
	return &PostgresStore{db: db}
}

func (ps *PostgresStore) Get(ctx context.Context, accountID uuid.UUID, metric catalog.MetricID, period PeriodKey) (int64, error) {
	var count int64
	err := ps.db.QueryRow(ctx,
		`SELECT count FROM usage_counters WHERE account_id = $1 AND metric = $2 AND period = $3`,
		accountID, string(metric), string(period),
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Join(ErrStorageFailure, err)
	}
	return count, nil
}

func (ps *PostgresStore) ConsumeIfBelow(ctx context.Context, accountID uuid.UUID, metric catalog.MetricID, period PeriodKey, amount, limit int64) (int64, bool, error) {
	// A fresh row is only created when the amount itself fits the
	// limit; the insert path cannot race itself past the cap because
	// the conflict clause takes over for the loser.
	if amount > limit {
		current, err := ps.Get(ctx, accountID, metric, period)
		return current, false, err
	}

	var count int64
	err := ps.db.QueryRow(ctx,
		`INSERT INTO usage_counters (account_id, metric, period, count)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (account_id, metric, period) DO UPDATE
		 SET count = usage_counters.count + EXCLUDED.count,
		     updated_at = now()
		 WHERE usage_counters.count + EXCLUDED.count <= $5
		 RETURNING count`,
		accountID, string(metric), string(period), amount, limit,
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		// Condition failed: nothing committed, report the current count.
		current, getErr := ps.Get(ctx, accountID, metric, period)
		return current, false, getErr
	}
	if err != nil {
		return 0, false, errors.Join(ErrStorageFailure, err)
	}
	return count, true, nil
}

func (ps *PostgresStore) DeletePeriodsBefore(ctx context.Context, before PeriodKey) (int64, error) {
	tag, err := ps.db.Exec(ctx,
		`DELETE FROM usage_counters WHERE period < $1`, string(before))
	if err != nil {
		return 0, errors.Join(ErrStorageFailure, err)
	}
	return tag.RowsAffected(), nil
}

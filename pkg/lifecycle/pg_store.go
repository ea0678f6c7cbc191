package lifecycle

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/entitlekit/pkg/catalog"
	"github.com/dmitrymomot/entitlekit/pkg/pg"
)

// PostgresAccountStore implements AccountStore on PostgreSQL.
// Requires the accounts table from the pkg/pg migrations.
type PostgresAccountStore struct {
	db *pgxpool.Pool
}

// NewPostgresAccountStore creates a Postgres-backed account store.
// Panics if the pool is nil to fail fast during initialization.
func NewPostgresAccountStore(db *pgxpool.Pool) *PostgresAccountStore {
	if db == nil {
		panic("lifecycle: pgx pool is required")
	}
	return &PostgresAccountStore{db: db}
}

const accountColumns = `id, email, tier, status, billing_cycle,
	external_customer_ref, external_subscription_ref,
	trial_ends_at, period_start, period_end,
	last_event_at, created_at, updated_at`

func (s *PostgresAccountStore) scanAccount(row interface{ Scan(...any) error }) (*Account, error) {
	var (
		account Account
		tier    string
		status  string
		cycle   string
	)
	err := row.Scan(
		&account.ID, &account.Email, &tier, &status, &cycle,
		&account.ExternalCustomerRef, &account.ExternalSubscriptionRef,
		&account.TrialEndsAt, &account.PeriodStart, &account.PeriodEnd,
		&account.LastEventAt, &account.CreatedAt, &account.UpdatedAt,
	)
	if pg.IsNotFoundError(err) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	account.Tier = catalog.Tier(tier)
	account.Status = Status(status)
	account.BillingCycle = catalog.BillingCycle(cycle)
	return &account, nil
}

func (s *PostgresAccountStore) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.scanAccount(s.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

func (s *PostgresAccountStore) FindByCustomerRef(ctx context.Context, ref string) (*Account, error) {
	if ref == "" {
		return nil, ErrAccountNotFound
	}
	return s.scanAccount(s.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE external_customer_ref = $1`, ref))
}

func (s *PostgresAccountStore) FindBySubscriptionRef(ctx context.Context, ref string) (*Account, error) {
	if ref == "" {
		return nil, ErrAccountNotFound
	}
	return s.scanAccount(s.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE external_subscription_ref = $1`, ref))
}

func (s *PostgresAccountStore) Save(ctx context.Context, account *Account) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (id) DO UPDATE SET
		     email = EXCLUDED.email,
		     tier = EXCLUDED.tier,
		     status = EXCLUDED.status,
		     billing_cycle = EXCLUDED.billing_cycle,
		     external_customer_ref = EXCLUDED.external_customer_ref,
		     external_subscription_ref = EXCLUDED.external_subscription_ref,
		     trial_ends_at = EXCLUDED.trial_ends_at,
		     period_start = EXCLUDED.period_start,
		     period_end = EXCLUDED.period_end,
		     last_event_at = EXCLUDED.last_event_at,
		     updated_at = EXCLUDED.updated_at`,
		account.ID, account.Email, string(account.Tier), string(account.Status), string(account.BillingCycle),
		account.ExternalCustomerRef, account.ExternalSubscriptionRef,
		account.TrialEndsAt, account.PeriodStart, account.PeriodEnd,
		account.LastEventAt, account.CreatedAt, account.UpdatedAt,
	)
	return err
}

// PostgresEventLedger implements EventLedger on PostgreSQL.
// Requires the processed_events table from the pkg/pg migrations.
type PostgresEventLedger struct {
	db *pgxpool.Pool
}

// NewPostgresEventLedger creates a Postgres-backed idempotency ledger.
// Panics if the pool is nil to fail fast during initialization.
func NewPostgresEventLedger(db *pgxpool.Pool) *PostgresEventLedger {
	if db == nil {
		panic("lifecycle: pgx pool is required")
	}
	return &PostgresEventLedger{db: db}
}

func (l *PostgresEventLedger) Find(ctx context.Context, eventID string) (*ProcessedEvent, error) {
	var (
		event   ProcessedEvent
		outcome string
	)
	err := l.db.QueryRow(ctx,
		`SELECT event_id, event_type, received_at, outcome, note
		 FROM processed_events WHERE event_id = $1`, eventID,
	).Scan(&event.EventID, &event.Type, &event.ReceivedAt, &outcome, &event.Note)
	if pg.IsNotFoundError(err) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	event.Outcome = Outcome(outcome)
	return &event, nil
}

func (l *PostgresEventLedger) Record(ctx context.Context, event ProcessedEvent) error {
	// Plain INSERT, no upsert: the primary key makes the ledger
	// append-only, and a duplicate key identifies the concurrent
	// delivery that won the race.
	_, err := l.db.Exec(ctx,
		`INSERT INTO processed_events (event_id, event_type, received_at, outcome, note)
		 VALUES ($1, $2, $3, $4, $5)`,
		event.EventID, event.Type, event.ReceivedAt, string(event.Outcome), event.Note,
	)
	if pg.IsDuplicateKeyError(err) {
		return errors.Join(ErrEventAlreadyRecorded, err)
	}
	return err
}

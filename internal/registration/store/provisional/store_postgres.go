package provisional

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"confreg/internal/registration/models"
	"confreg/internal/registration/store"
	"confreg/pkg/platform/sentinel"
	"confreg/pkg/requestcontext"
)

const purgeBatchSize = 500

// PostgresStore persists provisional records in PostgreSQL.
type PostgresStore struct {
	db        *sql.DB
	retention time.Duration
}

// NewPostgres constructs a PostgreSQL-backed provisional store. Call Migrate
// once at startup.
func NewPostgres(db *sql.DB, retention time.Duration) *PostgresStore {
	return &PostgresStore{db: db, retention: retention}
}

// Migrate creates the provisional table and indexes.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range store.ProvisionalSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate provisional store: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, rec *models.Registration) error {
	if rec == nil || rec.RegistrationID == "" {
		return fmt.Errorf("provisional record with registration id is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save provisional: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM provisional_registrations WHERE reg_id = $1`, rec.RegistrationID); err != nil {
		return fmt.Errorf("replace provisional: %w", err)
	}
	if rec.GatewayOrderID != "" {
		if err := releaseOrder(ctx, tx, rec.GatewayOrderID, rec.RegistrationID); err != nil {
			return err
		}
	}
	query := fmt.Sprintf(`INSERT INTO provisional_registrations (%s) VALUES (%s)`,
		store.ColumnList(), store.Placeholders())
	if _, err := tx.ExecContext(ctx, query, store.Args(rec)...); err != nil {
		if store.IsUniqueViolation(err) {
			return fmt.Errorf("save provisional: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("save provisional: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save provisional: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByOrderID(ctx context.Context, orderID string) (*models.Registration, error) {
	if orderID == "" {
		return nil, sentinel.ErrNotFound
	}
	query := fmt.Sprintf(`SELECT %s FROM provisional_registrations
		WHERE gateway_order_id = $1 AND created_at > $2`, store.ColumnList())
	return s.findOne(ctx, query, orderID, s.cutoff(ctx))
}

func (s *PostgresStore) FindByRegistrationID(ctx context.Context, regID string) (*models.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM provisional_registrations
		WHERE reg_id = $1 AND created_at > $2`, store.ColumnList())
	return s.findOne(ctx, query, regID, s.cutoff(ctx))
}

func (s *PostgresStore) AttachOrder(ctx context.Context, regID, orderID string) (*models.Registration, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin attach order: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := releaseOrder(ctx, tx, orderID, regID); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`UPDATE provisional_registrations
		SET gateway_order_id = $2, payment_status = $3, updated_at = $4
		WHERE reg_id = $1 AND created_at > $5
		RETURNING %s`, store.ColumnList())
	rec, err := store.Scan(tx.QueryRowContext(ctx, query,
		regID, orderID, string(models.PaymentPending), requestcontext.Now(ctx), s.cutoff(ctx)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("attach order: %w", conflictOr(err))
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit attach order: %w", conflictOr(err))
	}
	return rec, nil
}

func (s *PostgresStore) Delete(ctx context.Context, regID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM provisional_registrations WHERE reg_id = $1`, regID); err != nil {
		return fmt.Errorf("delete provisional: %w", err)
	}
	return nil
}

// DeleteExpired purges in bounded batches so a large backlog never holds one
// long transaction.
func (s *PostgresStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	purged := 0
	for {
		ids, err := s.expiredBatch(ctx, cutoff)
		if err != nil {
			return purged, err
		}
		if len(ids) == 0 {
			return purged, nil
		}
		res, err := s.db.ExecContext(ctx,
			`DELETE FROM provisional_registrations WHERE reg_id = ANY($1)`, pq.Array(ids))
		if err != nil {
			return purged, fmt.Errorf("purge provisional: %w", err)
		}
		n, _ := res.RowsAffected()
		purged += int(n)
		if len(ids) < purgeBatchSize {
			return purged, nil
		}
	}
}

func (s *PostgresStore) expiredBatch(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT reg_id FROM provisional_registrations WHERE created_at <= $1 LIMIT $2`,
		cutoff, purgeBatchSize)
	if err != nil {
		return nil, fmt.Errorf("list expired provisional: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired provisional: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresStore) findOne(ctx context.Context, query string, args ...any) (*models.Registration, error) {
	rec, err := store.Scan(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find provisional: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) cutoff(ctx context.Context) time.Time {
	if s.retention <= 0 {
		return time.Time{}
	}
	return requestcontext.Now(ctx).Add(-s.retention)
}

func releaseOrder(ctx context.Context, tx *sql.Tx, orderID, keep string) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE provisional_registrations SET gateway_order_id = ''
		WHERE gateway_order_id = $1 AND reg_id <> $2`, orderID, keep); err != nil {
		return fmt.Errorf("release order id: %w", conflictOr(err))
	}
	return nil
}

// conflictOr maps a unique violation on the order id, raised when a concurrent
// attachment of the same order committed first, to sentinel.ErrConflict.
func conflictOr(err error) error {
	if store.IsUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	return err
}

package permanent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"confreg/internal/registration/models"
	"confreg/internal/registration/store"
	"confreg/pkg/platform/sentinel"
)

// PostgresStore persists permanent records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed permanent store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the registrations table and indexes.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range store.PermanentSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate permanent store: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, rec *models.Registration) error {
	if rec == nil {
		return fmt.Errorf("registration is required")
	}
	query := fmt.Sprintf(`INSERT INTO registrations (%s) VALUES (%s)`,
		store.ColumnList(), store.Placeholders())
	if _, err := s.db.ExecContext(ctx, query, store.Args(rec)...); err != nil {
		if store.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, rec *models.Registration) error {
	if rec == nil {
		return fmt.Errorf("registration is required")
	}
	res, err := s.db.ExecContext(ctx, `UPDATE registrations SET
		reg_id = $2, reg_type = $3, title = $4, name = $5, gender = $6, mobile = $7, email = $8,
		college = $9, study_year = $10, dci_reg_number = $11, organization = $12, designation = $13,
		address = $14, country = $15, state = $16, city = $17, pincode = $18, comments = $19,
		amount = $20, payment_status = $21,
		gateway_order_id = $22, gateway_payment_id = $23, gateway_signature = $24,
		upgrade_of = $25, created_at = $26, updated_at = $27
		WHERE id = $1`, store.Args(rec)...)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update registration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	return s.findOne(ctx, `WHERE id = $1`, id)
}

// FindByPayment finds the record completed by either gateway id; empty ids
// never match.
func (s *PostgresStore) FindByPayment(ctx context.Context, orderID, paymentID string) (*models.Registration, error) {
	if orderID == "" && paymentID == "" {
		return nil, sentinel.ErrNotFound
	}
	return s.findOne(ctx, `WHERE ($1::text <> '' AND gateway_order_id = $1)
		OR ($2::text <> '' AND gateway_payment_id = $2)
		LIMIT 1`, orderID, paymentID)
}

func (s *PostgresStore) FindByRegistrationID(ctx context.Context, regID string) (*models.Registration, error) {
	return s.findOne(ctx, `WHERE reg_id = $1`, regID)
}

func (s *PostgresStore) FindLatestByMobile(ctx context.Context, mobile string) (*models.Registration, error) {
	return s.findOne(ctx, `WHERE mobile = $1 ORDER BY created_at DESC LIMIT 1`, mobile)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Registration, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM registrations ORDER BY created_at DESC`, store.ColumnList()))
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var out []*models.Registration
	for rows.Next() {
		rec, err := store.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) findOne(ctx context.Context, where string, args ...any) (*models.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM registrations %s`, store.ColumnList(), where)
	rec, err := store.Scan(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return rec, nil
}

// Package store holds what the provisional and permanent PostgreSQL stores
// share: the schema, the column list, and row mapping.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"confreg/internal/registration/models"
)

const (
	ProvisionalTable = "provisional_registrations"
	PermanentTable   = "registrations"
)

// Columns is the column order used by every SELECT and INSERT.
var Columns = []string{
	"id", "reg_id", "reg_type",
	"title", "name", "gender", "mobile", "email",
	"college", "study_year", "dci_reg_number", "organization", "designation",
	"address", "country", "state", "city", "pincode", "comments",
	"amount", "payment_status",
	"gateway_order_id", "gateway_payment_id", "gateway_signature",
	"upgrade_of", "created_at", "updated_at",
}

// ColumnList renders Columns for use in SQL.
func ColumnList() string {
	return strings.Join(Columns, ", ")
}

// Placeholders renders $1..$n for an INSERT of every column.
func Placeholders() string {
	ph := make([]string, len(Columns))
	for i := range Columns {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(ph, ", ")
}

const tableDDL = `
CREATE TABLE IF NOT EXISTS %s (
	id                 UUID PRIMARY KEY,
	reg_id             TEXT NOT NULL UNIQUE,
	reg_type           TEXT NOT NULL DEFAULT '',
	title              TEXT NOT NULL DEFAULT '',
	name               TEXT NOT NULL DEFAULT '',
	gender             TEXT NOT NULL DEFAULT '',
	mobile             TEXT NOT NULL,
	email              TEXT NOT NULL DEFAULT '',
	college            TEXT NOT NULL DEFAULT '',
	study_year         TEXT NOT NULL DEFAULT '',
	dci_reg_number     TEXT NOT NULL DEFAULT '',
	organization       TEXT NOT NULL DEFAULT '',
	designation        TEXT NOT NULL DEFAULT '',
	address            TEXT NOT NULL DEFAULT '',
	country            TEXT NOT NULL DEFAULT '',
	state              TEXT NOT NULL DEFAULT '',
	city               TEXT NOT NULL DEFAULT '',
	pincode            TEXT NOT NULL DEFAULT '',
	comments           TEXT NOT NULL DEFAULT '',
	amount             BIGINT NOT NULL DEFAULT 0,
	payment_status     TEXT NOT NULL DEFAULT 'Pending',
	gateway_order_id   TEXT NOT NULL DEFAULT '',
	gateway_payment_id TEXT NOT NULL DEFAULT '',
	gateway_signature  TEXT NOT NULL DEFAULT '',
	upgrade_of         TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
)`

// ProvisionalSchema creates the provisional table. An order id may belong to
// at most one in-flight record.
var ProvisionalSchema = []string{
	fmt.Sprintf(tableDDL, ProvisionalTable),
	`CREATE UNIQUE INDEX IF NOT EXISTS provisional_registrations_order_idx
		ON provisional_registrations (gateway_order_id) WHERE gateway_order_id <> ''`,
	`CREATE INDEX IF NOT EXISTS provisional_registrations_created_idx
		ON provisional_registrations (created_at)`,
}

// PermanentSchema creates the permanent table. Mobile is the registrant key.
var PermanentSchema = []string{
	fmt.Sprintf(tableDDL, PermanentTable),
	`CREATE UNIQUE INDEX IF NOT EXISTS registrations_mobile_idx ON registrations (mobile)`,
	`DROP INDEX IF EXISTS registrations_payment_idx`,
	`CREATE INDEX IF NOT EXISTS registrations_order_idx
		ON registrations (gateway_order_id) WHERE gateway_order_id <> ''`,
	`CREATE INDEX IF NOT EXISTS registrations_payment_id_idx
		ON registrations (gateway_payment_id) WHERE gateway_payment_id <> ''`,
}

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Scan reads one row in Columns order.
func Scan(row Scanner) (*models.Registration, error) {
	var r models.Registration
	var status string
	err := row.Scan(
		&r.ID, &r.RegistrationID, &r.Category,
		&r.Title, &r.Name, &r.Gender, &r.Mobile, &r.Email,
		&r.College, &r.StudyYear, &r.DCIRegNumber, &r.Organization, &r.Designation,
		&r.Address, &r.Country, &r.State, &r.City, &r.Pincode, &r.Comments,
		&r.Amount, &status,
		&r.GatewayOrderID, &r.GatewayPaymentID, &r.GatewaySignature,
		&r.UpgradeOf, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.PaymentStatus = models.PaymentStatus(status)
	return &r, nil
}

// Args returns the values of r in Columns order.
func Args(r *models.Registration) []any {
	return []any{
		r.ID, r.RegistrationID, r.Category,
		r.Title, r.Name, r.Gender, r.Mobile, r.Email,
		r.College, r.StudyYear, r.DCIRegNumber, r.Organization, r.Designation,
		r.Address, r.Country, r.State, r.City, r.Pincode, r.Comments,
		r.Amount, string(r.PaymentStatus),
		r.GatewayOrderID, r.GatewayPaymentID, r.GatewaySignature,
		r.UpgradeOf, r.CreatedAt, r.UpdatedAt,
	}
}

// IsUniqueViolation reports whether err is a PostgreSQL unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

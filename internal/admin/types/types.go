// Package types holds the admin-facing views of registration data.
package types

import (
	"time"

	"github.com/google/uuid"
)

// AdminRegistration is the row shown in the admin registration listing.
type AdminRegistration struct {
	ID             uuid.UUID `json:"_id"`
	RegistrationID string    `json:"reg_id"`
	Category       string    `json:"reg_type"`
	Title          string    `json:"title,omitempty"`
	Name           string    `json:"name"`
	Mobile         string    `json:"mobile"`
	Email          string    `json:"email,omitempty"`
	College        string    `json:"college,omitempty"`
	Organization   string    `json:"organization,omitempty"`
	DCIRegNumber   string    `json:"dci_reg_number,omitempty"`
	City           string    `json:"city,omitempty"`
	State          string    `json:"state,omitempty"`
	Amount         int64     `json:"amount"`
	PaymentStatus  string    `json:"payment_status"`
	PaymentID      string    `json:"razorpay_payment_id,omitempty"`
	UpgradeOf      string    `json:"upgrade_of,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

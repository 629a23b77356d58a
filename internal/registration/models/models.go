// Package models holds the registration record shared by the provisional and
// permanent stores, plus the request and result types of the service layer.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus tracks where a registration is in the payment lifecycle.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentPaid      PaymentStatus = "Paid"
	PaymentCompleted PaymentStatus = "Completed"
)

// CashPaymentPrefix marks synthetic payment ids for settled cash registrations.
const CashPaymentPrefix = "CASH-"

// Registration is one attendee record. The same shape lives in both stores;
// UpgradeOf is only meaningful while the record is provisional.
type Registration struct {
	ID             uuid.UUID `json:"id"`
	RegistrationID string    `json:"reg_id"`
	Category       string    `json:"reg_type"`

	Title  string `json:"title,omitempty"`
	Name   string `json:"name"`
	Gender string `json:"gender,omitempty"`
	Mobile string `json:"mobile"`
	Email  string `json:"email,omitempty"`

	College      string `json:"college,omitempty"`
	StudyYear    string `json:"study_year,omitempty"`
	DCIRegNumber string `json:"dci_reg_number,omitempty"`
	Organization string `json:"organization,omitempty"`
	Designation  string `json:"designation,omitempty"`
	Address      string `json:"address,omitempty"`
	Country      string `json:"country,omitempty"`
	State        string `json:"state,omitempty"`
	City         string `json:"city,omitempty"`
	Pincode      string `json:"pincode,omitempty"`
	Comments     string `json:"comments,omitempty"`

	Amount        int64         `json:"amount"`
	PaymentStatus PaymentStatus `json:"payment_status"`

	GatewayOrderID   string `json:"razorpay_order_id,omitempty"`
	GatewayPaymentID string `json:"razorpay_payment_id,omitempty"`
	GatewaySignature string `json:"-"`

	UpgradeOf string `json:"upgrade_of,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsExpired reports whether a provisional record has outlived retention.
func (r *Registration) IsExpired(now time.Time, retention time.Duration) bool {
	if retention <= 0 {
		return false
	}
	return !r.CreatedAt.After(now.Add(-retention))
}

// IsCash reports whether the record was settled outside the gateway.
func (r *Registration) IsCash() bool {
	return strings.HasPrefix(r.GatewayPaymentID, CashPaymentPrefix)
}

// Clone returns a copy so stores never share memory with callers.
func (r *Registration) Clone() *Registration {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// SubmitRequest is the registration form as posted by the client.
type SubmitRequest struct {
	Category           string `json:"reg_type"`
	ExistingID         string `json:"existing_reg_id"`
	College            string `json:"college"`
	CollegeManual      string `json:"college_manual"`
	StudyYear          string `json:"study_year"`
	Organization       string `json:"organization"`
	OrganizationManual string `json:"organization_manual"`
	DCIRegNumber       string `json:"dci_reg_number"`
	Title              string `json:"title"`
	Name               string `json:"name"`
	Gender             string `json:"gender"`
	Designation        string `json:"designation"`
	Address            string `json:"address"`
	Country            string `json:"country"`
	State              string `json:"state"`
	City               string `json:"city"`
	Pincode            string `json:"pincode"`
	Email              string `json:"email"`
	Mobile             string `json:"mobile"`
	Comments           string `json:"comments"`
	Amount             int64  `json:"amount"`
}

// Normalize trims every free-text field in place.
func (r *SubmitRequest) Normalize() {
	for _, f := range []*string{
		&r.Category, &r.ExistingID, &r.College, &r.CollegeManual, &r.StudyYear,
		&r.Organization, &r.OrganizationManual, &r.DCIRegNumber, &r.Title, &r.Name,
		&r.Gender, &r.Designation, &r.Address, &r.Country, &r.State, &r.City,
		&r.Pincode, &r.Email, &r.Mobile, &r.Comments,
	} {
		*f = strings.TrimSpace(*f)
	}
}

// SubmitResult is returned for both provisional and settled submissions.
type SubmitResult struct {
	RegistrationID string
	Settled        bool
	Replayed       bool
	Record         *Registration
}

// CompletionSource identifies who reported a payment.
type CompletionSource string

const (
	SourceClient  CompletionSource = "client"
	SourceWebhook CompletionSource = "webhook"
)

// CompleteRequest carries the gateway correlation for one payment.
type CompleteRequest struct {
	OrderID                string           `json:"razorpay_order_id"`
	PaymentID              string           `json:"razorpay_payment_id"`
	Signature              string           `json:"razorpay_signature"`
	FallbackRegistrationID string           `json:"reg_id"`
	Source                 CompletionSource `json:"-"`
}

// CompleteResult is the outcome of a completion attempt.
type CompleteResult struct {
	Record     *Registration
	Replayed   bool
	SelfHealed bool
	Upgraded   bool
}

// Offer is one purchasable add-on or upgrade.
type Offer struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

// StatusResult answers an eligibility query.
type StatusResult struct {
	Record *Registration
	Offers []Offer
}

// Order is the gateway order handed back to the client checkout.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

package razorpay

import (
	"encoding/json"
	"fmt"
)

// EventPaymentCaptured is the only webhook event that completes a payment.
const EventPaymentCaptured = "payment.captured"

// WebhookEvent is the subset of a Razorpay webhook this service reads.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity Payment `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// Payment is a Razorpay payment entity.
type Payment struct {
	ID       string          `json:"id"`
	OrderID  string          `json:"order_id"`
	Amount   int64           `json:"amount"`
	Currency string          `json:"currency"`
	Status   string          `json:"status"`
	Email    string          `json:"email"`
	Contact  string          `json:"contact"`
	Notes    json.RawMessage `json:"notes"`
}

// RegistrationID returns notes.reg_id when checkout attached it. Razorpay
// sends notes as an empty array when none were set.
func (p Payment) RegistrationID() string {
	var notes map[string]any
	if len(p.Notes) == 0 || json.Unmarshal(p.Notes, &notes) != nil {
		return ""
	}
	if v, ok := notes["reg_id"].(string); ok {
		return v
	}
	return ""
}

// ParseWebhook decodes a verified webhook body.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var evt WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}
	if evt.Event == "" {
		return nil, fmt.Errorf("decode webhook: missing event")
	}
	return &evt, nil
}

// Package notification delivers post-payment side effects (registration card,
// confirmation emails, WhatsApp ticket, certificate) from an explicit job
// queue. Delivery is at-most-once per job: transient provider failures are
// retried inside the job, but a failed job is never re-enqueued. The resend
// endpoints are the recovery path.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"confreg/internal/registration/models"
)

// Kind selects what a job delivers.
type Kind string

const (
	// KindConfirmation renders the card and sends the user and admin emails.
	KindConfirmation Kind = "confirmation"
	KindEmail        Kind = "email"
	KindWhatsApp     Kind = "whatsapp"
	KindCertificate  Kind = "certificate"
)

// ParseKind validates a kind received from outside the process.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindConfirmation, KindEmail, KindWhatsApp, KindCertificate:
		return k, nil
	}
	return "", fmt.Errorf("unknown notification kind %q", s)
}

// Job is self-contained: it carries a snapshot of the registration so workers
// never read the stores.
type Job struct {
	ID           uuid.UUID           `json:"id"`
	Kind         Kind                `json:"kind"`
	Registration models.Registration `json:"registration"`
	RequestID    string              `json:"request_id,omitempty"`
	EnqueuedAt   time.Time           `json:"enqueued_at"`
}

// NewJob snapshots rec into a job of the given kind.
func NewJob(kind Kind, rec *models.Registration, requestID string, now time.Time) Job {
	return Job{
		ID:           uuid.New(),
		Kind:         kind,
		Registration: *rec.Clone(),
		RequestID:    requestID,
		EnqueuedAt:   now,
	}
}

// Encode serializes a job for a wire queue.
func (j Job) Encode() ([]byte, error) {
	return json.Marshal(j)
}

// DecodeJob parses a job produced by Encode.
func DecodeJob(data []byte) (Job, error) {
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return Job{}, fmt.Errorf("decode notification job: %w", err)
	}
	if _, err := ParseKind(string(j.Kind)); err != nil {
		return Job{}, err
	}
	return j, nil
}

// Queue accepts jobs for asynchronous delivery.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

// Source yields jobs to a worker until ctx is cancelled.
type Source interface {
	Consume(ctx context.Context, handle func(ctx context.Context, job Job) error) error
}

// Package provisional stores registrations that are waiting for payment.
// Records past the retention window are invisible to every lookup and are
// removed by DeleteExpired (or natively by Redis TTL).
package provisional

import (
	"context"
	"fmt"
	"sync"
	"time"

	"confreg/internal/registration/models"
	"confreg/pkg/platform/sentinel"
	"confreg/pkg/requestcontext"
)

// InMemoryStore keeps provisional records in a map keyed by registration id.
type InMemoryStore struct {
	mu        sync.RWMutex
	records   map[string]*models.Registration
	retention time.Duration
}

// NewInMemoryStore constructs a store whose records expire after retention.
func NewInMemoryStore(retention time.Duration) *InMemoryStore {
	return &InMemoryStore{
		records:   make(map[string]*models.Registration),
		retention: retention,
	}
}

// Save inserts or replaces the record with the same registration id.
func (s *InMemoryStore) Save(_ context.Context, rec *models.Registration) error {
	if rec == nil || rec.RegistrationID == "" {
		return fmt.Errorf("provisional record with registration id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.GatewayOrderID != "" {
		s.releaseOrderLocked(rec.GatewayOrderID, rec.RegistrationID)
	}
	s.records[rec.RegistrationID] = rec.Clone()
	return nil
}

func (s *InMemoryStore) FindByOrderID(ctx context.Context, orderID string) (*models.Registration, error) {
	if orderID == "" {
		return nil, sentinel.ErrNotFound
	}
	now := requestcontext.Now(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.GatewayOrderID == orderID && !rec.IsExpired(now, s.retention) {
			return rec.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByRegistrationID(ctx context.Context, regID string) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[regID]
	if !ok || rec.IsExpired(requestcontext.Now(ctx), s.retention) {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

// AttachOrder links orderID to the live record for regID. Any other record
// holding the same order id loses it.
func (s *InMemoryStore) AttachOrder(ctx context.Context, regID, orderID string) (*models.Registration, error) {
	now := requestcontext.Now(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[regID]
	if !ok || rec.IsExpired(now, s.retention) {
		return nil, sentinel.ErrNotFound
	}
	s.releaseOrderLocked(orderID, regID)
	rec.GatewayOrderID = orderID
	rec.PaymentStatus = models.PaymentPending
	rec.UpdatedAt = now
	return rec.Clone(), nil
}

// Delete removes the record; deleting a missing record is not an error.
func (s *InMemoryStore) Delete(_ context.Context, regID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, regID)
	return nil
}

// DeleteExpired purges records created at or before cutoff.
func (s *InMemoryStore) DeleteExpired(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, rec := range s.records {
		if !rec.CreatedAt.After(cutoff) {
			delete(s.records, id)
			purged++
		}
	}
	return purged, nil
}

func (s *InMemoryStore) releaseOrderLocked(orderID, keep string) {
	for id, rec := range s.records {
		if id != keep && rec.GatewayOrderID == orderID {
			rec.GatewayOrderID = ""
		}
	}
}

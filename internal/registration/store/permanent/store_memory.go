// Package permanent stores paid or settled registrations. Mobile is unique:
// a registrant changes their record only through an upgrade, which mutates
// the existing row.
package permanent

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"confreg/internal/registration/models"
	"confreg/pkg/platform/sentinel"
)

// InMemoryStore keeps permanent records keyed by internal id.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*models.Registration
	seq     map[uuid.UUID]int64
	next    int64
}

// NewInMemoryStore constructs an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[uuid.UUID]*models.Registration),
		seq:     make(map[uuid.UUID]int64),
	}
}

// Create inserts rec. Returns sentinel.ErrConflict when the mobile or
// registration id is already taken.
func (s *InMemoryStore) Create(_ context.Context, rec *models.Registration) error {
	if rec == nil {
		return fmt.Errorf("registration is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return sentinel.ErrConflict
	}
	if s.clashesLocked(rec) {
		return sentinel.ErrConflict
	}
	s.next++
	s.records[rec.ID] = rec.Clone()
	s.seq[rec.ID] = s.next
	return nil
}

// Update replaces the record with the same internal id. The registration id
// may change (upgrade rename) but must stay unique.
func (s *InMemoryStore) Update(_ context.Context, rec *models.Registration) error {
	if rec == nil {
		return fmt.Errorf("registration is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.clashesLocked(rec) {
		return sentinel.ErrConflict
	}
	s.records[rec.ID] = rec.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

// FindByPayment finds the record completed by either gateway id. A gateway
// order may see several payment attempts, and a payment id belongs to one
// completion whatever order a replay reports. Empty ids never match.
func (s *InMemoryStore) FindByPayment(_ context.Context, orderID, paymentID string) (*models.Registration, error) {
	if orderID == "" && paymentID == "" {
		return nil, sentinel.ErrNotFound
	}
	return s.findFirst(func(r *models.Registration) bool {
		return (orderID != "" && r.GatewayOrderID == orderID) ||
			(paymentID != "" && r.GatewayPaymentID == paymentID)
	})
}

func (s *InMemoryStore) FindByRegistrationID(_ context.Context, regID string) (*models.Registration, error) {
	return s.findFirst(func(r *models.Registration) bool {
		return r.RegistrationID == regID
	})
}

// FindLatestByMobile returns the newest record for mobile.
func (s *InMemoryStore) FindLatestByMobile(_ context.Context, mobile string) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.Registration
	for id, rec := range s.records {
		if rec.Mobile != mobile {
			continue
		}
		if latest == nil || s.seq[id] > s.seq[latest.ID] {
			latest = rec
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	return latest.Clone(), nil
}

// List returns every record, newest first.
func (s *InMemoryStore) List(_ context.Context) ([]*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Registration, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return s.seq[out[i].ID] > s.seq[out[j].ID]
	})
	return out, nil
}

func (s *InMemoryStore) findFirst(match func(*models.Registration) bool) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if match(rec) {
			return rec.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) clashesLocked(rec *models.Registration) bool {
	for id, other := range s.records {
		if id == rec.ID {
			continue
		}
		if other.Mobile == rec.Mobile || other.RegistrationID == rec.RegistrationID {
			return true
		}
	}
	return false
}

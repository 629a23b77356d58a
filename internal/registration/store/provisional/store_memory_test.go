package provisional_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"confreg/internal/registration/store/provisional"
	"confreg/pkg/requestcontext"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *provisional.InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = provisional.NewInMemoryStore(testRetention)
}

func (s *InMemoryStoreSuite) TestContract() {
	runStoreContract(s.T(), func(*testing.T) provisionalStore {
		return provisional.NewInMemoryStore(testRetention)
	})
}

func (s *InMemoryStoreSuite) TestDeleteExpired() {
	now := time.Now()
	ctx := requestcontext.WithTime(context.Background(), now)

	s.Require().NoError(s.store.Save(ctx, newRecord("D1", now.Add(-2*time.Hour))))
	s.Require().NoError(s.store.Save(ctx, newRecord("D2", now.Add(-90*time.Minute))))
	s.Require().NoError(s.store.Save(ctx, newRecord("D3", now)))

	purged, err := s.store.DeleteExpired(ctx, now.Add(-testRetention))
	s.Require().NoError(err)
	s.Equal(2, purged)

	_, err = s.store.FindByRegistrationID(ctx, "D3")
	s.NoError(err)
}

func (s *InMemoryStoreSuite) TestReturnsCopies() {
	ctx := context.Background()
	rec := newRecord("D9", time.Now())
	s.Require().NoError(s.store.Save(ctx, rec))

	found, err := s.store.FindByRegistrationID(ctx, "D9")
	s.Require().NoError(err)
	found.Amount = 1

	again, err := s.store.FindByRegistrationID(ctx, "D9")
	s.Require().NoError(err)
	s.Equal(rec.Amount, again.Amount)
}

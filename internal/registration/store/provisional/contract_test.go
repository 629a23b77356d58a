package provisional_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confreg/internal/registration/models"
	"confreg/pkg/platform/sentinel"
	"confreg/pkg/requestcontext"
)

// provisionalStore is the behaviour every provisional backend must share.
type provisionalStore interface {
	Save(ctx context.Context, rec *models.Registration) error
	FindByOrderID(ctx context.Context, orderID string) (*models.Registration, error)
	FindByRegistrationID(ctx context.Context, regID string) (*models.Registration, error)
	AttachOrder(ctx context.Context, regID, orderID string) (*models.Registration, error)
	Delete(ctx context.Context, regID string) error
}

const testRetention = time.Hour

func newRecord(regID string, createdAt time.Time) *models.Registration {
	return &models.Registration{
		ID:             uuid.New(),
		RegistrationID: regID,
		Category:       "Delegate",
		Name:           "Asha Rao",
		Mobile:         "9000000001",
		Email:          "asha@example.com",
		Amount:         2000,
		PaymentStatus:  models.PaymentPending,
		CreatedAt:      createdAt.UTC().Truncate(time.Microsecond),
		UpdatedAt:      createdAt.UTC().Truncate(time.Microsecond),
	}
}

func runStoreContract(t *testing.T, newStore func(t *testing.T) provisionalStore) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	ctx := requestcontext.WithTime(context.Background(), now)

	t.Run("finds saved record by registration id", func(t *testing.T) {
		s := newStore(t)
		rec := newRecord("D1700000000001", now)
		require.NoError(t, s.Save(ctx, rec))

		found, err := s.FindByRegistrationID(ctx, rec.RegistrationID)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, found.ID)
		assert.Equal(t, rec.Amount, found.Amount)
	})

	t.Run("attach order makes record resolvable by order id", func(t *testing.T) {
		s := newStore(t)
		rec := newRecord("D1700000000002", now)
		require.NoError(t, s.Save(ctx, rec))

		_, err := s.FindByOrderID(ctx, "order_A")
		require.ErrorIs(t, err, sentinel.ErrNotFound)

		attached, err := s.AttachOrder(ctx, rec.RegistrationID, "order_A")
		require.NoError(t, err)
		assert.Equal(t, "order_A", attached.GatewayOrderID)

		found, err := s.FindByOrderID(ctx, "order_A")
		require.NoError(t, err)
		assert.Equal(t, rec.RegistrationID, found.RegistrationID)
	})

	t.Run("order id moves to the newest attachment", func(t *testing.T) {
		s := newStore(t)
		first := newRecord("D1700000000003", now)
		second := newRecord("D1700000000004", now)
		second.Mobile = "9000000002"
		require.NoError(t, s.Save(ctx, first))
		require.NoError(t, s.Save(ctx, second))

		_, err := s.AttachOrder(ctx, first.RegistrationID, "order_B")
		require.NoError(t, err)
		_, err = s.AttachOrder(ctx, second.RegistrationID, "order_B")
		require.NoError(t, err)

		found, err := s.FindByOrderID(ctx, "order_B")
		require.NoError(t, err)
		assert.Equal(t, second.RegistrationID, found.RegistrationID)
	})

	t.Run("attach order on missing record is not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.AttachOrder(ctx, "D404", "order_C")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("expired record is invisible", func(t *testing.T) {
		s := newStore(t)
		rec := newRecord("D1700000000005", now.Add(-30*time.Minute))
		require.NoError(t, s.Save(ctx, rec))

		later := requestcontext.WithTime(context.Background(), now.Add(testRetention))
		_, err := s.FindByRegistrationID(later, rec.RegistrationID)
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("delete removes record and is idempotent", func(t *testing.T) {
		s := newStore(t)
		rec := newRecord("D1700000000006", now)
		require.NoError(t, s.Save(ctx, rec))
		_, err := s.AttachOrder(ctx, rec.RegistrationID, "order_D")
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, rec.RegistrationID))
		require.NoError(t, s.Delete(ctx, rec.RegistrationID))

		_, err = s.FindByRegistrationID(ctx, rec.RegistrationID)
		require.ErrorIs(t, err, sentinel.ErrNotFound)
		_, err = s.FindByOrderID(ctx, "order_D")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("save replaces record with same registration id", func(t *testing.T) {
		s := newStore(t)
		rec := newRecord("D1700000000007", now)
		require.NoError(t, s.Save(ctx, rec))

		replacement := newRecord(rec.RegistrationID, now)
		replacement.Amount = 2500
		require.NoError(t, s.Save(ctx, replacement))

		found, err := s.FindByRegistrationID(ctx, rec.RegistrationID)
		require.NoError(t, err)
		assert.Equal(t, int64(2500), found.Amount)
	})
}

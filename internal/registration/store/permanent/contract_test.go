package permanent_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confreg/internal/registration/models"
	"confreg/pkg/platform/sentinel"
)

type permanentStore interface {
	Create(ctx context.Context, rec *models.Registration) error
	Update(ctx context.Context, rec *models.Registration) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	FindByPayment(ctx context.Context, orderID, paymentID string) (*models.Registration, error)
	FindByRegistrationID(ctx context.Context, regID string) (*models.Registration, error)
	FindLatestByMobile(ctx context.Context, mobile string) (*models.Registration, error)
	List(ctx context.Context) ([]*models.Registration, error)
}

func paidRecord(regID, mobile string, createdAt time.Time) *models.Registration {
	return &models.Registration{
		ID:               uuid.New(),
		RegistrationID:   regID,
		Category:         "Delegate",
		Name:             "Ravi Kumar",
		Mobile:           mobile,
		Email:            "ravi@example.com",
		Amount:           2000,
		PaymentStatus:    models.PaymentPaid,
		GatewayOrderID:   "order_" + regID,
		GatewayPaymentID: "pay_" + regID,
		CreatedAt:        createdAt.UTC().Truncate(time.Microsecond),
		UpdatedAt:        createdAt.UTC().Truncate(time.Microsecond),
	}
}

func runStoreContract(t *testing.T, newStore func(t *testing.T) permanentStore) {
	ctx := context.Background()
	now := time.Now()

	t.Run("duplicate mobile is a conflict", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, paidRecord("D1", "9000000001", now)))
		err := s.Create(ctx, paidRecord("D2", "9000000001", now))
		require.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("finds by order id or payment id", func(t *testing.T) {
		s := newStore(t)
		rec := paidRecord("D3", "9000000003", now)
		require.NoError(t, s.Create(ctx, rec))

		for name, ids := range map[string][2]string{
			"both ids":                  {rec.GatewayOrderID, rec.GatewayPaymentID},
			"same order, new payment":   {rec.GatewayOrderID, "pay_retry"},
			"other order, same payment": {"order_other", rec.GatewayPaymentID},
			"payment only":              {"", rec.GatewayPaymentID},
		} {
			found, err := s.FindByPayment(ctx, ids[0], ids[1])
			require.NoError(t, err, name)
			assert.Equal(t, rec.ID, found.ID, name)
		}

		_, err := s.FindByPayment(ctx, "order_other", "pay_other")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("empty ids never match", func(t *testing.T) {
		s := newStore(t)
		cash := paidRecord("TR9", "9000000009", now)
		cash.GatewayOrderID = ""
		cash.GatewayPaymentID = models.CashPaymentPrefix + cash.Mobile
		require.NoError(t, s.Create(ctx, cash))

		_, err := s.FindByPayment(ctx, "", "")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
		_, err = s.FindByPayment(ctx, "", "pay_unknown")
		require.ErrorIs(t, err, sentinel.ErrNotFound)

		found, err := s.FindByPayment(ctx, "", cash.GatewayPaymentID)
		require.NoError(t, err)
		assert.Equal(t, cash.ID, found.ID)
	})

	t.Run("update renames registration id", func(t *testing.T) {
		s := newStore(t)
		rec := paidRecord("D1700000000123", "9000000004", now)
		require.NoError(t, s.Create(ctx, rec))

		rec.RegistrationID = "RC1700000000123"
		rec.Amount = 5000
		require.NoError(t, s.Update(ctx, rec))

		_, err := s.FindByRegistrationID(ctx, "D1700000000123")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
		found, err := s.FindByRegistrationID(ctx, "RC1700000000123")
		require.NoError(t, err)
		assert.Equal(t, int64(5000), found.Amount)
	})

	t.Run("update of unknown record is not found", func(t *testing.T) {
		s := newStore(t)
		err := s.Update(ctx, paidRecord("D5", "9000000005", now))
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("lookup by internal id and mobile", func(t *testing.T) {
		s := newStore(t)
		rec := paidRecord("D6", "9000000006", now)
		require.NoError(t, s.Create(ctx, rec))

		byID, err := s.FindByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, rec.RegistrationID, byID.RegistrationID)

		byMobile, err := s.FindLatestByMobile(ctx, rec.Mobile)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, byMobile.ID)

		_, err = s.FindLatestByMobile(ctx, "0000000000")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("list is newest first", func(t *testing.T) {
		s := newStore(t)
		older := paidRecord("D7", "9000000007", now.Add(-time.Hour))
		newer := paidRecord("D8", "9000000008", now)
		require.NoError(t, s.Create(ctx, older))
		require.NoError(t, s.Create(ctx, newer))

		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, newer.RegistrationID, list[0].RegistrationID)
		assert.Equal(t, older.RegistrationID, list[1].RegistrationID)
	})
}

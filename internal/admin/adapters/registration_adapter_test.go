package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confreg/internal/registration/models"
)

type stubSource struct {
	regs []*models.Registration
	err  error
}

func (s stubSource) List(context.Context) ([]*models.Registration, error) {
	return s.regs, s.err
}

func TestRegistrationAdapter_ListAll(t *testing.T) {
	id := uuid.New()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	adapter := NewRegistrationAdapter(stubSource{regs: []*models.Registration{{
		ID:               id,
		RegistrationID:   "RC1700000000123",
		Category:         "Delegate + RC Member (Upgrade)",
		Name:             "Asha Rao",
		Mobile:           "9000000001",
		Amount:           5000,
		PaymentStatus:    models.PaymentPaid,
		GatewayPaymentID: "pay_2",
		UpgradeOf:        "D1700000000123",
		CreatedAt:        created,
	}}})

	got, err := adapter.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, "Paid", got[0].PaymentStatus)
	assert.Equal(t, "pay_2", got[0].PaymentID)
	assert.Equal(t, "D1700000000123", got[0].UpgradeOf)
	assert.Equal(t, created, got[0].CreatedAt)
}

func TestRegistrationAdapter_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewRegistrationAdapter(stubSource{err: boom}).ListAll(context.Background())
	assert.ErrorIs(t, err, boom)
}

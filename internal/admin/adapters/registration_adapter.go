package adapters

import (
	"context"

	"confreg/internal/admin/types"
	"confreg/internal/registration/models"
)

// RegistrationSource is the interface the registration service implements.
type RegistrationSource interface {
	List(ctx context.Context) ([]*models.Registration, error)
}

// RegistrationAdapter adapts the registration service to admin's
// RegistrationLister interface.
type RegistrationAdapter struct {
	source RegistrationSource
}

// NewRegistrationAdapter creates a new adapter wrapping the registration service.
func NewRegistrationAdapter(source RegistrationSource) *RegistrationAdapter {
	return &RegistrationAdapter{source: source}
}

// ListAll returns registrations, newest first, mapped to admin types.
func (a *RegistrationAdapter) ListAll(ctx context.Context) ([]*types.AdminRegistration, error) {
	regs, err := a.source.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*types.AdminRegistration, len(regs))
	for i, r := range regs {
		result[i] = mapRegistration(r)
	}
	return result, nil
}

func mapRegistration(r *models.Registration) *types.AdminRegistration {
	return &types.AdminRegistration{
		ID:             r.ID,
		RegistrationID: r.RegistrationID,
		Category:       r.Category,
		Title:          r.Title,
		Name:           r.Name,
		Mobile:         r.Mobile,
		Email:          r.Email,
		College:        r.College,
		Organization:   r.Organization,
		DCIRegNumber:   r.DCIRegNumber,
		City:           r.City,
		State:          r.State,
		Amount:         r.Amount,
		PaymentStatus:  string(r.PaymentStatus),
		PaymentID:      r.GatewayPaymentID,
		UpgradeOf:      r.UpgradeOf,
		CreatedAt:      r.CreatedAt,
	}
}

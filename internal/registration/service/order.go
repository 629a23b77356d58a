package service

import (
	"context"
	"errors"
	"strings"

	"confreg/internal/registration/models"
	dErrors "confreg/pkg/domain-errors"
	"confreg/pkg/platform/sentinel"
	"confreg/pkg/requestcontext"
)

// CreateOrder opens a gateway order for a provisional registration and links
// the order id to it. amount may be zero to charge the recorded amount;
// otherwise it must match.
func (s *Service) CreateOrder(ctx context.Context, regID string, amount int64) (*models.Order, error) {
	ctx, span := s.tracer.Start(ctx, "registration.CreateOrder")
	defer span.End()

	regID = strings.TrimSpace(regID)
	if regID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "Registration ID is required")
	}
	if s.gateway == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "payment gateway not configured")
	}

	prov, err := s.provisional.FindByRegistrationID(ctx, regID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "Registration session not found. Please register again.")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration session")
	}
	if amount == 0 {
		amount = prov.Amount
	}
	if amount <= 0 || amount != prov.Amount {
		return nil, dErrors.New(dErrors.CodeValidation, "Amount does not match the registration")
	}

	order, err := s.gateway.CreateOrder(ctx, amount*100, s.currency, regID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTransport, "failed to create payment order")
	}

	if _, err := s.provisional.AttachOrder(ctx, regID, order.ID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Registration session not found. Please register again.")
		}
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "payment order is already linked to another registration")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to link order to registration")
	}
	s.logger.InfoContext(ctx, "order linked to registration",
		"request_id", requestcontext.RequestID(ctx),
		"order_id", order.ID,
		"reg_id", regID,
	)
	return order, nil
}

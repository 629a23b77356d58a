package service

import (
	"context"
	"errors"
	"strings"

	"confreg/internal/registration/models"
	"confreg/internal/registration/pricing"
	dErrors "confreg/pkg/domain-errors"
	"confreg/pkg/platform/sentinel"
)

// CheckStatus returns the registrant's latest permanent record and what they
// can still add to it.
func (s *Service) CheckStatus(ctx context.Context, mobile string) (*models.StatusResult, error) {
	ctx, span := s.tracer.Start(ctx, "registration.CheckStatus")
	defer span.End()

	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "Mobile Number is required")
	}
	rec, err := s.permanent.FindLatestByMobile(ctx, mobile)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "No registration found with this Mobile Number.")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up registration")
	}
	return &models.StatusResult{Record: rec, Offers: pricing.OffersFor(rec.Category)}, nil
}

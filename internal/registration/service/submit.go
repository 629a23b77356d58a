package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"confreg/internal/notification"
	"confreg/internal/registration/ident"
	"confreg/internal/registration/models"
	"confreg/internal/registration/pricing"
	dErrors "confreg/pkg/domain-errors"
	"confreg/pkg/platform/sentinel"
	pstrings "confreg/pkg/platform/strings"
	"confreg/pkg/requestcontext"
)

const (
	msgDuplicateMobile  = "A registration with this Phone Number already exists. Please use a different Phone Number or check your status."
	msgNothingToUpgrade = "No registration found to upgrade for this Phone Number."
	msgStudentAddOn     = "Students may only add the lunch option to their registration."
	msgUpgradeMismatch  = "The registration to upgrade does not belong to this Phone Number."
	msgNothingToAdd     = "Your registration already includes this option."
	msgAmountMismatch   = "Amount does not match the fee for this category."
)

// Submit validates a registration form. Trade registrations settle in cash
// and go straight to the permanent store; everything else becomes a
// provisional record awaiting payment. Add-on categories upgrade the
// registrant's existing permanent record. The fee always comes from the fee
// table; a submitted amount only has to agree with it.
func (s *Service) Submit(ctx context.Context, req models.SubmitRequest) (*models.SubmitResult, error) {
	ctx, span := s.tracer.Start(ctx, "registration.Submit")
	defer span.End()

	req.Normalize()
	if err := validateSubmit(req); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("registration.category", req.Category))

	rec := newRecord(req, requestcontext.Now(ctx))
	if ident.IsTrader(req.Category) {
		return s.submitCash(ctx, rec)
	}

	existing, err := s.permanent.FindLatestByMobile(ctx, rec.Mobile)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing registration")
	}
	addOn := pricing.IsAddOn(req.Category)

	switch {
	case existing != nil && !addOn:
		return nil, dErrors.New(dErrors.CodeValidation, msgDuplicateMobile)
	case existing == nil && addOn:
		return nil, dErrors.New(dErrors.CodeValidation, msgNothingToUpgrade)
	case addOn:
		if err := checkUpgrade(existing, req); err != nil {
			return nil, err
		}
		rec.UpgradeOf = existing.RegistrationID
		rec.Category = pstrings.JoinLabels(existing.Category, req.Category)
		rec.RegistrationID = ident.Derive(rec.Category, existing.RegistrationID, rec.CreatedAt)
		rec.Amount = addOnPrice(existing.Category, req.Category)
		if rec.Amount <= 0 {
			return nil, dErrors.New(dErrors.CodeValidation, msgNothingToAdd)
		}
	default:
		rec.RegistrationID = ident.Derive(rec.Category, "", rec.CreatedAt)
		rec.Amount = pricing.TierPrice(rec.Category)
	}
	if req.Amount > 0 && req.Amount != rec.Amount {
		s.logger.WarnContext(ctx, "submitted amount differs from the fee",
			"request_id", requestcontext.RequestID(ctx),
			"category", rec.Category,
			"submitted", req.Amount,
			"fee", rec.Amount,
		)
		return nil, dErrors.New(dErrors.CodeValidation, msgAmountMismatch)
	}

	if err := s.provisional.Save(ctx, rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save registration")
	}

	kind := "new"
	if addOn {
		kind = "upgrade"
	}
	s.metrics.IncSubmitted(kind)
	s.logger.InfoContext(ctx, "provisional registration created",
		"request_id", requestcontext.RequestID(ctx),
		"reg_id", rec.RegistrationID,
		"upgrade_of", rec.UpgradeOf,
		"amount", rec.Amount,
	)
	return &models.SubmitResult{RegistrationID: rec.RegistrationID, Record: rec}, nil
}

// submitCash settles a trade registration immediately. The synthetic payment
// id makes repeated submissions idempotent.
func (s *Service) submitCash(ctx context.Context, rec *models.Registration) (*models.SubmitResult, error) {
	paymentID := models.CashPaymentPrefix + rec.Mobile
	var result *models.SubmitResult

	err := s.locker.WithLock(ctx, "mobile:"+rec.Mobile, func(ctx context.Context) error {
		settled, err := s.permanent.FindByPayment(ctx, "", paymentID)
		if err == nil {
			result = &models.SubmitResult{RegistrationID: settled.RegistrationID, Settled: true, Replayed: true, Record: settled}
			return nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check cash registration")
		}

		if _, err := s.permanent.FindLatestByMobile(ctx, rec.Mobile); err == nil {
			return dErrors.New(dErrors.CodeValidation, msgDuplicateMobile)
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing registration")
		}

		rec.RegistrationID = ident.Derive(rec.Category, "", rec.CreatedAt)
		rec.PaymentStatus = models.PaymentCompleted
		rec.GatewayPaymentID = paymentID
		if err := s.permanent.Create(ctx, rec); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeValidation, msgDuplicateMobile)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save registration")
		}
		result = &models.SubmitResult{RegistrationID: rec.RegistrationID, Settled: true, Record: rec}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Replayed {
		return result, nil
	}

	s.metrics.IncSubmitted("cash")
	s.logger.InfoContext(ctx, "cash registration settled",
		"request_id", requestcontext.RequestID(ctx),
		"reg_id", result.RegistrationID,
	)
	s.enqueue(ctx, notification.KindConfirmation, result.Record)
	return result, nil
}

func validateSubmit(req models.SubmitRequest) error {
	switch {
	case req.Category == "":
		return dErrors.New(dErrors.CodeValidation, "Registration category is required")
	case req.Name == "":
		return dErrors.New(dErrors.CodeValidation, "Name is required")
	case req.Mobile == "":
		return dErrors.New(dErrors.CodeValidation, "Mobile Number is required")
	case !validMobile(req.Mobile):
		return dErrors.New(dErrors.CodeValidation, "Mobile Number is invalid")
	case req.Email == "" && !ident.IsTrader(req.Category):
		return dErrors.New(dErrors.CodeValidation, "Email is required")
	case req.Amount < 0:
		return dErrors.New(dErrors.CodeValidation, "Amount must not be negative")
	}
	return nil
}

func validMobile(mobile string) bool {
	digits := strings.TrimPrefix(mobile, "+")
	if len(digits) < 7 || len(digits) > 15 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func checkUpgrade(existing *models.Registration, req models.SubmitRequest) error {
	if req.ExistingID != "" && ident.Suffix(req.ExistingID) != ident.Suffix(existing.RegistrationID) {
		return dErrors.New(dErrors.CodeValidation, msgUpgradeMismatch)
	}
	if ident.IsStudent(existing.Category) && !pricing.AllowedForStudent(req.Category) {
		return dErrors.New(dErrors.CodeValidation, msgStudentAddOn)
	}
	return nil
}

// addOnPrice prices an add-on against what the registrant already holds.
func addOnPrice(current, addOn string) int64 {
	switch {
	case pricing.IsMembership(addOn):
		return max(pricing.PriceRCMember-pricing.TierPrice(current), 0)
	case pricing.HasBanquet(addOn):
		return pricing.PriceBanquet
	case pricing.HasLunch(addOn):
		return pricing.PriceLunch
	}
	return 0
}

func newRecord(req models.SubmitRequest, now time.Time) *models.Registration {
	return &models.Registration{
		ID:            uuid.New(),
		Category:      req.Category,
		Title:         req.Title,
		Name:          req.Name,
		Gender:        req.Gender,
		Mobile:        req.Mobile,
		Email:         req.Email,
		College:       manualOverride(req.College, req.CollegeManual),
		StudyYear:     req.StudyYear,
		DCIRegNumber:  req.DCIRegNumber,
		Organization:  manualOverride(req.Organization, req.OrganizationManual),
		Designation:   req.Designation,
		Address:       req.Address,
		Country:       req.Country,
		State:         req.State,
		City:          req.City,
		Pincode:       req.Pincode,
		Comments:      req.Comments,
		Amount:        req.Amount,
		PaymentStatus: models.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// manualOverride swaps the "Other" dropdown choice for the typed value.
func manualOverride(choice, manual string) string {
	if strings.EqualFold(choice, "Other") && manual != "" {
		return manual
	}
	return choice
}

package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"confreg/internal/notification"
	"confreg/internal/registration/ident"
	"confreg/internal/registration/models"
	dErrors "confreg/pkg/domain-errors"
	"confreg/pkg/platform/sentinel"
	pstrings "confreg/pkg/platform/strings"
	"confreg/pkg/requestcontext"
)

const msgSessionNotFound = "Registration session not found or expired. Please register again."

// Complete moves a paid provisional registration into the permanent store.
// Replays of an already completed payment return the stored record without
// side effects, so client and webhook may both report the same payment.
func (s *Service) Complete(ctx context.Context, req models.CompleteRequest) (*models.CompleteResult, error) {
	ctx, span := s.tracer.Start(ctx, "registration.Complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("payment.order_id", req.OrderID),
		attribute.String("payment.source", string(req.Source)),
	)

	start := time.Now()
	defer s.metrics.ObserveCompletion(start)

	result, err := s.complete(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		s.metrics.IncCompletion(string(req.Source), outcomeFor(err))
		return nil, err
	}

	outcome := "completed"
	if result.Replayed {
		outcome = "replayed"
	}
	s.metrics.IncCompletion(string(req.Source), outcome)
	span.SetAttributes(attribute.String("registration.id", result.Record.RegistrationID))
	return result, nil
}

func (s *Service) complete(ctx context.Context, req models.CompleteRequest) (*models.CompleteResult, error) {
	if req.OrderID == "" || req.PaymentID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "Order ID and Payment ID are required")
	}
	if req.Source == models.SourceClient && s.verifyClientSignature {
		if s.gateway == nil {
			return nil, dErrors.New(dErrors.CodeInternal, "payment gateway not configured")
		}
		if err := s.gateway.VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature); err != nil {
			s.logger.WarnContext(ctx, "payment signature mismatch",
				"request_id", requestcontext.RequestID(ctx),
				"order_id", req.OrderID,
			)
			return nil, dErrors.Wrap(err, dErrors.CodeSignatureInvalid, "invalid signature")
		}
	}

	if done, err := s.findCompleted(ctx, req); done != nil || err != nil {
		return done, err
	}

	prov, healed, err := s.resolveProvisional(ctx, req)
	if err != nil {
		return nil, err
	}
	if prov == nil {
		// a concurrent completion may have consumed the record
		if done, err := s.findCompleted(ctx, req); done != nil || err != nil {
			return done, err
		}
		return nil, dErrors.New(dErrors.CodeNotFound, msgSessionNotFound)
	}

	var result *models.CompleteResult
	err = s.locker.WithLock(ctx, lockKey(prov.RegistrationID), func(ctx context.Context) error {
		done, err := s.findCompleted(ctx, req)
		if err != nil {
			return err
		}
		if done != nil {
			result = done
			return nil
		}

		// re-read under the lock; a competing attempt may have migrated it
		current, err := s.provisional.FindByRegistrationID(ctx, prov.RegistrationID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, msgSessionNotFound)
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration session")
		}

		rec, upgraded, err := s.migrate(ctx, current, req)
		if err != nil {
			return err
		}
		if err := s.provisional.Delete(ctx, current.RegistrationID); err != nil {
			// retention will purge it; the permanent record is authoritative
			s.logger.WarnContext(ctx, "failed to delete consumed provisional registration",
				"request_id", requestcontext.RequestID(ctx),
				"reg_id", current.RegistrationID,
				"error", err,
			)
		}
		result = &models.CompleteResult{Record: rec, Upgraded: upgraded}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Replayed {
		return result, nil
	}
	result.SelfHealed = healed

	s.logger.InfoContext(ctx, "payment completed",
		"request_id", requestcontext.RequestID(ctx),
		"reg_id", result.Record.RegistrationID,
		"order_id", req.OrderID,
		"source", req.Source,
		"upgraded", result.Upgraded,
	)
	s.enqueue(ctx, notification.KindConfirmation, result.Record)
	return result, nil
}

// findCompleted returns a replay result when the payment is already recorded.
func (s *Service) findCompleted(ctx context.Context, req models.CompleteRequest) (*models.CompleteResult, error) {
	rec, err := s.permanent.FindByPayment(ctx, req.OrderID, req.PaymentID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check payment")
	}
	return &models.CompleteResult{Record: rec, Replayed: true}, nil
}

// resolveProvisional finds the provisional record by order id, falling back
// to the registration id reported by the client. A fallback hit is healed by
// attaching the order id so later lookups (e.g. the webhook) succeed.
func (s *Service) resolveProvisional(ctx context.Context, req models.CompleteRequest) (*models.Registration, bool, error) {
	prov, err := s.provisional.FindByOrderID(ctx, req.OrderID)
	if err == nil {
		return prov, false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration session")
	}
	if req.FallbackRegistrationID == "" {
		return nil, false, nil
	}

	s.logger.WarnContext(ctx, "order id not linked to a registration, trying registration id",
		"request_id", requestcontext.RequestID(ctx),
		"order_id", req.OrderID,
		"reg_id", req.FallbackRegistrationID,
	)
	prov, err = s.provisional.AttachOrder(ctx, req.FallbackRegistrationID, req.OrderID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, nil
	}
	if errors.Is(err, sentinel.ErrConflict) {
		// A concurrent attachment of the same order committed first.
		prov, err = s.provisional.FindByOrderID(ctx, req.OrderID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration session")
		}
		return prov, false, nil
	}
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to link order to registration")
	}
	s.metrics.IncSelfHealed()
	s.logger.InfoContext(ctx, "self-healed: linked order id to registration",
		"request_id", requestcontext.RequestID(ctx),
		"order_id", req.OrderID,
		"reg_id", prov.RegistrationID,
	)
	return prov, true, nil
}

// migrate writes the permanent record for prov. An upgrade mutates the
// registrant's existing record; anything else creates a new one.
func (s *Service) migrate(ctx context.Context, prov *models.Registration, req models.CompleteRequest) (*models.Registration, bool, error) {
	now := requestcontext.Now(ctx)

	existing, err := s.upgradeTarget(ctx, prov)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		merged := mergeUpgrade(existing, prov, req, now)
		if err := s.permanent.Update(ctx, merged); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return nil, false, dErrors.New(dErrors.CodeConflict, "registration id already in use")
			}
			return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save upgrade")
		}
		return merged, true, nil
	}

	rec := prov.Clone()
	rec.UpgradeOf = ""
	rec.PaymentStatus = models.PaymentPaid
	rec.GatewayOrderID = req.OrderID
	rec.GatewayPaymentID = req.PaymentID
	rec.GatewaySignature = req.Signature
	rec.UpdatedAt = now
	if err := s.permanent.Create(ctx, rec); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.logger.ErrorContext(ctx, "paid registration conflicts with an existing one",
				"request_id", requestcontext.RequestID(ctx),
				"reg_id", rec.RegistrationID,
				"order_id", req.OrderID,
				"payment_id", req.PaymentID,
			)
			return nil, false, dErrors.New(dErrors.CodeConflict, msgDuplicateMobile)
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save registration")
	}
	return rec, false, nil
}

func (s *Service) upgradeTarget(ctx context.Context, prov *models.Registration) (*models.Registration, error) {
	for _, regID := range []string{prov.UpgradeOf, prov.RegistrationID} {
		if regID == "" {
			continue
		}
		existing, err := s.permanent.FindByRegistrationID(ctx, regID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load existing registration")
		}
	}
	if prov.UpgradeOf == "" {
		return nil, nil
	}
	// An earlier add-on may have renamed the record since this one was
	// submitted. The id suffix survives every rename and the caller holds
	// the suffix lock, so a mobile match with the same suffix is the target.
	latest, err := s.permanent.FindLatestByMobile(ctx, prov.Mobile)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load existing registration")
	}
	if ident.Suffix(latest.RegistrationID) != ident.Suffix(prov.UpgradeOf) {
		return nil, nil
	}
	return latest, nil
}

// mergeUpgrade folds a paid add-on into the existing record: categories are
// joined, amounts accumulate, and the id is re-derived from the merged
// category so it carries every add-on bought so far.
func mergeUpgrade(existing, prov *models.Registration, req models.CompleteRequest, now time.Time) *models.Registration {
	merged := existing.Clone()
	merged.Category = pstrings.JoinLabels(existing.Category, prov.Category)
	merged.RegistrationID = ident.Derive(merged.Category, existing.RegistrationID, now)
	merged.Amount = existing.Amount + prov.Amount
	merged.PaymentStatus = models.PaymentPaid
	merged.GatewayOrderID = req.OrderID
	merged.GatewayPaymentID = req.PaymentID
	merged.GatewaySignature = req.Signature
	merged.UpdatedAt = now

	refresh := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	refresh(&merged.Title, prov.Title)
	refresh(&merged.Name, prov.Name)
	refresh(&merged.Gender, prov.Gender)
	refresh(&merged.Email, prov.Email)
	refresh(&merged.College, prov.College)
	refresh(&merged.StudyYear, prov.StudyYear)
	refresh(&merged.DCIRegNumber, prov.DCIRegNumber)
	refresh(&merged.Organization, prov.Organization)
	refresh(&merged.Designation, prov.Designation)
	refresh(&merged.Address, prov.Address)
	refresh(&merged.Country, prov.Country)
	refresh(&merged.State, prov.State)
	refresh(&merged.City, prov.City)
	refresh(&merged.Pincode, prov.Pincode)
	refresh(&merged.Comments, prov.Comments)
	return merged
}

// lockKey serializes everything a registrant does, across upgrades that
// change the id prefix.
func lockKey(regID string) string {
	if suffix := ident.Suffix(regID); suffix != "" {
		return "reg:" + suffix
	}
	return "reg:" + regID
}

func outcomeFor(err error) string {
	switch dErrors.GetCode(err) {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeSignatureInvalid:
		return "invalid_signature"
	case dErrors.CodeValidation:
		return "invalid"
	case dErrors.CodeConflict:
		return "conflict"
	}
	return "error"
}

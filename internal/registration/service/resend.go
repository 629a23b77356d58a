package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"confreg/internal/notification"
	"confreg/internal/registration/models"
	dErrors "confreg/pkg/domain-errors"
	"confreg/pkg/platform/sentinel"
	"confreg/pkg/requestcontext"
)

// Resend enqueues one notification of kind for a permanent registration.
func (s *Service) Resend(ctx context.Context, id uuid.UUID, kind notification.Kind) error {
	rec, err := s.permanent.FindByID(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "Registration not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}
	if s.notifier == nil {
		return dErrors.New(dErrors.CodeInternal, "notifications not configured")
	}
	job := notification.NewJob(kind, rec, requestcontext.RequestID(ctx), requestcontext.Now(ctx))
	if err := s.notifier.Enqueue(ctx, job); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTransport, "failed to queue notification")
	}
	s.logger.InfoContext(ctx, "notification resend queued",
		"request_id", requestcontext.RequestID(ctx),
		"reg_id", rec.RegistrationID,
		"kind", kind,
	)
	return nil
}

// List returns every permanent registration, newest first.
func (s *Service) List(ctx context.Context) ([]*models.Registration, error) {
	records, err := s.permanent.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registrations")
	}
	return records, nil
}

// enqueue hands a job to the notifier. Failures are logged and never reach
// the caller: the payment is already recorded.
func (s *Service) enqueue(ctx context.Context, kind notification.Kind, rec *models.Registration) {
	if s.notifier == nil {
		return
	}
	job := notification.NewJob(kind, rec, requestcontext.RequestID(ctx), requestcontext.Now(ctx))
	if err := s.notifier.Enqueue(ctx, job); err != nil {
		s.logger.ErrorContext(ctx, "failed to queue notification",
			"request_id", requestcontext.RequestID(ctx),
			"reg_id", rec.RegistrationID,
			"kind", kind,
			"error", err,
		)
	}
}

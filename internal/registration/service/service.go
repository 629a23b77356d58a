// Package service implements the registration lifecycle: submission into the
// provisional store, gateway order creation, payment completion into the
// permanent store, eligibility queries, and notification resends.
package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"confreg/internal/notification"
	"confreg/internal/platform/metrics"
	"confreg/internal/registration/models"
)

// ProvisionalStore holds registrations awaiting payment.
type ProvisionalStore interface {
	Save(ctx context.Context, rec *models.Registration) error
	FindByOrderID(ctx context.Context, orderID string) (*models.Registration, error)
	FindByRegistrationID(ctx context.Context, regID string) (*models.Registration, error)
	AttachOrder(ctx context.Context, regID, orderID string) (*models.Registration, error)
	Delete(ctx context.Context, regID string) error
}

// PermanentStore holds paid and settled registrations.
type PermanentStore interface {
	Create(ctx context.Context, rec *models.Registration) error
	Update(ctx context.Context, rec *models.Registration) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	FindByPayment(ctx context.Context, orderID, paymentID string) (*models.Registration, error)
	FindByRegistrationID(ctx context.Context, regID string) (*models.Registration, error)
	FindLatestByMobile(ctx context.Context, mobile string) (*models.Registration, error)
	List(ctx context.Context) ([]*models.Registration, error)
}

// PaymentGateway creates orders and checks client-reported payments.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (*models.Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) error
}

// Service orchestrates the registration lifecycle.
type Service struct {
	provisional ProvisionalStore
	permanent   PermanentStore
	locker      Locker
	gateway     PaymentGateway
	notifier    notification.Queue
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer

	currency              string
	verifyClientSignature bool
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLocker replaces the in-process sharded locker, e.g. with RedisLocker
// when several instances share the stores.
func WithLocker(l Locker) Option {
	return func(s *Service) {
		s.locker = l
	}
}

func WithGateway(g PaymentGateway) Option {
	return func(s *Service) {
		s.gateway = g
	}
}

func WithNotifier(q notification.Queue) Option {
	return func(s *Service) {
		s.notifier = q
	}
}

func WithCurrency(currency string) Option {
	return func(s *Service) {
		s.currency = currency
	}
}

// WithClientSignatureCheck toggles HMAC verification of client-reported
// payments.
func WithClientSignatureCheck(enabled bool) Option {
	return func(s *Service) {
		s.verifyClientSignature = enabled
	}
}

// New constructs a Service.
func New(provisional ProvisionalStore, permanent PermanentStore, opts ...Option) *Service {
	s := &Service{
		provisional:           provisional,
		permanent:             permanent,
		locker:                NewShardedLocker(),
		logger:                slog.Default(),
		tracer:                otel.Tracer("confreg/registration"),
		currency:              "INR",
		verifyClientSignature: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

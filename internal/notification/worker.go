package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"golang.org/x/sync/errgroup"

	"confreg/internal/notification/providers"
	"confreg/internal/notification/render"
	"confreg/internal/platform/metrics"
	"confreg/internal/registration/models"
	"confreg/pkg/platform/circuit"
	"confreg/pkg/requestcontext"
)

const cardAttachmentName = "delegate_card.png"

// ArtifactStore persists rendered files and returns their public URL.
type ArtifactStore interface {
	Save(name string, data []byte) (path, url string, err error)
}

// CertificateRenderer draws a participation certificate.
type CertificateRenderer interface {
	Render(title, name string) ([]byte, error)
}

// WorkerConfig carries the message content settings.
type WorkerConfig struct {
	Event            Event
	AdminEmail       string
	WhatsAppTemplate string
	WhatsAppLanguage string
}

// Worker consumes jobs and delivers them through the configured providers.
type Worker struct {
	source       Source
	email        providers.Provider
	whatsapp     providers.Provider
	artifacts    ArtifactStore
	certificates CertificateRenderer
	cfg          WorkerConfig

	retries      int
	initialDelay time.Duration
	maxDelay     time.Duration
	jobTimeout   time.Duration

	breakersMu sync.Mutex
	breakers   map[string]*circuit.Breaker

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithWorkerMetrics(m *metrics.Metrics) WorkerOption {
	return func(w *Worker) {
		w.metrics = m
	}
}

// WithRetries sets how many attempts a transient provider failure gets.
func WithRetries(attempts int) WorkerOption {
	return func(w *Worker) {
		if attempts > 0 {
			w.retries = attempts
		}
	}
}

// WithBackoff sets the retry delay bounds.
func WithBackoff(initial, maxDelay time.Duration) WorkerOption {
	return func(w *Worker) {
		w.initialDelay = initial
		w.maxDelay = maxDelay
	}
}

// WithJobTimeout bounds the time spent on a single job.
func WithJobTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.jobTimeout = d
		}
	}
}

// NewWorker builds a worker. Both providers are required; use
// providers.NewLog for a channel without credentials.
func NewWorker(source Source, email, whatsapp providers.Provider, artifacts ArtifactStore, certificates CertificateRenderer, cfg WorkerConfig, opts ...WorkerOption) *Worker {
	w := &Worker{
		source:       source,
		email:        email,
		whatsapp:     whatsapp,
		artifacts:    artifacts,
		certificates: certificates,
		cfg:          cfg,
		retries:      3,
		initialDelay: 500 * time.Millisecond,
		maxDelay:     5 * time.Second,
		jobTimeout:   2 * time.Minute,
		breakers:     make(map[string]*circuit.Breaker),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "notification worker started")
	err := w.source.Consume(ctx, w.Handle)
	w.logger.InfoContext(ctx, "notification worker stopped")
	return err
}

// Handle delivers one job. Errors are logged here and returned for the
// caller's bookkeeping; a failed job is not retried as a whole.
func (w *Worker) Handle(ctx context.Context, job Job) error {
	ctx = requestcontext.WithRequestID(ctx, job.RequestID)
	ctx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	rec := job.Registration
	var err error
	switch job.Kind {
	case KindConfirmation:
		err = w.confirm(ctx, rec)
	case KindEmail:
		err = w.sendTicketEmail(ctx, rec)
	case KindWhatsApp:
		err = w.sendWhatsApp(ctx, rec)
	case KindCertificate:
		err = w.sendCertificate(ctx, rec)
	default:
		err = fmt.Errorf("unknown notification kind %q", job.Kind)
	}

	if err != nil {
		w.logger.ErrorContext(ctx, "notification job failed",
			"request_id", job.RequestID,
			"job_id", job.ID,
			"kind", job.Kind,
			"reg_id", rec.RegistrationID,
			"error", err,
		)
		return err
	}
	w.logger.InfoContext(ctx, "notification job delivered",
		"request_id", job.RequestID,
		"job_id", job.ID,
		"kind", job.Kind,
		"reg_id", rec.RegistrationID,
	)
	return nil
}

// confirm renders the card once and fans out to the user email, the admin
// alert and WhatsApp. One channel failing does not stop the others.
func (w *Worker) confirm(ctx context.Context, rec models.Registration) error {
	card, err := w.card(rec)
	if err != nil {
		return err
	}

	var g errgroup.Group
	var mu sync.Mutex
	var errs []error
	collect := func(err error) {
		if err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	}
	g.Go(func() error {
		collect(w.ticketEmail(ctx, rec, card))
		return nil
	})
	g.Go(func() error {
		collect(w.adminAlert(ctx, rec, card))
		return nil
	})
	g.Go(func() error {
		collect(w.whatsAppTicket(ctx, rec, card))
		return nil
	})
	_ = g.Wait()
	return errors.Join(errs...)
}

func (w *Worker) sendTicketEmail(ctx context.Context, rec models.Registration) error {
	card, err := w.card(rec)
	if err != nil {
		return err
	}
	return w.ticketEmail(ctx, rec, card)
}

func (w *Worker) sendWhatsApp(ctx context.Context, rec models.Registration) error {
	card, err := w.card(rec)
	if err != nil {
		return err
	}
	return w.whatsAppTicket(ctx, rec, card)
}

type artifact struct {
	path string
	url  string
}

func (w *Worker) card(rec models.Registration) (artifact, error) {
	data, err := render.Card(rec)
	if err != nil {
		return artifact{}, fmt.Errorf("render card: %w", err)
	}
	path, url, err := w.artifacts.Save(render.CardFileName(rec.RegistrationID), data)
	if err != nil {
		return artifact{}, fmt.Errorf("save card: %w", err)
	}
	return artifact{path: path, url: url}, nil
}

func (w *Worker) ticketEmail(ctx context.Context, rec models.Registration, card artifact) error {
	if rec.Email == "" {
		w.logger.InfoContext(ctx, "ticket email skipped: no address", "reg_id", rec.RegistrationID)
		return nil
	}
	html, err := renderHTML(userTicketTmpl, emailData{Event: w.cfg.Event, Reg: rec, CardURL: card.url})
	if err != nil {
		return err
	}
	return w.deliver(ctx, w.email, providers.Message{
		To:          rec.Email,
		Subject:     "Registration Confirmed - " + w.cfg.Event.Title,
		HTML:        html,
		Attachments: []providers.Attachment{{Filename: cardAttachmentName, Path: card.path}},
	})
}

func (w *Worker) adminAlert(ctx context.Context, rec models.Registration, card artifact) error {
	if w.cfg.AdminEmail == "" {
		return nil
	}
	html, err := renderHTML(adminAlertTmpl, emailData{Event: w.cfg.Event, Reg: rec, CardURL: card.url})
	if err != nil {
		return err
	}
	return w.deliver(ctx, w.email, providers.Message{
		To:          w.cfg.AdminEmail,
		Subject:     "New Registration Alert",
		HTML:        html,
		Attachments: []providers.Attachment{{Filename: cardAttachmentName, Path: card.path}},
	})
}

func (w *Worker) whatsAppTicket(ctx context.Context, rec models.Registration, card artifact) error {
	if rec.Mobile == "" {
		return nil
	}
	return w.deliver(ctx, w.whatsapp, providers.Message{
		To:           rec.Mobile,
		Template:     w.cfg.WhatsAppTemplate,
		Language:     w.cfg.WhatsAppLanguage,
		HeaderValues: []string{card.url},
		BodyValues:   []string{render.DisplayName(rec.Title, rec.Name)},
		CallbackData: rec.RegistrationID,
	})
}

func (w *Worker) sendCertificate(ctx context.Context, rec models.Registration) error {
	if rec.Email == "" {
		return fmt.Errorf("registration %s has no email address", rec.RegistrationID)
	}
	data, err := w.certificates.Render(rec.Title, rec.Name)
	if err != nil {
		return fmt.Errorf("render certificate: %w", err)
	}
	name := render.CertificateFileName(rec.RegistrationID)
	path, _, err := w.artifacts.Save(name, data)
	if err != nil {
		return fmt.Errorf("save certificate: %w", err)
	}
	displayName := render.DisplayName(rec.Title, rec.Name)
	html, err := renderHTML(certificateTmpl, emailData{Event: w.cfg.Event, Reg: rec, Name: displayName})
	if err != nil {
		return err
	}
	return w.deliver(ctx, w.email, providers.Message{
		To:          rec.Email,
		Subject:     "Certificate of Participation - " + w.cfg.Event.Title,
		HTML:        html,
		Attachments: []providers.Attachment{{Filename: name, Path: path}},
	})
}

// deliver sends msg through p, retrying transient failures with backoff
// unless the provider's breaker is open. Only transient failures count
// against the breaker; a rejected message says nothing about provider health.
func (w *Worker) deliver(ctx context.Context, p providers.Provider, msg providers.Message) error {
	channel := string(p.Channel())
	breaker := w.breaker(p.ID())
	if !breaker.Allow() {
		w.metrics.IncNotification(channel, "circuit_open")
		return providers.NewProviderError(providers.ErrorProviderOutage, p.ID(), "circuit open", providers.ErrCircuitOpen)
	}

	var lastErr error
	retrier := retry.NewRetrier(w.retries, w.initialDelay, w.maxDelay)
	err := retrier.RunContext(ctx, func(ctx context.Context) error {
		lastErr = p.Send(ctx, msg)
		if lastErr != nil && !providers.IsRetryable(lastErr) {
			return retry.Stop(lastErr)
		}
		return lastErr
	})
	if err != nil {
		if lastErr == nil {
			lastErr = err
		}
		if providers.IsRetryable(lastErr) {
			if _, change := breaker.RecordFailure(); change.Opened {
				w.logger.WarnContext(ctx, "provider circuit opened", "provider", p.ID())
			}
		}
		w.metrics.IncNotification(channel, string(providers.GetCategory(lastErr)))
		return lastErr
	}

	if _, change := breaker.RecordSuccess(); change.Closed {
		w.logger.InfoContext(ctx, "provider circuit closed", "provider", p.ID())
	}
	w.metrics.IncNotification(channel, "sent")
	return nil
}

func (w *Worker) breaker(providerID string) *circuit.Breaker {
	w.breakersMu.Lock()
	defer w.breakersMu.Unlock()
	b, ok := w.breakers[providerID]
	if !ok {
		b = circuit.New(providerID, circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second))
		w.breakers[providerID] = b
	}
	return b
}

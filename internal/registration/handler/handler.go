package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"confreg/internal/notification"
	"confreg/internal/payment/razorpay"
	"confreg/internal/platform/middleware"
	"confreg/internal/registration/models"
	dErrors "confreg/pkg/domain-errors"
	"confreg/pkg/platform/httputil"
)

const (
	maxWebhookBody     = 1 << 20
	signatureHeader    = "X-Razorpay-Signature"
	msgProvisional     = "Provisional registration created. Proceed to payment."
	msgSettled         = "Registration successful."
	msgAlreadySettled  = "Registration already recorded."
	msgPaymentVerified = "Payment verified successfully."
	msgAlreadyVerified = "Already verified"
	msgQueued          = "Request queued."
)

// Service defines the registration operations the handler exposes.
type Service interface {
	Submit(ctx context.Context, req models.SubmitRequest) (*models.SubmitResult, error)
	CheckStatus(ctx context.Context, mobile string) (*models.StatusResult, error)
	CreateOrder(ctx context.Context, regID string, amount int64) (*models.Order, error)
	Complete(ctx context.Context, req models.CompleteRequest) (*models.CompleteResult, error)
	Resend(ctx context.Context, id uuid.UUID, kind notification.Kind) error
}

// WebhookVerifier authenticates gateway webhook deliveries.
type WebhookVerifier interface {
	VerifyWebhookSignature(body []byte, signature string) error
}

// Handler handles registration and payment endpoints.
type Handler struct {
	service   Service
	webhooks  WebhookVerifier
	validator middleware.TokenValidator
	keyID     string
	logger    *slog.Logger
}

// New creates a new registration Handler. keyID is the public gateway key
// handed to the checkout page.
func New(service Service, webhooks WebhookVerifier, validator middleware.TokenValidator, keyID string, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		webhooks:  webhooks,
		validator: validator,
		keyID:     keyID,
		logger:    logger,
	}
}

// Register registers the registration routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/check-status", h.handleCheckStatus)
	r.Post("/create-order", h.handleCreateOrder)
	r.Post("/verify-payment", h.handleVerifyPayment)
	r.Post("/webhook/razorpay", h.handleWebhook)
	r.Get("/get-razorpay-key", h.handleGetKey)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(h.validator, h.logger))
		r.Post("/resend-email", h.handleResend(notification.KindEmail))
		r.Post("/resend-whatsapp", h.handleResend(notification.KindWhatsApp))
		r.Post("/send-certificate", h.handleResend(notification.KindCertificate))
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.SubmitRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.service.Submit(ctx, req)
	if err != nil {
		h.writeError(ctx, w, "registration failed", err)
		return
	}

	message := msgProvisional
	switch {
	case res.Replayed:
		message = msgAlreadySettled
	case res.Settled:
		message = msgSettled
	}
	fields := map[string]any{
		"reg_id":  res.RegistrationID,
		"message": message,
	}
	if res.Settled {
		fields["registration"] = res.Record
	}
	httputil.WriteSuccess(w, fields)
}

func (h *Handler) handleCheckStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CheckStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.service.CheckStatus(ctx, req.Mobile)
	if err != nil {
		h.writeError(ctx, w, "status check failed", err)
		return
	}
	httputil.WriteSuccess(w, map[string]any{
		"existing_reg_id": res.Record.RegistrationID,
		"registration":    res.Record,
		"offers":          res.Offers,
	})
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateOrderRequest
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.service.CreateOrder(ctx, req.RegistrationID, req.Amount)
	if err != nil {
		h.writeError(ctx, w, "order creation failed", err)
		return
	}
	httputil.WriteSuccess(w, map[string]any{"order": order})
}

func (h *Handler) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.CompleteRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Source = models.SourceClient

	res, err := h.service.Complete(ctx, req)
	if err != nil {
		h.writeError(ctx, w, "payment verification failed", err)
		return
	}
	message := msgPaymentVerified
	if res.Replayed {
		message = msgAlreadyVerified
	}
	httputil.WriteSuccess(w, map[string]any{
		"registration": res.Record,
		"message":      message,
	})
}

// handleWebhook authenticates the raw body before anything else. Once the
// signature holds the delivery is always acknowledged so the gateway does not
// redeliver; completion failures are logged.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.logger.WarnContext(ctx, "webhook body unreadable",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.webhooks.VerifyWebhookSignature(body, r.Header.Get(signatureHeader)); err != nil {
		h.logger.WarnContext(ctx, "webhook signature rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeSignatureInvalid, "invalid signature"))
		return
	}

	event, err := razorpay.ParseWebhook(body)
	if err != nil {
		h.logger.WarnContext(ctx, "webhook payload ignored",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteSuccess(w, nil)
		return
	}
	if event.Event != razorpay.EventPaymentCaptured {
		h.logger.InfoContext(ctx, "webhook event ignored",
			"request_id", requestID,
			"event", event.Event,
		)
		httputil.WriteSuccess(w, nil)
		return
	}

	payment := event.Payload.Payment.Entity
	res, err := h.service.Complete(ctx, models.CompleteRequest{
		OrderID:                payment.OrderID,
		PaymentID:              payment.ID,
		FallbackRegistrationID: payment.RegistrationID(),
		Source:                 models.SourceWebhook,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "webhook completion failed",
			"request_id", requestID,
			"order_id", payment.OrderID,
			"payment_id", payment.ID,
			"error", err,
		)
	} else {
		h.logger.InfoContext(ctx, "webhook completion processed",
			"request_id", requestID,
			"reg_id", res.Record.RegistrationID,
			"replayed", res.Replayed,
		)
	}
	httputil.WriteSuccess(w, nil)
}

func (h *Handler) handleGetKey(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteSuccess(w, map[string]any{"key": h.keyID})
}

func (h *Handler) handleResend(kind notification.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var req ResendRequest
		if !h.decode(w, r, &req) {
			return
		}
		id, err := uuid.Parse(req.ID)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "Invalid registration id"))
			return
		}
		if err := h.service.Resend(ctx, id, kind); err != nil {
			h.writeError(ctx, w, "resend failed", err)
			return
		}
		httputil.WriteSuccess(w, map[string]any{"message": msgQueued})
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		ctx := r.Context()
		h.logger.WarnContext(ctx, "invalid request body",
			"request_id", middleware.GetRequestID(ctx),
			"path", r.URL.Path,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

// writeError logs unexpected failures at error level and business outcomes
// at info, then writes the envelope.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	attrs := []any{
		"request_id", middleware.GetRequestID(ctx),
		"code", dErrors.GetCode(err),
		"error", err,
	}
	switch dErrors.GetCode(err) {
	case dErrors.CodeValidation, dErrors.CodeNotFound, dErrors.CodeConflict, dErrors.CodeSignatureInvalid:
		h.logger.InfoContext(ctx, msg, attrs...)
	default:
		h.logger.ErrorContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}

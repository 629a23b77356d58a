package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"confreg/internal/admin/types"
	"confreg/internal/platform/middleware"
	dErrors "confreg/pkg/domain-errors"
	"confreg/pkg/platform/httputil"
)

// LoginService is the login operation the handler needs.
type LoginService interface {
	Login(ctx context.Context, username, password string) (string, time.Time, error)
}

// RegistrationLister lists registrations for the admin view.
type RegistrationLister interface {
	ListAll(ctx context.Context) ([]*types.AdminRegistration, error)
}

// Handler handles admin endpoints.
type Handler struct {
	auth      LoginService
	lister    RegistrationLister
	validator middleware.TokenValidator
	logger    *slog.Logger
}

// NewHandler creates a new admin Handler.
func NewHandler(auth LoginService, lister RegistrationLister, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		auth:      auth,
		lister:    lister,
		validator: validator,
		logger:    logger,
	}
}

// Register registers the admin routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.With(middleware.RequireAdmin(h.validator, h.logger)).Get("/registrations", h.handleListRegistrations)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid login request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	token, expiresAt, err := h.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]any{
		"token":      token,
		"expires_at": expiresAt,
	})
}

func (h *Handler) handleListRegistrations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	regs, err := h.lister.ListAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list registrations",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteSuccess(w, map[string]any{
		"data":  regs,
		"total": len(regs),
	})
}

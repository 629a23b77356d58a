package admin

import (
	"time"

	"confreg/internal/admin/types"
)

// LoginRequest is the admin login body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the HTTP response DTO for a successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RegistrationsResponse wraps the registration listing for HTTP response.
type RegistrationsResponse struct {
	Data  []*types.AdminRegistration `json:"data"`
	Total int                        `json:"total"`
}

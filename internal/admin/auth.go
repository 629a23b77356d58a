// Package admin serves the admin login and registration listing.
package admin

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	dErrors "confreg/pkg/domain-errors"
)

const msgInvalidCredentials = "Invalid credentials"

// TokenIssuer mints admin access tokens.
type TokenIssuer interface {
	GenerateAccessToken(subject string, expiresIn time.Duration) (string, time.Time, error)
}

// Authenticator checks the single admin credential and issues tokens.
type Authenticator struct {
	username string
	hash     []byte
	issuer   TokenIssuer
	ttl      time.Duration
	logger   *slog.Logger
}

// NewAuthenticator accepts either a bcrypt hash or a plaintext password; a
// plaintext password is hashed once at startup.
func NewAuthenticator(username, password, passwordHash string, issuer TokenIssuer, ttl time.Duration, logger *slog.Logger) (*Authenticator, error) {
	hash := []byte(passwordHash)
	if passwordHash == "" {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("invalid admin password hash: %w", err)
	}
	return &Authenticator{
		username: username,
		hash:     hash,
		issuer:   issuer,
		ttl:      ttl,
		logger:   logger,
	}, nil
}

// Login returns a signed token and its expiry for a valid credential.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(a.hash, []byte(password))
	if !userOK || passErr != nil {
		a.logger.WarnContext(ctx, "admin login failed", "username", username)
		return "", time.Time{}, dErrors.New(dErrors.CodeUnauthorized, msgInvalidCredentials)
	}

	token, expiresAt, err := a.issuer.GenerateAccessToken(username, a.ttl)
	if err != nil {
		return "", time.Time{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	a.logger.InfoContext(ctx, "admin logged in", "username", username)
	return token, expiresAt, nil
}

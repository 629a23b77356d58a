package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confreg/internal/platform/config"
)

func TestInterakt_SendsTemplate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/public/message/", r.URL.Path)
		assert.Equal(t, "Basic secret-key", r.Header.Get("Authorization"))

		var body interaktRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "91", body.CountryCode)
		assert.Equal(t, "9000000001", body.PhoneNumber)
		assert.Equal(t, "Template", body.Type)
		assert.Equal(t, "tgsdc_entry_ticket", body.Template.Name)
		assert.Equal(t, []string{"https://example.com/qrcodes/TGSDC_D1.png"}, body.Template.HeaderValues)
		assert.Equal(t, []string{"Dr. Asha Rao"}, body.Template.BodyValues)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	p := NewInterakt(config.WhatsAppConfig{BaseURL: srv.URL, APIKey: "secret-key", CountryCode: "91", Timeout: time.Second})
	err := p.Send(context.Background(), Message{
		To:           "9000000001",
		Template:     "tgsdc_entry_ticket",
		Language:     "en",
		HeaderValues: []string{"https://example.com/qrcodes/TGSDC_D1.png"},
		BodyValues:   []string{"Dr. Asha Rao"},
	})
	require.NoError(t, err)
}

func TestInterakt_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		status    int
		category  ErrorCategory
		retryable bool
	}{
		{http.StatusServiceUnavailable, ErrorProviderOutage, true},
		{http.StatusTooManyRequests, ErrorRateLimited, true},
		{http.StatusUnauthorized, ErrorAuthentication, false},
		{http.StatusBadRequest, ErrorBadData, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			p := NewInterakt(config.WhatsAppConfig{BaseURL: srv.URL, APIKey: "k", Timeout: time.Second})
			err := p.Send(context.Background(), Message{To: "9000000001"})
			require.Error(t, err)
			assert.Equal(t, tt.category, GetCategory(err))
			assert.Equal(t, tt.retryable, IsRetryable(err))
		})
	}
}

func TestInterakt_MissingKeyIsNotRetryable(t *testing.T) {
	p := NewInterakt(config.WhatsAppConfig{BaseURL: "http://unused"})
	err := p.Send(context.Background(), Message{To: "9000000001"})
	assert.Equal(t, ErrorAuthentication, GetCategory(err))
	assert.False(t, IsRetryable(err))
}

func TestCategoryForTransport(t *testing.T) {
	assert.Equal(t, ErrorTimeout, CategoryForTransport(context.DeadlineExceeded))
	assert.Equal(t, ErrorProviderOutage, CategoryForTransport(errors.New("connection refused")))
}

func TestSMTP_RequiresHost(t *testing.T) {
	_, err := NewSMTP(config.EmailConfig{})
	assert.Error(t, err)
}

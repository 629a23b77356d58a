package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"confreg/internal/platform/config"
)

// InteraktProvider sends WhatsApp template messages through the Interakt
// public API.
type InteraktProvider struct {
	baseURL     string
	apiKey      string
	countryCode string
	http        *http.Client
}

// NewInterakt builds a WhatsApp provider.
func NewInterakt(cfg config.WhatsAppConfig) *InteraktProvider {
	return &InteraktProvider{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		countryCode: cfg.CountryCode,
		http:        &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *InteraktProvider) ID() string {
	return "interakt"
}

func (p *InteraktProvider) Channel() Channel {
	return ChannelWhatsApp
}

type interaktTemplate struct {
	Name         string   `json:"name"`
	LanguageCode string   `json:"languageCode"`
	HeaderValues []string `json:"headerValues,omitempty"`
	BodyValues   []string `json:"bodyValues,omitempty"`
}

type interaktRequest struct {
	CountryCode  string           `json:"countryCode"`
	PhoneNumber  string           `json:"phoneNumber"`
	CallbackData string           `json:"callbackData,omitempty"`
	Type         string           `json:"type"`
	Template     interaktTemplate `json:"template"`
}

func (p *InteraktProvider) Send(ctx context.Context, msg Message) error {
	if p.apiKey == "" {
		return NewProviderError(ErrorAuthentication, p.ID(), "api key not configured", nil)
	}
	body, err := json.Marshal(interaktRequest{
		CountryCode:  p.countryCode,
		PhoneNumber:  msg.To,
		CallbackData: msg.CallbackData,
		Type:         "Template",
		Template: interaktTemplate{
			Name:         msg.Template,
			LanguageCode: msg.Language,
			HeaderValues: msg.HeaderValues,
			BodyValues:   msg.BodyValues,
		},
	})
	if err != nil {
		return NewProviderError(ErrorBadData, p.ID(), "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/public/message/", bytes.NewReader(body))
	if err != nil {
		return NewProviderError(ErrorInternal, p.ID(), "build request", err)
	}
	req.Header.Set("Authorization", "Basic "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return NewProviderError(CategoryForTransport(err), p.ID(), "send failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return NewProviderError(CategoryForStatus(resp.StatusCode), p.ID(),
			fmt.Sprintf("status %d", resp.StatusCode), fmt.Errorf("%s", strings.TrimSpace(string(raw))))
	}
	return nil
}

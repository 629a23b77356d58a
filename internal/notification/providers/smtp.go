package providers

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"confreg/internal/platform/config"
)

// SMTPProvider sends HTML email with attachments through an SMTP relay.
type SMTPProvider struct {
	client   *mail.Client
	from     string
	fromName string
}

// NewSMTP builds an SMTP provider. Port 465 uses implicit TLS; any other
// port upgrades with STARTTLS when the server offers it.
func NewSMTP(cfg config.EmailConfig) (*SMTPProvider, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	if cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPProvider{client: client, from: cfg.From, fromName: cfg.FromName}, nil
}

func (p *SMTPProvider) ID() string {
	return "smtp"
}

func (p *SMTPProvider) Channel() Channel {
	return ChannelEmail
}

func (p *SMTPProvider) Send(ctx context.Context, msg Message) error {
	m, err := p.build(msg)
	if err != nil {
		return NewProviderError(ErrorBadData, p.ID(), "invalid message", err)
	}
	if err := p.client.DialAndSendWithContext(ctx, m); err != nil {
		return NewProviderError(CategoryForTransport(err), p.ID(), "send failed", err)
	}
	return nil
}

func (p *SMTPProvider) build(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(p.fromName, p.from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	for _, a := range msg.Attachments {
		m.AttachFile(a.Path, mail.WithFileName(a.Filename))
	}
	return m, nil
}

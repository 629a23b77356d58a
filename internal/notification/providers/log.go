package providers

import (
	"context"
	"log/slog"
)

// LogProvider records messages instead of sending them. It stands in for a
// channel with no credentials configured.
type LogProvider struct {
	channel Channel
	logger  *slog.Logger
}

// NewLog returns a provider that logs messages for channel.
func NewLog(channel Channel, logger *slog.Logger) *LogProvider {
	return &LogProvider{channel: channel, logger: logger}
}

func (p *LogProvider) ID() string {
	return "log-" + string(p.channel)
}

func (p *LogProvider) Channel() Channel {
	return p.channel
}

func (p *LogProvider) Send(ctx context.Context, msg Message) error {
	p.logger.InfoContext(ctx, "notification not sent: provider not configured",
		"channel", p.channel,
		"to", msg.To,
		"subject", msg.Subject,
		"template", msg.Template,
		"attachments", len(msg.Attachments),
	)
	return nil
}

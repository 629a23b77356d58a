// Package providers holds the delivery channels behind one Provider
// interface: SMTP email, Interakt WhatsApp, and a logging stand-in used when
// a channel is not configured.
package providers

import "context"

// Channel names a delivery medium.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
)

// Attachment is a file sent alongside an email.
type Attachment struct {
	Filename string
	Path     string
}

// Message is channel-neutral. Email providers read Subject, HTML and
// Attachments; WhatsApp providers read Template, HeaderValues and
// BodyValues.
type Message struct {
	To           string
	Subject      string
	HTML         string
	Attachments  []Attachment
	Template     string
	Language     string
	HeaderValues []string
	BodyValues   []string
	CallbackData string
}

// Provider delivers a message on one channel.
type Provider interface {
	ID() string
	Channel() Channel
	Send(ctx context.Context, msg Message) error
}

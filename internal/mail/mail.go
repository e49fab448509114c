package mail

import "context"

// Message is a plain-text email ready to send
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender is the outbound port for email delivery
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

package memory

import (
	"context"
	"errors"
	"sync"

	"moneta/internal/mail"
)

// Recorder is an in-memory mail.Sender for tests and local development
type Recorder struct {
	mu   sync.Mutex
	sent []mail.Message

	// FailNext makes the next Send return an error, then resets
	FailNext bool
}

var _ mail.Sender = (*Recorder)(nil)

func New() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Send(_ context.Context, msg mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailNext {
		r.FailNext = false
		return errors.New("simulated send failure")
	}
	if msg.To == "" {
		return errors.New("missing recipient")
	}
	r.sent = append(r.sent, msg)
	return nil
}

// Sent returns a copy of every recorded message
func (r *Recorder) Sent() []mail.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]mail.Message, len(r.sent))
	copy(out, r.sent)
	return out
}

package email

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

var ErrInvalidMessage = errors.New("email: message needs a recipient and a subject")

// Message is one HTML email.
type Message struct {
	To       []string
	Subject  string
	HTMLBody string
	FromName string
	ReplyTo  string
}

func (m Message) validate() error {
	if len(m.To) == 0 || m.To[0] == "" || m.Subject == "" {
		return ErrInvalidMessage
	}
	return nil
}

type Provider interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// NoOpProvider is used when no transport is configured.
type NoOpProvider struct {
	log *zap.Logger
}

func NewNoOp(log *zap.Logger) *NoOpProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &NoOpProvider{log: log.Named("providers.email.noop")}
}

func (p *NoOpProvider) Name() string { return "noop" }

func (p *NoOpProvider) Send(ctx context.Context, msg Message) error {
	p.log.Info("email transport not configured, message dropped",
		zap.String("subject", msg.Subject),
		zap.Int("recipients", len(msg.To)),
	)
	return nil
}

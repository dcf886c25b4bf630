package email

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v2"
)

type ResendConfig struct {
	APIKey string
	From   string
	// URL overrides the API base, e.g. a regional endpoint.
	URL string
}

// ResendProvider sends through the Resend API.
type ResendProvider struct {
	cfg    ResendConfig
	client *resend.Client
}

func NewResend(cfg ResendConfig, httpClient *http.Client) *ResendProvider {
	client := resend.NewCustomClient(httpClient, cfg.APIKey)
	if base := strings.TrimSpace(cfg.URL); base != "" {
		if u, err := url.Parse(strings.TrimRight(base, "/") + "/"); err == nil && u.Host != "" {
			client.BaseURL = u
		}
	}
	return &ResendProvider{cfg: cfg, client: client}
}

func (p *ResendProvider) Name() string { return "resend" }

func (p *ResendProvider) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	from := p.cfg.From
	if msg.FromName != "" {
		if addr, err := mail.ParseAddress(from); err == nil {
			addr.Name = msg.FromName
			from = addr.String()
		}
	}

	_, err := p.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTMLBody,
		ReplyTo: msg.ReplyTo,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

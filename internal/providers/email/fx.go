package email

import (
	"net/http"

	"github.com/tsfshop/storefront/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.email",
	fx.Provide(NewFromConfig),
)

// NewFromConfig picks the transport named by EMAIL_PROVIDER, or the first one
// with credentials when unset.
func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	log = log.Named("providers.email")
	emailCfg := cfg.Email

	resendReady := emailCfg.ResendAPIKey != ""
	smtpReady := emailCfg.SMTPUsername != "" && emailCfg.SMTPPassword != ""

	provider := emailCfg.Provider
	if provider == "" {
		switch {
		case resendReady:
			provider = "resend"
		case smtpReady:
			provider = "smtp"
		}
	}

	switch {
	case provider == "resend" && resendReady:
		log.Info("email transport selected", zap.String("provider", "resend"))
		return NewResend(ResendConfig{
			APIKey: emailCfg.ResendAPIKey,
			From:   emailCfg.ResendFrom,
			URL:    emailCfg.ResendURL,
		}, &http.Client{Timeout: cfg.OutboundTimeout})
	case provider == "smtp" && smtpReady:
		log.Info("email transport selected", zap.String("provider", "smtp"))
		return NewSMTP(Config{
			Host:     emailCfg.SMTPHost,
			Port:     emailCfg.SMTPPort,
			Username: emailCfg.SMTPUsername,
			Password: emailCfg.SMTPPassword,
			From:     emailCfg.SMTPFrom,
			Timeout:  cfg.OutboundTimeout,
		})
	}

	log.Warn("no email credentials configured, emails will be dropped", zap.String("provider", provider))
	return NewNoOp(log)
}

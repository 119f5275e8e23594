// Package provider picks the mail transport named in the config.
package provider

import (
	"context"
	"fmt"

	"github.com/BearBump/CargoTrack/config"
	"github.com/BearBump/CargoTrack/internal/integrations/mailer"
	"github.com/BearBump/CargoTrack/internal/integrations/mailer/brevohttp"
	"github.com/BearBump/CargoTrack/internal/integrations/mailer/fake"
	"github.com/BearBump/CargoTrack/internal/integrations/mailer/gmailapi"
	"github.com/BearBump/CargoTrack/internal/integrations/mailer/sesmailer"
	"google.golang.org/api/option"
)

const (
	Fake  = "fake"
	Brevo = "brevo"
	SES   = "ses"
	Gmail = "gmail"
)

// New returns the sender for cfg.Provider and the name it reports in metrics.
// An empty provider falls back to the in-memory fake.
func New(ctx context.Context, cfg config.MailConfig) (mailer.Sender, string, error) {
	switch cfg.Provider {
	case "", Fake:
		return fake.New(), Fake, nil
	case Brevo:
		if cfg.BrevoAPIKey == "" {
			return nil, "", fmt.Errorf("mail provider %q: brevo_api_key is required", Brevo)
		}
		return brevohttp.New(cfg.BrevoBaseURL, cfg.BrevoAPIKey, cfg.FromEmail, cfg.FromName), Brevo, nil
	case SES:
		s, err := sesmailer.New(ctx, cfg.SESRegion, cfg.SESAccessKey, cfg.SESSecretKey, cfg.FromEmail, cfg.FromName)
		if err != nil {
			return nil, "", err
		}
		return s, SES, nil
	case Gmail:
		if cfg.GmailRefreshToken == "" {
			return nil, "", fmt.Errorf("mail provider %q: gmail_refresh_token is required", Gmail)
		}
		ts := gmailapi.TokenSource(ctx, cfg.GmailClientID, cfg.GmailClientSecret, cfg.GmailRefreshToken)
		s, err := gmailapi.New(ctx, cfg.FromEmail, cfg.FromName, option.WithTokenSource(ts))
		if err != nil {
			return nil, "", err
		}
		return s, Gmail, nil
	default:
		return nil, "", fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

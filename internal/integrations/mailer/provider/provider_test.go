package provider

import (
	"context"
	"testing"

	"github.com/BearBump/CargoTrack/config"
	"github.com/BearBump/CargoTrack/internal/integrations/mailer/brevohttp"
	"github.com/BearBump/CargoTrack/internal/integrations/mailer/fake"
	"github.com/BearBump/CargoTrack/internal/integrations/mailer/sesmailer"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	s, name, err := New(ctx, config.MailConfig{})
	require.NoError(t, err)
	require.Equal(t, Fake, name)
	require.IsType(t, &fake.Sender{}, s)

	s, name, err = New(ctx, config.MailConfig{Provider: Brevo, BrevoAPIKey: "k", FromEmail: "a@b.co"})
	require.NoError(t, err)
	require.Equal(t, Brevo, name)
	require.IsType(t, &brevohttp.Client{}, s)

	s, name, err = New(ctx, config.MailConfig{
		Provider: SES, SESRegion: "eu-west-1", SESAccessKey: "AK", SESSecretKey: "SK", FromEmail: "a@b.co",
	})
	require.NoError(t, err)
	require.Equal(t, SES, name)
	require.IsType(t, &sesmailer.Sender{}, s)

	_, _, err = New(ctx, config.MailConfig{Provider: Brevo})
	require.Error(t, err)
	_, _, err = New(ctx, config.MailConfig{Provider: Gmail})
	require.Error(t, err)
	_, _, err = New(ctx, config.MailConfig{Provider: "pigeon"})
	require.ErrorContains(t, err, "pigeon")
}

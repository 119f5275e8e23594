package gmailapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"time"

	"github.com/BearBump/CargoTrack/internal/integrations/mailer"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// TokenSource exchanges a long-lived refresh token for access tokens.
func TokenSource(ctx context.Context, clientID, clientSecret, refreshToken string) oauth2.TokenSource {
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}
	return cfg.TokenSource(ctx, &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now(), // сразу обновляем
	})
}

// Sender sends as the authorized Gmail user.
type Sender struct {
	svc  *gmail.Service
	from string
}

func New(ctx context.Context, fromEmail, fromName string, opts ...option.ClientOption) (*Sender, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "gmail service")
	}
	from := fromEmail
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", fromName), fromEmail)
	}
	return &Sender{svc: svc, from: from}, nil
}

func (s *Sender) Send(ctx context.Context, msg mailer.Message) (string, error) {
	raw, err := buildMIME(s.from, msg)
	if err != nil {
		return "", err
	}
	out, err := s.svc.Users.Messages.
		Send("me", &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}).
		Context(ctx).
		Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == 400 {
			return "", errors.Wrap(mailer.ErrRejected, err.Error())
		}
		return "", errors.Wrap(err, "gmail send")
	}
	return out.Id, nil
}

// buildMIME renders a multipart/alternative message with text and HTML parts.
func buildMIME(from string, msg mailer.Message) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	parts := []struct{ ctype, content string }{
		{"text/plain; charset=UTF-8", msg.Text},
		{"text/html; charset=UTF-8", msg.HTML},
	}
	for _, p := range parts {
		if p.content == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {p.ctype}})
		if err != nil {
			return nil, errors.Wrap(err, "mime part")
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, errors.Wrap(err, "mime write")
		}
	}
	if err := mw.Close(); err != nil {
		return nil, errors.Wrap(err, "mime close")
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "From: %s\r\n", from)
	fmt.Fprintf(&out, "To: %s\r\n", msg.To)
	fmt.Fprintf(&out, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	out.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&out, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

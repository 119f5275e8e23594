package brevohttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BearBump/CargoTrack/internal/integrations/mailer"
	"github.com/pkg/errors"
)

const defaultBaseURL = "https://api.brevo.com"

// Client talks to the Brevo transactional email API.
type Client struct {
	baseURL   string
	apiKey    string
	fromEmail string
	fromName  string
	httpc     *http.Client
}

func New(baseURL, apiKey, fromEmail, fromName string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendReq struct {
	Sender      address   `json:"sender"`
	To          []address `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"htmlContent,omitempty"`
	TextContent string    `json:"textContent,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
}

type sendResp struct {
	MessageID string `json:"messageId"`
}

type errResp struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) Send(ctx context.Context, msg mailer.Message) (string, error) {
	body, err := json.Marshal(sendReq{
		Sender:      address{Email: c.fromEmail, Name: c.fromName},
		To:          []address{{Email: msg.To}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
		TextContent: msg.Text,
		Tags:        msg.Tags,
	})
	if err != nil {
		return "", errors.Wrap(err, "marshal brevo request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/smtp/email", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "new request")
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode/100 != 2 {
		var e errResp
		_ = json.Unmarshal(raw, &e)
		err := fmt.Errorf("brevo http %d: %s %s", resp.StatusCode, e.Code, e.Message)
		// 4xx кроме 429 повторять бессмысленно
		if resp.StatusCode/100 == 4 && resp.StatusCode != http.StatusTooManyRequests {
			return "", errors.Wrap(mailer.ErrRejected, err.Error())
		}
		return "", err
	}

	var r sendResp
	if err := json.Unmarshal(raw, &r); err != nil {
		return "", errors.Wrap(err, "decode")
	}
	return r.MessageID, nil
}

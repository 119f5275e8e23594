package mailer

import (
	"context"

	"github.com/pkg/errors"
)

type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
	Tags    []string
}

// Sender delivers one message and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// ErrRejected marks a send the provider refused for good (bad recipient,
// invalid content). Retrying it is pointless.
var ErrRejected = errors.New("message rejected by provider")

func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}

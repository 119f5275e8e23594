package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/BearBump/CargoTrack/internal/integrations/mailer"
)

// Sender - заглушка почтового провайдера. Письма никуда не уходят,
// а складываются в память (для локального запуска и тестов).
type Sender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func New() *Sender { return &Sender{} }

// FailWith makes every following Send return err (nil to recover).
func (s *Sender) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Sender) Send(ctx context.Context, msg mailer.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, msg)
	return fmt.Sprintf("fake-%d", len(s.sent)), nil
}

func (s *Sender) Sent() []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mailer.Message(nil), s.sent...)
}

package kafka

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// ErrSkip tells Consume to commit a message the handler cannot ever process
// (e.g. malformed payload) instead of stopping on it.
var ErrSkip = errors.New("skip message")

type Message struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Partition int
	Offset    int64
}

type Handler func(ctx context.Context, msg Message) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r messageReader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	cfg := kafka.ReaderConfig{
		Brokers:           brokers,
		GroupID:           groupID,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
		MaxWait:           time.Second,
	}
	if groupID != "" {
		cfg.GroupTopics = []string{topic}
	} else {
		cfg.Topic = topic
	}
	return &Consumer{
		r: kafka.NewReader(cfg),
	}
}

func newConsumerWithReader(r messageReader) *Consumer {
	return &Consumer{r: r}
}

func (c *Consumer) Close() error {
	return c.r.Close()
}

// Consume blocks until ctx is done or the handler fails.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	for {
		km, err := c.r.FetchMessage(ctx)
		if err != nil {
			return errors.Wrap(err, "fetch message")
		}

		msg := Message{
			Key:       km.Key,
			Value:     km.Value,
			Partition: km.Partition,
			Offset:    km.Offset,
		}
		if len(km.Headers) > 0 {
			msg.Headers = make(map[string]string, len(km.Headers))
			for _, h := range km.Headers {
				msg.Headers[h.Key] = string(h.Value)
			}
		}

		if err := handler(ctx, msg); err != nil && !errors.Is(err, ErrSkip) {
			// Важно: commit делаем только при успехе, иначе потеряем сообщение.
			return err
		}
		if err := c.r.CommitMessages(ctx, km); err != nil {
			return errors.Wrap(err, "commit message")
		}
	}
}

package events

import (
	"context"

	"github.com/dmitrijs2005/shortlink-auth/internal/logging"
)

// LogPublisher writes events to the service log. Used when no Redis is
// configured, e.g. in local development.
type LogPublisher struct {
	log logging.Logger
}

var _ Publisher = (*LogPublisher)(nil)

func NewLogPublisher(log logging.Logger) *LogPublisher {
	return &LogPublisher{log: log.With("module", "events")}
}

func (p *LogPublisher) Publish(ctx context.Context, topic string, payload any) error {
	p.log.Info(ctx, "event published", "topic", topic, "payload", payload)
	return nil
}

// Package localbus delivers domain events inside a single process.
package localbus

import (
	"context"

	"ideaforge/application/ports"
	"ideaforge/domain/events"

	"go.uber.org/zap"
)

// Publisher implements the EventPublisher interface by writing events to
// the structured log. A single-node deployment has no external broker;
// the log is the activity trail operators follow a session through.
type Publisher struct {
	logger *zap.Logger
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a log-backed event publisher.
func NewPublisher(logger *zap.Logger) *Publisher {
	return &Publisher{logger: logger}
}

// Publish sends a single event.
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch sends multiple events. Session lifecycle boundaries are
// logged at Info; per-turn events stay at Debug so a normal interview
// does not flood the log.
func (p *Publisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	if len(domainEvents) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, event := range domainEvents {
		fields := []zap.Field{
			zap.String("eventType", event.GetEventType()),
			zap.String("aggregateID", event.GetAggregateID()),
			zap.Int("version", event.GetVersion()),
			zap.Time("occurredAt", event.GetTimestamp()),
		}
		switch event.GetEventType() {
		case events.TypeSessionStarted, events.TypeSessionCompleted:
			p.logger.Info("domain event", fields...)
		default:
			p.logger.Debug("domain event", fields...)
		}
	}

	return nil
}

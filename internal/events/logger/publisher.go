package logger

import (
	"context"

	interfaces "github.com/sheikh-saqib/token-ledger/internal/interfaces"
	"go.uber.org/zap"
)

// Publisher writes events to the log. It stands in for a broker when none is configured.
type Publisher struct {
	logger *zap.Logger
}

func NewPublisher(logger *zap.Logger) *Publisher {
	return &Publisher{logger: logger.Named("events")}
}

func (p *Publisher) Publish(ctx context.Context, topic string, key string, event any) error {
	p.logger.Info("event", zap.String("topic", topic), zap.String("key", key), zap.Any("payload", event))
	return nil
}

func (p *Publisher) Close() error {
	return nil
}

var _ interfaces.EventPublisher = (*Publisher)(nil)

package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	interfaces "github.com/sheikh-saqib/token-ledger/internal/interfaces"
)

// Publisher writes JSON events to Kafka. The topic of each message is the
// event topic with the configured prefix; the key keeps events of one
// account on one partition.
// BatchTimeout caps how long a write waits for more messages to batch with.
// Events are written one at a time while the host holds its lock.
const BatchTimeout = 5 * time.Millisecond

type Publisher struct {
	writer      *kafka.Writer
	topicPrefix string
}

// NewPublisher returns a publisher that writes each event as its own batch.
func NewPublisher(brokers []string, topicPrefix string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			BatchSize:              1,
			BatchTimeout:           BatchTimeout,
			AllowAutoTopicCreation: true,
		},
		topicPrefix: topicPrefix,
	}
}

func (p *Publisher) Publish(ctx context.Context, topic string, key string, event any) error {
	msg, err := p.message(topic, key, event)
	if err != nil {
		return err
	}
	return errors.Wrapf(p.writer.WriteMessages(ctx, msg), "write to %s", msg.Topic)
}

func (p *Publisher) message(topic string, key string, event any) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "marshal event")
	}
	return kafka.Message{
		Topic: p.topicPrefix + topic,
		Key:   []byte(key),
		Value: data,
	}, nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ interfaces.EventPublisher = (*Publisher)(nil)

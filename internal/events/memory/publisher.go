package memory

import (
	"context"
	"sync"

	interfaces "github.com/sheikh-saqib/token-ledger/internal/interfaces"
)

// Message is one event recorded by Publisher.
type Message struct {
	Topic string
	Key   string
	Event any
}

// Publisher keeps published events in memory. It is used when no broker is
// configured and in tests.
type Publisher struct {
	mu       sync.Mutex
	messages []Message
	err      error
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (p *Publisher) Publish(ctx context.Context, topic string, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, Message{Topic: topic, Key: key, Event: event})
	return nil
}

// FailWith makes every following Publish return err. A nil err restores normal behaviour.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Messages returns a copy of everything published so far.
func (p *Publisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	copied := make([]Message, len(p.messages))
	copy(copied, p.messages)
	return copied
}

func (p *Publisher) Close() error {
	return nil
}

var _ interfaces.EventPublisher = (*Publisher)(nil)

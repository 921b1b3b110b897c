package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sheikh-saqib/token-ledger/internal/models/events"
	"github.com/stretchr/testify/require"
)

func TestPublisher_BuildsPrefixedMessage(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "hivve.")
	defer p.Close()

	ev := events.TransferCompleted{EventID: "e1", Token: "Hivve", To: "bob", Value: "100", OccurredAt: time.Unix(0, 0).UTC()}
	msg, err := p.message(events.TopicTransferCompleted, "alice", ev)
	require.NoError(t, err)

	require.Equal(t, "hivve.transfer_completed", msg.Topic)
	require.Equal(t, []byte("alice"), msg.Key)

	var decoded events.TransferCompleted
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	require.Equal(t, ev, decoded)
}

func TestPublisher_RejectsUnmarshalableEvents(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "")
	defer p.Close()

	_, err := p.message("topic", "key", make(chan int))
	require.Error(t, err)
}

func TestPublisher_FlushesEachEventWithoutWaiting(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "")
	defer p.Close()

	require.Equal(t, 1, p.writer.BatchSize)
	require.Equal(t, BatchTimeout, p.writer.BatchTimeout)
	require.Less(t, p.writer.BatchTimeout, 100*time.Millisecond)
}

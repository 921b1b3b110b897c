package host

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sheikh-saqib/token-ledger/internal/config"
	eventmem "github.com/sheikh-saqib/token-ledger/internal/events/memory"
	interfaces "github.com/sheikh-saqib/token-ledger/internal/interfaces"
	"github.com/sheikh-saqib/token-ledger/internal/ledger"
	"github.com/sheikh-saqib/token-ledger/internal/metrics"
	"github.com/sheikh-saqib/token-ledger/internal/models"
	"github.com/sheikh-saqib/token-ledger/internal/models/events"
	"github.com/sheikh-saqib/token-ledger/internal/storage/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	alice = models.AccountID{0xa1}
	bob   = models.AccountID{0xb0}
)

func token(supply uint64) config.TokenConfig {
	return config.TokenConfig{Name: "Hivve", Symbol: "HIV", Decimals: 2, Supply: *uint256.NewInt(supply), Creator: alice}
}

type fixture struct {
	host      *Host
	store     *memory.MemoryLedgerStore
	publisher *eventmem.Publisher
	metrics   *metrics.Metrics
}

func newFixture(t *testing.T, supply uint64) fixture {
	t.Helper()
	f := fixture{
		store:     memory.NewMemoryLedgerStore(),
		publisher: eventmem.NewPublisher(),
		metrics:   metrics.New(),
	}
	h, err := Bootstrap(context.Background(), f.store, token(supply), f.publisher, f.metrics, zaptest.NewLogger(t))
	require.NoError(t, err)
	h.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	f.host = h
	return f
}

func TestBootstrap_ConstructsAndPublishesMint(t *testing.T) {
	f := newFixture(t, 1_000)

	meta := f.host.Metadata()
	require.Equal(t, "Hivve", meta.Name)
	require.Equal(t, "HIV", meta.Symbol)
	require.Equal(t, uint8(2), meta.Decimals)
	require.Equal(t, alice, meta.Owner)

	msgs := f.publisher.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, events.TopicTransferCompleted, msgs[0].Topic)
	require.Equal(t, alice.String(), msgs[0].Key)

	mint := msgs[0].Event.(events.TransferCompleted)
	require.Empty(t, mint.From)
	require.Equal(t, alice.String(), mint.To)
	require.Equal(t, "1000", mint.Value)
}

func TestBootstrap_OpensExistingLedger(t *testing.T) {
	f := newFixture(t, 1_000)

	publisher := eventmem.NewPublisher()
	other := token(5)
	other.Name = "Other"
	h, err := Bootstrap(context.Background(), f.store, other, publisher, metrics.New(), zaptest.NewLogger(t))
	require.NoError(t, err)

	require.Equal(t, "Hivve", h.Metadata().Name)
	require.Empty(t, publisher.Messages())
}

type racingStore struct {
	*memory.MemoryLedgerStore
	hidden int
}

func (s *racingStore) LoadMetadata(ctx context.Context) (models.Metadata, bool, error) {
	if s.hidden > 0 {
		s.hidden--
		return models.Metadata{}, false, nil
	}
	return s.MemoryLedgerStore.LoadMetadata(ctx)
}

func (s *racingStore) Commit(ctx context.Context, changes models.ChangeSet) error {
	if changes.Metadata != nil {
		if _, exists, _ := s.MemoryLedgerStore.LoadMetadata(ctx); exists {
			return fmt.Errorf("insert metadata: %w", interfaces.ErrMetadataExists)
		}
	}
	return s.MemoryLedgerStore.Commit(ctx, changes)
}

func TestBootstrap_OpensLedgerConstructedConcurrently(t *testing.T) {
	f := newFixture(t, 1_000)
	store := &racingStore{MemoryLedgerStore: f.store, hidden: 2}

	publisher := eventmem.NewPublisher()
	other := token(5)
	other.Name = "Other"
	h, err := Bootstrap(context.Background(), store, other, publisher, metrics.New(), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Equal(t, "Hivve", h.Metadata().Name)
	require.Empty(t, publisher.Messages())

	balance, err := h.BalanceOf(context.Background(), alice)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000), balance.Uint64())
}

func TestBootstrap_RequiresTokenSettingsForNewLedger(t *testing.T) {
	cfg := token(10)
	cfg.Creator = models.AccountID{}

	_, err := Bootstrap(context.Background(), memory.NewMemoryLedgerStore(), cfg, eventmem.NewPublisher(), metrics.New(), zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestHost_TransferPublishesEvent(t *testing.T) {
	f := newFixture(t, 1_000)

	ev, err := f.host.Transfer(context.Background(), alice, bob, *uint256.NewInt(250))
	require.NoError(t, err)
	require.Equal(t, alice.String(), ev.From)
	require.Equal(t, bob.String(), ev.To)
	require.Equal(t, "250", ev.Value)
	require.Equal(t, time.Unix(1_700_000_000, 0).UTC(), ev.OccurredAt)

	msgs := f.publisher.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, ev, msgs[1].Event)
	require.Equal(t, alice.String(), msgs[1].Key)

	balance, err := f.host.BalanceOf(context.Background(), bob)
	require.NoError(t, err)
	require.Equal(t, uint64(250), balance.Uint64())
}

func TestHost_FailedTransferPublishesNothing(t *testing.T) {
	f := newFixture(t, 1_000)

	_, err := f.host.Transfer(context.Background(), bob, alice, *uint256.NewInt(1))
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	require.Len(t, f.publisher.Messages(), 1) // mint only

	expected := `
# HELP token_ledger_operations_total Ledger operations by kind and result.
# TYPE token_ledger_operations_total counter
token_ledger_operations_total{operation="transfer",result="insufficient_balance"} 1
`
	require.NoError(t, testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected), "token_ledger_operations_total"))
}

func TestHost_ApproveAndTransferFrom(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1_000)
	charlie := models.AccountID{0xc3}

	approval, err := f.host.Approve(ctx, alice, bob, *uint256.NewInt(50))
	require.NoError(t, err)
	require.Equal(t, alice.String(), approval.Owner)
	require.Equal(t, bob.String(), approval.Spender)

	_, err = f.host.TransferFrom(ctx, bob, alice, charlie, *uint256.NewInt(60))
	require.ErrorIs(t, err, ledger.ErrInsufficientAllowance)

	ev, err := f.host.TransferFrom(ctx, bob, alice, charlie, *uint256.NewInt(20))
	require.NoError(t, err)
	require.Equal(t, alice.String(), ev.From)
	require.Equal(t, charlie.String(), ev.To)

	allowance, err := f.host.Allowance(ctx, alice, bob)
	require.NoError(t, err)
	require.Equal(t, uint64(30), allowance.Uint64())

	msgs := f.publisher.Messages()
	require.Len(t, msgs, 3)
	require.Equal(t, events.TopicApprovalGranted, msgs[1].Topic)
	require.Equal(t, events.TopicTransferCompleted, msgs[2].Topic)
}

func TestHost_PublishFailureKeepsCommittedState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1_000)
	f.publisher.FailWith(errors.New("broker down"))

	_, err := f.host.Transfer(ctx, alice, bob, *uint256.NewInt(1))
	require.NoError(t, err)

	balance, err := f.host.BalanceOf(ctx, bob)
	require.NoError(t, err)
	require.Equal(t, uint64(1), balance.Uint64())

	expected := `
# HELP token_ledger_publish_errors_total Events that could not be handed to the publisher.
# TYPE token_ledger_publish_errors_total counter
token_ledger_publish_errors_total{topic="transfer_completed"} 1
`
	require.NoError(t, testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected), "token_ledger_publish_errors_total"))
}

// ctxPublisher records the context each event is published with. before runs
// first, so a test can cancel the caller's context mid-call.
type ctxPublisher struct {
	*eventmem.Publisher
	before    func()
	errs      []error
	deadlines []bool
}

func (p *ctxPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	if p.before != nil {
		p.before()
	}
	_, hasDeadline := ctx.Deadline()
	p.errs = append(p.errs, ctx.Err())
	p.deadlines = append(p.deadlines, hasDeadline)
	return p.Publisher.Publish(ctx, topic, key, event)
}

func TestHost_PublishOutlivesCancelledCaller(t *testing.T) {
	publisher := &ctxPublisher{Publisher: eventmem.NewPublisher()}
	h, err := Bootstrap(context.Background(), memory.NewMemoryLedgerStore(), token(1_000), publisher, metrics.New(), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Equal(t, DefaultPublishTimeout, h.publishTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	publisher.before = cancel

	_, err = h.Transfer(ctx, alice, bob, *uint256.NewInt(7))
	require.NoError(t, err)
	require.Error(t, ctx.Err())

	require.Len(t, publisher.errs, 2) // mint, transfer
	require.NoError(t, publisher.errs[1])
	require.True(t, publisher.deadlines[1])

	msgs := publisher.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "7", msgs[1].Event.(events.TransferCompleted).Value)
}

func TestHost_ConcurrentTransfersConserveSupply(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1_000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			f.host.Transfer(ctx, alice, bob, *uint256.NewInt(3))
		}()
		go func() {
			defer wg.Done()
			f.host.Transfer(ctx, bob, alice, *uint256.NewInt(1))
		}()
	}
	wg.Wait()

	report, err := f.host.Audit(ctx)
	require.NoError(t, err)
	require.True(t, report.Balanced)
	require.Equal(t, uint64(1_000), report.Circulating.Uint64())
}

// Package host runs a ledger the way its hosting environment is expected to:
// one invocation at a time, with the caller identity passed in explicitly and
// notifications of successful operations published as events.
package host

import (
	"context"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/sheikh-saqib/token-ledger/internal/config"
	interfaces "github.com/sheikh-saqib/token-ledger/internal/interfaces"
	"github.com/sheikh-saqib/token-ledger/internal/ledger"
	"github.com/sheikh-saqib/token-ledger/internal/metrics"
	"github.com/sheikh-saqib/token-ledger/internal/models"
	"github.com/sheikh-saqib/token-ledger/internal/models/events"
	"go.uber.org/zap"
)

const (
	opTransfer     = "transfer"
	opApprove      = "approve"
	opTransferFrom = "transfer_from"
)

// DefaultPublishTimeout bounds how long a committed operation waits for its
// event to be accepted by the publisher.
const DefaultPublishTimeout = 5 * time.Second

// Host serializes every call into one ledger and publishes the notifications
// of the calls that succeed.
type Host struct {
	mu             sync.Mutex
	ledger         *ledger.Ledger
	publisher      interfaces.EventPublisher
	metrics        *metrics.Metrics
	logger         *zap.Logger
	now            func() time.Time
	publishTimeout time.Duration
}

// New wraps an opened or constructed ledger.
func New(l *ledger.Ledger, publisher interfaces.EventPublisher, m *metrics.Metrics, logger *zap.Logger) *Host {
	return &Host{
		ledger:         l,
		publisher:      publisher,
		metrics:        m,
		logger:         logger,
		now:            time.Now,
		publishTimeout: DefaultPublishTimeout,
	}
}

// Bootstrap opens the ledger held by store, or constructs one from token if
// the store is empty. Construction publishes the mint event. If another
// process constructs the ledger first, Bootstrap opens that one instead.
func Bootstrap(ctx context.Context, store interfaces.LedgerStore, token config.TokenConfig, publisher interfaces.EventPublisher, m *metrics.Metrics, logger *zap.Logger) (*Host, error) {
	l, err := ledger.Open(ctx, store)
	if err == nil {
		return opened(l, publisher, m, logger), nil
	}
	if !errors.Is(err, ledger.ErrNotInitialized) {
		return nil, err
	}

	if err := token.ValidateToken(); err != nil {
		return nil, err
	}
	l, mint, err := ledger.New(ctx, store, token.Creator, token.Name, token.Supply,
		ledger.WithSymbol(token.Symbol), ledger.WithDecimals(token.Decimals))
	if errors.Is(err, ledger.ErrAlreadyInitialized) {
		logger.Info("ledger constructed concurrently, opening it")
		if l, err = ledger.Open(ctx, store); err != nil {
			return nil, err
		}
		return opened(l, publisher, m, logger), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "construct ledger")
	}

	h := New(l, publisher, m, logger)
	logger.Info("ledger constructed",
		zap.String("name", token.Name),
		zap.String("total_supply", token.Supply.Dec()),
		zap.Stringer("owner", token.Creator))
	h.publishTransfer(ctx, mint)
	return h, nil
}

func opened(l *ledger.Ledger, publisher interfaces.EventPublisher, m *metrics.Metrics, logger *zap.Logger) *Host {
	meta := l.Metadata()
	logger.Info("ledger opened",
		zap.String("name", meta.Name),
		zap.String("total_supply", meta.TotalSupply.Dec()),
		zap.Stringer("owner", meta.Owner))
	return New(l, publisher, m, logger)
}

// Metadata returns the token metadata. It never changes after construction.
func (h *Host) Metadata() models.Metadata {
	return h.ledger.Metadata()
}

func (h *Host) BalanceOf(ctx context.Context, account models.AccountID) (uint256.Int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ledger.BalanceOf(ctx, account)
}

func (h *Host) Allowance(ctx context.Context, owner, spender models.AccountID) (uint256.Int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ledger.Allowance(ctx, owner, spender)
}

func (h *Host) Audit(ctx context.Context) (ledger.AuditReport, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	report, err := h.ledger.Audit(ctx)
	if err == nil && !report.Balanced {
		h.logger.Error("conservation invariant violated",
			zap.String("total_supply", report.TotalSupply.Dec()),
			zap.String("circulating", report.Circulating.Dec()))
	}
	return report, err
}

func (h *Host) Transfer(ctx context.Context, caller, to models.AccountID, value uint256.Int) (events.TransferCompleted, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, err := h.ledger.Transfer(ctx, caller, to, value)
	h.observe(opTransfer, err)
	if err != nil {
		return events.TransferCompleted{}, err
	}
	return h.publishTransfer(ctx, t), nil
}

func (h *Host) Approve(ctx context.Context, caller, spender models.AccountID, value uint256.Int) (events.ApprovalGranted, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	a, err := h.ledger.Approve(ctx, caller, spender, value)
	h.observe(opApprove, err)
	if err != nil {
		return events.ApprovalGranted{}, err
	}

	ev := events.NewApprovalGranted(h.ledger.Name(), a, h.now())
	h.publish(ctx, events.TopicApprovalGranted, ev.Owner, ev)
	return ev, nil
}

func (h *Host) TransferFrom(ctx context.Context, caller, from, to models.AccountID, value uint256.Int) (events.TransferCompleted, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, err := h.ledger.TransferFrom(ctx, caller, from, to, value)
	h.observe(opTransferFrom, err)
	if err != nil {
		return events.TransferCompleted{}, err
	}
	return h.publishTransfer(ctx, t), nil
}

func (h *Host) publishTransfer(ctx context.Context, t models.Transfer) events.TransferCompleted {
	ev := events.NewTransferCompleted(h.ledger.Name(), t, h.now())
	key := ev.From
	if key == "" {
		key = ev.To
	}
	h.publish(ctx, events.TopicTransferCompleted, key, ev)
	return ev
}

// publish hands the event to the publisher. The operation is already
// committed, so a failure is logged and counted but not returned. The caller
// going away does not cancel the publish; publishTimeout bounds it instead.
func (h *Host) publish(ctx context.Context, topic, key string, event any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.publishTimeout)
	defer cancel()

	if err := h.publisher.Publish(ctx, topic, key, event); err != nil {
		h.metrics.ObservePublishError(topic)
		h.logger.Error("publish event", zap.String("topic", topic), zap.Error(err))
	}
}

func (h *Host) observe(op string, err error) {
	result := resultOf(err)
	h.metrics.ObserveOperation(op, result)

	switch result {
	case metrics.ResultOK:
	case metrics.ResultError:
		h.logger.Error("ledger operation failed", zap.String("operation", op), zap.Error(err))
	default:
		h.logger.Debug("ledger operation rejected", zap.String("operation", op), zap.Error(err))
	}
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return metrics.ResultInsufficientBalance
	case errors.Is(err, ledger.ErrInsufficientAllowance):
		return metrics.ResultInsufficientAllowance
	default:
		return metrics.ResultError
	}
}

package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/sheikh-saqib/token-ledger/internal/models"
)

const (
	TopicTransferCompleted = "transfer_completed"
	TopicApprovalGranted   = "approval_granted"
)

// TransferCompleted is published after a transfer has been committed.
// From is empty for the initial credit made at construction.
type TransferCompleted struct {
	EventID    string    `json:"event_id"`
	Token      string    `json:"token"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to,omitempty"`
	Value      string    `json:"value"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ApprovalGranted is published after an allowance has been set.
type ApprovalGranted struct {
	EventID    string    `json:"event_id"`
	Token      string    `json:"token"`
	Owner      string    `json:"owner"`
	Spender    string    `json:"spender"`
	Value      string    `json:"value"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewTransferCompleted(token string, t models.Transfer, at time.Time) TransferCompleted {
	ev := TransferCompleted{
		EventID:    uuid.New().String(),
		Token:      token,
		Value:      t.Value.Dec(),
		OccurredAt: at.UTC(),
	}
	if t.From != nil {
		ev.From = t.From.String()
	}
	if t.To != nil {
		ev.To = t.To.String()
	}
	return ev
}

func NewApprovalGranted(token string, a models.Approval, at time.Time) ApprovalGranted {
	return ApprovalGranted{
		EventID:    uuid.New().String(),
		Token:      token,
		Owner:      a.Owner.String(),
		Spender:    a.Spender.String(),
		Value:      a.Value.Dec(),
		OccurredAt: at.UTC(),
	}
}

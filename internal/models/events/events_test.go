package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/sheikh-saqib/token-ledger/internal/models"
	"github.com/stretchr/testify/require"
)

func TestNewTransferCompleted_MintHasNoSender(t *testing.T) {
	to := models.AccountID{2}
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))

	ev := NewTransferCompleted("Hivve", models.Transfer{To: &to, Value: *uint256.NewInt(10)}, at)

	require.Empty(t, ev.From)
	require.Equal(t, to.String(), ev.To)
	require.Equal(t, "10", ev.Value)
	require.Equal(t, "Hivve", ev.Token)
	require.Equal(t, time.UTC, ev.OccurredAt.Location())
	require.True(t, ev.OccurredAt.Equal(at))
	_, err := uuid.Parse(ev.EventID)
	require.NoError(t, err)
}

func TestNewApprovalGranted_UsesDistinctIDs(t *testing.T) {
	a := models.Approval{Owner: models.AccountID{1}, Spender: models.AccountID{2}, Value: *uint256.NewInt(7)}

	first := NewApprovalGranted("Hivve", a, time.Now())
	second := NewApprovalGranted("Hivve", a, time.Now())

	require.NotEqual(t, first.EventID, second.EventID)
	require.Equal(t, a.Owner.String(), first.Owner)
	require.Equal(t, a.Spender.String(), first.Spender)
	require.Equal(t, "7", first.Value)
}

package kvcodec

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/sheikh-saqib/token-ledger/internal/models"
	"github.com/stretchr/testify/require"
)

func TestBalanceKey_RoundTripsAccount(t *testing.T) {
	account := models.AccountID{1, 2, 3}

	key := BalanceKey(account)
	require.Len(t, key, 1+models.AccountIDLen)
	require.Equal(t, BalancePrefix(), key[:1])

	got, err := AccountFromBalanceKey(key)
	require.NoError(t, err)
	require.Equal(t, account, got)
}

func TestAccountFromBalanceKey_RejectsOtherPrefixes(t *testing.T) {
	key := AllowanceKey(models.AllowanceKey{Owner: models.AccountID{1}, Spender: models.AccountID{2}})
	_, err := AccountFromBalanceKey(key)
	require.Error(t, err)
}

func TestAllowanceKey_DependsOnOrder(t *testing.T) {
	a, b := models.AccountID{1}, models.AccountID{2}
	require.NotEqual(t,
		AllowanceKey(models.AllowanceKey{Owner: a, Spender: b}),
		AllowanceKey(models.AllowanceKey{Owner: b, Spender: a}),
	)
}

func TestDecodeAmount_MissingIsZero(t *testing.T) {
	v, err := DecodeAmount(nil)
	require.NoError(t, err)
	require.True(t, v.IsZero())
}

func TestDecodeAmount_RejectsShortValues(t *testing.T) {
	_, err := DecodeAmount([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestAmount_EncodesLargeValues(t *testing.T) {
	v := uint256.MustFromDecimal("340282366920938463463374607431768211455") // 2^128-1

	got, err := DecodeAmount(EncodeAmount(*v))
	require.NoError(t, err)
	require.Equal(t, v.Dec(), got.Dec())
}

func TestMetadata_KeepsAllFields(t *testing.T) {
	meta := models.Metadata{
		Name:        "Hivve",
		Symbol:      "HIV",
		Decimals:    6,
		TotalSupply: *uint256.NewInt(10_000_000),
		Owner:       models.AccountID{9},
	}

	data, err := EncodeMetadata(meta)
	require.NoError(t, err)

	got, err := DecodeMetadata(data)
	require.NoError(t, err)
	require.Equal(t, meta, got)
}

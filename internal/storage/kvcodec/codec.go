// Package kvcodec defines the key layout and value encoding shared by the
// embedded key-value stores.
//
//	'm'                      -> metadata (JSON)
//	'b' | account            -> balance (32 bytes, big endian)
//	'a' | owner | spender    -> allowance (32 bytes, big endian)
package kvcodec

import (
	"encoding/json"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/sheikh-saqib/token-ledger/internal/models"
)

const (
	metadataKey     = 'm'
	balancePrefix   = 'b'
	allowancePrefix = 'a'
)

// MetadataKey is the key of the single metadata record.
func MetadataKey() []byte {
	return []byte{metadataKey}
}

// BalancePrefix is the common prefix of all balance keys.
func BalancePrefix() []byte {
	return []byte{balancePrefix}
}

func BalanceKey(account models.AccountID) []byte {
	return append([]byte{balancePrefix}, account[:]...)
}

func AllowanceKey(key models.AllowanceKey) []byte {
	k := make([]byte, 0, 1+2*models.AccountIDLen)
	k = append(k, allowancePrefix)
	k = append(k, key.Owner[:]...)
	return append(k, key.Spender[:]...)
}

// AccountFromBalanceKey strips the balance prefix.
func AccountFromBalanceKey(key []byte) (models.AccountID, error) {
	if len(key) == 0 || key[0] != balancePrefix {
		return models.AccountID{}, errors.Errorf("not a balance key: %x", key)
	}
	return models.AccountIDFromBytes(key[1:])
}

func EncodeAmount(v uint256.Int) []byte {
	b := v.Bytes32()
	return b[:]
}

// DecodeAmount decodes a stored amount. A nil slice (missing key) decodes to zero.
func DecodeAmount(b []byte) (uint256.Int, error) {
	var v uint256.Int
	if b == nil {
		return v, nil
	}
	if len(b) != 32 {
		return v, errors.Errorf("stored amount has %d bytes, want 32", len(b))
	}
	v.SetBytes32(b)
	return v, nil
}

type metadataRecord struct {
	Name        string           `json:"name"`
	Symbol      string           `json:"symbol,omitempty"`
	Decimals    uint8            `json:"decimals"`
	TotalSupply string           `json:"total_supply"`
	Owner       models.AccountID `json:"owner"`
}

func EncodeMetadata(m models.Metadata) ([]byte, error) {
	data, err := json.Marshal(metadataRecord{
		Name:        m.Name,
		Symbol:      m.Symbol,
		Decimals:    m.Decimals,
		TotalSupply: m.TotalSupply.Dec(),
		Owner:       m.Owner,
	})
	return data, errors.Wrap(err, "encode metadata")
}

func DecodeMetadata(data []byte) (models.Metadata, error) {
	var rec metadataRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.Metadata{}, errors.Wrap(err, "decode metadata")
	}
	supply, err := uint256.FromDecimal(rec.TotalSupply)
	if err != nil {
		return models.Metadata{}, errors.Wrapf(err, "decode total supply %q", rec.TotalSupply)
	}
	return models.Metadata{
		Name:        rec.Name,
		Symbol:      rec.Symbol,
		Decimals:    rec.Decimals,
		TotalSupply: *supply,
		Owner:       rec.Owner,
	}, nil
}

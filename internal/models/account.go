package models

import (
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// AccountIDLen is the size of an account identifier in bytes.
const AccountIDLen = 32

// AccountID identifies a token holder. It is supplied by the host and only
// ever used as a lookup key.
type AccountID [AccountIDLen]byte

// ErrInvalidAccountID is returned when a textual account id cannot be decoded.
var ErrInvalidAccountID = errors.New("invalid account id")

// ParseAccountID decodes the base58 form produced by AccountID.String.
func ParseAccountID(s string) (AccountID, error) {
	var id AccountID

	raw, err := base58.Decode(s)
	if err != nil {
		return id, errors.Wrapf(ErrInvalidAccountID, "%q: %v", s, err)
	}
	if len(raw) != AccountIDLen {
		return id, errors.Wrapf(ErrInvalidAccountID, "%q: got %d bytes, want %d", s, len(raw), AccountIDLen)
	}

	copy(id[:], raw)
	return id, nil
}

// AccountIDFromBytes copies b into an AccountID. b must be exactly AccountIDLen long.
func AccountIDFromBytes(b []byte) (AccountID, error) {
	var id AccountID
	if len(b) != AccountIDLen {
		return id, errors.Wrapf(ErrInvalidAccountID, "got %d bytes, want %d", len(b), AccountIDLen)
	}
	copy(id[:], b)
	return id, nil
}

func (a AccountID) String() string {
	return base58.Encode(a[:])
}

func (a AccountID) Bytes() []byte {
	return a[:]
}

func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AccountID) UnmarshalText(text []byte) error {
	id, err := ParseAccountID(string(text))
	if err != nil {
		return err
	}
	*a = id
	return nil
}

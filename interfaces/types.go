package interfaces

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

// Identity represents a 20-byte account address.
type Identity [20]byte

// NewIdentityFromBytes creates an identity from a raw 20-byte slice.
func NewIdentityFromBytes(addr []byte) (Identity, error) {
	if len(addr) != 20 {
		return Identity{}, errors.New("invalid address length: must be 20 bytes")
	}

	var res Identity
	copy(res[:], addr)
	return res, nil
}

// NewIdentityFromHex creates an identity from a hex string, with or without
// the 0x prefix.
func NewIdentityFromHex(addr string) (Identity, error) {
	if !common.IsHexAddress(addr) {
		return Identity{}, fmt.Errorf("invalid identity address: %q", addr)
	}
	return Identity(common.HexToAddress(addr)), nil
}

// String returns the hex string representation of the identity.
func (id Identity) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the raw 20-byte address.
func (id Identity) Bytes() []byte {
	return id[:]
}

// Equal compares two identities for equality.
func (id Identity) Equal(other Identity) bool {
	return id == other
}

// IsZero reports whether the identity is the all-zero address.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// MarshalText implements encoding.TextMarshaler so identities can key JSON maps.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := NewIdentityFromHex(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// FlightKey is the collision-resistant digest identifying a unique flight.
type FlightKey [32]byte

// String returns the hex string representation of the flight key.
func (k FlightKey) String() string {
	return hex.EncodeToString(k[:])
}

// MarshalText implements encoding.TextMarshaler so flight keys can key JSON maps.
func (k FlightKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *FlightKey) UnmarshalText(text []byte) error {
	clean := strings.TrimPrefix(string(text), "0x")
	decoded, err := hex.DecodeString(clean)
	if err != nil {
		return fmt.Errorf("invalid flight key hex: %w", err)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("invalid flight key length: %d", len(decoded))
	}
	copy(k[:], decoded)
	return nil
}

// Flight identifies an insurable flight by the (airline, number, departure)
// triple. Departure is a Unix timestamp; an exact integer match is required
// for two flights to be the same entity.
type Flight struct {
	Airline   Identity `json:"airline"`
	Number    string   `json:"number"`
	Departure int64    `json:"departure"`
}

// Key derives the FlightKey for the flight: Keccak-256 over the packed triple
// (20-byte airline address, raw flight number bytes, 32-byte big-endian
// departure word).
func (f Flight) Key() FlightKey {
	ts := math.U256Bytes(big.NewInt(f.Departure))
	return FlightKey(crypto.Keccak256Hash(f.Airline.Bytes(), []byte(f.Number), ts))
}

package refhash

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/blake2b"
)

// Ref is the 32-byte patient reference derived from a wallet address.
type Ref [32]byte

var ErrInvalidAddress = errors.New("invalid wallet address")

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{64}$`)

// IsValidAddress reports whether s is a well-formed ledger wallet address.
func IsValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// Hash derives the patient reference for a wallet address.
// The vault contract stores blake2b-256 of the UTF-8 address text as the
// ownership key, so the same primitive must be used here; any other digest
// would never match the on-chain reference bytes.
func Hash(address string) (Ref, error) {
	if !IsValidAddress(address) {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return Ref(blake2b.Sum256([]byte(address))), nil
}

// String converts a Ref to a hex string.
func (r Ref) String() string {
	return hex.EncodeToString(r[:])
}

// Bytes returns the reference as a byte slice.
func (r Ref) Bytes() []byte {
	return r[:]
}

// Equal compares the reference against raw on-chain bytes, byte for byte.
// A nil or wrong-length slice never matches.
func (r Ref) Equal(other []byte) bool {
	if len(other) != len(r) {
		return false
	}
	for i := range r {
		if r[i] != other[i] {
			return false
		}
	}
	return true
}

// ShortAddress formats an address as 0xabcd...1234 for logs.
func ShortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

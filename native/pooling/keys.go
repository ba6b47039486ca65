package pooling

import (
	"encoding/hex"
	"fmt"
)

// PublicKeyLen is the width of every identity field in the ledger.
const PublicKeyLen = 32

// PublicKey is the opaque fixed-width identity used for all cross-record
// references. Relations between records are weak: a PublicKey is only a key
// into the external ledger, never an owned pointer.
type PublicKey [PublicKeyLen]byte

// PublicKeyFromBytes copies b into a PublicKey. b must be exactly
// PublicKeyLen bytes.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var k PublicKey
	if len(b) != PublicKeyLen {
		return k, fmt.Errorf("pooling: public key must be %d bytes, got %d", PublicKeyLen, len(b))
	}
	copy(k[:], b)
	return k, nil
}

// PublicKeyFromHex parses a hex-encoded 32-byte identity.
func PublicKeyFromHex(s string) (PublicKey, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("pooling: invalid public key hex: %w", err)
	}
	return PublicKeyFromBytes(raw)
}

// Bytes returns a copy of the key material.
func (k PublicKey) Bytes() []byte {
	out := make([]byte, PublicKeyLen)
	copy(out, k[:])
	return out
}

// IsZero reports whether the key is the all-zero identity.
func (k PublicKey) IsZero() bool {
	return k == PublicKey{}
}

func (k PublicKey) String() string {
	return hex.EncodeToString(k[:])
}

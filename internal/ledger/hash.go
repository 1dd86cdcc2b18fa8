// Package ledger fabricates the display-only hashes, identifiers and
// signatures used by the simulated Cardano, Hydra and Masumi paths.
// Nothing here is a real ledger entry.
package ledger

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// Keccak returns the Keccak-256 of the concatenated inputs
func Keccak(parts ...[]byte) []byte {
	return crypto.Keccak256(parts...)
}

func entropy() []byte {
	id := uuid.New()
	salt := make([]byte, 16)
	_, _ = rand.Read(salt)
	return append(id[:], salt...)
}

// TxHash returns a fresh "0x" + 64 hex transaction hash
func TxHash() string {
	return hexutil.Encode(Keccak(entropy()))
}

// BlockHash returns a fresh 64 hex block hash without prefix
func BlockHash() string {
	return hex.EncodeToString(Keccak([]byte("block"), entropy()))
}

// HexID returns n fresh lowercase hex characters (n <= 64)
func HexID(n int) string {
	h := hex.EncodeToString(Keccak(entropy()))
	if n > len(h) {
		n = len(h)
	}
	return h[:n]
}

// DeterministicHex derives n hex characters from seed
func DeterministicHex(seed string, n int) string {
	h := hex.EncodeToString(Keccak([]byte(seed)))
	if n > len(h) {
		n = len(h)
	}
	return h[:n]
}

// Truncate shortens a hash for display: first 10 and last 6 characters
func Truncate(h string) string {
	if len(h) <= 16 {
		return h
	}
	return h[:10] + "..." + h[len(h)-6:]
}

// Prefix returns the first n characters of h followed by "..."
func Prefix(h string, n int) string {
	if len(h) <= n {
		return h
	}
	return h[:n] + "..."
}

// Slug lowercases a name for use inside identifiers
func Slug(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}

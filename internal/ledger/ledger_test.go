package ledger

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var txHashRe = regexp.MustCompile(`^0x[0-9a-f]{64}$`)

func TestTxHashShape(t *testing.T) {
	a, b := TxHash(), TxHash()
	assert.Regexp(t, txHashRe, a)
	assert.NotEqual(t, a, b)
	assert.Len(t, BlockHash(), 64)
	assert.Len(t, HexID(8), 8)
}

func TestTruncate(t *testing.T) {
	h := "0x" + "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	assert.Equal(t, "0x01234567...abcdef", Truncate(h))
	assert.Equal(t, "0xabc", Truncate("0xabc"))
	assert.Equal(t, "0x01234567890123...", Prefix("0x012345678901234567", 16))
}

func TestDeterministicHex(t *testing.T) {
	assert.Equal(t, DeterministicHex("InsightBot", 8), DeterministicHex("InsightBot", 8))
	assert.NotEqual(t, DeterministicHex("InsightBot", 8), DeterministicHex("TradeMind", 8))
	assert.Equal(t, "deep_web_researcher", Slug(" Deep Web Researcher "))
}

func TestSignAndVerify(t *testing.T) {
	s, err := NewSigner()
	require.NoError(t, err)

	payload := []byte(`{"agent":"InsightBot","action":"Processed user request"}`)
	w := s.Sign(payload)
	assert.Len(t, w.PublicKey, 66)
	require.NoError(t, Verify(payload, w))

	assert.ErrorIs(t, Verify([]byte("tampered"), w), ErrBadWitness)

	w.Signature = "zz"
	assert.Error(t, Verify(payload, w))
}

func TestSignerKeyFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "witness.jwk")

	first, err := LoadOrCreateSigner(path)
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := LoadOrCreateSigner(path)
	require.NoError(t, err)
	assert.Equal(t, first.PublicKey(), second.PublicKey())

	payload := []byte("decision")
	require.NoError(t, Verify(payload, second.Sign(payload)))
}

func TestSignerKeyFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "witness.jwk")
	require.NoError(t, os.WriteFile(path, []byte(`{"d":"zz"}`), 0o600))
	_, err := LoadOrCreateSigner(path)
	assert.Error(t, err)
}

package ledger

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// jwk is the on-disk witness key. Coordinates are base64url without padding.
type jwk struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
	D   string `json:"d"`
}

// LoadOrCreateSigner loads a secp256k1 JWK from path, generating and saving
// one when the file does not exist. An empty path yields an ephemeral key.
func LoadOrCreateSigner(path string) (*Signer, error) {
	if path == "" {
		return NewSigner()
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return createKeyFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read witness key: %w", err)
	}

	var k jwk
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("parse witness key %s: %w", path, err)
	}
	d, err := base64.RawURLEncoding.DecodeString(k.D)
	if err != nil {
		// older files store the scalar as hex
		d, err = hex.DecodeString(strings.TrimPrefix(k.D, "0x"))
		if err != nil {
			return nil, fmt.Errorf("decode witness key (tried base64url and hex): %w", err)
		}
	}
	if len(d) != 32 {
		return nil, fmt.Errorf("witness key %s: scalar is %d bytes, want 32", path, len(d))
	}
	return &Signer{key: secp256k1.PrivKeyFromBytes(d)}, nil
}

func createKeyFile(path string) (*Signer, error) {
	s, err := NewSigner()
	if err != nil {
		return nil, err
	}
	pub := s.key.PubKey().SerializeUncompressed()
	k := jwk{
		Kty: "EC",
		Crv: "secp256k1",
		X:   base64.RawURLEncoding.EncodeToString(pub[1:33]),
		Y:   base64.RawURLEncoding.EncodeToString(pub[33:65]),
		D:   base64.RawURLEncoding.EncodeToString(s.key.Serialize()),
	}
	data, err := json.MarshalIndent(k, "", "  ")
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create key dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("save witness key: %w", err)
	}
	return s, nil
}

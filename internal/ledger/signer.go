package ledger

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// Witness is a signature over a decision-log payload
type Witness struct {
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
	Digest    string `json:"digest"`
}

// Signer produces witnesses with a process-local secp256k1 key.
type Signer struct {
	key *secp256k1.PrivateKey
}

// NewSigner generates a fresh key
func NewSigner() (*Signer, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate witness key: %w", err)
	}
	return &Signer{key: key}, nil
}

// PublicKey returns the compressed public key as hex
func (s *Signer) PublicKey() string {
	return hex.EncodeToString(s.key.PubKey().SerializeCompressed())
}

// Sign signs the Keccak-256 digest of payload
func (s *Signer) Sign(payload []byte) Witness {
	digest := Keccak(payload)
	sig := ecdsa.Sign(s.key, digest)
	return Witness{
		PublicKey: s.PublicKey(),
		Signature: hex.EncodeToString(sig.Serialize()),
		Digest:    hex.EncodeToString(digest),
	}
}

// ErrBadWitness is returned when a witness does not verify
var ErrBadWitness = errors.New("ledger: witness does not verify")

// Verify checks w against payload
func Verify(payload []byte, w Witness) error {
	pubBytes, err := hex.DecodeString(w.PublicKey)
	if err != nil {
		return fmt.Errorf("decode public key: %w", err)
	}
	pub, err := secp256k1.ParsePubKey(pubBytes)
	if err != nil {
		return fmt.Errorf("parse public key: %w", err)
	}
	sigBytes, err := hex.DecodeString(w.Signature)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	sig, err := ecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return fmt.Errorf("parse signature: %w", err)
	}
	if !sig.Verify(Keccak(payload), pub) {
		return ErrBadWitness
	}
	return nil
}

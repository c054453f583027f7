// Package signer builds the authenticated header set attached to
// outgoing reports. The signer is stateless: one key loaded at startup,
// reused for every request, never mutated.
package signer

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Header names understood by the reporting sink.
const (
	HeaderNonce     = "X-Nonce"
	HeaderSignature = "X-Signature"
	HeaderIdentity  = "X-Identity"
)

// Signer signs outgoing requests with an ed25519 key.
type Signer struct {
	priv     ed25519.PrivateKey
	identity string
}

// New creates a signer from an ed25519 private key.
func New(priv ed25519.PrivateKey) (*Signer, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid ed25519 private key length: %d", len(priv))
	}

	pub := priv.Public().(ed25519.PublicKey)
	digest := blake2b.Sum256(pub)
	return &Signer{
		priv:     priv,
		identity: hex.EncodeToString(digest[:20]),
	}, nil
}

// LoadSeed reads a hex-encoded 32-byte ed25519 seed from a file.
func LoadSeed(path string) (*Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return FromSeedHex(string(bytes.TrimSpace(data)))
}

// FromSeedHex builds a signer from a hex-encoded 32-byte seed.
func FromSeedHex(seedHex string) (*Signer, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("invalid key seed encoding: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid key seed length: %d", len(seed))
	}
	return New(ed25519.NewKeyFromSeed(seed))
}

// Identity returns the node's stable identity: the truncated blake2b
// digest of the public key, hex encoded.
func (s *Signer) Identity() string {
	return s.identity
}

// Headers produces a fresh signed header set. The nonce is the current
// timestamp in nanoseconds, signed as-is; the sink checks freshness and
// signature against the claimed identity.
func (s *Signer) Headers() map[string]string {
	nonce := strconv.FormatInt(time.Now().UnixNano(), 10)
	signature := ed25519.Sign(s.priv, []byte(nonce))
	return map[string]string{
		HeaderNonce:     nonce,
		HeaderSignature: "0x" + hex.EncodeToString(signature),
		HeaderIdentity:  s.identity,
	}
}

// Verify checks a nonce/signature pair against a public key. Used by
// tests and by any service reusing this package on the receiving side.
func Verify(pub ed25519.PublicKey, nonce string, signatureHex string) bool {
	signature, err := hex.DecodeString(strings.TrimPrefix(signatureHex, "0x"))
	if err != nil {
		return false
	}
	return ed25519.Verify(pub, []byte(nonce), signature)
}

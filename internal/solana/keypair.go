package solana

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// PublicKeySize is the length of a Solana public key.
const PublicKeySize = 32

// ErrInvalidKey is returned for malformed keys.
var ErrInvalidKey = errors.New("invalid key")

// PublicKey is a Solana account address.
type PublicKey [PublicKeySize]byte

// PublicKeyFromBase58 decodes a base58 address.
func PublicKeyFromBase58(s string) (PublicKey, error) {
	var pk PublicKey
	raw, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(raw) != PublicKeySize {
		return pk, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKey, PublicKeySize, len(raw))
	}
	copy(pk[:], raw)
	return pk, nil
}

// MustPublicKey decodes a well-known address and panics on failure.
func MustPublicKey(s string) PublicKey {
	pk, err := PublicKeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return pk
}

func (p PublicKey) String() string {
	return base58.Encode(p[:])
}

// Keypair holds an ed25519 signing key.
type Keypair struct {
	priv ed25519.PrivateKey
}

// KeypairFromBase58 decodes a base58 64-byte secret key (seed || public key),
// the format exported by Solana wallets.
func KeypairFromBase58(secret string) (*Keypair, error) {
	raw, err := base58.Decode(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: expected %d byte secret, got %d", ErrInvalidKey, ed25519.PrivateKeySize, len(raw))
	}

	priv := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if !bytes.Equal(priv[ed25519.SeedSize:], raw[ed25519.SeedSize:]) {
		return nil, fmt.Errorf("%w: public half does not match seed", ErrInvalidKey)
	}
	return &Keypair{priv: priv}, nil
}

// NewKeypairFromSeed builds a keypair from a 32-byte seed.
func NewKeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: expected %d byte seed, got %d", ErrInvalidKey, ed25519.SeedSize, len(seed))
	}
	return &Keypair{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

// PublicKey returns the keypair's address.
func (k *Keypair) PublicKey() PublicKey {
	var pk PublicKey
	copy(pk[:], k.priv[ed25519.SeedSize:])
	return pk
}

// Sign signs msg.
func (k *Keypair) Sign(msg []byte) []byte {
	return ed25519.Sign(k.priv, msg)
}

// SecretBase58 returns the 64-byte secret in wallet export format.
func (k *Keypair) SecretBase58() string {
	return base58.Encode(k.priv)
}

// Bytes returns the key as a slice.
func (p PublicKey) Bytes() []byte {
	return p[:]
}

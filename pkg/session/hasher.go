package session

import (
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/blake2b"
)

// Hasher derives the store key from a raw bearer token.
type Hasher interface {
	Hash(token string) (string, error)
}

// HasherFunc adapts a function to Hasher.
type HasherFunc func(token string) (string, error)

func (f HasherFunc) Hash(token string) (string, error) {
	return f(token)
}

// Blake2bHasher computes a keyed BLAKE2b-256 digest of the token, hex encoded.
// An empty pepper gives the plain unkeyed digest.
type Blake2bHasher struct {
	pepper []byte
}

// NewBlake2bHasher returns a hasher keyed with pepper (at most 64 bytes).
func NewBlake2bHasher(pepper []byte) (*Blake2bHasher, error) {
	if len(pepper) > blake2b.Size {
		return nil, ErrInvalidPepper
	}
	return &Blake2bHasher{pepper: pepper}, nil
}

func (h *Blake2bHasher) Hash(token string) (string, error) {
	d, err := blake2b.New256(h.pepper)
	if err != nil {
		return "", errors.Join(ErrInvalidPepper, err)
	}
	d.Write([]byte(token))
	return hex.EncodeToString(d.Sum(nil)), nil
}

package cookie

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20poly1305"
)

const minSecretLength = 32

// Domain separation between the MAC and the encryption key derived from the
// same secret.
const (
	signContext    = "sessionkit/cookie/sign"
	encryptContext = "sessionkit/cookie/encrypt"
)

// keyPair is the derived key material of one secret.
type keyPair struct {
	sign    []byte
	encrypt []byte
}

// Manager writes and reads cookies with the configured defaults.
type Manager struct {
	keys     []keyPair
	defaults Options
}

// New creates a Manager. Empty secrets are ignored; the rest must be at
// least 32 characters long.
func New(secrets []string, opts ...Option) (*Manager, error) {
	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}

	keys := make([]keyPair, 0, len(secrets))
	for i, s := range secrets {
		if len(s) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d", ErrSecretTooShort, i, len(s), minSecretLength)
		}
		keys = append(keys, deriveKeys(s))
	}

	defaults := applyOptions(Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, opts)

	return &Manager{keys: keys, defaults: defaults}, nil
}

func deriveKeys(secret string) keyPair {
	derive := func(context string) []byte {
		sum := blake2b.Sum256([]byte(context + "\x00" + secret))
		return sum[:]
	}
	return keyPair{sign: derive(signContext), encrypt: derive(encryptContext)}
}

// Set writes a plain cookie.
func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) error {
	o := applyOptions(m.defaults, opts)
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     o.Path,
		Domain:   o.Domain,
		MaxAge:   o.MaxAge,
		Secure:   o.Secure,
		HttpOnly: o.HttpOnly,
		SameSite: o.SameSite,
	})
	return nil
}

// Get reads a plain cookie. Returns ErrCookieNotFound when absent.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if errors.Is(err, http.ErrNoCookie) {
		return "", ErrCookieNotFound
	}
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

// Delete expires the cookie on the client.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Path:     m.defaults.Path,
		Domain:   m.defaults.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   m.defaults.Secure,
		HttpOnly: m.defaults.HttpOnly,
		SameSite: m.defaults.SameSite,
	})
}

// SetSigned writes value with a MAC so tampering is detected.
func (m *Manager) SetSigned(w http.ResponseWriter, name, value string, opts ...Option) error {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(value))
	return m.Set(w, name, encoded+"."+m.keys[0].mac(name, value), opts...)
}

// GetSigned reads and verifies a signed cookie against every secret.
func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	raw, err := m.Get(r, name)
	if err != nil {
		return "", err
	}

	encoded, sig, ok := strings.Cut(raw, ".")
	if !ok {
		return "", ErrInvalidFormat
	}
	value, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidFormat
	}

	for _, k := range m.keys {
		if subtle.ConstantTimeCompare([]byte(sig), []byte(k.mac(name, string(value)))) == 1 {
			return string(value), nil
		}
	}
	return "", ErrInvalidSignature
}

// SetEncrypted writes value encrypted and authenticated.
func (m *Manager) SetEncrypted(w http.ResponseWriter, name, value string, opts ...Option) error {
	aead, err := chacha20poly1305.NewX(m.keys[0].encrypt)
	if err != nil {
		return err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(value)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}

	sealed := aead.Seal(nonce, nonce, []byte(value), []byte(name))
	return m.Set(w, name, base64.RawURLEncoding.EncodeToString(sealed), opts...)
}

// GetEncrypted reads and decrypts a cookie written by SetEncrypted.
func (m *Manager) GetEncrypted(r *http.Request, name string) (string, error) {
	raw, err := m.Get(r, name)
	if err != nil {
		return "", err
	}

	sealed, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil || len(sealed) < chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return "", ErrInvalidFormat
	}
	nonce, ciphertext := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]

	for _, k := range m.keys {
		aead, err := chacha20poly1305.NewX(k.encrypt)
		if err != nil {
			return "", err
		}
		if plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(name)); err == nil {
			return string(plaintext), nil
		}
	}
	return "", ErrDecryptionFailed
}

func (k keyPair) mac(name, value string) string {
	// The key is 32 bytes, within blake2b's limit.
	h, _ := blake2b.New256(k.sign)
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// tokenBytes is the entropy of a bearer token before encoding.
const tokenBytes = 32

// Metadata is provenance recorded with a session. Informational only.
type Metadata struct {
	UserAgent string
	IPAddress string
}

// Manager issues, validates, rotates and revokes session tokens. It holds no
// state of its own between calls; everything lives in the Store.
type Manager struct {
	store  Store
	hasher Hasher
	config Config
	now    func() time.Time
	logger *slog.Logger
}

// New creates a session manager backed by store. Panics if store is nil.
func New(store Store, opts ...Option) *Manager {
	if store == nil {
		panic("session: store is required")
	}

	m := &Manager{
		store:  store,
		config: DefaultConfig(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.hasher == nil {
		// An empty pepper is always within the key size limit.
		h, _ := NewBlake2bHasher(nil)
		m.hasher = h
	}
	if m.logger == nil {
		m.logger = logger.Discard()
	}
	if m.config.TTL <= 0 || m.config.RotationInterval <= 0 {
		panic("session: TTL and rotation interval must be positive")
	}

	return m
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.config
}

// Create issues a new session for userID and returns the raw token, which is
// never persisted, together with the stored record.
func (m *Manager) Create(ctx context.Context, userID string, meta Metadata) (string, *Record, error) {
	if userID == "" {
		return "", nil, ErrInvalidUserID
	}

	token, rec, err := m.newRecord(userID, meta, m.now())
	if err != nil {
		return "", nil, err
	}

	if err := m.store.Create(ctx, rec); err != nil {
		return "", nil, err
	}

	m.logger.InfoContext(ctx, "session created",
		logger.UserID(rec.UserID),
		logger.SessionID(rec.SessionID),
	)

	return token, rec, nil
}

// Lookup resolves token without touching it. Returns ErrSessionNotFound for
// unknown, revoked and expired sessions.
func (m *Manager) Lookup(ctx context.Context, token string) (*Record, error) {
	hash, err := m.hash(token)
	if err != nil {
		return nil, err
	}

	rec, err := m.store.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	if rec.IsRevoked() || rec.IsExpired(m.now()) {
		return nil, ErrSessionNotFound
	}
	return rec, nil
}

// Touch validates token and slides its expiry forward. An expired session is
// revoked on the spot and reported as ErrSessionNotFound.
func (m *Manager) Touch(ctx context.Context, token string) (*Record, error) {
	rec, err := m.live(ctx, token)
	if err != nil {
		return nil, err
	}

	m.extend(rec, m.now())
	if err := m.store.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Rotate replaces token with a fresh one once the rotation interval since
// the last rotation has elapsed. Before that it behaves like Touch and hands
// back the caller's own token with Rotated set to false.
//
// The successor inherits the predecessor's provenance when meta is empty.
func (m *Manager) Rotate(ctx context.Context, token string, meta Metadata) (*Rotation, error) {
	rec, err := m.live(ctx, token)
	if err != nil {
		return nil, err
	}

	now := m.now()
	if !rec.RotationDue(now, m.config.RotationInterval) {
		m.extend(rec, now)
		if err := m.store.Update(ctx, rec); err != nil {
			return nil, err
		}
		return &Rotation{Rotated: false, Token: token, Record: rec}, nil
	}

	if meta.UserAgent == "" {
		meta.UserAgent = rec.UserAgent
	}
	if meta.IPAddress == "" {
		meta.IPAddress = rec.IPAddress
	}

	newToken, successor, err := m.newRecord(rec.UserID, meta, now)
	if err != nil {
		return nil, err
	}

	if _, err := m.store.Rotate(ctx, rec.TokenHash, successor, now); err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "session rotated",
		logger.UserID(rec.UserID),
		logger.SessionID(rec.SessionID),
		slog.String("rotated_to", successor.SessionID),
	)

	return &Rotation{Rotated: true, Token: newToken, Record: successor}, nil
}

// Revoke ends the session behind token. Unknown and already revoked sessions
// are a silent no-op.
func (m *Manager) Revoke(ctx context.Context, token string, reason RevokeReason) error {
	hash, err := m.hash(token)
	if err != nil {
		return err
	}

	rec, err := m.store.Get(ctx, hash)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if rec.IsRevoked() {
		return nil
	}

	return m.revoke(ctx, rec, reason)
}

// live loads the record behind token and applies lazy expiry.
func (m *Manager) live(ctx context.Context, token string) (*Record, error) {
	hash, err := m.hash(token)
	if err != nil {
		return nil, err
	}

	rec, err := m.store.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	if rec.IsRevoked() {
		return nil, ErrSessionNotFound
	}

	if rec.IsExpired(m.now()) {
		if err := m.revoke(ctx, rec, ReasonExpired); err != nil {
			return nil, err
		}
		return nil, ErrSessionNotFound
	}

	return rec, nil
}

func (m *Manager) revoke(ctx context.Context, rec *Record, reason RevokeReason) error {
	rec.revoke(m.now(), reason)

	// A concurrent revoke got there first; the outcome is the same.
	if err := m.store.Update(ctx, rec); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}

	m.logger.InfoContext(ctx, "session revoked",
		logger.UserID(rec.UserID),
		logger.SessionID(rec.SessionID),
		logger.Reason(string(reason)),
	)
	return nil
}

func (m *Manager) extend(rec *Record, now time.Time) {
	rec.LastActiveAt = now
	rec.ExpiresAt = now.Add(m.config.TTL)
}

func (m *Manager) newRecord(userID string, meta Metadata, now time.Time) (string, *Record, error) {
	token, err := generateToken()
	if err != nil {
		return "", nil, err
	}

	hash, err := m.hasher.Hash(token)
	if err != nil {
		return "", nil, err
	}

	return token, &Record{
		UserID:        userID,
		SessionID:     uuid.NewString(),
		TokenHash:     hash,
		CreatedAt:     now,
		LastActiveAt:  now,
		LastRotatedAt: now,
		ExpiresAt:     now.Add(m.config.TTL),
		UserAgent:     meta.UserAgent,
		IPAddress:     meta.IPAddress,
	}, nil
}

func (m *Manager) hash(token string) (string, error) {
	if token == "" {
		return "", ErrSessionNotFound
	}
	return m.hasher.Hash(token)
}

func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

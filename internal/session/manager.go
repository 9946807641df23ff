package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"foodconnect/internal/store"
	"foodconnect/pkg/types"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/sirupsen/logrus"
)

const roleClaim = "role"

// Manager issues signed session tokens and keeps the matching session records
// so a token stops resolving once its session is revoked.
type Manager struct {
	sessions *store.SessionRepository
	key      []byte
	ttl      time.Duration
	logger   logrus.FieldLogger
	now      func() time.Time
}

func NewManager(sessions *store.SessionRepository, signingKey []byte, ttl time.Duration, logger logrus.FieldLogger) (*Manager, error) {
	if len(signingKey) < 32 {
		return nil, fmt.Errorf("session signing key must be at least 32 bytes, got %d", len(signingKey))
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}

	return &Manager{
		sessions: sessions,
		key:      signingKey,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}, nil
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue starts a session for volunteer and returns its signed token.
func (m *Manager) Issue(ctx context.Context, volunteer *types.Volunteer) (string, *types.Session, error) {
	issued := m.now().UTC().Truncate(time.Second)
	sess := &types.Session{
		ID:        uuid.NewString(),
		User:      types.NewSessionUser(volunteer),
		ExpiresAt: issued.Add(m.ttl),
	}

	tok, err := jwt.NewBuilder().
		Subject(volunteer.ID).
		JwtID(sess.ID).
		IssuedAt(issued).
		Expiration(sess.ExpiresAt).
		Claim(roleClaim, string(volunteer.Role)).
		Build()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build session token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), m.key))
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	if _, err := m.sessions.Open(ctx, sess.ID, sess.User, sess.ExpiresAt, issued); err != nil {
		return "", nil, err
	}

	m.logger.WithFields(logrus.Fields{
		"volunteer_id": volunteer.ID,
		"session_id":   sess.ID,
	}).Debug("session issued")

	return string(signed), sess, nil
}

// Resolve verifies token and loads its session record. Any invalid, expired
// or revoked token returns types.ErrUnauthenticated.
func (m *Manager) Resolve(ctx context.Context, token string) (*types.Session, error) {
	if token == "" {
		return nil, types.ErrUnauthenticated
	}

	tok, err := jwt.Parse(
		[]byte(token),
		jwt.WithKey(jwa.HS256(), m.key),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(m.now)),
	)
	if err != nil {
		if errors.Is(err, jwt.TokenExpiredError()) {
			m.dropExpired(ctx, token)
		}
		m.logger.WithError(err).Debug("rejecting session token")
		return nil, types.ErrUnauthenticated
	}

	sessionID, ok := tok.JwtID()
	if !ok || sessionID == "" {
		return nil, types.ErrUnauthenticated
	}

	subject, _ := tok.Subject()

	user, err := m.sessions.Session(ctx, sessionID)
	if err != nil {
		if errors.Is(err, types.ErrSessionNotFound) {
			return nil, types.ErrUnauthenticated
		}
		return nil, err
	}

	if user.ID != subject {
		m.logger.WithField("session_id", sessionID).Warn("session record does not match token subject")
		return nil, types.ErrUnauthenticated
	}

	sess := &types.Session{ID: sessionID, User: user}
	if exp, ok := tok.Expiration(); ok {
		sess.ExpiresAt = exp
	}

	return sess, nil
}

// dropExpired deletes the session record behind a correctly signed token that
// has expired. Failures are only logged; Issue prunes whatever is left.
func (m *Manager) dropExpired(ctx context.Context, token string) {
	tok, err := jwt.Parse([]byte(token), jwt.WithKey(jwa.HS256(), m.key), jwt.WithValidate(false))
	if err != nil {
		return
	}

	sessionID, ok := tok.JwtID()
	if !ok || sessionID == "" {
		return
	}

	if err := m.Revoke(ctx, sessionID); err != nil {
		m.logger.WithError(err).WithField("session_id", sessionID).Warn("failed to delete expired session")
	}
}

// Revoke deletes the session record. Revoking an unknown session is a no-op.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return m.sessions.Delete(ctx, sessionID)
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"foodconnect/internal/kv"
	"foodconnect/pkg/types"

	"github.com/sirupsen/logrus"
)

// SessionRepository holds one currentUser record per signed in session.
type SessionRepository struct {
	scope scope
}

func NewSessionRepository(store kv.Store, logger logrus.FieldLogger) *SessionRepository {
	return &SessionRepository{scope: newScope(store, logger)}
}

func (r *SessionRepository) WithTx(tx kv.Bucket) *SessionRepository {
	return &SessionRepository{scope: r.scope.withTx(tx)}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (r *SessionRepository) Session(ctx context.Context, sessionID string) (*types.SessionUser, error) {
	raw, err := r.scope.bucket().Get(ctx, sessionKey(sessionID))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, types.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var user types.SessionUser
	if err := json.Unmarshal(raw, &user); err != nil || user.ID == "" {
		r.scope.logger.WithError(err).WithField("session_id", sessionID).Warn("discarding malformed session record")
		return nil, types.ErrSessionNotFound
	}

	return &user, nil
}

func (r *SessionRepository) Save(ctx context.Context, sessionID string, user *types.SessionUser) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := r.scope.bucket().Set(ctx, sessionKey(sessionID), raw); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	return nil
}

// Open saves a new session, records its expiry in the session index and, in
// the same update, removes every indexed session that expired before now. It
// returns how many expired sessions were removed.
func (r *SessionRepository) Open(ctx context.Context, sessionID string, user *types.SessionUser, expiresAt, now time.Time) (int, error) {
	var pruned int
	err := r.scope.update(ctx, func(ctx context.Context, b kv.Bucket) error {
		index, err := r.readIndex(ctx, b)
		if err != nil {
			return err
		}

		pruned = 0
		for id, exp := range index {
			if exp.After(now) {
				continue
			}
			if err := b.Delete(ctx, sessionKey(id)); err != nil {
				return fmt.Errorf("failed to delete expired session: %w", err)
			}
			delete(index, id)
			pruned++
		}

		index[sessionID] = expiresAt
		if err := r.writeIndex(ctx, b, index); err != nil {
			return err
		}

		return r.WithTx(b).Save(ctx, sessionID, user)
	})
	if err != nil {
		return 0, err
	}

	if pruned > 0 {
		r.scope.logger.WithField("pruned", pruned).Debug("removed expired sessions")
	}

	return pruned, nil
}

// Delete removes the session record and its index entry.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	return r.scope.update(ctx, func(ctx context.Context, b kv.Bucket) error {
		index, err := r.readIndex(ctx, b)
		if err != nil {
			return err
		}

		if _, ok := index[sessionID]; ok {
			delete(index, sessionID)
			if err := r.writeIndex(ctx, b, index); err != nil {
				return err
			}
		}

		if err := b.Delete(ctx, sessionKey(sessionID)); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		return nil
	})
}

// readIndex loads session id -> expiry. An unreadable index starts over empty;
// the records it listed expire with their tokens.
func (r *SessionRepository) readIndex(ctx context.Context, b kv.Bucket) (map[string]time.Time, error) {
	index := make(map[string]time.Time)

	raw, err := b.Get(ctx, sessionIndexKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return index, nil
		}
		return nil, fmt.Errorf("failed to read session index: %w", err)
	}

	if err := json.Unmarshal(raw, &index); err != nil {
		r.scope.logger.WithError(err).Warn("discarding malformed session index")
		return make(map[string]time.Time), nil
	}
	if index == nil {
		index = make(map[string]time.Time)
	}

	return index, nil
}

func (r *SessionRepository) writeIndex(ctx context.Context, b kv.Bucket, index map[string]time.Time) error {
	raw, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to encode session index: %w", err)
	}

	if err := b.Set(ctx, sessionIndexKey, raw); err != nil {
		return fmt.Errorf("failed to write session index: %w", err)
	}
	return nil
}

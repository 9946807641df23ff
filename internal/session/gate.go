package session

import (
	"context"
	"errors"
	"sync"

	"foodconnect/pkg/types"
)

// Gate holds the identity of a single request. It starts out loading and
// settles once Init has resolved the token, with or without a user.
type Gate struct {
	manager *Manager

	mu      sync.RWMutex
	loading bool
	current *types.Session
}

func NewGate(manager *Manager) *Gate {
	return &Gate{manager: manager, loading: true}
}

// Init resolves token. A token that does not resolve leaves the gate settled
// with no user; only store failures are returned.
func (g *Gate) Init(ctx context.Context, token string) error {
	g.mu.Lock()
	g.loading = true
	g.mu.Unlock()

	sess, err := g.manager.Resolve(ctx, token)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.loading = false
	g.current = nil

	if err != nil {
		if errors.Is(err, types.ErrUnauthenticated) {
			return nil
		}
		return err
	}

	g.current = sess
	return nil
}

func (g *Gate) IsLoading() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.loading
}

// CurrentUser returns the signed in user, or nil.
func (g *Gate) CurrentUser() *types.SessionUser {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.current == nil {
		return nil
	}
	return g.current.User
}

func (g *Gate) Session() *types.Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current
}

// Clear revokes the current session and forgets the user.
func (g *Gate) Clear(ctx context.Context) error {
	g.mu.Lock()
	sess := g.current
	g.current = nil
	g.loading = false
	g.mu.Unlock()

	if sess == nil {
		return nil
	}
	return g.manager.Revoke(ctx, sess.ID)
}

// Allow checks the current user against role. An empty role admits any
// signed in user.
func (g *Gate) Allow(role types.Role) error {
	user := g.CurrentUser()
	if user == nil {
		return types.ErrUnauthenticated
	}
	if role != "" && user.Role != role {
		return types.ErrForbidden
	}
	return nil
}

type gateKey struct{}

func WithGate(ctx context.Context, g *Gate) context.Context {
	return context.WithValue(ctx, gateKey{}, g)
}

// FromContext returns the request's gate, or nil when none was attached.
func FromContext(ctx context.Context) *Gate {
	g, _ := ctx.Value(gateKey{}).(*Gate)
	return g
}

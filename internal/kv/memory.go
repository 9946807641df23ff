package kv

import (
	"context"
	"fmt"
	"sync"
)

// Memory keeps everything in a map. Its persist hook, when set, receives the
// full key space of every committed update before the update becomes visible.
type Memory struct {
	mu      sync.Mutex
	data    map[string][]byte
	persist func(map[string][]byte) error
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}

	return cloneBytes(value), nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte) error {
	return m.Update(ctx, func(ctx context.Context, tx Bucket) error {
		return tx.Set(ctx, key, value)
	})
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	return m.Update(ctx, func(ctx context.Context, tx Bucket) error {
		return tx.Delete(ctx, key)
	})
}

func (m *Memory) Update(ctx context.Context, fn func(ctx context.Context, tx Bucket) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.apply(ctx, fn)
}

// apply runs fn against a staged view of m.data and commits its writes. The
// caller holds m.mu.
func (m *Memory) apply(ctx context.Context, fn func(ctx context.Context, tx Bucket) error) error {
	tx := &stagedTx{base: m.data, writes: make(map[string][]byte)}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	if len(tx.writes) == 0 {
		return nil
	}

	next := make(map[string][]byte, len(m.data)+len(tx.writes))
	for k, v := range m.data {
		next[k] = v
	}
	for k, v := range tx.writes {
		if v == nil {
			delete(next, k)
			continue
		}
		next[k] = v
	}

	if m.persist != nil {
		if err := m.persist(next); err != nil {
			return fmt.Errorf("failed to persist update: %w", err)
		}
	}

	m.data = next
	return nil
}

func (m *Memory) Close() error {
	return nil
}

// stagedTx records writes on top of a read-only base. A nil entry in writes
// marks a deletion.
type stagedTx struct {
	base   map[string][]byte
	writes map[string][]byte
}

func (t *stagedTx) Get(ctx context.Context, key string) ([]byte, error) {
	if value, ok := t.writes[key]; ok {
		if value == nil {
			return nil, ErrNotFound
		}
		return cloneBytes(value), nil
	}

	value, ok := t.base[key]
	if !ok {
		return nil, ErrNotFound
	}

	return cloneBytes(value), nil
}

func (t *stagedTx) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := cloneBytes(value)
	if stored == nil {
		stored = []byte{}
	}
	t.writes[key] = stored
	return nil
}

func (t *stagedTx) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.writes[key] = nil
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 10 * time.Millisecond

// File is a Memory whose key space is mirrored to a single JSON document on
// disk. Several processes may open the same path: every read and update holds
// an flock on "<path>.lock" and reloads the document first, so a commit never
// drops keys written by another opener. Each committed update rewrites the
// document through a temp file and a rename, so a crash leaves either the old
// or the new state.
type File struct {
	*Memory
	path string
	lock *flock.Flock
}

func OpenFile(path string) (*File, error) {
	f := &File{
		Memory: NewMemory(),
		path:   path,
		lock:   flock.New(path + ".lock"),
	}
	f.persist = f.write

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.locked(context.Background(), false, func() error { return nil }); err != nil {
		return nil, err
	}

	return f, nil
}

func (f *File) Path() string {
	return f.path
}

func (f *File) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var value []byte
	err := f.locked(ctx, false, func() error {
		v, ok := f.data[key]
		if !ok {
			return ErrNotFound
		}
		value = cloneBytes(v)
		return nil
	})

	return value, err
}

func (f *File) Set(ctx context.Context, key string, value []byte) error {
	return f.Update(ctx, func(ctx context.Context, tx Bucket) error {
		return tx.Set(ctx, key, value)
	})
}

func (f *File) Delete(ctx context.Context, key string) error {
	return f.Update(ctx, func(ctx context.Context, tx Bucket) error {
		return tx.Delete(ctx, key)
	})
}

func (f *File) Update(ctx context.Context, fn func(ctx context.Context, tx Bucket) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.locked(ctx, true, func() error {
		return f.apply(ctx, fn)
	})
}

func (f *File) Close() error {
	return f.lock.Close()
}

// locked runs fn holding the sidecar lock, shared or exclusive, after
// reloading f.data from disk. The caller holds f.mu.
func (f *File) locked(ctx context.Context, exclusive bool, fn func() error) error {
	try := f.lock.TryRLockContext
	if exclusive {
		try = f.lock.TryLockContext
	}

	ok, err := try(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock data file %s: %w", f.path, err)
	}
	if !ok {
		return fmt.Errorf("lock data file %s: not acquired", f.path)
	}
	defer f.lock.Unlock()

	if err := f.reload(); err != nil {
		return err
	}

	return fn()
}

func (f *File) reload() error {
	data := make(map[string][]byte)

	raw, err := os.ReadFile(f.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("read data file %s: %w", f.path, err)
	case len(raw) > 0:
		var doc map[string]string
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("decode data file %s: %w", f.path, err)
		}
		for k, v := range doc {
			data[k] = []byte(v)
		}
	}

	f.data = data
	return nil
}

func (f *File) write(data map[string][]byte) error {
	doc := make(map[string]string, len(data))
	for k, v := range data {
		doc[k] = string(v)
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode data file: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp data file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp data file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp data file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp data file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace data file: %w", err)
	}

	return nil
}

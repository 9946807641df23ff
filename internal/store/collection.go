package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"foodconnect/internal/kv"

	"github.com/sirupsen/logrus"
)

const (
	VolunteersCollection = "volunteers"
	DonationsCollection  = "donations"

	sessionKeyPrefix = "session:"
	sessionIndexKey  = "session-index"
)

// CollectionDecodeError reports a collection that holds valid JSON which does
// not decode into its record type.
type CollectionDecodeError struct {
	Collection string
	Err        error
}

func (e *CollectionDecodeError) Error() string {
	return fmt.Sprintf("collection %s holds undecodable records: %s", e.Collection, e.Err)
}

func (e *CollectionDecodeError) Unwrap() error {
	return e.Err
}

// ReadCollection loads the named collection. A missing key, or content that is
// not a JSON array of T, reads as an empty collection; only failures of the
// underlying store are returned. Null entries are dropped.
func ReadCollection[T any](ctx context.Context, b kv.Bucket, name string, logger logrus.FieldLogger) ([]*T, error) {
	records, err := readCollection[T](ctx, b, name, logger)
	var decodeErr *CollectionDecodeError
	if errors.As(err, &decodeErr) {
		return []*T{}, nil
	}
	return records, err
}

// ReadCollectionForUpdate is ReadCollection for read-modify-write cycles.
// Content that is not JSON at all still reads as empty, but a JSON document
// that fails to decode returns a *CollectionDecodeError so the caller does not
// write over records it could not load.
func ReadCollectionForUpdate[T any](ctx context.Context, b kv.Bucket, name string, logger logrus.FieldLogger) ([]*T, error) {
	return readCollection[T](ctx, b, name, logger)
}

func readCollection[T any](ctx context.Context, b kv.Bucket, name string, logger logrus.FieldLogger) ([]*T, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	raw, err := b.Get(ctx, name)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return []*T{}, nil
		}
		return nil, fmt.Errorf("failed to read collection %s: %w", name, err)
	}

	if !json.Valid(raw) {
		logger.WithField("collection", name).Warn("discarding collection content that is not JSON")
		return []*T{}, nil
	}

	var records []*T
	if err := json.Unmarshal(raw, &records); err != nil {
		logger.WithError(err).WithField("collection", name).Warn("collection content does not decode")
		return nil, &CollectionDecodeError{Collection: name, Err: err}
	}

	out := make([]*T, 0, len(records))
	for _, record := range records {
		if record != nil {
			out = append(out, record)
		}
	}

	return out, nil
}

// WriteCollection replaces the named collection with records.
func WriteCollection[T any](ctx context.Context, b kv.Bucket, name string, records []*T) error {
	if records == nil {
		records = []*T{}
	}

	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode collection %s: %w", name, err)
	}

	if err := b.Set(ctx, name, raw); err != nil {
		return fmt.Errorf("failed to write collection %s: %w", name, err)
	}

	return nil
}

// scope routes repository calls either straight to the store or through a
// transaction opened by the caller.
type scope struct {
	store  kv.Store
	tx     kv.Bucket
	logger logrus.FieldLogger
}

func newScope(store kv.Store, logger logrus.FieldLogger) scope {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return scope{store: store, logger: logger}
}

func (s scope) withTx(tx kv.Bucket) scope {
	s.tx = tx
	return s
}

func (s scope) bucket() kv.Bucket {
	if s.tx != nil {
		return s.tx
	}
	return s.store
}

func (s scope) update(ctx context.Context, fn func(ctx context.Context, b kv.Bucket) error) error {
	if s.tx != nil {
		return fn(ctx, s.tx)
	}
	return s.store.Update(ctx, fn)
}

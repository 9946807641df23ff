package main

import (
	"context"
	"fmt"

	"foodconnect/internal/db"
	"foodconnect/internal/kv"
	"foodconnect/pkg/types"

	"github.com/sirupsen/logrus"
)

// openStore connects to Postgres when DATABASE_URL is set and falls back to
// the local data file otherwise.
func openStore(ctx context.Context, cfg *types.Config, logger logrus.FieldLogger) (kv.Store, error) {
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		store := kv.NewPostgres(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}

		logger.Info("using postgres store")
		return store, nil
	}

	store, err := kv.OpenFile(cfg.DataFile)
	if err != nil {
		return nil, err
	}

	logger.WithField("path", store.Path()).Info("using file store")
	return store, nil
}

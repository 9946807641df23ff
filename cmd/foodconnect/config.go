package main

import (
	"context"
	"encoding/base64"
	"fmt"

	"foodconnect/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/gorilla/securecookie"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

func loadConfig(prefix string, logger logrus.FieldLogger) (*types.Config, error) {
	c := new(types.Config)
	if err := envconfig.Process(prefix, c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if c.DatabaseURL == "" && c.DataFile == "" {
		return nil, fmt.Errorf("set DATABASE_URL or DATA_FILE")
	}

	if c.ServerPort == 0 {
		c.ServerPort = 8080
	}

	if c.ReadTimeoutSec == 0 {
		c.ReadTimeoutSec = 10
	}

	if c.WriteTimeoutSec == 0 {
		c.WriteTimeoutSec = 15
	}

	if c.SessionMaxAgeSec <= 0 {
		c.SessionMaxAgeSec = 7 * 24 * 60 * 60
	}

	if c.MaxPhotoBytes <= 0 {
		c.MaxPhotoBytes = 5 << 20
	}

	keys := []struct {
		name  string
		value *string
		size  int
	}{
		{"SESSION_SIGNING_KEY", &c.SessionSigningKey, 32},
		{"COOKIE_HASH_KEY", &c.CookieHashKey, 32},
		{"COOKIE_BLOCK_KEY", &c.CookieBlockKey, 32},
		{"CSRF_AUTH_KEY", &c.CSRFAuthKey, 32},
	}

	for _, k := range keys {
		if *k.value != "" {
			continue
		}

		if !c.IsDevelopment() {
			return nil, fmt.Errorf("set %s", k.name)
		}

		// Sessions will not survive a restart with generated keys.
		*k.value = base64.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(k.size))
		logger.WithField("key", k.name).Warn("generated a random development key")
	}

	return c, nil
}

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	config, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}

	return config, nil
}

package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodconnect/internal/server"
	"foodconnect/internal/session"
	"foodconnect/internal/storage"
	"foodconnect/internal/store"
	"foodconnect/internal/workflow"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	config, err := loadConfig(cCtx.String("env-prefix"), logger)
	if err != nil {
		return err
	}

	if config.IsDevelopment() {
		logger.SetLevel(logrus.DebugLevel)
	}

	kvStore, err := openStore(ctx, config, logger)
	if err != nil {
		return err
	}
	defer kvStore.Close()

	var photos storage.PhotoStore = storage.InlinePhotoStore{}
	if config.S3BucketName != "" {
		awsConfig, err := loadAWSConfig(ctx)
		if err != nil {
			return err
		}

		photos = storage.NewS3PhotoStore(s3.NewFromConfig(awsConfig), config.S3BucketName, config.S3PublicBaseURL)
		logger.WithField("bucket", config.S3BucketName).Info("storing donation photos in s3")
	}

	volunteerRepo := store.NewVolunteerRepository(kvStore, logger)
	donationRepo := store.NewDonationRepository(kvStore, logger)
	sessionRepo := store.NewSessionRepository(kvStore, logger)

	signingKey, err := base64.StdEncoding.DecodeString(config.SessionSigningKey)
	if err != nil {
		return fmt.Errorf("SESSION_SIGNING_KEY is not valid base64: %w", err)
	}

	sessions, err := session.NewManager(sessionRepo, signingKey, time.Duration(config.SessionMaxAgeSec)*time.Second, logger)
	if err != nil {
		return err
	}

	srv, err := server.New(
		config,
		logger,
		sessions,
		workflow.NewAccountService(volunteerRepo, logger),
		workflow.NewDonationService(kvStore, donationRepo, volunteerRepo, photos, logger),
		workflow.NewProfileService(kvStore, volunteerRepo, sessionRepo, logger),
	)
	if err != nil {
		return err
	}

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}

package main

import (
	"context"
	"fmt"

	"foodconnect/internal/seed"
	"foodconnect/internal/store"
	"foodconnect/internal/workflow"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the store with the admin account and optional demo data",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "fake-volunteers",
			Usage: "Upsert the demo volunteers",
		},
		&cli.StringFlag{
			Name:  "fake-password",
			Usage: "Password shared by the demo volunteers",
			Value: "volunteer123",
		},
		&cli.IntFlag{
			Name:  "fake-donations",
			Usage: "Number of demo donations to submit (requires --fake-volunteers on first run)",
		},
	},
	Action: func(c *cli.Context) error {
		logger := logrus.New()

		cfg, err := loadConfig(c.String("env-prefix"), logger)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		kvStore, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer kvStore.Close()

		volunteerRepo := store.NewVolunteerRepository(kvStore, logger)

		logger.Info("Seeding admin...")
		if err := seed.SeedAdmin(ctx, volunteerRepo, cfg.AdminEmail, cfg.AdminName, cfg.AdminPassword); err != nil {
			return fmt.Errorf("failed to seed admin: %w", err)
		}

		if c.Bool("fake-volunteers") {
			logger.Info("Seeding fake volunteers...")
			if err := seed.SeedFakeVolunteers(ctx, volunteerRepo, c.String("fake-password")); err != nil {
				return fmt.Errorf("failed to seed fake volunteers: %w", err)
			}
		}

		if count := c.Int("fake-donations"); count > 0 {
			logger.Info("Seeding fake donations...")
			donations := workflow.NewDonationService(kvStore, store.NewDonationRepository(kvStore, logger), volunteerRepo, nil, logger)
			if err := seed.SeedFakeDonations(ctx, volunteerRepo, donations, count); err != nil {
				return fmt.Errorf("failed to seed fake donations: %w", err)
			}
		}

		logger.Info("Seed complete")
		return nil
	},
}

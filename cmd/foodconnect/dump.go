package main

import (
	"context"
	"fmt"

	"foodconnect/internal/store"
	"foodconnect/pkg/types"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var dumpCommand = &cli.Command{
	Name:      "dump",
	Usage:     "Pretty print a stored collection",
	ArgsUsage: "<volunteers|donations>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "Disable colored output",
		},
	},
	Action: func(c *cli.Context) error {
		name := c.Args().First()
		if name == "" {
			name = store.DonationsCollection
		}

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

		printer := pp.New()
		printer.SetColoringEnabled(!c.Bool("no-color"))

		switch name {
		case store.VolunteersCollection:
			volunteers, err := store.ReadCollection[types.Volunteer](ctx, kvStore, name, logger)
			if err != nil {
				return err
			}
			for _, v := range volunteers {
				v.Password = "[redacted]"
			}
			printer.Println(volunteers)
		case store.DonationsCollection:
			donations, err := store.ReadCollection[types.Donation](ctx, kvStore, name, logger)
			if err != nil {
				return err
			}
			printer.Println(donations)
		default:
			return fmt.Errorf("unknown collection %q, expected %s or %s", name, store.VolunteersCollection, store.DonationsCollection)
		}

		return nil
	},
}

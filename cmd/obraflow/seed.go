package main

import (
	"context"
	"fmt"

	"obraflow/internal/db"
	"obraflow/internal/seed"
	"obraflow/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with demo profiles and requests",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "count",
			Usage: "Number of fake requests to create",
			Value: 25,
		},
		&cli.BoolFlag{
			Name:  "reset",
			Usage: "Delete previously seeded requests first",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		profileRepo := store.NewProfileRepository(pool)
		requestRepo := store.NewRequestRepository(pool)

		logrus.Info("Seeding profiles...")
		if err := seed.SeedProfiles(ctx, profileRepo); err != nil {
			return fmt.Errorf("failed to seed profiles: %w", err)
		}

		logrus.Info("Seeding fake requests...")
		if err := seed.SeedFakeRequests(ctx, pool, requestRepo, c.Int("count"), c.Bool("reset")); err != nil {
			return fmt.Errorf("failed to seed fake requests: %w", err)
		}

		logrus.Info("Seed completed successfully")

		return nil
	},
}

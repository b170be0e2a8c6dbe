// Command main runs the database seeder.
package main

import (
	"context"
	"flag"
	"os"

	"realestate/internal/config"
	"realestate/internal/database"
	"realestate/internal/middleware"
	"realestate/internal/seed"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	defaults := seed.DefaultOptions()

	numUsers := flag.Int("users", defaults.Users, "Number of users to create")
	numProperties := flag.Int("properties", defaults.Properties, "Number of properties to create")
	images := flag.Int("images", defaults.ImagesPerProperty, "Images per property")
	favorites := flag.Int("favorites", defaults.FavoritesPerUser, "Favorites per user")
	inquiries := flag.Int("inquiries", defaults.InquiriesPerProperty, "Inquiries per property")
	shouldClean := flag.Bool("clean", false, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing to the database")
	randSeed := flag.Int64("seed", 0, "Random seed (0 = time based)")
	flag.Parse()

	_ = godotenv.Load()

	opts := defaults
	opts.Users = *numUsers
	opts.Properties = *numProperties
	opts.ImagesPerProperty = *images
	opts.FavoritesPerUser = *favorites
	opts.InquiriesPerProperty = *inquiries
	opts.ShouldClean = *shouldClean
	opts.DryRun = *dryRun
	opts.Seed = *randSeed

	var db *gorm.DB
	if !opts.DryRun {
		cfg, err := config.LoadConfig()
		if err != nil {
			middleware.Logger.Error("failed to load configuration", "error", err)
			os.Exit(1)
		}
		db, err = database.Connect(cfg)
		if err != nil {
			middleware.Logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
	}

	summary, err := seed.Run(context.Background(), db, opts)
	if err != nil {
		middleware.Logger.Error("seeding failed", "error", err)
		os.Exit(1)
	}

	middleware.Logger.Info("all done", "summary", summary.String(), "password", seed.DemoPassword)
}

package cmd

import (
	"context"

	"github.com/prashant564/Courses24-API/logging"
	"github.com/prashant564/Courses24-API/seeder"
	"github.com/prashant564/Courses24-API/services"
	"github.com/spf13/cobra"
)

var (
	seedDir     string
	seedGeocode bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import or destroy fixture data",
}

var seedImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Insert the JSON fixtures from --dir",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSeeder(cmd.Context(), func(ctx context.Context, s *seeder.Seeder) error {
			fixtures, err := seeder.LoadFixtures(seedDir)
			if err != nil {
				return err
			}
			return s.Import(ctx, fixtures)
		})
	},
}

var seedDestroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Delete all users, bootcamps, courses and reviews",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSeeder(cmd.Context(), func(ctx context.Context, s *seeder.Seeder) error {
			return s.Destroy(ctx)
		})
	},
}

func init() {
	seedImportCmd.Flags().StringVar(&seedDir, "dir", "_data", "directory holding the fixture files")
	seedImportCmd.Flags().BoolVar(&seedGeocode, "geocode", false, "geocode bootcamps whose fixture has no location")
	seedCmd.AddCommand(seedImportCmd, seedDestroyCmd)
	rootCmd.AddCommand(seedCmd)
}

func withSeeder(ctx context.Context, run func(context.Context, *seeder.Seeder) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, db, err := connectMongo(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	var geocoder services.Geocoder
	if seedGeocode {
		g, closeCache := newGeocoder(ctx, cfg)
		defer closeCache()
		geocoder = g
	}

	if err := run(ctx, seeder.New(db, geocoder)); err != nil {
		logging.Logger.Errorf("Event ID: SEED_FAILED, Description: %v", err)
		return err
	}
	return nil
}

package cli

import (
	"escape-room-service/internal/infra/postgres"
	"escape-room-service/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewSeedCmd migrates the database and upserts a catalog into it.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a room catalog into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log.Level, cfg.Log.Development)
			defer log.Sync()

			catalog, err := readCatalog(file, cfg.Game)
			if err != nil {
				return err
			}

			db, err := openBun(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			if err := migrateDB(ctx, db, log); err != nil {
				return err
			}
			if err := postgres.SeedCatalog(ctx, db, catalog); err != nil {
				return err
			}
			log.Info("catalog seeded", zap.String("catalog", catalog.ID), zap.Int("rooms", len(catalog.Rooms)))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "catalog YAML file (defaults to the embedded catalog)")
	return cmd
}

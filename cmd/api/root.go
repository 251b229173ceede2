package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/justsurfingit/jobboard/internal/config"
	"github.com/justsurfingit/jobboard/internal/database"
	"github.com/justsurfingit/jobboard/internal/logging"
)

// env is what every subcommand shares once the root has loaded config.
type env struct {
	cfg *config.Config
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:           "jobboard",
		Short:         "Job board API server and maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.log = logging.New(cfg.LogLevel, cfg.LogFormat)
			return nil
		},
	}
	root.AddCommand(
		newServeCmd(e),
		newMigrateCmd(e),
		newSeedCmd(e),
		newTokenCmd(e),
	)
	return root
}

func (e *env) connect(ctx context.Context) (*gorm.DB, error) {
	if err := e.cfg.Require("database_url"); err != nil {
		return nil, err
	}
	db, err := database.Connect(ctx, database.Options{
		DSN:             e.cfg.DatabaseURL,
		MaxOpenConns:    e.cfg.DBMaxOpenConns,
		MaxIdleConns:    e.cfg.DBMaxIdleConns,
		ConnMaxLifetime: e.cfg.DBConnMaxLifetime,
		Log:             e.log,
	})
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return db, nil
}

func closeDB(db *gorm.DB, log logrus.FieldLogger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Warn("failed to close database")
	}
}

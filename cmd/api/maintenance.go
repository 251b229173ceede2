package main

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/justsurfingit/jobboard/internal/auth"
	"github.com/justsurfingit/jobboard/internal/database"
	"github.com/justsurfingit/jobboard/internal/models"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := e.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB(db, e.log)
			if err := database.Migrate(db); err != nil {
				return err
			}
			e.log.Info("migrations applied")
			return nil
		},
	}
}

func newSeedCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo users, categories and jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := e.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB(db, e.log)
			if err := database.Migrate(db); err != nil {
				return err
			}
			result, err := database.Seed(db.WithContext(cmd.Context()))
			if err != nil {
				return err
			}
			e.log.WithFields(logrus.Fields{
				"users":      result.Users,
				"categories": result.Categories,
				"jobs":       result.Jobs,
			}).Info("seed complete")
			return nil
		},
	}
}

func newTokenCmd(e *env) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token for an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.cfg.Require("jwt_secret"); err != nil {
				return err
			}
			db, err := e.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB(db, e.log)

			var user models.User
			err = db.WithContext(cmd.Context()).Where("username = ?", username).First(&user).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("no user named %q", username)
			}
			if err != nil {
				return err
			}
			token, err := auth.NewTokens(e.cfg.JWTSecret, e.cfg.JWTTTL).Issue(&user)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "username to issue the token for")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

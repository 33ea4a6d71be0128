package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/tablemate/internal/auth"
	"github.com/example/tablemate/internal/config"
	"github.com/example/tablemate/internal/db"
	"github.com/example/tablemate/internal/logging"
	"github.com/example/tablemate/internal/migrate"
)

func newStaffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Manage staff accounts",
	}
	cmd.AddCommand(newStaffAddCmd())
	return cmd
}

func newStaffAddCmd() *cobra.Command {
	var username, password string

	c := &cobra.Command{
		Use:   "add",
		Short: "Add a staff account (username/password)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required to store staff accounts")
			}
			log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}

			ctx := context.Background()
			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := migrate.Up(ctx, d, log); err != nil {
				return err
			}

			store := auth.NewStore(auth.NewPGUsers(d), cfg.CookieHashKey, cfg.CookieBlockKey)
			u, err := store.CreateUser(ctx, username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created staff account %q\n", u.Username)
			return nil
		},
	}

	c.Flags().StringVar(&username, "username", "", "username")
	c.Flags().StringVar(&password, "password", "", "password (at least 8 characters)")
	_ = c.MarkFlagRequired("username")
	_ = c.MarkFlagRequired("password")
	return c
}

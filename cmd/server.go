package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/tablemate/internal/auth"
	"github.com/example/tablemate/internal/bookings"
	"github.com/example/tablemate/internal/config"
	"github.com/example/tablemate/internal/conversation"
	"github.com/example/tablemate/internal/db"
	"github.com/example/tablemate/internal/logging"
	"github.com/example/tablemate/internal/migrate"
	"github.com/example/tablemate/internal/restaurant"
	"github.com/example/tablemate/internal/scheduler"
	"github.com/example/tablemate/internal/sessions"
	"github.com/example/tablemate/internal/waitlist"
	"github.com/example/tablemate/internal/web"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the chat API, websocket chat and waitlist seater",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if err := cfg.RequireCookieKeys(); err != nil {
				return err
			}
			log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			opts := []restaurant.Option{restaurant.WithLogger(log), restaurant.WithClock(clockIn(cfg.Location))}
			var (
				journal *bookings.Journal
				staff   *auth.Store
			)
			if cfg.DatabaseURL != "" {
				d, err := db.Open(ctx, cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer d.Close()

				if err := d.Ping(ctx); err != nil {
					return fmt.Errorf("db ping: %w", err)
				}
				if migrateUp {
					if err := migrate.Up(ctx, d, log); err != nil {
						return err
					}
				}
				journal = bookings.NewJournal(d, log)
				opts = append(opts, restaurant.WithJournal(journal))
				staff = auth.NewStore(auth.NewPGUsers(d), cfg.CookieHashKey, cfg.CookieBlockKey)
			} else {
				log.Warn("DATABASE_URL not set: bookings live in memory and the staff API is disabled")
			}

			dir, err := restaurant.Seed(waitlist.Policy(cfg.Waitlist), cfg.MaxPartySize, opts...)
			if err != nil {
				return err
			}
			if journal != nil {
				if err := journal.Restore(ctx, dir, cfg.Location); err != nil {
					return err
				}
			}

			store, closeStore, err := sessionStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			metrics := web.NewMetrics(dir)

			// seater
			seater := &scheduler.Seater{
				Restaurants: dir,
				Interval:    cfg.SeaterInterval,
				Log:         log,
				OnSeated: func(restaurantID string, _ restaurant.Seating) {
					metrics.Event(restaurantID, "seated")
				},
			}
			seaterDone := make(chan struct{})
			go func() {
				defer close(seaterDone)
				_ = seater.Run(ctx)
			}()

			// web
			ws := &web.Server{
				Restaurants:    dir,
				Engine:         conversation.New(dir, conversation.WithLogger(log)),
				Sessions:       store,
				Staff:          staff,
				Metrics:        metrics,
				Log:            log,
				AllowedOrigins: cfg.AllowedOrigins,
			}
			err = web.Start(ctx, cfg.ListenAddr, ws.Routes(), log)
			cancel()
			<-seaterDone
			log.Info("server stopped", zap.Error(err))
			return err
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")

	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}

func clockIn(loc *time.Location) func() time.Time {
	return func() time.Time { return time.Now().In(loc) }
}

func sessionStore(ctx context.Context, cfg config.Config) (sessions.Store, func(), error) {
	if cfg.SessionStore == "redis" {
		client, err := sessions.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return sessions.NewRedisStore(client, cfg.SessionIdle), func() { _ = client.Close() }, nil
	}
	return sessions.NewCookieStore(cfg.CookieHashKey, cfg.CookieBlockKey, cfg.SessionIdle), func() {}, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hospital/internal/api"
	"hospital/internal/auth"
	"hospital/internal/config"
	"hospital/internal/db"
	"hospital/internal/logging"
	"hospital/internal/patient"
	redisdb "hospital/internal/redis"
	"hospital/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "hospital",
		Short:        "Hospital patient records server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.json", "Path to the JSON config file")

	root.AddCommand(serveCmd(&configPath))
	root.AddCommand(migrateCmd(&configPath))
	root.AddCommand(seedCmd(&configPath))
	root.AddCommand(useraddCmd(&configPath))
	return root
}

// bootstrap loads config, builds the logger and opens the migrated database.
func bootstrap(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("config: %w", err)
	}
	logger := logging.New(cfg)
	if err := db.Init(cfg, logger); err != nil {
		return nil, logger, fmt.Errorf("database: %w", err)
	}
	return cfg, logger, nil
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Seed accounts if enabled and start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath)
		},
	}
}

func newSessionStore(ctx context.Context, cfg *config.Config) (auth.SessionStore, error) {
	if cfg.Session.Store == "memory" {
		return auth.NewMemorySessionStore(), nil
	}
	rdb := redisdb.NewClient(cfg)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
	}
	return auth.NewRedisSessionStore(rdb), nil
}

func seedAccounts(ctx context.Context, cfg *config.Config, accounts *user.Store, logger zerolog.Logger) error {
	report, err := user.Seed(ctx, accounts, user.DefaultSeedOptions(cfg.Seed.UserPassword, cfg.Seed.AdminPassword))
	if err != nil {
		return err
	}
	if report.Empty() {
		logger.Info().Msg("accounts already seeded")
		return nil
	}
	logger.Info().
		Interface("roles", report.RolesCreated).
		Strs("users", report.UsersCreated).
		Msg("seeded accounts")
	return nil
}

func runServer(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, logger, err := bootstrap(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("startup failed")
		return err
	}

	accounts := user.NewStore(db.DB)
	if cfg.Seed.Enabled {
		// Seeding finishes before the listener opens.
		if err := seedAccounts(ctx, cfg, accounts, logger); err != nil {
			logger.Error().Err(err).Msg("seeding failed")
			return err
		}
	}

	sessionStore, err := newSessionStore(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("session store unavailable")
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	r := api.SetupRouter(cfg, api.Deps{
		Patients:      patient.NewStore(db.DB, patient.RulesFromConfig(cfg.Patients)),
		Accounts:      accounts,
		Authenticator: auth.NewAuthenticator(accounts),
		Sessions:      auth.NewManager(cfg, sessionStore),
		Logger:        logger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Str("subpath", cfg.Server.Subpath).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server error")
			return err
		}
		return nil
	case <-quit:
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

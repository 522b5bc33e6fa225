package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voltbay/internal/auth"
	"voltbay/internal/config"
	model "voltbay/internal/models"
	"voltbay/migrations"
	"voltbay/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "voltbay",
		Short:         "VoltBay auction service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing app.env")

	load := func() (config.Config, error) {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, err
		}
		utils.SetLevel(cfg.LogLevel)
		utils.ExposeErrors(!cfg.IsProduction())
		if cfg.IsProduction() {
			gin.SetMode(gin.ReleaseMode)
		}
		return cfg, nil
	}

	root.AddCommand(
		newServeCmd(load),
		newMigrateCmd(load),
		newSettleCmd(load),
		newTokenCmd(load),
	)
	return root
}

func newServeCmd(load func() (config.Config, error)) *cobra.Command {
	var runMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the auction scheduler and the notification relay",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, runMigrations)
			if err != nil {
				return err
			}
			defer a.Close()

			a.scheduler.Start(ctx)
			defer a.scheduler.Stop()

			relayDone := make(chan struct{})
			go func() {
				defer close(relayDone)
				a.relay.Run(ctx)
			}()

			srv := &http.Server{
				Addr:              cfg.ServerAddress,
				Handler:           a.router(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			serveErr := make(chan error, 1)
			go func() {
				utils.Info("Starting auction server", map[string]any{"addr": cfg.ServerAddress, "store": cfg.Store})
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case err := <-serveErr:
				if err != nil {
					stop()
					<-relayDone
					return fmt.Errorf("http server: %w", err)
				}
			case <-ctx.Done():
			}

			utils.Info("shutting down", map[string]any{"timeout": cfg.ShutdownTimeout.String()})
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				utils.Error("http server shutdown failed", map[string]any{"error": err.Error()})
			}
			<-relayDone
			return nil
		},
	}
	cmd.Flags().BoolVar(&runMigrations, "migrate", false, "apply database migrations before serving")
	return cmd
}

func newMigrateCmd(load func() (config.Config, error)) *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			if down {
				err = migrations.Down(cfg.DatabaseURL)
			} else {
				err = migrations.Up(cfg.DatabaseURL)
			}
			if err != nil {
				return err
			}
			utils.Info("migrations applied", map[string]any{"down": down})
			return nil
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll every migration back")
	return cmd
}

func newSettleCmd(load func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "settle",
		Short: "Run one settlement pass over expired auctions and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := a.scheduler.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
}

func newTokenCmd(load func() (config.Config, error)) *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for local development",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return errors.New("token issuing is disabled in production")
			}
			token, err := auth.NewIssuer(cfg.JWTSecret).GenerateToken(userID, model.Role(role), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id to embed in the token")
	cmd.Flags().StringVar(&role, "role", string(model.RoleUser), "USER or ADMIN")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

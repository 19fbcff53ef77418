package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iafilius/FixtureCharts/src/api"
	"github.com/iafilius/FixtureCharts/src/config"
	"github.com/iafilius/FixtureCharts/src/logging"
	"github.com/iafilius/FixtureCharts/src/pipeline"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(cfg *config.Config) *cobra.Command {
	var skipInit bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chart API, generating on startup and on schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			if skipInit {
				cfg.Generation.OnStartup = false
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().BoolVar(&skipInit, "skip-init", false, "Do not generate charts on startup")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if cfg.Generation.OnStartup {
		res := a.gen.Run()
		logging.Infof("[init] startup generation: %s %s", res.Status, res.Message)
	} else {
		logging.Infof("[init] startup generation skipped")
	}

	if cfg.Generation.Schedule != "" {
		sched, err := pipeline.NewScheduler(a.gen, cfg.Generation.Schedule)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
		logging.Infof("[init] regeneration scheduled: %s", cfg.Generation.Schedule)
	}

	if cfg.Auth.JWTSecret == "" {
		logging.Warnf("[init] no JWT secret configured; chart endpoints will reject every request")
	}
	auth := api.NewJWTAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.CookieName, cfg.Auth.Issuer)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(a.gen, auth, api.Options{GenerateRatePerMinute: cfg.Server.GenerateRatePerMinute}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Infof("[http] listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.Infof("[http] shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

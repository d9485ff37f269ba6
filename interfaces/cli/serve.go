package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/texgallery/renderd"
	"github.com/texgallery/renderd/application"
	"github.com/texgallery/renderd/domain/sandbox"
	"github.com/texgallery/renderd/infrastructure/config"
	"github.com/texgallery/renderd/infrastructure/limiter"
	"github.com/texgallery/renderd/infrastructure/logging"
	"github.com/texgallery/renderd/infrastructure/telemetry"
	"github.com/texgallery/renderd/infrastructure/workspace"
	"github.com/texgallery/renderd/interfaces/api"
)

// newServeCmd creates the serve command.
func (a *App) newServeCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the render HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			return a.serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func (a *App) serve(ctx context.Context, cfg config.Config) error {
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	shutdownTelemetry, err := telemetry.InitProviders(ctx, telemetry.ProviderConfig{
		ServiceName:    "renderd",
		ServiceVersion: renderd.GetVersion(),
		StdoutTrace:    cfg.Trace,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	workspaces, err := workspace.NewManager(cfg.WorkDir)
	if err != nil {
		return err
	}

	svc := application.NewService(application.Config{
		Limits: sandbox.Limits{
			MaxResources:     cfg.Limits.MaxResources,
			MaxResourceBytes: cfg.Limits.MaxResourceBytes,
			MaxTotalBytes:    cfg.Limits.MaxTotalBytes,
		},
		MaxOutputBytes:   cfg.Limits.MaxOutputBytes,
		MaxConcurrent:    cfg.MaxConcurrent,
		CompileTimeout:   cfg.Timeouts.Compile,
		ThumbnailTimeout: cfg.Timeouts.Thumbnail,
		CloneTimeout:     cfg.Timeouts.Clone,
	}, workspaces)

	server := api.New(api.Config{
		Addr:         cfg.Addr,
		WriteTimeout: cfg.Timeouts.Compile + cfg.Timeouts.GracePeriod,
	}, svc, api.WithLimiter(newLimiter(cfg.RateLimit)))

	errCh := make(chan error, 1)
	go func() {
		logging.Info().
			Add(logging.Component("server")).
			Add(logging.Route(cfg.Addr)).
			Msg("listening")
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logging.Info().Add(logging.Component("server")).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.Shutdown)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Warn().
			Add(logging.Component("server")).
			Add(logging.ErrorField(err)).
			Msg("shutdown incomplete")
	}
	workspaces.Sweep()
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logging.Warn().
			Add(logging.Component("server")).
			Add(logging.ErrorField(err)).
			Msg("telemetry flush failed")
	}
	return nil
}

// newLimiter picks the shared Redis limiter when an address is
// configured, the in-process one otherwise.
func newLimiter(cfg config.RateLimit) limiter.Limiter {
	lcfg := limiter.Config{
		MaxRequests: cfg.MaxRequests,
		Window:      cfg.Window,
		MaxKeys:     cfg.MaxKeys,
		FailOpen:    cfg.FailOpen,
	}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return limiter.NewRedis(client, lcfg)
	}
	return limiter.NewMemory(lcfg)
}

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

	"xrayd/internal/bootstrap"
	"xrayd/internal/config"
	"xrayd/internal/httpapi"
)

func newServeCmd(fv *flagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Load the models and serve the HTTP API",
		Example: "  xrayd serve --models-dir ./models --addr :5000\n  xrayd serve -c xrayd.yaml --device cuda",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, fv)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cmd, cfg)
		},
	}
	f := cmd.Flags()
	f.StringVar(&fv.addr, "addr", config.DefaultAddr, "HTTP listen address; defaults to $XRAYD_ADDR or :5000")
	f.StringVar(&fv.corsOrigins, "cors-origins", "*", "Comma-separated allowed CORS origins")
	f.BoolVar(&fv.swagger, "swagger", false, "Serve the OpenAPI document and UI under /swagger/")
	f.IntVar(&fv.maxUploadMB, "max-upload-mb", config.DefaultMaxUploadMB, "Maximum upload size in MiB")
	f.IntVar(&fv.queueDepth, "max-queue-depth", config.DefaultMaxQueueDepth, "Maximum queued classifications before 429")
	f.IntVar(&fv.maxWait, "max-wait", config.DefaultMaxWaitSeconds, "Seconds a request may wait for the inference slot")
	f.IntVar(&fv.timeout, "analyze-timeout", 0, "Seconds an /analyze request may take in total (0 = unlimited)")
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg config.Config) error {
	log := newLogger(cfg, cmd.ErrOrStderr())

	// Any model or configuration problem fails here, before listening.
	eng, err := bootstrap.Build(cfg, log)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			log.Warn().Err(err).Msg("release models")
		}
	}()

	httpapi.SetLogger(log)
	httpapi.SetMaxUploadBytes(cfg.MaxUploadBytes())
	httpapi.SetAnalyzeTimeoutSeconds(int64(cfg.AnalyzeTimeoutSeconds))
	httpapi.SetCORSOptions(true, cfg.CORSOrigins, nil, nil)
	httpapi.SetSwaggerEnabled(cfg.Swagger)

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(eng),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Addr).
			Str("models_dir", cfg.ModelsDir).
			Str("version", version).
			Msg("xrayd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	log.Info().Msg("shutting down")
	// Cancel queued classifications so Shutdown does not wait on them.
	cancelBase()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

// cmd/algosvc/serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/SyedDaiam9101/algosvc/internal/config"
	"github.com/SyedDaiam9101/algosvc/internal/handler"
	"github.com/SyedDaiam9101/algosvc/internal/kernel"
	"github.com/SyedDaiam9101/algosvc/internal/logging"
	"github.com/SyedDaiam9101/algosvc/internal/metrics"
	"github.com/SyedDaiam9101/algosvc/internal/pipeline"
	"github.com/SyedDaiam9101/algosvc/internal/probe"
	"github.com/SyedDaiam9101/algosvc/internal/tracing"
)

func newServeCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /infer and the health/version endpoints over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd, config.ModeServe)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().Int("port", 0, "HTTP port (env PORT, default 8080)")
	cmd.Flags().Int("grpc-health-port", 0, "gRPC health probe port, 0 disables (env GRPC_HEALTH_PORT)")
	cmd.Flags().Int64("max-body-bytes", 0, "Maximum POST /infer body size (env MAX_BODY_BYTES)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log := logging.NewJSON(cfg.LogLevel, os.Stdout, os.Stderr).With().Str("service", handler.ServiceName).Logger()

	log.Info().
		Int("port", cfg.Port).
		Str("algo_version", cfg.AlgoVersion).
		Str("kernel", cfg.Kernel).
		Str("lib_path", cfg.LibPath).
		Int("grpc_health_port", cfg.GRPCHealthPort).
		Bool("otel", cfg.OTELEnabled).
		Msg("starting")

	if cfg.OTELEnabled {
		shutdown, err := tracing.Init(handler.ServiceName, cfg.AlgoVersion, os.Stdout)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize tracer")
		} else {
			defer shutdown(context.Background())
			log.Info().Str("endpoint", cfg.OTELEndpoint).Msg("OpenTelemetry tracing enabled")
		}
	}

	k, err := openKernel(cfg)
	if err != nil {
		return err
	}
	defer k.Close()

	p := pipeline.New(cfg.AlgoVersion, kernel.NewInvoker(k))
	h := handler.New(handler.VersionInfo{
		Service:     handler.ServiceName,
		AlgoVersion: cfg.AlgoVersion,
		LibPath:     cfg.LibPath,
	}, p, handler.Options{
		MaxBodyBytes: cfg.MaxBodyBytes,
		Logger:       log,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)

	var probeSrv *probe.Server
	if cfg.GRPCHealthPort > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCHealthPort))
		if err != nil {
			return fmt.Errorf("failed to listen on grpc health port %d: %w", cfg.GRPCHealthPort, err)
		}
		probeSrv = probe.New(handler.ServiceName, cfg.OTELEnabled)
		go func() {
			log.Info().Str("addr", lis.Addr().String()).Msg("gRPC health probe listening")
			if err := probeSrv.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc health probe: %w", err)
			}
		}()
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	metrics.SetHealthy()
	if probeSrv != nil {
		probeSrv.SetServing(true)
	}

	// Setup graceful shutdown
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var serveErr error
	select {
	case <-sigCtx.Done():
		log.Info().Msg("received shutdown signal, shutting down gracefully")
	case serveErr = <-errCh:
		log.Error().Err(serveErr).Msg("server failed")
	}

	shutdownServers(log, srv, probeSrv, cfg.ShutdownGrace)

	if serveErr != nil {
		return reportedError{serveErr}
	}
	log.Info().Msg("server shutdown complete")
	return nil
}

func shutdownServers(log zerolog.Logger, srv *http.Server, probeSrv *probe.Server, grace time.Duration) {
	metrics.SetUnhealthy()
	if probeSrv != nil {
		probeSrv.SetServing(false)
		defer probeSrv.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
}

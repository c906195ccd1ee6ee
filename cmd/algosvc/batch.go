package main

import (
	"context"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/SyedDaiam9101/algosvc/internal/batch"
	"github.com/SyedDaiam9101/algosvc/internal/config"
	"github.com/SyedDaiam9101/algosvc/internal/handler"
	"github.com/SyedDaiam9101/algosvc/internal/kernel"
	"github.com/SyedDaiam9101/algosvc/internal/ledger"
	"github.com/SyedDaiam9101/algosvc/internal/logging"
	"github.com/SyedDaiam9101/algosvc/internal/pipeline"
	"github.com/SyedDaiam9101/algosvc/internal/tracing"
)

func newBatchCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Process every *.json request in the input directory, stopping at the first failure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd, config.ModeBatch)
			if err != nil {
				return err
			}
			return runBatch(cmd.Context(), cfg, afero.NewOsFs(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().String("input-dir", "", "Directory of request files (env INPUT_DIR)")
	cmd.Flags().String("output-dir", "", "Directory for response files (env OUTPUT_DIR)")
	cmd.Flags().String("redis-addr", "", "Redis address for the run ledger, empty disables (env REDIS_ADDR)")
	return cmd
}

func runBatch(ctx context.Context, cfg *config.Config, fs afero.Fs, stdout, stderr io.Writer) error {
	log := logging.New(cfg.LogLevel, stdout, stderr)

	// Spans go to stderr; stdout carries one line per file.
	if cfg.OTELEnabled {
		shutdown, err := tracing.Init(handler.ServiceName, cfg.AlgoVersion, stderr)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize tracer")
		} else {
			defer shutdown(context.Background())
		}
	}

	k, err := openKernel(cfg)
	if err != nil {
		return err
	}
	defer k.Close()

	opts := []batch.Option{batch.WithLogger(log)}
	if cfg.Redis != "" {
		led, err := ledger.NewRedis(ctx, cfg.Redis, cfg.LedgerTTL)
		if err != nil {
			log.Warn().Err(err).Msg("continuing without run ledger")
		} else {
			defer led.Close()
			opts = append(opts, batch.WithRecorder(led))
		}
	}

	p := pipeline.New(cfg.AlgoVersion, kernel.NewInvoker(k))
	runner := batch.NewRunner(fs, batch.Config{
		InputDir:  cfg.InputDir,
		OutputDir: cfg.OutputDir,
	}, p, opts...)

	if _, err := runner.Run(ctx); err != nil {
		return reportedError{err}
	}
	return nil
}

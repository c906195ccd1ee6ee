// cmd/algosvc/main.go
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/SyedDaiam9101/algosvc/internal/config"
	"github.com/SyedDaiam9101/algosvc/internal/kernel"
)

// reportedError marks an error that has already been logged.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func printError(w io.Writer, err error) {
	var reported reportedError
	if errors.As(err, &reported) {
		return
	}
	fmt.Fprintf(w, "ERROR: %v\n", err)
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "algosvc",
		Short:         "Scale-dependent sample transform as a batch job or an HTTP service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional; real environment variables win.
			_ = godotenv.Load()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Path to config file (optional)")
	pf.String("algo-version", "", "Algorithm version stamped on responses (env ALGO_VERSION)")
	pf.String("kernel", "", "Kernel backend: sigmoid or onnx (env KERNEL)")
	pf.String("lib-path", "", "Kernel artifact; the model file for the onnx backend (env LIB_PATH)")
	pf.String("log-level", "", "Log level: debug, info, warn, error (env LOG_LEVEL)")

	loadConfig := func(cmd *cobra.Command, mode config.Mode) (*config.Config, error) {
		cfg, err := config.Load(cmd.Flags(), configFile)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(mode); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return cfg, nil
	}

	root.AddCommand(
		newBatchCmd(loadConfig),
		newServeCmd(loadConfig),
		newRunsCmd(loadConfig),
		newVersionCmd(loadConfig),
	)
	return root
}

type configLoader func(cmd *cobra.Command, mode config.Mode) (*config.Config, error)

func openKernel(cfg *config.Config) (kernel.Kernel, error) {
	k, err := kernel.Open(cfg.Kernel, cfg.LibPath, cfg.ONNXRuntimeLib)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s kernel: %w", cfg.Kernel, err)
	}
	return k, nil
}

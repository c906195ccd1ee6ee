package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SyedDaiam9101/algosvc/internal/config"
	"github.com/SyedDaiam9101/algosvc/internal/handler"
	"github.com/SyedDaiam9101/algosvc/internal/ledger"
)

func newRunsCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List recent batch runs from the ledger, or show one run and its files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd, config.ModeInspect)
			if err != nil {
				return err
			}
			if cfg.Redis == "" {
				return errors.New("the run ledger is disabled: set REDIS_ADDR")
			}

			ctx := cmd.Context()
			led, err := ledger.NewRedis(ctx, cfg.Redis, cfg.LedgerTTL)
			if err != nil {
				return err
			}
			defer led.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			if len(args) == 0 {
				ids, err := led.Recent(ctx, 20)
				if err != nil {
					return err
				}
				return enc.Encode(ids)
			}

			run, err := led.Run(ctx, args[0])
			if err != nil {
				return fmt.Errorf("run %s: %w", args[0], err)
			}
			files, err := led.Files(ctx, args[0])
			if err != nil {
				return err
			}
			return enc.Encode(struct {
				Run   ledger.RunRecord    `json:"run"`
				Files []ledger.FileRecord `json:"files"`
			}{run, files})
		},
	}
	cmd.Flags().String("redis-addr", "", "Redis address of the run ledger (env REDIS_ADDR)")
	return cmd
}

func newVersionCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the service, algorithm version and kernel artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd, config.ModeInspect)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(handler.VersionInfo{
				Service:     handler.ServiceName,
				AlgoVersion: cfg.AlgoVersion,
				LibPath:     cfg.LibPath,
			})
		},
	}
}

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tally/internal/convert"
	"tally/internal/ledger"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the upload history ledger",
	}

	ledgerCmd.AddCommand(newLedgerShowCommand(ctx))
	ledgerCmd.AddCommand(newLedgerCheckCommand(ctx))
	return ledgerCmd
}

func (c *commandContext) withLedger(fn func(*ledger.Ledger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	led, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer led.Close()
	return fn(led)
}

func newLedgerShowCommand(ctx *commandContext) *cobra.Command {
	var modelFlag string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List recorded uploads per remote model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(led *ledger.Ledger) error {
				runCtx := cmd.Context()
				models := []string{modelFlag}
				if modelFlag == "" {
					var err error
					if models, err = led.Models(runCtx); err != nil {
						return err
					}
				}

				out := cmd.OutOrStdout()
				if len(models) == 0 {
					fmt.Fprintln(out, "Ledger is empty")
					return nil
				}
				for _, model := range models {
					entries, err := led.Entries(runCtx, model)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s (%d records)\n", model, len(entries))
					rows := make([][]string, 0, len(entries))
					for _, entry := range entries {
						rows = append(rows, []string{
							strconv.FormatInt(entry.RemoteID, 10),
							convert.NewRefSet(entry.Refs...).String(),
						})
					}
					writeTable(out, []string{"Remote ID", "Source Refs"}, rows,
						[]columnAlignment{alignRight, alignLeft})
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&modelFlag, "model", "", "Only show records for this remote model")
	return cmd
}

func newLedgerCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify both ledger regions agree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(led *ledger.Ledger) error {
				if err := led.Check(cmd.Context()); err != nil {
					return fmt.Errorf("ledger check failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Ledger is consistent")
				return nil
			})
		},
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tally/internal/ledger"
	"tally/internal/odoo"
	"tally/internal/upload"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var window windowFlags
	var snapSeconds float64
	var noMerge bool
	var skipUnmatched bool
	var dryRun bool
	var force bool
	var createTasks bool

	cmd := &cobra.Command{
		Use:   "upload CHAIN",
		Short: "Convert entries through a chain and upload them to the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireOdoo(); err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			lines, err := convertEntries(cmd, ctx, args[0], &window, snapSeconds, noMerge, skipUnmatched)
			if err != nil {
				return err
			}

			led, err := ledger.Open(cfg.Ledger.Path)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer led.Close()

			client := odoo.NewClient(odoo.Credentials{
				URL:      cfg.Odoo.URL,
				Database: cfg.Odoo.Database,
				Username: cfg.Odoo.Username,
				Password: cfg.Odoo.Password,
			}, nil, logger)
			if _, err := client.Authenticate(cmd.Context()); err != nil {
				return err
			}

			reconciler := upload.New(client, led, logger, upload.Options{
				AllowTaskCreation:  createTasks,
				DryRun:             dryRun,
				OverwriteConflicts: force,
			})
			summary, err := reconciler.Upload(cmd.Context(), lines)

			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintln(out, "Dry run: no records were created")
			}
			fmt.Fprintf(out, "%d lines uploaded, %d skipped as already present\n",
				summary.Created, summary.Skipped)
			if err != nil {
				return fmt.Errorf("upload aborted: %w", err)
			}
			return nil
		},
	}

	window.register(cmd)
	cmd.Flags().Float64Var(&snapSeconds, "snap", -1,
		"Snap window in seconds, overriding fetch.snap_seconds (0 disables)")
	cmd.Flags().BoolVar(&noMerge, "no-merge", false, "Keep one line per entry instead of merging")
	cmd.Flags().BoolVar(&skipUnmatched, "skip-unmatched", false,
		"Drop entries no rule matches instead of failing the run")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false,
		"Resolve and report every line without creating records or touching the ledger")
	cmd.Flags().BoolVar(&force, "force", false,
		"Replace remote records whose ledger refs partially overlap the current batch")
	cmd.Flags().BoolVar(&createTasks, "create-tasks", false,
		"Create tasks referenced by name that do not exist yet")
	return cmd
}

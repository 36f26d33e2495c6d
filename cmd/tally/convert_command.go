package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tally/internal/convert"
	"tally/internal/textutil"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var window windowFlags
	var snapSeconds float64
	var noMerge bool
	var skipUnmatched bool

	cmd := &cobra.Command{
		Use:   "convert CHAIN",
		Short: "Fetch entries and convert them into timesheet lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := convertEntries(cmd, ctx, args[0], &window, snapSeconds, noMerge, skipUnmatched)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(lines))
			var totalHours float64
			for _, line := range lines {
				totalHours += line.Hours
				rows = append(rows, []string{
					line.Date.Format(dateLayout),
					line.Project.String(),
					line.Task.String(),
					textutil.Truncate(line.Name, 60),
					fmt.Sprintf("%.2f", line.Hours),
					line.Refs.String(),
				})
			}
			writeTable(out,
				[]string{"Date", "Project", "Task", "Description", "Hours", "Refs"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft})

			cfg, _ := ctx.ensureConfig()
			writeDurationSummary(out, "lines", len(lines), totalHours, cfg.Report.HoursPerWorkday)
			return nil
		},
	}

	window.register(cmd)
	cmd.Flags().Float64Var(&snapSeconds, "snap", -1,
		"Snap window in seconds, overriding fetch.snap_seconds (0 disables)")
	cmd.Flags().BoolVar(&noMerge, "no-merge", false, "Keep one line per entry instead of merging")
	cmd.Flags().BoolVar(&skipUnmatched, "skip-unmatched", false,
		"Drop entries no rule matches instead of failing the run")
	return cmd
}

// convertEntries runs the shared fetch pipeline and converts the result
// through the named chain.
func convertEntries(cmd *cobra.Command, ctx *commandContext, chainName string, window *windowFlags, snapSeconds float64, noMerge, skipUnmatched bool) ([]convert.Line, error) {
	reg, err := ctx.registry()
	if err != nil {
		return nil, err
	}
	chain, err := reg.Chain(chainName)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %s)", err, strings.Join(reg.Names(), ", "))
	}

	entries, err := fetchEntries(cmd.Context(), ctx, window, snapSeconds)
	if err != nil {
		return nil, err
	}

	opts := ctx.convertOptions()
	if noMerge {
		opts.Merge = false
	}
	if skipUnmatched {
		opts.MustMatch = false
	}
	lines, err := chain.Convert(entries, opts)
	if err != nil {
		return nil, err
	}

	logger, _ := ctx.ensureLogger()
	logger.Info("converted entries", "component", "convert",
		"chain", chainName, "entries", len(entries), "lines", len(lines))
	return lines, nil
}

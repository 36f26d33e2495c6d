package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tally/internal/processing"
	"tally/internal/textutil"
	"tally/internal/timeentry"
	"tally/internal/toggl"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var window windowFlags
	var snapSeconds float64

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch, filter and smooth time entries from the tracker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := fetchEntries(cmd.Context(), ctx, &window, snapSeconds)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(entries))
			var totalHours float64
			for _, entry := range entries {
				totalHours += entry.Hours()
				rows = append(rows, []string{
					entry.Start.Format(dateLayout),
					entry.Start.Format("15:04") + "-" + entry.Stop.Format("15:04"),
					textutil.FormatSeconds(entry.Seconds()),
					entry.Project.Client.Name,
					entry.Project.Name,
					textutil.Truncate(entry.Description, 60),
					strings.Join(entry.Tags, ","),
				})
			}
			writeTable(out,
				[]string{"Date", "Time", "Duration", "Client", "Project", "Description", "Tags"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignLeft})

			cfg, _ := ctx.ensureConfig()
			writeDurationSummary(out, "entries", len(entries), totalHours, cfg.Report.HoursPerWorkday)
			return nil
		},
	}

	window.register(cmd)
	cmd.Flags().Float64Var(&snapSeconds, "snap", -1,
		"Snap window in seconds, overriding fetch.snap_seconds (0 disables)")
	return cmd
}

// fetchEntries runs the shared upstream pipeline: fetch through the detailed
// report, filter by configured names, snap boundaries, and order by start.
func fetchEntries(runCtx context.Context, ctx *commandContext, window *windowFlags, snapFlag float64) ([]timeentry.Entry, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireToggl(); err != nil {
		return nil, err
	}

	since, until, err := window.window(time.Now())
	if err != nil {
		return nil, err
	}

	svc := toggl.NewService(toggl.Credentials{
		APIToken:   cfg.Toggl.APIToken,
		Workspace:  cfg.Toggl.Workspace,
		APIURL:     cfg.Toggl.APIURL,
		ReportsURL: cfg.Toggl.ReportsURL,
	}, nil, logger)

	query := toggl.ReportQuery{Since: since, Until: until}
	if len(cfg.Fetch.Clients) > 0 {
		items, err := svc.Clients(runCtx)
		if err != nil {
			return nil, err
		}
		if query.ClientIDs, err = toggl.ResolveNames(items, "client", cfg.Fetch.Clients); err != nil {
			return nil, err
		}
	}
	if len(cfg.Fetch.Projects) > 0 {
		items, err := svc.Projects(runCtx)
		if err != nil {
			return nil, err
		}
		if query.ProjectIDs, err = toggl.ResolveNames(items, "project", cfg.Fetch.Projects); err != nil {
			return nil, err
		}
	}
	if len(cfg.Fetch.Tags) > 0 {
		items, err := svc.Tags(runCtx)
		if err != nil {
			return nil, err
		}
		if query.TagIDs, err = toggl.ResolveNames(items, "tag", cfg.Fetch.Tags); err != nil {
			return nil, err
		}
	}

	entries, err := svc.DetailedReport(runCtx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch entries: %w", err)
	}

	entries = processing.Filter(entries, processing.FilterOptions{
		Clients:         cfg.Fetch.Clients,
		Projects:        cfg.Fetch.Projects,
		ProjectsExclude: cfg.Fetch.ProjectsExclude,
		TagsExclude:     cfg.Fetch.TagsExclude,
	})

	snap := cfg.Fetch.SnapSeconds
	if snapFlag >= 0 {
		snap = snapFlag
	}
	if snap > 0 {
		processing.Snap(entries, snap, logger)
	}
	processing.SortByStart(entries)

	logger.Info("fetched entries", "component", "fetch", "count", len(entries))
	return entries, nil
}

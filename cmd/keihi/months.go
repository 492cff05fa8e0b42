package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/Veraticus/keihi/internal/batch"
	"github.com/Veraticus/keihi/internal/cli"
	"github.com/spf13/cobra"
)

func monthsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "months",
		Short: "List month directories, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			dirs, err := batch.ListMonthDirectories(a.cfg.ReceiptsRoot)
			if err != nil {
				return err
			}
			if len(dirs) == 0 {
				printLine(cmd.OutOrStdout(), cli.FormatInfo("No month directories under "+a.cfg.ReceiptsRoot))
				return nil
			}

			stored, err := a.store.ListPeriods(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list batches: %w", err)
			}
			ingested := make(map[string]bool, len(stored))
			for _, p := range stored {
				ingested[p] = true
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("Period"),
				cli.HeaderStyle.Render("Files"),
				cli.HeaderStyle.Render("Ingested"),
				cli.HeaderStyle.Render("Summary"))
			for _, d := range dirs {
				files, err := batch.ListReceiptFiles(d.Path)
				if err != nil {
					return err
				}
				summary := cli.SubtleStyle.Render("-")
				if d.HasSummary {
					summary = batch.SummaryFileName(d.Period)
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", d.Period, len(files), cli.FormatEnabled(ingested[d.Period]), summary)
			}
			return w.Flush()
		},
	}
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/keihi/internal/batch"
	"github.com/Veraticus/keihi/internal/cli"
	"github.com/Veraticus/keihi/internal/export"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	var (
		period string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the month's summary workbook",
		Long: `Re-run the checks and write YYYYMM-summary.xlsx into the month directory,
with one row per receipt and totals per account category.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkPeriod(period); err != nil {
				return err
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			receipts, err := loadBatch(cmd, a, period)
			if err != nil {
				return err
			}
			receipts = newOrchestrator(a, nil).Revalidate(period, receipts)
			if err := a.store.SaveBatch(cmd.Context(), period, receipts); err != nil {
				return fmt.Errorf("failed to save batch: %w", err)
			}

			path := output
			if path == "" {
				dir, err := batch.EnsureMonthDirectory(a.cfg.ReceiptsRoot, period)
				if err != nil {
					return err
				}
				path = filepath.Join(dir, batch.SummaryFileName(period))
			} else if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			if err := export.WriteSummary(path, period, receipts, a.cfg.HomeCurrency); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printLine(out, cli.FormatSuccess("Wrote "+path))
			for _, t := range export.CategoryTotals(receipts, a.cfg.HomeCurrency) {
				printLine(out, fmt.Sprintf("  %s  %d件  %s %s", t.Category, t.Count, t.Total.StringFixed(0), a.cfg.HomeCurrency))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&period, "period", "p", "", "target month as YYYYMM")
	cmd.Flags().StringVarP(&output, "output", "o", "", "workbook path (default: month directory)")
	_ = cmd.MarkFlagRequired("period")

	return cmd
}

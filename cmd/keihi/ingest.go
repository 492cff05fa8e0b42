package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/keihi/internal/batch"
	"github.com/Veraticus/keihi/internal/cli"
	"github.com/Veraticus/keihi/internal/common"
	"github.com/Veraticus/keihi/internal/model"
	"github.com/Veraticus/keihi/internal/validation"
	"github.com/spf13/cobra"
)

func ingestCmd() *cobra.Command {
	var (
		period      string
		resultsPath string
		noProgress  bool
	)

	cmd := &cobra.Command{
		Use:   "ingest [files...]",
		Short: "Add receipts to a month and apply OCR results",
		Long: `Copy the given receipt files into the month directory, pick up every
receipt document already there, apply the OCR results file to the ones that
have not been read yet, assign categories and run the checks.

The results file is a JSON array of OCR results, one per document, keyed by
data.file. Interrupted runs keep what finished; run the command again to
continue.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkPeriod(period); err != nil {
				return err
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			ocr, err := batch.LoadResultsFile(resultsPath)
			if err != nil {
				return err
			}

			receipts, err := collectReceipts(cmd, a, period, args)
			if err != nil {
				return err
			}
			if len(receipts) == 0 {
				printLine(cmd.OutOrStdout(), cli.FormatInfo("No receipt documents found for "+period))
				return nil
			}

			interrupt.SetResumeHint(fmt.Sprintf("keihi ingest --period %s --results %s", period, resultsPath))

			orch := newOrchestrator(a, ocr)

			var progress batch.ProgressFunc
			var bar *cli.Progress
			pending := len(receipts) - len(batch.SuccessfulReceipts(receipts))
			if !noProgress && pending > 0 {
				bar = cli.NewProgress(cmd.ErrOrStderr(), pending, "Reading receipts")
				progress = func(done, _ int, _ model.ReceiptData) { bar.Set(done) }
			}

			start := time.Now()
			processed, procErr := orch.Process(cmd.Context(), period, receipts, progress)
			if bar != nil && procErr == nil {
				bar.Finish()
			}

			// Save what finished even when interrupted.
			if err := a.store.SaveBatch(cmd.Context(), period, processed); err != nil {
				return fmt.Errorf("failed to save batch: %w", err)
			}
			if procErr != nil {
				if batch.IsInterrupted(procErr) {
					return nil
				}
				return procErr
			}

			slog.Info("Ingest finished", "period", period, "receipts", len(processed), "duration", time.Since(start))
			return reportBatch(cmd, processed)
		},
	}

	cmd.Flags().StringVarP(&period, "period", "p", "", "target month as YYYYMM")
	cmd.Flags().StringVarP(&resultsPath, "results", "r", "", "OCR results JSON file")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	_ = cmd.MarkFlagRequired("period")
	_ = cmd.MarkFlagRequired("results")

	return cmd
}

// collectReceipts copies new files into the month directory and returns the
// stored batch extended with every document not yet in it.
func collectReceipts(cmd *cobra.Command, a *app, period string, files []string) ([]model.ReceiptData, error) {
	for _, f := range files {
		dest, err := batch.CopyToMonth(a.cfg.ReceiptsRoot, period, f)
		if err != nil {
			return nil, err
		}
		slog.Debug("copied receipt", "source", f, "dest", dest)
	}

	dir, err := batch.EnsureMonthDirectory(a.cfg.ReceiptsRoot, period)
	if err != nil {
		return nil, err
	}

	receipts, err := a.store.GetBatch(cmd.Context(), period)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch: %w", err)
	}

	known := make(map[string]bool, len(receipts))
	for _, r := range receipts {
		known[r.FilePath] = true
	}

	docs, err := batch.ListReceiptFiles(dir)
	if err != nil {
		return nil, err
	}
	added := 0
	for _, doc := range docs {
		if known[doc.Path] {
			continue
		}
		receipts = append(receipts, batch.NewReceipt(doc.Name, doc.Path))
		added++
	}

	if added > 0 {
		printLine(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("%s %d new receipt(s) in %s", cli.FolderIcon, added, dir)))
	}
	return receipts, nil
}

// reportBatch prints the receipt table, the findings and their summary.
func reportBatch(cmd *cobra.Command, receipts []model.ReceiptData) error {
	out := cmd.OutOrStdout()
	if err := cli.RenderReceipts(out, receipts); err != nil {
		return err
	}
	printLine(out)
	if err := cli.RenderIssues(out, receipts); err != nil {
		return err
	}

	var failed int
	for _, r := range receipts {
		if r.Status == model.StatusError {
			failed++
		}
	}
	if failed > 0 {
		printLine(out, cli.FormatWarning(fmt.Sprintf("%d receipt(s) could not be read", failed)))
	}
	return cli.RenderSummary(out, validation.Summarize(receipts))
}

// loadBatch reads a stored batch, failing when the period has none.
func loadBatch(cmd *cobra.Command, a *app, period string) ([]model.ReceiptData, error) {
	receipts, err := a.store.GetBatch(cmd.Context(), period)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch: %w", err)
	}
	if len(receipts) == 0 {
		return nil, common.NewUserError(fmt.Sprintf("%s のレシートはまだ取り込まれていません", period), common.ErrNotFound)
	}
	return receipts, nil
}

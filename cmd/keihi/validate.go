package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/keihi/internal/batch"
	"github.com/Veraticus/keihi/internal/cli"
	"github.com/Veraticus/keihi/internal/model"
	"github.com/Veraticus/keihi/internal/service"
	"github.com/spf13/cobra"
)

// newOrchestrator builds an orchestrator from the configured options. Edits
// and revalidation never call OCR, so ocr may be nil for them.
func newOrchestrator(a *app, ocr service.OCRProvider) *batch.Orchestrator {
	opts := batch.DefaultOptions()
	opts.HomeCurrency = a.cfg.HomeCurrency
	opts.Workers = a.cfg.OCRWorkers
	opts.Retry.MaxAttempts = a.cfg.OCRMaxAttempts
	return batch.NewOrchestrator(ocr, a.categories, a.checks, opts)
}

func validateCmd() *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Re-run the checks over a month's receipts",
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
			return reportBatch(cmd, receipts)
		},
	}

	cmd.Flags().StringVarP(&period, "period", "p", "", "target month as YYYYMM")
	_ = cmd.MarkFlagRequired("period")

	return cmd
}

func editCmd() *cobra.Command {
	var (
		period string
		id     string
		field  string
		value  string
	)

	fieldNames := make([]string, 0, len(batch.EditableFields()))
	for _, f := range batch.EditableFields() {
		fieldNames = append(fieldNames, string(f))
	}

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Correct one field of a receipt",
		Long: fmt.Sprintf(`Correct one field of a receipt and re-run the checks for the month.
An empty value clears the field. Fields: %s.`, strings.Join(fieldNames, ", ")),
		Example: `  keihi edit --period 202501 --id 3f2a --field amount --value 1200`,
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
			receiptID, err := resolveReceipt(receipts, id)
			if err != nil {
				return err
			}

			receipts, err = newOrchestrator(a, nil).UpdateField(period, receipts, receiptID, batch.Field(field), value)
			if err != nil {
				return err
			}
			if err := a.store.SaveBatch(cmd.Context(), period, receipts); err != nil {
				return fmt.Errorf("failed to save batch: %w", err)
			}

			for _, r := range receipts {
				if r.ID != receiptID {
					continue
				}
				out := cmd.OutOrStdout()
				printLine(out, cli.FormatSuccess(fmt.Sprintf("Updated %s of %s", field, r.File)))
				if !r.HasIssues() {
					printLine(out, cli.FormatSuccess("No issues"))
					return nil
				}
				return cli.RenderIssues(out, []model.ReceiptData{r})
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&period, "period", "p", "", "target month as YYYYMM")
	cmd.Flags().StringVar(&id, "id", "", "receipt id or id prefix")
	cmd.Flags().StringVar(&field, "field", "", "field to change")
	cmd.Flags().StringVar(&value, "value", "", "new value")
	_ = cmd.MarkFlagRequired("period")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("field")

	return cmd
}

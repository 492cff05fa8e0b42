package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/keihi/internal/cli"
	"github.com/Veraticus/keihi/internal/model"
	"github.com/spf13/cobra"
)

func checksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checks",
		Short: "Manage validation checks",
		Long: `List and tune the checks run over a month's receipts. Checks are
referenced by id or by type (date-format, date-range, amount-decimal,
amount-outlier, duplicate-file, duplicate-data).`,
	}

	cmd.AddCommand(listChecksCmd())
	cmd.AddCommand(toggleCheckCmd("enable", "Enable a check", true))
	cmd.AddCommand(toggleCheckCmd("disable", "Disable a check", false))
	cmd.AddCommand(setCheckCmd())
	cmd.AddCommand(resetChecksCmd())

	return cmd
}

func listChecksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List validation checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			return cli.RenderValidationRules(cmd.OutOrStdout(), a.checks.Rules())
		},
	}
}

func toggleCheckCmd(use, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <check>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.checks.SetEnabled(cmd.Context(), args[0], enabled); err != nil {
				return fmt.Errorf("failed to %s check: %w", use, err)
			}

			printLine(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Check %s is now %sd", args[0], use)))
			return nil
		},
	}
}

func setCheckCmd() *cobra.Command {
	var (
		severity string
		params   []string
	)

	cmd := &cobra.Command{
		Use:   "set <check>",
		Short: "Change a check's severity or params",
		Example: `  keihi checks set amount-outlier --param upperMultiplier=4
  keihi checks set date-range --severity error --param maxMonthDiff=1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if severity == "" && len(params) == 0 {
				return fmt.Errorf("must specify --severity or --param")
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			ctx := cmd.Context()
			if severity != "" {
				if err := a.checks.SetSeverity(ctx, args[0], model.Severity(severity)); err != nil {
					return fmt.Errorf("failed to set severity: %w", err)
				}
			}
			for _, p := range params {
				key, value, ok := strings.Cut(p, "=")
				if !ok {
					return fmt.Errorf("param %q must be key=value", p)
				}
				if err := a.checks.SetParam(ctx, args[0], key, value); err != nil {
					return fmt.Errorf("failed to set %s: %w", key, err)
				}
			}

			rule, _ := a.checks.Find(args[0])
			return cli.RenderValidationRules(cmd.OutOrStdout(), []model.ValidationRule{rule})
		},
	}

	cmd.Flags().StringVar(&severity, "severity", "", "warning or error")
	cmd.Flags().StringArrayVar(&params, "param", nil, "param as key=value (repeatable)")

	return cmd
}

func resetChecksCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore the built-in checks with default settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				ok, err := cli.Confirm(cmd.Context(), cli.NewNonBlockingReader(cmd.InOrStdin()), cmd.OutOrStdout(),
					"Restore all checks to their defaults?")
				if err != nil || !ok {
					return err
				}
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			a.autoBackup(cmd.Context(), "checks-reset")
			if err := a.checks.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("failed to reset checks: %w", err)
			}

			printLine(cmd.OutOrStdout(), cli.FormatSuccess("Restored default checks"))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	return cmd
}

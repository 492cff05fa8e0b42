package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Veraticus/keihi/internal/cli"
	"github.com/Veraticus/keihi/internal/model"
	"github.com/Veraticus/keihi/internal/pattern"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// categoryRulesFile is the YAML layout used by export and import.
type categoryRulesFile struct {
	Rules   []model.AccountCategoryRule `yaml:"rules"`
	Version int                         `yaml:"version"`
}

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage account category rules",
		Long: `List, add, edit, reorder and delete the rules that assign an account
category from the merchant name. Rules are tried in order; the first enabled
match wins. Rules are referenced by position (1-based) or id prefix.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(editCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())
	cmd.AddCommand(moveCategoryCmd())
	cmd.AddCommand(toggleCategoryCmd("enable", "Enable a category rule", true))
	cmd.AddCommand(toggleCategoryCmd("disable", "Disable a category rule", false))
	cmd.AddCommand(resetCategoriesCmd())
	cmd.AddCommand(testCategoryCmd())
	cmd.AddCommand(exportCategoriesCmd())
	cmd.AddCommand(importCategoriesCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List category rules in evaluation order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			list := a.categories.Rules()
			if len(list) == 0 {
				printLine(cmd.OutOrStdout(), cli.FormatInfo("No category rules. Use 'keihi categories add' to create one."))
				return nil
			}
			return cli.RenderCategoryRules(cmd.OutOrStdout(), list)
		},
	}
}

func addCategoryCmd() *cobra.Command {
	var flags string

	cmd := &cobra.Command{
		Use:   "add <pattern> <category>",
		Short: "Append a category rule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			rule, err := a.categories.Add(cmd.Context(), args[0], flags, args[1])
			if err != nil {
				return fmt.Errorf("failed to add rule: %w", err)
			}

			printLine(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added rule %s: /%s/%s → %s",
				rule.ID[:8], rule.Pattern, rule.Flags, rule.AccountCategory)))
			return nil
		},
	}

	cmd.Flags().StringVar(&flags, "flags", "", "regex flags (i, m, s)")

	return cmd
}

func editCategoryCmd() *cobra.Command {
	var (
		patternText string
		flags       string
		category    string
	)

	cmd := &cobra.Command{
		Use:   "edit <rule>",
		Short: "Change a rule's pattern, flags or category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("pattern") && !cmd.Flags().Changed("flags") && !cmd.Flags().Changed("category") {
				return fmt.Errorf("must specify --pattern, --flags or --category")
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			rule, _, err := resolveCategoryRule(a.categories.Rules(), args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("pattern") {
				rule.Pattern = patternText
			}
			if cmd.Flags().Changed("flags") {
				rule.Flags = flags
			}
			if cmd.Flags().Changed("category") {
				rule.AccountCategory = category
			}

			if err := a.categories.Update(cmd.Context(), rule); err != nil {
				return fmt.Errorf("failed to update rule: %w", err)
			}

			printLine(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated rule %s", args[0])))
			return nil
		},
	}

	cmd.Flags().StringVar(&patternText, "pattern", "", "new regex pattern")
	cmd.Flags().StringVar(&flags, "flags", "", "new regex flags")
	cmd.Flags().StringVar(&category, "category", "", "new account category")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <rule>",
		Short: "Delete a category rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			rule, _, err := resolveCategoryRule(a.categories.Rules(), args[0])
			if err != nil {
				return err
			}
			if err := a.categories.Delete(cmd.Context(), rule.ID); err != nil {
				return fmt.Errorf("failed to delete rule: %w", err)
			}

			printLine(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted rule /%s/ → %s", rule.Pattern, rule.AccountCategory)))
			return nil
		},
	}
}

func moveCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <rule> <position>",
		Short: "Move a rule to a 1-based position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid position %q: %w", args[1], err)
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			rule, _, err := resolveCategoryRule(a.categories.Rules(), args[0])
			if err != nil {
				return err
			}
			if err := a.categories.Move(cmd.Context(), rule.ID, to-1); err != nil {
				return fmt.Errorf("failed to move rule: %w", err)
			}

			return cli.RenderCategoryRules(cmd.OutOrStdout(), a.categories.Rules())
		},
	}
}

func toggleCategoryCmd(use, short string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <rule>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			rule, _, err := resolveCategoryRule(a.categories.Rules(), args[0])
			if err != nil {
				return err
			}
			if err := a.categories.SetEnabled(cmd.Context(), rule.ID, enabled); err != nil {
				return fmt.Errorf("failed to %s rule: %w", use, err)
			}

			printLine(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Rule /%s/ is now %sd", rule.Pattern, use)))
			return nil
		},
	}
}

func resetCategoriesCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Replace every category rule with the defaults",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				ok, err := cli.Confirm(cmd.Context(), cli.NewNonBlockingReader(cmd.InOrStdin()), cmd.OutOrStdout(),
					"Replace all category rules with the defaults?")
				if err != nil || !ok {
					return err
				}
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			a.autoBackup(cmd.Context(), "categories-reset")
			if err := a.categories.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("failed to reset rules: %w", err)
			}

			printLine(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Restored %d default category rules", len(a.categories.Rules()))))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	return cmd
}

func testCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <merchant>",
		Short: "Show which rule a merchant name matches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			out := cmd.OutOrStdout()
			for i, rule := range a.categories.Rules() {
				if !rule.Enabled {
					continue
				}
				re, err := pattern.Compile(rule.Pattern, rule.Flags)
				if err != nil {
					continue
				}
				if re.MatchString(args[0]) {
					printLine(out, cli.FormatSuccess(fmt.Sprintf("%s → %s (rule %d: /%s/%s)",
						args[0], rule.AccountCategory, i+1, rule.Pattern, rule.Flags)))
					return nil
				}
			}

			printLine(out, cli.FormatWarning(fmt.Sprintf("%s matches no rule", args[0])))
			return nil
		},
	}
}

func exportCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write category rules as YAML (stdout when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			data, err := yaml.Marshal(categoryRulesFile{
				Version: model.CurrentSettingsVersion,
				Rules:   a.categories.Rules(),
			})
			if err != nil {
				return fmt.Errorf("failed to encode rules: %w", err)
			}

			if len(args) == 0 {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(args[0], data, 0600); err != nil {
				return fmt.Errorf("failed to write %s: %w", args[0], err)
			}
			printLine(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %d rules to %s", len(a.categories.Rules()), args[0])))
			return nil
		},
	}
}

func importCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace category rules with the rules in a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// #nosec G304 - path is supplied by the user on the command line
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			var file categoryRulesFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}
			if len(file.Rules) == 0 {
				return fmt.Errorf("%s contains no rules", args[0])
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			a.autoBackup(cmd.Context(), "categories-import")
			if err := a.categories.Replace(cmd.Context(), file.Rules); err != nil {
				return fmt.Errorf("failed to import rules: %w", err)
			}

			printLine(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d rules from %s", len(file.Rules), args[0])))
			return nil
		},
	}
}

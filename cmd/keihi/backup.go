package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/Veraticus/keihi/internal/cli"
	"github.com/Veraticus/keihi/internal/storage"
	"github.com/spf13/cobra"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage database backups",
		Long: `Create, list, verify and delete snapshots of the keihi database.
An automatic backup is taken before rules are reset or imported.`,
	}

	cmd.AddCommand(createBackupCmd())
	cmd.AddCommand(listBackupsCmd())
	cmd.AddCommand(verifyBackupCmd())
	cmd.AddCommand(deleteBackupCmd())

	return cmd
}

// withBackups opens storage and hands a backup manager to fn.
func withBackups(cmd *cobra.Command, fn func(*storage.BackupManager) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := initStorage(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	bm, err := store.NewBackupManager()
	if err != nil {
		return err
	}
	return fn(bm)
}

func createBackupCmd() *cobra.Command {
	var (
		tag         string
		description string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Snapshot the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackups(cmd, func(bm *storage.BackupManager) error {
				info, err := bm.Create(cmd.Context(), tag, description)
				if err != nil {
					return fmt.Errorf("failed to create backup: %w", err)
				}
				printLine(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created backup %s (%d bytes)", info.ID, info.FileSize)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "backup name (default: timestamp)")
	cmd.Flags().StringVar(&description, "description", "", "note stored with the backup")

	return cmd
}

func listBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackups(cmd, func(bm *storage.BackupManager) error {
				backups, err := bm.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(backups) == 0 {
					printLine(cmd.OutOrStdout(), cli.FormatInfo("No backups yet."))
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					cli.HeaderStyle.Render("ID"),
					cli.HeaderStyle.Render("Created"),
					cli.HeaderStyle.Render("Size"),
					cli.HeaderStyle.Render("Schema"),
					cli.HeaderStyle.Render("Description"))
				for _, b := range backups {
					fmt.Fprintf(w, "%s\t%s\t%d\tv%d\t%s\n",
						b.ID, b.CreatedAt.Format("2006-01-02 15:04"), b.FileSize, b.SchemaVersion, b.Description)
				}
				return w.Flush()
			})
		},
	}
}

func verifyBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <id>",
		Short: "Run an integrity check against a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackups(cmd, func(bm *storage.BackupManager) error {
				if err := bm.Verify(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("backup %s: %w", args[0], err)
				}
				printLine(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Backup %s is intact", args[0])))
				return nil
			})
		},
	}
}

func deleteBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackups(cmd, func(bm *storage.BackupManager) error {
				if err := bm.Delete(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("failed to delete backup %s: %w", args[0], err)
				}
				printLine(cmd.OutOrStdout(), cli.FormatSuccess("Deleted backup "+args[0]))
				return nil
			})
		},
	}
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"bahikhata/backend/internal/backup"
)

var backupOutput string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or import portable ledger backups",
}

var backupExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the full ledger state to a .dlb backup artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		repo, closeRepo, err := openRepository(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeRepo()

		archive, err := repo.Snapshot(ctx)
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		artifact, err := backup.Encode(*archive)
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}

		out := backupOutput
		if out == "" {
			out = backup.Filename(time.Now().UTC())
		}
		if err := os.WriteFile(out, []byte(artifact), 0o600); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Printf("wrote %s (%d customers, %d transactions, %d bills)\n",
			out, len(archive.Customers), len(archive.Transactions), len(archive.SaleBills))
		return nil
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore the ledger from a backup artifact, overwriting all collections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		archive, err := backup.Decode(string(raw))
		if err != nil {
			return err
		}

		repo, closeRepo, err := openRepository(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeRepo()

		if err := repo.Restore(ctx, *archive); err != nil {
			return fmt.Errorf("restore: %w", err)
		}
		fmt.Printf("restored %d customers, %d transactions, %d bills from %s\n",
			len(archive.Customers), len(archive.Transactions), len(archive.SaleBills), args[0])
		return nil
	},
}

func init() {
	backupExportCmd.Flags().StringVarP(&backupOutput, "output", "o", "", "output file (default ledger-backup-<date>.dlb)")
	backupCmd.AddCommand(backupExportCmd)
	backupCmd.AddCommand(backupImportCmd)
	rootCmd.AddCommand(backupCmd)
}

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bahikhata/backend/internal/report"
)

var (
	reportUser   string
	reportFrom   string
	reportTo     string
	reportFormat string
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export ledger reports",
}

var reportGSTCmd = &cobra.Command{
	Use:   "gst",
	Short: "Export a GST summary for a user's bills in a date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := time.Parse("2006-01-02", reportFrom)
		if err != nil {
			return fmt.Errorf("invalid --from date %q, want YYYY-MM-DD", reportFrom)
		}
		to, err := time.Parse("2006-01-02", reportTo)
		if err != nil {
			return fmt.Errorf("invalid --to date %q, want YYYY-MM-DD", reportTo)
		}
		to = to.Add(24*time.Hour - time.Nanosecond)

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

		userID := reportUser
		if strings.Contains(userID, "@") {
			user, err := repo.GetUserByEmail(ctx, strings.ToLower(userID))
			if err != nil {
				return fmt.Errorf("look up user %q: %w", reportUser, err)
			}
			userID = user.ID
		}

		bills, err := repo.ListSaleBillsByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("list bills: %w", err)
		}
		customers, err := repo.ListCustomers(ctx, userID)
		if err != nil {
			return fmt.Errorf("list customers: %w", err)
		}
		names := make(map[string]string, len(customers))
		for _, c := range customers {
			names[c.ID] = c.Name
		}

		summary := report.BuildGSTSummary(bills, names, from, to)

		out := reportOutput
		if out == "" {
			out = fmt.Sprintf("gst-report-%s-to-%s.%s", reportFrom, reportTo, reportFormat)
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		defer f.Close()

		switch strings.ToLower(reportFormat) {
		case "csv":
			err = summary.WriteCSV(f)
		case "xlsx":
			err = summary.WriteXLSX(f)
		default:
			err = fmt.Errorf("unknown format %q, want csv or xlsx", reportFormat)
		}
		if err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d bills, taxable %.2f, gst %.2f)\n",
			out, len(summary.Bills), summary.TotalTaxable, summary.TotalGST)
		return nil
	},
}

func init() {
	reportGSTCmd.Flags().StringVar(&reportUser, "user", "", "user id or email owning the bills (required)")
	reportGSTCmd.Flags().StringVar(&reportFrom, "from", "", "start date, YYYY-MM-DD (required)")
	reportGSTCmd.Flags().StringVar(&reportTo, "to", "", "end date, YYYY-MM-DD, inclusive (required)")
	reportGSTCmd.Flags().StringVar(&reportFormat, "format", "xlsx", "output format: csv or xlsx")
	reportGSTCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "output file")
	_ = reportGSTCmd.MarkFlagRequired("user")
	_ = reportGSTCmd.MarkFlagRequired("from")
	_ = reportGSTCmd.MarkFlagRequired("to")
	reportCmd.AddCommand(reportGSTCmd)
	rootCmd.AddCommand(reportCmd)
}

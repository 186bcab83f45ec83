package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/existflow/timegrid/internal/model"
	"github.com/existflow/timegrid/internal/report"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Monthly time report",
	Long: `Aggregate a month of entries into per-project totals.

Examples:
  timegrid report
  timegrid report --month 2024-03
  timegrid report --month 2024-03 --csv march.csv`,
	RunE: runReport,
}

var (
	reportMonth string
	reportCSV   string
)

func init() {
	reportCmd.Flags().StringVarP(&reportMonth, "month", "m", "", "Month to report (YYYY-MM, default: current)")
	reportCmd.Flags().StringVar(&reportCSV, "csv", "", "Write the report as CSV to this file")
}

func runReport(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	month := reportMonth
	if month == "" {
		month = time.Now().Format(model.MonthFormat)
	}
	if _, err := time.Parse(model.MonthFormat, month); err != nil {
		return fmt.Errorf("invalid month %q, want YYYY-MM", month)
	}

	ctx := context.Background()
	session := client.Session()

	entries, err := client.MonthlyEntries(ctx, session.UserID, month)
	if err != nil {
		return fmt.Errorf("failed to fetch entries: %w", err)
	}
	projects, err := client.Projects(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch projects: %w", err)
	}

	monthly := report.Build(month, session.Username, entries, projects)

	if reportCSV != "" {
		f, err := os.Create(reportCSV)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", reportCSV, err)
		}
		defer f.Close()
		if err := monthly.WriteCSV(f); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		fmt.Printf("✓ Wrote %s\n", reportCSV)
		return nil
	}

	fmt.Print(monthly.Text())
	return nil
}

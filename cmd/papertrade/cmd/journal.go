package cmd

import (
	"fmt"
	"time"

	"github.com/rustyeddy/papertrade/config"
	"github.com/rustyeddy/papertrade/internal/app"
	"github.com/rustyeddy/papertrade/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query trade journal data",
	Long: `Query and display trade journal records from the SQLite journal.

Days are Tokyo trading days.

Subcommands:
  trade  - Get details of a specific fill by order ID
  today  - Report today's fills
  day    - Report the fills of a specific day

Examples:
  papertrade journal trade <order-id>
  papertrade journal today
  papertrade journal day 2024-01-15`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <order-id>",
	Short: "Get details of a specific fill",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Report today's fills",
	Args:  cobra.NoArgs,
	RunE:  runJournalToday,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "Report the fills of a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "", "path to SQLite journal DB (default: journal.db_path)")
}

func openJournal() (*journal.SQLite, error) {
	jc := config.JournalConfig{Type: "sqlite", DBPath: journalDBPath}
	if journalDBPath == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		jc = cfg.Journal
	}
	j, err := app.OpenSQLite(jc)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(rec))
	return nil
}

func runJournalToday(cmd *cobra.Command, args []string) error {
	return reportDay(cmd, time.Now().In(jst).Format("2006-01-02"))
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	return reportDay(cmd, args[0])
}

func reportDay(cmd *cobra.Command, day string) error {
	start, end, err := dayBounds(jst, day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.ListTradesBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	snaps, err := j.ListAccountBetween(start, end)
	if err != nil {
		return fmt.Errorf("query account: %w", err)
	}

	out, err := journal.FormatDayOrg(journal.NewDayReport(start, recs, snaps))
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start, end, nil
}

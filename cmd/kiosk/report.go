package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gnomeskillet/signin-kiosk/internal/archive"
	"github.com/gnomeskillet/signin-kiosk/internal/config"
	"github.com/gnomeskillet/signin-kiosk/internal/store"
	"github.com/gnomeskillet/signin-kiosk/internal/ui"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Attendance reporting over the archive database",
	Long: `Query attendance history.

The archive is a SQLite database rebuilt from the day folders, so it can
be regenerated at any time and never drifts from the CSV logs.`,
}

var reportRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the archive database from the day folders",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		logger := stderrLogger("report")
		st := resolveStore(cfg, logger)

		db := openArchive(cfg, st)
		defer db.Close()

		n, err := db.Rebuild(st)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rebuilding archive: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Archived %d sign-ins\n", ui.RenderPass("✓"), n)
	},
}

var reportDaysCmd = &cobra.Command{
	Use:   "days",
	Short: "Show sign-in counts per day",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		logger := stderrLogger("report")
		st := resolveStore(cfg, logger)

		db := openArchive(cfg, st)
		defer db.Close()

		counts, err := db.CountByDay()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error querying archive: %v\n", err)
			os.Exit(1)
		}
		if len(counts) == 0 {
			fmt.Printf("%s Archive is empty; run 'kiosk report rebuild' first\n", ui.RenderWarn("⚠"))
			return
		}

		fmt.Printf("\n%s Sign-ins per day\n\n", ui.RenderAccent("📊"))
		for _, c := range counts {
			fmt.Printf("  %s  %d\n", c.Date, c.Count)
		}
		fmt.Println()
	},
}

var reportStudentCmd = &cobra.Command{
	Use:   "student <id>",
	Short: "Show one student's sign-in history",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		logger := stderrLogger("report")
		st := resolveStore(cfg, logger)

		db := openArchive(cfg, st)
		defer db.Close()

		recs, err := db.History(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error querying archive: %v\n", err)
			os.Exit(1)
		}
		if len(recs) == 0 {
			fmt.Printf("%s No sign-ins recorded for %s\n", ui.RenderWarn("⚠"), args[0])
			return
		}

		fmt.Printf("\n%s %s (%s): %d sign-ins\n\n", ui.RenderAccent("📋"), recs[0].Name, args[0], len(recs))
		for _, r := range recs {
			fmt.Printf("  %s\n", r.Time.Format("2006-01-02 15:04"))
		}
		fmt.Println()
	},
}

func openArchive(cfg *config.Config, st *store.Store) *archive.DB {
	db, err := archive.Open(archivePath(cfg, st))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening archive: %v\n", err)
		os.Exit(1)
	}
	return db
}

func init() {
	reportCmd.AddCommand(reportRebuildCmd)
	reportCmd.AddCommand(reportDaysCmd)
	reportCmd.AddCommand(reportStudentCmd)
	rootCmd.AddCommand(reportCmd)
}

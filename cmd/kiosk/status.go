package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gnomeskillet/signin-kiosk/internal/kiosksync"
	"github.com/gnomeskillet/signin-kiosk/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status [date]",
	Short: "Show a day's sign-ins and what still needs uploading",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		logger := stderrLogger("kiosk")
		st := resolveStore(cfg, logger)

		date := today()
		if len(args) == 1 {
			date = args[0]
		}

		day, err := st.Load(date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading day folder: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n%s Sign-In Status for %s\n\n", ui.RenderAccent("📋"), date)
		fmt.Printf("Storage: %s\n", st.Root())
		fmt.Printf("Sign-ins: %d\n", len(day.Records))
		fmt.Printf("Photos: %d\n", len(day.Photos))
		if len(day.Orphans) > 0 {
			fmt.Printf("Orphan photos: %d %s\n", len(day.Orphans),
				ui.RenderDim("(no matching log row; still uploaded)"))
		}

		for _, rec := range day.Records {
			marker := ui.RenderPass("✓")
			note := ""
			if rec.Photo == "" {
				note = " " + ui.RenderDim("(no photo)")
			}
			fmt.Printf("  %s %s  %s  %s%s\n", marker, rec.Time.Format("15:04"), rec.ID, rec.Name, note)
		}

		if cfg.RemoteDir == "" {
			fmt.Println()
			return
		}

		// Show what a sync would do right now.
		rs := resolveRemote(cfg)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		inv, err := rs.ListExisting(ctx, date)
		if err != nil {
			fmt.Printf("\n%s Remote unreachable: %v\n\n", ui.RenderWarn("⚠"), err)
			os.Exit(1)
		}

		plan := kiosksync.BuildPlan(day, inv)
		fmt.Println()
		if plan.Empty() {
			fmt.Printf("%s Remote is up to date\n\n", ui.RenderPass("✓"))
			return
		}
		fmt.Printf("%s Pending upload:\n", ui.RenderAccent("🔄"))
		for _, name := range plan.Photos {
			fmt.Printf("   photo %s\n", name)
		}
		if plan.CSV != kiosksync.CSVNone {
			fmt.Printf("   log %s (%s)\n", day.CSVName(), plan.CSV)
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

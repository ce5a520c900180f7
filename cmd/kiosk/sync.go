package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gnomeskillet/signin-kiosk/internal/kiosksync"
	"github.com/gnomeskillet/signin-kiosk/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:   "sync [date]",
	Short: "Upload a day's folder to the shared directory",
	Long: `Reconcile one day folder against the upload destination.

Photos missing on the remote side are uploaded; the day's CSV log is
always re-sent in full so late sign-ins and corrections replace the
remote copy. Already-uploaded photos are skipped, so re-running after a
partial failure only sends what's still missing.

With no argument, today's folder is synced.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		logger := stderrLogger("sync")
		st := resolveStore(cfg, logger)
		rs := resolveRemote(cfg)

		date := today()
		if len(args) == 1 {
			date = args[0]
		}

		runner := kiosksync.NewRunner(st, rs, progressEvents{}, logger)

		fmt.Printf("%s Syncing %s...\n", ui.RenderAccent("🔄"), date)
		start := time.Now()

		h := runner.Start(date)
		status := runner.Wait(h)

		elapsed := time.Since(start).Round(time.Millisecond)
		res := status.Result

		switch {
		case status.State == kiosksync.StateSucceeded && res != nil && len(res.Uploaded) == 0 && res.CSV == kiosksync.CSVSkipped:
			fmt.Printf("%s Nothing to upload for %s\n", ui.RenderPass("✓"), date)

		case status.State == kiosksync.StateSucceeded:
			fmt.Printf("%s Sync complete in %v\n", ui.RenderPass("✓"), elapsed)
			printResult(res)

		default:
			fmt.Printf("%s Sync failed after %v\n", ui.RenderFail("✗"), elapsed)
			if status.Err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", status.Err)
			}
			printResult(res)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func printResult(res *kiosksync.Result) {
	if res == nil {
		return
	}
	fmt.Printf("   Photos uploaded: %d\n", len(res.Uploaded))
	if len(res.Failed) > 0 {
		fmt.Printf("   Photos failed: %d\n", len(res.Failed))
		for _, f := range res.Failed {
			fmt.Printf("     %s %s: %v\n", ui.RenderFail("✗"), f.Name, f.Err)
		}
	}
	fmt.Printf("   Log: %s\n", res.CSV)
	if res.Aborted {
		fmt.Printf("   %s Run aborted on an authorization failure\n", ui.RenderWarn("⚠"))
	}
	if res.Canceled {
		fmt.Printf("   %s Run canceled before finishing\n", ui.RenderWarn("⚠"))
	}
}

// progressEvents prints one line per uploaded item.
type progressEvents struct{}

func (progressEvents) SyncStarted(string) {}

func (progressEvents) SyncProgress(date, name string, done, total int, err error) {
	if err != nil {
		fmt.Printf("   [%d/%d] %s %s: %v\n", done, total, ui.RenderFail("✗"), name, err)
		return
	}
	fmt.Printf("   [%d/%d] %s %s\n", done, total, ui.RenderPass("✓"), name)
}

func (progressEvents) SyncFinished(string, kiosksync.Status) {}

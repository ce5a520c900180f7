package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/gnomeskillet/signin-kiosk/internal/camera"
	"github.com/gnomeskillet/signin-kiosk/internal/config"
	"github.com/gnomeskillet/signin-kiosk/internal/dashboard"
	"github.com/gnomeskillet/signin-kiosk/internal/kiosksync"
	"github.com/gnomeskillet/signin-kiosk/internal/roster"
	"github.com/gnomeskillet/signin-kiosk/internal/store"
	"github.com/gnomeskillet/signin-kiosk/internal/ui"
)

var signinCmd = &cobra.Command{
	Use:   "signin",
	Short: "Run the interactive sign-in prompt",
	Long: `Run the front-desk sign-in loop.

Students type their ID or name. With a roster configured, partial names
and IDs resolve to the matching student; without one, the kiosk asks for
ID and name directly. Each sign-in appends to the day's CSV log and, if
a camera is configured, saves a photo.

Typing the admin word starts a background upload of the day's folder.
Ctrl+C or Ctrl+D ends the session.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		logger := stderrLogger("kiosk")
		st := resolveStore(cfg, logger)

		k := &kioskSession{
			cfg:    cfg,
			st:     st,
			cam:    resolveCamera(cfg),
			events: kiosksync.NopEvents{},
		}

		if cfg.RosterPath != "" {
			r, err := roster.Load(cfg.RosterPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error loading roster: %v\n", err)
				os.Exit(1)
			}
			k.roster = r
			fmt.Printf("%s Roster loaded: %d students\n", ui.RenderAccent("ℹ"), r.Len())
		}

		if cfg.DashboardAddr != "" {
			server := dashboard.NewServer(&dashboard.Config{
				Addr:   cfg.DashboardAddr,
				Logger: stderrLogger("dashboard"),
			})
			if err := server.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "Error starting dashboard: %v\n", err)
				os.Exit(1)
			}
			defer server.Stop()

			handler := dashboard.NewHandler(server, stderrLogger("dashboard"))
			if day, err := st.Load(today()); err == nil {
				handler.UpdateStats(day)
			}
			k.handler = handler
			k.events = handler
		}

		if cfg.RemoteDir != "" {
			k.runner = kiosksync.NewRunner(st, resolveRemote(cfg), k.events, stderrLogger("sync"))
		}

		if err := k.run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(signinCmd)
}

func today() string {
	return time.Now().Format(store.DateLayout)
}

func resolveCamera(cfg *config.Config) camera.Capability {
	if cfg.CameraBin == "" {
		return camera.Disabled
	}
	return camera.Command{
		Bin:     cfg.CameraBin,
		Args:    cfg.CameraArgs,
		Timeout: cfg.CameraTimeout,
	}
}

// kioskSession is the interactive sign-in loop.
type kioskSession struct {
	cfg     *config.Config
	st      *store.Store
	roster  *roster.Roster
	cam     camera.Capability
	runner  *kiosksync.Runner
	handler *dashboard.Handler
	events  kiosksync.Events
	liner   *liner.State
}

func (k *kioskSession) run() error {
	k.liner = liner.NewLiner()
	defer k.liner.Close()

	k.liner.SetCtrlCAborts(true)

	fmt.Println("Welcome! Type your student ID or name to sign in.")
	fmt.Println()

	for {
		line, err := k.liner.Prompt("sign in> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if k.cfg.AdminWord != "" && line == k.cfg.AdminWord {
			k.startUpload()
			continue
		}

		k.handleEntry(line)
	}
}

// startUpload kicks off a background reconciliation of today's folder.
func (k *kioskSession) startUpload() {
	if k.runner == nil {
		fmt.Printf("%s Upload is not configured (set remote_dir)\n", ui.RenderWarn("⚠"))
		return
	}
	h := k.runner.Start(today())
	fmt.Printf("%s Upload started for %s (run %s)\n", ui.RenderAccent("🔄"), h.Date, h.ID)
}

// handleEntry resolves one line of input to a student and signs them in.
func (k *kioskSession) handleEntry(line string) {
	if k.roster == nil {
		// Without a roster the input is the ID and the kiosk asks
		// for the name.
		name, err := k.liner.Prompt("name> ")
		if err != nil {
			fmt.Println()
			return
		}
		k.signIn(line, strings.TrimSpace(name))
		return
	}

	if s, ok := k.roster.Find(line); ok {
		k.signIn(s.ID, s.Name)
		return
	}

	matches := k.roster.Search(line)
	switch len(matches) {
	case 0:
		fmt.Printf("%s No student matches %q\n", ui.RenderWarn("⚠"), line)
	case 1:
		k.signIn(matches[0].ID, matches[0].Name)
	default:
		fmt.Printf("%s %d students match %q:\n", ui.RenderWarn("⚠"), len(matches), line)
		for i, s := range matches {
			if i >= 5 {
				fmt.Printf("   %s\n", ui.RenderDim("..."))
				break
			}
			fmt.Printf("   %s  %s\n", s.ID, s.Name)
		}
		fmt.Println("   Type the exact ID to sign in.")
	}
}

// signIn captures a photo (best effort) and appends the record.
func (k *kioskSession) signIn(id, name string) {
	if id == "" || name == "" {
		fmt.Printf("%s ID and name are required\n", ui.RenderWarn("⚠"))
		return
	}

	photo := k.capture()

	rec, err := k.st.Append(id, name, time.Now(), photo)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			fmt.Printf("%s %s is already signed in today\n", ui.RenderWarn("⚠"), name)
			return
		}
		fmt.Printf("%s Sign-in failed: %v\n", ui.RenderFail("✗"), err)
		return
	}

	if k.handler != nil {
		k.handler.OnSignIn(rec)
	}

	marker := ui.RenderPass("✓")
	if rec.Photo == "" {
		fmt.Printf("%s Signed in %s at %s %s\n", marker, rec.Name,
			rec.Time.Format("15:04"), ui.RenderDim("(no photo)"))
	} else {
		fmt.Printf("%s Signed in %s at %s\n", marker, rec.Name, rec.Time.Format("15:04"))
	}
}

// capture grabs a webcam frame. Failures don't block the sign-in.
func (k *kioskSession) capture() []byte {
	ctx, cancel := context.WithTimeout(context.Background(), k.captureTimeout())
	defer cancel()

	photo, err := k.cam.Capture(ctx)
	if err != nil {
		if k.cfg.CameraBin != "" {
			fmt.Printf("%s Photo capture failed: %v\n", ui.RenderWarn("⚠"), err)
		}
		return nil
	}
	return photo
}

func (k *kioskSession) captureTimeout() time.Duration {
	if k.cfg.CameraTimeout > 0 {
		return k.cfg.CameraTimeout + time.Second
	}
	return 15 * time.Second
}

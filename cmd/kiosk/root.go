package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gnomeskillet/signin-kiosk/internal/config"
	"github.com/gnomeskillet/signin-kiosk/internal/media"
	"github.com/gnomeskillet/signin-kiosk/internal/remote"
	"github.com/gnomeskillet/signin-kiosk/internal/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "kiosk",
	Short: "Student sign-in kiosk",
	Long: `Attendance kiosk for the front desk.

Students sign in by ID or name; each sign-in is appended to a daily CSV
log alongside a webcam photo. The day's folder is reconciled against a
shared upload directory either on demand (kiosk sync) or continuously
(kiosk daemon).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: ./kiosk.yaml, /etc/signin-kiosk/kiosk.yaml)")
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// resolveStore locates the storage base (removable drive preferred) and
// opens the record store on it.
func resolveStore(cfg *config.Config, logger *log.Logger) *store.Store {
	loc := media.Default()
	if cfg.DataDir != "" {
		loc.Preferred = cfg.DataDir
	}
	if cfg.FallbackDir != "" {
		loc.Fallback = cfg.FallbackDir
	}
	if len(cfg.MountRoots) > 0 {
		loc.MountRoots = cfg.MountRoots
	}

	base, err := loc.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: no writable storage location: %v\n", err)
		os.Exit(1)
	}
	return store.New(base, logger)
}

// resolveRemote opens the configured upload destination.
func resolveRemote(cfg *config.Config) remote.Storage {
	if cfg.RemoteDir == "" {
		fmt.Fprintf(os.Stderr, "Error: remote_dir is not configured\n")
		os.Exit(1)
	}
	return remote.NewDirStorage(cfg.RemoteDir)
}

func stderrLogger(prefix string) *log.Logger {
	return log.New(os.Stderr, "["+prefix+"] ", log.LstdFlags)
}

// archivePath resolves the reporting database location, defaulting to
// a file next to the day folders.
func archivePath(cfg *config.Config, st *store.Store) string {
	if cfg.ArchivePath != "" {
		return cfg.ArchivePath
	}
	return filepath.Join(st.Root(), "archive.db")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

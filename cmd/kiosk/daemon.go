package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/gnomeskillet/signin-kiosk/internal/daemon"
	"github.com/gnomeskillet/signin-kiosk/internal/dashboard"
	"github.com/gnomeskillet/signin-kiosk/internal/kiosksync"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the auto-upload daemon (foreground)",
	Long: `Run the background uploader in foreground mode.

The daemon watches the day folder for changes and uploads after a short
quiet period, plus on a fixed interval so the remote side never drifts
far even without new sign-ins. It is meant to run alongside the sign-in
prompt, typically under a process manager.

With dashboard_addr configured, a WebSocket monitoring endpoint
broadcasts upload progress in real time.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		logger := stderrLogger("kioskd")
		if cfg.LogFile != "" {
			w := &lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxBackups: 5,
				MaxSize:    10, // megabytes
				MaxAge:     60, // days
			}
			logger = log.New(io.MultiWriter(os.Stderr, w), "[kioskd] ", log.LstdFlags)
		}

		st := resolveStore(cfg, logger)
		rs := resolveRemote(cfg)

		events := kiosksync.Events(kiosksync.NopEvents{})
		if cfg.DashboardAddr != "" {
			server := dashboard.NewServer(&dashboard.Config{
				Addr:   cfg.DashboardAddr,
				Logger: logger,
			})
			if err := server.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "Error starting dashboard: %v\n", err)
				os.Exit(1)
			}
			defer server.Stop()

			handler := dashboard.NewHandler(server, logger)
			if day, err := st.Load(today()); err == nil {
				handler.UpdateStats(day)
			}
			events = handler
			fmt.Printf("Dashboard: ws://%s/ws\n", server.GetAddr())
		}

		runner := kiosksync.NewRunner(st, rs, events, logger)

		dcfg := daemon.DefaultConfig()
		dcfg.SyncInterval = cfg.SyncInterval
		dcfg.DebounceInterval = cfg.DebounceInterval
		dcfg.Logger = logger

		d, err := daemon.New(st, runner, dcfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating daemon: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Watching %s, uploading to %s\n", st.Root(), cfg.RemoteDir)
		fmt.Println("Press Ctrl+C to stop")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := d.Run(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Daemon stopped with error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

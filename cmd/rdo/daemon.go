package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/example/rdo/internal/daemon"
	"github.com/example/rdo/internal/dashboard"
)

var daemonForeground bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the sync daemon (foreground)",
	Long: `Start the sync daemon.

The daemon will:
  1. Run a sync pass on boot and on a fixed interval
  2. Watch the store file for writes from other processes
  3. Retry quickly while offline and sync as soon as connectivity returns
  4. Refresh store stats for dashboard clients

Press Ctrl+C to stop.`,
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.close()

		logger := log.New(os.Stderr, "[daemon] ", log.LstdFlags)
		if !daemonForeground && a.cfg.LogFile != "" {
			logger = log.New(&lumberjack.Logger{
				Filename:   a.cfg.LogFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     30, // days
			}, "[daemon] ", log.LstdFlags)
		}

		cfg := daemon.DefaultConfig()
		cfg.SyncInterval = a.cfg.SyncInterval
		cfg.DebounceInterval = a.cfg.Debounce
		cfg.Logger = logger

		d, err := daemon.New(a.store, a.syncer, cfg)
		if err != nil {
			fatal("creating daemon: %v", err)
		}

		accent.Println("Starting sync daemon...")
		fmt.Printf("   Store: %s\n", a.store.Path())
		fmt.Printf("   Sync interval: %s\n", cfg.SyncInterval)
		fmt.Printf("\nPress Ctrl+C to stop\n\n")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := d.Start(ctx); err != nil {
			fatal("daemon stopped with error: %v", err)
		}
	},
}

var dashboardPort int

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Start the sync daemon with a WebSocket dashboard",
	Long: `Run the sync daemon and serve a dashboard alongside it.

Endpoints:
  /ws          WebSocket stream of sync results and store stats
  /health      liveness check
  /api/status  current store statistics and sync state`,
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.close()

		port := dashboardPort
		if port == 0 {
			port = a.cfg.DashboardPort
		}

		srv := dashboard.NewServer(a.store, a.syncer, &dashboard.Config{
			Port:   port,
			Logger: log.New(os.Stderr, "[dashboard] ", log.LstdFlags),
		})
		if err := srv.Start(); err != nil {
			fatal("starting dashboard: %v", err)
		}
		defer srv.Stop()

		d, err := daemon.New(a.store, a.syncer, &daemon.Config{
			SyncInterval:     a.cfg.SyncInterval,
			StatsInterval:    daemon.DefaultConfig().StatsInterval,
			DebounceInterval: a.cfg.Debounce,
			ProbeInterval:    daemon.DefaultConfig().ProbeInterval,
			Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
		})
		if err != nil {
			fatal("creating daemon: %v", err)
		}
		d.OnResult = srv.PublishResult
		d.OnStats = srv.PublishStats

		accent.Println("Dashboard running")
		fmt.Printf("   http://localhost:%d  (ws at /ws)\n", port)
		fmt.Printf("\nPress Ctrl+C to stop\n\n")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := d.Start(ctx); err != nil {
			fatal("daemon stopped with error: %v", err)
		}
	},
}

func init() {
	daemonCmd.Flags().BoolVar(&daemonForeground, "foreground", false, "log to stderr instead of the rotating log file")
	dashboardCmd.Flags().IntVar(&dashboardPort, "port", 0, "dashboard port (default from config)")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(dashboardCmd)
}

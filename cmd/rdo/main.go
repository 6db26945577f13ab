// Command rdo is the shift-report logbook CLI: offline-first local store,
// pending-issue inheritance and bidirectional sync against the remote store.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/rdo/internal/config"
	"github.com/example/rdo/internal/inherit"
	"github.com/example/rdo/internal/remote"
	"github.com/example/rdo/internal/report"
	"github.com/example/rdo/internal/store"
	"github.com/example/rdo/internal/sync"
)

var (
	accent = color.New(color.FgCyan, color.Bold)
	warn   = color.New(color.FgYellow)
	okMark = color.New(color.FgGreen)
	errTag = color.New(color.FgRed, color.Bold)
)

var rootCmd = &cobra.Command{
	Use:   "rdo",
	Short: "Offline-first shift report logbook",
	Long: `rdo keeps shift reports (relatórios de turno) in a local SQLite store,
carries open issues forward between shifts, and reconciles everything with
the remote store when connectivity allows.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func fatal(format string, args ...any) {
	errTag.Fprintf(os.Stderr, "Error: ")
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// app bundles the wired components a command needs.
type app struct {
	cfg     *config.Config
	store   *store.Store
	remote  remote.Store
	syncer  *sync.Syncer
	service *report.Service
}

// openApp loads config and wires the store, remote, syncer and service.
// Without remote credentials the in-memory remote backs a local-only mode:
// every sync succeeds against an empty snapshot.
func openApp() *app {
	cfg, err := config.Load()
	if err != nil {
		fatal("%v", err)
	}
	st, err := store.Open(cfg.StorePath)
	if err != nil {
		fatal("opening store: %v", err)
	}

	var rem remote.Store
	if cfg.Online() {
		token := func(ctx context.Context) (string, error) { return cfg.AccessToken, nil }
		rem = remote.NewClient(cfg.RemoteURL, cfg.APIKey, token, nil)
	} else {
		rem = remote.NewMemory()
	}

	logger := log.New(os.Stderr, "[rdo] ", log.LstdFlags)
	syncer := sync.New(st, rem, logger)
	svc := report.NewService(st, inherit.New(st, logger), syncer, logger)

	return &app{cfg: cfg, store: st, remote: rem, syncer: syncer, service: svc}
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		warn.Fprintf(os.Stderr, "Warning: closing store: %v\n", err)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/rdo/internal/export"
	"github.com/example/rdo/internal/remote"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <report-id>",
	Short: "Export a report as a plain-text document",
	Long: `Build the document projection of a report (activities in time order,
pendings split into inherited and new, priority-sorted) and write it as
plain text. The suggested PDF filename is printed for downstream tooling.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.close()

		r, activities, pendings, err := a.service.Detail(context.Background(), args[0])
		if err != nil {
			fatal("%v", err)
		}
		if r == nil {
			fatal("report %s not found", args[0])
		}

		doc := export.BuildDocument(*r, activities, pendings)

		out := os.Stdout
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				fatal("creating %s: %v", exportOut, err)
			}
			defer f.Close()
			out = f
		}
		if err := export.Render(out, doc); err != nil {
			fatal("rendering: %v", err)
		}
		if exportOut != "" {
			okMark.Printf("✓ ")
			fmt.Printf("Wrote %s (suggested PDF name: %s)\n", exportOut, doc.Filename)
		}
	},
}

var (
	adminPassword string
	adminAll      bool
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Privileged remote operations",
}

var adminDeleteCmd = &cobra.Command{
	Use:   "delete [report-id]...",
	Short: "Purge report rows from the remote store",
	Long: `Call the privileged purge function on the remote. Authenticates with the
shared admin password, not the user session. With --all every report is
purged; otherwise only the listed ids. Local stores of all devices pick
the purge up on their next sync.`,
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.close()

		client, ok := a.remote.(*remote.Client)
		if !ok {
			fatal("admin operations need remote credentials configured")
		}
		password := adminPassword
		if password == "" {
			password = a.cfg.AdminPassword
		}

		mode := remote.DeleteIDs
		if adminAll {
			mode = remote.DeleteAll
		} else if len(args) == 0 {
			fatal("pass report ids or --all")
		}

		fmt.Printf("About to purge %s from the remote. Type 'yes' to continue: ",
			purgeScope(mode, args))
		var confirm string
		fmt.Fscanln(os.Stdin, &confirm)
		if strings.ToLower(strings.TrimSpace(confirm)) != "yes" {
			fmt.Println("Aborted.")
			return
		}

		n, err := client.AdminDeleteReports(context.Background(), password, mode, args)
		if err != nil {
			fatal("%v", err)
		}
		okMark.Printf("✓ ")
		fmt.Printf("Purged %d report(s) remotely\n", n)
	},
}

func purgeScope(mode remote.DeleteMode, ids []string) string {
	if mode == remote.DeleteAll {
		return "ALL reports"
	}
	return fmt.Sprintf("%d report(s)", len(ids))
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	adminDeleteCmd.Flags().StringVar(&adminPassword, "password", "", "admin password (default from config)")
	adminDeleteCmd.Flags().BoolVar(&adminAll, "all", false, "purge every report")

	adminCmd.AddCommand(adminDeleteCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(adminCmd)
}

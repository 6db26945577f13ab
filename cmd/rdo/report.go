package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/rdo/internal/schema"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Create, list, finalize and delete shift reports",
}

var (
	reportNewDate  string
	reportNewShift string
)

var reportNewCmd = &cobra.Command{
	Use:   "new <shift-letter>",
	Short: "Open a new draft report for a crew",
	Long: `Open a new draft report for the given crew, e.g. "4x4 A" or "3x2 B".

Open issues from the latest synced report of each sibling crew in the same
rotation are carried into the new draft automatically.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.close()

		shift := schema.ShiftDiurno
		if strings.EqualFold(reportNewShift, string(schema.ShiftNoturno)) {
			shift = schema.ShiftNoturno
		}
		date := reportNewDate
		if date == "" {
			date = time.Now().Format("2006-01-02")
		}

		r, err := a.service.CreateReport(context.Background(), a.cfg.UserID, date, shift, schema.ShiftLetter(args[0]))
		if err != nil {
			fatal("%v", err)
		}
		okMark.Printf("✓ ")
		fmt.Printf("Created draft %s (%s, %s %s–%s)\n", r.ID, r.ShiftLetter, r.Date, r.StartTime, r.EndTime)
	},
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reports, drafts first",
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.close()

		summaries, err := a.service.Overview(context.Background())
		if err != nil {
			fatal("%v", err)
		}
		if len(summaries) == 0 {
			fmt.Println("No reports yet. Create one with 'rdo report new'.")
			return
		}

		accent.Println("ID                                    DATE        SHIFT    STATUS        ACT  OPEN")
		for _, s := range summaries {
			r := s.Report
			line := fmt.Sprintf("%-37s %-11s %-8s %-13s %3d  %3d",
				r.ID, r.Date, r.ShiftLetter, r.Status, s.Activities, s.OpenPendings)
			if r.Status == schema.StatusRascunho {
				warn.Println(line)
			} else {
				fmt.Println(line)
			}
		}
	},
}

var reportShowCmd = &cobra.Command{
	Use:   "show <report-id>",
	Short: "Show a report with its activities and pendings",
	Args:  cobra.ExactArgs(1),
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

		accent.Printf("Report %s\n", r.ID)
		fmt.Printf("  %s  %s (%s)  %s–%s  [%s]\n", r.Date, r.Shift, r.ShiftLetter, r.StartTime, r.EndTime, r.Status)
		if r.SignatureName != "" {
			fmt.Printf("  Signed: %s\n", r.SignatureName)
		}

		fmt.Printf("\nActivities (%d)\n", len(activities))
		for _, act := range activities {
			fmt.Printf("  %s  %s  (%s)\n", act.Time, act.Description, act.ID)
		}

		fmt.Printf("\nPendings (%d)\n", len(pendings))
		for _, p := range pendings {
			marker := " "
			if p.Origin == schema.OriginHerdada {
				marker = "↺"
			}
			fmt.Printf("  %s [%s] %-12s %s  (%s)\n", marker, p.Priority, p.Status, p.Description, p.ID)
		}
	},
}

var finalizeSignature string

var reportFinalizeCmd = &cobra.Command{
	Use:   "finalize <report-id>",
	Short: "Finalize a draft and queue it for upload",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.close()

		if err := a.service.Finalize(context.Background(), args[0], finalizeSignature); err != nil {
			fatal("%v", err)
		}
		okMark.Printf("✓ ")
		fmt.Printf("Report %s finalized and queued for upload\n", args[0])
	},
}

var reportDeleteCmd = &cobra.Command{
	Use:   "delete <report-id>...",
	Short: "Soft-delete reports (undo stays available for ~5s)",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.close()

		if err := a.service.SoftDeleteReports(context.Background(), args); err != nil {
			fatal("%v", err)
		}
		warn.Printf("Deleted %d report(s). ", len(args))
		fmt.Println("Press Enter within 5s to undo, Ctrl+C to keep.")

		undone := make(chan struct{})
		go func() {
			var discard string
			fmt.Fscanln(os.Stdin, &discard)
			close(undone)
		}()
		select {
		case <-undone:
			ok, err := a.service.UndoDelete(context.Background())
			if err != nil {
				fatal("undo failed: %v", err)
			}
			if ok {
				okMark.Println("✓ Restored")
			} else {
				fmt.Println("Undo window already expired.")
			}
		case <-time.After(6 * time.Second):
			fmt.Println("Deletion kept.")
		}
	},
}

func init() {
	reportNewCmd.Flags().StringVar(&reportNewDate, "date", "", "report date (YYYY-MM-DD, default today)")
	reportNewCmd.Flags().StringVar(&reportNewShift, "shift", "DIURNO", "shift period: DIURNO or NOTURNO")
	reportFinalizeCmd.Flags().StringVar(&finalizeSignature, "signed-by", "", "signature name (required)")
	_ = reportFinalizeCmd.MarkFlagRequired("signed-by")

	reportCmd.AddCommand(reportNewCmd)
	reportCmd.AddCommand(reportListCmd)
	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportFinalizeCmd)
	reportCmd.AddCommand(reportDeleteCmd)
	rootCmd.AddCommand(reportCmd)
}

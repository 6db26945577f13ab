package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/rdo/internal/schema"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Manage activities on a draft report",
}

var activityTime string

var activityAddCmd = &cobra.Command{
	Use:   "add <report-id> <description>",
	Short: "Append an activity to a draft report",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.close()

		act, err := a.service.AddActivity(context.Background(), args[0], activityTime, args[1])
		if err != nil {
			fatal("%v", err)
		}
		okMark.Printf("✓ ")
		fmt.Printf("Activity %s added at %s\n", act.ID, act.Time)
	},
}

var activityRmCmd = &cobra.Command{
	Use:   "rm <report-id> <activity-id>",
	Short: "Remove an activity from a draft report",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.close()

		if err := a.service.RemoveActivity(context.Background(), args[0], args[1]); err != nil {
			fatal("%v", err)
		}
		okMark.Printf("✓ ")
		fmt.Println("Activity removed")
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Manage pending issues",
}

var pendingPriority string

var pendingAddCmd = &cobra.Command{
	Use:   "add <report-id> <description>",
	Short: "Record a new issue on a draft report",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.close()

		prio := schema.Priority(strings.ToUpper(pendingPriority))
		p, err := a.service.AddPending(context.Background(), args[0], prio, args[1])
		if err != nil {
			fatal("%v", err)
		}
		okMark.Printf("✓ ")
		fmt.Printf("Pending %s recorded [%s]\n", p.ID, p.Priority)
	},
}

var pendingResolveCmd = &cobra.Command{
	Use:   "resolve <report-id> <pending-key>",
	Short: "Resolve an issue everywhere it appears",
	Long: `Resolve flips every copy of the issue to RESOLVIDO, across all reports
that hold it, so it never comes back through inheritance.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.close()

		if err := a.service.ResolvePending(context.Background(), args[0], args[1]); err != nil {
			fatal("%v", err)
		}
		okMark.Printf("✓ ")
		fmt.Println("Issue resolved everywhere")
	},
}

var pendingRmCmd = &cobra.Command{
	Use:   "rm <pending-id>",
	Short: "Resolve an issue everywhere and hide this copy",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp()
		defer a.close()

		if err := a.service.RemovePending(context.Background(), args[0]); err != nil {
			fatal("%v", err)
		}
		okMark.Printf("✓ ")
		fmt.Println("Issue resolved and hidden; holding reports queued for upload")
	},
}

func init() {
	activityAddCmd.Flags().StringVar(&activityTime, "time", "", "time of day (HH:mm, required)")
	_ = activityAddCmd.MarkFlagRequired("time")
	pendingAddCmd.Flags().StringVar(&pendingPriority, "priority", "MEDIA", "URGENTE, ALTA, MEDIA or BAIXA")

	activityCmd.AddCommand(activityAddCmd)
	activityCmd.AddCommand(activityRmCmd)
	pendingCmd.AddCommand(pendingAddCmd)
	pendingCmd.AddCommand(pendingResolveCmd)
	pendingCmd.AddCommand(pendingRmCmd)
	rootCmd.AddCommand(activityCmd)
	rootCmd.AddCommand(pendingCmd)
}

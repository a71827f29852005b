package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/attendance"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Inspect the attendance ledger",
}

var attendanceTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show who has been marked today",
	Args:  cobra.NoArgs,
	RunE:  runAttendanceToday,
}

var attendanceHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the full attendance history",
	Long: `Show every attendance record ever made, oldest first.

Examples:
  face-attendance attendance history
  face-attendance attendance history --id E001
  face-attendance attendance history --date 2024-03-01 --json`,
	Args: cobra.NoArgs,
	RunE: runAttendanceHistory,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
	attendanceCmd.AddCommand(attendanceTodayCmd, attendanceHistoryCmd)

	attendanceTodayCmd.Flags().Bool("json", false, "Output as JSON")
	attendanceHistoryCmd.Flags().Bool("json", false, "Output as JSON")
	attendanceHistoryCmd.Flags().String("id", "", "Only records of this identity")
	attendanceHistoryCmd.Flags().String("date", "", "Only records of this date (YYYY-MM-DD)")
}

func runAttendanceToday(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.engine.Today(ctx)
	if err != nil {
		return err
	}
	if mustGetBool(cmd, "json") {
		return printJSON(toRecordOutputs(records))
	}
	if len(records) == 0 {
		fmt.Println("Nobody marked today")
		return nil
	}
	printRecords(records)
	fmt.Printf("\nPresent: %d\n", len(records))
	return nil
}

func runAttendanceHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.engine.History(ctx, attendance.HistoryFilter{
		IdentityID: mustGetString(cmd, "id"),
		Date:       mustGetString(cmd, "date"),
	})
	if err != nil {
		return err
	}
	if mustGetBool(cmd, "json") {
		return printJSON(toRecordOutputs(records))
	}
	if len(records) == 0 {
		fmt.Println("No attendance records")
		return nil
	}
	printRecords(records)
	return nil
}

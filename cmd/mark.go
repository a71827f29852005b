package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/attendance"
)

var markCmd = &cobra.Command{
	Use:   "mark <image>",
	Short: "Record attendance from a capture",
	Long: `Detect the first face in a capture, recognize it among the enrolled
identities and record attendance once per person per day.

Examples:
  face-attendance mark capture.jpg
  face-attendance mark --threshold 0.35 --json capture.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runMark,
}

func init() {
	rootCmd.AddCommand(markCmd)

	markCmd.Flags().Float64("threshold", 0, "Recognition distance threshold (0 = configured default)")
	markCmd.Flags().Bool("json", false, "Output as JSON")
}

func runMark(cmd *cobra.Command, args []string) error {
	image, err := readImageFile(args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.engine.Mark(ctx, attendance.MarkRequest{
		Image:     image,
		Threshold: mustGetFloat64(cmd, "threshold"),
	})
	if err != nil {
		return fmt.Errorf("attendance failed: %w", err)
	}

	if mustGetBool(cmd, "json") {
		return printJSON(markOutput(result))
	}

	switch result.Outcome {
	case attendance.OutcomeNoFaceDetected:
		fmt.Println("No face detected")
	case attendance.OutcomeNotRecognized:
		fmt.Println("Face not recognized")
	case attendance.OutcomeAlreadyMarked:
		fmt.Printf("%s (%s) already marked today at %s\n",
			result.Identity.Name, result.Identity.ID, result.Record.Time)
		fmt.Printf("Match distance: %.4f\n", result.Distance)
	case attendance.OutcomeMarked:
		fmt.Printf("Attendance marked for %s (%s) on %s at %s\n",
			result.Identity.Name, result.Identity.ID, result.Record.Date, result.Record.Time)
		fmt.Printf("Match distance: %.4f\n", result.Distance)
	}
	if result.FacesDetected > 1 {
		fmt.Printf("Note: %d faces detected, only the first was used\n", result.FacesDetected)
	}
	return nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/attendance"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <image>",
	Short: "Enroll a person from a photo of their face",
	Long: `Enroll a new identity. The photo must contain exactly one face, the id
must be unused and the face must not already be enrolled under another id.

Examples:
  face-attendance enroll --name "Jane Doe" --id E001 jane.jpg

  # Stricter duplicate-face check for this enrollment only
  face-attendance enroll --name "John Smith" --id E002 --threshold 0.3 john.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("name", "", "Display name of the person (required)")
	enrollCmd.Flags().String("id", "", "Unique identifier, e.g. employee number (required)")
	enrollCmd.Flags().Float64("threshold", 0, "Duplicate-face distance threshold (0 = configured default)")
	enrollCmd.MarkFlagRequired("name")
	enrollCmd.MarkFlagRequired("id")
}

func runEnroll(cmd *cobra.Command, args []string) error {
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

	identity, err := a.engine.Enroll(ctx, attendance.EnrollRequest{
		Name:      mustGetString(cmd, "name"),
		ID:        mustGetString(cmd, "id"),
		Image:     image,
		Threshold: mustGetFloat64(cmd, "threshold"),
	})
	if err != nil {
		var dup *attendance.DuplicateFaceError
		if errors.As(err, &dup) {
			return fmt.Errorf("enrollment rejected: this face is already enrolled as %s (%s), distance %.4f",
				dup.ExistingName, dup.ExistingID, dup.Distance)
		}
		return fmt.Errorf("enrollment failed: %w", err)
	}

	fmt.Printf("Enrolled %s (%s)\n", identity.Name, identity.ID)
	return nil
}

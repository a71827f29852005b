package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

type identityOutput struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Dim        int    `json:"dim"`
	EnrolledAt string `json:"enrolled_at,omitempty"`
}

func toIdentityOutput(identity database.Identity) identityOutput {
	out := identityOutput{ID: identity.ID, Name: identity.Name, Dim: len(identity.Embedding)}
	if !identity.EnrolledAt.IsZero() {
		out.EnrolledAt = identity.EnrolledAt.Format("2006-01-02 15:04:05")
	}
	return out
}

type recordOutput struct {
	IdentityID string `json:"id"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

type markResultOutput struct {
	Outcome       attendance.Outcome `json:"outcome"`
	Identity      *identityOutput    `json:"identity,omitempty"`
	Distance      *float64           `json:"distance,omitempty"`
	Record        *recordOutput      `json:"record,omitempty"`
	FacesDetected int                `json:"faces_detected"`
}

func markOutput(result *attendance.MarkResult) markResultOutput {
	out := markResultOutput{Outcome: result.Outcome, FacesDetected: result.FacesDetected}
	if result.Identity != nil {
		identity := toIdentityOutput(*result.Identity)
		distance := result.Distance
		out.Identity = &identity
		out.Distance = &distance
	}
	if result.Record != nil {
		record := recordOutput(*result.Record)
		out.Record = &record
	}
	return out
}

// printIdentities writes identities as an aligned table.
func printIdentities(identities []database.Identity) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDIM\tENROLLED")
	for _, identity := range identities {
		out := toIdentityOutput(identity)
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", out.ID, out.Name, out.Dim, out.EnrolledAt)
	}
	w.Flush()
}

// printRecords writes attendance records as an aligned table.
func printRecords(records []database.AttendanceRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTIME\tID\tNAME")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Date, r.Time, r.IdentityID, r.Name)
	}
	w.Flush()
}

func toRecordOutputs(records []database.AttendanceRecord) []recordOutput {
	out := make([]recordOutput, len(records))
	for i, r := range records {
		out[i] = recordOutput(r)
	}
	return out
}

func toIdentityOutputs(identities []database.Identity) []identityOutput {
	out := make([]identityOutput, len(identities))
	for i := range identities {
		out[i] = toIdentityOutput(identities[i])
	}
	return out
}

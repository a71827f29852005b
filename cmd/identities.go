package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var identitiesCmd = &cobra.Command{
	Use:   "identities",
	Short: "Inspect enrolled identities",
}

var identitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all enrolled identities in enrollment order",
	Args:  cobra.NoArgs,
	RunE:  runIdentitiesList,
}

var identitiesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single identity",
	Args:  cobra.ExactArgs(1),
	RunE:  runIdentitiesShow,
}

var identitiesFindCmd = &cobra.Command{
	Use:   "find <name>",
	Short: "Find identities by name",
	Long: `Find identities whose name contains the query. Matching ignores case
and diacritics, so "novak" finds "Jiří Novák".`,
	Args: cobra.ExactArgs(1),
	RunE: runIdentitiesFind,
}

var identitiesSimilarCmd = &cobra.Command{
	Use:   "similar <image>",
	Short: "List the enrolled identities nearest to a face",
	Long: `Show the enrolled identities closest to the first face in an image together
with their distances and whether they fall within the enrollment and
recognition thresholds. Useful for tuning thresholds; nothing is recorded.`,
	Args: cobra.ExactArgs(1),
	RunE: runIdentitiesSimilar,
}

func init() {
	rootCmd.AddCommand(identitiesCmd)
	identitiesCmd.AddCommand(identitiesListCmd, identitiesShowCmd, identitiesFindCmd, identitiesSimilarCmd)

	for _, c := range []*cobra.Command{identitiesListCmd, identitiesShowCmd, identitiesFindCmd, identitiesSimilarCmd} {
		c.Flags().Bool("json", false, "Output as JSON")
	}
	identitiesSimilarCmd.Flags().Int("limit", 5, "Number of neighbours to show")
}

func runIdentitiesList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	identities, err := a.engine.Identities(ctx)
	if err != nil {
		return err
	}
	if mustGetBool(cmd, "json") {
		return printJSON(toIdentityOutputs(identities))
	}
	if len(identities) == 0 {
		fmt.Println("No identities enrolled")
		return nil
	}
	printIdentities(identities)
	fmt.Printf("\nTotal: %d\n", len(identities))
	return nil
}

func runIdentitiesShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	identity, err := a.engine.Identity(ctx, args[0])
	if err != nil {
		return fmt.Errorf("identity %s: %w", args[0], err)
	}
	out := toIdentityOutput(*identity)
	if mustGetBool(cmd, "json") {
		return printJSON(out)
	}
	fmt.Printf("ID:       %s\n", out.ID)
	fmt.Printf("Name:     %s\n", out.Name)
	fmt.Printf("Dim:      %d\n", out.Dim)
	if out.EnrolledAt != "" {
		fmt.Printf("Enrolled: %s\n", out.EnrolledAt)
	}
	return nil
}

func runIdentitiesFind(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	identities, err := a.engine.FindByName(ctx, args[0])
	if err != nil {
		return err
	}
	if mustGetBool(cmd, "json") {
		return printJSON(toIdentityOutputs(identities))
	}
	if len(identities) == 0 {
		fmt.Printf("No identities match %q\n", args[0])
		return nil
	}
	printIdentities(identities)
	return nil
}

type neighbourOutput struct {
	identityOutput
	Distance        float64 `json:"distance"`
	WithinEnroll    bool    `json:"within_enroll_threshold"`
	WithinRecognize bool    `json:"within_recognize_threshold"`
}

func runIdentitiesSimilar(cmd *cobra.Command, args []string) error {
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

	neighbours, err := a.engine.Similar(ctx, image, mustGetInt(cmd, "limit"))
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		out := make([]neighbourOutput, len(neighbours))
		for i, n := range neighbours {
			out[i] = neighbourOutput{
				identityOutput:  toIdentityOutput(n.Identity),
				Distance:        n.Distance,
				WithinEnroll:    n.WithinEnroll,
				WithinRecognize: n.WithinRecognize,
			}
		}
		return printJSON(out)
	}

	if len(neighbours) == 0 {
		fmt.Println("No identities enrolled")
		return nil
	}

	settings := a.engine.Settings()
	fmt.Printf("Metric: %s, enroll threshold %.2f, recognize threshold %.2f\n\n",
		settings.Metric, settings.EnrollThreshold, settings.RecognizeThreshold)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDISTANCE\tDUPLICATE\tRECOGNIZED")
	for _, n := range neighbours {
		fmt.Fprintf(w, "%s\t%s\t%.4f\t%s\t%s\n",
			n.Identity.ID, n.Identity.Name, n.Distance, yesNo(n.WithinEnroll), yesNo(n.WithinRecognize))
	}
	w.Flush()
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

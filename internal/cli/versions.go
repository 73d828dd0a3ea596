package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mcman-io/mcman/internal/engine"
	"github.com/mcman-io/mcman/internal/eval"
	"github.com/spf13/cobra"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List catalog versions",
	Long:  `Lists the game versions in the catalog, newest first, with their Java runtime and mod counts.`,
	Args:  cobra.NoArgs,
	RunE:  runVersions,
}

func runVersions(cmd *cobra.Command, args []string) error {
	cat, err := eval.NewEvaluator(configDir).LoadCatalog(cmd.Context())
	if err != nil {
		return err
	}

	versions := engine.ListVersions(cat)
	if len(versions) == 0 {
		fmt.Println("The catalog has no versions.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tJAVA\tSERVER\tMOD LOADER\tMODS")
	for _, v := range versions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", v.ID, orDash(v.Java), yesNo(v.Server), yesNo(v.ModLoader), v.Mods)
	}
	return w.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

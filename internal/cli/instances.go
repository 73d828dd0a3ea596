package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/mcman-io/mcman/internal/eval"
	"github.com/spf13/cobra"
)

var instancesCmd = &cobra.Command{
	Use:   "instances",
	Short: "List declared instances",
	Long:  `Lists the instances declared in the config document. The active instance is marked with *.`,
	Args:  cobra.NoArgs,
	RunE:  runInstances,
}

func runInstances(cmd *cobra.Command, args []string) error {
	cfg, err := eval.NewEvaluator(configDir).LoadConfig(cmd.Context())
	if err != nil {
		return err
	}

	if len(cfg.Instances) == 0 {
		fmt.Println("No instances declared.")
		return nil
	}

	names := make([]string, 0, len(cfg.Instances))
	for name := range cfg.Instances {
		names = append(names, name)
	}
	sort.Strings(names)

	active := cfg.Active()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tNAME\tVERSION\tMOD LOADER\tMODS\tCOMMAND")
	for _, name := range names {
		inst := cfg.Instances[name]
		marker := ""
		if name == active {
			marker = "*"
		}
		mods := "-"
		if len(inst.Mods) > 0 {
			mods = strings.Join(inst.Mods, ",")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", marker, name, inst.Version, yesNo(inst.ModLoader), mods, inst.Command)
	}
	return w.Flush()
}

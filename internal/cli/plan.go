package cli

import (
	"fmt"

	"github.com/mcman-io/mcman/internal/engine"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan [instance]",
	Short: "Show what install would do",
	Long: `Resolves an instance and lists every artifact it needs, marking the ones
already present on disk. Nothing is downloaded or written.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, cat, err := loadInputs(ctx)
	if err != nil {
		return err
	}

	fmt.Print("Resolving instance... ")
	plan, err := engine.BuildPlan(instanceArg(args), cfg, cat)
	if err != nil {
		fmt.Println("FAILED")
		return err
	}
	fmt.Println("OK")

	renderPlanHeader(plan)

	statuses, err := engine.Inspect(plan)
	if err != nil {
		return fmt.Errorf("failed to inspect install directories: %w", err)
	}

	fmt.Println("\nArtifacts:")
	fetches := renderArtifacts(statuses)

	fmt.Println("\nPlan Summary:")
	fmt.Printf("  Steps:      %d\n", len(engine.Steps(plan)))
	fmt.Printf("  Present:    %d\n", len(statuses)-fetches)
	fmt.Printf("  Will fetch: %d\n", fetches)
	return nil
}

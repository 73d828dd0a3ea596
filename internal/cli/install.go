package cli

import (
	"fmt"
	"time"

	"github.com/mcman-io/mcman/internal/engine"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install [instance]",
	Short: "Provision an instance",
	Long: `Installs the Java runtime, server or mod loader, mods and launch scripts for
an instance. Re-running is safe: verified artifacts already on disk are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInstall,
}

func runInstall(cmd *cobra.Command, args []string) error {
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

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("\nProvisioning %s...\n", plan.Instance.Name)
	start := time.Now()
	if err := eng.Apply(ctx, plan, renderApplyEvent); err != nil {
		return err
	}

	fmt.Printf("\n%sInstance %s is ready%s in %s (%s)\n",
		colorize(colorGreen), plan.Instance.Name, colorize(colorReset),
		plan.InstanceDir, time.Since(start).Round(time.Millisecond))
	fmt.Printf("Start it with: %s/screen.sh\n", plan.InstanceDir)
	return nil
}

func instanceArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

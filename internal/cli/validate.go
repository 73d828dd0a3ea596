package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mcman-io/mcman/internal/engine"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config directory",
	Long: `Loads the config, versions and mods documents and resolves every declared
instance against the catalog. Nothing is downloaded.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, cat, err := loadInputs(cmd.Context())
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	names := make([]string, 0, len(cfg.Instances))
	for name := range cfg.Instances {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		fmt.Printf("Checking instance %s... ", name)
		if _, err := engine.Resolve(name, cfg, cat); err != nil {
			fmt.Println("FAILED")
			fmt.Printf("  %s\n", err)
			errs = append(errs, err)
			continue
		}
		fmt.Println("OK")
	}

	if active := cfg.Active(); active != "" {
		if _, ok := cfg.Instances[active]; !ok {
			fmt.Printf("Active instance %s is not declared\n", active)
			errs = append(errs, fmt.Errorf("active instance %q is not declared", active))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d problem(s) found: %w", len(errs), errors.Join(errs...))
	}
	fmt.Println("\nConfiguration is valid!")
	return nil
}

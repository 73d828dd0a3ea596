package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/mcman-io/mcman/internal/engine"
	"github.com/mcman-io/mcman/internal/eval"
	"github.com/mcman-io/mcman/internal/fetch"
	"github.com/mcman-io/mcman/internal/install"
	"github.com/mcman-io/mcman/internal/ir"
	"github.com/mcman-io/mcman/internal/provider"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorDim    = "\033[2m"
)

// colorize returns code unless color output is disabled.
func colorize(code string) string {
	if noColor {
		return ""
	}
	return code
}

// loadInputs reads the config store and catalog from the config directory.
func loadInputs(ctx context.Context) (*ir.Config, *ir.Catalog, error) {
	evaluator := eval.NewEvaluator(configDir)

	fmt.Print("Loading configuration... ")
	cfg, err := evaluator.LoadConfig(ctx)
	if err != nil {
		fmt.Println("FAILED")
		return nil, nil, err
	}
	fmt.Println("OK")

	fmt.Print("Loading catalog... ")
	cat, err := evaluator.LoadCatalog(ctx)
	if err != nil {
		fmt.Println("FAILED")
		return nil, nil, err
	}
	fmt.Println("OK")

	return cfg, cat, nil
}

// newEngine wires sources, downloader and installer from the global flags.
func newEngine(cfg *ir.Config) (*engine.Engine, error) {
	rate, err := fetch.ParseRate(limitRate)
	if err != nil {
		return nil, err
	}

	registry := provider.NewRegistry(provider.Options{
		InsecureTLS: insecure || cfg.InsecureTLS,
		UserAgent:   "mcman/" + Version,
	})

	policy := fetch.DefaultRetryPolicy()
	policy.MaxRetries = retries

	downloader := fetch.NewDownloader(registry, fetch.Options{
		Timeout:    timeout,
		Retry:      policy,
		RateLimit:  rate,
		KeepFailed: keepFailed,
	})

	installer := install.New(downloader, install.ExecRunner{}, install.Options{Jobs: jobs})
	return engine.NewEngine(installer), nil
}

// renderPlanHeader prints what an instance resolved to.
func renderPlanHeader(plan *ir.Plan) {
	inst := plan.Instance
	kind := "vanilla server"
	if inst.ModLoader != nil {
		kind = fmt.Sprintf("mod loader with %d mod(s)", len(inst.Mods))
	}

	fmt.Printf("\nInstance %s (%s, %s)\n", inst.Name, inst.Version, kind)
	fmt.Printf("  Directory: %s\n", plan.InstanceDir)
	fmt.Printf("  Java:      %s (%s)\n", inst.Java.Name, plan.JavaHome())
	fmt.Printf("  Command:   %s\n", inst.Command)
	if inst.World != nil {
		fmt.Printf("  World:     %s\n", *inst.World)
	}
}

// renderArtifacts prints one line per artifact and returns how many would
// be fetched.
func renderArtifacts(statuses []engine.ArtifactStatus) int {
	fetches := 0
	for _, s := range statuses {
		marker := colorize(colorGreen) + "  present   " + colorize(colorReset)
		if !s.Present {
			marker = colorize(colorYellow) + "+ will fetch" + colorize(colorReset)
			fetches++
		}
		fmt.Printf("  %s  %-10s %s\n", marker, s.Step, s.File.Filename)
		fmt.Printf("  %s              %s  %s%s\n", colorize(colorDim), s.File.Src, s.File.SHA, colorize(colorReset))
	}
	return fetches
}

// renderApplyEvent prints one progress line per finished step.
func renderApplyEvent(e engine.ApplyEvent) {
	switch e.Status {
	case engine.StatusStarted:
		fmt.Printf("  %s... ", e.Step)
	case engine.StatusSkipped:
		fmt.Printf("%sup to date%s\n", colorize(colorDim), colorize(colorReset))
	case engine.StatusCompleted:
		fmt.Printf("%sdone%s (%s)\n", colorize(colorGreen), colorize(colorReset), e.Duration.Round(time.Millisecond))
	case engine.StatusFailed:
		fmt.Printf("%sFAILED%s\n", colorize(colorRed), colorize(colorReset))
	}
}

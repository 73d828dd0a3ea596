package engine

import (
	"os"
	"path/filepath"
	"time"

	"github.com/mcman-io/mcman/internal/fetch"
	"github.com/mcman-io/mcman/internal/install"
	"github.com/mcman-io/mcman/internal/ir"
	"github.com/mcman-io/mcman/internal/logging"
)

// Engine runs provisioning plans.
type Engine struct {
	installer *install.Installer
	// lockStaleAfter overrides the instance lock's stale interval.
	lockStaleAfter time.Duration
}

func NewEngine(installer *install.Installer) *Engine {
	return &Engine{
		installer: installer,
	}
}

// BuildPlan resolves an instance and fixes the host paths a run writes to.
func BuildPlan(name string, cfg *ir.Config, cat *ir.Catalog) (*ir.Plan, error) {
	resolved, err := Resolve(name, cfg, cat)
	if err != nil {
		return nil, err
	}

	plan := &ir.Plan{
		Instance:      resolved,
		InstanceDir:   filepath.Join(cfg.InstallPath, resolved.Name),
		JavaRoot:      cfg.JavaPath,
		ScreenName:    cfg.ScreenName,
		TemplatesPath: cfg.TemplatesPath,
	}
	logging.Debug("built plan", "instance", resolved.Name, "version", resolved.Version, "dir", plan.InstanceDir, "mods", len(resolved.Mods))
	return plan, nil
}

// Step names one stage of the provisioning pipeline.
type Step string

const (
	StepJava      Step = "java"
	StepServer    Step = "server"
	StepModLoader Step = "mod-loader"
	StepMods      Step = "mods"
	StepFinalize  Step = "finalize"
)

// Steps lists the stages a plan runs, in order.
func Steps(plan *ir.Plan) []Step {
	steps := []Step{StepJava}
	if plan.Instance.ModLoader != nil {
		steps = append(steps, StepModLoader, StepMods)
	} else {
		steps = append(steps, StepServer)
	}
	return append(steps, StepFinalize)
}

// ArtifactStatus is one artifact of a plan and whether it is already on disk.
type ArtifactStatus struct {
	Step    Step
	File    ir.RemoteFile
	Path    string
	Present bool
}

// Inspect reports which artifacts of plan are already in place. It reads
// local files only.
func Inspect(plan *ir.Plan) ([]ArtifactStatus, error) {
	inst := plan.Instance

	javaDir := filepath.Join(plan.JavaRoot, inst.Java.Name)
	info, err := os.Stat(javaDir)
	statuses := []ArtifactStatus{{
		Step:    StepJava,
		File:    inst.Java.RemoteFile,
		Path:    javaDir,
		Present: err == nil && info.IsDir(),
	}}

	add := func(step Step, f ir.RemoteFile, dir string) error {
		path := filepath.Join(dir, f.Filename)
		present, err := fetch.Present(path, f.SHA)
		if err != nil {
			return err
		}
		statuses = append(statuses, ArtifactStatus{Step: step, File: f, Path: path, Present: present})
		return nil
	}

	if inst.Server != nil {
		if err := add(StepServer, *inst.Server, plan.InstanceDir); err != nil {
			return nil, err
		}
	}
	if inst.ModLoader != nil {
		if err := add(StepModLoader, *inst.ModLoader, plan.InstanceDir); err != nil {
			return nil, err
		}
	}
	for _, m := range inst.Mods {
		if err := add(StepMods, m, plan.ModsDir()); err != nil {
			return nil, err
		}
	}
	return statuses, nil
}

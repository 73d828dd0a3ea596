// Package install holds the on-disk provisioning steps. Every step is safe
// to repeat: anything already present and verified is left alone.
package install

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mcman-io/mcman/internal/archive"
	"github.com/mcman-io/mcman/internal/fetch"
	"github.com/mcman-io/mcman/internal/ir"
	"github.com/mcman-io/mcman/internal/logging"
)

// DefaultJobs is the default number of concurrent mod downloads.
const DefaultJobs = 4

// Outcome says whether a step changed anything on disk.
type Outcome int

const (
	Installed Outcome = iota
	Skipped
)

func (o Outcome) String() string {
	if o == Skipped {
		return "skipped"
	}
	return "installed"
}

// Fetcher downloads and verifies one artifact to dest.
type Fetcher interface {
	Fetch(ctx context.Context, f ir.RemoteFile, dest string) error
}

// Options tune an Installer.
type Options struct {
	// Jobs bounds concurrent mod downloads. Zero means DefaultJobs.
	Jobs int
}

// Installer runs the provisioning steps.
type Installer struct {
	fetcher Fetcher
	runner  Runner
	jobs    int
}

func New(fetcher Fetcher, runner Runner, opts Options) *Installer {
	if runner == nil {
		runner = ExecRunner{}
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = DefaultJobs
	}
	return &Installer{fetcher: fetcher, runner: runner, jobs: jobs}
}

// Java unpacks rt under javaRoot unless javaRoot/<rt.Name> already exists.
// The archive is downloaded to a scoped directory under javaRoot and
// unpacked into a staging directory next to the target, so an interrupted run never leaves
// a half-populated runtime behind that a later run would treat as installed.
func (i *Installer) Java(ctx context.Context, rt ir.JavaRuntime, javaRoot string) (Outcome, error) {
	target := filepath.Join(javaRoot, rt.Name)
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		logging.Info("java runtime already installed", "runtime", rt.Name, "path", target)
		return Skipped, nil
	}

	if err := os.MkdirAll(javaRoot, 0755); err != nil {
		return Installed, &StepError{Step: "java", Path: javaRoot, Err: err}
	}

	tmp, err := os.MkdirTemp(javaRoot, ".download-"+rt.Name+"-")
	if err != nil {
		return Installed, &StepError{Step: "java", Path: javaRoot, Err: err}
	}
	defer os.RemoveAll(tmp)

	archivePath := filepath.Join(tmp, rt.Filename)
	if err := i.fetcher.Fetch(ctx, rt.RemoteFile, archivePath); err != nil {
		keepCorrupt(err, javaRoot)
		return Installed, fmt.Errorf("java runtime %s: %w", rt.Name, err)
	}

	staging, err := os.MkdirTemp(javaRoot, ".staging-"+rt.Name+"-")
	if err != nil {
		return Installed, &StepError{Step: "java", Path: javaRoot, Err: err}
	}
	defer os.RemoveAll(staging)

	if err := archive.Extract(ctx, archivePath, staging); err != nil {
		return Installed, &StepError{Step: "java", Path: rt.Filename, Err: err}
	}

	unpacked := filepath.Join(staging, rt.Name)
	if info, err := os.Stat(unpacked); err != nil || !info.IsDir() {
		return Installed, &StepError{
			Step: "java",
			Path: rt.Filename,
			Err:  fmt.Errorf("archive has no top-level directory %q (found: %s)", rt.Name, listDir(staging)),
		}
	}
	if err := os.Rename(unpacked, target); err != nil {
		return Installed, &StepError{Step: "java", Path: target, Err: err}
	}

	logging.Info("java runtime installed", "runtime", rt.Name, "path", target)
	return Installed, nil
}

// keepCorrupt moves a download kept after a digest mismatch out of the
// scoped download directory into dir, so it outlives the cleanup.
func keepCorrupt(err error, dir string) {
	var ie *fetch.IntegrityError
	if !errors.As(err, &ie) || ie.KeptAt == "" {
		return
	}
	kept := filepath.Join(dir, filepath.Base(ie.KeptAt))
	if rerr := os.Rename(ie.KeptAt, kept); rerr != nil {
		logging.Warn("failed to keep corrupt download", "path", ie.KeptAt, "error", rerr)
		ie.KeptAt = ""
		return
	}
	ie.KeptAt = kept
}

// Server places the server jar in dir under its catalog filename.
func (i *Installer) Server(ctx context.Context, f ir.RemoteFile, dir string) (Outcome, error) {
	return i.ensureFile(ctx, "server", f, dir)
}

// ModLoader downloads the installer jar into dir if needed, runs it with
// javaHome's java, then creates the mods directory.
func (i *Installer) ModLoader(ctx context.Context, f ir.RemoteFile, dir, javaHome string) (Outcome, error) {
	if _, err := i.ensureFile(ctx, "mod-loader", f, dir); err != nil {
		return Installed, err
	}

	java := filepath.Join(javaHome, "java")
	logging.Info("running mod loader installer", "installer", f.Filename, "dir", dir)
	if _, err := i.runner.Run(ctx, dir, java, "-jar", f.Filename, "--installServer"); err != nil {
		return Installed, err
	}

	modsDir := filepath.Join(dir, "mods")
	if err := os.MkdirAll(modsDir, 0755); err != nil {
		return Installed, &StepError{Step: "mod-loader", Path: modsDir, Err: err}
	}
	return Installed, nil
}

// Mods places every mod jar in dir, downloading up to the configured number
// at once. The first failure cancels the remaining downloads.
func (i *Installer) Mods(ctx context.Context, mods []ir.RemoteFile, dir string) (Outcome, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Installed, &StepError{Step: "mods", Path: dir, Err: err}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		firstErr error
		fetched  int
		wg       sync.WaitGroup
	)
	sem := make(chan struct{}, i.jobs)

	for _, mod := range mods {
		wg.Add(1)
		go func(m ir.RemoteFile) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			outcome, err := i.ensureFile(ctx, "mods", m, dir)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("mod %s: %w", m.Filename, err)
					cancel()
				}
				return
			}
			if outcome == Installed {
				fetched++
			}
		}(mod)
	}
	wg.Wait()

	if firstErr != nil {
		return Installed, firstErr
	}
	if err := ctx.Err(); err != nil {
		return Installed, err
	}
	if fetched == 0 {
		return Skipped, nil
	}
	return Installed, nil
}

// FinalizeInput is what Finalize writes into an instance directory.
type FinalizeInput struct {
	InstanceDir string
	ScreenName  string
	Command     string
	JavaHome    string
	// World, when set, seeds level-name in a fresh server.properties.
	World *string
	// TemplatesPath overrides the embedded templates file by file.
	TemplatesPath string
}

// Finalize writes the EULA acceptance and the launch scripts. It always
// rewrites them so config changes take effect.
func (i *Installer) Finalize(ctx context.Context, in FinalizeInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(in.InstanceDir, 0755); err != nil {
		return &StepError{Step: "finalize", Path: in.InstanceDir, Err: err}
	}

	ts := templateSet{overrideDir: in.TemplatesPath}

	eula, err := ts.read(eulaFile)
	if err != nil {
		return &StepError{Step: "finalize", Path: eulaFile, Err: err}
	}
	if err := writeFileAtomic(filepath.Join(in.InstanceDir, eulaFile), eula, 0644); err != nil {
		return &StepError{Step: "finalize", Path: eulaFile, Err: err}
	}

	screen := ScreenScript{InstancePath: in.InstanceDir, ScreenName: in.ScreenName}
	if err := ts.render(screenFile, filepath.Join(in.InstanceDir, screenFile), screen); err != nil {
		return &StepError{Step: "finalize", Path: screenFile, Err: err}
	}

	start := StartScript{InstancePath: in.InstanceDir, Command: in.Command, JavaHome: in.JavaHome}
	if err := ts.render(startFile, filepath.Join(in.InstanceDir, startFile), start); err != nil {
		return &StepError{Step: "finalize", Path: startFile, Err: err}
	}

	if in.World != nil && *in.World != "" {
		if err := seedWorld(in.InstanceDir, *in.World); err != nil {
			return &StepError{Step: "finalize", Path: "server.properties", Err: err}
		}
	}

	logging.Info("instance finalized", "dir", in.InstanceDir)
	return nil
}

// seedWorld writes server.properties with level-name unless the file exists.
func seedWorld(dir, world string) error {
	path := filepath.Join(dir, "server.properties")
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return writeFileAtomic(path, []byte("level-name="+world+"\n"), 0644)
}

// ensureFile fetches f into dir unless a verified copy is already there.
func (i *Installer) ensureFile(ctx context.Context, step string, f ir.RemoteFile, dir string) (Outcome, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Installed, &StepError{Step: step, Path: dir, Err: err}
	}

	dest := filepath.Join(dir, f.Filename)
	present, err := fetch.Present(dest, f.SHA)
	if err != nil {
		return Installed, &StepError{Step: step, Path: dest, Err: err}
	}
	if present {
		logging.Info("already present", "file", f.Filename, "dir", dir, "digest", f.SHA.String())
		return Skipped, nil
	}

	if err := i.fetcher.Fetch(ctx, f, dest); err != nil {
		return Installed, err
	}
	return Installed, nil
}

func listDir(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) == 0 {
		return "nothing"
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

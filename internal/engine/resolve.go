package engine

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mcman-io/mcman/internal/ir"
	"github.com/mcman-io/mcman/internal/logging"
)

// Resolve joins the named instance against the catalog. An empty name
// selects the configured active instance. It performs no I/O; every failure
// is a *ir.ConfigError naming the offending instance, version or mod.
func Resolve(name string, cfg *ir.Config, cat *ir.Catalog) (*ir.ResolvedInstance, error) {
	if name == "" {
		name = cfg.Active()
	}
	if name == "" {
		return nil, &ir.ConfigError{Kind: ir.UnknownInstance, Detail: "no instance given and no activeInstance configured"}
	}

	decl, ok := cfg.Instances[name]
	if !ok || decl == nil {
		return nil, &ir.ConfigError{
			Kind:    ir.UnknownInstance,
			Subject: name,
			Detail:  "declared instances: " + declaredNames(cfg),
		}
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return nil, &ir.ConfigError{Kind: ir.InvalidDocument, Subject: name, Detail: "instance names are used as directory names and must not contain a path"}
	}

	entry := cat.Versions[decl.Version]
	if entry == nil {
		return nil, &ir.ConfigError{
			Kind:    ir.UnknownVersion,
			Subject: decl.Version,
			Detail:  fmt.Sprintf("instance %s", name),
		}
	}
	if entry.Java == nil {
		return nil, &ir.ConfigError{Kind: ir.MissingArtifact, Subject: decl.Version, Detail: "catalog has no java runtime"}
	}
	if entry.Java.Name == "" || entry.Java.Name != filepath.Base(entry.Java.Name) {
		return nil, &ir.ConfigError{Kind: ir.InvalidDocument, Subject: decl.Version + ".java", Detail: fmt.Sprintf("invalid runtime name %q", entry.Java.Name)}
	}

	resolved := &ir.ResolvedInstance{
		Name:    name,
		Version: decl.Version,
		World:   decl.World,
		Command: decl.Command,
		Java:    *entry.Java,
	}

	if decl.ModLoader {
		if entry.Forge == nil {
			return nil, &ir.ConfigError{
				Kind:    ir.MissingArtifact,
				Subject: decl.Version,
				Detail:  fmt.Sprintf("instance %s uses a mod loader but the catalog has no forge installer", name),
			}
		}
		loader := *entry.Forge
		resolved.ModLoader = &loader

		mods, err := resolveMods(decl, cat.ModsFor(decl.Version))
		if err != nil {
			return nil, err
		}
		resolved.Mods = mods
	} else {
		if entry.Server == nil {
			return nil, &ir.ConfigError{Kind: ir.MissingArtifact, Subject: decl.Version, Detail: "catalog has no server jar"}
		}
		if len(decl.Mods) > 0 {
			logging.Warn("instance declares mods without a mod loader, ignoring them", "instance", name, "mods", len(decl.Mods))
		}
		server := *entry.Server
		resolved.Server = &server
	}

	if err := resolved.Validate(); err != nil {
		return nil, err
	}
	return resolved, nil
}

// resolveMods maps declared mod names to catalog artifacts in declared
// order. It fails on the complete set of missing names, never a subset.
func resolveMods(decl *ir.DeclaredInstance, available ir.ModSet) ([]ir.RemoteFile, error) {
	var (
		mods    []ir.RemoteFile
		missing []string
		seen    = make(map[string]bool)
		owners  = make(map[string]string)
	)
	for _, name := range decl.Mods {
		if seen[name] {
			logging.Warn("mod listed twice, installing once", "instance", decl.Name, "mod", name)
			continue
		}
		seen[name] = true

		f := available[name]
		if f == nil {
			missing = append(missing, name)
			continue
		}
		if other, dup := owners[f.Filename]; dup {
			return nil, &ir.ConfigError{
				Kind:    ir.InvalidDocument,
				Subject: decl.Version,
				Detail:  fmt.Sprintf("mods %s and %s share filename %s", other, name, f.Filename),
			}
		}
		owners[f.Filename] = name
		mods = append(mods, *f)
	}

	if len(missing) > 0 {
		return nil, &ir.ConfigError{
			Kind:    ir.UnknownModVersion,
			Subject: strings.Join(missing, ", "),
			Detail:  fmt.Sprintf("not in catalog for version %s", decl.Version),
		}
	}
	return mods, nil
}

func declaredNames(cfg *ir.Config) string {
	if len(cfg.Instances) == 0 {
		return "none"
	}
	names := make([]string, 0, len(cfg.Instances))
	for n := range cfg.Instances {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

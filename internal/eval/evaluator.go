package eval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/apple/pkl-go/pkl"
	"github.com/mcman-io/mcman/internal/ir"
	"github.com/mcman-io/mcman/internal/logging"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Document names inside a configuration directory.
const (
	ConfigDocument   = "config"
	VersionsDocument = "versions"
	ModsDocument     = "mods"
)

// DefaultScreenName is used when the config names no screen session.
const DefaultScreenName = "minecraft"

// screenNamePattern keeps session names safe to embed in the rendered
// shell scripts and in the session lookup pattern.
var screenNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Extensions are tried in this order; the first existing file wins.
var Extensions = []string{".json", ".jsonc", ".yaml", ".yml", ".pkl"}

// Evaluator loads the config store and the artifact catalog from a
// configuration directory.
type Evaluator struct {
	configDir string
}

func NewEvaluator(configDir string) *Evaluator {
	return &Evaluator{
		configDir: configDir,
	}
}

// ConfigDir returns the directory documents are read from.
func (e *Evaluator) ConfigDir() string {
	return e.configDir
}

// Find returns the path of the named document.
func (e *Evaluator) Find(name string) (string, error) {
	for _, ext := range Extensions {
		path := filepath.Join(e.configDir, name+ext)
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if !info.IsDir() {
			return path, nil
		}
	}
	return "", &ir.ConfigError{
		Kind:    ir.InvalidDocument,
		Subject: name,
		Detail:  fmt.Sprintf("no %s{%s} in %s", name, strings.Join(Extensions, ","), e.configDir),
	}
}

// LoadConfig reads the config document. Install paths come back absolute and
// every instance carries its name.
func (e *Evaluator) LoadConfig(ctx context.Context) (*ir.Config, error) {
	path, err := e.Find(ConfigDocument)
	if err != nil {
		return nil, err
	}

	var cfg ir.Config
	if err := e.decode(ctx, path, &cfg); err != nil {
		return nil, err
	}

	if cfg.InstallPath == "" {
		return nil, &ir.ConfigError{Kind: ir.InvalidDocument, Subject: path, Detail: "installPath is required"}
	}
	if cfg.JavaPath == "" {
		return nil, &ir.ConfigError{Kind: ir.InvalidDocument, Subject: path, Detail: "javaPath is required"}
	}
	if cfg.InstallPath, err = filepath.Abs(cfg.InstallPath); err != nil {
		return nil, fmt.Errorf("failed to resolve installPath: %w", err)
	}
	if cfg.JavaPath, err = filepath.Abs(cfg.JavaPath); err != nil {
		return nil, fmt.Errorf("failed to resolve javaPath: %w", err)
	}
	if cfg.ScreenName == "" {
		cfg.ScreenName = DefaultScreenName
	}
	if !screenNamePattern.MatchString(cfg.ScreenName) {
		return nil, &ir.ConfigError{
			Kind:    ir.InvalidDocument,
			Subject: path,
			Detail:  fmt.Sprintf("screenName %q may only contain letters, digits, '.', '_' and '-'", cfg.ScreenName),
		}
	}
	if cfg.TemplatesPath != "" && !filepath.IsAbs(cfg.TemplatesPath) {
		// Template overrides live next to the documents that name them.
		cfg.TemplatesPath = filepath.Join(e.configDir, cfg.TemplatesPath)
	}

	if cfg.Instances == nil {
		cfg.Instances = make(map[string]*ir.DeclaredInstance)
	}
	for name, inst := range cfg.Instances {
		if inst == nil {
			return nil, &ir.ConfigError{Kind: ir.InvalidDocument, Subject: name, Detail: "instance has no fields"}
		}
		inst.Name = name
	}

	logging.Debug("loaded config", "path", path, "instances", len(cfg.Instances))
	return &cfg, nil
}

type versionsModule struct {
	Versions map[string]*ir.VersionEntry `pkl:"versions"`
}

type modsModule struct {
	Mods map[string]ir.ModSet `pkl:"mods"`
}

// LoadCatalog reads the versions and mods documents. Digests are normalized
// and validated here so a malformed checksum fails before any download.
func (e *Evaluator) LoadCatalog(ctx context.Context) (*ir.Catalog, error) {
	versionsPath, err := e.Find(VersionsDocument)
	if err != nil {
		return nil, err
	}
	modsPath, err := e.Find(ModsDocument)
	if err != nil {
		return nil, err
	}

	cat := &ir.Catalog{}
	if filepath.Ext(versionsPath) == ".pkl" {
		var m versionsModule
		if err := e.decode(ctx, versionsPath, &m); err != nil {
			return nil, err
		}
		cat.Versions = m.Versions
	} else if err := e.decode(ctx, versionsPath, &cat.Versions); err != nil {
		return nil, err
	}

	if filepath.Ext(modsPath) == ".pkl" {
		var m modsModule
		if err := e.decode(ctx, modsPath, &m); err != nil {
			return nil, err
		}
		cat.Mods = m.Mods
	} else if err := e.decode(ctx, modsPath, &cat.Mods); err != nil {
		return nil, err
	}

	if err := normalizeCatalog(cat); err != nil {
		return nil, err
	}

	logging.Debug("loaded catalog", "versions", len(cat.Versions), "mod_versions", len(cat.Mods))
	return cat, nil
}

func normalizeCatalog(cat *ir.Catalog) error {
	for version, entry := range cat.Versions {
		if entry == nil {
			return &ir.ConfigError{Kind: ir.InvalidDocument, Subject: version, Detail: "version entry is empty"}
		}
		if entry.Java != nil {
			if err := normalizeFile(version+".java", &entry.Java.RemoteFile); err != nil {
				return err
			}
		}
		for label, f := range map[string]*ir.RemoteFile{"server": entry.Server, "forge": entry.Forge} {
			if f == nil {
				continue
			}
			if err := normalizeFile(version+"."+label, f); err != nil {
				return err
			}
		}
	}
	for version, mods := range cat.Mods {
		for name, f := range mods {
			if f == nil {
				return &ir.ConfigError{Kind: ir.InvalidDocument, Subject: version + "." + name, Detail: "mod entry is empty"}
			}
			if err := normalizeFile(version+"."+name, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func normalizeFile(subject string, f *ir.RemoteFile) error {
	d, err := ir.ParseDigest(string(f.SHA))
	if err != nil {
		return &ir.ConfigError{Kind: ir.InvalidDocument, Subject: subject, Err: err}
	}
	f.SHA = d
	if f.Src == "" {
		return &ir.ConfigError{Kind: ir.InvalidDocument, Subject: subject, Detail: "src is required"}
	}
	if f.Filename == "" {
		return &ir.ConfigError{Kind: ir.InvalidDocument, Subject: subject, Detail: "filename is required"}
	}
	if f.Filename != filepath.Base(f.Filename) || f.Filename == ".." {
		return &ir.ConfigError{Kind: ir.InvalidDocument, Subject: subject, Detail: fmt.Sprintf("filename %q must not contain a path", f.Filename)}
	}
	return nil
}

// decode reads path into out according to its extension.
func (e *Evaluator) decode(ctx context.Context, path string, out any) error {
	var err error
	switch filepath.Ext(path) {
	case ".pkl":
		err = evaluatePkl(ctx, path, out)
	case ".yaml", ".yml":
		var data []byte
		if data, err = os.ReadFile(path); err == nil {
			err = yaml.Unmarshal(data, out)
		}
	default:
		var data []byte
		if data, err = os.ReadFile(path); err == nil {
			err = json.Unmarshal(jsonc.ToJSON(data), out)
		}
	}
	if err != nil {
		return &ir.ConfigError{Kind: ir.InvalidDocument, Subject: path, Err: err}
	}
	return nil
}

func evaluatePkl(ctx context.Context, path string, out any) error {
	evaluator, err := pkl.NewEvaluator(ctx, pkl.PreconfiguredOptions)
	if err != nil {
		return fmt.Errorf("failed to create PKL evaluator: %w", err)
	}
	defer evaluator.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := evaluator.EvaluateModule(ctx, pkl.FileSource(abs), out); err != nil {
		return fmt.Errorf("failed to evaluate %s: %w", path, err)
	}
	return nil
}

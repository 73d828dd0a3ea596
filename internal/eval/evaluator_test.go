package eval

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/mcman-io/mcman/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helloSHA = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

func writeDocs(t *testing.T, docs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

const jsoncConfig = `{
  // where instances live
  "installPath": "install",
  "javaPath": "/opt/java",
  "screenName": "mc",
  "activeInstance": "survival",
  "instances": {
    "survival": {
      "version": "1.20.1",
      "forge": false,
      "command": "java -jar server.jar",
      "mods": [],
    },
    "modded": {
      "version": "1.20.1",
      "forge": true,
      "world": "atm",
      "command": "./run.sh",
      "mods": ["jei", "create"],
    },
  },
}`

const jsonVersions = `{
  "1.20.1": {
    "java": {"src": "https://example.com/jdk.tar.gz", "sha": "SHA256:` + helloSHA + `", "filename": "jdk.tar.gz", "name": "jdk-17"},
    "server": {"src": "https://example.com/server.jar", "sha": "` + helloSHA + `", "filename": "server.jar"},
    "forge": {"src": "https://example.com/forge.jar", "sha": "", "filename": "forge-installer.jar"}
  }
}`

const jsonMods = `{
  "1.20.1": {
    "jei": {"src": "https://example.com/jei.jar", "sha": "` + helloSHA + `", "filename": "jei.jar"}
  }
}`

func TestEvaluator_LoadConfigJSONC(t *testing.T) {
	dir := writeDocs(t, map[string]string{"config.jsonc": jsoncConfig})

	cfg, err := NewEvaluator(dir).LoadConfig(context.Background())
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.InstallPath))
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "install"), cfg.InstallPath)
	assert.Equal(t, "/opt/java", cfg.JavaPath)
	assert.Equal(t, "survival", cfg.Active())

	require.Contains(t, cfg.Instances, "modded")
	modded := cfg.Instances["modded"]
	assert.Equal(t, "modded", modded.Name)
	assert.True(t, modded.ModLoader)
	require.NotNil(t, modded.World)
	assert.Equal(t, "atm", *modded.World)
	assert.Equal(t, []string{"jei", "create"}, modded.Mods)
	assert.Nil(t, cfg.Instances["survival"].World)
}

func TestEvaluator_LoadConfigYAML(t *testing.T) {
	dir := writeDocs(t, map[string]string{"config.yaml": `
installPath: /srv/mc
javaPath: /srv/java
screenName: mc
activeInstanceId: legacy
templatesPath: templates
instances:
  legacy:
    version: "1.12.2"
    forge: false
    command: java -Xmx2G -jar server.jar
    mods: []
`})

	cfg, err := NewEvaluator(dir).LoadConfig(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "legacy", cfg.Active())
	assert.Equal(t, filepath.Join(dir, "templates"), cfg.TemplatesPath)
	assert.Equal(t, "1.12.2", cfg.Instances["legacy"].Version)
}

func TestEvaluator_ExtensionPrecedence(t *testing.T) {
	dir := writeDocs(t, map[string]string{
		"config.json": `{"installPath": "/from/json", "javaPath": "/j", "instances": {}}`,
		"config.yaml": "installPath: /from/yaml\njavaPath: /j\n",
	})

	cfg, err := NewEvaluator(dir).LoadConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/from/json", cfg.InstallPath)
	assert.NotNil(t, cfg.Instances)
	assert.Equal(t, DefaultScreenName, cfg.ScreenName)
}

func TestEvaluator_MissingDocument(t *testing.T) {
	_, err := NewEvaluator(t.TempDir()).LoadConfig(context.Background())

	var cerr *ir.ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ir.InvalidDocument, cerr.Kind)
	assert.Equal(t, ConfigDocument, cerr.Subject)
}

func TestEvaluator_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed", `{"installPath": `},
		{"missing installPath", `{"javaPath": "/j"}`},
		{"missing javaPath", `{"installPath": "/i"}`},
		{"null instance", `{"installPath": "/i", "javaPath": "/j", "instances": {"x": null}}`},
		{"screenName with quote", `{"installPath": "/i", "javaPath": "/j", "screenName": "mc\" ; rm -rf ~ ; \""}`},
		{"screenName with substitution", `{"installPath": "/i", "javaPath": "/j", "screenName": "$(reboot)"}`},
		{"screenName with space", `{"installPath": "/i", "javaPath": "/j", "screenName": "my server"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeDocs(t, map[string]string{"config.json": tt.content})
			_, err := NewEvaluator(dir).LoadConfig(context.Background())

			var cerr *ir.ConfigError
			require.True(t, errors.As(err, &cerr), "got %v", err)
			assert.Equal(t, ir.InvalidDocument, cerr.Kind)
		})
	}
}

func TestEvaluator_LoadCatalog(t *testing.T) {
	dir := writeDocs(t, map[string]string{
		"versions.json": jsonVersions,
		"mods.json":     jsonMods,
	})

	cat, err := NewEvaluator(dir).LoadCatalog(context.Background())
	require.NoError(t, err)

	entry := cat.Versions["1.20.1"]
	require.NotNil(t, entry)
	require.NotNil(t, entry.Java)
	assert.Equal(t, "jdk-17", entry.Java.Name)
	assert.Equal(t, "jdk.tar.gz", entry.Java.Filename)
	assert.Equal(t, ir.Digest(helloSHA), entry.Java.SHA, "prefix and case are normalized")
	assert.Equal(t, ir.NoDigest, entry.Forge.SHA)

	mods := cat.ModsFor("1.20.1")
	require.Contains(t, mods, "jei")
	assert.Equal(t, "jei.jar", mods["jei"].Filename)
	assert.Nil(t, cat.ModsFor("1.19.2"))
}

func TestEvaluator_LoadCatalogYAMLMods(t *testing.T) {
	dir := writeDocs(t, map[string]string{
		"versions.json": jsonVersions,
		"mods.yml": `
"1.20.1":
  create:
    src: s3://mirror/create.jar
    sha: ` + helloSHA + `
    filename: create.jar
`,
	})

	cat, err := NewEvaluator(dir).LoadCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s3://mirror/create.jar", cat.ModsFor("1.20.1")["create"].Src)
}

func TestEvaluator_LoadCatalogRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name     string
		versions string
		subject  string
	}{
		{
			"short digest",
			`{"1.20.1": {"server": {"src": "https://x/s.jar", "sha": "abc", "filename": "s.jar"}}}`,
			"1.20.1.server",
		},
		{
			"missing src",
			`{"1.20.1": {"server": {"sha": "", "filename": "s.jar"}}}`,
			"1.20.1.server",
		},
		{
			"path in filename",
			`{"1.20.1": {"java": {"src": "https://x/j.tgz", "filename": "../j.tgz", "name": "jdk"}}}`,
			"1.20.1.java",
		},
		{
			"empty entry",
			`{"1.20.1": null}`,
			"1.20.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeDocs(t, map[string]string{"versions.json": tt.versions, "mods.json": `{}`})
			_, err := NewEvaluator(dir).LoadCatalog(context.Background())

			var cerr *ir.ConfigError
			require.True(t, errors.As(err, &cerr), "got %v", err)
			assert.Equal(t, ir.InvalidDocument, cerr.Kind)
			assert.Equal(t, tt.subject, cerr.Subject)
		})
	}
}

func TestEvaluator_LoadCatalogMissingMods(t *testing.T) {
	dir := writeDocs(t, map[string]string{"versions.json": jsonVersions})
	_, err := NewEvaluator(dir).LoadCatalog(context.Background())

	var cerr *ir.ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, ModsDocument, cerr.Subject)
}

func TestEvaluator_LoadPkl(t *testing.T) {
	if _, err := exec.LookPath("pkl"); err != nil {
		t.Skip("pkl binary not installed")
	}

	dir := writeDocs(t, map[string]string{
		"config.pkl": `
installPath = "/srv/mc"
javaPath = "/srv/java"
screenName = "mc"
activeInstance = "vanilla"
instances = new Mapping {
  ["vanilla"] {
    version = "1.20.1"
    forge = false
    command = "java -jar server.jar"
    mods = List()
  }
}
`,
		"versions.pkl": `
versions = new Mapping {
  ["1.20.1"] {
    java {
      src = "https://example.com/jdk.tar.gz"
      sha = ""
      filename = "jdk.tar.gz"
      name = "jdk-17"
    }
    server {
      src = "https://example.com/server.jar"
      sha = "` + helloSHA + `"
      filename = "server.jar"
    }
  }
}
`,
		"mods.pkl": "mods = new Mapping {}\n",
	})

	ev := NewEvaluator(dir)
	cfg, err := ev.LoadConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.20.1", cfg.Instances["vanilla"].Version)

	cat, err := ev.LoadCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jdk-17", cat.Versions["1.20.1"].Java.Name)
}

package engine

import (
	"errors"
	"testing"

	"github.com/mcman-io/mcman/internal/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func testCatalog() *ir.Catalog {
	return &ir.Catalog{
		Versions: map[string]*ir.VersionEntry{
			"1.20.1": {
				Java:   &ir.JavaRuntime{RemoteFile: ir.RemoteFile{Src: "https://example.com/jdk17.tar.gz", Filename: "jdk17.tar.gz"}, Name: "jdk-17"},
				Server: &ir.RemoteFile{Src: "https://example.com/server-1.20.1.jar", Filename: "server-1.20.1.jar"},
				Forge:  &ir.RemoteFile{Src: "https://example.com/forge-1.20.1.jar", Filename: "forge-1.20.1-installer.jar"},
			},
			"1.12.2": {
				Java:   &ir.JavaRuntime{RemoteFile: ir.RemoteFile{Src: "https://example.com/jdk8.tar.gz", Filename: "jdk8.tar.gz"}, Name: "jdk8u382"},
				Server: &ir.RemoteFile{Src: "https://example.com/server-1.12.2.jar", Filename: "server.jar"},
			},
		},
		Mods: map[string]ir.ModSet{
			"1.20.1": {
				"examplemod": {Src: "https://example.com/examplemod.jar", Filename: "examplemod-1.0.jar"},
				"jei":        {Src: "https://example.com/jei.jar", Filename: "jei-15.2.jar"},
			},
			"1.12.2": {
				"legacymod": {Src: "https://example.com/legacymod.jar", Filename: "legacymod.jar"},
			},
		},
	}
}

func testConfig() *ir.Config {
	cfg := &ir.Config{
		InstallPath:    "/srv/install",
		JavaPath:       "/srv/java",
		ScreenName:     "mc",
		ActiveInstance: "vanilla",
		Instances: map[string]*ir.DeclaredInstance{
			"vanilla": {Version: "1.20.1", Command: "java -jar server-1.20.1.jar"},
			"modded":  {Version: "1.20.1", ModLoader: true, World: strPtr("atm"), Command: "./run.sh", Mods: []string{"jei", "examplemod"}},
			"ignored": {Version: "1.20.1", Mods: []string{"jei"}, Command: "java -jar server.jar"},
			"legacy":  {Version: "1.12.2", ModLoader: true, Mods: []string{"legacymod"}},
			"missing": {Version: "1.20.1", ModLoader: true, Mods: []string{"jei", "ghost", "phantom"}},
			"future":  {Version: "1.99", Command: "java -jar server.jar"},
		},
	}
	for name, inst := range cfg.Instances {
		inst.Name = name
	}
	return cfg
}

func TestResolve_Vanilla(t *testing.T) {
	r, err := Resolve("vanilla", testConfig(), testCatalog())
	require.NoError(t, err)

	require.NotNil(t, r.Server)
	assert.Nil(t, r.ModLoader)
	assert.Empty(t, r.Mods)
	assert.Equal(t, "server-1.20.1.jar", r.Server.Filename, "server keeps its catalog filename")
	assert.Equal(t, "jdk-17", r.Java.Name)
	assert.Equal(t, "java -jar server-1.20.1.jar", r.Command)
}

func TestResolve_ModLoader(t *testing.T) {
	r, err := Resolve("modded", testConfig(), testCatalog())
	require.NoError(t, err)

	assert.Nil(t, r.Server)
	require.NotNil(t, r.ModLoader)
	assert.Equal(t, "forge-1.20.1-installer.jar", r.ModLoader.Filename)
	require.Len(t, r.Mods, 2)
	assert.Equal(t, "jei-15.2.jar", r.Mods[0].Filename, "declared order is kept")
	assert.Equal(t, "examplemod-1.0.jar", r.Mods[1].Filename)
	assert.Equal(t, "atm", *r.World)
}

func TestResolve_ActiveInstance(t *testing.T) {
	r, err := Resolve("", testConfig(), testCatalog())
	require.NoError(t, err)
	assert.Equal(t, "vanilla", r.Name)

	cfg := testConfig()
	cfg.ActiveInstance = ""
	cfg.ActiveInstanceID = "modded"
	r, err = Resolve("", cfg, testCatalog())
	require.NoError(t, err)
	assert.Equal(t, "modded", r.Name)
}

func TestResolve_ModsIgnoredWithoutLoader(t *testing.T) {
	r, err := Resolve("ignored", testConfig(), testCatalog())
	require.NoError(t, err)
	assert.NotNil(t, r.Server)
	assert.Empty(t, r.Mods)
}

func TestResolve_Errors(t *testing.T) {
	noActive := testConfig()
	noActive.ActiveInstance = ""

	badName := testConfig()
	badName.Instances["../escape"] = &ir.DeclaredInstance{Name: "../escape", Version: "1.20.1"}

	tests := []struct {
		name     string
		instance string
		cfg      *ir.Config
		kind     ir.ConfigErrorKind
		subject  string
	}{
		{"unknown instance", "nope", testConfig(), ir.UnknownInstance, "nope"},
		{"no active instance", "", noActive, ir.UnknownInstance, ""},
		{"unknown version", "future", testConfig(), ir.UnknownVersion, "1.99"},
		{"no forge for version", "legacy", testConfig(), ir.MissingArtifact, "1.12.2"},
		{"unknown mods", "missing", testConfig(), ir.UnknownModVersion, "ghost, phantom"},
		{"path in instance name", "../escape", badName, ir.InvalidDocument, "../escape"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Resolve(tt.instance, tt.cfg, testCatalog())
			assert.Nil(t, r, "no partial plan")

			var cerr *ir.ConfigError
			require.True(t, errors.As(err, &cerr), "got %v", err)
			assert.Equal(t, tt.kind, cerr.Kind)
			assert.Equal(t, tt.subject, cerr.Subject)
		})
	}
}

func TestResolve_UnknownInstanceListsDeclared(t *testing.T) {
	_, err := Resolve("nope", testConfig(), testCatalog())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ignored, legacy, missing, modded, vanilla")
}

func TestResolve_DuplicateMods(t *testing.T) {
	cfg := testConfig()
	cfg.Instances["modded"].Mods = []string{"jei", "examplemod", "jei"}

	r, err := Resolve("modded", cfg, testCatalog())
	require.NoError(t, err)
	assert.Len(t, r.Mods, 2)

	cat := testCatalog()
	cat.Mods["1.20.1"]["jei"].Filename = "examplemod-1.0.jar"
	_, err = Resolve("modded", testConfig(), cat)
	var cerr *ir.ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, err.Error(), "share filename")
}

func TestResolve_DoesNotAliasCatalog(t *testing.T) {
	cat := testCatalog()
	r, err := Resolve("vanilla", testConfig(), cat)
	require.NoError(t, err)

	r.Server.Filename = "changed.jar"
	assert.Equal(t, "server-1.20.1.jar", cat.Versions["1.20.1"].Server.Filename)
}

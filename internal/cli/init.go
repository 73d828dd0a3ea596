package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mcman-io/mcman/internal/eval"
	"github.com/mcman-io/mcman/internal/ir"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var initFormat string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a sample config directory",
	Long: `Writes sample config, versions and mods documents into the config directory.
Existing documents are left untouched.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initFormat, "format", "json", "Document format: json or yaml")
}

func sampleConfig() *ir.Config {
	return &ir.Config{
		InstallPath:    "install",
		JavaPath:       "java",
		ScreenName:     "minecraft",
		ActiveInstance: "survival",
		Instances: map[string]*ir.DeclaredInstance{
			"survival": {
				Version: "1.20.1",
				Command: "java -Xms1G -Xmx4G -jar server.jar nogui",
				Mods:    []string{},
			},
			"modded": {
				Version:   "1.20.1",
				ModLoader: true,
				Command:   "./run.sh nogui",
				Mods:      []string{"jei"},
			},
		},
	}
}

func sampleVersions() map[string]*ir.VersionEntry {
	return map[string]*ir.VersionEntry{
		"1.20.1": {
			Java: &ir.JavaRuntime{
				RemoteFile: ir.RemoteFile{
					Src:      "https://github.com/adoptium/temurin17-binaries/releases/download/jdk-17.0.8.1%2B1/OpenJDK17U-jdk_x64_linux_hotspot_17.0.8.1_1.tar.gz",
					Filename: "OpenJDK17U-jdk_x64_linux_hotspot_17.0.8.1_1.tar.gz",
				},
				Name: "jdk-17.0.8.1+1",
			},
			Server: &ir.RemoteFile{
				Src:      "https://piston-data.mojang.com/v1/objects/84194a2f286ef7c14ed7ce0090dba59902951553/server.jar",
				Filename: "server.jar",
			},
			Forge: &ir.RemoteFile{
				Src:      "https://maven.minecraftforge.net/net/minecraftforge/forge/1.20.1-47.2.0/forge-1.20.1-47.2.0-installer.jar",
				Filename: "forge-1.20.1-47.2.0-installer.jar",
			},
		},
	}
}

func sampleMods() map[string]ir.ModSet {
	return map[string]ir.ModSet{
		"1.20.1": {
			"jei": {
				Src:      "https://mediafilez.forgecdn.net/files/4712/866/jei-1.20.1-forge-15.2.0.27.jar",
				Filename: "jei-1.20.1-forge-15.2.0.27.jar",
			},
		},
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	var (
		ext     string
		marshal func(any) ([]byte, error)
	)
	switch initFormat {
	case "json":
		ext = ".json"
		marshal = func(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") }
	case "yaml", "yml":
		ext = ".yaml"
		marshal = yaml.Marshal
	default:
		return fmt.Errorf("unsupported format %q (want json or yaml)", initFormat)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", configDir, err)
	}

	docs := []struct {
		name  string
		value any
	}{
		{eval.ConfigDocument, sampleConfig()},
		{eval.VersionsDocument, sampleVersions()},
		{eval.ModsDocument, sampleMods()},
	}

	for _, doc := range docs {
		if existing, err := eval.NewEvaluator(configDir).Find(doc.name); err == nil {
			fmt.Printf("Keeping %s\n", existing)
			continue
		}

		data, err := marshal(doc.value)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", doc.name, err)
		}
		path := filepath.Join(configDir, doc.name+ext)
		if err := writeNew(path, append(data, '\n')); err != nil {
			return err
		}
		fmt.Printf("Created %s\n", path)
	}

	fmt.Println("\nmcman initialized successfully!")
	fmt.Println("Next steps:")
	fmt.Println("  1. Fill in the sha256 of every artifact in versions and mods")
	fmt.Println("  2. Run 'mcman plan' to see what will be installed")
	fmt.Println("  3. Run 'mcman install' to provision the active instance")
	return nil
}

func writeNew(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

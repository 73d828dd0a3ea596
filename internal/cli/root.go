package cli

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mcman-io/mcman/internal/fetch"
	"github.com/mcman-io/mcman/internal/install"
	"github.com/mcman-io/mcman/internal/logging"
	"github.com/spf13/cobra"
)

const defaultConfigDir = "./server"

var (
	configDir  string
	logLevel   string
	logFormat  string
	insecure   bool
	timeout    time.Duration
	retries    int
	jobs       int
	limitRate  string
	keepFailed bool
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "mcman [instance]",
	Short: "Provision Minecraft server instances",
	Long: `mcman installs a Minecraft server instance described in a config directory.

It resolves the instance against a version catalog and then:
  • installs the Java runtime the version needs
  • downloads the server jar, or runs the mod loader installer and fetches mods
  • writes eula.txt and the screen.sh/start.sh launch scripts

Every download is checked against its catalog sha256, and anything already
present and verified is skipped. Without an instance argument the config's
activeInstance is used.`,
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
	RunE:              runInstall,
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configDir, "config-dir", "c", envOr("MCMAN_CONFIG_DIR", defaultConfigDir), "Directory holding the config, versions and mods documents (env MCMAN_CONFIG_DIR)")
	flags.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	flags.BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification for downloads")
	flags.DurationVar(&timeout, "timeout", fetch.DefaultTimeout, "Timeout for a single download attempt")
	flags.IntVar(&retries, "retries", fetch.DefaultRetryMax, "Retries for transient download failures")
	flags.IntVarP(&jobs, "jobs", "j", install.DefaultJobs, "Concurrent mod downloads")
	flags.StringVar(&limitRate, "limit-rate", "", "Total download bandwidth cap, e.g. 10MB or 512KiB (per second)")
	flags.BoolVar(&keepFailed, "keep-failed", false, "Keep downloads that fail digest verification as <file>.corrupt")
	flags.BoolVar(&noColor, "no-color", os.Getenv("NO_COLOR") != "", "Disable colored output")

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(instancesCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

func setupLogging(cmd *cobra.Command, args []string) error {
	logging.Init(logLevel, logFormat)
	logging.With("run_id", uuid.NewString())
	logging.Debug("starting", "command", cmd.Name(), "config_dir", configDir, "version", Version)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

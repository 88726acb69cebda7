// Package cmd implements the aimctl command-line interface: a cobra
// root command with clicky flag binding and a PersistentPreRun that
// loads the global config and catalog once before any subcommand
// runs.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/flanksource/clicky"
	"github.com/flanksource/commons/logger"
	"github.com/go-appimage/aimctl/pkg/catalog"
	"github.com/go-appimage/aimctl/pkg/globalconfig"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	catalogDir  string
	concurrency int
	force       bool
	noVerify    bool
	noProgress  bool
	timeout     time.Duration

	cfg *globalconfig.Config
	cat catalog.Lookup
)

var rootCmd = &cobra.Command{
	Use:          "aimctl",
	Short:        "Install and manage AppImage applications from GitHub releases",
	Long:         `aimctl resolves, downloads, verifies, and installs AppImage applications published as GitHub releases, and keeps a desktop launcher and icon in sync with each install.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		clicky.Flags.UseFlags()

		var err error
		if configPath != "" {
			cfg, err = globalconfig.LoadFile(configPath)
		} else {
			cfg = globalconfig.Default()
		}
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}

		dir := catalogDir
		if dir == "" {
			dir = fmt.Sprintf("%s/catalog", cfg.ConfigDir())
		}
		if _, statErr := os.Stat(dir); statErr == nil {
			loaded, loadErr := catalog.LoadDirectory(dir)
			if loadErr != nil {
				return fmt.Errorf("loading catalog: %w", loadErr)
			}
			cat = loaded
		} else {
			logger.Debugf("no catalog directory at %s, starting with an empty catalog", dir)
			cat = catalog.NewDirectory(nil)
		}

		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	clicky.BindAllFlags(rootCmd.PersistentFlags(), "tasks", "!format")

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to aimctl config file (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&catalogDir, "catalog-dir", "", "Directory of catalog entry JSON files (default: <config-dir>/catalog)")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 3, "Maximum number of targets installed concurrently")
	rootCmd.PersistentFlags().BoolVar(&force, "force", false, "Reinstall even if already installed")
	rootCmd.PersistentFlags().BoolVar(&noVerify, "no-verify", false, "Skip checksum/digest verification")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "Disable progress reporting")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Timeout for network operations")
}

package cmd

import (
	"fmt"
	"os"

	"github.com/go-appimage/aimctl/pkg/appconfig"
	"github.com/go-appimage/aimctl/pkg/desktop"
	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:          "uninstall <name>...",
	Short:        "Remove an installed application's binary, icon, desktop entry, and config record",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runUninstall,
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	var firstErr error
	for _, name := range args {
		if err := uninstallOne(name); err != nil {
			fmt.Printf("%s: %v\n", name, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fmt.Printf("%s: removed\n", name)
	}
	return firstErr
}

func uninstallOne(name string) error {
	rec, found, err := appconfig.Read(cfg.ConfigDir(), name)
	if err != nil {
		return fmt.Errorf("reading config record: %w", err)
	}
	if !found {
		return fmt.Errorf("not installed")
	}

	if rec.State.InstalledPath != "" {
		if err := os.Remove(rec.State.InstalledPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing binary: %w", err)
		}
	}
	if rec.State.Icon.Path != "" {
		if err := os.Remove(rec.State.Icon.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing icon: %w", err)
		}
	}
	if err := desktop.Remove(cfg.DesktopDir(), name); err != nil {
		return fmt.Errorf("removing desktop entry: %w", err)
	}
	if err := appconfig.Remove(cfg.ConfigDir(), name); err != nil {
		return fmt.Errorf("removing config record: %w", err)
	}
	return nil
}

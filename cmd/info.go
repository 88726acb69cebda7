package cmd

import (
	"fmt"

	"github.com/go-appimage/aimctl/pkg/appconfig"
	"github.com/go-appimage/aimctl/pkg/ratelimit"
	"github.com/go-appimage/aimctl/pkg/release"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:          "info <target>",
	Short:        "Show catalog metadata, latest release, and installed state for a target",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	name := args[0]

	entry, known := cat.GetAppConfig(name)
	if !known {
		owner, repo, ok := ownerRepoFromArg(name)
		if !ok {
			return fmt.Errorf("%q is neither a known catalog app nor a github.com URL", name)
		}
		entry.Owner, entry.Repo, entry.Name = owner, repo, repo
		name = repo
	}

	fmt.Printf("App: %s\n", name)
	fmt.Printf("Repository: %s/%s\n", entry.Owner, entry.Repo)
	if entry.PreferPrerelease {
		fmt.Println("Prefers prereleases: yes")
	}
	if len(entry.PreferredSuffixes) > 0 {
		fmt.Printf("Preferred suffixes: %v\n", entry.PreferredSuffixes)
	}

	resolver := release.NewResolver(release.NewClient(ratelimit.New()), release.NewCache())
	rel, err := resolver.ResolveWithPreference(cmd.Context(), entry.Owner, entry.Repo, entry.PreferPrerelease)
	if err != nil {
		fmt.Printf("\nLatest release: error: %v\n", err)
	} else {
		fmt.Printf("\nLatest release: %s (%d assets)\n", rel.TagName, len(rel.Assets))
	}

	rec, found, err := appconfig.Read(cfg.ConfigDir(), name)
	if err != nil {
		return fmt.Errorf("reading installed state: %w", err)
	}
	if !found {
		fmt.Println("\nNot installed.")
		return nil
	}

	fmt.Printf("\nInstalled version: %s\n", rec.State.Version)
	fmt.Printf("Installed path: %s\n", rec.State.InstalledPath)
	fmt.Printf("Installed date: %s\n", rec.State.InstalledDate)
	if rec.State.Verification.Passed {
		fmt.Println("Verification: passed")
	} else {
		fmt.Println("Verification: not passed")
	}
	if rec.State.Verification.Warning != "" {
		fmt.Printf("  warning: %s\n", rec.State.Verification.Warning)
	}
	if rec.State.Icon.Installed {
		fmt.Printf("Icon: %s (%s)\n", rec.State.Icon.Path, rec.State.Icon.Method)
	}

	return nil
}

func ownerRepoFromArg(raw string) (owner, repo string, ok bool) {
	const prefix = "https://github.com/"
	if len(raw) <= len(prefix) || raw[:len(prefix)] != prefix {
		return "", "", false
	}
	trimmed := raw[len(prefix):]
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] == '/' {
			return trimmed[:i], trimmed[i+1:], true
		}
	}
	return "", "", false
}

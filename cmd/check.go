package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/go-appimage/aimctl/pkg/appconfig"
	"github.com/go-appimage/aimctl/pkg/ratelimit"
	"github.com/go-appimage/aimctl/pkg/release"
	"github.com/go-appimage/aimctl/pkg/types"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [app...]",
	Short: "Check installed apps against their latest GitHub releases",
	Long: `Check each installed app's recorded version against the latest
release published on GitHub, and report whether its binary is still in
place and how its last verification went.

Examples:
  aimctl check               # Check every installed app
  aimctl check freecad krita # Check specific apps`,
	SilenceUsage: true,
	RunE:         runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	names := args
	if len(names) == 0 {
		installed, err := appconfig.List(cfg.ConfigDir())
		if err != nil {
			return fmt.Errorf("listing installed apps: %w", err)
		}
		names = installed
	}
	if len(names) == 0 {
		fmt.Println("No apps installed. Use 'aimctl install' to install one.")
		return nil
	}
	sort.Strings(names)

	resolver := release.NewResolver(release.NewClient(ratelimit.New()), release.NewCache())

	var results []types.CheckResult
	var summary types.CheckSummary
	for _, name := range names {
		result := checkOne(cmd, resolver, name)
		results = append(results, result)
		summary.AddResult(result)
	}

	displayCheckResults(results, summary)

	if summary.Errors > 0 || summary.Missing > 0 {
		return fmt.Errorf("found %d errors and %d missing binaries", summary.Errors, summary.Missing)
	}
	if summary.Outdated > 0 {
		fmt.Printf("\nRun 'aimctl install --force <app>' to update outdated apps\n")
	}
	return nil
}

func checkOne(cmd *cobra.Command, resolver *release.Resolver, name string) types.CheckResult {
	result := types.CheckResult{Tool: name}

	rec, found, err := appconfig.Read(cfg.ConfigDir(), name)
	if err != nil {
		result.Status = types.CheckStatusError
		result.Error = err.Error()
		return result
	}
	if !found {
		result.Status = types.CheckStatusError
		result.Error = "not installed (no config record)"
		return result
	}

	result.InstalledVersion = rec.State.Version
	result.BinaryPath = rec.State.InstalledPath
	result.ChecksumStatus = checksumStatusFromRecord(rec)

	if rec.State.InstalledPath != "" {
		if _, statErr := os.Stat(rec.State.InstalledPath); statErr != nil {
			result.Status = types.CheckStatusMissing
			result.Error = fmt.Sprintf("binary missing at %s", rec.State.InstalledPath)
			return result
		}
	}

	owner, repo, preferPrerelease, ok := repoForRecord(rec)
	if !ok {
		result.Status = types.CheckStatusUnknown
		result.Error = "no catalog entry or overrides to resolve releases from"
		return result
	}

	latest, err := resolver.ResolveWithPreference(cmd.Context(), owner, repo, preferPrerelease)
	if err != nil {
		result.Status = types.CheckStatusError
		result.Error = err.Error()
		return result
	}
	result.ExpectedVersion = release.NormalizeTag(latest.TagName)

	installed := types.ParseVersion(rec.State.Version, "")
	expected := types.ParseVersion(result.ExpectedVersion, latest.TagName)
	switch {
	case installed.Compare(expected) < 0:
		result.Status = types.CheckStatusOutdated
	case installed.Compare(expected) > 0:
		result.Status = types.CheckStatusNewer
	default:
		result.Status = types.CheckStatusOK
	}
	return result
}

// repoForRecord resolves which GitHub repo a record tracks: the
// persisted overrides for URL installs, the catalog entry otherwise.
func repoForRecord(rec appconfig.Record) (owner, repo string, preferPrerelease, ok bool) {
	if rec.Overrides != nil {
		return rec.Overrides.Owner, rec.Overrides.Repo, rec.Overrides.PreferPrerelease, true
	}
	if rec.CatalogRef == nil {
		return "", "", false, false
	}
	entry, known := cat.GetAppConfig(*rec.CatalogRef)
	if !known {
		return "", "", false, false
	}
	return entry.Owner, entry.Repo, entry.PreferPrerelease, true
}

// checksumStatusFromRecord maps the persisted verification summary to
// a checksum status: no recorded method is UNKNOWN, otherwise passed is
// OK and not passed is a mismatch.
func checksumStatusFromRecord(rec appconfig.Record) types.ChecksumStatus {
	v := rec.State.Verification
	switch {
	case len(v.Methods) == 0:
		return types.ChecksumStatusUnknown
	case v.Passed:
		return types.ChecksumStatusOK
	default:
		return types.ChecksumStatusMismatch
	}
}

func displayCheckResults(results []types.CheckResult, summary types.CheckSummary) {
	fmt.Println("Installed App Check Results:")
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "App\tInstalled\tLatest\tStatus\tVerification")
	fmt.Fprintln(w, "───\t─────────\t──────\t──────\t────────────")

	for _, result := range results {
		installed := result.InstalledVersion
		if installed == "" {
			installed = "-"
		}
		expected := result.ExpectedVersion
		if expected == "" {
			expected = "-"
		}
		checksum := string(result.ChecksumStatus)
		if checksum == "" {
			checksum = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", result.Tool, installed, expected, result.Status, checksum)
	}
	_ = w.Flush()

	fmt.Printf("\n%d checked: %d ok, %d outdated, %d newer, %d missing, %d errors\n",
		summary.Total, summary.OK, summary.Outdated, summary.Newer, summary.Missing, summary.Errors)

	for _, result := range results {
		if result.Error != "" {
			fmt.Printf("  %s: %s\n", result.Tool, result.Error)
		}
	}
}

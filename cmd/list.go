package cmd

import (
	"sort"
	"strings"

	"github.com/flanksource/clicky"
	"github.com/spf13/cobra"
)

// CatalogEntryInfo is one row of `aimctl list`'s table output.
type CatalogEntryInfo struct {
	Name       string `json:"name" pretty:"label=App"`
	Repo       string `json:"repo" pretty:"label=Repository"`
	Prerelease string `json:"prerelease" pretty:"label=Prerelease"`
	Suffixes   string `json:"suffixes" pretty:"label=Preferred Suffixes"`
}

// CatalogEntryList wraps CatalogEntryInfo rows for clicky.Format's
// table rendering.
type CatalogEntryList struct {
	Apps []CatalogEntryInfo `json:"apps" pretty:"table"`
}

var listCmd = &cobra.Command{
	Use:          "list",
	Short:        "List every app known to the catalog",
	SilenceUsage: true,
	RunE:         runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	entries := cat.GetAvailableApps()

	rows := make([]CatalogEntryInfo, 0, len(entries))
	for name, entry := range entries {
		prerelease := "no"
		if entry.PreferPrerelease {
			prerelease = "yes"
		}
		rows = append(rows, CatalogEntryInfo{
			Name:       name,
			Repo:       entry.Owner + "/" + entry.Repo,
			Prerelease: prerelease,
			Suffixes:   strings.Join(entry.PreferredSuffixes, ", "),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })

	result, err := clicky.Format(CatalogEntryList{Apps: rows})
	if err != nil {
		return err
	}
	cmd.Println(result)
	return nil
}

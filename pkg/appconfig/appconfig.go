// Package appconfig implements the per-app config store: one record
// per installed application at "<config_dir>/apps/<appName>.json",
// written atomically via a sibling ".tmp" file and rename rather than
// truncating the target file in place.
package appconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-appimage/aimctl/pkg/types"
)

// Record is the on-disk shape: config_version, source,
// catalog_ref/overrides, and the state block. Kept distinct from
// types.AppConfigRecord (the pipeline's working value) so the JSON
// field names and nesting stay stable without constraining the
// in-process type.
type Record struct {
	ConfigVersion string     `json:"config_version"`
	Source        string     `json:"source"`
	CatalogRef    *string    `json:"catalog_ref"`
	Overrides     *Overrides `json:"overrides,omitempty"`
	State         State      `json:"state"`
}

// Overrides captures the full metadata block a URL-sourced install
// needs to persist, since it has no catalog entry to fall back to on
// the next update/check run.
type Overrides struct {
	Owner              string                   `json:"owner"`
	Repo               string                   `json:"repo"`
	PreferPrerelease   bool                     `json:"prefer_prerelease,omitempty"`
	NamingTemplate     string                   `json:"naming_template,omitempty"`
	VerificationConfig types.VerificationConfig `json:"verification,omitempty"`
	IconConfig         types.IconConfig         `json:"icon,omitempty"`
}

// State is the "state" block of the on-disk JSON.
type State struct {
	Version       string              `json:"version"`
	InstalledDate string              `json:"installed_date"`
	InstalledPath string              `json:"installed_path"`
	Verification  VerificationSummary `json:"verification"`
	Icon          IconState           `json:"icon"`
}

type VerificationSummary struct {
	Passed  bool          `json:"passed"`
	Methods []MethodEntry `json:"methods,omitempty"`
	Warning string        `json:"warning,omitempty"`
}

type MethodEntry struct {
	Type      string `json:"type"`
	Status    string `json:"status"`
	Algorithm string `json:"algorithm,omitempty"`
	Expected  string `json:"expected,omitempty"`
	Computed  string `json:"computed,omitempty"`
	Source    string `json:"source,omitempty"`
}

type IconState struct {
	Installed bool   `json:"installed"`
	Method    string `json:"method,omitempty"`
	Path      string `json:"path,omitempty"`
}

// ToMethodEntries converts the pipeline's []types.MethodResult into
// the on-disk method-entry shape ("GitHub API" as the source for the
// digest method, the checksum file's URL otherwise).
func ToMethodEntries(results []types.MethodResult) []MethodEntry {
	out := make([]MethodEntry, 0, len(results))
	for _, r := range results {
		status := "passed"
		if !r.OK {
			status = "failed"
		}
		source := r.SourceURL
		if r.Method == types.MethodDigest {
			source = "GitHub API"
		}
		out = append(out, MethodEntry{
			Type:      string(r.Method),
			Status:    status,
			Algorithm: strings.ToUpper(r.Algo),
			Expected:  r.Expected,
			Computed:  r.Actual,
			Source:    source,
		})
	}
	return out
}

// Path returns the on-disk path for appName's config record under dir.
func Path(dir, appName string) string {
	return filepath.Join(dir, "apps", appName+".json")
}

// Write atomically serializes rec to "<dir>/apps/<appName>.json":
// marshal to a sibling ".tmp" file, then rename over the target.
func Write(dir, appName string, rec Record) error {
	path := Path(dir, appName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling config record for %s: %w", appName, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing temporary config record for %s: %w", appName, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("committing config record for %s: %w", appName, err)
	}
	return nil
}

// Read loads the persisted record for appName, if any.
func Read(dir, appName string) (Record, bool, error) {
	data, err := os.ReadFile(Path(dir, appName))
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("reading config record for %s: %w", appName, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, false, fmt.Errorf("parsing config record for %s: %w", appName, err)
	}
	return rec, true, nil
}

// List returns the name of every app with a persisted config record
// under dir, sorted.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(dir, "apps"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing config records: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Remove deletes the persisted record for appName, if present.
func Remove(dir, appName string) error {
	err := os.Remove(Path(dir, appName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing config record for %s: %w", appName, err)
	}
	return nil
}

// Package catalog defines the narrow catalog-lookup contract the
// installer core consumes and a JSON-directory-backed default
// implementation. There is no init()-time package global: the catalog
// is built once by the caller (cmd/) and threaded down through the
// orchestrator.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/go-appimage/aimctl/pkg/types"
)

// Lookup is the contract the orchestrator consumes.
type Lookup interface {
	// GetAvailableApps returns every known catalog entry, keyed by its
	// lowercased name.
	GetAvailableApps() map[string]types.CatalogEntry
	// GetAppConfig returns the catalog entry for name, or (zero, false)
	// if name isn't a known app.
	GetAppConfig(name string) (types.CatalogEntry, bool)
}

// Directory is a Lookup backed by one `<name>.json` file per app under
// a directory.
type Directory struct {
	entries map[string]types.CatalogEntry
}

// LoadDirectory reads every "*.json" file in dir into a Directory.
// The entry's lowercased Name field is the catalog key; when the JSON
// omits Name, it defaults to the file's basename (without extension,
// lowercased).
func LoadDirectory(dir string) (*Directory, error) {
	entries := make(map[string]types.CatalogEntry)

	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing catalog directory %s: %w", dir, err)
	}

	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading catalog entry %s: %w", path, err)
		}
		var entry types.CatalogEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, fmt.Errorf("parsing catalog entry %s: %w", path, err)
		}
		key := strings.ToLower(strings.TrimSuffix(filepath.Base(path), ".json"))
		if entry.Name == "" {
			entry.Name = key
		}
		entries[strings.ToLower(entry.Name)] = entry
	}

	return &Directory{entries: entries}, nil
}

// NewDirectory builds a Directory from an already-loaded entry map,
// useful for embedding a curated catalog or for tests.
func NewDirectory(entries map[string]types.CatalogEntry) *Directory {
	normalized := make(map[string]types.CatalogEntry, len(entries))
	for k, v := range entries {
		normalized[strings.ToLower(k)] = v
	}
	return &Directory{entries: normalized}
}

func (d *Directory) GetAvailableApps() map[string]types.CatalogEntry {
	out := make(map[string]types.CatalogEntry, len(d.entries))
	for k, v := range d.entries {
		out[k] = v
	}
	return out
}

func (d *Directory) GetAppConfig(name string) (types.CatalogEntry, bool) {
	entry, ok := d.entries[strings.ToLower(name)]
	return entry, ok
}

// Suggestions returns up to limit catalog keys closest to name by
// Levenshtein distance, used to build a "did you mean" hint on an
// unknown-target ValidationError.
func Suggestions(lookup Lookup, name string, limit int) []string {
	type scored struct {
		name string
		dist int
	}
	var candidates []scored
	target := strings.ToLower(name)
	for key := range lookup.GetAvailableApps() {
		candidates = append(candidates, scored{name: key, dist: levenshtein.ComputeDistance(target, key)})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].name < candidates[j].name
	})

	var out []string
	for _, c := range candidates {
		if c.dist > 4 {
			continue
		}
		out = append(out, c.name)
		if len(out) >= limit {
			break
		}
	}
	return out
}

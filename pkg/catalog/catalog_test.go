package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-appimage/aimctl/pkg/types"
)

func TestNewDirectory_LowercasesKeys(t *testing.T) {
	d := NewDirectory(map[string]types.CatalogEntry{
		"MyApp": {Name: "MyApp", Owner: "acme", Repo: "myapp"},
	})
	entry, ok := d.GetAppConfig("myapp")
	if !ok {
		t.Fatal("expected lookup by lowercase key to succeed")
	}
	if entry.Owner != "acme" {
		t.Fatalf("expected owner acme, got %q", entry.Owner)
	}
	if _, ok := d.GetAppConfig("MyApp"); !ok {
		t.Fatal("expected case-insensitive lookup to also succeed")
	}
}

func TestGetAvailableApps_ReturnsACopy(t *testing.T) {
	d := NewDirectory(map[string]types.CatalogEntry{
		"app1": {Name: "app1", Owner: "acme", Repo: "app1"},
	})
	apps := d.GetAvailableApps()
	apps["app1"] = types.CatalogEntry{Name: "mutated"}

	entry, _ := d.GetAppConfig("app1")
	if entry.Name != "app1" {
		t.Fatalf("expected internal map unaffected by caller mutation, got %q", entry.Name)
	}
}

func TestGetAppConfig_UnknownReturnsFalse(t *testing.T) {
	d := NewDirectory(nil)
	if _, ok := d.GetAppConfig("ghost"); ok {
		t.Fatal("expected unknown app to report false")
	}
}

func TestLoadDirectory_ReadsJSONFilesKeyedByBasename(t *testing.T) {
	dir := t.TempDir()
	entry := types.CatalogEntry{Owner: "acme", Repo: "widget"}
	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Widget.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := LoadDirectory(dir)
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	got, ok := d.GetAppConfig("widget")
	if !ok {
		t.Fatal("expected entry keyed by lowercased basename")
	}
	if got.Name != "widget" {
		t.Fatalf("expected Name defaulted from basename, got %q", got.Name)
	}
	if got.Owner != "acme" {
		t.Fatalf("expected owner acme, got %q", got.Owner)
	}
}

func TestLoadDirectory_EntryNameOverridesBasename(t *testing.T) {
	dir := t.TempDir()
	entry := types.CatalogEntry{Name: "Real-Name", Owner: "acme", Repo: "widget"}
	data, err := json.Marshal(entry)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "file-key.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := LoadDirectory(dir)
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	if _, ok := d.GetAppConfig("file-key"); ok {
		t.Fatal("expected basename key not used when entry.Name is set")
	}
	if _, ok := d.GetAppConfig("real-name"); !ok {
		t.Fatal("expected entry.Name (lowercased) to be the catalog key")
	}
}

func TestSuggestions_ClosestByEditDistance(t *testing.T) {
	d := NewDirectory(map[string]types.CatalogEntry{
		"firefox":   {Name: "firefox"},
		"filezilla": {Name: "filezilla"},
		"blender":   {Name: "blender"},
	})
	got := Suggestions(d, "firefx", 3)
	if len(got) == 0 || got[0] != "firefox" {
		t.Fatalf("expected firefox to be the closest suggestion, got %v", got)
	}
}

func TestSuggestions_RespectsLimit(t *testing.T) {
	d := NewDirectory(map[string]types.CatalogEntry{
		"app1": {Name: "app1"},
		"app2": {Name: "app2"},
		"app3": {Name: "app3"},
	})
	got := Suggestions(d, "app", 2)
	if len(got) > 2 {
		t.Fatalf("expected at most 2 suggestions, got %d: %v", len(got), got)
	}
}

func TestSuggestions_NoCloseMatchesIsEmpty(t *testing.T) {
	d := NewDirectory(map[string]types.CatalogEntry{
		"firefox": {Name: "firefox"},
	})
	got := Suggestions(d, "completely-unrelated-string", 5)
	if len(got) != 0 {
		t.Fatalf("expected no suggestions for a far-off name, got %v", got)
	}
}

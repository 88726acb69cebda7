package appconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-appimage/aimctl/pkg/types"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	key := "app1"
	rec := Record{
		ConfigVersion: "1.0.0",
		Source:        "catalog",
		CatalogRef:    &key,
		State: State{
			Version:       "1.2.3",
			InstalledDate: "2026-07-29T00:00:00Z",
			InstalledPath: "/home/user/.local/bin/app1.AppImage",
			Verification: VerificationSummary{
				Passed: true,
				Methods: []MethodEntry{
					{Type: "digest", Status: "passed", Algorithm: "SHA256", Source: "GitHub API"},
				},
			},
			Icon: IconState{Installed: true, Method: "extraction", Path: "/home/user/.local/icons/app1.png"},
		},
	}

	if err := Write(dir, "app1", rec); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, found, err := Read(dir, "app1")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !found {
		t.Fatal("expected record to be found")
	}
	if got.State.Version != "1.2.3" || got.State.InstalledPath != rec.State.InstalledPath {
		t.Fatalf("round-tripped record mismatch: %+v", got)
	}
	if got.CatalogRef == nil || *got.CatalogRef != "app1" {
		t.Fatalf("expected catalog_ref preserved, got %+v", got.CatalogRef)
	}
}

func TestWrite_AtomicNoLeftoverTmp(t *testing.T) {
	dir := t.TempDir()
	if err := Write(dir, "app1", Record{ConfigVersion: "1.0.0"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(Path(dir, "app1") + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected no leftover .tmp file, stat err=%v", err)
	}
	if _, err := os.Stat(Path(dir, "app1")); err != nil {
		t.Fatalf("expected final file to exist: %v", err)
	}
}

func TestRead_MissingReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	_, found, err := Read(dir, "ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("expected not found")
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	if err := Write(dir, "app1", Record{ConfigVersion: "1.0.0"}); err != nil {
		t.Fatal(err)
	}
	if err := Remove(dir, "app1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(Path(dir, "app1")); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat err=%v", err)
	}
	// Removing again is a no-op, not an error.
	if err := Remove(dir, "app1"); err != nil {
		t.Fatalf("Remove on already-absent record should be a no-op: %v", err)
	}
}

func TestToMethodEntries_DigestSourceIsGitHubAPI(t *testing.T) {
	entries := ToMethodEntries([]types.MethodResult{
		{Method: types.MethodDigest, OK: true, Algo: "sha256", Expected: "a", Actual: "a"},
		{Method: types.MethodChecksum, OK: false, SourceURL: "https://example.com/SHA256SUMS"},
	})
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Source != "GitHub API" {
		t.Fatalf("expected digest source 'GitHub API', got %q", entries[0].Source)
	}
	if entries[0].Status != "passed" {
		t.Fatalf("expected passed status, got %q", entries[0].Status)
	}
	if entries[1].Source != "https://example.com/SHA256SUMS" {
		t.Fatalf("expected checksum source to be its URL, got %q", entries[1].Source)
	}
	if entries[1].Status != "failed" {
		t.Fatalf("expected failed status, got %q", entries[1].Status)
	}
}

func TestPath(t *testing.T) {
	got := Path("/cfg", "app1")
	want := filepath.Join("/cfg", "apps", "app1.json")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestList_ReturnsSortedAppNames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"krita", "blender", "freecad"} {
		if err := Write(dir, name, Record{ConfigVersion: "1.0.0", Source: "url"}); err != nil {
			t.Fatalf("Write(%s): %v", name, err)
		}
	}
	// A stray non-record file must not show up.
	if err := os.WriteFile(filepath.Join(dir, "apps", "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	names, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"blender", "freecad", "krita"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}

func TestList_MissingDirIsEmpty(t *testing.T) {
	names, err := List(filepath.Join(t.TempDir(), "nowhere"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected no records, got %v", names)
	}
}

package types

import "testing"

func TestParseVersion_PopulatesSemverFields(t *testing.T) {
	v := ParseVersion("v1.2.3", "v1.2.3")
	if v.Major != 1 || v.Minor != 2 || v.Patch != 3 {
		t.Fatalf("expected 1.2.3, got %d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	if v.Prerelease {
		t.Fatal("expected stable version not flagged prerelease")
	}
}

func TestParseVersion_DetectsPrerelease(t *testing.T) {
	v := ParseVersion("2.0.0-beta.1", "")
	if !v.Prerelease {
		t.Fatal("expected beta version flagged prerelease")
	}
}

func TestParseVersion_StripsBuildMetadata(t *testing.T) {
	v := ParseVersion("1.2.3+build.5", "")
	if v.Major != 1 || v.Minor != 2 || v.Patch != 3 {
		t.Fatalf("expected build metadata stripped before parsing, got %d.%d.%d", v.Major, v.Minor, v.Patch)
	}
}

func TestVersion_String_PrefersTag(t *testing.T) {
	v := Version{Version: "1.2.3", Tag: "v1.2.3"}
	if v.String() != "v1.2.3" {
		t.Fatalf("expected tag preferred, got %q", v.String())
	}
	v2 := Version{Version: "1.2.3"}
	if v2.String() != "1.2.3" {
		t.Fatalf("expected version fallback, got %q", v2.String())
	}
}

func TestVersion_Compare_NumericOrdering(t *testing.T) {
	a := ParseVersion("1.2.3", "")
	b := ParseVersion("1.10.0", "")
	if a.Compare(b) >= 0 {
		t.Fatalf("expected 1.2.3 < 1.10.0 numerically, got %d", a.Compare(b))
	}
}

func TestVersion_Compare_DottedBeatsUndotted(t *testing.T) {
	dotted := Version{Version: "1.2.3"}
	undotted := Version{Version: "abcdef1"}
	if dotted.Compare(undotted) <= 0 {
		t.Fatal("expected a dotted version to sort before an undotted one")
	}
	if undotted.Compare(dotted) >= 0 {
		t.Fatal("expected the reverse comparison to be consistent")
	}
}

func TestVersions_Sort_DescendingNewestFirst(t *testing.T) {
	versions := Versions{
		ParseVersion("1.0.0", ""),
		ParseVersion("2.0.0", ""),
		ParseVersion("1.5.0", ""),
	}
	versions.Sort()
	if versions[0].Version != "2.0.0" || versions[2].Version != "1.0.0" {
		t.Fatalf("expected descending order, got %v", versions)
	}
}

func TestVersions_LatestStable_SkipsPrereleases(t *testing.T) {
	versions := Versions{
		ParseVersion("2.0.0-beta", ""),
		ParseVersion("1.9.0", ""),
	}
	stable := versions.LatestStable()
	if stable == nil || stable.Version != "1.9.0" {
		t.Fatalf("expected 1.9.0 as latest stable, got %v", stable)
	}
}

func TestVersions_Latest_FallsBackToPrereleaseWhenNoStable(t *testing.T) {
	versions := Versions{
		ParseVersion("2.0.0-beta", ""),
	}
	versions.Sort()
	latest := versions.Latest()
	if latest == nil || latest.Version != "2.0.0-beta" {
		t.Fatalf("expected the prerelease as latest when nothing stable exists, got %v", latest)
	}
}

func TestVersions_Latest_EmptyIsNil(t *testing.T) {
	var versions Versions
	if versions.Latest() != nil {
		t.Fatal("expected nil latest for an empty version list")
	}
}

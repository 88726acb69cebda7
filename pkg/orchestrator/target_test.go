package orchestrator

import (
	stderrors "errors"
	"testing"

	"github.com/go-appimage/aimctl/pkg/catalog"
	installerrors "github.com/go-appimage/aimctl/pkg/errors"
	"github.com/go-appimage/aimctl/pkg/types"
)

func testCatalog() catalog.Lookup {
	return catalog.NewDirectory(map[string]types.CatalogEntry{
		"app1": {Name: "app1", Owner: "acme", Repo: "app1"},
		"app2": {Name: "app2", Owner: "acme", Repo: "app2"},
	})
}

func TestClassify_SeparatesURLAndCatalogTargets(t *testing.T) {
	targets, err := classify(testCatalog(), []string{"app1", "https://github.com/foo/bar"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(targets))
	}
	if targets[0].Kind != types.TargetCatalog || targets[0].Raw != "app1" {
		t.Fatalf("expected first target to be catalog app1, got %+v", targets[0])
	}
	if targets[1].Kind != types.TargetURL {
		t.Fatalf("expected second target to be URL kind, got %+v", targets[1])
	}
}

func TestClassify_UnknownTargetReportsAllAtOnce(t *testing.T) {
	_, err := classify(testCatalog(), []string{"app1", "ghost1", "ghost2"})
	if err == nil {
		t.Fatal("expected validation error for unknown targets")
	}
	var verr *installerrors.ValidationError
	if !stderrors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if verr.Target != "ghost1, ghost2" {
		t.Fatalf("expected both unknown targets listed together, got %q", verr.Target)
	}
}

func TestClassify_NeverPartialOnFailure(t *testing.T) {
	targets, err := classify(testCatalog(), []string{"app1", "ghost"})
	if err == nil {
		t.Fatal("expected error")
	}
	if targets != nil {
		t.Fatalf("expected no targets returned on a failed classification, got %+v", targets)
	}
}

func TestOwnerRepo(t *testing.T) {
	cases := []struct {
		in          string
		owner, repo string
		ok          bool
	}{
		{"https://github.com/foo/bar", "foo", "bar", true},
		{"https://github.com/foo/bar/", "foo", "bar", true},
		{"https://github.com/foo/bar.git", "foo", "bar", true},
		{"https://github.com/foo", "", "", false},
		{"https://github.com/", "", "", false},
	}
	for _, c := range cases {
		owner, repo, ok := ownerRepo(c.in)
		if ok != c.ok || owner != c.owner || repo != c.repo {
			t.Errorf("ownerRepo(%q) = (%q, %q, %v), want (%q, %q, %v)", c.in, owner, repo, ok, c.owner, c.repo, c.ok)
		}
	}
}

func TestAppName(t *testing.T) {
	catalogTarget := types.Target{Kind: types.TargetCatalog, Raw: "App1"}
	if got := appName(catalogTarget, "ignored"); got != "app1" {
		t.Fatalf("expected lowercased catalog key, got %q", got)
	}

	urlTarget := types.Target{Kind: types.TargetURL, Raw: "https://github.com/foo/Bar"}
	if got := appName(urlTarget, "Bar"); got != "bar" {
		t.Fatalf("expected lowercased repo name, got %q", got)
	}
}

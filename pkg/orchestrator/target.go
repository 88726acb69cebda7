package orchestrator

import (
	"sort"
	"strings"

	"github.com/go-appimage/aimctl/pkg/catalog"
	installerrors "github.com/go-appimage/aimctl/pkg/errors"
	"github.com/go-appimage/aimctl/pkg/types"
)

const githubURLPrefix = "https://github.com/"

// classify splits raw targets into kinds: a target beginning
// with "https://github.com/" is a URL target; otherwise it must be a
// catalog key. Every unknown target is collected and reported together
// in a single ValidationError ("never partial").
func classify(cat catalog.Lookup, raw []string) ([]types.Target, error) {
	targets := make([]types.Target, 0, len(raw))
	var unknown []string

	for _, name := range raw {
		if strings.HasPrefix(name, githubURLPrefix) {
			targets = append(targets, types.Target{Kind: types.TargetURL, Raw: name})
			continue
		}
		if _, ok := cat.GetAppConfig(name); ok {
			targets = append(targets, types.Target{Kind: types.TargetCatalog, Raw: name})
			continue
		}
		unknown = append(unknown, name)
	}

	if len(unknown) == 0 {
		return targets, nil
	}

	sort.Strings(unknown)
	var suggestions []string
	seen := make(map[string]bool)
	for _, name := range unknown {
		for _, s := range catalog.Suggestions(cat, name, 3) {
			if !seen[s] {
				seen[s] = true
				suggestions = append(suggestions, s)
			}
		}
	}

	return nil, &installerrors.ValidationError{
		Target:      strings.Join(unknown, ", "),
		Reason:      "unknown catalog target(s)",
		Suggestions: suggestions,
	}
}

// ownerRepo splits a "https://github.com/<owner>/<repo>" URL (with an
// optional trailing path, ".git" suffix, or slash) into owner and repo.
func ownerRepo(url string) (owner, repo string, ok bool) {
	trimmed := strings.TrimPrefix(url, githubURLPrefix)
	trimmed = strings.TrimSuffix(trimmed, "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	owner = parts[0]
	repo = strings.TrimSuffix(parts[1], ".git")
	return owner, repo, true
}

// appName derives the installed application's name for a target: the
// catalog key for a catalog target, or the repo name for a URL target.
func appName(t types.Target, repo string) string {
	if t.Kind == types.TargetCatalog {
		return strings.ToLower(t.Raw)
	}
	return strings.ToLower(repo)
}

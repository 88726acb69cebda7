package release

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-appimage/aimctl/pkg/errors"
	"github.com/go-appimage/aimctl/pkg/types"
)

// restRelease/restAsset mirror the GitHub REST response shapes,
// including the Digest field the REST API attaches to each asset.
type restAsset struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Digest             string `json:"digest"`
	Size               int64  `json:"size"`
	ContentType        string `json:"content_type"`
}

type restRelease struct {
	TagName     string      `json:"tag_name"`
	Name        string      `json:"name"`
	Prerelease  bool        `json:"prerelease"`
	Draft       bool        `json:"draft"`
	PublishedAt string      `json:"published_at"`
	Assets      []restAsset `json:"assets"`
}

// toRelease maps the REST shape onto types.Release, dropping any asset
// that lacks a name or download URL.
func (r restRelease) toRelease() types.Release {
	out := types.Release{
		TagName:    r.TagName,
		Name:       r.Name,
		Prerelease: r.Prerelease,
		Draft:      r.Draft,
		Assets:     make([]types.Asset, 0, len(r.Assets)),
	}
	if t, err := time.Parse(time.RFC3339, r.PublishedAt); err == nil {
		out.PublishedAt = t
	}
	for _, a := range r.Assets {
		if a.Name == "" || a.BrowserDownloadURL == "" {
			continue
		}
		out.Assets = append(out.Assets, types.Asset{
			Name:               a.Name,
			BrowserDownloadURL: a.BrowserDownloadURL,
			Size:               a.Size,
			ContentType:        a.ContentType,
			Digest:             a.Digest,
		})
	}
	return out
}

// Resolver fetches releases for a repo, with a small in-memory cache so
// a batch install of several targets against the same repo (or repeat
// resolution within one target's pipeline) doesn't refetch, and a
// rate-limit-aware fallback to the last cached release when GitHub
// starts throttling.
type Resolver struct {
	client *Client
	cache  *Cache
}

// NewResolver builds a Resolver against client, using cache for
// fallback/memoization.
func NewResolver(client *Client, cache *Cache) *Resolver {
	return &Resolver{client: client, cache: cache}
}

// Latest fetches the most recent non-draft release for owner/repo.
func (r *Resolver) Latest(ctx context.Context, owner, repo string) (types.Release, error) {
	return r.fetch(ctx, owner, repo, "latest")
}

// ByTag fetches a specific release by tag.
func (r *Resolver) ByTag(ctx context.Context, owner, repo, tag string) (types.Release, error) {
	return r.fetch(ctx, owner, repo, "tags/"+tag)
}

// LatestPrerelease fetches the newest release flagged prerelease.
// GitHub sorts the releases list by creation date, which diverges from
// version order when an older release line gets a maintenance
// prerelease, so candidates are sorted by parsed version rather than
// taken in list order.
func (r *Resolver) LatestPrerelease(ctx context.Context, owner, repo string) (types.Release, error) {
	key := owner + "/" + repo + "@prerelease"
	var list []restRelease
	err := r.client.Get(ctx, fmt.Sprintf("/repos/%s/%s/releases", owner, repo), &list)
	if err != nil {
		if IsRateLimitError(err) && r.cache != nil {
			if cached, ok := r.cache.Get(key); ok {
				return cached, nil
			}
		}
		return types.Release{}, &errors.NetworkError{URL: "releases", Err: err}
	}

	byTag := make(map[string]restRelease, len(list))
	candidates := make(types.Versions, 0, len(list))
	for _, rel := range list {
		if !rel.Prerelease || rel.Draft {
			continue
		}
		v := types.ParseVersion(NormalizeTag(rel.TagName), rel.TagName)
		v.Prerelease = true
		if t, perr := time.Parse(time.RFC3339, rel.PublishedAt); perr == nil {
			v.Published = t
		}
		byTag[rel.TagName] = rel
		candidates = append(candidates, v)
	}
	candidates.Sort()
	if latest := candidates.Latest(); latest != nil {
		out := byTag[latest.Tag].toRelease()
		if r.cache != nil {
			r.cache.Put(key, out)
		}
		return out, nil
	}
	return types.Release{}, &errors.ProtocolError{What: fmt.Sprintf("no prerelease found for %s/%s", owner, repo)}
}

// ResolveWithPreference resolves a release honoring the prerelease
// preference: when preferPrerelease is true, try the prerelease first
// and fall back to the latest stable release on any error; otherwise
// the reverse.
func (r *Resolver) ResolveWithPreference(ctx context.Context, owner, repo string, preferPrerelease bool) (types.Release, error) {
	if preferPrerelease {
		if rel, err := r.LatestPrerelease(ctx, owner, repo); err == nil {
			return rel, nil
		}
		return r.Latest(ctx, owner, repo)
	}
	if rel, err := r.Latest(ctx, owner, repo); err == nil {
		return rel, nil
	}
	return r.LatestPrerelease(ctx, owner, repo)
}

func (r *Resolver) fetch(ctx context.Context, owner, repo, endpoint string) (types.Release, error) {
	key := owner + "/" + repo + "@" + endpoint
	var rel restRelease
	err := r.client.Get(ctx, fmt.Sprintf("/repos/%s/%s/releases/%s", owner, repo, endpoint), &rel)
	if err != nil {
		if IsRateLimitError(err) && r.cache != nil {
			if cached, ok := r.cache.Get(key); ok {
				return cached, nil
			}
		}
		return types.Release{}, &errors.NetworkError{URL: endpoint, Err: err}
	}
	out := rel.toRelease()
	if r.cache != nil {
		r.cache.Put(key, out)
	}
	return out, nil
}

// NormalizeTag strips any leading "pkg@" prefix (monorepo-style release
// tags such as "cli@v1.2.3") and a leading "v" before a digit, used
// for already-installed version comparisons. The v-strip requires a
// following digit so tags like "version-2024" keep their name; beyond
// that, non-semver remainders are kept as stripped (not every AppImage
// publisher tags releases with semver).
func NormalizeTag(tag string) string {
	trimmed := tag
	if idx := strings.LastIndex(trimmed, "@"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	if len(trimmed) > 1 && trimmed[0] == 'v' && trimmed[1] >= '0' && trimmed[1] <= '9' {
		trimmed = trimmed[1:]
	}
	return trimmed
}

// CompareTags reports whether tag a is newer than tag b. comparable is
// false (and newer false) when either tag isn't valid semver.
func CompareTags(a, b string) (newer bool, comparable bool) {
	va, errA := semver.NewVersion(strings.TrimPrefix(a, "v"))
	vb, errB := semver.NewVersion(strings.TrimPrefix(b, "v"))
	if errA != nil || errB != nil {
		return false, false
	}
	return va.GreaterThan(vb), true
}

// Package asset selects the AppImage to install from a release's
// assets and auto-detects accompanying checksum/manifest files, using
// stage-by-stage narrowing that restores the previous candidate set
// whenever a stage empties it.
package asset

import (
	"regexp"
	"strings"

	"github.com/go-appimage/aimctl/pkg/platform"
	"github.com/go-appimage/aimctl/pkg/types"
	"github.com/samber/lo"
)

// InstallationSource distinguishes a catalog-driven install (where a
// preferred-suffix hint may be configured) from a raw URL/owner-repo
// install.
type InstallationSource string

const (
	SourceCatalog InstallationSource = "catalog"
	SourceURL     InstallationSource = "url"
)

// SelectAppImage narrows release.Assets down to the single best
// .AppImage asset for this installation, or nil if none qualify.
func SelectAppImage(release types.Release, preferredSuffixes []string, source InstallationSource) *types.Asset {
	candidates := filterByExtension(release.Assets)
	if len(candidates) == 0 {
		return nil
	}

	if source == SourceURL {
		if filtered := excludeUnstable(candidates); len(filtered) > 0 {
			candidates = filtered
		}
	}

	if source == SourceCatalog && len(preferredSuffixes) > 0 {
		if filtered := keepPreferredSuffixes(candidates, preferredSuffixes); len(filtered) > 0 {
			candidates = filtered
		}
	}

	if filtered := excludeARM(candidates); len(filtered) > 0 {
		candidates = filtered
	}

	if source == SourceCatalog {
		matches := lo.Filter(candidates, func(c types.Asset, _ int) bool {
			lower := strings.ToLower(c.Name)
			return strings.Contains(lower, "x86_64") || strings.Contains(lower, "amd64")
		})
		if len(matches) > 0 {
			return &matches[0]
		}
	}

	a := candidates[0]
	return &a
}

func filterByExtension(assets []types.Asset) []types.Asset {
	return lo.Filter(assets, func(a types.Asset, _ int) bool {
		return strings.HasSuffix(strings.ToLower(a.Name), ".appimage")
	})
}

func excludeUnstable(assets []types.Asset) []types.Asset {
	return lo.Filter(assets, func(a types.Asset, _ int) bool {
		lower := strings.ToLower(a.Name)
		return !lo.SomeBy(platform.UnstableTags, func(tag string) bool {
			return strings.Contains(lower, tag)
		})
	})
}

func keepPreferredSuffixes(assets []types.Asset, suffixes []string) []types.Asset {
	return lo.Filter(assets, func(a types.Asset, _ int) bool {
		lower := strings.ToLower(a.Name)
		return lo.SomeBy(suffixes, func(s string) bool {
			return strings.Contains(lower, strings.ToLower(s))
		})
	})
}

func excludeARM(assets []types.Asset) []types.Asset {
	return lo.Filter(assets, func(a types.Asset, _ int) bool {
		lower := strings.ToLower(a.Name)
		return !lo.SomeBy(platform.ARMMarkers, func(marker string) bool {
			return strings.Contains(lower, marker)
		})
	})
}

// checksumFilePatterns is the ordered set of regular expressions used
// to recognize a checksum/manifest asset among a release's other
// assets: "checksums.txt"/"SHA256SUMS"-style whole-release files,
// AppImage-style per-file ".DIGEST"/".sha256" sidecars, and
// structured YAML manifests).
var checksumFilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\.ya?ml$`),
	regexp.MustCompile(`(?i)\.digest$`),
	regexp.MustCompile(`(?i)\.sha256sum$`),
	regexp.MustCompile(`(?i)\.sha512sum$`),
	regexp.MustCompile(`(?i)\.sha1sum$`),
	regexp.MustCompile(`(?i)\.md5sum$`),
	regexp.MustCompile(`(?i)\.sha256$`),
	regexp.MustCompile(`(?i)\.sha512$`),
	regexp.MustCompile(`(?i)\.sha1$`),
	regexp.MustCompile(`(?i)\.md5$`),
	regexp.MustCompile(`(?i)^SHA256SUMS?$`),
	regexp.MustCompile(`(?i)^SHA512SUMS?$`),
	regexp.MustCompile(`(?i)^checksums?(\.txt)?$`),
}

// DetectChecksumFiles scans a release's assets for files matching the
// known checksum/manifest naming conventions, tagging each with its
// format (structured for YAML, line-oriented otherwise) and sorting
// structured manifests before line-oriented ones.
func DetectChecksumFiles(assets []types.Asset) []types.ChecksumFileInfo {
	var out []types.ChecksumFileInfo
	for _, a := range assets {
		matched := false
		for _, re := range checksumFilePatterns {
			if re.MatchString(a.Name) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		format := types.ChecksumFormatLine
		lower := strings.ToLower(a.Name)
		if strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".yaml") {
			format = types.ChecksumFormatStructured
		}
		out = append(out, types.ChecksumFileInfo{Asset: a, Format: format})
	}

	structured := make([]types.ChecksumFileInfo, 0, len(out))
	lineOriented := make([]types.ChecksumFileInfo, 0, len(out))
	for _, c := range out {
		if c.Format == types.ChecksumFormatStructured {
			structured = append(structured, c)
		} else {
			lineOriented = append(lineOriented, c)
		}
	}
	return append(structured, lineOriented...)
}

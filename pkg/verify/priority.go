package verify

import (
	"strings"

	"github.com/go-appimage/aimctl/pkg/types"
)

// unstableMarkers penalize generic checksum files that look like they
// belong to a pre-release build rather than the asset being
// installed.
var unstableMarkers = []string{"experimental", "beta", "alpha", "preview", "rc", "dev"}

// scoreChecksumFile implements the exact-match > platform-specific >
// structured > other-digest > generic ordering, lower is better.
// Unstable markers in the filename add a +10 penalty on top.
func scoreChecksumFile(info types.ChecksumFileInfo, targetAssetName string) int {
	name := info.Asset.Name
	lower := strings.ToLower(name)
	targetLower := strings.ToLower(targetAssetName)

	score := 5 // generic fallback

	switch {
	case lower == targetLower+".digest" || name == targetAssetName+".DIGEST":
		score = 1
	case strings.HasPrefix(lower, targetLower):
		score = 2
	case info.Format == types.ChecksumFormatStructured:
		score = 3
	case strings.HasSuffix(lower, ".digest"):
		score = 4
	}

	for _, marker := range unstableMarkers {
		if strings.Contains(lower, marker) {
			score += 10
			break
		}
	}

	return score
}

// PrioritizeChecksumFiles sorts candidates by ascending score (best
// first) using a stable sort, so ties keep the input release-asset
// order — no ordering signal exists beyond the priority score itself.
func PrioritizeChecksumFiles(candidates []types.ChecksumFileInfo, targetAssetName string) []types.ChecksumFileInfo {
	scored := make([]types.ChecksumFileInfo, len(candidates))
	copy(scored, candidates)
	for i := range scored {
		scored[i].Priority = scoreChecksumFile(scored[i], targetAssetName)
	}

	for i := 1; i < len(scored); i++ {
		for j := i; j > 0 && scored[j].Priority < scored[j-1].Priority; j-- {
			scored[j], scored[j-1] = scored[j-1], scored[j]
		}
	}

	return scored
}

// Package platform describes the single target platform AppImages run on.
package platform

import "fmt"

// Platform identifies an OS/architecture pair. This installer only
// handles 64-bit x86 Linux AppImages, so the type has exactly one
// valid value; it is kept as a struct (rather than a bare constant) so
// the rest of the pipeline can still thread it through function
// signatures.
type Platform struct {
	OS   string `json:"os" yaml:"os"`
	Arch string `json:"arch" yaml:"arch"`
}

// Linux64 is the only platform this installer targets.
var Linux64 = Platform{OS: "linux", Arch: "amd64"}

// Current returns the fixed target platform.
func Current() Platform {
	return Linux64
}

func (p Platform) String() string {
	return fmt.Sprintf("%s-%s", p.OS, p.Arch)
}

// Supported reports whether p is a platform this installer can handle.
func (p Platform) Supported() bool {
	return p.OS == "linux" && p.Arch == "amd64"
}

// ARMMarkers are substrings in asset names that indicate an ARM build,
// used by the asset selector to exclude incompatible binaries.
var ARMMarkers = []string{"arm64", "aarch64", "armhf", "armv7", "armv6"}

// UnstableTags are substrings that mark a pre-release/unstable asset
// build, used when selecting assets for URL-sourced targets.
var UnstableTags = []string{"experimental", "beta", "alpha", "rc", "pre", "dev", "test", "nightly"}

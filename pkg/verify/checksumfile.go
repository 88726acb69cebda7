package verify

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseLineOriented extracts the checksum for targetName out of a
// SHA256SUMS-style checksum file: the standard "checksum  filename" /
// "checksum *filename" layout, the yq "filename  checksum1 checksum2..."
// layout (preferring SHA256 > SHA1 > MD5), and the single-line
// whole-file fallback when the file holds nothing but one checksum.
func ParseLineOriented(content []byte, targetName string) (value string, algo HashAlgo, err error) {
	filename := filepath.Base(targetName)
	lines := strings.Split(string(content), "\n")

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}

		checksumPart := parts[0]
		filePart := strings.TrimPrefix(strings.Join(parts[1:], " "), "*")
		if filePart == filename || strings.HasSuffix(filePart, "/"+filename) {
			if a, ok := DetectAlgoByLength(checksumPart); ok {
				return strings.ToLower(checksumPart), a, nil
			}
			return strings.ToLower(checksumPart), AlgoSHA256, nil
		}

		if parts[0] == filename || strings.HasSuffix(parts[0], "/"+filename) {
			var best string
			var bestAlgo HashAlgo
			for _, candidate := range parts[1:] {
				a, ok := DetectAlgoByLength(candidate)
				if !ok {
					continue
				}
				if bestAlgo == "" || a == AlgoSHA256 || (bestAlgo != AlgoSHA256 && a == AlgoSHA1) {
					best, bestAlgo = candidate, a
				}
			}
			if best != "" {
				return strings.ToLower(best), bestAlgo, nil
			}
		}
	}

	var nonEmpty []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			nonEmpty = append(nonEmpty, line)
		}
	}
	if len(nonEmpty) == 1 {
		if a, ok := DetectAlgoByLength(nonEmpty[0]); ok {
			return strings.ToLower(nonEmpty[0]), a, nil
		}
	}

	return "", "", fmt.Errorf("checksum not found for %s in checksum file", filename)
}

// manifestEntry is the per-asset shape of the structured checksum
// manifests this installer accepts: either a plain hex digest under a
// named algorithm key, or (per electron-builder's latest*.yml format,
// the real shape exercised by Legcord-style releases) a base64-encoded
// hash that must be re-encoded to hex before compare.
type manifestEntry struct {
	URL    string `yaml:"url"`
	SHA256 string `yaml:"sha256"`
	SHA512 string `yaml:"sha512"`
	Hash   string `yaml:"hash"`
	Path   string `yaml:"path"`
}

type structuredManifest struct {
	// Files is a list, not a map: electron-builder's latest*.yml lists
	// "files: [{url, sha512, size}, ...]" entries, matched below by URL.
	Files []manifestEntry `yaml:"files"`
	// Single-asset manifests (no per-file list) fall back to the
	// top-level fields, matching a release that ships one manifest per
	// asset rather than one shared manifest.
	SHA256 string `yaml:"sha256"`
	SHA512 string `yaml:"sha512"`
	Hash   string `yaml:"hash"`
	Path   string `yaml:"path"`
}

// ParseStructuredManifest extracts the checksum for targetName from a
// YAML manifest, decoding base64-encoded hash values to hex when the
// value isn't already valid hex (electron-builder manifests store
// hashes base64-encoded; goreleaser-style manifests store hex).
func ParseStructuredManifest(content []byte, targetName string) (value string, algo HashAlgo, err error) {
	var m structuredManifest
	if err := yaml.Unmarshal(content, &m); err != nil {
		return "", "", fmt.Errorf("parsing structured checksum manifest: %w", err)
	}

	filename := filepath.Base(targetName)

	var entry manifestEntry
	var ok bool
	for _, e := range m.Files {
		if e.URL == filename || filepath.Base(e.URL) == filename {
			entry, ok = e, true
			break
		}
	}
	if !ok {
		if m.SHA256 == "" && m.SHA512 == "" && m.Hash == "" {
			return "", "", fmt.Errorf("asset %s not found in checksum manifest", filename)
		}
		entry = manifestEntry{SHA256: m.SHA256, SHA512: m.SHA512, Hash: m.Hash}
	}

	switch {
	case entry.SHA256 != "":
		return normalizeManifestHash(entry.SHA256, AlgoSHA256)
	case entry.SHA512 != "":
		return normalizeManifestHash(entry.SHA512, AlgoSHA512)
	case entry.Hash != "":
		if a, ok := DetectAlgoByLength(entry.Hash); ok {
			return normalizeManifestHash(entry.Hash, a)
		}
		return normalizeManifestHash(entry.Hash, AlgoSHA256)
	default:
		return "", "", fmt.Errorf("no hash recorded for %s in checksum manifest", filename)
	}
}

// normalizeManifestHash accepts either a hex-encoded or base64-encoded
// hash value and returns it as lowercase hex, re-encoding when it isn't
// already valid hex of the expected length for algo.
func normalizeManifestHash(raw string, algo HashAlgo) (string, HashAlgo, error) {
	raw = strings.TrimSpace(raw)
	if isHex(raw) {
		return strings.ToLower(raw), algo, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(raw)
	}
	if err != nil {
		return "", "", fmt.Errorf("hash value %q is neither hex nor base64", raw)
	}
	return hex.EncodeToString(decoded), algo, nil
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')) {
			return false
		}
	}
	return true
}

// hashFile computes the hex-encoded digest of the file at path using
// algo, streaming it through the hasher rather than reading it whole
// (files here are AppImage binaries, routinely tens of megabytes).
func hashFile(path string, algo HashAlgo) (string, error) {
	h, err := NewHasher(algo)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

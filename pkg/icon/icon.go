// Package icon acquires an application icon for an installed
// AppImage: first by extracting it from the AppImage itself via
// "--appimage-extract", falling back to downloading
// IconConfig.IconURL when extraction is disabled, fails, or finds
// nothing.
package icon

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/flanksource/commons/logger"
	"github.com/go-appimage/aimctl/pkg/download"
	"github.com/go-appimage/aimctl/pkg/progress"
	"github.com/go-appimage/aimctl/pkg/types"
)

// recoverableExtractionErrors are substrings of --appimage-extract
// stderr that mean "this AppImage cannot be introspected", not "icon
// acquisition failed" — the caller should fall back to IconURL without
// surfacing an error (icon.py's is_recoverable_error).
var recoverableExtractionErrors = []string{
	"Unsupported AppImage compression format",
	"Cannot open AppImage squashfs filesystem",
	"Invalid AppImage format",
}

// formatScores ranks icon file formats by quality, highest wins
// (icon.py's FORMAT_SCORES).
var formatScores = map[string]int{
	".svg": 100,
	".png": 50,
	".ico": 30,
	".xpm": 20,
	".bmp": 10,
}

// ResolveExtractionPreference picks the effective extraction setting:
// the current config's Extraction wins if present, else the catalog
// entry's, else the default of true.
func ResolveExtractionPreference(current *types.IconConfig, catalog *types.IconConfig) bool {
	if current != nil && current.Extraction != nil {
		return *current.Extraction
	}
	if catalog != nil && catalog.Extraction != nil {
		return *catalog.Extraction
	}
	return true
}

// Acquire obtains an icon for appName, preferring extraction from
// appimagePath when extraction is enabled, falling back to downloading
// cfg.IconURL. destPath is the final on-disk icon location. Returns a
// recoverable IconResult (Recoverable=true, Err set) rather than a Go
// error when nothing could be found but installation should proceed.
func Acquire(ctx context.Context, appimagePath, destPath, appName string, cfg types.IconConfig, extractionEnabled bool, reporter progress.Reporter) types.IconResult {
	updated := cfg

	if extractionEnabled && appimagePath != "" {
		if _, err := os.Stat(appimagePath); err == nil {
			path, err := extractIcon(appimagePath, destPath, appName)
			if err == nil {
				enabled := true
				updated.Extraction = &enabled
				if !cfg.PreserveURLOnExtraction {
					updated.IconURL = ""
				}
				return types.IconResult{Path: path, Source: types.IconSourceExtraction, Config: updated}
			}
			if isRecoverable(err) {
				logger.Debugf("icon extraction skipped for %s: %v", appName, err)
			} else {
				logger.Warnf("icon extraction failed for %s: %v", appName, err)
			}
		}
	}

	disabled := false
	updated.Extraction = &disabled

	if cfg.IconURL == "" {
		return types.IconResult{Source: types.IconSourceNone, Config: updated, Recoverable: true, Err: errNoIconAvailable(appName)}
	}

	if reporter != nil {
		reporter.Phase(progress.TaskIcon, "downloading icon")
	}
	if err := download.File(ctx, cfg.IconURL, destPath, reporter, progress.TaskIcon, download.WithoutProgress()); err != nil {
		return types.IconResult{Source: types.IconSourceNone, Config: updated, Recoverable: true, Err: err}
	}
	return types.IconResult{Path: destPath, Source: types.IconSourceGitHub, Config: updated}
}

func errNoIconAvailable(appName string) error {
	return &noIconError{appName: appName}
}

type noIconError struct{ appName string }

func (e *noIconError) Error() string { return "no icon available for " + e.appName }

func isRecoverable(err error) bool {
	msg := err.Error()
	for _, pattern := range recoverableExtractionErrors {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// extractIcon runs "appimage --appimage-extract" in a temp directory
// and returns the best icon found under squashfs-root.
func extractIcon(appimagePath, destPath, appName string) (string, error) {
	tempDir, err := os.MkdirTemp("", "aimctl-icon-")
	if err != nil {
		return "", err
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	if err := os.Chmod(appimagePath, 0o755); err != nil {
		return "", err
	}

	cmd := exec.Command(appimagePath, "--appimage-extract")
	cmd.Dir = tempDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", classifyExtractionError(string(output), err)
	}

	squashfsRoot := filepath.Join(tempDir, "squashfs-root")
	if _, err := os.Stat(squashfsRoot); err != nil {
		return "", &extractionError{msg: "no squashfs-root directory found after extraction"}
	}

	best, err := findBestIcon(squashfsRoot, appName)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", err
	}
	if err := copyFile(best, destPath); err != nil {
		return "", err
	}
	return destPath, nil
}

type extractionError struct{ msg string }

func (e *extractionError) Error() string { return e.msg }

func classifyExtractionError(stderr string, cause error) error {
	switch {
	case strings.Contains(stderr, "xz compression") && strings.Contains(stderr, "supports only"):
		return &extractionError{msg: recoverableExtractionErrors[0]}
	case strings.Contains(stderr, "Failed to open squashfs image"):
		return &extractionError{msg: recoverableExtractionErrors[1]}
	case strings.Contains(stderr, "Invalid magic number"):
		return &extractionError{msg: recoverableExtractionErrors[2]}
	default:
		return &extractionError{msg: "AppImage extraction failed: " + cause.Error() + ": " + strings.TrimSpace(stderr)}
	}
}

// candidate is a scored icon found under squashfs-root.
type candidate struct {
	path  string
	score int
}

// searchPatterns mirrors icon.py's glob ordering: exact app-name match,
// app-name substring match, generic "icon"/".DirIcon" names, then any
// image by extension.
func searchPatterns(appName string) []string {
	lower := strings.ToLower(appName)
	return []string{
		"**/" + appName + ".*",
		"**/*" + lower + "*.*",
		"**/icon.*",
		"**/.DirIcon",
		"**/*.svg",
		"**/*.png",
		"**/*.ico",
	}
}

func findBestIcon(squashfsRoot, appName string) (string, error) {
	searchDirs := []string{
		squashfsRoot,
		filepath.Join(squashfsRoot, "usr", "share", "icons"),
		filepath.Join(squashfsRoot, "usr", "share", "pixmaps"),
	}

	seen := map[string]bool{}
	var candidates []candidate

	for _, dir := range searchDirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		for _, pattern := range searchPatterns(appName) {
			matches, err := doublestar.Glob(os.DirFS(dir), pattern)
			if err != nil {
				continue
			}
			for _, m := range matches {
				full := filepath.Join(dir, m)
				resolved, err := resolveSymlink(full, squashfsRoot)
				if err != nil || seen[resolved] {
					continue
				}
				seen[resolved] = true
				if score := scoreIcon(resolved, appName); score > 0 {
					candidates = append(candidates, candidate{path: resolved, score: score})
				}
			}
		}
	}

	if len(candidates) == 0 {
		return "", &extractionError{msg: "no suitable icon found for " + appName}
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	return candidates[0].path, nil
}

// resolveSymlink follows a symlink, rebasing an absolute target onto
// squashfsRoot the way an AppImage's internal symlinks (e.g. a root
// ".DirIcon" pointing at an absolute-looking in-image path) expect.
func resolveSymlink(path, squashfsRoot string) (string, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return "", err
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return path, nil
	}

	target, err := os.Readlink(path)
	if err != nil {
		return "", err
	}

	var resolved string
	if filepath.IsAbs(target) {
		resolved = filepath.Join(squashfsRoot, target)
	} else {
		resolved = filepath.Join(filepath.Dir(path), target)
	}

	if _, err := os.Stat(resolved); err != nil {
		return "", err
	}
	return resolved, nil
}

func scoreIcon(path, appName string) int {
	info, err := os.Stat(path)
	if err != nil || info.Size() < 20 {
		return 0
	}

	ext := strings.ToLower(filepath.Ext(path))
	stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	appLower := strings.ToLower(appName)

	score := formatScores[ext]

	switch {
	case stem == appLower:
		score += 50
	case strings.HasPrefix(stem, appLower):
		score += 30
	case strings.Contains(stem, appLower):
		score += 20
	case stem == "icon" || stem == "app":
		score += 10
	}

	return score
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	_, err = io.Copy(out, in)
	return err
}

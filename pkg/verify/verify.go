package verify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-appimage/aimctl/pkg/asset"
	"github.com/go-appimage/aimctl/pkg/errors"
	"github.com/go-appimage/aimctl/pkg/types"
	"golang.org/x/sync/errgroup"
)

// Request bundles everything VerifyFile needs about one target's
// downloaded file.
type Request struct {
	FilePath string
	Asset    types.Asset
	Config   types.VerificationConfig
	Owner    string
	Repo     string
	Tag      string
	// AllAssets enables checksum-file auto-detection when Config
	// doesn't name one explicitly.
	AllAssets []types.Asset
	// Timeout bounds each verification method's checksum-file fetch;
	// callers pass the configured download timeout.
	Timeout time.Duration
}

// VerifyFile runs every available verification method concurrently
// against req.FilePath and aggregates the results.
func VerifyFile(ctx context.Context, req Request) types.VerificationResult {
	methods := detectMethods(req)

	const noChecksumsWarning = "not verified - developer did not provide checksums"

	if req.Config.SkipVerification {
		hasStrong := len(methods) > 0
		if !hasStrong {
			return types.VerificationResult{Status: types.VerificationUnverified, Warning: noChecksumsWarning, Config: req.Config}
		}
		// A strong method exists: override skip and proceed (Phase 2).
	}

	if len(methods) == 0 {
		cfg := req.Config
		cfg.SkipVerification = false
		return types.VerificationResult{Status: types.VerificationUnverified, Warning: noChecksumsWarning, Config: cfg}
	}

	results := make([]types.MethodResult, len(methods))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range methods {
		i, m := i, m
		g.Go(func() error {
			timeout := req.Timeout
			if timeout <= 0 {
				timeout = 30 * time.Second
			}
			callCtx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()
			results[i] = m.run(callCtx, req.FilePath)
			return nil // individual method failures never abort the group
		})
	}
	_ = g.Wait()

	result := aggregate(results)
	result.Config = updatedConfig(req.Config, result)
	return result
}

// updatedConfig returns a config reflecting what actually worked this
// run, so a subsequent install/update can skip auto-detection next
// time.
func updatedConfig(cfg types.VerificationConfig, result types.VerificationResult) types.VerificationConfig {
	if result.Status == types.VerificationUnverified {
		cfg.SkipVerification = false
		return cfg
	}
	for _, m := range result.Methods {
		if !m.OK {
			continue
		}
		switch m.Method {
		case types.MethodDigest:
			cfg.Digest = true
		case types.MethodChecksum:
			if cfg.ChecksumFile == "" {
				cfg.ChecksumFile = m.Detail
			}
		}
	}
	cfg.SkipVerification = false
	return cfg
}

// method is one concurrently-run verification task (digest or a single
// checksum file candidate).
type method struct {
	kind types.VerificationMethod
	run  func(ctx context.Context, filePath string) types.MethodResult
}

// detectMethods determines what is available: digest if present, plus
// either the explicitly configured checksum file or the auto-detected,
// prioritized candidates. When the digest is explicitly trusted,
// auto-detection is skipped entirely — the digest is authoritative and
// cheaper.
func detectMethods(req Request) []method {
	var methods []method

	digest := strings.TrimSpace(req.Asset.Digest)
	if digest != "" {
		methods = append(methods, method{
			kind: types.MethodDigest,
			run: func(ctx context.Context, filePath string) types.MethodResult {
				return verifyDigest(filePath, digest)
			},
		})
	}

	var checksumFiles []types.ChecksumFileInfo
	switch {
	case req.Config.ChecksumFile != "":
		info := resolveConfiguredChecksumFile(req)
		checksumFiles = []types.ChecksumFileInfo{info}
	case digest != "" && req.Config.Digest:
		// Digest is explicit and authoritative: skip auto-detection.
	case len(req.AllAssets) > 0:
		checksumFiles = PrioritizeChecksumFiles(asset.DetectChecksumFiles(req.AllAssets), req.Asset.Name)
	}

	for _, cf := range checksumFiles {
		cf := cf
		methods = append(methods, method{
			kind: types.MethodChecksum,
			run: func(ctx context.Context, filePath string) types.MethodResult {
				return verifyChecksumFile(ctx, filePath, req.Asset.Name, cf)
			},
		})
	}

	return methods
}

// resolveConfiguredChecksumFile builds the ChecksumFileInfo for an
// explicitly configured checksum file name, resolving {version}/{tag}/
// {asset_name} placeholders and the release-asset download URL.
func resolveConfiguredChecksumFile(req Request) types.ChecksumFileInfo {
	filename := req.Config.ChecksumFile
	replacer := strings.NewReplacer(
		"{version}", req.Tag,
		"{tag}", req.Tag,
		"{asset_name}", req.Asset.Name,
	)
	filename = replacer.Replace(filename)

	url := fmt.Sprintf("https://github.com/%s/%s/releases/download/%s/%s", req.Owner, req.Repo, req.Tag, filename)
	format := types.ChecksumFormatLine
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".yaml") {
		format = types.ChecksumFormatStructured
	}

	return types.ChecksumFileInfo{
		Asset:  types.Asset{Name: filename, BrowserDownloadURL: url},
		Format: format,
	}
}

func verifyDigest(filePath, digestField string) types.MethodResult {
	parts := strings.SplitN(digestField, ":", 2)
	if len(parts) != 2 {
		return types.MethodResult{Method: types.MethodDigest, OK: false, Err: fmt.Errorf("malformed digest %q", digestField)}
	}
	algo := HashAlgo(strings.ToLower(strings.TrimSpace(parts[0])))
	expected := strings.ToLower(strings.TrimSpace(parts[1]))

	actual, err := hashFile(filePath, algo)
	if err != nil {
		return types.MethodResult{Method: types.MethodDigest, OK: false, Err: err, Algo: string(algo)}
	}

	ok := strings.EqualFold(actual, expected)
	return types.MethodResult{
		Method:   types.MethodDigest,
		OK:       ok,
		Algo:     string(algo),
		Expected: expected,
		Actual:   actual,
		Detail:   "github asset digest",
	}
}

func verifyChecksumFile(ctx context.Context, filePath, targetName string, info types.ChecksumFileInfo) types.MethodResult {
	content, err := fetchSmall(ctx, info.Asset.BrowserDownloadURL)
	if err != nil {
		return types.MethodResult{Method: types.MethodChecksum, OK: false, Err: err, SourceURL: info.Asset.BrowserDownloadURL}
	}

	var expected string
	var algo HashAlgo
	if info.Format == types.ChecksumFormatStructured {
		expected, algo, err = ParseStructuredManifest(content, targetName)
	} else {
		algo, _ = AlgoFromSuffix(info.Asset.Name)
		if algo == "" {
			algo = AlgoSHA256
		}
		var detectedAlgo HashAlgo
		expected, detectedAlgo, err = ParseLineOriented(content, targetName)
		if detectedAlgo != "" {
			algo = detectedAlgo
		}
	}
	if err != nil {
		return types.MethodResult{Method: types.MethodChecksum, OK: false, Err: err, SourceURL: info.Asset.BrowserDownloadURL}
	}

	actual, err := hashFile(filePath, algo)
	if err != nil {
		return types.MethodResult{Method: types.MethodChecksum, OK: false, Err: err, SourceURL: info.Asset.BrowserDownloadURL}
	}

	ok := strings.EqualFold(actual, expected)
	return types.MethodResult{
		Method:    types.MethodChecksum,
		OK:        ok,
		Algo:      string(algo),
		Expected:  expected,
		Actual:    actual,
		SourceURL: info.Asset.BrowserDownloadURL,
		Detail:    filepath.Base(info.Asset.Name),
	}
}

// fetchSmall downloads a checksum/manifest file into memory — these
// are always small text files, never streamed to disk.
func fetchSmall(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, &errors.NetworkError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, &errors.ProtocolError{What: fmt.Sprintf("fetching checksum file %s: HTTP %d", url, resp.StatusCode)}
	}
	return io.ReadAll(resp.Body)
}

// aggregate folds the method results: the verification fails only
// when every attempted method failed, and one passing method verifies
// it (with a partial-verification warning if another failed); no
// method attempted at all never
// happens here (detectMethods returning empty is handled by the
// caller), so Methods is always non-empty on entry.
func aggregate(results []types.MethodResult) types.VerificationResult {
	anyOK := false
	var failedMethods []string
	for _, r := range results {
		if r.Skipped {
			continue
		}
		if r.OK {
			anyOK = true
		} else {
			failedMethods = append(failedMethods, string(r.Method))
		}
	}

	status := types.VerificationUnverified
	warning := ""
	switch {
	case len(failedMethods) > 0 && !anyOK:
		status = types.VerificationFailed
	case anyOK && len(failedMethods) > 0:
		status = types.VerificationVerified
		warning = fmt.Sprintf("Partial verification: %s failed", strings.Join(failedMethods, ", "))
	case anyOK:
		status = types.VerificationVerified
	}

	return types.VerificationResult{Status: status, Methods: results, Warning: warning}
}

// Package orchestrator implements the install orchestrator: it
// classifies a heterogeneous target list, runs the seven-stage
// per-target pipeline under a concurrency-bounded semaphore, and
// assembles a PerTargetOutcome per target, driving the
// fixed Resolve → Download → Verify → Install → Icon → Persist →
// Desktop-entry pipeline this spec names.
package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/go-appimage/aimctl/pkg/appconfig"
	"github.com/go-appimage/aimctl/pkg/asset"
	"github.com/go-appimage/aimctl/pkg/catalog"
	"github.com/go-appimage/aimctl/pkg/desktop"
	depsdownload "github.com/go-appimage/aimctl/pkg/download"
	installerrors "github.com/go-appimage/aimctl/pkg/errors"
	"github.com/go-appimage/aimctl/pkg/fileops"
	"github.com/go-appimage/aimctl/pkg/globalconfig"
	"github.com/go-appimage/aimctl/pkg/icon"
	"github.com/go-appimage/aimctl/pkg/progress"
	"github.com/go-appimage/aimctl/pkg/ratelimit"
	"github.com/go-appimage/aimctl/pkg/release"
	"github.com/go-appimage/aimctl/pkg/types"
	"github.com/go-appimage/aimctl/pkg/verify"
	"golang.org/x/sync/semaphore"
)

// ReporterFactory builds a per-target progress.Reporter, e.g. one
// backed by a fresh clicky task.Task started by the caller (pkg/progress
// deliberately holds no opinion on how a Reporter is constructed — see
// its package doc). A nil factory reports through progress.NoOp.
type ReporterFactory func(target types.Target) progress.Reporter

// Orchestrator runs install pipelines for a set of targets against one
// catalog and one global configuration, threading a single
// InstallerContext-equivalent (rate-limit tracker, release cache, path
// locks) through every per-target pipeline rather than touching module
// globals.
type Orchestrator struct {
	catalog   catalog.Lookup
	config    globalconfig.Provider
	resolver  *release.Resolver
	limiter   *ratelimit.Tracker
	locks     *pathLocks
	reporters ReporterFactory
}

// New builds an Orchestrator. reporters may be nil to disable progress
// reporting entirely.
func New(cat catalog.Lookup, cfg globalconfig.Provider, reporters ReporterFactory) *Orchestrator {
	limiter := ratelimit.New()
	client := release.NewClient(limiter)
	resolver := release.NewResolver(client, release.NewCache())
	return &Orchestrator{
		catalog:   cat,
		config:    cfg,
		resolver:  resolver,
		limiter:   limiter,
		locks:     newPathLocks(),
		reporters: reporters,
	}
}

// Install runs the per-target pipeline for every target, bounded by
// opts.Concurrency permits, and returns one PerTargetOutcome per input
// target in input order. A classification failure (unknown
// catalog target) aborts the whole batch before any pipeline runs.
func (o *Orchestrator) Install(ctx context.Context, rawTargets []string, options ...Option) ([]types.PerTargetOutcome, error) {
	opts := DefaultOptions()
	for _, opt := range options {
		opt(&opts)
	}

	targets, err := classify(o.catalog, rawTargets)
	if err != nil {
		return nil, err
	}

	outcomes := make([]types.PerTargetOutcome, len(targets))
	sem := semaphore.NewWeighted(int64(opts.Concurrency))
	done := make(chan struct{})

	for i, t := range targets {
		i, t := i, t
		go func() {
			if err := sem.Acquire(ctx, 1); err != nil {
				outcomes[i] = types.PerTargetOutcome{
					Target:  t,
					Outcome: types.OutcomeCancelled,
					Err:     &installerrors.CancelledError{Target: t.Raw},
				}
				done <- struct{}{}
				return
			}
			defer sem.Release(1)
			outcomes[i] = o.runOne(ctx, t, opts)
			done <- struct{}{}
		}()
	}
	for range targets {
		<-done
	}

	return outcomes, nil
}

// runOne runs the seven pipeline stages for a single target, converting
// any error into a failure outcome rather than propagating it — a
// failure here never cancels sibling targets.
func (o *Orchestrator) runOne(ctx context.Context, target types.Target, opts Options) types.PerTargetOutcome {
	reporter := progress.Reporter(progress.NoOp{})
	if o.reporters != nil {
		reporter = o.reporters(target)
	}

	owner, repo, entry, err := o.resolveIdentity(target)
	if err != nil {
		return failOutcome(target, err)
	}

	name := appName(target, repo)
	binaryPath := fileops.RenameAppImage(o.config.InstallDir(), name)

	if !opts.Force {
		if outcome, already := o.checkAlreadyInstalled(target, name, binaryPath); already {
			return outcome
		}
	}

	unlock := o.locks.Acquire(binaryPath)
	defer unlock()

	// Re-check now that the path is exclusively ours: a sibling target
	// for the same app may have completed between our first check and
	// acquiring the lock.
	if !opts.Force {
		if outcome, already := o.checkAlreadyInstalled(target, name, binaryPath); already {
			return outcome
		}
	}

	select {
	case <-ctx.Done():
		return types.PerTargetOutcome{Target: target, Outcome: types.OutcomeCancelled, Err: &installerrors.CancelledError{Target: target.Raw}}
	default:
	}

	reporter.Phase(progress.TaskResolve, fmt.Sprintf("resolving %s/%s", owner, repo))
	rel, selected, err := o.resolve(ctx, owner, repo, entry)
	if err != nil {
		return failOutcome(target, err)
	}

	tmpPath := filepath.Join(opts.DownloadDir, fmt.Sprintf("%s-%s", name, selected.Name))
	reporter.Phase(progress.TaskDownload, selected.Name)
	downloadOpts := []depsdownload.Option{depsdownload.WithTimeout(o.config.DownloadTimeout())}
	if !opts.ShowProgress {
		downloadOpts = append(downloadOpts, depsdownload.WithoutProgress())
	}
	if err := depsdownload.File(ctx, selected.BrowserDownloadURL, tmpPath, reporter, progress.TaskDownload, downloadOpts...); err != nil {
		return failOutcome(target, err)
	}
	defer func() { _ = os.Remove(tmpPath) }()

	// Catches a mis-tagged or cross-platform asset that slipped past
	// asset selection (which only matches on filename, never opens the
	// file) before it reaches checksum/digest verification, which only
	// confirms byte-identity, not ELF architecture.
	if err := verify.VerifyAppImageBinary(tmpPath); err != nil {
		return failOutcome(target, &installerrors.AssetNotFoundError{Repo: owner + "/" + repo, Tag: rel.TagName, Pattern: selected.Name + ": " + err.Error()})
	}

	verCfg := entry.VerificationConfig
	verResult := types.VerificationResult{Status: types.VerificationUnverified}
	if opts.Verify {
		reporter.Phase(progress.TaskVerify, "checking integrity")
		verResult = verify.VerifyFile(ctx, verify.Request{
			FilePath:  tmpPath,
			Asset:     selected,
			Config:    verCfg,
			Owner:     owner,
			Repo:      repo,
			Tag:       rel.TagName,
			AllAssets: rel.Assets,
			Timeout:   o.config.DownloadTimeout(),
		})
		if verResult.Status == types.VerificationFailed {
			return failOutcome(target, &installerrors.VerificationFailedError{
				File:   selected.Name,
				Method: "all",
				Reason: "no attempted verification method passed",
			})
		}
		verCfg = verResult.Config
	}

	reporter.Phase(progress.TaskInstall, "installing")
	if err := fileops.MoveFile(tmpPath, binaryPath); err != nil {
		return failOutcome(target, &installerrors.InstallError{Stage: "move", Err: err})
	}
	if err := fileops.MakeExecutable(binaryPath); err != nil {
		_ = os.Remove(binaryPath)
		return failOutcome(target, &installerrors.InstallError{Stage: "chmod", Err: err})
	}

	reporter.Phase(progress.TaskIcon, "")
	iconCfg := entry.IconConfig
	extractionEnabled := icon.ResolveExtractionPreference(nil, &entry.IconConfig)
	iconDest := filepath.Join(o.config.IconDir(), name+filepath.Ext(strings.ToLower(pickIconName(iconCfg.IconURL))))
	iconResult := icon.Acquire(ctx, binaryPath, iconDest, name, iconCfg, extractionEnabled, reporter)

	record := o.buildRecord(target, owner, repo, entry, rel, binaryPath, verResult, verCfg, iconResult)
	if err := appconfig.Write(o.config.ConfigDir(), name, record); err != nil {
		// A placed binary with no config record would break the
		// binary-exists-iff-record-exists invariant every other code
		// path (check, uninstall, already_installed) relies on.
		_ = os.Remove(binaryPath)
		return failOutcome(target, &installerrors.InstallError{Stage: "config", Err: err})
	}

	desktopPath, err := desktop.Write(o.config.DesktopDir(), name, desktop.Entry{
		Name: titleCase(name),
		Exec: binaryPath,
		Icon: iconResult.Path,
	})
	if err != nil {
		logger.Warnf("desktop entry for %s failed (non-fatal): %v", name, err)
		desktopPath = ""
	}

	outRecord := toTypesRecord(name, target, rel, binaryPath, iconResult, verResult, desktopPath)
	return types.PerTargetOutcome{Target: target, Outcome: types.OutcomeInstalled, Record: &outRecord}
}

func pickIconName(url string) string {
	if url == "" {
		return "icon.png"
	}
	return filepath.Base(url)
}

func titleCase(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func failOutcome(target types.Target, err error) types.PerTargetOutcome {
	var cancelled *installerrors.CancelledError
	outcome := types.OutcomeFailed
	if stderrors.As(err, &cancelled) {
		outcome = types.OutcomeCancelled
	}
	return types.PerTargetOutcome{Target: target, Outcome: outcome, Err: err}
}

// resolveIdentity returns owner/repo plus the effective catalog entry
// (synthesized for a URL target) for target.
func (o *Orchestrator) resolveIdentity(target types.Target) (owner, repo string, entry types.CatalogEntry, err error) {
	if target.Kind == types.TargetCatalog {
		e, ok := o.catalog.GetAppConfig(target.Raw)
		if !ok {
			return "", "", types.CatalogEntry{}, &installerrors.ValidationError{Target: target.Raw, Reason: "catalog entry vanished between classification and resolution"}
		}
		return e.Owner, e.Repo, e, nil
	}

	owner, repo, ok := ownerRepo(target.Raw)
	if !ok {
		return "", "", types.CatalogEntry{}, &installerrors.ValidationError{Target: target.Raw, Reason: "not a valid https://github.com/<owner>/<repo> URL"}
	}
	return owner, repo, types.CatalogEntry{Name: repo, Owner: owner, Repo: repo}, nil
}

// checkAlreadyInstalled implements the non-force idempotence rule: an
// existing binary with a config record short-circuits the pipeline.
func (o *Orchestrator) checkAlreadyInstalled(target types.Target, name, binaryPath string) (types.PerTargetOutcome, bool) {
	if _, err := os.Stat(binaryPath); err != nil {
		return types.PerTargetOutcome{}, false
	}
	rec, found, _ := appconfig.Read(o.config.ConfigDir(), name)
	var recordPtr *types.AppConfigRecord
	if found {
		converted := types.AppConfigRecord{
			Name:         name,
			Source:       rec.Source,
			Version:      rec.State.Version,
			BinaryPath:   rec.State.InstalledPath,
			Verification: types.VerificationVerified,
		}
		if !rec.State.Verification.Passed {
			converted.Verification = types.VerificationFailed
		}
		recordPtr = &converted
	}
	return types.PerTargetOutcome{Target: target, Outcome: types.OutcomeAlreadyInstalled, Record: recordPtr}, true
}

// resolve fetches the release (honoring prerelease preference) and
// selects the install candidate AppImage asset.
func (o *Orchestrator) resolve(ctx context.Context, owner, repo string, entry types.CatalogEntry) (types.Release, types.Asset, error) {
	rel, err := o.resolver.ResolveWithPreference(ctx, owner, repo, entry.PreferPrerelease)
	if err != nil {
		return types.Release{}, types.Asset{}, err
	}

	// A URL target synthesizes its CatalogEntry with no PreferredSuffixes
	// (see resolveIdentity), which is exactly the signal asset selection
	// needs to treat it as a URL-style install.
	source := asset.SourceCatalog
	if len(entry.PreferredSuffixes) == 0 {
		source = asset.SourceURL
	}

	selected := asset.SelectAppImage(rel, entry.PreferredSuffixes, source)
	if selected == nil {
		return types.Release{}, types.Asset{}, &installerrors.AssetNotFoundError{Repo: owner + "/" + repo, Tag: rel.TagName, Pattern: "*.AppImage"}
	}
	return rel, *selected, nil
}

func (o *Orchestrator) buildRecord(target types.Target, owner, repo string, entry types.CatalogEntry, rel types.Release, binaryPath string, ver types.VerificationResult, verCfg types.VerificationConfig, iconResult types.IconResult) appconfig.Record {
	var catalogRef *string
	var overrides *appconfig.Overrides
	source := "url"
	if target.Kind == types.TargetCatalog {
		key := strings.ToLower(target.Raw)
		catalogRef = &key
		source = "catalog"
	} else {
		overrides = &appconfig.Overrides{
			Owner:              owner,
			Repo:               repo,
			PreferPrerelease:   entry.PreferPrerelease,
			VerificationConfig: verCfg,
			IconConfig:         iconResult.Config,
		}
	}

	iconMethod := ""
	switch iconResult.Source {
	case types.IconSourceExtraction:
		iconMethod = "extraction"
	case types.IconSourceGitHub:
		iconMethod = "download"
	}

	return appconfig.Record{
		ConfigVersion: "1.0.0",
		Source:        source,
		CatalogRef:    catalogRef,
		Overrides:     overrides,
		State: appconfig.State{
			Version:       release.NormalizeTag(rel.TagName),
			InstalledDate: time.Now().UTC().Format(time.RFC3339),
			InstalledPath: binaryPath,
			Verification: appconfig.VerificationSummary{
				Passed:  ver.Status != types.VerificationFailed,
				Methods: appconfig.ToMethodEntries(ver.Methods),
				Warning: ver.Warning,
			},
			Icon: appconfig.IconState{
				Installed: iconResult.Path != "",
				Method:    iconMethod,
				Path:      iconResult.Path,
			},
		},
	}
}

func toTypesRecord(name string, target types.Target, rel types.Release, binaryPath string, iconResult types.IconResult, ver types.VerificationResult, desktopPath string) types.AppConfigRecord {
	iconMethod := ""
	switch iconResult.Source {
	case types.IconSourceExtraction:
		iconMethod = "extraction"
	case types.IconSourceGitHub:
		iconMethod = "download"
	}
	return types.AppConfigRecord{
		Name:                name,
		Source:              string(target.Kind),
		Version:             release.NormalizeTag(rel.TagName),
		InstalledAt:         time.Now().UTC(),
		BinaryPath:          binaryPath,
		IconPath:            iconResult.Path,
		IconMethod:          iconMethod,
		DesktopEntry:        desktopPath,
		Verification:        ver.Status,
		VerificationMethods: ver.Methods,
		Warning:             ver.Warning,
	}
}

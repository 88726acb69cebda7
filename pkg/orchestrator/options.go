package orchestrator

import (
	"os"
	"path/filepath"
)

// Options configures a single Install() batch call.
type Options struct {
	// Concurrency bounds how many per-target pipelines run at once
	// (default 3).
	Concurrency int
	// Verify toggles whether the verification stage runs at all; false
	// is distinct from "no strong methods available" (still runs
	// Phase 1 detection, just always succeeds unverified).
	Verify bool
	// ShowProgress toggles progress-reporter wiring for downloads.
	ShowProgress bool
	// DownloadDir is where assets are streamed to before verification
	// and installation.
	DownloadDir string
	// Force re-installs over an existing binary instead of skipping
	// with an already_installed outcome.
	Force bool
}

// DefaultOptions returns Options with spec defaults applied.
func DefaultOptions() Options {
	return Options{
		Concurrency:  3,
		Verify:       true,
		ShowProgress: true,
		DownloadDir:  filepath.Join(os.TempDir(), "aimctl-downloads"),
		Force:        false,
	}
}

// Option mutates Options.
type Option func(*Options)

func WithConcurrency(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

func WithVerify(v bool) Option          { return func(o *Options) { o.Verify = v } }
func WithShowProgress(v bool) Option    { return func(o *Options) { o.ShowProgress = v } }
func WithDownloadDir(dir string) Option { return func(o *Options) { o.DownloadDir = dir } }
func WithForce(v bool) Option           { return func(o *Options) { o.Force = v } }

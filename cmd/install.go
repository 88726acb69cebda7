package cmd

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-appimage/aimctl/pkg/orchestrator"
	"github.com/go-appimage/aimctl/pkg/progress"
	"github.com/go-appimage/aimctl/pkg/types"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install <target>...",
	Short: "Install one or more AppImage applications",
	Long: `Install one or more AppImage applications, each given either as a
catalog name or a "https://github.com/<owner>/<repo>" URL.

Examples:
  aimctl install freecad
  aimctl install https://github.com/krita/krita freecad
  aimctl install --force --concurrency 1 blender`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	orch := orchestrator.New(cat, cfg, reporterFactory())

	opts := []orchestrator.Option{
		orchestrator.WithConcurrency(concurrency),
		orchestrator.WithVerify(!noVerify),
		orchestrator.WithShowProgress(!noProgress),
		orchestrator.WithForce(force),
	}

	ctx := cmd.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	outcomes, err := orch.Install(ctx, args, opts...)
	if err != nil {
		return err
	}

	failed := 0
	for _, o := range outcomes {
		printOutcome(o)
		if o.Outcome == types.OutcomeFailed || o.Outcome == types.OutcomeCancelled {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d targets failed", failed, len(outcomes))
	}
	return nil
}

func printOutcome(o types.PerTargetOutcome) {
	switch o.Outcome {
	case types.OutcomeInstalled:
		fmt.Printf("%s: installed %s -> %s\n", o.Target.Raw, o.Record.Version, o.Record.BinaryPath)
		if o.Record.Warning != "" {
			fmt.Printf("  warning: %s\n", o.Record.Warning)
		}
	case types.OutcomeAlreadyInstalled:
		fmt.Printf("%s: already installed\n", o.Target.Raw)
	case types.OutcomeFailed:
		fmt.Printf("%s: failed: %v\n", o.Target.Raw, o.Err)
	case types.OutcomeCancelled:
		fmt.Printf("%s: cancelled\n", o.Target.Raw)
	}
}

// lineReporter prints one line per phase/progress event, prefixed with
// the target name so concurrent installs stay distinguishable on a
// shared stdout. pkg/progress.Clicky (the task.StartTask-backed
// adapter) isn't used here: StartTask spawns and tracks a task
// on its own goroutine, completed only via clicky.WaitForGlobalCompletion,
// which doesn't compose with pkg/orchestrator's own semaphore-bounded
// concurrency — the orchestrator already knows when each target's
// pipeline finishes and reports outcomes directly. A synchronous,
// dependency-free reporter fits that shape better than forcing two
// independent concurrency trackers to agree.
type lineReporter struct {
	target string
	mu     *sync.Mutex
}

func (r lineReporter) Phase(kind progress.TaskKind, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if status != "" {
		fmt.Printf("[%s] %s: %s\n", r.target, kind, status)
	} else {
		fmt.Printf("[%s] %s\n", r.target, kind)
	}
}

func (r lineReporter) Progress(current, total int64, speed float64, status string) {
	// Per-chunk download progress is noisy for a CLI with several
	// concurrent targets; Phase() already announced the download started.
}

// reporterFactory builds one lineReporter per target. Returns nil
// (disabling progress reporting entirely) when --no-progress is set.
func reporterFactory() orchestrator.ReporterFactory {
	if noProgress {
		return nil
	}
	var mu sync.Mutex
	return func(target types.Target) progress.Reporter {
		return lineReporter{target: target.Raw, mu: &mu}
	}
}

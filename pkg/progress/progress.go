// Package progress defines the narrow reporting contract the install
// pipeline uses to surface lifecycle events, and a Clicky adapter onto
// github.com/flanksource/clicky/task for callers that already manage a
// *task.Task and report through task.SetProgress/task.SetDescription
// as a download streams. Note
// that clicky/task's own task.StartTask spawns and tracks a task
// asynchronously (joined later via clicky.WaitForGlobalCompletion),
// which doesn't compose with a caller that already runs its own
// concurrency-bounded work (see cmd's lineReporter, which reports
// synchronously instead); Clicky is for callers that have already
// solved that ordering themselves.
//
// The pipeline never imports clicky directly; it depends on Reporter,
// so a no-op or test double can stand in without pulling in terminal
// rendering.
package progress

import (
	"fmt"
	"time"

	"github.com/flanksource/clicky/task"
)

// TaskKind labels what a reported task is doing, used by renderers to
// pick an icon/verb without string-matching descriptions.
type TaskKind string

const (
	TaskResolve  TaskKind = "resolve"
	TaskDownload TaskKind = "download"
	TaskVerify   TaskKind = "verify"
	TaskIcon     TaskKind = "icon"
	TaskInstall  TaskKind = "install"
)

// Reporter is the contract the pipeline uses to report lifecycle
// events for one target's install, scoped to a single underlying task
// (one per target).
type Reporter interface {
	// Phase announces the pipeline has entered a new stage.
	Phase(kind TaskKind, status string)
	// Progress reports fractional progress (current/total, e.g. bytes
	// downloaded) within the current phase, throttled to at most one
	// update per 100ms. speed is a rolling average in bytes per
	// second, 0 when not yet measurable.
	Progress(current, total int64, speed float64, status string)
}

// Clicky adapts Reporter onto a single github.com/flanksource/clicky/task.Task.
type Clicky struct {
	Task       *task.Task
	lastUpdate time.Time
}

// NewClicky adapts an existing clicky task (one per target, started by
// the caller) into a Reporter.
func NewClicky(t *task.Task) *Clicky {
	return &Clicky{Task: t}
}

func (c *Clicky) Phase(kind TaskKind, status string) {
	if c.Task == nil {
		return
	}
	if status != "" {
		c.Task.Infof("%s: %s", kind, status)
	} else {
		c.Task.Infof("%s", kind)
	}
}

func (c *Clicky) Progress(current, total int64, speed float64, status string) {
	if c.Task == nil {
		return
	}
	now := time.Now()
	if now.Sub(c.lastUpdate) < 100*time.Millisecond && current != total {
		return
	}
	c.lastUpdate = now
	if total > 0 {
		c.Task.SetProgress(int(current), int(total))
	}
	switch {
	case status != "":
		c.Task.SetDescription(status)
	case speed > 0:
		c.Task.SetDescription(fmt.Sprintf("%.1f MB/s", speed/(1024*1024)))
	case total > 0:
		c.Task.SetDescription(fmt.Sprintf("%d/%d", current, total))
	}
}

// NoOp is a Reporter that discards every event, useful for tests and
// non-interactive invocations.
type NoOp struct{}

func (NoOp) Phase(TaskKind, string)                 {}
func (NoOp) Progress(int64, int64, float64, string) {}

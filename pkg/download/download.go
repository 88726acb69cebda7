// Package download implements the installer's download service: a
// single-asset fetch with retry/backoff, progress reporting, and
// cancellation. Checksum verification is a separate subsystem (see
// pkg/verify).
package download

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/go-appimage/aimctl/pkg/errors"
	"github.com/go-appimage/aimctl/pkg/progress"
	"github.com/go-appimage/aimctl/pkg/utils"
)

// Option configures a download.
type Option func(*config)

type config struct {
	attempts     int
	timeout      time.Duration
	chunkSize    int
	showProgress bool
}

func defaultConfig() config {
	return config{
		attempts:     3,
		timeout:      30 * time.Second,
		chunkSize:    64 * 1024,
		showProgress: true,
	}
}

// WithAttempts overrides the retry count (default 3).
func WithAttempts(n int) Option {
	return func(c *config) { c.attempts = n }
}

// WithTimeout overrides the per-request timeout (default 30s).
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithoutProgress disables progress reporting for this download.
func WithoutProgress() Option {
	return func(c *config) { c.showProgress = false }
}

// speedWindow bounds the rolling-average sample history.
const speedWindow = 10

type speedSample struct {
	bytes int64
	at    time.Time
}

// speedMeter keeps a bounded window of byte-count samples and reports
// a rolling average speed in bytes per second, plus the ETA that
// speed implies for the remaining bytes.
type speedMeter struct {
	samples []speedSample
}

func (m *speedMeter) add(bytes int64, at time.Time) {
	m.samples = append(m.samples, speedSample{bytes: bytes, at: at})
	if len(m.samples) > speedWindow {
		m.samples = m.samples[1:]
	}
}

func (m *speedMeter) speed() float64 {
	if len(m.samples) < 2 {
		return 0
	}
	first, last := m.samples[0], m.samples[len(m.samples)-1]
	elapsed := last.at.Sub(first.at).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(last.bytes-first.bytes) / elapsed
}

func (m *speedMeter) eta(current, total int64) time.Duration {
	s := m.speed()
	if s <= 0 || total <= 0 || current >= total {
		return 0
	}
	return time.Duration(float64(total-current) / s * float64(time.Second)).Round(time.Second)
}

// newHTTPClient returns a client capped at 10 redirects (Go's
// default, made explicit).
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects (limit: 10)")
			}
			return nil
		},
	}
}

// File streams url into destination, retrying on transport errors,
// read timeouts, and HTTP 5xx responses with exponential backoff
// (2^attempt seconds), reporting progress through reporter when it is
// non-nil and WithoutProgress was not given. A decode/non-transport failure from the caller's
// perspective is never retried here — retry is scoped to this layer's
// own transport concerns.
//
// On every failed attempt, any partial file is removed before the next
// attempt or before returning; a cleanup failure is logged and does not
// mask the original error. ctx cancellation between chunks aborts the
// stream, deletes the partial file, and returns a CancelledError.
func File(ctx context.Context, url, destination string, reporter progress.Reporter, kind progress.TaskKind, opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	client := newHTTPClient(cfg.timeout)

	var lastErr error
	for attempt := 0; attempt < cfg.attempts; attempt++ {
		err := attemptDownload(ctx, client, url, destination, reporter, kind, cfg)
		if err == nil {
			return nil
		}
		if isCancelled(err) {
			return err
		}
		lastErr = err
		if !retryable(err) {
			return err
		}
		if cleanupErr := os.Remove(destination + ".tmp"); cleanupErr != nil && !os.IsNotExist(cleanupErr) {
			logger.Warnf("failed to clean up partial download %s: %v", utils.LogPath(destination), cleanupErr)
		}
		if attempt < cfg.attempts-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return &errors.CancelledError{Target: url}
			}
		}
	}
	return &errors.NetworkError{URL: url, Err: lastErr}
}

func attemptDownload(ctx context.Context, client *http.Client, url, destination string, reporter progress.Reporter, kind progress.TaskKind, cfg config) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("server error: HTTP %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return &errors.ProtocolError{What: fmt.Sprintf("unexpected HTTP status %d downloading %s", resp.StatusCode, url)}
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return err
	}

	tmp := destination + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}

	total := resp.ContentLength
	var written int64
	buf := make([]byte, cfg.chunkSize)
	lastReport := time.Now()
	var meter speedMeter
	meter.add(0, lastReport)

	for {
		select {
		case <-ctx.Done():
			_ = out.Close()
			_ = os.Remove(tmp)
			return &errors.CancelledError{Target: url}
		default:
		}

		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				_ = out.Close()
				_ = os.Remove(tmp)
				return writeErr
			}
			written += int64(n)
			if reporter != nil && cfg.showProgress && time.Since(lastReport) >= 100*time.Millisecond {
				now := time.Now()
				meter.add(written, now)
				speed := meter.speed()
				status := utils.FormatBytes(written)
				if total > 0 {
					status = fmt.Sprintf("%s/%s", utils.FormatBytes(written), utils.FormatBytes(total))
				}
				if speed > 0 && total > 0 {
					status = fmt.Sprintf("%s (%.1f MB/s, ETA: %s)", status, speed/(1024*1024), meter.eta(written, total))
				} else if speed > 0 {
					status = fmt.Sprintf("%s (%.1f MB/s)", status, speed/(1024*1024))
				}
				reporter.Progress(written, total, speed, status)
				lastReport = now
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			_ = out.Close()
			_ = os.Remove(tmp)
			// A blocking Read unblocks with a transport-level error (not
			// io.EOF) when ctx is cancelled mid-stream, rather than
			// returning to the loop's own ctx.Done() check above.
			if ctx.Err() != nil {
				return &errors.CancelledError{Target: url}
			}
			return readErr
		}
	}

	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if reporter != nil && cfg.showProgress {
		reporter.Progress(written, total, meter.speed(), "")
	}

	return os.Rename(tmp, destination)
}

func retryable(err error) bool {
	if err == nil {
		return false
	}
	// Protocol errors (unexpected non-5xx HTTP status, decode failures
	// from upstream code) are not retried; everything else reaching
	// this point is a transport-level failure and is.
	var protoErr *errors.ProtocolError
	return !stderrors.As(err, &protoErr)
}

func isCancelled(err error) bool {
	var c *errors.CancelledError
	return stderrors.As(err, &c)
}

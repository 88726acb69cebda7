// Package errors defines the typed error taxonomy used across the
// installer pipeline: plain Go error values, one concrete type per
// kind, each satisfying Kind() so callers can classify an error
// without string matching.
package errors

import "fmt"

// Kind identifies the class of failure.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindNetwork          Kind = "network"
	KindProtocol         Kind = "protocol"
	KindAssetNotFound    Kind = "asset_not_found"
	KindVerificationFail Kind = "verification_failed"
	KindInstall          Kind = "install"
	KindCancelled        Kind = "cancelled"
	KindInternal         Kind = "internal"
)

// Classified is implemented by every error type in this package.
type Classified interface {
	error
	Kind() Kind
}

// ValidationError signals bad user input: an unknown catalog name, a
// malformed URL/owner-repo target, or an invalid option combination.
type ValidationError struct {
	Target string
	Reason string
	// Suggestions holds near-miss catalog names (Levenshtein distance),
	// surfaced in the error message for a "did you mean" hint.
	Suggestions []string
}

func (e *ValidationError) Kind() Kind { return KindValidation }

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid target %q: %s", e.Target, e.Reason)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean: %v?)", e.Suggestions)
	}
	return msg
}

// NetworkError wraps a transport-level failure (DNS, connection reset,
// timeout) reaching GitHub or an asset/icon URL.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Kind() Kind    { return KindNetwork }
func (e *NetworkError) Unwrap() error { return e.Err }
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

// ProtocolError signals a malformed or unexpected response body: a
// release JSON payload missing required fields, an unparseable
// checksum manifest.
type ProtocolError struct {
	What string
	Err  error
}

func (e *ProtocolError) Kind() Kind    { return KindProtocol }
func (e *ProtocolError) Unwrap() error { return e.Err }
func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.What, e.Err)
	}
	return fmt.Sprintf("protocol error: %s", e.What)
}

// AssetNotFoundError signals that no release asset matched the
// selection criteria for the current platform.
type AssetNotFoundError struct {
	Repo    string
	Tag     string
	Pattern string
}

func (e *AssetNotFoundError) Kind() Kind { return KindAssetNotFound }
func (e *AssetNotFoundError) Error() string {
	return fmt.Sprintf("no compatible AppImage asset found in %s@%s (pattern %q)", e.Repo, e.Tag, e.Pattern)
}

// VerificationFailedError signals that an attempted verification
// method produced a mismatch, as opposed to no method being available
// at all.
type VerificationFailedError struct {
	File   string
	Method string
	Reason string
}

func (e *VerificationFailedError) Kind() Kind { return KindVerificationFail }
func (e *VerificationFailedError) Error() string {
	return fmt.Sprintf("verification failed for %s via %s: %s", e.File, e.Method, e.Reason)
}

// InstallError wraps a failure during the filesystem install step:
// moving the binary into place, writing the config record, writing
// the desktop entry.
type InstallError struct {
	Stage string
	Err   error
}

func (e *InstallError) Kind() Kind    { return KindInstall }
func (e *InstallError) Unwrap() error { return e.Err }
func (e *InstallError) Error() string {
	return fmt.Sprintf("install failed at %s: %v", e.Stage, e.Err)
}

// CancelledError signals the pipeline was stopped via context
// cancellation before completing.
type CancelledError struct {
	Target string
}

func (e *CancelledError) Kind() Kind { return KindCancelled }
func (e *CancelledError) Error() string {
	return fmt.Sprintf("install of %s cancelled", e.Target)
}

// InternalError is a catch-all for bugs/invariant violations that
// should never surface from a well-formed input.
type InternalError struct {
	Err error
}

func (e *InternalError) Kind() Kind    { return KindInternal }
func (e *InternalError) Unwrap() error { return e.Err }
func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: %v", e.Err)
}

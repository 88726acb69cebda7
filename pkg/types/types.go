package types

import (
	"fmt"
	"time"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
	"github.com/flanksource/clicky/api/icons"
)

// Asset is a single file attached to a GitHub release.
type Asset struct {
	Name               string `json:"name" yaml:"name"`
	BrowserDownloadURL string `json:"browser_download_url" yaml:"browser_download_url"`
	Size               int64  `json:"size" yaml:"size"`
	ContentType        string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	// Digest is the GitHub-native checksum, formatted "<algo>:<hex>"
	// (e.g. "sha256:abcd..."), present whenever GitHub computed one
	// itself during upload.
	Digest string `json:"digest,omitempty" yaml:"digest,omitempty"`
}

// Release is a single GitHub release: its tag, published assets, and
// whether GitHub marks it a pre-release or draft.
type Release struct {
	TagName     string    `json:"tag_name" yaml:"tag_name"`
	Name        string    `json:"name,omitempty" yaml:"name,omitempty"`
	Prerelease  bool      `json:"prerelease" yaml:"prerelease"`
	Draft       bool      `json:"draft" yaml:"draft"`
	PublishedAt time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`
	Assets      []Asset   `json:"assets" yaml:"assets"`
}

// ChecksumFormat distinguishes the two checksum-file shapes this
// installer understands.
type ChecksumFormat string

const (
	// ChecksumFormatLine is the traditional `<hash>  <filename>` per-line
	// format (sha256sum(1)-compatible), or a filename followed by
	// several bare hashes on one line.
	ChecksumFormatLine ChecksumFormat = "line"
	// ChecksumFormatStructured is a YAML manifest mapping filenames to
	// base64-encoded hashes.
	ChecksumFormatStructured ChecksumFormat = "structured"
)

// ChecksumFileInfo describes a checksum/manifest asset discovered
// alongside a release, plus the priority score used to pick the best
// one when several are present.
type ChecksumFileInfo struct {
	Asset    Asset
	Format   ChecksumFormat
	Priority int
}

func (c ChecksumFileInfo) Pretty() api.Text {
	text := clicky.Text("").Append(c.Asset.Name, "bold")
	text = text.Append(fmt.Sprintf(" (%s, priority %d)", c.Format, c.Priority), "text-muted")
	return text
}

// VerificationConfig controls which verification methods run for a
// target.
type VerificationConfig struct {
	// Digest enables use of the asset's own GitHub digest, when present.
	Digest bool `json:"digest,omitempty" yaml:"digest,omitempty"`
	// ChecksumFile, if set, names (optionally templated with
	// "{version}"/"{tag}"/"{asset_name}") a checksum-manifest asset to
	// fetch and parse.
	ChecksumFile string `json:"checksum_file,omitempty" yaml:"checksum_file,omitempty"`
	// SkipVerification bypasses verification when no strong method
	// (digest or checksum file) is available; it is overridden otherwise.
	SkipVerification bool `json:"skip_verification,omitempty" yaml:"skip_verification,omitempty"`
}

// VerificationMethod names a single verification technique.
type VerificationMethod string

const (
	MethodDigest   VerificationMethod = "digest"
	MethodChecksum VerificationMethod = "checksum_file"
	MethodNone     VerificationMethod = "none"
)

// MethodResult is the outcome of a single verification method run
// against a downloaded file.
type MethodResult struct {
	Method  VerificationMethod `json:"method"`
	OK      bool               `json:"ok"`
	Skipped bool               `json:"skipped,omitempty"`
	Err     error              `json:"-"`
	Detail  string             `json:"detail,omitempty"`
	// Algo, Expected, Actual record the hash algorithm and both sides of
	// the comparison, for diagnostics on a mismatch.
	Algo     string `json:"algo,omitempty"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	// SourceURL is the checksum-file URL a checksum_file method fetched
	// its expected hash from; empty for the digest method.
	SourceURL string `json:"source_url,omitempty"`
}

func (m MethodResult) Pretty() api.Text {
	text := clicky.Text("").Append(string(m.Method)+": ", "text-muted")
	switch {
	case m.Skipped:
		return text.Add(icons.Skip).Append(" skipped", "text-yellow-500")
	case m.OK:
		return text.Add(icons.Success).Append(" ok", "text-green-500")
	default:
		t := text.Add(icons.Error).Append(" failed", "text-red-500")
		if m.Err != nil {
			t = t.Append(": "+m.Err.Error(), "text-red-500")
		}
		return t
	}
}

// VerificationStatus is the aggregate outcome of all verification
// methods attempted for a target.
type VerificationStatus string

const (
	VerificationVerified   VerificationStatus = "verified"
	VerificationUnverified VerificationStatus = "unverified"
	VerificationFailed     VerificationStatus = "failed"
)

func (s VerificationStatus) Pretty() api.Text {
	switch s {
	case VerificationVerified:
		return clicky.Text("").Add(icons.Success).Append(" Verified", "text-green-500")
	case VerificationFailed:
		return clicky.Text("").Add(icons.Error).Append(" Verification failed", "text-red-500")
	case VerificationUnverified:
		return clicky.Text("").Add(icons.Skip).Append(" Unverified", "text-yellow-500")
	default:
		return clicky.Text(string(s))
	}
}

// VerificationResult aggregates every MethodResult attempted for one
// downloaded file, plus the overall status derived from them: the
// verification fails only when every attempted method failed, one
// passing method verifies it (with a partial-verification warning if
// another failed), and no method attempted yields "unverified".
type VerificationResult struct {
	Status  VerificationStatus `json:"status"`
	Methods []MethodResult     `json:"methods,omitempty"`
	// Warning carries a non-fatal note forward into the persisted
	// config record: "not verified - developer did not provide
	// checksums" when no strong method was available at all, or
	// "Partial verification: <method> failed" when one strong method
	// passed while a sibling failed.
	Warning string `json:"warning,omitempty"`
	// Config is the VerificationConfig as it should be persisted going
	// forward, updated to reflect what actually worked this run (digest
	// enabled once confirmed, checksum file pinned to the one that
	// passed).
	Config VerificationConfig `json:"-"`
}

func (v VerificationResult) Pretty() api.Text {
	text := clicky.Text("").Add(v.Status.Pretty())
	if v.Warning != "" {
		text = text.Append(" ("+v.Warning+")", "text-yellow-500")
	}
	for _, m := range v.Methods {
		text = text.Append("\n  ").Add(m.Pretty())
	}
	return text
}

// IconConfig controls icon acquisition for a target.
type IconConfig struct {
	// IconURL, if set, is downloaded directly when extraction is
	// disabled, unavailable, or finds nothing.
	IconURL string `json:"icon_url,omitempty" yaml:"icon_url,omitempty"`
	// Extraction overrides whether icon extraction from the AppImage
	// is attempted before falling back to IconURL. nil means "use the
	// catalog/default preference".
	Extraction *bool `json:"extraction,omitempty" yaml:"extraction,omitempty"`
	// PreserveURLOnExtraction keeps IconURL recorded in the persisted
	// config even after a successful extraction, instead of blanking it.
	PreserveURLOnExtraction bool `json:"preserve_url_on_extraction,omitempty" yaml:"preserve_url_on_extraction,omitempty"`
}

// IconSource names how (or whether) an icon was acquired.
type IconSource string

const (
	IconSourceExtraction IconSource = "extraction"
	IconSourceGitHub     IconSource = "github"
	IconSourceNone       IconSource = "none"
)

// IconResult is the outcome of icon acquisition, including the
// config the caller should persist going forward.
type IconResult struct {
	Path        string     `json:"path,omitempty"`
	Source      IconSource `json:"source"`
	Config      IconConfig `json:"-"`
	Recoverable bool       `json:"-"`
	Err         error      `json:"-"`
}

// AppConfigRecord is the persisted record written after a successful
// install: enough to re-derive the install, check for updates, and
// uninstall cleanly.
type AppConfigRecord struct {
	Name                string             `json:"name"`
	Source              string             `json:"source"` // target kind: "catalog" or "url"
	Version             string             `json:"version"`
	InstalledAt         time.Time          `json:"installed_at"`
	BinaryPath          string             `json:"binary_path"`
	IconPath            string             `json:"icon_path,omitempty"`
	IconMethod          string             `json:"icon_method,omitempty"`
	DesktopEntry        string             `json:"desktop_entry,omitempty"`
	Verification        VerificationStatus `json:"verification"`
	VerificationMethods []MethodResult     `json:"verification_methods,omitempty"`
	Warning             string             `json:"warning,omitempty"`
	Digest              string             `json:"digest,omitempty"`
}

func (r AppConfigRecord) Pretty() api.Text {
	text := clicky.Text("").Append(r.Name, "bold").Append("@" + r.Version)
	text = text.Append(" -> ", "text-muted").Append(r.BinaryPath, "text-underline")
	text = text.Add(r.Verification.Pretty())
	return text
}

// CatalogEntry is a known, named app the catalog can resolve to a
// concrete GitHub repo plus default verification/icon configuration.
type CatalogEntry struct {
	Name  string `json:"name" yaml:"name"`
	Owner string `json:"owner" yaml:"owner"`
	Repo  string `json:"repo" yaml:"repo"`
	// PreferredSuffixes narrows asset selection to names containing one
	// of these substrings (case-insensitive) before the ARM/x86_64
	// narrowing stages run.
	PreferredSuffixes  []string           `json:"preferred_suffixes,omitempty" yaml:"preferred_suffixes,omitempty"`
	PreferPrerelease   bool               `json:"prefer_prerelease,omitempty" yaml:"prefer_prerelease,omitempty"`
	VerificationConfig VerificationConfig `json:"verification,omitempty" yaml:"verification,omitempty"`
	IconConfig         IconConfig         `json:"icon,omitempty" yaml:"icon,omitempty"`
}

// TargetKind distinguishes a catalog-name target from a raw URL/repo
// target.
type TargetKind string

const (
	TargetCatalog TargetKind = "catalog"
	TargetURL     TargetKind = "url"
)

// Target is one user-requested install, before resolution.
type Target struct {
	Kind TargetKind `json:"kind"`
	// Raw is the catalog name, or the literal "owner/repo"/URL the user
	// gave for a URL target.
	Raw string `json:"raw"`
}

func (t Target) String() string {
	return t.Raw
}

// Outcome classifies the terminal state of a single target's pipeline
// run.
type Outcome string

const (
	OutcomeInstalled        Outcome = "installed"
	OutcomeAlreadyInstalled Outcome = "already_installed"
	OutcomeFailed           Outcome = "failed"
	OutcomeCancelled        Outcome = "cancelled"
)

// PerTargetOutcome is one row of an Install() batch result.
type PerTargetOutcome struct {
	Target  Target           `json:"target"`
	Outcome Outcome          `json:"outcome"`
	Record  *AppConfigRecord `json:"record,omitempty"`
	Err     error            `json:"-"`
}

func (o PerTargetOutcome) Pretty() api.Text {
	text := clicky.Text("").Append(o.Target.Raw, "bold").Append(": ")
	switch o.Outcome {
	case OutcomeInstalled:
		text = text.Add(icons.Success).Append(" Installed", "text-green-500")
	case OutcomeAlreadyInstalled:
		text = text.Add(icons.Skip).Append(" Already installed", "text-yellow-500")
	case OutcomeCancelled:
		text = text.Add(icons.Warning).Append(" Cancelled", "text-yellow-500")
	case OutcomeFailed:
		text = text.Add(icons.Error).Append(" Failed", "text-red-500")
		if o.Err != nil {
			text = text.Append(": "+o.Err.Error(), "text-red-500")
		}
	default:
		text = text.Append(string(o.Outcome))
	}
	return text
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

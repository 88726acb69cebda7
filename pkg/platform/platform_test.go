package platform

import "testing"

func TestCurrent_IsLinuxAmd64(t *testing.T) {
	p := Current()
	if p.OS != "linux" || p.Arch != "amd64" {
		t.Fatalf("expected linux-amd64, got %+v", p)
	}
}

func TestPlatform_String(t *testing.T) {
	if got := Linux64.String(); got != "linux-amd64" {
		t.Fatalf("got %q, want linux-amd64", got)
	}
}

func TestPlatform_Supported(t *testing.T) {
	if !Linux64.Supported() {
		t.Fatal("expected linux-amd64 to be supported")
	}
	if (Platform{OS: "darwin", Arch: "arm64"}).Supported() {
		t.Fatal("expected darwin-arm64 to be unsupported")
	}
}

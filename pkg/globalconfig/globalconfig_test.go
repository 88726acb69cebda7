package globalconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault_AppliesBakedInValues(t *testing.T) {
	cfg := Default()
	if cfg.RetryCount() != 3 {
		t.Errorf("expected default retry count 3, got %d", cfg.RetryCount())
	}
	if cfg.RequestTimeout() != 30*time.Second {
		t.Errorf("expected default request timeout 30s, got %v", cfg.RequestTimeout())
	}
	if cfg.DownloadTimeout() != 600*time.Second {
		t.Errorf("expected default download timeout 600s, got %v", cfg.DownloadTimeout())
	}
	if cfg.Concurrency() != 3 {
		t.Errorf("expected default concurrency 3, got %d", cfg.Concurrency())
	}
	if cfg.InstallDir() == "" || cfg.IconDir() == "" || cfg.DesktopDir() == "" || cfg.ConfigDir() == "" {
		t.Errorf("expected all default directories populated, got %+v", cfg)
	}
}

func TestLoad_ParsesDurationStrings(t *testing.T) {
	yamlDoc := []byte(`
network:
  retry_count: 5
  request_timeout: 15s
  download_timeout: 2m
`)
	cfg, err := Load(yamlDoc)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RetryCount() != 5 {
		t.Errorf("expected retry count 5, got %d", cfg.RetryCount())
	}
	if cfg.RequestTimeout() != 15*time.Second {
		t.Errorf("expected request timeout 15s, got %v", cfg.RequestTimeout())
	}
	if cfg.DownloadTimeout() != 2*time.Minute {
		t.Errorf("expected download timeout 2m, got %v", cfg.DownloadTimeout())
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("AIMCTL_TEST_INSTALL_DIR", "/opt/apps")
	yamlDoc := []byte(`
install:
  dir: "${AIMCTL_TEST_INSTALL_DIR}/bin"
`)
	cfg, err := Load(yamlDoc)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.InstallDir() != "/opt/apps/bin" {
		t.Fatalf("expected expanded install dir, got %q", cfg.InstallDir())
	}
}

func TestLoad_BlankFieldsFallBackToBuiltInDefaults(t *testing.T) {
	cfg, err := Load([]byte(``))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RetryCount() != 3 {
		t.Errorf("expected fallback retry count 3, got %d", cfg.RetryCount())
	}
	if cfg.RequestTimeout() != 30*time.Second {
		t.Errorf("expected fallback request timeout 30s, got %v", cfg.RequestTimeout())
	}
}

func TestLoadFile_MergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := []byte(`
network:
  retry_count: 9
`)
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.RetryCount() != 9 {
		t.Errorf("expected overridden retry count 9, got %d", cfg.RetryCount())
	}
	if cfg.DownloadTimeout() != 600*time.Second {
		t.Errorf("expected untouched field to carry the default, got %v", cfg.DownloadTimeout())
	}
}

func TestLoadFile_MissingFileReturnsError(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

package desktop

import (
	"os"
	"strings"
	"testing"
)

func TestWrite_BasicFields(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(dir, "app1", Entry{
		Name: "App1",
		Exec: "/home/user/.local/bin/App1.AppImage",
		Icon: "/home/user/.local/icons/App1.png",
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading desktop entry: %v", err)
	}
	content := string(data)

	for _, want := range []string{
		"[Desktop Entry]",
		"Name=App1",
		"Exec=/home/user/.local/bin/App1.AppImage",
		"Icon=/home/user/.local/icons/App1.png",
		"Categories=Utility;",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("expected content to contain %q, got:\n%s", want, content)
		}
	}
}

func TestWrite_QuotesExecWithSpaces(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(dir, "app1", Entry{Name: "App 1", Exec: "/opt/my apps/App1.AppImage"})
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `Exec="/opt/my apps/App1.AppImage"`) {
		t.Fatalf("expected quoted exec, got:\n%s", data)
	}
}

func TestWrite_NoIconLineWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(dir, "app1", Entry{Name: "App1", Exec: "/bin/app1"})
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "Icon=") {
		t.Fatalf("expected no Icon line when Icon is empty, got:\n%s", data)
	}
}

func TestWrite_OverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	if _, err := Write(dir, "app1", Entry{Name: "Old", Exec: "/bin/old"}); err != nil {
		t.Fatal(err)
	}
	path, err := Write(dir, "app1", Entry{Name: "New", Exec: "/bin/new"})
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "Old") || !strings.Contains(string(data), "New") {
		t.Fatalf("expected overwritten content, got:\n%s", data)
	}
}

func TestWrite_DefaultCommentMentionsAimctl(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(dir, "app1", Entry{Name: "App1", Exec: "/bin/app1"})
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "Comment=App1 (installed by aimctl)") {
		t.Fatalf("expected default comment referencing app name and aimctl, got:\n%s", data)
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(dir, "app1", Entry{Name: "App1", Exec: "/bin/app1"})
	if err != nil {
		t.Fatal(err)
	}
	if err := Remove(dir, "app1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat err=%v", err)
	}
	if err := Remove(dir, "app1"); err != nil {
		t.Fatalf("Remove on absent entry should be a no-op: %v", err)
	}
}

// Package desktop writes the XDG desktop-entry launcher file for an
// installed application, with
// the Comment field optionally rendered through pkg/template (gomplate)
// from Entry.CommentTemplate; the other fields are written as given.
package desktop

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-appimage/aimctl/pkg/template"
)

// Entry is the set of fields written into a ".desktop" launcher file.
type Entry struct {
	Name       string
	Comment    string
	Exec       string
	Icon       string
	Categories string
	// CommentTemplate, if set, is rendered (via pkg/template) with
	// {Name, Exec, Icon} and used instead of Comment when non-empty,
	// letting a catalog entry customize the default "<Name> (installed
	// by aimctl)" comment.
	CommentTemplate string
}

const defaultCategories = "Utility;"

// Path returns the on-disk path for appName's desktop entry under dir.
func Path(dir, appName string) string {
	return filepath.Join(dir, appName+".desktop")
}

// Write renders and writes the desktop entry for appName under dir,
// overwriting any pre-existing file.
func Write(dir, appName string, entry Entry) (string, error) {
	if entry.Categories == "" {
		entry.Categories = defaultCategories
	}
	if entry.Comment == "" {
		entry.Comment = fmt.Sprintf("%s (installed by aimctl)", entry.Name)
	}
	if entry.CommentTemplate != "" {
		rendered, err := template.Render(entry.CommentTemplate, map[string]interface{}{
			"Name": entry.Name,
			"Exec": entry.Exec,
			"Icon": entry.Icon,
		})
		if err == nil && rendered != "" {
			entry.Comment = rendered
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating desktop entry directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Type=Application\n")
	b.WriteString("Name=" + entry.Name + "\n")
	b.WriteString("Comment=" + entry.Comment + "\n")
	b.WriteString("Exec=" + quoteExec(entry.Exec) + "\n")
	if entry.Icon != "" {
		b.WriteString("Icon=" + entry.Icon + "\n")
	}
	b.WriteString("Categories=" + entry.Categories + "\n")
	b.WriteString("Terminal=false\n")

	path := Path(dir, appName)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing desktop entry %s: %w", path, err)
	}
	return path, nil
}

// quoteExec wraps exec in double quotes when it contains a space, per
// the XDG desktop-entry spec's Exec key quoting rules.
func quoteExec(exec string) string {
	if strings.Contains(exec, " ") {
		return "\"" + exec + "\""
	}
	return exec
}

// Remove deletes appName's desktop entry, if present.
func Remove(dir, appName string) error {
	err := os.Remove(Path(dir, appName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing desktop entry for %s: %w", appName, err)
	}
	return nil
}

// Package template renders templated string values this installer
// substitutes into strings it doesn't own outright, such as
// catalog-configured desktop-entry fields.
package template

import (
	"fmt"

	"github.com/flanksource/gomplate/v3"
)

// Render evaluates templateStr as a Go template against data using
// flanksource/gomplate.
func Render(templateStr string, data map[string]interface{}) (string, error) {
	if templateStr == "" {
		return "", nil
	}
	result, err := gomplate.RunTemplate(data, gomplate.Template{Template: templateStr})
	if err != nil {
		return "", fmt.Errorf("rendering template %q: %w", templateStr, err)
	}
	return result, nil
}

package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	out, err := Render("{{.asset_name}}.sha256", map[string]interface{}{"asset_name": "app-x86_64.AppImage"})
	require.NoError(t, err)
	assert.Equal(t, "app-x86_64.AppImage.sha256", out)
}

func TestRenderEmpty(t *testing.T) {
	out, err := Render("", nil)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestRenderMultiplePlaceholders(t *testing.T) {
	out, err := Render("{{.name}}-{{.version}}.desktop", map[string]interface{}{
		"name":    "myapp",
		"version": "1.2.3",
	})
	require.NoError(t, err)
	assert.Equal(t, "myapp-1.2.3.desktop", out)
}

package verify

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildLinuxBinary cross-compiles a trivial Go program for linux/goarch
// and returns its path.
func buildLinuxBinary(t *testing.T, dir, goarch string) string {
	t.Helper()
	srcFile := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(srcFile, []byte(`package main; func main() {}`), 0644))

	binaryPath := filepath.Join(dir, "testbin-"+goarch)
	cmd := exec.Command("go", "build", "-o", binaryPath, srcFile)
	cmd.Env = append(os.Environ(), "GOOS=linux", "GOARCH="+goarch, "CGO_ENABLED=0")
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "go build failed: %s", string(output))
	return binaryPath
}

func TestVerifyAppImageBinary_Amd64Passes(t *testing.T) {
	binaryPath := buildLinuxBinary(t, t.TempDir(), "amd64")
	assert.NoError(t, VerifyAppImageBinary(binaryPath))
}

func TestVerifyAppImageBinary_Arm64Rejected(t *testing.T) {
	binaryPath := buildLinuxBinary(t, t.TempDir(), "arm64")
	err := VerifyAppImageBinary(binaryPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "aarch64")
}

func TestVerifyAppImageBinary_NotELF(t *testing.T) {
	textFile := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(textFile, []byte("hello world"), 0644))

	err := VerifyAppImageBinary(textFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not an ELF binary")
}

func TestVerifyAppImageBinary_NonExistent(t *testing.T) {
	assert.Error(t, VerifyAppImageBinary("/nonexistent/path/binary"))
}

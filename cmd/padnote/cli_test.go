package main

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBinary builds padnote into dir and returns its path.
func buildBinary(t *testing.T, dir string) string {
	t.Helper()
	if testing.Short() {
		t.Skip("builds the binary")
	}
	bin := filepath.Join(dir, "padnote")
	if out, err := exec.Command("go", "build", "-o", bin, ".").CombinedOutput(); err != nil {
		t.Fatalf("Failed to build padnote: %v\n%s", err, string(out))
	}
	return bin
}

// runCmd runs the binary and returns its stdout. The config dir comes from
// the environment so flags stay per test.
func runCmd(t *testing.T, env []string, bin string, args ...string) string {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Env = append(os.Environ(), env...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	require.NoError(t, err, "padnote %v: %s", args, stderr.String())
	return string(out)
}

func TestVersion(t *testing.T) {
	bin := buildBinary(t, t.TempDir())

	out := runCmd(t, nil, bin, "version")
	assert.True(t, strings.HasPrefix(out, "padnote version "), out)

	short := runCmd(t, nil, bin, "version", "--short")
	assert.Contains(t, out, strings.TrimSpace(short))
	assert.NotContains(t, short, " ")
}

func TestInitAndList(t *testing.T) {
	tmp := t.TempDir()
	bin := buildBinary(t, tmp)
	configDir := filepath.Join(tmp, "config")
	env := []string{"PADNOTE_CONFIG_DIR=" + configDir, "PADNOTE_DEV_SAFETY=false"}

	out := runCmd(t, env, bin, "init")
	assert.Contains(t, out, configDir)
	assert.FileExists(t, filepath.Join(configDir, "preferences.yaml"))
	assert.FileExists(t, filepath.Join(configDir, "profiles.json"))

	notes := filepath.Join(configDir, "notes")
	require.NoError(t, os.WriteFile(filepath.Join(notes, "Groceries.txt"), []byte("eggs"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(notes, "Work"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(notes, "Work", "Plan.txt"), []byte("ship"), 0o644))

	t.Run("Plain", func(t *testing.T) {
		out := runCmd(t, env, bin, "list")
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, []string{"NOTE", "KIND", "BYTES"}, strings.Fields(lines[0]))
		assert.Equal(t, []string{"Groceries", "text", "4"}, strings.Fields(lines[1]))
		assert.Equal(t, "Work/Plan", strings.Fields(lines[2])[0])
	})

	t.Run("JSON folder filter", func(t *testing.T) {
		out := runCmd(t, env, bin, "list", "--json", "--folder", "Work")
		var got []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "Work/Plan", got[0]["ID"])
	})

	t.Run("Flag beats environment", func(t *testing.T) {
		other := filepath.Join(tmp, "other")
		runCmd(t, env, bin, "--config-dir", other, "init")
		assert.DirExists(t, filepath.Join(other, "notes"))
	})
}

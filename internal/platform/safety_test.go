package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSandboxConfigDir(t *testing.T) {
	t.Parallel()

	tempRoot := os.TempDir()
	devBase := filepath.Join(tempRoot, "padnote-dev")

	tests := []struct {
		name    string
		dir     string
		sandbox bool
		want    string
	}{
		{name: "real run keeps path", dir: "/home/me/.config/padnote", want: "/home/me/.config/padnote"},
		{name: "dev run re-roots", dir: "/home/me/.config/padnote", sandbox: true, want: filepath.Join(devBase, "padnote")},
		{name: "dev run empty path", dir: "", sandbox: true, want: filepath.Join(devBase, "default")},
		{name: "dev run strips traversal", dir: "../bad/path", sandbox: true, want: filepath.Join(devBase, "path")},
		{name: "temp paths are trusted", dir: filepath.Join(tempRoot, "mine"), sandbox: true, want: filepath.Join(tempRoot, "mine")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SandboxConfigDir(tt.dir, tt.sandbox))
		})
	}
}

func TestIsDevRunInsideGoTest(t *testing.T) {
	assert.True(t, IsDevRun())
}

func TestUnderTemp(t *testing.T) {
	tempRoot := os.TempDir()

	assert.True(t, underTemp(filepath.Join(tempRoot, "go-build1", "exe", "padnote")))
	assert.False(t, underTemp(filepath.Clean(tempRoot)+"-sibling"))
	assert.False(t, underTemp(filepath.Dir(filepath.Clean(tempRoot))))
	assert.False(t, underTemp("relative/dir"))
}

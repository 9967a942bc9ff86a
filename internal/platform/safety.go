package platform

import (
	"os"
	"path/filepath"
	"strings"
)

// IsDevRun reports whether the binary was produced by `go run` or `go test`:
// either it lives under the temporary directory or it is a test binary.
func IsDevRun() bool {
	exe, err := os.Executable()
	if err != nil {
		return false
	}
	base := strings.ToLower(filepath.Base(exe))
	return underTemp(exe) || strings.HasSuffix(base, ".test") || strings.HasSuffix(base, ".test.exe")
}

// SandboxConfigDir re-roots configDir under the temporary directory when
// sandbox is set, so development runs never touch a real profile. Paths
// already inside the temporary directory are kept.
func SandboxConfigDir(configDir string, sandbox bool) string {
	if !sandbox {
		return configDir
	}
	clean := filepath.Clean(configDir)
	if underTemp(clean) {
		return clean
	}
	name := filepath.Base(clean)
	if configDir == "" || name == "." || name == string(os.PathSeparator) {
		name = "default"
	}
	return filepath.Join(os.TempDir(), "padnote-dev", name)
}

// underTemp compares case-insensitively; temp paths on windows and macOS
// differ in case between APIs.
func underTemp(path string) bool {
	rel, err := filepath.Rel(strings.ToLower(os.TempDir()), strings.ToLower(path))
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

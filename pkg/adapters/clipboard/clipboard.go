// Package clipboard adapts the system clipboard to core.Clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"

	"github.com/aretw0/padnote/pkg/core"
)

// EnvDisableOSC52 turns off the terminal fallback for writes.
const EnvDisableOSC52 = "PADNOTE_DISABLE_OSC52"

// ErrUnsupported is returned when no clipboard utility is available, which is
// common on headless hosts.
var ErrUnsupported = errors.New("system clipboard unsupported")

var (
	systemWriteAll = clipboard.WriteAll
	osc52WriteAll  = writeOSC52Clipboard
)

// System reads and writes the desktop clipboard as text. Writes fall back to
// an OSC52 escape on the controlling terminal when the desktop clipboard is
// missing, so copying still works over SSH.
type System struct{}

// New returns the system clipboard.
func New() core.Clipboard {
	return System{}
}

func (System) ReadAll() (string, error) {
	if clipboard.Unsupported {
		return "", ErrUnsupported
	}
	return clipboard.ReadAll()
}

func (System) WriteAll(text string) error {
	sysErr := ErrUnsupported
	if !clipboard.Unsupported {
		if sysErr = systemWriteAll(text); sysErr == nil {
			return nil
		}
	}
	if oscErr := osc52WriteAll(text); oscErr != nil {
		return fmt.Errorf("system clipboard: %v; osc52: %w", sysErr, oscErr)
	}
	return nil
}

func writeOSC52Clipboard(text string) error {
	if !osc52Enabled() {
		return errors.New("osc52 unavailable for this terminal")
	}
	tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open /dev/tty: %w", err)
	}
	defer tty.Close()
	return writeOSC52Sequence(tty, text)
}

func writeOSC52Sequence(w io.Writer, text string) error {
	seq := osc52.New(text)
	switch {
	case os.Getenv("TMUX") != "":
		seq = seq.Tmux()
	case strings.HasPrefix(strings.ToLower(os.Getenv("TERM")), "screen"):
		seq = seq.Screen()
	}
	_, err := seq.WriteTo(w)
	return err
}

func osc52Enabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvDisableOSC52))) {
	case "1", "true", "yes", "on":
		return false
	}
	term := strings.TrimSpace(os.Getenv("TERM"))
	return term != "" && !strings.EqualFold(term, "dumb")
}

// Memory is an in-process clipboard.
type Memory struct {
	Text string
}

func (m *Memory) ReadAll() (string, error) {
	return m.Text, nil
}

func (m *Memory) WriteAll(text string) error {
	m.Text = text
	return nil
}

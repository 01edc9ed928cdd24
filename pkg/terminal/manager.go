// Package terminal keeps the controlling terminal usable around the
// profile picker and the shell.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Default size used when the terminal size cannot be read.
const (
	DefaultWidth  = 80
	DefaultHeight = 24
)

// Manager saves the terminal state at start and puts it back on Restore.
//
// The TUI switches the terminal into raw mode and back on its own; a crash
// or an interrupted password prompt can leave it half way, so main restores
// through the Manager on every exit path.
type Manager struct {
	mu            sync.Mutex
	fd            int
	in            io.Reader
	originalState *term.State
}

// New creates a manager for stdin and saves its current state.
func New() *Manager {
	return NewWithInput(int(os.Stdin.Fd()), os.Stdin)
}

// NewWithInput creates a manager for fd. in is read for passwords when fd
// is not a terminal.
func NewWithInput(fd int, in io.Reader) *Manager {
	m := &Manager{fd: fd, in: in}
	if state, err := term.GetState(fd); err == nil {
		m.originalState = state
	}
	return m
}

// IsTerminal reports whether the managed descriptor is a terminal.
func (m *Manager) IsTerminal() bool {
	return term.IsTerminal(m.fd)
}

// Restore puts the saved state back. It is safe to call more than once,
// and does nothing when no state was saved.
func (m *Manager) Restore() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.originalState == nil {
		return nil
	}
	if err := term.Restore(m.fd, m.originalState); err != nil {
		return fmt.Errorf("restore terminal: %w", err)
	}
	return nil
}

// Cleanup restores the terminal and shows the cursor again.
// Call this when shutting down the application.
func (m *Manager) Cleanup(w io.Writer) {
	_ = m.Restore()
	if m.IsTerminal() {
		fmt.Fprint(w, "\033[?25h\033[0m")
	}
}

// Size returns the terminal width and height, or the defaults.
func (m *Manager) Size() (width, height int) {
	width, height, err := term.GetSize(m.fd)
	if err != nil || width <= 0 || height <= 0 {
		return DefaultWidth, DefaultHeight
	}
	return width, height
}

// ReadPassword prints prompt to w and reads a password. Input is not echoed
// on a terminal; otherwise one line is read from the input reader.
func (m *Manager) ReadPassword(prompt string, w io.Writer) (string, error) {
	fmt.Fprint(w, prompt)

	if m.IsTerminal() {
		b, err := term.ReadPassword(m.fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(m.in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

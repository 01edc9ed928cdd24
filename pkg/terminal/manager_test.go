package terminal

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notATerminal(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "stdin"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestRestoreWithoutTerminal(t *testing.T) {
	f := notATerminal(t)
	m := NewWithInput(int(f.Fd()), strings.NewReader(""))

	assert.False(t, m.IsTerminal())
	assert.NoError(t, m.Restore())
	assert.NoError(t, m.Restore())

	var out bytes.Buffer
	m.Cleanup(&out)
	assert.Empty(t, out.String())
}

func TestSizeDefaults(t *testing.T) {
	f := notATerminal(t)
	m := NewWithInput(int(f.Fd()), strings.NewReader(""))

	w, h := m.Size()
	assert.Equal(t, DefaultWidth, w)
	assert.Equal(t, DefaultHeight, h)
}

func TestReadPasswordFromPipe(t *testing.T) {
	f := notATerminal(t)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"newline", "s3cret\nignored\n", "s3cret"},
		{"crlf", "s3cret\r\n", "s3cret"},
		{"no newline", "s3cret", "s3cret"},
		{"empty line", "\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewWithInput(int(f.Fd()), strings.NewReader(tt.input))
			var out bytes.Buffer

			got, err := m.ReadPassword("Password: ", &out)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Password: ", out.String())
		})
	}
}

func TestReadPasswordEOF(t *testing.T) {
	f := notATerminal(t)
	m := NewWithInput(int(f.Fd()), strings.NewReader(""))

	_, err := m.ReadPassword("Password: ", io.Discard)
	assert.ErrorIs(t, err, io.EOF)
}

package shell

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/ai-help-me/ftpm/pkg/ftp"
)

// PathState tracks the two working directories of the shell.
//
// The adapter addresses remote paths from the login directory, which the
// shell shows as "/". RemoteCWD is only changed by a successful cd.
type PathState struct {
	LocalCWD  string
	RemoteCWD string
	HomeLocal string
}

// NewPathState starts in the current local directory and the remote root.
func NewPathState() (*PathState, error) {
	homeLocal, err := homedir.Dir()
	if err != nil {
		return nil, fmt.Errorf("get local home: %w", err)
	}

	localCWD, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get local cwd: %w", err)
	}

	return &PathState{
		LocalCWD:  localCWD,
		RemoteCWD: "/",
		HomeLocal: homeLocal,
	}, nil
}

// ResolveLocal resolves a local path relative to LocalCWD.
// Supports: ~ expansion, absolute paths, relative paths, ..
func (ps *PathState) ResolveLocal(path string) (string, error) {
	if path == "" || path == "." {
		return ps.LocalCWD, nil
	}

	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}

	if strings.HasPrefix(path, "~") {
		if len(path) > 1 && path[1] != '/' {
			return "", fmt.Errorf("~user not supported")
		}
		rest := strings.TrimPrefix(path, "~")
		if rest == "" {
			return ps.HomeLocal, nil
		}
		return filepath.Join(ps.HomeLocal, rest), nil
	}

	return filepath.Clean(filepath.Join(ps.LocalCWD, path)), nil
}

// ResolveRemote resolves a remote path relative to RemoteCWD. "~" is the
// login directory.
func (ps *PathState) ResolveRemote(path string) string {
	switch {
	case path == "" || path == ".":
		return ps.RemoteCWD
	case path == "~":
		return "/"
	case strings.HasPrefix(path, "~/"):
		return ftp.CleanPath(path[1:])
	case strings.HasPrefix(path, "/"):
		return ftp.CleanPath(path)
	default:
		return ftp.CleanPath(ftp.JoinPath(ps.RemoteCWD, path))
	}
}

// UpdateLocalCWD updates LocalCWD after a successful lcd.
func (ps *PathState) UpdateLocalCWD(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	ps.LocalCWD = abs
	return nil
}

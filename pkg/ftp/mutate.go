package ftp

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gonzalop/ftp"
	"go.uber.org/zap"
)

// CreateFile creates an empty file. The path is URL-decoded and its
// leading slash removed.
func (a *Adapter) CreateFile(p string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	conn, err := a.active("create file")
	if err != nil {
		return err
	}

	name, err := decodePath(p)
	if err != nil {
		return adapterError("create file", err)
	}
	if err := conn.Store(name, bytes.NewReader(nil)); err != nil {
		return adapterError("create file", err)
	}
	return nil
}

// CreateDirectory creates a directory. Creating one that already exists
// fails.
func (a *Adapter) CreateDirectory(p string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	conn, err := a.active("create directory")
	if err != nil {
		return err
	}

	name, err := decodePath(p)
	if err != nil {
		return adapterError("create directory", err)
	}
	if err := conn.MakeDir(name); err != nil {
		return adapterError("create directory", err)
	}
	return nil
}

// ReadFile returns the full content of a remote file.
func (a *Adapter) ReadFile(p string) ([]byte, error) {
	var buf bytes.Buffer
	if err := a.RetrieveTo(p, &buf, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RetrieveTo streams a remote file into w. progress, when set, receives
// the running byte count.
func (a *Adapter) RetrieveTo(p string, w io.Writer, progress func(int64)) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	conn, err := a.active("read")
	if err != nil {
		return err
	}

	if progress != nil {
		w = &ftp.ProgressWriter{Writer: w, Callback: progress}
	}
	if err := conn.Retrieve(p, w); err != nil {
		return adapterError("read", err)
	}
	return nil
}

// OverwriteFile replaces the content of p. The new content is stored under
// a temporary sibling name first and renamed over p, so a failed upload
// leaves the original in place.
func (a *Adapter) OverwriteFile(p string, content []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	conn, err := a.active("edit")
	if err != nil {
		return err
	}

	tmp := tempName(p)
	if err := conn.Store(tmp, bytes.NewReader(content)); err != nil {
		return editError(p, err)
	}

	// A missing target is fine: the rename below creates it.
	if err := conn.Delete(p); err != nil {
		a.logger.Debug("delete before overwrite failed", zap.String("path", p), zap.Error(err))
	}

	// On failure the new content stays under tmp.
	if err := conn.Rename(tmp, p); err != nil {
		a.logger.Warn("overwrite rename failed",
			zap.String("path", p),
			zap.String("temp", tmp),
			zap.Error(err),
		)
		return editError(p, err)
	}
	return nil
}

// Remove deletes each path in order, directories recursively. It stops at
// the first failure; paths after it are not attempted.
func (a *Adapter) Remove(paths []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	conn, err := a.active("remove")
	if err != nil {
		return err
	}

	for _, p := range paths {
		dir, err := isDir(conn, p)
		if err != nil {
			return adapterError("remove", err)
		}
		if dir {
			err = removeTree(conn, p)
		} else {
			err = conn.Delete(p)
		}
		if err != nil {
			return adapterError("remove", err)
		}
		a.logger.Debug("removed", zap.String("path", p), zap.Bool("dir", dir))
	}
	return nil
}

// isDir checks p by changing into it and back.
func isDir(conn Conn, p string) (bool, error) {
	cwd, err := conn.CurrentDir()
	if err != nil {
		return false, fmt.Errorf("current dir: %w", err)
	}
	if err := conn.ChangeDir(p); err != nil {
		return false, nil
	}
	if err := conn.ChangeDir(cwd); err != nil {
		return true, fmt.Errorf("restore dir %s: %w", cwd, err)
	}
	return true, nil
}

// removeTree removes dir's contents, children first, then dir itself.
func removeTree(conn Conn, dir string) error {
	listing, err := conn.List(dir)
	if err != nil {
		return err
	}

	for _, e := range listing {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		child := JoinPath(dir, e.Name)
		if e.Type == TypeDir {
			err = removeTree(conn, child)
		} else {
			err = conn.Delete(child)
		}
		if err != nil {
			return err
		}
	}

	return conn.RemoveDir(dir)
}

// Rename renames p to newName. Neither argument is altered.
func (a *Adapter) Rename(p, newName string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	conn, err := a.active("rename")
	if err != nil {
		return err
	}
	if err := conn.Rename(p, newName); err != nil {
		return adapterError("rename", err)
	}
	return nil
}

// Move moves p to newPath. Leading slashes are stripped from the source only.
func (a *Adapter) Move(p, newPath string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	conn, err := a.active("move")
	if err != nil {
		return err
	}
	if err := conn.Rename(strings.TrimLeft(p, "/"), newPath); err != nil {
		return adapterError("move", err)
	}
	return nil
}

// SetPermissions sends SITE CHMOD with permissions as given.
func (a *Adapter) SetPermissions(p, permissions string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	conn, err := a.active("chmod")
	if err != nil {
		return err
	}

	resp, err := conn.Quote("SITE", "CHMOD", permissions, p)
	if err != nil {
		return adapterError("chmod", err)
	}
	if resp.Code < 200 || resp.Code > 299 {
		return adapterError("chmod", &ftp.ProtocolError{
			Command:  "SITE CHMOD",
			Response: resp.Message,
			Code:     resp.Code,
		})
	}
	return nil
}

// Size returns the size of a remote file.
func (a *Adapter) Size(p string) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	conn, err := a.active("size")
	if err != nil {
		return 0, err
	}
	size, err := conn.Size(p)
	if err != nil {
		return 0, adapterError("size", err)
	}
	return size, nil
}

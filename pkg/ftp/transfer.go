package ftp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gonzalop/ftp"
	"go.uber.org/zap"
)

// Download is a fully read remote file with the headers to serve it with.
type Download struct {
	Name    string
	Content []byte
	Headers map[string]string
}

// Download reads p completely and prepares attachment headers. Any
// failure is reported as a TransferError.
func (a *Adapter) Download(p string) (*Download, error) {
	content, err := a.ReadFile(p)
	if err != nil {
		return nil, &TransferError{Path: p, Err: err}
	}

	name := BaseName(p)
	if name == "" {
		return nil, &TransferError{Path: p, Err: errors.New("empty file name")}
	}

	return &Download{
		Name:    name,
		Content: content,
		Headers: map[string]string{
			"Content-Type":        "application/octet-stream",
			"Content-Disposition": "attachment; filename=" + name,
		},
	}, nil
}

// Upload sends a local file to remotePath. With resume the transfer
// continues from the remote file's current size; otherwise the remote
// file is overwritten.
func (a *Adapter) Upload(localPath, remotePath string, resume bool) error {
	return a.UploadContext(context.Background(), localPath, remotePath, resume, nil)
}

// UploadContext is Upload with cancellation and an optional running byte
// count callback. The count includes the resumed offset. Cancelling ctx
// stops reading the local file and fails the transfer.
func (a *Adapter) UploadContext(ctx context.Context, localPath, remotePath string, resume bool, progress func(int64)) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	conn, err := a.active("upload")
	if err != nil {
		return err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return adapterError("upload", fmt.Errorf("open local: %w", err))
	}
	defer f.Close()

	offset, err := a.resumeOffset(conn, f, remotePath, resume)
	if err != nil {
		return adapterError("upload", err)
	}

	var r io.Reader = &contextReader{ctx: ctx, r: f}
	if progress != nil {
		base := offset
		r = &ftp.ProgressReader{Reader: r, Callback: func(n int64) { progress(base + n) }}
	}

	if offset > 0 {
		a.logger.Debug("resuming upload",
			zap.String("remote", remotePath),
			zap.Int64("offset", offset),
		)
		err = conn.StoreAt(remotePath, r, offset)
	} else {
		err = conn.Store(remotePath, r)
	}
	if err != nil {
		return adapterError("upload", err)
	}
	return nil
}

// resumeOffset positions f for a resumed upload and returns the remote
// offset. A missing remote file resumes from zero; any other SIZE failure
// is returned so a resume never turns into a silent overwrite.
func (a *Adapter) resumeOffset(conn Conn, f *os.File, remotePath string, resume bool) (int64, error) {
	if !resume {
		return 0, nil
	}

	size, err := conn.Size(remotePath)
	if err != nil {
		var protoErr *ftp.ProtocolError
		if errors.As(err, &protoErr) && protoErr.Code == 550 {
			return 0, nil
		}
		return 0, fmt.Errorf("size of %s: %w", remotePath, err)
	}
	if size <= 0 {
		return 0, nil
	}

	fi, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat local: %w", err)
	}
	if size > fi.Size() {
		return 0, fmt.Errorf("remote file %s is larger than local file (%d > %d bytes)", remotePath, size, fi.Size())
	}

	if _, err := f.Seek(size, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek local: %w", err)
	}
	return size, nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

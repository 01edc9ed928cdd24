package ftp_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-help-me/ftpm/pkg/ftp"
	"github.com/ai-help-me/ftpm/pkg/ftp/ftptest"
)

func writeLocal(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "local.bin")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestDownload(t *testing.T) {
	srv := ftptest.NewServer("alice", "secret")
	srv.AddFile("/x/report.pdf", []byte("%PDF-1.4"))
	a := openAdapter(t, srv, testConfig())

	dl, err := a.Download("/x/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", dl.Name)
	assert.Equal(t, "%PDF-1.4", string(dl.Content))
	assert.Equal(t, "attachment; filename=report.pdf", dl.Headers["Content-Disposition"])
	assert.Equal(t, "application/octet-stream", dl.Headers["Content-Type"])
}

func TestDownloadMissing(t *testing.T) {
	srv := ftptest.NewServer("alice", "secret")
	a := openAdapter(t, srv, testConfig())

	dl, err := a.Download("/x/gone.pdf")
	assert.Nil(t, dl)

	var transferErr *ftp.TransferError
	require.True(t, errors.As(err, &transferErr))
	assert.Equal(t, "Failed to download file /x/gone.pdf.", err.Error())
}

func TestUploadNew(t *testing.T) {
	srv := ftptest.NewServer("alice", "secret")
	srv.AddDir("/in")
	a := openAdapter(t, srv, testConfig())

	local := writeLocal(t, "payload")
	require.NoError(t, a.Upload(local, "/in/payload.bin", false))

	content, ok := srv.Content("/in/payload.bin")
	require.True(t, ok)
	assert.Equal(t, "payload", string(content))
}

func TestUploadOverwritesWithoutResume(t *testing.T) {
	srv := ftptest.NewServer("alice", "secret")
	srv.AddFile("/in/data.bin", []byte("stale data"))
	a := openAdapter(t, srv, testConfig())

	local := writeLocal(t, "fresh")
	require.NoError(t, a.Upload(local, "/in/data.bin", false))

	content, _ := srv.Content("/in/data.bin")
	assert.Equal(t, "fresh", string(content))
	assert.NotContains(t, srv.Calls(), "SIZE /in/data.bin")
}

func TestUploadResume(t *testing.T) {
	srv := ftptest.NewServer("alice", "secret")
	srv.AddFile("/in/data.bin", []byte("0123"))
	a := openAdapter(t, srv, testConfig())
	srv.ResetCalls()

	local := writeLocal(t, "0123456789")
	require.NoError(t, a.Upload(local, "/in/data.bin", true))

	content, _ := srv.Content("/in/data.bin")
	assert.Equal(t, "0123456789", string(content))
	assert.Equal(t, []string{"SIZE /in/data.bin", "APPE /in/data.bin"}, srv.Calls())
}

func TestUploadResumeWithoutAutoSeek(t *testing.T) {
	srv := ftptest.NewServer("alice", "secret")
	srv.AddFile("/in/data.bin", []byte("0123"))
	cfg := testConfig()
	cfg.UsePassive = true
	cfg.AutoSeek = false
	a := openAdapter(t, srv, cfg)
	srv.ResetCalls()

	local := writeLocal(t, "0123456789")
	require.NoError(t, a.Upload(local, "/in/data.bin", true))

	content, _ := srv.Content("/in/data.bin")
	assert.Equal(t, "0123456789", string(content))
	assert.Equal(t, []string{"SIZE /in/data.bin", "APPE /in/data.bin"}, srv.Calls())
}

func TestUploadResumeSizeFailure(t *testing.T) {
	srv := ftptest.NewServer("alice", "secret")
	srv.AddFile("/in/data.bin", []byte("0123"))
	a := openAdapter(t, srv, testConfig())
	srv.Fail("SIZE", "/in/data.bin", errors.New("read tcp: i/o timeout"))
	srv.ResetCalls()

	local := writeLocal(t, "0123456789")
	err := a.Upload(local, "/in/data.bin", true)

	var adapterErr *ftp.AdapterError
	require.True(t, errors.As(err, &adapterErr))
	assert.Contains(t, err.Error(), "i/o timeout")
	assert.Equal(t, []string{"SIZE /in/data.bin"}, srv.Calls())

	content, _ := srv.Content("/in/data.bin")
	assert.Equal(t, "0123", string(content))
}

func TestUploadResumeMissingRemote(t *testing.T) {
	srv := ftptest.NewServer("alice", "secret")
	srv.AddDir("/in")
	a := openAdapter(t, srv, testConfig())
	srv.ResetCalls()

	local := writeLocal(t, "abc")
	require.NoError(t, a.Upload(local, "/in/new.bin", true))

	content, _ := srv.Content("/in/new.bin")
	assert.Equal(t, "abc", string(content))
	assert.Equal(t, []string{"SIZE /in/new.bin", "STOR /in/new.bin"}, srv.Calls())
}

func TestUploadResumeRemoteLarger(t *testing.T) {
	srv := ftptest.NewServer("alice", "secret")
	srv.AddFile("/in/data.bin", []byte("0123456789"))
	a := openAdapter(t, srv, testConfig())

	local := writeLocal(t, "012")
	err := a.Upload(local, "/in/data.bin", true)

	var adapterErr *ftp.AdapterError
	require.True(t, errors.As(err, &adapterErr))
	assert.Contains(t, err.Error(), "larger than local file")

	content, _ := srv.Content("/in/data.bin")
	assert.Equal(t, "0123456789", string(content))
}

func TestUploadProgressIncludesOffset(t *testing.T) {
	srv := ftptest.NewServer("alice", "secret")
	srv.AddFile("/in/data.bin", []byte("01234"))
	a := openAdapter(t, srv, testConfig())

	local := writeLocal(t, "0123456789")
	var last int64
	require.NoError(t, a.UploadContext(context.Background(), local, "/in/data.bin", true, func(n int64) { last = n }))
	assert.Equal(t, int64(10), last)
}

func TestUploadCancelled(t *testing.T) {
	srv := ftptest.NewServer("alice", "secret")
	srv.AddDir("/in")
	a := openAdapter(t, srv, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	local := writeLocal(t, "never sent")
	err := a.UploadContext(ctx, local, "/in/data.bin", false, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, srv.Exists("/in/data.bin"))
}

func TestUploadMissingLocal(t *testing.T) {
	srv := ftptest.NewServer("alice", "secret")
	a := openAdapter(t, srv, testConfig())

	err := a.Upload(filepath.Join(t.TempDir(), "nope"), "/x", false)
	var adapterErr *ftp.AdapterError
	require.True(t, errors.As(err, &adapterErr))
	assert.Equal(t, "upload", adapterErr.Op)
}

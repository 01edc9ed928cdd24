package ftp_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-help-me/ftpm/pkg/ftp"
	"github.com/ai-help-me/ftpm/pkg/ftp/ftptest"
)

func TestBrowseDirectoriesFirst(t *testing.T) {
	srv := ftptest.NewServer("alice", "secret")
	srv.AddFile("/pub/zeta.txt", []byte("zz"))
	srv.AddDir("/pub/beta")
	srv.AddFile("/pub/alpha.txt", []byte("a"))
	srv.AddDir("/pub/gamma")

	a := openAdapter(t, srv, testConfig())
	entries, err := a.Browse("/pub/")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"beta", "gamma", "zeta.txt", "alpha.txt"}, names)

	seenFile := false
	for _, e := range entries {
		if !e.IsDir() {
			seenFile = true
		} else {
			assert.False(t, seenFile, "directory %s listed after a file", e.Name)
		}
	}

	assert.Contains(t, srv.Calls(), "LIST /pub")
}

func TestBrowseEntryFields(t *testing.T) {
	srv := ftptest.NewServer("alice", "secret")
	srv.AddFile("/docs/report.pdf", []byte("12345"))

	a := openAdapter(t, srv, testConfig())
	entries, err := a.Browse("docs")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, ftp.Entry{
		Name:         "report.pdf",
		Type:         ftp.TypeFile,
		Size:         5,
		ModifiedTime: "02 Jan 15:04",
		Permissions:  "-rw-r--r--",
		Path:         "/docs/report.pdf",
		Owner:        "owner",
		Group:        "group",
	}, entries[0])
}

func TestBrowseRoot(t *testing.T) {
	srv := ftptest.NewServer("alice", "secret")
	srv.AddFile("/a.txt", nil)
	srv.AddDir("/b")

	a := openAdapter(t, srv, testConfig())
	entries, err := a.Browse("/")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "/b", entries[0].Path)
	assert.Equal(t, "/a.txt", entries[1].Path)
}

func TestBrowseMissingDirectory(t *testing.T) {
	srv := ftptest.NewServer("alice", "secret")
	a := openAdapter(t, srv, testConfig())

	entries, err := a.Browse("/nope")
	assert.Nil(t, entries)

	var adapterErr *ftp.AdapterError
	require.True(t, errors.As(err, &adapterErr))
	assert.Equal(t, "browse", adapterErr.Op)
}

func TestDirectoryTree(t *testing.T) {
	srv := ftptest.NewServer("alice", "secret")
	srv.AddDir("/a/b/c")
	srv.AddFile("/a/file.txt", []byte("x"))
	srv.AddDir("/d")
	srv.AddFile("/top.txt", []byte("y"))

	a := openAdapter(t, srv, testConfig())
	tree, err := a.DirectoryTree()
	require.NoError(t, err)

	var paths []string
	for _, e := range tree {
		assert.Equal(t, ftp.TypeDir, e.Type)
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{"/a", "/a/b", "/a/b/c", "/d"}, paths)
}

func TestDirectoryTreeEmpty(t *testing.T) {
	srv := ftptest.NewServer("alice", "secret")
	srv.AddFile("/only.txt", nil)

	a := openAdapter(t, srv, testConfig())
	tree, err := a.DirectoryTree()
	require.NoError(t, err)
	assert.Empty(t, tree)
}

func TestDirectoryTreeFailsWhole(t *testing.T) {
	srv := ftptest.NewServer("alice", "secret")
	srv.AddDir("/a/b")
	srv.AddDir("/c")
	srv.Fail("LIST", "/a/b", errors.New("[FtpException] - 421 Timeout"))

	a := openAdapter(t, srv, testConfig())
	tree, err := a.DirectoryTree()
	assert.Nil(t, tree)
	require.Error(t, err)
	assert.Equal(t, "421 Timeout", err.Error())
}

package ftp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePath(t *testing.T) {
	got, err := decodePath("/docs/new%20file.txt")
	require.NoError(t, err)
	assert.Equal(t, "docs/new file.txt", got)

	got, err = decodePath("//a+b")
	require.NoError(t, err)
	assert.Equal(t, "a b", got)

	_, err = decodePath("/bad%zz")
	assert.Error(t, err)
}

func TestCleanAndJoinPath(t *testing.T) {
	assert.Equal(t, "/", CleanPath(""))
	assert.Equal(t, "/a/c", CleanPath("/a/b/../c/"))
	assert.Equal(t, "/a", CleanPath("a/./"))
	assert.Equal(t, "/", CleanPath("/.."))

	assert.Equal(t, "/a/b", JoinPath("/a", "b"))
	assert.Equal(t, "/a/b", JoinPath("/a/", "b"))
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "report.pdf", BaseName("/x/report.pdf"))
	assert.Equal(t, "report.pdf", BaseName("report.pdf"))
	assert.Equal(t, "x", BaseName("/x/"))
	assert.Equal(t, "", BaseName("/"))
}

func TestEntryPathAndTempName(t *testing.T) {
	assert.Equal(t, "/pub/a.txt", entryPath("pub", "a.txt"))
	assert.Equal(t, "/pub/a.txt", entryPath("/pub/", "a.txt"))
	assert.Equal(t, "/a.txt", entryPath("", "a.txt"))
	assert.Equal(t, "/a.txt", entryPath("/", "a.txt"))

	assert.Equal(t, "/docs/.a.txt.ftpm-part", tempName("/docs/a.txt"))
	assert.Equal(t, ".a.txt.ftpm-part", tempName("a.txt"))
}

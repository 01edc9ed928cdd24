package shell

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRemote(t *testing.T) {
	ps := &PathState{RemoteCWD: "/pub/docs"}

	tests := []struct {
		in   string
		want string
	}{
		{"", "/pub/docs"},
		{".", "/pub/docs"},
		{"~", "/"},
		{"~/incoming", "/incoming"},
		{"/etc/../srv", "/srv"},
		{"report.pdf", "/pub/docs/report.pdf"},
		{"../img", "/pub/img"},
		{"../../../..", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ps.ResolveRemote(tt.in))
		})
	}
}

func TestResolveLocal(t *testing.T) {
	cwd := filepath.Join(string(filepath.Separator), "work", "ftpm")
	home := filepath.Join(string(filepath.Separator), "home", "alice")
	ps := &PathState{LocalCWD: cwd, HomeLocal: home}

	got, err := ps.ResolveLocal("")
	require.NoError(t, err)
	assert.Equal(t, cwd, got)

	got, err = ps.ResolveLocal("~")
	require.NoError(t, err)
	assert.Equal(t, home, got)

	got, err = ps.ResolveLocal("~/dl")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "dl"), got)

	got, err = ps.ResolveLocal("../out")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(string(filepath.Separator), "work", "out"), got)

	_, err = ps.ResolveLocal("~bob/x")
	assert.Error(t, err)
}

func TestUpdateLocalCWD(t *testing.T) {
	dir := t.TempDir()
	ps := &PathState{}
	require.NoError(t, ps.UpdateLocalCWD(dir))
	assert.Equal(t, dir, ps.LocalCWD)
}

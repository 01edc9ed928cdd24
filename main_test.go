package main

import (
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-help-me/ftpm/pkg/config"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		args []string
		want command
		err  bool
	}{
		{nil, command{name: "shell"}, false},
		{[]string{"serve"}, command{name: "serve"}, false},
		{[]string{"shell", "mirrors/gnu"}, command{name: "shell", profile: "mirrors/gnu"}, false},
		{[]string{"tree", "local"}, command{name: "tree", profile: "local"}, false},
		{[]string{"--help"}, command{name: "help"}, false},
		{[]string{"serve", "extra"}, command{}, true},
		{[]string{"shell", "a", "b"}, command{}, true},
		{[]string{"ssh"}, command{}, true},
		{[]string{"add", "gnu", "ftp.gnu.org"}, command{name: "add", profile: "gnu", target: "ftp.gnu.org"}, false},
		{
			[]string{"add", "--ssl", "vault", "bob@files.example.com:990", "--passive"},
			command{name: "add", profile: "vault", target: "bob@files.example.com:990", ssl: true, passive: true},
			false,
		},
		{[]string{"add", "gnu"}, command{}, true},
		{[]string{"add", "gnu", "ftp.gnu.org", "--tls"}, command{}, true},
	}
	for _, tt := range tests {
		got, err := parseArgs(tt.args)
		if tt.err {
			assert.ErrorIs(t, err, errUsage, "%v", tt.args)
			continue
		}
		require.NoError(t, err, "%v", tt.args)
		assert.Equal(t, tt.want, got, "%v", tt.args)
	}
}

func TestResolveProfileByName(t *testing.T) {
	cfg := &config.Config{Profiles: []*config.Profile{
		{Name: "mirrors", Children: []*config.Profile{
			{Name: "gnu", Host: "ftp.gnu.org", User: "anonymous"},
		}},
	}}

	p, action, err := resolveProfile(cfg, command{name: "tree", profile: "mirrors/gnu"})
	require.NoError(t, err)
	assert.Equal(t, "gnu", p.Name)
	assert.Equal(t, "tree", action)

	_, _, err = resolveProfile(cfg, command{name: "shell", profile: "mirrors"})
	assert.ErrorContains(t, err, "is a group")

	_, _, err = resolveProfile(cfg, command{name: "shell", profile: "nope"})
	assert.ErrorContains(t, err, "not found")

	_, _, err = resolveProfile(&config.Config{}, command{name: "shell"})
	assert.ErrorContains(t, err, "no profiles")
}

func TestEnvOr(t *testing.T) {
	t.Setenv("FTPM_TEST_VALUE", "")
	assert.Equal(t, "warn", envOr("FTPM_TEST_VALUE", "warn"))
	t.Setenv("FTPM_TEST_VALUE", "debug")
	assert.Equal(t, "debug", envOr("FTPM_TEST_VALUE", "warn"))
}

func TestProfileFromTarget(t *testing.T) {
	tests := []struct {
		target string
		user   string
		host   string
		port   int
		err    bool
	}{
		{"ftp.gnu.org", "anonymous", "ftp.gnu.org", 21, false},
		{"bob@files.example.com", "bob", "files.example.com", 21, false},
		{"bob@files.example.com:2121", "bob", "files.example.com", 2121, false},
		{"[::1]:2121", "anonymous", "::1", 2121, false},
		{"bob@host:ftp", "", "", 0, true},
		{"@host", "", "", 0, true},
		{"bob@", "", "", 0, true},
	}
	for _, tt := range tests {
		p, err := profileFromTarget("site", tt.target)
		if tt.err {
			assert.Error(t, err, tt.target)
			continue
		}
		require.NoError(t, err, tt.target)
		assert.Equal(t, tt.user, p.User, tt.target)
		assert.Equal(t, tt.host, p.Host, tt.target)
		assert.Equal(t, tt.port, p.Port, tt.target)
	}

	_, err := profileFromTarget("a/b", "ftp.gnu.org")
	assert.ErrorContains(t, err, "must not contain /")
}

func TestAddProfile(t *testing.T) {
	for _, ext := range []string{".yaml", ".toml"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "profiles"+ext)

			written, err := addProfile(path, command{name: "add", profile: "gnu", target: "ftp.gnu.org"})
			require.NoError(t, err)
			assert.Equal(t, path, written)

			_, err = addProfile(path, command{
				name: "add", profile: "vault", target: "bob@files.example.com:990", ssl: true, passive: true,
			})
			require.NoError(t, err)

			_, err = addProfile(path, command{name: "add", profile: "gnu", target: "ftp.gnu.org"})
			assert.ErrorContains(t, err, "already exists")

			cfg, err := config.Load(path, nil)
			require.NoError(t, err)
			require.Len(t, cfg.Profiles, 2)

			vault := cfg.FindProfile("vault")
			require.NotNil(t, vault)
			assert.Equal(t, "bob", vault.User)
			assert.Equal(t, "files.example.com", vault.Host)
			assert.Equal(t, 990, vault.Port)
			assert.True(t, vault.SSL)
			assert.True(t, vault.Passive)
			assert.Empty(t, vault.Password)
		})
	}
}

func TestAddProfileDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	written, err := addProfile("", command{name: "add", profile: "gnu", target: "ftp.gnu.org"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".ftpm.yaml"), written)
	assert.True(t, config.Exists(written))
}

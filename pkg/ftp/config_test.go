package ftp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidateDefaults(t *testing.T) {
	cfg := Config{Host: "ftp.example.com", Username: "alice"}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, "ftp.example.com:21", cfg.Addr())
	assert.Equal(t, 90*time.Second, cfg.TimeoutDuration())
}

func TestConfigValidateErrors(t *testing.T) {
	cfg := Config{Port: 70000}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host is required")
	assert.Contains(t, err.Error(), "username is required")
	assert.Contains(t, err.Error(), "invalid port 70000")
}

func TestSettingsFor(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want TransferSettings
	}{
		{
			name: "defaults without passive",
			cfg:  Config{},
			want: TransferSettings{Passive: false, AutoSeek: true},
		},
		{
			name: "auto-seek ignored without passive",
			cfg:  Config{AutoSeek: false, UsePassive: false},
			want: TransferSettings{Passive: false, AutoSeek: true},
		},
		{
			name: "passive with auto-seek",
			cfg:  Config{UsePassive: true, AutoSeek: true},
			want: TransferSettings{Passive: true, AutoSeek: true},
		},
		{
			name: "passive without auto-seek",
			cfg:  Config{UsePassive: true, AutoSeek: false},
			want: TransferSettings{Passive: true, AutoSeek: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, settingsFor(tt.cfg))
		})
	}
}

func TestTransportString(t *testing.T) {
	assert.Equal(t, "encrypted", TransportEncrypted.String())
	assert.Equal(t, "plain", TransportPlain.String())
	assert.Equal(t, "failed", TransportFailed.String())
}

package ftp

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultPort is the standard FTP control port.
	DefaultPort = 21
	// DefaultTimeout is used when a config leaves the timeout unset.
	DefaultTimeout = 90
)

// Config contains the parameters needed to open a session.
// It is not modified after the adapter opens; reconnecting with different
// parameters means opening a new adapter.
type Config struct {
	Host          string
	Username      string
	Password      string
	Port          int
	Timeout       int // seconds
	UseEncryption bool
	UsePassive    bool
	AutoSeek      bool
}

// Validate checks required fields and fills in defaults.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Host) == "" {
		errs = append(errs, "host is required")
	}
	if c.Username == "" {
		errs = append(errs, "username is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d", c.Port))
	}

	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, ", "))
	}
	return nil
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// TimeoutDuration returns the configured timeout.
func (c Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// TransferSettings are the transfer-mode options bound to an adapter.
type TransferSettings struct {
	Passive  bool
	AutoSeek bool
}

// settingsFor derives transfer settings from a config. The FTP defaults
// (active mode, auto-seek on) hold unless passive mode was requested, in
// which case passive is enabled and auto-seek follows the config.
func settingsFor(c Config) TransferSettings {
	s := TransferSettings{AutoSeek: true}
	if c.UsePassive {
		s.Passive = true
		s.AutoSeek = c.AutoSeek
	}
	return s
}

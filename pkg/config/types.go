package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/ai-help-me/ftpm/pkg/ftp"
)

// Profile is a saved FTP connection, or a named group of them.
type Profile struct {
	Name     string     `yaml:"name" toml:"name"`
	Host     string     `yaml:"host,omitempty" toml:"host,omitempty"`
	User     string     `yaml:"user,omitempty" toml:"user,omitempty"`
	Port     int        `yaml:"port,omitempty" toml:"port,omitempty"`
	Password string     `yaml:"password,omitempty" toml:"password,omitempty"`
	Timeout  int        `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	SSL      bool       `yaml:"ssl,omitempty" toml:"ssl,omitempty"`
	Passive  bool       `yaml:"passive,omitempty" toml:"passive,omitempty"`
	AutoSeek *bool      `yaml:"auto-seek,omitempty" toml:"auto-seek,omitempty"`
	Children []*Profile `yaml:"children,omitempty" toml:"children,omitempty"`
}

// Validate checks that the profile has all required fields.
// Group entries (with children) only require a name.
func (p *Profile) Validate() error {
	var errs []string

	if p.Name == "" {
		errs = append(errs, "name is required")
	}

	if len(p.Children) == 0 {
		if p.Host == "" {
			errs = append(errs, "host is required")
		}
		if p.User == "" {
			errs = append(errs, "user is required")
		}
	}

	if p.Port == 0 {
		p.Port = ftp.DefaultPort
	}
	if p.Timeout == 0 {
		p.Timeout = ftp.DefaultTimeout
	}

	for _, child := range p.Children {
		if err := child.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", child.Name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("profile validation errors: %s", strings.Join(errs, ", "))
	}
	return nil
}

// IsGroup reports whether p only groups other profiles.
func (p *Profile) IsGroup() bool {
	return len(p.Children) > 0
}

// AutoSeekEnabled defaults to true when auto-seek is not set.
func (p *Profile) AutoSeekEnabled() bool {
	return p.AutoSeek == nil || *p.AutoSeek
}

// FTPConfig converts the profile to adapter settings.
func (p *Profile) FTPConfig() ftp.Config {
	return ftp.Config{
		Host:          p.Host,
		Username:      p.User,
		Password:      p.Password,
		Port:          p.Port,
		Timeout:       p.Timeout,
		UseEncryption: p.SSL,
		UsePassive:    p.Passive,
		AutoSeek:      p.AutoSeekEnabled(),
	}
}

// Config is the root configuration structure.
type Config struct {
	Profiles []*Profile `yaml:"profiles" toml:"profiles"`
}

// GetProfilesAtPath returns the profiles at the given group path.
// Empty path returns top-level profiles.
func (c *Config) GetProfilesAtPath(path []string) []*Profile {
	if len(path) == 0 {
		return c.Profiles
	}

	current := findByPath(c.Profiles, path)
	if current == nil {
		return nil
	}
	return current.Children
}

func findByPath(profiles []*Profile, path []string) *Profile {
	if len(path) == 0 {
		return nil
	}
	for _, p := range profiles {
		if p.Name == path[0] {
			if len(path) == 1 {
				return p
			}
			return findByPath(p.Children, path[1:])
		}
	}
	return nil
}

// FindProfile locates a profile by full name, e.g. "mirrors/kernel".
func (c *Config) FindProfile(name string) *Profile {
	return findByPath(c.Profiles, strings.Split(name, "/"))
}

// expandPath expands ~ to the home directory.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := homedir.Dir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
	}

	if strings.HasPrefix(path, "~") {
		return homedir.Dir()
	}

	return path, nil
}

// DefaultConfigPaths returns the default profile files in load order:
// ~/.ftpm.yaml, then ~/.ftpm.toml.
func DefaultConfigPaths() ([]string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, fmt.Errorf("get home directory: %w", err)
	}
	return []string{
		filepath.Join(home, ".ftpm.yaml"),
		filepath.Join(home, ".ftpm.toml"),
	}, nil
}

// Exists checks if the config file exists.
func Exists(path string) bool {
	expanded, err := expandPath(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(expanded)
	return err == nil
}

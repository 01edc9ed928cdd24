package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/ai-help-me/ftpm/pkg/logging"
)

// EnvPrefix prefixes every server setting in the environment.
const EnvPrefix = "FTPM"

// Server holds the HTTP server settings.
type Server struct {
	Addr string `envconfig:"ADDR"`

	LogLevel string `envconfig:"LOG_LEVEL"`
	LogDev   bool   `envconfig:"LOG_DEV"`

	SessionTTL    time.Duration `envconfig:"SESSION_TTL"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL"`

	RateLimitRPS     int  `envconfig:"RATE_LIMIT_RPS"`
	RateLimitBurst   int  `envconfig:"RATE_LIMIT_BURST"`
	RateLimitEnabled bool `envconfig:"RATE_LIMIT_ENABLED"`

	MaxUploadMB int    `envconfig:"MAX_UPLOAD_MB"`
	UploadDir   string `envconfig:"UPLOAD_DIR"`

	CORSOrigins  []string `envconfig:"CORS_ORIGINS"`
	CookieSecure bool     `envconfig:"COOKIE_SECURE"`

	TLSSkipVerify bool `envconfig:"TLS_SKIP_VERIFY"`
}

// LoadServer starts from DefaultServer and overrides it with any FTPM_*
// environment variables that are set.
func LoadServer() (*Server, error) {
	cfg := DefaultServer()
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = os.TempDir()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultServer returns the default server settings.
func DefaultServer() *Server {
	return &Server{
		Addr:             ":8080",
		LogLevel:         "info",
		SessionTTL:       30 * time.Minute,
		SweepInterval:    time.Minute,
		RateLimitRPS:     20,
		RateLimitBurst:   40,
		RateLimitEnabled: true,
		MaxUploadMB:      512,
		UploadDir:        os.TempDir(),
		CORSOrigins:      []string{"*"},
	}
}

// Validate rejects settings the server cannot run with.
func (s *Server) Validate() error {
	var errs []string
	if s.Addr == "" {
		errs = append(errs, "addr is required")
	}
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("invalid log level %q", s.LogLevel))
	}
	if s.SessionTTL <= 0 {
		errs = append(errs, "session ttl must be positive")
	}
	if s.SweepInterval <= 0 {
		errs = append(errs, "sweep interval must be positive")
	}
	if s.RateLimitEnabled && (s.RateLimitRPS <= 0 || s.RateLimitBurst <= 0) {
		errs = append(errs, "rate limit rps and burst must be positive")
	}
	if s.MaxUploadMB <= 0 {
		errs = append(errs, "max upload size must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("server config: %s", strings.Join(errs, ", "))
	}
	return nil
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (s *Server) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}

// AllowAllOrigins reports whether CORS is open to any origin.
func (s *Server) AllowAllOrigins() bool {
	for _, o := range s.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return len(s.CORSOrigins) == 0
}

// Logging returns the logger configuration for these settings.
func (s *Server) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = s.LogLevel
	cfg.Development = s.LogDev
	return cfg
}

package ftp

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Transport tags the outcome of a connection attempt.
type Transport int

const (
	TransportFailed Transport = iota
	TransportEncrypted
	TransportPlain
)

func (t Transport) String() string {
	switch t {
	case TransportEncrypted:
		return "encrypted"
	case TransportPlain:
		return "plain"
	default:
		return "failed"
	}
}

// Adapter binds one live transport handle, its transfer settings and the
// operations run against it. All operations are serialized.
type Adapter struct {
	mu        sync.Mutex
	cfg       Config
	dialer    Dialer
	conn      Conn
	transport Transport
	settings  TransferSettings
	logger    *zap.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Open validates cfg, connects and logs in. With UseEncryption the
// encrypted attempt is made first and a failure there falls back to plain.
func Open(cfg Config, dialer Dialer, opts ...Option) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, connectionError(cfg.Addr(), err)
	}

	a := &Adapter{
		cfg:      cfg,
		dialer:   dialer,
		settings: settingsFor(cfg),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.connect(); err != nil {
		return nil, err
	}
	return a, nil
}

// connect establishes a new handle. Caller holds mu or owns a exclusively.
func (a *Adapter) connect() error {
	conn, transport, err := a.establish()
	if err != nil {
		a.logger.Warn("ftp connect failed",
			zap.String("addr", a.cfg.Addr()),
			zap.Error(err),
		)
		return connectionError(a.cfg.Addr(), err)
	}

	a.conn = conn
	a.transport = transport
	a.logger.Info("ftp connected",
		zap.String("addr", a.cfg.Addr()),
		zap.String("user", a.cfg.Username),
		zap.Stringer("transport", transport),
		zap.Bool("passive", a.settings.Passive),
	)
	return nil
}

// establish makes at most two attempts: encrypted (when requested) and
// plain. It reports which one succeeded.
func (a *Adapter) establish() (Conn, Transport, error) {
	opts := DialOptions{
		Passive: a.settings.Passive,
		Timeout: a.cfg.TimeoutDuration(),
	}
	addr := a.cfg.Addr()

	if a.cfg.UseEncryption {
		opts.Encrypted = true
		conn, err := a.dialer.Dial(addr, opts)
		if err == nil {
			return a.login(conn, TransportEncrypted)
		}
		a.logger.Debug("encrypted connection failed, falling back to plain",
			zap.String("addr", addr),
			zap.Error(err),
		)
		opts.Encrypted = false
	}

	conn, err := a.dialer.Dial(addr, opts)
	if err != nil {
		return nil, TransportFailed, err
	}
	return a.login(conn, TransportPlain)
}

func (a *Adapter) login(conn Conn, transport Transport) (Conn, Transport, error) {
	if err := conn.Login(a.cfg.Username, a.cfg.Password); err != nil {
		_ = conn.Quit()
		return nil, TransportFailed, fmt.Errorf("login as %s: %w", a.cfg.Username, err)
	}
	return conn, transport, nil
}

// Reopen makes sure the adapter holds a live handle, probing the current
// one and dialing again when it is missing or dead.
func (a *Adapter) Reopen() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.conn != nil {
		if err := a.conn.Noop(); err == nil {
			return nil
		}
		a.logger.Info("ftp connection lost, reconnecting", zap.String("addr", a.cfg.Addr()))
		_ = a.conn.Quit()
		a.conn = nil
		a.transport = TransportFailed
	}

	return a.connect()
}

// Close ends the session. It is safe to call more than once.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.conn == nil {
		return nil
	}
	err := a.conn.Quit()
	a.conn = nil
	a.transport = TransportFailed
	if err != nil {
		return fmt.Errorf("quit: %w", err)
	}
	return nil
}

// Transport reports how the current handle was established.
func (a *Adapter) Transport() Transport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.transport
}

// Settings returns the transfer settings bound at open.
func (a *Adapter) Settings() TransferSettings {
	return a.settings
}

// IsConnected returns true if the adapter holds a handle.
func (a *Adapter) IsConnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conn != nil
}

// User returns the username for this adapter.
func (a *Adapter) User() string {
	return a.cfg.Username
}

// Host returns the hostname for this adapter.
func (a *Adapter) Host() string {
	return a.cfg.Host
}

// active returns the live handle. Caller must hold mu.
func (a *Adapter) active(op string) (Conn, error) {
	if a.conn == nil {
		return nil, &AdapterError{Op: op, Msg: "Not connected to remote server.", Err: ErrNotConnected}
	}
	return a.conn, nil
}

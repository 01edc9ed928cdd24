package ftp

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/gonzalop/ftp"
)

// Conn is the transport capability the adapter drives. *ftp.Client from
// github.com/gonzalop/ftp satisfies it.
type Conn interface {
	Login(username, password string) error
	Quit() error
	Noop() error

	List(path string) ([]*ftp.Entry, error)
	ChangeDir(path string) error
	CurrentDir() (string, error)

	MakeDir(path string) error
	RemoveDir(path string) error
	Delete(path string) error
	Rename(from, to string) error
	Size(path string) (int64, error)

	Store(path string, r io.Reader) error
	StoreAt(path string, r io.Reader, offset int64) error
	Retrieve(path string, w io.Writer) error

	Quote(command string, args ...string) (*ftp.Response, error)
}

var _ Conn = (*ftp.Client)(nil)

// DialOptions describe a single connection attempt.
type DialOptions struct {
	Encrypted bool
	Passive   bool
	Timeout   time.Duration
}

// Dialer opens transport connections.
type Dialer interface {
	Dial(addr string, opts DialOptions) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(addr string, opts DialOptions) (Conn, error)

// Dial calls f.
func (f DialerFunc) Dial(addr string, opts DialOptions) (Conn, error) {
	return f(addr, opts)
}

// NetDialer dials real FTP servers.
type NetDialer struct {
	// InsecureSkipVerify disables certificate checks for encrypted attempts.
	InsecureSkipVerify bool
}

// Dial connects to addr. Encrypted attempts use explicit TLS (AUTH TLS) on
// the control port.
func (d NetDialer) Dial(addr string, opts DialOptions) (Conn, error) {
	options := []ftp.Option{ftp.WithTimeout(opts.Timeout)}

	if opts.Encrypted {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("split address %s: %w", addr, err)
		}
		options = append(options, ftp.WithExplicitTLS(&tls.Config{
			ServerName:         host,
			InsecureSkipVerify: d.InsecureSkipVerify,
		}))
	}

	if !opts.Passive {
		options = append(options, ftp.WithActiveMode())
	}

	client, err := ftp.Dial(addr, options...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return client, nil
}

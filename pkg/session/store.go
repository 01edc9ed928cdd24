// Package session keeps per-client state, such as the open FTP adapter,
// between HTTP requests.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Session is one client's state. Callers hold Lock for the duration of a
// request so operations on the stored values are serialized.
type Session struct {
	ID string

	op sync.Mutex

	mu         sync.Mutex
	values     map[string]any
	lastAccess time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{ID: id, values: make(map[string]any), lastAccess: now}
}

// Lock serializes work on the session.
func (s *Session) Lock() { s.op.Lock() }

// Unlock releases Lock.
func (s *Session) Unlock() { s.op.Unlock() }

// Get returns the value stored under key.
func (s *Session) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete removes key and returns the value it held.
func (s *Session) Delete(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	delete(s.values, key)
	return v, ok
}

// LastAccess returns when the session was last started or fetched.
func (s *Session) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastAccess = now
	s.mu.Unlock()
}

// close drops every value, closing those that implement io.Closer.
func (s *Session) close() error {
	s.mu.Lock()
	values := s.values
	s.values = make(map[string]any)
	s.mu.Unlock()

	var err error
	for key, v := range values {
		if c, ok := v.(io.Closer); ok {
			if cerr := c.Close(); cerr != nil {
				err = multierr.Append(err, fmt.Errorf("close %s: %w", key, cerr))
			}
		}
	}
	return err
}

// Store holds sessions keyed by ID and expires idle ones.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store whose sessions expire after ttl without access.
func NewStore(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start returns the session with the given ID, or a new one when the ID
// is empty or unknown. created reports whether a new session was made.
func (s *Store) Start(id string) (sess *Session, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if id != "" {
		if sess, ok := s.sessions[id]; ok {
			sess.touch(now)
			return sess, false
		}
	}

	sess = newSession(uuid.New().String(), now)
	s.sessions[sess.ID] = sess
	s.logger.Debug("session started", zap.String("session", sess.ID))
	return sess, true
}

// Destroy removes a session and closes its values. It waits for any
// request holding the session lock.
func (s *Store) Destroy(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	sess.Lock()
	defer sess.Unlock()
	s.logger.Debug("session destroyed", zap.String("session", id))
	return sess.close()
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed. Sessions in use are skipped.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if !sess.LastAccess().Before(cutoff) {
			continue
		}
		if !sess.op.TryLock() {
			continue
		}
		delete(s.sessions, id)
		expired = append(expired, sess)
	}
	s.mu.Unlock()

	for _, sess := range expired {
		if err := sess.close(); err != nil {
			s.logger.Warn("closing expired session", zap.String("session", sess.ID), zap.Error(err))
		}
		sess.Unlock()
		s.logger.Info("session expired", zap.String("session", sess.ID))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close destroys every session and returns the combined close errors.
func (s *Store) Close() error {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	var err error
	for _, sess := range sessions {
		sess.Lock()
		err = multierr.Append(err, sess.close())
		sess.Unlock()
	}
	return err
}

package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ai-help-me/ftpm/pkg/ftp"
	"github.com/ai-help-me/ftpm/pkg/session"
)

const (
	// CookieName carries the session ID.
	CookieName = "ftpm_session"
	// AdapterKey is the session variable holding the FTP adapter.
	AdapterKey = "ftpClientAdapter"
)

// session returns the caller's session, starting one and setting the
// cookie when needed.
func (s *Server) session(c *gin.Context) *session.Session {
	id, _ := c.Cookie(CookieName)
	sess, created := s.store.Start(id)
	if created {
		s.setCookie(c, sess.ID, s.cfg.SessionTTL)
	}
	return sess
}

func (s *Server) setCookie(c *gin.Context, value string, ttl time.Duration) {
	maxAge := int(ttl / time.Second)
	if ttl < 0 {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, value, maxAge, "/", "", s.cfg.CookieSecure, true)
}

// withAdapter restores the session's adapter, makes sure its connection is
// live and runs op with the session locked. An adapter that cannot
// reconnect is dropped from the session.
func (s *Server) withAdapter(c *gin.Context, name string, op func(a *ftp.Adapter) error) error {
	sess := s.session(c)
	sess.Lock()
	defer sess.Unlock()

	v, ok := sess.Get(AdapterKey)
	if !ok {
		return ErrNoAdapter
	}
	a, ok := v.(*ftp.Adapter)
	if !ok {
		return ErrNoAdapter
	}

	if err := a.Reopen(); err != nil {
		sess.Delete(AdapterKey)
		_ = a.Close()
		s.metrics.Connects.WithLabelValues(ftp.TransportFailed.String()).Inc()
		return err
	}

	err := op(a)
	s.metrics.ObserveOperation(name, err)
	return err
}

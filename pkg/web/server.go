// Package web exposes the FTP adapter over a JSON HTTP API. Each browser
// session owns one adapter, kept in the session store between requests.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ai-help-me/ftpm/pkg/config"
	"github.com/ai-help-me/ftpm/pkg/ftp"
	"github.com/ai-help-me/ftpm/pkg/session"
)

const shutdownTimeout = 10 * time.Second

// Server wires the HTTP routes to the session store and the FTP dialer.
type Server struct {
	cfg     *config.Server
	store   *session.Store
	dialer  ftp.Dialer
	logger  *zap.Logger
	metrics *Metrics
	report  Reporter
	engine  *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithReporter sets the callback for errors that end in a 500.
func WithReporter(report Reporter) Option {
	return func(s *Server) {
		if report != nil {
			s.report = report
		}
	}
}

// New builds the server and its routes.
func New(cfg *config.Server, store *session.Store, dialer ftp.Dialer, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		store:  store,
		dialer: dialer,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.report == nil {
		s.report = LogReporter(s.logger)
	}
	s.metrics = NewMetrics(store.Len)

	if !cfg.LogDev && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	s.engine = gin.New()
	s.engine.MaxMultipartMemory = 8 << 20

	s.engine.Use(Recovery(s.report, s.metrics))
	s.engine.Use(RequestLogger(s.logger))
	s.engine.Use(s.metrics.Middleware())
	s.engine.Use(CORS(cfg.CORSOrigins, cfg.AllowAllOrigins()))
	if cfg.RateLimitEnabled {
		s.logger.Info("rate limiting enabled",
			zap.Int("rps", cfg.RateLimitRPS),
			zap.Int("burst", cfg.RateLimitBurst),
		)
		s.engine.Use(RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, 3*time.Minute))
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.health)
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := s.engine.Group("/api")
	api.POST("/connect", s.connect)
	api.POST("/disconnect", s.disconnect)

	api.GET("/browse", s.browse)
	api.GET("/tree", s.tree)

	api.POST("/files", s.createFile)
	api.POST("/folders", s.createDirectory)
	api.GET("/files/content", s.readFile)
	api.PUT("/files/content", s.overwriteFile)

	api.POST("/remove", s.remove)
	api.POST("/rename", s.rename)
	api.POST("/move", s.move)
	api.POST("/permissions", s.setPermissions)

	api.GET("/download", s.download)
	api.POST("/upload", s.upload)

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody("Not found."))
	})
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": s.store.Len(),
	})
}

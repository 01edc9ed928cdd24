package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ai-help-me/ftpm/pkg/ftp"
)

// ErrNoAdapter is returned when the session has no open FTP connection.
var ErrNoAdapter = errors.New("no ftp connection in session")

const internalMessage = "Internal server error."

// Reporter receives every error that ends in a 500 response.
type Reporter func(err error)

// LogReporter reports errors to logger.
func LogReporter(logger *zap.Logger) Reporter {
	return func(err error) {
		logger.Error("unhandled error", zap.Error(err))
	}
}

// requestError marks malformed input.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &requestError{err: err}
}

func errorBody(msg string) gin.H {
	return gin.H{"success": false, "message": msg}
}

// statusFor maps an error to its response status and message.
func statusFor(err error) (int, string) {
	var (
		reqErr      *requestError
		connErr     *ftp.ConnectionError
		adapterErr  *ftp.AdapterError
		transferErr *ftp.TransferError
	)

	switch {
	case errors.Is(err, ErrNoAdapter):
		return http.StatusUnauthorized, "Not connected. Open a connection first."
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, reqErr.Error()
	case errors.As(err, &connErr):
		return http.StatusBadGateway, connErr.Error()
	case errors.As(err, &transferErr):
		return http.StatusBadRequest, transferErr.Error()
	case errors.As(err, &adapterErr):
		return http.StatusBadRequest, adapterErr.Error()
	default:
		return http.StatusInternalServerError, internalMessage
	}
}

// fail writes the error response; unmapped errors go to the reporter.
func (s *Server) fail(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		s.report(err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorBody(msg))
}

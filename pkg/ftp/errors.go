package ftp

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrNotConnected is returned by operations on an adapter without a live handle.
var ErrNotConnected = errors.New("not connected to remote server")

// tagPattern matches library tags such as "[ConnectionException] - ".
var tagPattern = regexp.MustCompile(`(?i)([\[\w\]]+)\s-\s`)

// Normalize strips library tagging from a raw error message.
// Messages without a tag are returned unchanged.
func Normalize(msg string) string {
	return tagPattern.ReplaceAllString(msg, "")
}

// NormalizeError is Normalize applied to an error's message.
func NormalizeError(err error) string {
	if err == nil {
		return ""
	}
	return Normalize(err.Error())
}

// ConnectionError reports a failed open, after the TLS fallback was tried.
type ConnectionError struct {
	Addr string
	Msg  string
	Err  error
}

func (e *ConnectionError) Error() string {
	return e.Msg
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// AdapterError reports any other failed operation with a cleaned message.
type AdapterError struct {
	Op  string
	Msg string
	Err error
}

func (e *AdapterError) Error() string {
	return e.Msg
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// TransferError reports a failed download. Its message is intentionally
// coarse and does not carry the transport error text.
type TransferError struct {
	Path string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("Failed to download file %s.", e.Path)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

func adapterError(op string, err error) error {
	return &AdapterError{Op: op, Msg: NormalizeError(err), Err: err}
}

func connectionError(addr string, err error) error {
	return &ConnectionError{Addr: addr, Msg: NormalizeError(err), Err: err}
}

func editError(path string, err error) error {
	return &AdapterError{Op: "edit", Msg: fmt.Sprintf("Unable to edit file [%s].", path), Err: err}
}

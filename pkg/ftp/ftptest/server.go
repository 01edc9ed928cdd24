// Package ftptest provides an in-memory FTP server for tests. It implements
// ftp.Dialer, and the connections it hands out implement ftp.Conn.
package ftptest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	goftp "github.com/gonzalop/ftp"

	"github.com/ai-help-me/ftpm/pkg/ftp"
)

type node struct {
	dir  bool
	data []byte
	mode os.FileMode
}

// Server is an in-memory FTP filesystem with failure injection.
type Server struct {
	Username string
	Password string

	// RejectTLS makes encrypted dial attempts fail, as a server without
	// AUTH TLS support would.
	RejectTLS bool
	// RejectDial makes every dial attempt fail.
	RejectDial bool

	mu       sync.Mutex
	nodes    map[string]*node
	children map[string][]string
	failures map[string]error
	calls    []string
	dials    []ftp.DialOptions
	conns    []*Conn
}

// NewServer creates a server with an empty root accepting user/pass.
func NewServer(user, pass string) *Server {
	return &Server{
		Username: user,
		Password: pass,
		nodes:    map[string]*node{"/": {dir: true, mode: os.ModeDir | 0755}},
		children: map[string][]string{"/": nil},
		failures: map[string]error{},
	}
}

// Dial implements ftp.Dialer.
func (s *Server) Dial(addr string, opts ftp.DialOptions) (ftp.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dials = append(s.dials, opts)
	if s.RejectDial {
		return nil, fmt.Errorf("dial tcp %s: connection refused", addr)
	}
	if opts.Encrypted && s.RejectTLS {
		return nil, &goftp.ProtocolError{Command: "AUTH TLS", Response: "TLS not configured", Code: 502}
	}

	c := &Conn{server: s, cwd: "/"}
	s.conns = append(s.conns, c)
	return c, nil
}

// Dials returns the options of every dial attempt so far.
func (s *Server) Dials() []ftp.DialOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ftp.DialOptions(nil), s.dials...)
}

// Calls returns the commands issued so far, e.g. "DELE /a.txt".
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// ResetCalls clears the command log.
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// Fail makes command cmd on the absolute path p return err.
func (s *Server) Fail(cmd, p string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[cmd+" "+path.Clean(p)] = err
}

// DropConnections marks every open connection dead.
func (s *Server) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.closed = true
	}
}

// AddDir creates a directory and any missing parents.
func (s *Server) AddDir(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mkdirAll(path.Clean("/" + p))
}

// AddFile creates a file and any missing parent directories.
func (s *Server) AddFile(p string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p = path.Clean("/" + p)
	s.mkdirAll(path.Dir(p))
	s.put(p, &node{data: append([]byte(nil), data...), mode: 0644})
}

// Exists reports whether p exists.
func (s *Server) Exists(p string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.nodes[path.Clean("/"+p)]
	return ok
}

// IsDir reports whether p is a directory.
func (s *Server) IsDir(p string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[path.Clean("/"+p)]
	return ok && n.dir
}

// Content returns a file's data.
func (s *Server) Content(p string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[path.Clean("/"+p)]
	if !ok || n.dir {
		return nil, false
	}
	return append([]byte(nil), n.data...), true
}

// Mode returns the permission bits of p.
func (s *Server) Mode(p string) os.FileMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.nodes[path.Clean("/"+p)]; ok {
		return n.mode.Perm()
	}
	return 0
}

func (s *Server) mkdirAll(p string) {
	if _, ok := s.nodes[p]; ok || p == "/" {
		return
	}
	s.mkdirAll(path.Dir(p))
	s.put(p, &node{dir: true, mode: os.ModeDir | 0755})
}

// put links n at p. The parent must exist.
func (s *Server) put(p string, n *node) {
	if _, ok := s.nodes[p]; !ok {
		parent := path.Dir(p)
		s.children[parent] = append(s.children[parent], path.Base(p))
	}
	s.nodes[p] = n
	if n.dir {
		if _, ok := s.children[p]; !ok {
			s.children[p] = nil
		}
	}
}

// unlink removes p and everything below it.
func (s *Server) unlink(p string) {
	for key := range s.nodes {
		if key == p || strings.HasPrefix(key, p+"/") {
			delete(s.nodes, key)
			delete(s.children, key)
		}
	}
	parent := path.Dir(p)
	names := s.children[parent]
	for i, name := range names {
		if name == path.Base(p) {
			s.children[parent] = append(names[:i:i], names[i+1:]...)
			break
		}
	}
}

func (s *Server) record(cmd, p string) error {
	s.calls = append(s.calls, strings.TrimSpace(cmd+" "+p))
	if err, ok := s.failures[cmd+" "+p]; ok {
		return err
	}
	return nil
}

func notFound(cmd, p string) error {
	return &goftp.ProtocolError{Command: cmd + " " + p, Response: p + ": No such file or directory", Code: 550}
}

func protocolError(cmd, p, msg string, code int) error {
	return &goftp.ProtocolError{Command: cmd + " " + p, Response: msg, Code: code}
}

// ErrClosed is returned by commands on a dropped or quit connection.
var ErrClosed = errors.New("connection closed")

// Conn is one client connection to a Server.
type Conn struct {
	server   *Server
	cwd      string
	loggedIn bool
	closed   bool
}

var _ ftp.Conn = (*Conn)(nil)

func (c *Conn) resolve(p string) string {
	if p == "" {
		return c.cwd
	}
	if strings.HasPrefix(p, "/") {
		return path.Clean(p)
	}
	return path.Clean(c.cwd + "/" + p)
}

// begin locks the server and checks the session state.
func (c *Conn) begin() error {
	c.server.mu.Lock()
	if c.closed {
		c.server.mu.Unlock()
		return ErrClosed
	}
	return nil
}

func (c *Conn) Login(username, password string) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.server.mu.Unlock()

	if err := c.server.record("USER", username); err != nil {
		return err
	}
	if username != c.server.Username || password != c.server.Password {
		return protocolError("PASS", "", "Login incorrect.", 530)
	}
	c.loggedIn = true
	return nil
}

func (c *Conn) Quit() error {
	c.server.mu.Lock()
	defer c.server.mu.Unlock()
	c.server.calls = append(c.server.calls, "QUIT")
	c.closed = true
	return nil
}

func (c *Conn) Noop() error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.server.mu.Unlock()
	return c.server.record("NOOP", "")
}

func (c *Conn) List(p string) ([]*goftp.Entry, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.server.mu.Unlock()

	p = c.resolve(p)
	if err := c.server.record("LIST", p); err != nil {
		return nil, err
	}
	n, ok := c.server.nodes[p]
	if !ok || !n.dir {
		return nil, notFound("LIST", p)
	}

	var entries []*goftp.Entry
	for _, name := range c.server.children[p] {
		child := c.server.nodes[path.Join(p, name)]
		e := &goftp.Entry{Name: name, Type: "file", Size: int64(len(child.data))}
		if child.dir {
			e.Type = "dir"
			e.Size = 4096
		}
		e.Raw = fmt.Sprintf("%s 1 owner group %d Jan 02 15:04 %s", child.mode.String(), e.Size, name)
		entries = append(entries, e)
	}
	return entries, nil
}

func (c *Conn) ChangeDir(p string) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.server.mu.Unlock()

	p = c.resolve(p)
	if err := c.server.record("CWD", p); err != nil {
		return err
	}
	n, ok := c.server.nodes[p]
	if !ok || !n.dir {
		return notFound("CWD", p)
	}
	c.cwd = p
	return nil
}

func (c *Conn) CurrentDir() (string, error) {
	if err := c.begin(); err != nil {
		return "", err
	}
	defer c.server.mu.Unlock()
	return c.cwd, c.server.record("PWD", "")
}

func (c *Conn) MakeDir(p string) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.server.mu.Unlock()

	p = c.resolve(p)
	if err := c.server.record("MKD", p); err != nil {
		return err
	}
	if _, ok := c.server.nodes[p]; ok {
		return protocolError("MKD", p, p+": File exists", 550)
	}
	if parent, ok := c.server.nodes[path.Dir(p)]; !ok || !parent.dir {
		return notFound("MKD", p)
	}
	c.server.put(p, &node{dir: true, mode: os.ModeDir | 0755})
	return nil
}

func (c *Conn) RemoveDir(p string) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.server.mu.Unlock()

	p = c.resolve(p)
	if err := c.server.record("RMD", p); err != nil {
		return err
	}
	n, ok := c.server.nodes[p]
	if !ok || !n.dir {
		return notFound("RMD", p)
	}
	if len(c.server.children[p]) > 0 {
		return protocolError("RMD", p, p+": Directory not empty", 550)
	}
	c.server.unlink(p)
	return nil
}

func (c *Conn) Delete(p string) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.server.mu.Unlock()

	p = c.resolve(p)
	if err := c.server.record("DELE", p); err != nil {
		return err
	}
	n, ok := c.server.nodes[p]
	if !ok || n.dir {
		return notFound("DELE", p)
	}
	c.server.unlink(p)
	return nil
}

func (c *Conn) Rename(from, to string) error {
	if err := c.begin(); err != nil {
		return err
	}
	defer c.server.mu.Unlock()

	from, to = c.resolve(from), c.resolve(to)
	if err := c.server.record("RNFR", from); err != nil {
		return err
	}
	if err := c.server.record("RNTO", to); err != nil {
		return err
	}
	if _, ok := c.server.nodes[from]; !ok {
		return notFound("RNFR", from)
	}
	if _, ok := c.server.nodes[to]; ok {
		return protocolError("RNTO", to, to+": File exists", 553)
	}
	if parent, ok := c.server.nodes[path.Dir(to)]; !ok || !parent.dir {
		return notFound("RNTO", to)
	}

	// Collect the subtree in parent-first order so put can relink it.
	var keys []string
	for key := range c.server.nodes {
		if key == from || strings.HasPrefix(key, from+"/") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	moved := make(map[string]*node, len(keys))
	order := make(map[string][]string, len(keys))
	for _, key := range keys {
		moved[key] = c.server.nodes[key]
		order[key] = c.server.children[key]
	}
	c.server.unlink(from)
	for _, key := range keys {
		dst := to + strings.TrimPrefix(key, from)
		if key == from {
			c.server.put(dst, moved[key])
			continue
		}
		c.server.nodes[dst] = moved[key]
	}
	for _, key := range keys {
		if moved[key].dir {
			c.server.children[to+strings.TrimPrefix(key, from)] = order[key]
		}
	}
	return nil
}

func (c *Conn) Size(p string) (int64, error) {
	if err := c.begin(); err != nil {
		return 0, err
	}
	defer c.server.mu.Unlock()

	p = c.resolve(p)
	if err := c.server.record("SIZE", p); err != nil {
		return 0, err
	}
	n, ok := c.server.nodes[p]
	if !ok || n.dir {
		return 0, notFound("SIZE", p)
	}
	return int64(len(n.data)), nil
}

func (c *Conn) Store(p string, r io.Reader) error {
	return c.store("STOR", p, r, false)
}

func (c *Conn) StoreAt(p string, r io.Reader, offset int64) error {
	if offset > 0 {
		return c.store("APPE", p, r, true)
	}
	return c.store("STOR", p, r, false)
}

func (c *Conn) store(cmd, p string, r io.Reader, appendData bool) error {
	// Read outside the lock; r may call back into the caller.
	data, readErr := io.ReadAll(r)

	if err := c.begin(); err != nil {
		return err
	}
	defer c.server.mu.Unlock()

	p = c.resolve(p)
	if err := c.server.record(cmd, p); err != nil {
		return err
	}
	if readErr != nil {
		return fmt.Errorf("upload failed: %w", readErr)
	}
	if parent, ok := c.server.nodes[path.Dir(p)]; !ok || !parent.dir {
		return notFound(cmd, p)
	}

	n, ok := c.server.nodes[p]
	switch {
	case ok && n.dir:
		return protocolError(cmd, p, p+": Is a directory", 550)
	case ok && appendData:
		n.data = append(n.data, data...)
	case ok:
		n.data = data
	default:
		c.server.put(p, &node{data: data, mode: 0644})
	}
	return nil
}

func (c *Conn) Retrieve(p string, w io.Writer) error {
	if err := c.begin(); err != nil {
		return err
	}
	p = c.resolve(p)
	err := c.server.record("RETR", p)
	n, ok := c.server.nodes[p]
	var data []byte
	if ok && !n.dir {
		data = append([]byte(nil), n.data...)
	}
	c.server.mu.Unlock()

	if err != nil {
		return err
	}
	if !ok || n.dir {
		return notFound("RETR", p)
	}
	_, err = io.Copy(w, bytes.NewReader(data))
	return err
}

// Quote supports SITE CHMOD <octal> <path>. Other commands get 502.
func (c *Conn) Quote(command string, args ...string) (*goftp.Response, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.server.mu.Unlock()

	line := strings.TrimSpace(command + " " + strings.Join(args, " "))
	c.server.calls = append(c.server.calls, line)

	if !strings.EqualFold(command, "SITE") || len(args) != 3 || !strings.EqualFold(args[0], "CHMOD") {
		return &goftp.Response{Code: 502, Message: "Command not implemented."}, nil
	}

	p := c.resolve(args[2])
	if err, ok := c.server.failures["SITE CHMOD "+p]; ok {
		return nil, err
	}
	n, ok := c.server.nodes[p]
	if !ok {
		return &goftp.Response{Code: 550, Message: p + ": No such file or directory"}, nil
	}
	mode, err := strconv.ParseUint(args[1], 8, 32)
	if err != nil || mode > 0777 {
		return &goftp.Response{Code: 501, Message: "Invalid mode: " + args[1]}, nil
	}
	n.mode = n.mode&os.ModeDir | os.FileMode(mode)
	return &goftp.Response{Code: 200, Message: "SITE CHMOD command successful"}, nil
}

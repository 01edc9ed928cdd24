package web

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ai-help-me/ftpm/pkg/ftp"
	"github.com/ai-help-me/ftpm/pkg/session"
)

type connectRequest struct {
	Host       string `json:"host" binding:"required"`
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password"`
	Port       int    `json:"port"`
	Timeout    int    `json:"timeout"`
	UseSSL     bool   `json:"useSsl"`
	UsePassive bool   `json:"usePassive"`
	AutoSeek   *bool  `json:"autoSeek"`
}

func (r connectRequest) config() ftp.Config {
	autoSeek := r.AutoSeek == nil || *r.AutoSeek
	return ftp.Config{
		Host:          r.Host,
		Username:      r.Username,
		Password:      r.Password,
		Port:          r.Port,
		Timeout:       r.Timeout,
		UseEncryption: r.UseSSL,
		UsePassive:    r.UsePassive,
		AutoSeek:      autoSeek,
	}
}

type pathRequest struct {
	Path string `json:"path" binding:"required"`
}

type contentRequest struct {
	Path    string `json:"path" binding:"required"`
	Content string `json:"content"`
}

type removeRequest struct {
	Paths []string `json:"paths" binding:"required,min=1,dive,required"`
}

type renameRequest struct {
	Path    string `json:"path" binding:"required"`
	NewName string `json:"newName" binding:"required"`
}

type moveRequest struct {
	Path    string `json:"path" binding:"required"`
	NewPath string `json:"newPath" binding:"required"`
}

type permissionsRequest struct {
	Path        string `json:"path" binding:"required"`
	Permissions string `json:"permissions" binding:"required"`
}

func respond(c *gin.Context, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// connect opens a new adapter and stores it in the session, replacing
// any adapter already there.
func (s *Server) connect(c *gin.Context) {
	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err))
		return
	}

	sess := s.session(c)
	sess.Lock()
	defer sess.Unlock()

	if old, found := sess.Delete(AdapterKey); found {
		if a, isAdapter := old.(*ftp.Adapter); isAdapter {
			if err := a.Close(); err != nil {
				s.logger.Debug("closing replaced adapter", zap.Error(err))
			}
		}
	}

	a, err := ftp.Open(req.config(), s.dialer, ftp.WithLogger(s.logger.With(zap.String("session", sess.ID))))
	if err != nil {
		s.metrics.Connects.WithLabelValues(ftp.TransportFailed.String()).Inc()
		s.fail(c, err)
		return
	}
	sess.Set(AdapterKey, a)
	s.metrics.Connects.WithLabelValues(a.Transport().String()).Inc()

	respond(c, gin.H{
		"transport": a.Transport().String(),
		"host":      a.Host(),
		"username":  a.User(),
	})
}

// disconnect closes the adapter and ends the session.
func (s *Server) disconnect(c *gin.Context) {
	if id, err := c.Cookie(CookieName); err == nil && id != "" {
		if err := s.store.Destroy(id); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
			s.logger.Debug("closing session", zap.String("session", id), zap.Error(err))
		}
	}
	s.setCookie(c, "", -1)
	respond(c, nil)
}

func (s *Server) browse(c *gin.Context) {
	dir := c.DefaultQuery("path", "/")

	var entries []ftp.Entry
	err := s.withAdapter(c, "browse", func(a *ftp.Adapter) (err error) {
		entries, err = a.Browse(dir)
		return err
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, gin.H{"path": dir, "files": entries})
}

func (s *Server) tree(c *gin.Context) {
	var tree []ftp.Entry
	err := s.withAdapter(c, "tree", func(a *ftp.Adapter) (err error) {
		tree, err = a.DirectoryTree()
		return err
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, gin.H{"tree": tree})
}

func (s *Server) createFile(c *gin.Context) {
	var req pathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err))
		return
	}
	err := s.withAdapter(c, "create_file", func(a *ftp.Adapter) error {
		return a.CreateFile(req.Path)
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, nil)
}

func (s *Server) createDirectory(c *gin.Context) {
	var req pathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err))
		return
	}
	err := s.withAdapter(c, "create_directory", func(a *ftp.Adapter) error {
		return a.CreateDirectory(req.Path)
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, nil)
}

func (s *Server) readFile(c *gin.Context) {
	p := c.Query("path")
	if p == "" {
		s.fail(c, badRequest(errors.New("path is required")))
		return
	}

	var content []byte
	err := s.withAdapter(c, "read_file", func(a *ftp.Adapter) (err error) {
		content, err = a.ReadFile(p)
		return err
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, gin.H{
		"content":  string(content),
		"mimeType": mimetype.Detect(content).String(),
		"size":     len(content),
	})
}

func (s *Server) overwriteFile(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err))
		return
	}
	err := s.withAdapter(c, "overwrite_file", func(a *ftp.Adapter) error {
		return a.OverwriteFile(req.Path, []byte(req.Content))
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, nil)
}

func (s *Server) remove(c *gin.Context) {
	var req removeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err))
		return
	}
	err := s.withAdapter(c, "remove", func(a *ftp.Adapter) error {
		return a.Remove(req.Paths)
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, nil)
}

func (s *Server) rename(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err))
		return
	}
	err := s.withAdapter(c, "rename", func(a *ftp.Adapter) error {
		return a.Rename(req.Path, req.NewName)
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, nil)
}

func (s *Server) move(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err))
		return
	}
	err := s.withAdapter(c, "move", func(a *ftp.Adapter) error {
		return a.Move(req.Path, req.NewPath)
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, nil)
}

func (s *Server) setPermissions(c *gin.Context) {
	var req permissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, badRequest(err))
		return
	}
	err := s.withAdapter(c, "set_permissions", func(a *ftp.Adapter) error {
		return a.SetPermissions(req.Path, req.Permissions)
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, nil)
}

// download sends the file as an attachment with the headers the adapter
// prepared.
func (s *Server) download(c *gin.Context) {
	p := c.Query("path")
	if p == "" {
		s.fail(c, badRequest(errors.New("path is required")))
		return
	}

	var dl *ftp.Download
	err := s.withAdapter(c, "download", func(a *ftp.Adapter) (err error) {
		dl, err = a.Download(p)
		return err
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	for k, v := range dl.Headers {
		c.Header(k, v)
	}
	s.metrics.TransferBytes.WithLabelValues("download").Add(float64(len(dl.Content)))
	c.Data(http.StatusOK, dl.Headers["Content-Type"], dl.Content)
}

// upload spools the multipart file to the upload directory and sends it
// to path. A path ending in "/" (or empty) names the target directory.
func (s *Server) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes())

	file, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.fail(c, badRequest(errors.New("upload exceeds the size limit")))
			return
		}
		s.fail(c, badRequest(err))
		return
	}

	remote := c.PostForm("path")
	if remote == "" || remote[len(remote)-1] == '/' {
		name := path.Base(file.Filename)
		if name == "." || name == ".." || name == "/" {
			s.fail(c, badRequest(fmt.Errorf("invalid file name %q", file.Filename)))
			return
		}
		remote = path.Join("/", remote, name)
	}

	resume := false
	if v := c.PostForm("resume"); v != "" {
		resume, err = strconv.ParseBool(v)
		if err != nil {
			s.fail(c, badRequest(errors.New("resume must be a boolean")))
			return
		}
	}

	tmp, err := os.CreateTemp(s.cfg.UploadDir, "ftpm-upload-*")
	if err != nil {
		s.fail(c, err)
		return
	}
	local := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(local)

	if err := c.SaveUploadedFile(file, local); err != nil {
		s.fail(c, err)
		return
	}

	err = s.withAdapter(c, "upload", func(a *ftp.Adapter) error {
		return a.Upload(local, remote, resume)
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	s.metrics.TransferBytes.WithLabelValues("upload").Add(float64(file.Size))
	respond(c, gin.H{"path": remote, "size": file.Size})
}

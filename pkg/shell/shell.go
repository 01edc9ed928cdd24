// Package shell is an interactive, line-oriented FTP client on top of the
// session adapter.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/ai-help-me/ftpm/pkg/ftp"
)

// errExit ends the read loop.
var errExit = errors.New("exit")

// Remote is the adapter surface the shell drives.
type Remote interface {
	Browse(dir string) ([]ftp.Entry, error)
	DirectoryTree() ([]ftp.Entry, error)
	CreateFile(p string) error
	CreateDirectory(p string) error
	ReadFile(p string) ([]byte, error)
	RetrieveTo(p string, w io.Writer, progress func(int64)) error
	OverwriteFile(p string, content []byte) error
	Remove(paths []string) error
	Rename(p, newName string) error
	Move(p, newPath string) error
	SetPermissions(p, permissions string) error
	Size(p string) (int64, error)
	UploadContext(ctx context.Context, localPath, remotePath string, resume bool, progress func(int64)) error
	Reopen() error
	User() string
	Host() string
}

var _ Remote = (*ftp.Adapter)(nil)

// Shell implements the interactive FTP shell.
type Shell struct {
	remote Remote
	paths  *PathState
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	color  bool
}

// Option configures a Shell.
type Option func(*Shell)

// WithIO replaces the standard streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(s *Shell) {
		s.stdin = stdin
		s.stdout = stdout
		s.stderr = stderr
	}
}

// WithColor toggles ANSI colors in the prompt and help.
func WithColor(enabled bool) Option {
	return func(s *Shell) { s.color = enabled }
}

// New creates a shell over remote.
func New(remote Remote, paths *PathState, opts ...Option) *Shell {
	s := &Shell{
		remote: remote,
		paths:  paths,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		color:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run reads commands until exit, EOF or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintf(s.stdout, "FTP shell connected to %s. Type 'help' for commands.\n", s.remote.Host())
	fmt.Fprintf(s.stdout, "Press Ctrl+C to interrupt file transfers.\n")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)

	// One goroutine owns stdin for the whole session. lines is closed at
	// EOF; readErr is set before that.
	lines := make(chan string)
	stop := make(chan struct{})
	defer close(stop)
	var readErr error
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		readErr = scanner.Err()
	}()

	for {
		s.showPrompt()
		select {
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(s.stdout)
				if readErr != nil {
					return fmt.Errorf("read input: %w", readErr)
				}
				return nil
			}
			if err := s.handleLine(ctx, line, sigChan); err != nil {
				if errors.Is(err, errExit) {
					return nil
				}
				fmt.Fprintf(s.stderr, "Error: %v\n", err)
			}

		case <-sigChan:
			fmt.Fprintln(s.stdout)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Shell) handleLine(ctx context.Context, line string, sigChan <-chan os.Signal) error {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return nil
	}

	cmd := strings.ToLower(parts[0])
	if cmd == "exit" || cmd == "quit" || cmd == "bye" {
		return errExit
	}

	// The connection may have idled out between commands.
	if needsRemote(cmd) {
		if err := s.remote.Reopen(); err != nil {
			return err
		}
	}

	if cmd == "get" || cmd == "put" {
		return s.runTransfer(ctx, cmd, parts[1:], sigChan)
	}
	return s.Execute(cmd, parts[1:])
}

// runTransfer runs get or put while watching for Ctrl+C. The signal
// channel belongs to the transfer until it returns.
func (s *Shell) runTransfer(ctx context.Context, cmd string, args []string, sigChan <-chan os.Signal) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.executeTransfer(ctx, cmd, args)
	}()

	select {
	case err := <-done:
		if errors.Is(err, context.Canceled) {
			fmt.Fprintf(s.stderr, "Transfer cancelled.\n")
			return nil
		}
		return err
	case <-sigChan:
		fmt.Fprintf(s.stdout, "\n^C\n")
		cancel()
		<-done
		fmt.Fprintf(s.stderr, "Transfer cancelled.\n")
		return nil
	}
}

func (s *Shell) executeTransfer(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "get":
		return s.cmdGet(ctx, args)
	case "put":
		return s.cmdPut(ctx, args)
	default:
		return fmt.Errorf("not a transfer command: %s", cmd)
	}
}

func (s *Shell) showPrompt() {
	prompt := fmt.Sprintf("ftp %s@%s:%s>", s.remote.User(), s.remote.Host(), s.paths.RemoteCWD)
	if s.color {
		prompt = colorGreenBold + prompt + colorReset
	}
	fmt.Fprint(s.stdout, prompt+" ")
	if f, ok := s.stdout.(*os.File); ok {
		_ = f.Sync()
	}
}

func needsRemote(cmd string) bool {
	switch cmd {
	case "lcd", "lpwd", "lls", "pwd", "help", "?":
		return false
	}
	return true
}

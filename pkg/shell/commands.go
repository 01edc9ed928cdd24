package shell

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ai-help-me/ftpm/pkg/ftp"
)

// Table column widths
const (
	cmdWidth  = 10
	argsWidth = 22
	descWidth = 38
)

// Execute runs one non-transfer command.
func (s *Shell) Execute(cmd string, args []string) error {
	switch cmd {
	case "cd":
		return s.cmdCD(args)
	case "lcd":
		return s.cmdLCD(args)
	case "pwd":
		fmt.Fprintf(s.stdout, "Remote working directory: %s\n", s.paths.RemoteCWD)
		return nil
	case "lpwd":
		fmt.Fprintf(s.stdout, "Local working directory: %s\n", s.paths.LocalCWD)
		return nil
	case "ls":
		return s.cmdLS(args)
	case "lls":
		return s.cmdLLS(args)
	case "tree":
		return s.cmdTree()
	case "mkdir":
		return s.cmdMkdir(args)
	case "touch":
		return s.cmdTouch(args)
	case "cat":
		return s.cmdCat(args)
	case "write":
		return s.cmdWrite(args)
	case "rm":
		return s.cmdRM(args)
	case "rename":
		return s.cmdRename(args)
	case "mv":
		return s.cmdMove(args)
	case "chmod":
		return s.cmdChmod(args)
	case "exit", "quit", "bye":
		return errExit
	case "help", "?":
		s.cmdHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// cmdCD changes the remote directory once a listing of it succeeds.
func (s *Shell) cmdCD(args []string) error {
	path := "~"
	if len(args) > 0 {
		path = args[0]
	}

	resolved := s.paths.ResolveRemote(path)
	if _, err := s.remote.Browse(resolved); err != nil {
		return fmt.Errorf("cd %s: %w", resolved, err)
	}
	s.paths.RemoteCWD = resolved
	return nil
}

func (s *Shell) cmdLCD(args []string) error {
	path := "~"
	if len(args) > 0 {
		path = args[0]
	}

	resolved, err := s.paths.ResolveLocal(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	fi, err := os.Stat(resolved)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", resolved)
	}
	return s.paths.UpdateLocalCWD(resolved)
}

func (s *Shell) cmdLS(args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	entries, err := s.remote.Browse(s.paths.ResolveRemote(path))
	if err != nil {
		return err
	}

	for _, e := range entries {
		name := e.Name
		if e.IsDir() {
			name += "/"
		}
		fmt.Fprintf(s.stdout, "%s %8d %-12s %s\n", e.Permissions, e.Size, e.ModifiedTime, name)
	}
	return nil
}

func (s *Shell) cmdLLS(args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	resolved, err := s.paths.ResolveLocal(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		fmt.Fprintf(s.stdout, "%s %8d %s %s\n", info.Mode().String(), info.Size(), info.ModTime().Format("Jan 02 15:04"), name)
	}
	return nil
}

// cmdTree prints every remote directory, indented by depth.
func (s *Shell) cmdTree() error {
	tree, err := s.remote.DirectoryTree()
	if err != nil {
		return err
	}

	fmt.Fprintln(s.stdout, "/")
	for _, e := range tree {
		depth := strings.Count(strings.Trim(e.Path, "/"), "/")
		fmt.Fprintf(s.stdout, "%s%s/\n", strings.Repeat("  ", depth+1), e.Name)
	}
	fmt.Fprintf(s.stdout, "%d directories\n", len(tree))
	return nil
}

// The adapter URL-decodes paths for create operations.
func encodeCreatePath(p string) string {
	return url.QueryEscape(p)
}

func (s *Shell) cmdMkdir(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: mkdir <path>")
	}

	resolved := s.paths.ResolveRemote(args[0])
	if err := s.remote.CreateDirectory(encodeCreatePath(resolved)); err != nil {
		return err
	}
	fmt.Fprintf(s.stdout, "Created remote directory: %s\n", resolved)
	return nil
}

func (s *Shell) cmdTouch(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: touch <path>")
	}

	resolved := s.paths.ResolveRemote(args[0])
	if err := s.remote.CreateFile(encodeCreatePath(resolved)); err != nil {
		return err
	}
	fmt.Fprintf(s.stdout, "Created remote file: %s\n", resolved)
	return nil
}

// cmdCat prints text files; binary content is only described.
func (s *Shell) cmdCat(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: cat <path>")
	}

	resolved := s.paths.ResolveRemote(args[0])
	content, err := s.remote.ReadFile(resolved)
	if err != nil {
		return err
	}

	if len(content) == 0 {
		return nil
	}
	mtype := mimetype.Detect(content)
	if !isText(mtype) {
		fmt.Fprintf(s.stdout, "%s: %s, %s (not shown)\n", resolved, mtype.String(), formatBytes(int64(len(content))))
		return nil
	}

	fmt.Fprint(s.stdout, string(content))
	if len(content) > 0 && content[len(content)-1] != '\n' {
		fmt.Fprintln(s.stdout)
	}
	return nil
}

func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// cmdWrite replaces a remote file with a local file's content.
func (s *Shell) cmdWrite(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: write <remote> <local>")
	}

	remotePath := s.paths.ResolveRemote(args[0])
	localPath, err := s.paths.ResolveLocal(args[1])
	if err != nil {
		return fmt.Errorf("resolve local: %w", err)
	}

	content, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("read local: %w", err)
	}
	if err := s.remote.OverwriteFile(remotePath, content); err != nil {
		return err
	}
	fmt.Fprintf(s.stdout, "Wrote %s to %s\n", formatBytes(int64(len(content))), remotePath)
	return nil
}

// cmdRM removes files and directories, stopping at the first failure.
func (s *Shell) cmdRM(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: rm <path> [path...]")
	}

	paths := make([]string, len(args))
	for i, a := range args {
		paths[i] = s.paths.ResolveRemote(a)
	}
	if err := s.remote.Remove(paths); err != nil {
		return err
	}
	fmt.Fprintf(s.stdout, "Removed %d item(s)\n", len(paths))
	return nil
}

func (s *Shell) cmdRename(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: rename <path> <new-name>")
	}

	from := s.paths.ResolveRemote(args[0])
	to := args[1]
	if !strings.Contains(to, "/") {
		// A bare name stays in the same directory.
		to = ftp.JoinPath(ftp.CleanPath(from+"/.."), to)
	} else {
		to = s.paths.ResolveRemote(to)
	}

	if err := s.remote.Rename(from, to); err != nil {
		return err
	}
	fmt.Fprintf(s.stdout, "Renamed %s to %s\n", from, to)
	return nil
}

func (s *Shell) cmdMove(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: mv <path> <new-path>")
	}

	from := s.paths.ResolveRemote(args[0])
	to := s.paths.ResolveRemote(args[1])
	if _, err := s.remote.Browse(to); err == nil {
		// Moving into an existing directory keeps the name.
		to = ftp.JoinPath(to, ftp.BaseName(from))
	}

	if err := s.remote.Move(from, to); err != nil {
		return err
	}
	fmt.Fprintf(s.stdout, "Moved %s to %s\n", from, to)
	return nil
}

func (s *Shell) cmdChmod(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: chmod <mode> <path>")
	}

	resolved := s.paths.ResolveRemote(args[1])
	if err := s.remote.SetPermissions(resolved, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(s.stdout, "Changed mode of %s to %s\n", resolved, args[0])
	return nil
}

// cmdGet downloads a file, or a directory recursively.
func (s *Shell) cmdGet(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: get <remote> [local]")
	}

	remotePath := s.paths.ResolveRemote(args[0])
	target := ftp.BaseName(remotePath)
	if len(args) > 1 {
		target = args[1]
	}
	localPath, err := s.paths.ResolveLocal(target)
	if err != nil {
		return fmt.Errorf("resolve local: %w", err)
	}

	size, sizeErr := s.remote.Size(remotePath)
	if sizeErr != nil {
		if _, err := s.remote.Browse(remotePath); err == nil {
			return s.downloadDirectory(ctx, remotePath, localPath)
		}
		return sizeErr
	}

	if fi, err := os.Stat(localPath); err == nil && fi.IsDir() {
		localPath = filepath.Join(localPath, ftp.BaseName(remotePath))
	}
	if err := s.downloadFile(ctx, remotePath, localPath, size, "Downloading"); err != nil {
		return err
	}
	fmt.Fprintf(s.stdout, "Download complete: %s (%s)\n", remotePath, formatBytes(size))
	return nil
}

func (s *Shell) downloadFile(ctx context.Context, remotePath, localPath string, size int64, prefix string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dst, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create local: %w", err)
	}

	bar := &batchedProgress{bar: newProgressBar(s.stderr, size, fmt.Sprintf("%s %s", prefix, ftp.BaseName(remotePath)))}
	var total int64
	err = s.remote.RetrieveTo(remotePath, &contextWriter{ctx: ctx, w: dst}, func(n int64) {
		total = n
		bar.update(n)
	})
	bar.finish(total)
	fmt.Fprintln(s.stderr)

	if cerr := dst.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close local: %w", cerr)
	}
	if err != nil {
		_ = os.Remove(localPath)
		if ctx.Err() != nil {
			return context.Canceled
		}
		return err
	}
	return nil
}

type remoteFile struct {
	RelPath string
	Size    int64
}

// downloadDirectory copies a remote tree, continuing past failed files.
func (s *Shell) downloadDirectory(ctx context.Context, remotePath, localPath string) error {
	var files []remoteFile
	var dirs []string
	var totalSize int64
	if err := s.walkRemote(remotePath, "", &files, &dirs, &totalSize); err != nil {
		return fmt.Errorf("scan remote directory: %w", err)
	}

	if err := os.MkdirAll(localPath, 0755); err != nil {
		return fmt.Errorf("create local directory: %w", err)
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(localPath, filepath.FromSlash(d)), 0755); err != nil {
			return fmt.Errorf("create local directory: %w", err)
		}
	}

	fmt.Fprintf(s.stdout, "Downloading %s (%d files, %s total)\n", remotePath, len(files), formatBytes(totalSize))

	var failed []string
	var done int64
	for i, f := range files {
		prefix := fmt.Sprintf("[%d/%d]", i+1, len(files))
		err := s.downloadFile(ctx, ftp.JoinPath(remotePath, f.RelPath), filepath.Join(localPath, filepath.FromSlash(f.RelPath)), f.Size, prefix)
		if errors.Is(err, context.Canceled) {
			return err
		}
		if err != nil {
			fmt.Fprintf(s.stdout, "Warning: failed to download %s: %v\n", f.RelPath, err)
			failed = append(failed, f.RelPath)
			continue
		}
		done += f.Size
	}

	if len(failed) > 0 {
		fmt.Fprintf(s.stdout, "Download completed with %d failures:\n", len(failed))
		for _, f := range failed {
			fmt.Fprintf(s.stdout, "  - %s\n", f)
		}
	}
	fmt.Fprintf(s.stdout, "Download complete: %d/%d files, %s/%s downloaded\n",
		len(files)-len(failed), len(files), formatBytes(done), formatBytes(totalSize))
	return nil
}

func (s *Shell) walkRemote(base, rel string, files *[]remoteFile, dirs *[]string, total *int64) error {
	dir := base
	if rel != "" {
		dir = ftp.JoinPath(base, rel)
	}
	entries, err := s.remote.Browse(dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if !safeEntryName(e.Name) {
			return fmt.Errorf("refusing unsafe entry name %q in %s", e.Name, dir)
		}
		child := e.Name
		if rel != "" {
			child = rel + "/" + e.Name
		}
		if e.IsDir() {
			*dirs = append(*dirs, child)
			if err := s.walkRemote(base, child, files, dirs, total); err != nil {
				return err
			}
			continue
		}
		*files = append(*files, remoteFile{RelPath: child, Size: e.Size})
		*total += e.Size
	}
	return nil
}

// safeEntryName reports whether a listed name is a single path element
// that stays inside the directory it is joined to.
func safeEntryName(name string) bool {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\") {
		return false
	}
	return filepath.IsLocal(name)
}

// cmdPut uploads a file or directory. -c continues an interrupted upload.
func (s *Shell) cmdPut(ctx context.Context, args []string) error {
	resume := false
	var rest []string
	for _, a := range args {
		if a == "-c" {
			resume = true
			continue
		}
		rest = append(rest, a)
	}
	if len(rest) < 1 {
		return fmt.Errorf("usage: put [-c] <local> [remote]")
	}

	localPath, err := s.paths.ResolveLocal(rest[0])
	if err != nil {
		return fmt.Errorf("resolve local: %w", err)
	}
	fi, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("stat local: %w", err)
	}

	remotePath := ftp.JoinPath(s.paths.RemoteCWD, filepath.Base(localPath))
	if len(rest) > 1 {
		remotePath = s.paths.ResolveRemote(rest[1])
		if _, err := s.remote.Browse(remotePath); err == nil {
			remotePath = ftp.JoinPath(remotePath, filepath.Base(localPath))
		}
	}
	remotePath = ftp.CleanPath(remotePath)

	if fi.IsDir() {
		return s.uploadDirectory(ctx, localPath, remotePath, resume)
	}
	if err := s.uploadFile(ctx, localPath, remotePath, fi.Size(), resume, "Uploading"); err != nil {
		return err
	}
	fmt.Fprintf(s.stdout, "Upload complete: %s (%s)\n", remotePath, formatBytes(fi.Size()))
	return nil
}

func (s *Shell) uploadFile(ctx context.Context, localPath, remotePath string, size int64, resume bool, prefix string) error {
	bar := &batchedProgress{bar: newProgressBar(s.stderr, size, fmt.Sprintf("%s %s", prefix, filepath.Base(localPath)))}
	var total int64
	err := s.remote.UploadContext(ctx, localPath, remotePath, resume, func(n int64) {
		total = n
		bar.update(n)
	})
	bar.finish(total)
	fmt.Fprintln(s.stderr)

	if err != nil && ctx.Err() != nil {
		return context.Canceled
	}
	return err
}

// uploadDirectory mirrors a local tree, creating missing remote
// directories and continuing past failed files.
func (s *Shell) uploadDirectory(ctx context.Context, localPath, remotePath string, resume bool) error {
	type localFile struct {
		rel  string
		size int64
	}
	var files []localFile
	var dirs []string
	var totalSize int64

	err := filepath.WalkDir(localPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(localPath, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." {
				dirs = append(dirs, rel)
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, localFile{rel: rel, size: info.Size()})
		totalSize += info.Size()
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan local directory: %w", err)
	}

	for _, d := range append([]string{""}, dirs...) {
		dir := remotePath
		if d != "" {
			dir = ftp.JoinPath(remotePath, d)
		}
		if _, err := s.remote.Browse(dir); err == nil {
			continue
		}
		if err := s.remote.CreateDirectory(encodeCreatePath(dir)); err != nil {
			return fmt.Errorf("create remote directory %s: %w", dir, err)
		}
	}

	fmt.Fprintf(s.stdout, "Uploading %s (%d files, %s total)\n", localPath, len(files), formatBytes(totalSize))

	var failed []string
	for i, f := range files {
		prefix := fmt.Sprintf("[%d/%d]", i+1, len(files))
		err := s.uploadFile(ctx, filepath.Join(localPath, filepath.FromSlash(f.rel)), ftp.JoinPath(remotePath, f.rel), f.size, resume, prefix)
		if errors.Is(err, context.Canceled) {
			return err
		}
		if err != nil {
			fmt.Fprintf(s.stdout, "Warning: failed to upload %s: %v\n", f.rel, err)
			failed = append(failed, f.rel)
		}
	}

	if len(failed) > 0 {
		fmt.Fprintf(s.stdout, "Upload completed with %d failures:\n", len(failed))
		for _, f := range failed {
			fmt.Fprintf(s.stdout, "  - %s\n", f)
		}
	}
	fmt.Fprintf(s.stdout, "Upload complete: %d/%d files\n", len(files)-len(failed), len(files))
	return nil
}

// ANSI color codes
const (
	colorGreenBold = "\033[1;32m"
	colorGreen     = "\033[32m"
	colorGray      = "\033[90m"
	colorReset     = "\033[0m"
)

func (s *Shell) cmdHelp() {
	commands := []struct {
		cmd  string
		args string
		desc string
	}{
		{"ls", "[path]", "List remote directory"},
		{"tree", "", "Show all remote directories"},
		{"cd", "[path]", "Change remote directory"},
		{"pwd", "", "Print remote working directory"},
		{"lls", "[path]", "List local directory"},
		{"lcd", "<path>", "Change local directory"},
		{"lpwd", "", "Print local working directory"},
		{"mkdir", "<path>", "Create remote directory"},
		{"touch", "<path>", "Create empty remote file"},
		{"cat", "<path>", "Print remote text file"},
		{"write", "<remote> <local>", "Replace remote file content"},
		{"rm", "<path>...", "Remove files or directories"},
		{"rename", "<path> <name>", "Rename remote entry"},
		{"mv", "<path> <dest>", "Move remote entry"},
		{"chmod", "<mode> <path>", "Change remote permissions"},
		{"get", "<remote> [local]", "Download file or directory"},
		{"put", "[-c] <local> [remote]", "Upload; -c resumes"},
		{"exit", "", "Exit shell (also quit, bye)"},
	}

	s.printTableLine("┌", "┬", "┐")
	s.printTableRow("COMMAND", "ARGUMENTS", "DESCRIPTION", colorGray, colorGray, colorGray)
	s.printTableLine("├", "┼", "┤")
	for _, c := range commands {
		s.printTableRow(c.cmd, c.args, c.desc, colorGreen, colorReset, colorReset)
	}
	s.printTableLine("└", "┴", "┘")
}

func (s *Shell) printTableLine(left, mid, right string) {
	fmt.Fprintf(s.stdout, "  %s%s%s%s%s%s%s\n",
		left,
		strings.Repeat("─", cmdWidth+2),
		mid,
		strings.Repeat("─", argsWidth+2),
		mid,
		strings.Repeat("─", descWidth+2),
		right)
}

func (s *Shell) printTableRow(col1, col2, col3, c1Color, c2Color, c3Color string) {
	if !s.color {
		c1Color, c2Color, c3Color = "", "", ""
	}
	reset := colorReset
	if !s.color {
		reset = ""
	}
	fmt.Fprintf(s.stdout, "  │ %s%-*s%s │ %s%-*s%s │ %s%-*s%s │\n",
		c1Color, cmdWidth, col1, reset,
		c2Color, argsWidth, col2, reset,
		c3Color, descWidth, col3, reset)
}

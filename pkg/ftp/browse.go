package ftp

import (
	"strconv"
	"strings"
	"time"

	"github.com/gonzalop/ftp"
)

// Entry kinds reported in listings.
const (
	TypeDir  = "dir"
	TypeFile = "file"
	TypeLink = "link"
)

// Entry is one listed remote file or directory.
type Entry struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modifiedTime"`
	Permissions  string `json:"permissions"`
	Path         string `json:"path"`
	Owner        string `json:"owner"`
	Group        string `json:"group"`
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool {
	return e.Type == TypeDir
}

// Browse lists one directory. Directories come first, then everything
// else, each group in the order the server returned it.
func (a *Adapter) Browse(dir string) ([]Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	conn, err := a.active("browse")
	if err != nil {
		return nil, err
	}

	dir = trimSlashes(dir)
	listing, err := conn.List(dir)
	if err != nil {
		return nil, adapterError("browse", err)
	}

	var dirs, files []Entry
	for _, raw := range listing {
		if raw.Name == "." || raw.Name == ".." {
			continue
		}
		e := newEntry(dir, raw)
		if e.IsDir() {
			dirs = append(dirs, e)
		} else {
			files = append(files, e)
		}
	}

	entries := make([]Entry, 0, len(dirs)+len(files))
	entries = append(entries, dirs...)
	return append(entries, files...), nil
}

// DirectoryTree lists every directory under / recursively. Hierarchy is
// carried by each entry's Path.
func (a *Adapter) DirectoryTree() ([]Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	conn, err := a.active("tree")
	if err != nil {
		return nil, err
	}

	tree := []Entry{}
	if err := walkDirs(conn, "/", &tree); err != nil {
		return nil, adapterError("tree", err)
	}
	return tree, nil
}

// walkDirs appends the directories below dir, depth first.
func walkDirs(conn Conn, dir string, out *[]Entry) error {
	listing, err := conn.List(dir)
	if err != nil {
		return err
	}

	for _, raw := range listing {
		if raw.Name == "." || raw.Name == ".." || raw.Type != TypeDir {
			continue
		}
		e := newEntry(dir, raw)
		*out = append(*out, e)
		if err := walkDirs(conn, e.Path, out); err != nil {
			return err
		}
	}
	return nil
}

// newEntry converts a library entry, pulling the fields the library does
// not expose from the raw LIST line.
func newEntry(dir string, raw *ftp.Entry) Entry {
	e := Entry{
		Name: raw.Name,
		Type: raw.Type,
		Size: raw.Size,
		Path: entryPath(dir, raw.Name),
	}
	if e.Type != TypeDir && e.Type != TypeLink {
		e.Type = TypeFile
	}

	var day, month, clock string
	fields := strings.Fields(raw.Raw)
	switch {
	case len(fields) >= 9 && isMonth(fields[5]):
		// perms links owner group size month day time name
		e.Permissions, e.Owner, e.Group = fields[0], fields[2], fields[3]
		month, day, clock = fields[5], fields[6], fields[7]
	case len(fields) >= 8 && isMonth(fields[4]):
		// perms links owner size month day time name
		e.Permissions, e.Owner = fields[0], fields[2]
		month, day, clock = fields[4], fields[5], fields[6]
	case len(fields) >= 4 && isDOSDate(fields[0]):
		// MM-DD-YY HH:MMAM size|<DIR> name
		month, day = dosMonthDay(fields[0])
		clock = fields[1]
	}

	if day != "" || month != "" || clock != "" {
		e.ModifiedTime = day + " " + month + " " + clock
	}
	return e
}

func isMonth(s string) bool {
	if len(s) != 3 {
		return false
	}
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(m.String()[:3], s) {
			return true
		}
	}
	return false
}

func isDOSDate(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			return false
		}
	}
	return true
}

func dosMonthDay(s string) (month, day string) {
	parts := strings.Split(s, "-")
	m, _ := strconv.Atoi(parts[0])
	if m >= 1 && m <= 12 {
		month = time.Month(m).String()[:3]
	} else {
		month = parts[0]
	}
	return month, parts[1]
}

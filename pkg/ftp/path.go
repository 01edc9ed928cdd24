package ftp

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// trimSlashes removes leading and trailing slashes.
func trimSlashes(p string) string {
	return strings.Trim(p, "/")
}

// decodePath URL-decodes a request path and strips its leading slashes.
func decodePath(p string) (string, error) {
	decoded, err := url.QueryUnescape(p)
	if err != nil {
		return "", fmt.Errorf("decode path %q: %w", p, err)
	}
	return strings.TrimLeft(decoded, "/"), nil
}

// BaseName returns the last element of a remote path.
func BaseName(p string) string {
	p = strings.TrimRight(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// CleanPath cleans a remote path using / as separator. The result is
// always absolute.
func CleanPath(p string) string {
	parts := strings.Split(p, "/")
	var cleaned []string

	for _, part := range parts {
		if part == "" || part == "." {
			continue
		}
		if part == ".." {
			if len(cleaned) > 0 {
				cleaned = cleaned[:len(cleaned)-1]
			}
		} else {
			cleaned = append(cleaned, part)
		}
	}

	return "/" + strings.Join(cleaned, "/")
}

// JoinPath joins two remote path parts using / as separator.
func JoinPath(base, rel string) string {
	if strings.HasSuffix(base, "/") {
		return base + rel
	}
	return base + "/" + rel
}

// entryPath builds the absolute path reported for a listed entry.
func entryPath(dir, name string) string {
	return "/" + strings.TrimLeft(JoinPath(trimSlashes(dir), name), "/")
}

// tempName returns a sibling name used while overwriting p.
func tempName(p string) string {
	dir, file := path.Split(p)
	return dir + "." + file + ".ftpm-part"
}

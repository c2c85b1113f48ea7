// Package workspace confines file reads to one configured root directory.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/homepanel/api/internal/apperr"
)

// Entry describes one directory entry returned by List.
type Entry struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	IsDir   bool      `json:"isDir"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// Guard accepts paths that resolve inside root.
type Guard struct {
	root            string
	resolvedRoot    string
	resolveSymlinks bool
}

// NewGuard creates a guard for root, which must be an absolute path. When
// resolveSymlinks is set, symbolic links are followed before the containment
// check so a link inside root that points outside it is rejected.
func NewGuard(root string, resolveSymlinks bool) (*Guard, error) {
	if root == "" {
		return nil, fmt.Errorf("workspace root is required")
	}
	if !filepath.IsAbs(root) {
		return nil, fmt.Errorf("workspace root must be absolute: %s", root)
	}

	g := &Guard{
		root:            filepath.Clean(root),
		resolveSymlinks: resolveSymlinks,
	}
	g.resolvedRoot = g.root
	if resolveSymlinks {
		if resolved, err := filepath.EvalSymlinks(g.root); err == nil {
			g.resolvedRoot = resolved
		}
	}
	return g, nil
}

// Root returns the cleaned workspace root.
func (g *Guard) Root() string {
	return g.root
}

// Resolve normalises path and returns it if it is the root or lies under it.
// Relative paths are taken relative to the root.
func (g *Guard) Resolve(path string) (string, error) {
	const op = "workspace.Resolve"

	if path == "" {
		return "", apperr.New(apperr.KindInvalidArgument, op, "path is required")
	}

	candidate := path
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(g.root, candidate)
	}
	candidate = filepath.Clean(candidate)

	if !within(g.root, candidate) {
		return "", apperr.New(apperr.KindForbidden, op, "path is outside the workspace")
	}

	if !g.resolveSymlinks {
		return candidate, nil
	}

	resolved, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Nothing to follow yet; the read reports the missing file.
			return candidate, nil
		}
		return "", apperr.Wrap(apperr.KindIO, op, "failed to resolve path", err)
	}
	if !within(g.resolvedRoot, resolved) {
		return "", apperr.New(apperr.KindForbidden, op, "path is outside the workspace")
	}
	return resolved, nil
}

// ReadFile returns the full contents of the file at path.
func (g *Guard) ReadFile(path string) (string, error) {
	resolved, err := g.Resolve(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", apperr.Wrap(apperr.KindIO, "workspace.ReadFile", "failed to read file", err)
	}
	return string(data), nil
}

// List returns the entries of the directory at path sorted by name.
func (g *Guard) List(path string) ([]Entry, error) {
	const op = "workspace.List"

	resolved, err := g.Resolve(path)
	if err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(resolved)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindIO, op, "failed to list directory", err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		entries = append(entries, Entry{
			Name:    de.Name(),
			Path:    filepath.Join(resolved, de.Name()),
			IsDir:   de.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// within reports whether path equals root or starts with root followed by a
// separator. Both arguments must already be cleaned.
func within(root, path string) bool {
	if path == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

// Package versionfs implements the append-only versioned file discipline of
// the audit directory.
//
// A family of files shares a (prefix, suffix) pair; the bytes between them
// form an opaque version label. The operative file is the one with the
// lexicographically greatest label, the empty label sorting below all
// others. Files are never modified in place: writers add new names and
// refuse to clobber existing ones, so every earlier stage's view of the
// directory stays reconstructible.
package versionfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoVersion is wrapped by Operative when no file of the family exists.
var ErrNoVersion = errors.New("no version present")

// Version is one member of a versioned family.
type Version struct {
	Label string
	Path  string
}

// List returns every member of the family in ascending label order.
func List(dir, prefix, suffix string) ([]Version, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []Version
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if len(name) < len(prefix)+len(suffix) {
			continue
		}
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		label := name[len(prefix) : len(name)-len(suffix)]
		out = append(out, Version{Label: label, Path: filepath.Join(dir, name)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

// Operative returns the member with the greatest label.
func Operative(dir, prefix, suffix string) (Version, error) {
	versions, err := List(dir, prefix, suffix)
	if err != nil {
		return Version{}, err
	}
	if len(versions) == 0 {
		return Version{}, fmt.Errorf("%s%s in %s: %w", prefix, suffix, dir, ErrNoVersion)
	}
	return versions[len(versions)-1], nil
}

// WriteNew atomically creates path with the given content. The write goes to
// a temporary name in the same directory and is renamed into place only when
// complete, so readers never observe a partial file. An existing path is an
// error: versioned families grow, they are not rewritten.
func WriteNew(path string, data []byte) error {
	if _, err := os.Lstat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing %s", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := fmt.Sprintf("%s.tmp-%d", path, os.Getpid())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

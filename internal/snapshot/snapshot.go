// Package snapshot binds an audit stage to the exact input files it read.
//
// Each operative input is hashed whole with SHA-256 and recorded as a
// (relative path, hex digest) pair. Two distinct inputs with identical
// content almost always mean a copied or misattributed upload, so Take
// rejects them. Verify rechecks a recorded snapshot against the current
// tree, which is how later inspection can tell whether any input changed
// after the stage ran.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"

	"ballotproof/internal/auditerr"
	"ballotproof/internal/csvio"
)

// File is one hashed input.
type File struct {
	// Path is slash-separated and relative to the election directory.
	Path string
	// Hash is the lowercase hex SHA-256 of the whole file.
	Hash string
}

// Take hashes every listed path and returns the files sorted by relative
// path. Duplicate paths are hashed once; duplicate content across distinct
// paths is a FileIntegrity error.
func Take(root string, paths []string, retry csvio.Retry) ([]File, error) {
	seen := make(map[string]bool, len(paths))
	byHash := make(map[string]string, len(paths))
	files := make([]File, 0, len(paths))
	for _, path := range paths {
		rel, err := relPath(root, path)
		if err != nil {
			return nil, err
		}
		if seen[rel] {
			continue
		}
		seen[rel] = true
		hash, err := hashFile(path, retry)
		if err != nil {
			return nil, err
		}
		if prev, dup := byHash[hash]; dup {
			return nil, auditerr.New(auditerr.FileIntegrity,
				"inputs %s and %s have identical content", prev, rel)
		}
		byHash[hash] = rel
		files = append(files, File{Path: rel, Hash: hash})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Verify recomputes each file's hash against the tree under root and
// reports the first deviation.
func Verify(root string, files []File) error {
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f.Path))
		hash, err := hashFile(path, csvio.Retry{})
		if errors.Is(err, fs.ErrNotExist) {
			return auditerr.New(auditerr.FileIntegrity,
				"snapshotted input %s no longer exists", f.Path)
		}
		if err != nil {
			return err
		}
		if hash != f.Hash {
			return auditerr.New(auditerr.FileIntegrity,
				"content of %s changed after the snapshot was taken", f.Path)
		}
	}
	return nil
}

func relPath(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func hashFile(path string, retry csvio.Retry) (string, error) {
	data, err := csvio.ReadFile(path, retry)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

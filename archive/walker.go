// Package archive locates documents inside zip archives given as conversion
// source.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned when nothing in the archive matched.
	ErrNotFound = errors.New("no matching file in archive")
	// ErrAmbiguous is returned when more than one file matched.
	ErrAmbiguous = errors.New("more than one matching file in archive")
	// ErrTooLarge is returned when matched file exceeds requested limit.
	ErrTooLarge = errors.New("file in archive is too large")
)

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The archive argument contains path to archive passed to Walk
// The file argument is the zip.File structure for file in archive which satisfies
// match condition. If an error is returned, processing stops.
type WalkFunc func(archive string, file *zip.File) error

// AcceptFunc reports whether file in archive should be visited.
type AcceptFunc func(file *zip.File) bool

// Walk walks all regular files in the archive under pathIn prefix which are
// accepted, calling walkFn for each item. Entries with path traversal
// components ("..") or absolute paths fail the walk.
func Walk(archive, pathIn string, accept AcceptFunc, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	prefix := strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(pathIn, `\`, "/")), "/")

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !underPrefix(name, prefix) {
			continue
		}
		if accept != nil && !accept(f) {
			continue
		}
		if err := walkFn(archive, f); err != nil {
			return err
		}
	}
	return nil
}

// ReadSingle returns name and content of the only accepted file under pathIn.
// When limit is positive larger files are rejected.
func ReadSingle(archive, pathIn string, accept AcceptFunc, limit int64) (string, []byte, error) {
	var (
		found string
		data  []byte
	)
	err := Walk(archive, pathIn, accept, func(_ string, f *zip.File) error {
		if len(found) > 0 {
			return fmt.Errorf("%w: %s and %s", ErrAmbiguous, found, f.Name)
		}
		found = f.Name
		if limit > 0 && f.UncompressedSize64 > uint64(limit) {
			return fmt.Errorf("%w: %s (%d bytes, limit %d)", ErrTooLarge, f.Name, f.UncompressedSize64, limit)
		}

		r, err := f.Open()
		if err != nil {
			return err
		}
		defer r.Close()

		// do not trust header sizes
		src := io.Reader(r)
		if limit > 0 {
			src = io.LimitReader(r, limit+1)
		}
		if data, err = io.ReadAll(src); err != nil {
			return fmt.Errorf("unable to read %s: %w", f.Name, err)
		}
		if limit > 0 && int64(len(data)) > limit {
			return fmt.Errorf("%w: %s (limit %d)", ErrTooLarge, f.Name, limit)
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	if len(found) == 0 {
		return "", nil, fmt.Errorf("%w: %s", ErrNotFound, pathIn)
	}
	return found, data, nil
}

func underPrefix(name, prefix string) bool {
	if len(prefix) == 0 || name == prefix {
		return true
	}
	return strings.HasPrefix(name, prefix+"/")
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}

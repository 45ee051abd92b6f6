package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"

	fixzip "github.com/hidez8891/zip"
)

// Entry is a single archive member. Stored entries are not compressed.
type Entry struct {
	Name   string
	Data   []byte
	Stored bool
}

// ArchiveWriter turns ordered entries into archive bytes preserving order.
type ArchiveWriter interface {
	Write(entries []Entry) ([]byte, error)
}

// ZipWriter is default ArchiveWriter.
type ZipWriter struct {
	// FixZip rewrites archive without data descriptors, some readers cannot
	// handle them.
	FixZip bool
	// Modified is set on compressed entries, zero means now. Stored entries
	// (mimetype) get no timestamp so their local header has no extra field.
	Modified time.Time
}

func (zw *ZipWriter) Write(entries []Entry) ([]byte, error) {
	stamp := zw.Modified
	if stamp.IsZero() {
		stamp = time.Now()
	}

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.Name, Method: zip.Deflate, Modified: stamp}
		if e.Stored {
			hdr.Method, hdr.Modified = zip.Store, time.Time{}
		}
		f, err := w.CreateHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("unable to add %s: %w", e.Name, err)
		}
		if _, err := f.Write(e.Data); err != nil {
			return nil, fmt.Errorf("unable to write %s: %w", e.Name, err)
		}
	}
	// make sure buffers are flushed before continuing
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("unable to close archive: %w", err)
	}

	if !zw.FixZip {
		return buf.Bytes(), nil
	}
	return copyZipWithoutDataDescriptors(buf.Bytes())
}

func copyZipWithoutDataDescriptors(data []byte) ([]byte, error) {
	r, err := fixzip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("unable to read archive: %w", err)
	}

	out := new(bytes.Buffer)
	w := fixzip.NewWriter(out)
	for _, file := range r.File {
		// unset data descriptor flag.
		file.Flags &= ^fixzip.FlagDataDescriptor

		// copy zip entry
		if err := w.CopyFile(file); err != nil {
			return nil, fmt.Errorf("unable to copy %s: %w", file.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("unable to close archive: %w", err)
	}
	return out.Bytes(), nil
}

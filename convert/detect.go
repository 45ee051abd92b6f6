package convert

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"pdf2epub/common"
)

// filetype needs only this many bytes to detect any supported format.
const sniffLen = 262

func readHead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return head[:n], nil
}

// isArchiveFile checks both extension and content.
func isArchiveFile(path string) (bool, error) {
	head, err := readHead(path)
	if err != nil {
		return false, err
	}
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	return filetype.Is(head, "zip"), nil
}

func hasPDFExt(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// isPDFInArchive selects archive entries to consider.
func isPDFInArchive(f *zip.File) bool {
	return hasPDFExt(f.Name)
}

// validatePDF rejects anything which is not a PDF before conversion starts.
func validatePDF(name string, data []byte, limit int64) error {
	if !hasPDFExt(name) {
		return fmt.Errorf("%w: %s does not have .pdf extension", common.ErrInvalidInput, name)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: %s is empty", common.ErrInvalidInput, name)
	}
	if limit > 0 && int64(len(data)) > limit {
		return fmt.Errorf("%w: %s is too large (%d bytes, limit %d)", common.ErrInvalidInput, name, len(data), limit)
	}
	if !filetype.Is(data, "pdf") {
		return fmt.Errorf("%w: %s content is not PDF", common.ErrInvalidInput, name)
	}
	return nil
}

package convert

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pdf2epub/common"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	zf, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer zf.Close()

	w := zip.NewWriter(zf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to create file in zip: %v", err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestIsArchiveFile(t *testing.T) {
	tmpDir := t.TempDir()

	writeZip(t, filepath.Join(tmpDir, "real.zip"), map[string]string{"book.pdf": "%PDF-1.4"})
	writeZip(t, filepath.Join(tmpDir, "real.bin"), map[string]string{"book.pdf": "%PDF-1.4"})
	if err := os.WriteFile(filepath.Join(tmpDir, "fake.zip"), []byte("not a real zip file"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "empty.zip"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		want bool
	}{
		{"real.zip", true},
		{"real.bin", false},
		{"fake.zip", false},
		{"empty.zip", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := isArchiveFile(filepath.Join(tmpDir, tt.name))
			if err != nil {
				t.Fatalf("isArchiveFile() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("isArchiveFile() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := isArchiveFile(filepath.Join(tmpDir, "absent.zip")); err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

func TestValidatePDF(t *testing.T) {
	pdf := []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")

	tests := []struct {
		name    string
		file    string
		data    []byte
		limit   int64
		wantErr bool
	}{
		{name: "valid", file: "book.pdf", data: pdf},
		{name: "upper case extension", file: "BOOK.PDF", data: pdf},
		{name: "wrong extension", file: "book.txt", data: pdf, wantErr: true},
		{name: "no extension", file: "book", data: pdf, wantErr: true},
		{name: "not pdf content", file: "book.pdf", data: []byte("PK\x03\x04 zip actually"), wantErr: true},
		{name: "empty", file: "book.pdf", data: nil, wantErr: true},
		{name: "too large", file: "book.pdf", data: pdf, limit: 10, wantErr: true},
		{name: "within limit", file: "book.pdf", data: pdf, limit: int64(len(pdf))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePDF(tt.file, tt.data, tt.limit)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validatePDF() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, common.ErrInvalidInput) {
				t.Errorf("validatePDF() error = %v, want %v", err, common.ErrInvalidInput)
			}
		})
	}
}

func TestIsPDFInArchive(t *testing.T) {
	for name, want := range map[string]bool{
		"a.pdf":        true,
		"dir/B.Pdf":    true,
		"a.pdf.txt":    false,
		"readme":       false,
		"dir.pdf/file": false,
	} {
		got := isPDFInArchive(&zip.File{FileHeader: zip.FileHeader{Name: name}})
		if got != want {
			t.Errorf("isPDFInArchive(%q) = %v, want %v", name, got, want)
		}
	}
	if !hasPDFExt(strings.ToUpper("x.pdf")) {
		t.Error("hasPDFExt must ignore case")
	}
}

package extract

import (
	"bytes"
	"errors"

	"github.com/ledongthuc/pdf"
)

type pdfDocument struct {
	r *pdf.Reader
}

// OpenPDF is default Opener backed by github.com/ledongthuc/pdf.
func OpenPDF(data []byte) (Document, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return &pdfDocument{r: r}, nil
}

func (d *pdfDocument) NumPage() int {
	return d.r.NumPage()
}

func (d *pdfDocument) PageText(n int) (string, error) {
	page := d.r.Page(n)
	if page.V.IsNull() {
		return "", errors.New("page object is missing")
	}
	return page.GetPlainText(nil)
}

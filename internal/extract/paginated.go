package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PagedDocument is a decoded paginated document. Pages are addressed 0-based
// in print order.
type PagedDocument interface {
	NumPages() int
	PageText(i int) (string, error)
}

// DocumentTextDecoder opens a paginated-document byte stream.
type DocumentTextDecoder interface {
	Decode(data []byte) (PagedDocument, error)
}

// PaginatedExtractor turns the print-rendered document into page-ordered text.
type PaginatedExtractor struct {
	// Decoder defaults to PDFDecoder when nil.
	Decoder DocumentTextDecoder
}

// Extract decodes every page and joins the page texts with a single space.
// Any page that fails to decode fails the whole candidate; there are no
// partial results and no retries.
func (e PaginatedExtractor) Extract(data []byte) (*Candidate, error) {
	dec := e.Decoder
	if dec == nil {
		dec = PDFDecoder{}
	}
	doc, err := dec.Decode(data)
	if err != nil {
		return nil, &Failure{Source: SourcePaginated, Err: fmt.Errorf("%w: %v", ErrDecode, err)}
	}
	n := doc.NumPages()
	texts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		t, err := doc.PageText(i)
		if err != nil {
			return nil, &Failure{Source: SourcePaginated, Err: fmt.Errorf("%w: page %d: %v", ErrDecode, i+1, err)}
		}
		texts = append(texts, t)
	}
	return NewCandidate(SourcePaginated, strings.Join(texts, " ")), nil
}

// PDFDecoder decodes PDF bytes with github.com/ledongthuc/pdf.
type PDFDecoder struct{}

func (PDFDecoder) Decode(data []byte) (doc PagedDocument, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("open pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return pdfDocument{r: r}, nil
}

type pdfDocument struct {
	r *pdf.Reader
}

func (d pdfDocument) NumPages() int { return d.r.NumPage() }

func (d pdfDocument) PageText(i int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%v", r)
		}
	}()
	p := d.r.Page(i + 1)
	if p.V.IsNull() {
		return "", fmt.Errorf("missing page object")
	}
	return p.GetPlainText(nil)
}

package render

import (
	"bytes"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/pagetext/internal/extract"
)

// Paper settings mirror the browser print: 11x17 in, 0.1 in margins, half scale.
const (
	paperWidthIn  = 11.0
	paperHeightIn = 17.0
	marginIn      = 0.1
	printScale    = 0.5
	baseFontPt    = 12.0
)

// printText lays out visible page text as a PDF. At most maxPages pages are
// produced; text that does not fit is dropped, as with a page range. A
// non-positive maxPages means no limit.
func printText(p extract.Page, maxPages int) ([]byte, error) {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "in",
		Size:           gofpdf.SizeType{Wd: paperWidthIn, Ht: paperHeightIn},
	})
	pdf.SetMargins(marginIn, marginIn, marginIn)
	pdf.SetAutoPageBreak(false, marginIn)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	fontPt := baseFontPt * printScale
	lineH := fontPt / 72 * 1.35
	width := paperWidthIn - 2*marginIn
	bottom := paperHeightIn - marginIn

	pdf.AddPage()
	full := false
	// Each printed line keeps a trailing space so words at line breaks stay
	// separated once the text is decoded again.
	writeLine := func(s string) {
		if full {
			return
		}
		if pdf.GetY()+lineH > bottom {
			if maxPages > 0 && pdf.PageNo() >= maxPages {
				full = true
				return
			}
			pdf.AddPage()
		}
		pdf.CellFormat(0, lineH, s, "", 1, "L", false, 0, "")
	}
	writeBlock := func(s string) {
		for _, l := range pdf.SplitLines([]byte(tr(s)), width) {
			writeLine(string(l) + " ")
		}
	}

	if p.Title != "" {
		pdf.SetFont("Helvetica", "B", fontPt*1.4)
		writeBlock(p.Title)
		pdf.Ln(lineH / 2)
	}
	pdf.SetFont("Helvetica", "", fontPt)
	for _, line := range strings.Split(p.Text, "\n") {
		if strings.TrimSpace(line) == "" {
			pdf.Ln(lineH / 2)
			continue
		}
		writeBlock(line)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

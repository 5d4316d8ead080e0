package selecter

import "github.com/hyperifyio/pagetext/internal/extract"

// Richness thresholds. Both are strict: a page is text rich only above them.
const (
	PaginatedRichWords   = 999
	ReadabilityRichWords = 500
)

// Result is the chosen text and where it came from. Source is
// extract.SourceNone only when both candidates were absent.
type Result struct {
	Text   string
	Source extract.Source
}

// Select picks between the paginated and readability candidates. A nil
// candidate is absent (its extraction failed), which is not the same as a
// present candidate with no words.
//
// The paginated text is the baseline. Readability overrides it only when both
// candidates are present and both are text rich. Readability is used on its
// own only when the paginated candidate is absent.
func Select(paginated, readability *extract.Candidate) Result {
	p, r := 0, 0
	if paginated != nil {
		p = paginated.WordCount
	}
	if readability != nil {
		r = readability.WordCount
	}

	switch {
	case paginated != nil && readability != nil && p > PaginatedRichWords && r > ReadabilityRichWords:
		return Result{Text: readability.Text, Source: extract.SourceReadability}
	case paginated != nil:
		return Result{Text: paginated.Text, Source: extract.SourcePaginated}
	case readability != nil:
		return Result{Text: readability.Text, Source: extract.SourceReadability}
	default:
		return Result{Source: extract.SourceNone}
	}
}

package extract

import (
	"errors"
	"strings"
)

// Source identifies which extraction strategy produced a text candidate.
type Source int

const (
	// SourceNone marks a selection where neither strategy produced a candidate.
	SourceNone Source = iota
	// SourcePaginated is text decoded from the print-rendered paginated document.
	SourcePaginated
	// SourceReadability is text from readability main-content extraction over the markup.
	SourceReadability
)

func (s Source) String() string {
	switch s {
	case SourcePaginated:
		return "paginated"
	case SourceReadability:
		return "readability"
	default:
		return "none"
	}
}

var (
	// ErrDecode reports that the paginated document or one of its pages could not be decoded.
	ErrDecode = errors.New("decode failure")
	// ErrParse reports that the markup could not be parsed or held no extractable content.
	ErrParse = errors.New("parse failure")
)

// Candidate is one strategy's extracted text. A nil *Candidate means the
// strategy failed; a non-nil Candidate with empty Text was extracted successfully
// but holds no words. Callers must not conflate the two.
type Candidate struct {
	Source    Source
	Text      string
	WordCount int
}

// NewCandidate builds a Candidate and counts its words once.
func NewCandidate(src Source, text string) *Candidate {
	return &Candidate{Source: src, Text: text, WordCount: WordCount(text)}
}

// WordCount returns the number of whitespace-delimited tokens in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Failure is an extraction failure local to one strategy.
type Failure struct {
	Source Source
	Err    error
}

func (f *Failure) Error() string {
	return f.Source.String() + " extraction: " + f.Err.Error()
}

func (f *Failure) Unwrap() error { return f.Err }

package extract

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/mitchellh/go-wordwrap"
)

// DefaultWrapWidth is the column width plain text is wrapped at.
const DefaultWrapWidth = 80

// MarkupReadabilityExtractor isolates the main content of a page. It returns
// the content as an HTML fragment whose relative references resolve against base.
type MarkupReadabilityExtractor interface {
	MainContent(markup string, base *url.URL) (string, error)
}

// ShioriReadability runs github.com/go-shiori/go-readability.
type ShioriReadability struct{}

func (ShioriReadability) MainContent(markup string, base *url.URL) (string, error) {
	article, err := readability.FromReader(strings.NewReader(markup), base)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(article.TextContent) == "" {
		return "", errors.New("no readable content")
	}
	return article.Content, nil
}

// ReadabilityExtractor produces the readability candidate from raw markup.
type ReadabilityExtractor struct {
	// Engine defaults to ShioriReadability when nil.
	Engine MarkupReadabilityExtractor
	// Width defaults to DefaultWrapWidth.
	Width int
}

// Extract anchors readability at the scheme and host of pageURL, then renders
// the main content as plain text wrapped at the configured width.
func (e ReadabilityExtractor) Extract(pageURL, markup string) (*Candidate, error) {
	fail := func(format string, args ...any) (*Candidate, error) {
		return nil, &Failure{Source: SourceReadability, Err: fmt.Errorf("%w: "+format, append([]any{ErrParse}, args...)...)}
	}
	baseURL, err := BaseURL(pageURL)
	if err != nil {
		return fail("%v", err)
	}
	if strings.TrimSpace(markup) == "" {
		return fail("empty markup")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return fail("parse markup: %v", err)
	}
	if strings.TrimSpace(doc.Find("body").Text()) == "" {
		return fail("markup has no body text")
	}

	engine := e.Engine
	if engine == nil {
		engine = ShioriReadability{}
	}
	content, err := engine.MainContent(markup, baseURL)
	if err != nil {
		return fail("readability: %v", err)
	}
	text := PlainText(content, e.Width)
	if strings.TrimSpace(text) == "" {
		return fail("no extractable content")
	}
	return NewCandidate(SourceReadability, text), nil
}

// BaseURL keeps only the scheme and host of raw.
func BaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url: %q has no scheme or host", raw)
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host}, nil
}

// PlainText renders an HTML fragment as plain text wrapped at width columns.
// Block elements become line breaks; no markup syntax or link targets are
// emitted, so the word count is that of the visible words. Width <= 0 means
// DefaultWrapWidth.
func PlainText(fragment string, width int) string {
	if width <= 0 {
		width = DefaultWrapWidth
	}
	return wordwrap.WrapString(fragmentText(fragment), uint(width))
}

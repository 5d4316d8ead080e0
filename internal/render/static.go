package render

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperifyio/pagetext/internal/extract"
	"github.com/hyperifyio/pagetext/internal/fetch"
)

// StaticProvider renders without a browser: the markup is the fetched
// document and the paginated form is a print of its visible text. Pages that
// build their content with scripts come out thin, which the selector's
// richness checks tolerate.
type StaticProvider struct {
	Client *fetch.Client
	// MaxPages bounds the print like a page range. Zero means 2.
	MaxPages int
}

func (p *StaticProvider) Render(ctx context.Context, url string, timeout time.Duration) (*RenderedPage, error) {
	if p.Client == nil {
		return nil, fmt.Errorf("static renderer: fetch client not configured")
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	doc, err := p.Client.GetHTML(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	maxPages := p.MaxPages
	if maxPages == 0 {
		maxPages = 2
	}
	printed, err := printText(extract.VisibleText(doc.Markup), maxPages)
	if err != nil {
		return nil, fmt.Errorf("print %s: %w", url, err)
	}
	return NewRenderedPage(doc.FinalURL, printed, doc.Markup, nil), nil
}

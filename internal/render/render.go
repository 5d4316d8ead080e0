// Package render turns a URL into a RenderedPage: a paginated print of the
// loaded page and a snapshot of its markup, both taken from the same load.
package render

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRender reports that no RenderedPage could be produced for a URL.
var ErrRender = errors.New("render failure")

// Provider renders one URL. Implementations must derive both forms of the
// returned page from the same loaded state.
type Provider interface {
	Render(ctx context.Context, url string, timeout time.Duration) (*RenderedPage, error)
}

// RenderedPage is owned by one pipeline run. Release must be called once the
// run is done with it; it is safe to call more than once.
type RenderedPage struct {
	// URL is the address the page ended up at after redirects.
	URL            string
	PaginatedBytes []byte
	RawMarkup      string

	release func()
	once    sync.Once
}

// NewRenderedPage wraps already materialized forms. release may be nil.
func NewRenderedPage(url string, paginated []byte, markup string, release func()) *RenderedPage {
	return &RenderedPage{URL: url, PaginatedBytes: paginated, RawMarkup: markup, release: release}
}

// Release frees whatever the provider holds for this page.
func (p *RenderedPage) Release() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		if p.release != nil {
			p.release()
		}
	})
}

package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// ChromeOptions configures the headless browser.
type ChromeOptions struct {
	// ExecPath overrides browser discovery.
	ExecPath string
	// PerRequest launches a fresh browser for every render instead of
	// opening a tab in a shared one.
	PerRequest bool
	// MaxTabs bounds concurrent renders. Zero means 4.
	MaxTabs int
	// Window size defaults to a portrait tablet, 820x1180, which nudges
	// responsive sites toward their single-column layout.
	WindowWidth  int
	WindowHeight int
	// ContentWait bounds the wait for the body to become visible after
	// navigation. Rendering proceeds when it elapses. Zero means 5s.
	ContentWait time.Duration
	UserAgent   string
}

func (o ChromeOptions) withDefaults() ChromeOptions {
	if o.MaxTabs <= 0 {
		o.MaxTabs = 4
	}
	if o.WindowWidth <= 0 || o.WindowHeight <= 0 {
		o.WindowWidth, o.WindowHeight = 820, 1180
	}
	if o.ContentWait <= 0 {
		o.ContentWait = 5 * time.Second
	}
	return o
}

// ChromeProvider renders pages in headless Chrome through the DevTools protocol.
type ChromeProvider struct {
	opts      ChromeOptions
	allocOpts []chromedp.ExecAllocatorOption

	mu            sync.Mutex
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc

	tabs chan struct{}
}

// NewChromeProvider prepares the provider. In shared mode the browser is
// launched here so a missing binary surfaces at startup.
func NewChromeProvider(ctx context.Context, opts ChromeOptions) (*ChromeProvider, error) {
	opts = opts.withDefaults()
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	p := &ChromeProvider{opts: opts, allocOpts: allocOpts, tabs: make(chan struct{}, opts.MaxTabs)}
	if opts.PerRequest {
		return p, nil
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedpLogging()...)
	startCtx, cancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(startCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	p.browserCtx, p.cancelBrowser, p.cancelAlloc = browserCtx, cancelBrowser, cancelAlloc
	log.Info().Int("maxTabs", opts.MaxTabs).Msg("headless browser started")
	return p, nil
}

func chromedpLogging() []chromedp.ContextOption {
	return []chromedp.ContextOption{
		chromedp.WithLogf(func(format string, args ...any) { log.Debug().Msgf(format, args...) }),
		chromedp.WithErrorf(func(format string, args ...any) { log.Debug().Msgf(format, args...) }),
	}
}

// Close shuts the shared browser down.
func (p *ChromeProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancelBrowser != nil {
		p.cancelBrowser()
		p.cancelAlloc()
		p.cancelBrowser, p.cancelAlloc, p.browserCtx = nil, nil, nil
	}
}

func (p *ChromeProvider) newTab() (context.Context, context.CancelFunc, error) {
	if p.opts.PerRequest {
		allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), p.allocOpts...)
		tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedpLogging()...)
		return tabCtx, func() { cancelTab(); cancelAlloc() }, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.browserCtx == nil {
		return nil, nil, errors.New("browser closed")
	}
	tabCtx, cancel := chromedp.NewContext(p.browserCtx)
	return tabCtx, cancel, nil
}

// Render loads url in its own tab, waits for the body to show, then takes the
// markup snapshot and the print from that same load. The tab stays open
// until the returned page is released.
func (p *ChromeProvider) Render(ctx context.Context, url string, timeout time.Duration) (*RenderedPage, error) {
	select {
	case p.tabs <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	tabCtx, closeTab, err := p.newTab()
	if err != nil {
		<-p.tabs
		return nil, err
	}
	stop := context.AfterFunc(ctx, closeTab)
	release := func() {
		stop()
		closeTab()
		<-p.tabs
	}

	// Allocate the tab on its own context first: a timeout context on the
	// first Run would close the tab when it is cancelled.
	if err := chromedp.Run(tabCtx); err != nil {
		release()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("open tab: %w", err)
	}
	runCtx := tabCtx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(tabCtx, timeout)
		defer cancel()
	}

	var markup, finalURL string
	var printed []byte
	err = chromedp.Run(runCtx,
		chromedp.EmulateViewport(int64(p.opts.WindowWidth), int64(p.opts.WindowHeight)),
		chromedp.Navigate(url),
		p.waitForContent(),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := printParams().Do(ctx)
			printed = buf
			return err
		}),
	)
	if err != nil {
		release()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("render %s: %w", url, err)
	}
	return NewRenderedPage(finalURL, printed, markup, release), nil
}

func (p *ChromeProvider) waitForContent() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		wctx, cancel := context.WithTimeout(ctx, p.opts.ContentWait)
		defer cancel()
		err := chromedp.Run(wctx, chromedp.WaitVisible("body", chromedp.ByQuery))
		if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			log.Debug().Dur("wait", p.opts.ContentWait).Msg("content wait elapsed; continuing")
			return nil
		}
		return err
	})
}

// printParams are the print settings: portrait, no header or footer, no
// backgrounds, half scale on 11x17 in paper with 0.1 in margins, first two
// pages only.
func printParams() *page.PrintToPDFParams {
	return page.PrintToPDF().
		WithLandscape(false).
		WithDisplayHeaderFooter(false).
		WithPrintBackground(false).
		WithScale(printScale).
		WithPaperWidth(paperWidthIn).
		WithPaperHeight(paperHeightIn).
		WithMarginTop(marginIn).
		WithMarginBottom(marginIn).
		WithMarginLeft(marginIn).
		WithMarginRight(marginIn).
		WithPageRanges("1-2").
		WithPreferCSSPageSize(false)
}

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/pagetext/internal/extract"
	"github.com/hyperifyio/pagetext/internal/fetch"
	"github.com/hyperifyio/pagetext/internal/pipeline"
	"github.com/hyperifyio/pagetext/internal/render"
	"github.com/hyperifyio/pagetext/internal/server"
	"github.com/hyperifyio/pagetext/internal/summarize"
)

// App owns the renderer, the pipeline and the optional summarizer built from
// a Config.
type App struct {
	cfg      Config
	provider render.Provider
	closeFn  func()
	pipeline *pipeline.Pipeline

	// summarizer is built on the first Extract that needs it; serving never does.
	summarizer *summarize.Summarizer
	sumOnce    sync.Once
}

// Output is the result of one CLI extraction.
type Output struct {
	URL     string
	Text    string
	Source  string
	Summary string
}

func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	httpClient := newHTTPClient(cfg.RenderTimeout)

	var (
		provider render.Provider
		closeFn  = func() {}
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Renderer)) {
	case RendererStatic:
		provider = &render.StaticProvider{Client: &fetch.Client{
			HTTPClient:        httpClient,
			UserAgent:         cfg.UserAgent,
			MaxAttempts:       2,
			PerRequestTimeout: cfg.RenderTimeout,
			MaxConcurrent:     cfg.BrowserMaxTabs,
		}}
	default:
		cp, err := render.NewChromeProvider(ctx, render.ChromeOptions{
			ExecPath:     cfg.BrowserPath,
			PerRequest:   cfg.BrowserPerRequest,
			MaxTabs:      cfg.BrowserMaxTabs,
			WindowWidth:  cfg.WindowWidth,
			WindowHeight: cfg.WindowHeight,
			ContentWait:  cfg.ContentWait,
			UserAgent:    cfg.UserAgent,
		})
		if err != nil {
			return nil, fmt.Errorf("start browser: %w", err)
		}
		provider, closeFn = cp, cp.Close
	}

	a := newWithProvider(cfg, provider)
	a.closeFn = closeFn
	log.Debug().Str("renderer", cfg.Renderer).Bool("summarize", cfg.Summarize).Msg("app ready")
	return a, nil
}

func newWithProvider(cfg Config, provider render.Provider) *App {
	return &App{
		cfg:      cfg,
		provider: provider,
		closeFn:  func() {},
		pipeline: &pipeline.Pipeline{
			Provider:      provider,
			Readability:   extract.ReadabilityExtractor{Width: cfg.WrapWidth},
			RenderTimeout: cfg.RenderTimeout,
			StrictEmpty:   cfg.StrictEmpty,
		},
	}
}

// Close releases the browser, if any.
func (a *App) Close() {
	if a != nil && a.closeFn != nil {
		a.closeFn()
	}
}

// Handler returns the HTTP front end for this App.
func (a *App) Handler() http.Handler {
	s := &server.Server{Pipeline: a.pipeline, Lenient: a.cfg.Lenient}
	return s.Handler()
}

// Serve listens on the configured address until ctx is canceled.
func (a *App) Serve(ctx context.Context) error {
	return server.ListenAndServe(ctx, a.cfg.Listen, a.Handler(), 10*time.Second)
}

// Extract runs the pipeline once for rawURL. A summary failure is logged and
// leaves Summary empty; the extracted text is still returned.
func (a *App) Extract(ctx context.Context, rawURL string) (Output, error) {
	req, err := pipeline.NewRequest(rawURL)
	if err != nil {
		return Output{}, err
	}
	res, err := a.pipeline.Run(ctx, req)
	if err != nil {
		return Output{}, err
	}
	out := Output{URL: req.URL(), Text: res.Text, Source: res.Source.String()}
	if s := a.summarizerForExtract(); s != nil && strings.TrimSpace(res.Text) != "" {
		sum, err := s.Summarize(ctx, out.URL, res.Text)
		switch {
		case err == nil:
			out.Summary = sum
		case errors.Is(err, context.Canceled):
			return Output{}, err
		default:
			log.Warn().Err(err).Str("url", out.URL).Msg("summary failed")
		}
	}
	return out, nil
}

func (a *App) summarizerForExtract() *summarize.Summarizer {
	a.sumOnce.Do(func() {
		if a.summarizer == nil && a.cfg.Summarize {
			a.summarizer = &summarize.Summarizer{
				Client: summarize.NewOpenAIClient(a.cfg.LLMAPIKey, a.cfg.LLMBaseURL, newHTTPClient(2*time.Minute)),
				Model:  a.cfg.LLMModel,
			}
		}
	})
	return a.summarizer
}

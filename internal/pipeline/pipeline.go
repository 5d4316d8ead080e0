// Package pipeline renders one URL, extracts two text candidates from the
// rendered page and selects the text to return.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/pagetext/internal/extract"
	"github.com/hyperifyio/pagetext/internal/render"
	sel "github.com/hyperifyio/pagetext/internal/select"
)

var (
	// ErrInvalidURL is returned before rendering when the input is not an
	// absolute URL with a scheme and host.
	ErrInvalidURL = errors.New("invalid url")
	// ErrNoCandidates is returned by Run when both extractions failed and
	// the pipeline is configured with StrictEmpty.
	ErrNoCandidates = errors.New("no text candidates")
)

// DefaultRenderTimeout bounds a render when Pipeline.RenderTimeout is zero.
const DefaultRenderTimeout = 30 * time.Second

// Request is a validated extraction request. Build it with NewRequest.
type Request struct {
	url *url.URL
}

// NewRequest validates raw and returns a Request, or an error wrapping
// ErrInvalidURL.
func NewRequest(raw string) (Request, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Request{}, fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return Request{}, fmt.Errorf("%w: %q is not an absolute url", ErrInvalidURL, raw)
	}
	return Request{url: u}, nil
}

// URL returns the request URL as a string.
func (r Request) URL() string {
	if r.url == nil {
		return ""
	}
	return r.url.String()
}

// Stage names a step of a pipeline run.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageRendering  Stage = "rendering"
	StageExtracting Stage = "extracting"
	StageSelecting  Stage = "selecting"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// Pipeline wires a renderer to the two extractors and the selector. A
// Pipeline holds no per-request state and may serve concurrent runs.
type Pipeline struct {
	Provider    render.Provider
	Paginated   extract.PaginatedExtractor
	Readability extract.ReadabilityExtractor
	// RenderTimeout bounds the render step. Zero means DefaultRenderTimeout.
	RenderTimeout time.Duration
	// Sequential runs the extractors one after the other instead of concurrently.
	Sequential bool
	// StrictEmpty makes Run return ErrNoCandidates when both extractions
	// fail. By default that case is an empty-text success.
	StrictEmpty bool
	// OnStage, when set, observes stage transitions.
	OnStage func(Stage)
}

func (p *Pipeline) enter(l zerolog.Logger, s Stage) {
	l.Debug().Str("stage", string(s)).Msg("pipeline stage")
	if p.OnStage != nil {
		p.OnStage(s)
	}
}

// Run renders the request URL once, extracts both candidates and selects
// the result. Only a render failure, cancellation or, with StrictEmpty, the
// loss of both candidates is returned as an error; extractor failures only
// make their candidate absent.
func (p *Pipeline) Run(ctx context.Context, req Request) (sel.Result, error) {
	if req.url == nil {
		return sel.Result{}, fmt.Errorf("%w: empty request", ErrInvalidURL)
	}
	target := req.URL()
	l := log.With().Str("url", target).Logger()
	p.enter(l, StageIdle)

	timeout := p.RenderTimeout
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}
	p.enter(l, StageRendering)
	page, err := p.Provider.Render(ctx, target, timeout)
	if err != nil {
		p.enter(l, StageFailed)
		if ctx.Err() != nil {
			return sel.Result{}, fmt.Errorf("render canceled: %w", ctx.Err())
		}
		return sel.Result{}, fmt.Errorf("%w: %w", render.ErrRender, err)
	}
	defer page.Release()

	p.enter(l, StageExtracting)
	paginated, readability, err := p.extractBoth(ctx, target, page)
	if err != nil {
		p.enter(l, StageFailed)
		return sel.Result{}, fmt.Errorf("extraction canceled: %w", err)
	}

	p.enter(l, StageSelecting)
	res := sel.Select(paginated, readability)
	if res.Source == extract.SourceNone && p.StrictEmpty {
		p.enter(l, StageFailed)
		return sel.Result{}, ErrNoCandidates
	}
	l.Info().
		Str("source", res.Source.String()).
		Int("paginatedWords", wordsOf(paginated)).
		Int("readabilityWords", wordsOf(readability)).
		Msg("text selected")
	p.enter(l, StageDone)
	return res, nil
}

// extractBoth runs the two extractors against their own form of the page.
// Each failure is logged and leaves its candidate nil; the error return is
// only for cancellation.
func (p *Pipeline) extractBoth(ctx context.Context, target string, page *render.RenderedPage) (*extract.Candidate, *extract.Candidate, error) {
	var paginated, readability *extract.Candidate
	runPaginated := func() error {
		c, err := p.Paginated.Extract(page.PaginatedBytes)
		if err != nil {
			log.Warn().Err(err).Str("url", target).Str("source", extract.SourcePaginated.String()).Msg("extraction failed; candidate absent")
		}
		paginated = c
		return ctx.Err()
	}
	runReadability := func() error {
		c, err := p.Readability.Extract(target, page.RawMarkup)
		if err != nil {
			log.Warn().Err(err).Str("url", target).Str("source", extract.SourceReadability.String()).Msg("extraction failed; candidate absent")
		}
		readability = c
		return ctx.Err()
	}

	if p.Sequential {
		if err := runPaginated(); err != nil {
			return nil, nil, err
		}
		if err := runReadability(); err != nil {
			return nil, nil, err
		}
		return paginated, readability, nil
	}
	var g errgroup.Group
	g.Go(runPaginated)
	g.Go(runReadability)
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return paginated, readability, nil
}

func wordsOf(c *extract.Candidate) int {
	if c == nil {
		return -1
	}
	return c.WordCount
}

// ExtractText validates rawURL and returns the selected text, for callers
// that do not need the source of the selection.
func (p *Pipeline) ExtractText(ctx context.Context, rawURL string) (string, error) {
	req, err := NewRequest(rawURL)
	if err != nil {
		return "", err
	}
	res, err := p.Run(ctx, req)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

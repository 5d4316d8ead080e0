package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/pagetext/internal/extract"
	"github.com/hyperifyio/pagetext/internal/pipeline"
	"github.com/hyperifyio/pagetext/internal/render"
	sel "github.com/hyperifyio/pagetext/internal/select"
)

type fakeRunner struct {
	res   sel.Result
	err   error
	calls int
	got   string
}

func (f *fakeRunner) Run(_ context.Context, req pipeline.Request) (sel.Result, error) {
	f.calls++
	f.got = req.URL()
	return f.res, f.err
}

func get(t *testing.T, h http.Handler, rawQuery string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var body Response
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestExtract_Success(t *testing.T) {
	r := &fakeRunner{res: sel.Result{Text: "hello world", Source: extract.SourceReadability}}
	s := &Server{Pipeline: r}
	rec, body := get(t, s.Handler(), "url="+url.QueryEscape("https://example.com/article"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, Response{Text: "hello world", Source: "readability"}, body)
	assert.Equal(t, "https://example.com/article", r.got)
}

func TestExtract_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		err     error
		status  int
		msg     string
		reaches bool
	}{
		{name: "missing url", query: "", status: http.StatusBadRequest, msg: msgIllFormed},
		{name: "invalid url", query: "url=not+a+url", status: http.StatusBadRequest, msg: msgBadURL},
		{name: "render failure", query: "url=https://example.com", err: fmt.Errorf("%w: timeout", render.ErrRender), status: http.StatusBadGateway, msg: msgExtractError, reaches: true},
		{name: "no candidates", query: "url=https://example.com", err: pipeline.ErrNoCandidates, status: http.StatusUnprocessableEntity, msg: msgExtractError, reaches: true},
		{name: "other", query: "url=https://example.com", err: errors.New("boom"), status: http.StatusInternalServerError, msg: msgExtractError, reaches: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{err: tt.err}
			strict := &Server{Pipeline: r}
			rec, body := get(t, strict.Handler(), tt.query)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.msg, body.Error)
			assert.Empty(t, body.Text)
			assert.Equal(t, tt.reaches, r.calls > 0)

			lenient := &Server{Pipeline: &fakeRunner{err: tt.err}, Lenient: true}
			rec, body = get(t, lenient.Handler(), tt.query)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.msg, body.Text)
			assert.Empty(t, body.Error)
		})
	}
}

func TestExtract_EmptySelectionIsSuccess(t *testing.T) {
	s := &Server{Pipeline: &fakeRunner{res: sel.Result{Source: extract.SourceNone}}}
	rec, body := get(t, s.Handler(), "url=https://example.com")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", body.Text)
	assert.Equal(t, "none", body.Source)
}

func TestHandler_RoutesAndMethods(t *testing.T) {
	s := &Server{Pipeline: &fakeRunner{}}
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/?url=https://example.com", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ListenAndServe(ctx, "127.0.0.1:0", http.NotFoundHandler(), time.Second) }()
	cancel()
	assert.NoError(t, <-done)
}

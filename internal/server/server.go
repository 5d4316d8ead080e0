// Package server exposes the extraction pipeline over HTTP as
// GET /?url=<page>, answering with JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/pagetext/internal/pipeline"
	"github.com/hyperifyio/pagetext/internal/render"
	sel "github.com/hyperifyio/pagetext/internal/select"
)

// Runner is the part of the pipeline the server needs.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (sel.Result, error)
}

// Response is the JSON body of every answer. In lenient mode failures are
// reported in Text, as the service always did; otherwise they go to Error.
type Response struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
	Error  string `json:"error,omitempty"`
}

const (
	msgIllFormed    = "probably ill-formed request"
	msgBadURL       = "parse target url failure"
	msgExtractError = "failed to get text from webpage"
)

// Server maps pipeline outcomes to HTTP responses.
type Server struct {
	Pipeline Runner
	// Lenient answers every outcome with 200 and puts failure messages in
	// the text field.
	Lenient bool
}

// Handler returns the routes: "/" for extraction and "/healthz".
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/", s.extract)
	return logRequests(mux)
}

func (s *Server) extract(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	raw := r.URL.Query().Get("url")
	if strings.TrimSpace(raw) == "" {
		s.fail(w, http.StatusBadRequest, msgIllFormed)
		return
	}
	req, err := pipeline.NewRequest(raw)
	if err != nil {
		s.fail(w, http.StatusBadRequest, msgBadURL)
		return
	}
	res, err := s.Pipeline.Run(r.Context(), req)
	if err != nil {
		if r.Context().Err() != nil {
			// Client went away; nobody is left to answer.
			return
		}
		log.Warn().Err(err).Str("url", req.URL()).Msg("extraction failed")
		s.fail(w, statusFor(err), msgExtractError)
		return
	}
	writeJSON(w, http.StatusOK, Response{Text: res.Text, Source: res.Source.String()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, render.ErrRender):
		return http.StatusBadGateway
	case errors.Is(err, pipeline.ErrNoCandidates):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string) {
	if s.Lenient {
		writeJSON(w, http.StatusOK, Response{Text: msg})
		return
	}
	writeJSON(w, status, Response{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Debug().Err(err).Msg("write response")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

// ListenAndServe serves h on addr until ctx is canceled, then shuts down
// gracefully within shutdownTimeout.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, shutdownTimeout time.Duration) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

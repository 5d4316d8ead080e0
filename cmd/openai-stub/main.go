// Command openai-stub serves a deterministic OpenAI-compatible endpoint so
// `pagetext extract --summarize` can be tried without a model server.
package main

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/pagetext/internal/summarize"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	model := os.Getenv("MODEL_ID")
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	srv := &http.Server{Addr: addr, Handler: summarize.StubHandler(model), ReadHeaderTimeout: 5 * time.Second}
	log.Info().Str("addr", addr).Str("model", model).Msg("openai-stub listening")
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("openai-stub stopped")
	}
}

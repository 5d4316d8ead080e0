package app

import "time"

// Renderer names accepted by Config.Renderer.
const (
	RendererChrome = "chrome"
	RendererStatic = "static"
)

// Config holds runtime configuration for the application.
type Config struct {
	Listen   string
	Renderer string

	// Browser
	BrowserPath       string
	BrowserPerRequest bool
	BrowserMaxTabs    int
	WindowWidth       int
	WindowHeight      int

	// Rendering
	RenderTimeout time.Duration
	ContentWait   time.Duration
	UserAgent     string

	// Extraction and serving
	WrapWidth   int
	Lenient     bool
	StrictEmpty bool
	Verbose     bool

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string
	Summarize  bool
}

// DefaultConfig returns the values used when neither a file, the
// environment nor flags set a key.
func DefaultConfig() Config {
	return Config{
		Listen:         ":3000",
		Renderer:       RendererChrome,
		BrowserMaxTabs: 4,
		WindowWidth:    820,
		WindowHeight:   1180,
		RenderTimeout:  30 * time.Second,
		ContentWait:    5 * time.Second,
		UserAgent:      "pagetext/1.0 (+https://github.com/hyperifyio/pagetext)",
		WrapWidth:      80,
	}
}

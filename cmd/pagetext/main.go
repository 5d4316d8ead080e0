package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/pagetext/internal/app"
	"github.com/hyperifyio/pagetext/internal/pipeline"
	"github.com/hyperifyio/pagetext/internal/render"
)

// Exit codes for `extract`.
const (
	exitInvalidURL = 2
	exitRender     = 3
	exitOther      = 1
)

type rootFlags struct {
	configPath string
	envFiles   []string
	verbose    bool

	renderer    string
	listen      string
	browserPath string
	perRequest  bool
	maxTabs     int
	timeout     time.Duration
	contentWait time.Duration
	userAgent   string
	wrapWidth   int
	lenient     bool
	strictEmpty bool

	llmBase   string
	llmModel  string
	llmKey    string
	summarize bool
}

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("pagetext failed")
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidURL):
		return exitInvalidURL
	case errors.Is(err, render.ErrRender):
		return exitRender
	default:
		return exitOther
	}
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(&rootFlags{})
}

func buildRootCmd(f *rootFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "pagetext",
		Short: "Extract the readable text of a web page",
		Long: `pagetext renders a web page once, extracts its text two ways (from a
printed copy of the page and with a readability pass over the markup) and
returns whichever is more trustworthy for that page.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", os.Getenv("PAGETEXT_CONFIG"), "Path to YAML or JSON config file")
	pf.StringSliceVar(&f.envFiles, "env-file", []string{".env"}, "Dotenv files to load before reading the environment")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "Verbose logging")

	def := app.DefaultConfig()
	pf.StringVar(&f.renderer, "renderer", def.Renderer, "Renderer: chrome or static")
	pf.StringVar(&f.browserPath, "browser.path", "", "Chrome executable (default: discover)")
	pf.BoolVar(&f.perRequest, "browser.perRequest", false, "Start a fresh browser for every request")
	pf.IntVar(&f.maxTabs, "browser.maxTabs", def.BrowserMaxTabs, "Maximum concurrent renders")
	pf.DurationVar(&f.timeout, "render.timeout", def.RenderTimeout, "Timeout for rendering one page")
	pf.DurationVar(&f.contentWait, "render.contentWait", def.ContentWait, "How long to wait for page content after navigation")
	pf.StringVar(&f.userAgent, "user-agent", def.UserAgent, "User-Agent for page requests")
	pf.IntVar(&f.wrapWidth, "wrap", def.WrapWidth, "Column width of readability text")
	pf.BoolVar(&f.strictEmpty, "strict-empty", false, "Treat a page with no text candidates as an error")
	pf.StringVar(&f.llmBase, "llm.base", "", "OpenAI-compatible base URL")
	pf.StringVar(&f.llmModel, "llm.model", "", "Model name for summaries")
	pf.StringVar(&f.llmKey, "llm.key", "", "API key for OpenAI-compatible server")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve GET /?url=<page> as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}
			defer a.Close()
			return a.Serve(cmd.Context())
		},
	}
	serve.Flags().StringVar(&f.listen, "listen", def.Listen, "Listen address")
	serve.Flags().BoolVar(&f.lenient, "lenient", false, "Answer every request with HTTP 200 and put errors in the text field")

	extractCmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Print the text of one page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			// Fail fast on a bad URL before starting a browser.
			if _, err := pipeline.NewRequest(args[0]); err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}
			defer a.Close()
			out, err := a.Extract(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), out)
		},
	}
	extractCmd.Flags().BoolVar(&f.summarize, "summarize", false, "Append an LLM summary of the text")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), app.VersionString())
		},
	}

	root.AddCommand(serve, extractCmd, version)
	return root
}

// loadConfig layers defaults, config file, environment and explicitly set
// flags, in that order.
func loadConfig(cmd *cobra.Command, f *rootFlags) (app.Config, error) {
	if err := app.LoadEnvFiles(f.envFiles...); err != nil {
		return app.Config{}, fmt.Errorf("load env files: %w", err)
	}
	cfg := app.DefaultConfig()
	if f.configPath != "" {
		fc, err := app.LoadConfigFile(f.configPath)
		if err != nil {
			return app.Config{}, fmt.Errorf("load config %s: %w", f.configPath, err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	flags := cmd.Flags()
	changed := flags.Changed
	if changed("renderer") {
		cfg.Renderer = f.renderer
	}
	if changed("listen") {
		cfg.Listen = f.listen
	}
	if changed("browser.path") {
		cfg.BrowserPath = f.browserPath
	}
	if changed("browser.perRequest") {
		cfg.BrowserPerRequest = f.perRequest
	}
	if changed("browser.maxTabs") {
		cfg.BrowserMaxTabs = f.maxTabs
	}
	if changed("render.timeout") {
		cfg.RenderTimeout = f.timeout
	}
	if changed("render.contentWait") {
		cfg.ContentWait = f.contentWait
	}
	if changed("user-agent") {
		cfg.UserAgent = f.userAgent
	}
	if changed("wrap") {
		cfg.WrapWidth = f.wrapWidth
	}
	if changed("lenient") {
		cfg.Lenient = f.lenient
	}
	if changed("strict-empty") {
		cfg.StrictEmpty = f.strictEmpty
	}
	if changed("llm.base") {
		cfg.LLMBaseURL = f.llmBase
	}
	if changed("llm.model") {
		cfg.LLMModel = f.llmModel
	}
	if changed("llm.key") {
		cfg.LLMAPIKey = f.llmKey
	}
	if changed("summarize") {
		cfg.Summarize = f.summarize
	}
	if changed("verbose") {
		cfg.Verbose = f.verbose
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	return cfg, app.ValidateConfig(cfg)
}

func printOutput(w io.Writer, out app.Output) error {
	if _, err := fmt.Fprintln(w, out.Text); err != nil {
		return err
	}
	if out.Summary != "" {
		if _, err := fmt.Fprintf(w, "\n---\nSummary:\n%s\n", out.Summary); err != nil {
			return err
		}
	}
	return nil
}

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/pagetext/internal/app"
	"github.com/hyperifyio/pagetext/internal/pipeline"
	"github.com/hyperifyio/pagetext/internal/render"
	"github.com/hyperifyio/pagetext/internal/summarize"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion_PrintsBuildInfo(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, app.BuildVersion) {
		t.Fatalf("output %q missing version", out)
	}
}

func TestExtract_InvalidURLExitCode(t *testing.T) {
	_, err := execute(t, "extract", "not a url")
	if !errors.Is(err, pipeline.ErrInvalidURL) {
		t.Fatalf("err=%v, want ErrInvalidURL", err)
	}
	if got := exitCode(err); got != exitInvalidURL {
		t.Fatalf("exit code %d, want %d", got, exitInvalidURL)
	}
}

func TestExitCode_Mapping(t *testing.T) {
	if got := exitCode(fmt.Errorf("%w: boom", render.ErrRender)); got != exitRender {
		t.Fatalf("render failure exit=%d", got)
	}
	if got := exitCode(errors.New("other")); got != exitOther {
		t.Fatalf("other exit=%d", got)
	}
}

func TestExtract_StaticWithSummary(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		var b strings.Builder
		b.WriteString("<html><body><article><h1>Harbor report</h1>")
		for i := 0; i < 30; i++ {
			b.WriteString("<p>The harbor master logged ships arriving before the storm and counted every crate twice.</p>")
		}
		b.WriteString("</article></body></html>")
		_, _ = w.Write([]byte(b.String()))
	}))
	defer page.Close()
	llm := httptest.NewServer(summarize.StubHandler("stub"))
	defer llm.Close()

	out, err := execute(t, "extract", "--renderer", "static", "--summarize",
		"--llm.base", llm.URL+"/v1", "--llm.model", "stub", page.URL+"/report")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(out, "harbor master") {
		t.Fatalf("missing page text: %q", out)
	}
	if !strings.Contains(out, "Summary:\n"+page.URL+"/report: ") {
		t.Fatalf("missing summary: %q", out)
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "pagetext.yaml")
	if err := os.WriteFile(cfgPath, []byte("renderer: static\nwrapWidth: 70\nbrowser:\n  maxTabs: 2\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("WRAP_WIDTH=90\nBROWSER_MAX_TABS=6\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("WRAP_WIDTH", "")
	t.Setenv("BROWSER_MAX_TABS", "")

	f := &rootFlags{}
	root := buildRootCmd(f)
	var got app.Config
	for _, c := range root.Commands() {
		if c.Name() == "extract" {
			c.RunE = func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig(cmd, f)
				got = cfg
				return err
			}
		}
	}
	root.SetArgs([]string{"extract", "--config", cfgPath, "--env-file", envPath, "--browser.maxTabs", "3", "https://example.com"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got.Renderer != app.RendererStatic {
		t.Fatalf("Renderer=%q, want file value", got.Renderer)
	}
	if got.WrapWidth != 90 {
		t.Fatalf("WrapWidth=%d, want env value over file", got.WrapWidth)
	}
	if got.BrowserMaxTabs != 3 {
		t.Fatalf("BrowserMaxTabs=%d, want flag value over env", got.BrowserMaxTabs)
	}
	if got.RenderTimeout != 30*time.Second {
		t.Fatalf("RenderTimeout=%v, want default", got.RenderTimeout)
	}
}

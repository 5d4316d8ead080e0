package app

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
    Listen    string `yaml:"listen" json:"listen"`
    Renderer  string `yaml:"renderer" json:"renderer"`
    UserAgent string `yaml:"userAgent" json:"userAgent"`
    WrapWidth int    `yaml:"wrapWidth" json:"wrapWidth"`

    Browser struct {
        Path         string `yaml:"path" json:"path"`
        PerRequest   *bool  `yaml:"perRequest" json:"perRequest"`
        MaxTabs      int    `yaml:"maxTabs" json:"maxTabs"`
        WindowWidth  int    `yaml:"windowWidth" json:"windowWidth"`
        WindowHeight int    `yaml:"windowHeight" json:"windowHeight"`
    } `yaml:"browser" json:"browser"`

    Render struct {
        Timeout     Duration `yaml:"timeout" json:"timeout"`
        ContentWait Duration `yaml:"contentWait" json:"contentWait"`
    } `yaml:"render" json:"render"`

    Server struct {
        Lenient *bool `yaml:"lenient" json:"lenient"`
    } `yaml:"server" json:"server"`

    StrictEmpty *bool `yaml:"strictEmpty" json:"strictEmpty"`
    Verbose     bool  `yaml:"verbose" json:"verbose"`

    LLM struct {
        BaseURL string `yaml:"base" json:"base"`
        Model   string `yaml:"model" json:"model"`
        APIKey  string `yaml:"key" json:"key"`
    } `yaml:"llm" json:"llm"`

    Summarize *bool `yaml:"summarize" json:"summarize"`
}

// Duration accepts "30s"-style strings in both YAML and JSON.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
    var s string
    if err := n.Decode(&s); err != nil {
        return err
    }
    return d.parse(s)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
    var s string
    if err := json.Unmarshal(b, &s); err != nil {
        return fmt.Errorf("duration must be a string like \"30s\": %w", err)
    }
    return d.parse(s)
}

func (d *Duration) parse(s string) error {
    if strings.TrimSpace(s) == "" {
        *d = 0
        return nil
    }
    v, err := time.ParseDuration(s)
    if err != nil {
        return err
    }
    *d = Duration(v)
    return nil
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
    var fc FileConfig
    b, err := os.ReadFile(path)
    if err != nil {
        return fc, err
    }
    switch ext := filepath.Ext(path); ext {
    case ".yaml", ".yml":
        if err := yaml.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse yaml: %w", err)
        }
    case ".json":
        if err := json.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse json: %w", err)
        }
    default:
        // Try YAML then JSON
        if err := yaml.Unmarshal(b, &fc); err != nil {
            if jerr := json.Unmarshal(b, &fc); jerr != nil {
                return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
            }
        }
    }
    return fc, nil
}

// ApplyFileConfig overlays every value the file sets onto cfg. It is meant
// to run on DefaultConfig before env and flags are applied.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
    if cfg == nil { return }

    if fc.Listen != "" { cfg.Listen = fc.Listen }
    if fc.Renderer != "" { cfg.Renderer = fc.Renderer }
    if fc.UserAgent != "" { cfg.UserAgent = fc.UserAgent }
    if fc.WrapWidth != 0 { cfg.WrapWidth = fc.WrapWidth }

    if fc.Browser.Path != "" { cfg.BrowserPath = fc.Browser.Path }
    if fc.Browser.PerRequest != nil { cfg.BrowserPerRequest = *fc.Browser.PerRequest }
    if fc.Browser.MaxTabs != 0 { cfg.BrowserMaxTabs = fc.Browser.MaxTabs }
    if fc.Browser.WindowWidth != 0 { cfg.WindowWidth = fc.Browser.WindowWidth }
    if fc.Browser.WindowHeight != 0 { cfg.WindowHeight = fc.Browser.WindowHeight }

    if fc.Render.Timeout != 0 { cfg.RenderTimeout = time.Duration(fc.Render.Timeout) }
    if fc.Render.ContentWait != 0 { cfg.ContentWait = time.Duration(fc.Render.ContentWait) }

    if fc.Server.Lenient != nil { cfg.Lenient = *fc.Server.Lenient }
    if fc.StrictEmpty != nil { cfg.StrictEmpty = *fc.StrictEmpty }
    if fc.Verbose { cfg.Verbose = true }

    if fc.LLM.BaseURL != "" { cfg.LLMBaseURL = fc.LLM.BaseURL }
    if fc.LLM.Model != "" { cfg.LLMModel = fc.LLM.Model }
    if fc.LLM.APIKey != "" { cfg.LLMAPIKey = fc.LLM.APIKey }
    if fc.Summarize != nil { cfg.Summarize = *fc.Summarize }
}

// ValidateConfig rejects settings the application cannot start with.
func ValidateConfig(cfg Config) error {
    switch strings.ToLower(strings.TrimSpace(cfg.Renderer)) {
    case RendererChrome, RendererStatic:
    default:
        return fmt.Errorf("config: unknown renderer %q (want %s or %s)", cfg.Renderer, RendererChrome, RendererStatic)
    }
    if strings.TrimSpace(cfg.Listen) == "" {
        return errors.New("config: listen address is required")
    }
    if cfg.RenderTimeout <= 0 || cfg.ContentWait <= 0 {
        return errors.New("config: render.timeout and render.contentWait must be positive")
    }
    if cfg.BrowserMaxTabs < 1 {
        return errors.New("config: browser.maxTabs must be at least 1")
    }
    if cfg.WindowWidth < 1 || cfg.WindowHeight < 1 {
        return errors.New("config: browser window size must be positive")
    }
    if cfg.WrapWidth < 1 {
        return errors.New("config: wrapWidth must be at least 1")
    }
    if cfg.Summarize && strings.TrimSpace(cfg.LLMModel) == "" {
        return errors.New("config: llm.model is required when summarize is on (or set LLM_MODEL)")
    }
    return nil
}

package app

import (
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/rs/zerolog/log"
)

// ApplyEnvOverrides overrides cfg fields with environment variables that are
// set. It runs after the config file so env wins over file values; flags are
// applied last by the CLI. Unparsable values are logged and ignored.
func ApplyEnvOverrides(cfg *Config) {
    if cfg == nil { return }

    setString := func(dst *string, key string) {
        if v := strings.TrimSpace(os.Getenv(key)); v != "" { *dst = v }
    }
    setInt := func(dst *int, key string) {
        s := strings.TrimSpace(os.Getenv(key))
        if s == "" { return }
        n, err := strconv.Atoi(s)
        if err != nil {
            log.Warn().Str("env", key).Str("value", s).Msg("ignoring non-integer value")
            return
        }
        *dst = n
    }
    setDuration := func(dst *time.Duration, key string) {
        s := strings.TrimSpace(os.Getenv(key))
        if s == "" { return }
        d, err := time.ParseDuration(s)
        if err != nil {
            log.Warn().Str("env", key).Str("value", s).Msg("ignoring invalid duration")
            return
        }
        *dst = d
    }
    // Booleans override when env present and truthy/falsey
    setBool := func(dst *bool, key string) {
        switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
        case "1", "true", "yes", "on":
            *dst = true
        case "0", "false", "no", "off":
            *dst = false
        }
    }

    setString(&cfg.Listen, "PAGETEXT_LISTEN")
    setString(&cfg.Renderer, "PAGETEXT_RENDERER")
    setString(&cfg.BrowserPath, "CHROME_PATH")
    setBool(&cfg.BrowserPerRequest, "BROWSER_PER_REQUEST")
    setInt(&cfg.BrowserMaxTabs, "BROWSER_MAX_TABS")
    setDuration(&cfg.RenderTimeout, "RENDER_TIMEOUT")
    setDuration(&cfg.ContentWait, "CONTENT_WAIT")
    setString(&cfg.UserAgent, "USER_AGENT")
    setInt(&cfg.WrapWidth, "WRAP_WIDTH")
    setBool(&cfg.Lenient, "LENIENT")
    setBool(&cfg.StrictEmpty, "STRICT_EMPTY")
    setBool(&cfg.Verbose, "VERBOSE")

    setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
    setString(&cfg.LLMModel, "LLM_MODEL")
    setString(&cfg.LLMAPIKey, "LLM_API_KEY")
    setBool(&cfg.Summarize, "SUMMARIZE")
}

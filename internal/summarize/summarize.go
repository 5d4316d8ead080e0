package summarize

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    openai "github.com/sashabaranov/go-openai"
)

// Client is the minimal interface needed to call a chat model. It mirrors
// the CreateChatCompletion method of *openai.Client so any OpenAI-compatible
// backend can be adapted.
type Client interface {
    CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewOpenAIClient builds a client for an OpenAI-compatible endpoint. An empty
// baseURL keeps the library default; a nil httpClient keeps its transport.
func NewOpenAIClient(apiKey, baseURL string, httpClient *http.Client) *openai.Client {
    cfg := openai.DefaultConfig(apiKey)
    if baseURL != "" {
        cfg.BaseURL = baseURL
    }
    if httpClient != nil {
        cfg.HTTPClient = httpClient
    }
    return openai.NewClientWithConfig(cfg)
}

// ErrEmptySummary indicates the model returned no usable text.
var ErrEmptySummary = errors.New("empty summary")

// DefaultMaxInputChars caps the page text sent to the model.
const DefaultMaxInputChars = 24_000

const defaultSystemPrompt = "You summarize web pages for a reader who has not seen them. Use only the provided text. Keep the summary short, factual and in the language of the page."

// Summarizer condenses extracted page text with a chat model.
type Summarizer struct {
    Client Client
    Model  string
    // SystemPrompt, when non-empty, overrides the default system message.
    SystemPrompt string
    // MaxInputChars truncates long pages. Zero means DefaultMaxInputChars.
    MaxInputChars int
    // RetryDelay is the pause before the single retry. Zero means 100ms.
    RetryDelay time.Duration
}

// Summarize returns a summary of text taken from pageURL.
func (s *Summarizer) Summarize(ctx context.Context, pageURL, text string) (string, error) {
    if s.Client == nil || strings.TrimSpace(s.Model) == "" {
        return "", errors.New("summarizer not configured")
    }
    if strings.TrimSpace(text) == "" {
        return "", ErrEmptySummary
    }
    system := defaultSystemPrompt
    if strings.TrimSpace(s.SystemPrompt) != "" {
        system = s.SystemPrompt
    }
    req := openai.ChatCompletionRequest{
        Model: s.Model,
        Messages: []openai.ChatCompletionMessage{
            {Role: openai.ChatMessageRoleSystem, Content: system},
            {Role: openai.ChatMessageRoleUser, Content: buildUserMessage(pageURL, text, s.MaxInputChars)},
        },
        Temperature: 0.1,
        N:           1,
    }

    resp, err := s.Client.CreateChatCompletion(ctx, req)
    if err != nil {
        delay := s.RetryDelay
        if delay <= 0 {
            delay = 100 * time.Millisecond
        }
        select {
        case <-ctx.Done():
            return "", ctx.Err()
        case <-time.After(delay):
        }
        resp, err = s.Client.CreateChatCompletion(ctx, req)
        if err != nil {
            return "", fmt.Errorf("summarize call (after retry): %w", err)
        }
    }
    if len(resp.Choices) == 0 {
        return "", ErrEmptySummary
    }
    out := strings.TrimSpace(resp.Choices[0].Message.Content)
    if out == "" {
        return "", ErrEmptySummary
    }
    return out, nil
}

func buildUserMessage(pageURL, text string, max int) string {
    if max <= 0 {
        max = DefaultMaxInputChars
    }
    if r := []rune(text); len(r) > max {
        text = string(r[:max])
    }
    var sb strings.Builder
    sb.WriteString("Summarize the main content of this page.\n\nURL: ")
    sb.WriteString(pageURL)
    sb.WriteString("\n\nText:\n\n")
    sb.WriteString(text)
    return sb.String()
}

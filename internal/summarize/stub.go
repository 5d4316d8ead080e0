package summarize

import (
    "encoding/json"
    "net/http"
    "strings"
)

type stubChatRequest struct {
    Model    string `json:"model"`
    Messages []struct {
        Role    string `json:"role"`
        Content string `json:"content"`
    } `json:"messages"`
}

// StubHandler serves a minimal OpenAI-compatible API for local runs and
// tests. Chat completions answer with the page URL and the first words of
// the page text, so output is deterministic.
func StubHandler(model string) http.Handler {
    if strings.TrimSpace(model) == "" {
        model = "test-model"
    }
    mux := http.NewServeMux()
    mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json")
        _ = json.NewEncoder(w).Encode(map[string]any{
            "object": "list",
            "data":   []map[string]any{{"id": model, "object": "model"}},
        })
    })
    mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
        defer r.Body.Close()
        var req stubChatRequest
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            http.Error(w, "bad request body", http.StatusBadRequest)
            return
        }
        user := ""
        for _, m := range req.Messages {
            if m.Role == "user" {
                user = m.Content
            }
        }
        content := stubSummary(user)
        if content == "" {
            http.Error(w, "no user message", http.StatusBadRequest)
            return
        }
        w.Header().Set("Content-Type", "application/json")
        _ = json.NewEncoder(w).Encode(map[string]any{
            "object": "chat.completion",
            "model":  model,
            "choices": []map[string]any{
                {"index": 0, "finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": content}},
            },
        })
    })
    return mux
}

const stubSummaryWords = 12

func stubSummary(user string) string {
    pageURL := ""
    text := user
    for _, line := range strings.Split(user, "\n") {
        if strings.HasPrefix(line, "URL: ") {
            pageURL = strings.TrimSpace(strings.TrimPrefix(line, "URL: "))
        }
    }
    if i := strings.Index(user, "Text:\n"); i >= 0 {
        text = user[i+len("Text:\n"):]
    }
    words := strings.Fields(text)
    if len(words) == 0 {
        return ""
    }
    if len(words) > stubSummaryWords {
        words = words[:stubSummaryWords]
    }
    if pageURL == "" {
        return strings.Join(words, " ")
    }
    return pageURL + ": " + strings.Join(words, " ")
}

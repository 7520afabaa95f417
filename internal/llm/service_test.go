package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"storyduet/internal/logging"
)

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

// fakeBackend stands in for Ollama's OpenAI-compatible endpoint. It records
// the last decoded chat request and serves canned completions.
type fakeBackend struct {
	lastRequest *wireRequest
	content     string
	noChoices   bool
	failWith    int
	models      []string
}

func (f *fakeBackend) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/chat/completions":
			var req wireRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decoding chat request: %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.lastRequest = &req

			if f.failWith != 0 {
				w.WriteHeader(f.failWith)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"message": "backend rejected the request", "type": "invalid_request_error"},
				})
				return
			}

			choices := []map[string]any{}
			if !f.noChoices {
				choices = append(choices, map[string]any{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": f.content},
					"finish_reason": "stop",
				})
			}
			json.NewEncoder(w).Encode(map[string]any{
				"id":      "chatcmpl-test",
				"object":  "chat.completion",
				"created": 1700000000,
				"model":   req.Model,
				"choices": choices,
				"usage":   map[string]any{"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19},
			})

		case "/v1/models":
			if f.failWith != 0 {
				w.WriteHeader(f.failWith)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"message": "backend unavailable", "type": "api_error"},
				})
				return
			}
			data := make([]map[string]any, 0, len(f.models))
			for _, id := range f.models {
				data = append(data, map[string]any{"id": id, "object": "model", "created": 0, "owned_by": "library"})
			}
			json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data})

		default:
			t.Errorf("unexpected request path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newTestService(t *testing.T, backend *fakeBackend, calls *logging.CallLog) *Service {
	t.Helper()
	srv := httptest.NewServer(backend.handler(t))
	t.Cleanup(srv.Close)
	return NewService(srv.URL+"/v1", "test-key", nil, calls)
}

func TestChat(t *testing.T) {
	backend := &fakeBackend{content: "砂嵐が基地を包んだ。信号が途絶えた。"}

	calls, err := logging.Open(filepath.Join(t.TempDir(), "calls.db"))
	if err != nil {
		t.Fatalf("opening call log: %v", err)
	}
	defer calls.Close()

	svc := newTestService(t, backend, calls)

	ctx := WithRunID(context.Background(), "run-test")
	got, err := svc.Chat(ctx, ChatRequest{
		Params: ModelParams{
			Model:       "gemma3:4b",
			Temperature: 0.7,
			TopP:        0.9,
			MaxTokens:   100,
		},
		System:    "あなたは語り手です。",
		User:      "物語を始めてください。",
		Operation: "narrator.speak",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "砂嵐が基地を包んだ。信号が途絶えた。" {
		t.Errorf("content = %q", got)
	}

	req := backend.lastRequest
	if req == nil {
		t.Fatal("backend saw no request")
	}
	if req.Model != "gemma3:4b" {
		t.Errorf("model = %q, want gemma3:4b", req.Model)
	}
	if req.MaxTokens != 100 {
		t.Errorf("max_tokens = %d, want 100", req.MaxTokens)
	}
	if req.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", req.Temperature)
	}
	if req.TopP != 0.9 {
		t.Errorf("top_p = %v, want 0.9", req.TopP)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(req.Messages))
	}
	if req.Messages[0].Role != "system" || req.Messages[0].Content != "あなたは語り手です。" {
		t.Errorf("system message = %+v", req.Messages[0])
	}
	if req.Messages[1].Role != "user" || req.Messages[1].Content != "物語を始めてください。" {
		t.Errorf("user message = %+v", req.Messages[1])
	}

	// The call is in the audit log with the run identifier attached.
	recorded, err := calls.Recent(1)
	if err != nil {
		t.Fatalf("reading call log: %v", err)
	}
	if len(recorded) != 1 {
		t.Fatalf("call log has %d rows, want 1", len(recorded))
	}
	if recorded[0].RunID != "run-test" {
		t.Errorf("recorded run ID = %q, want run-test", recorded[0].RunID)
	}
	if recorded[0].Operation != "narrator.speak" {
		t.Errorf("recorded operation = %q", recorded[0].Operation)
	}
	if recorded[0].Response != got {
		t.Errorf("recorded response = %q", recorded[0].Response)
	}
	if recorded[0].Error != "" {
		t.Errorf("recorded error = %q, want empty", recorded[0].Error)
	}
}

func TestChatOmitsUnsetSampling(t *testing.T) {
	backend := &fakeBackend{content: "ok"}
	svc := newTestService(t, backend, nil)

	_, err := svc.Chat(context.Background(), ChatRequest{
		Params: ModelParams{Model: "gemma3:4b"},
		System: "s",
		User:   "u",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if backend.lastRequest.MaxTokens != 0 {
		t.Errorf("max_tokens should be absent, decoded %d", backend.lastRequest.MaxTokens)
	}
	if backend.lastRequest.Temperature != 0 {
		t.Errorf("temperature should be absent, decoded %v", backend.lastRequest.Temperature)
	}
}

func TestChatNoChoices(t *testing.T) {
	backend := &fakeBackend{noChoices: true}
	svc := newTestService(t, backend, nil)

	_, err := svc.Chat(context.Background(), ChatRequest{
		Params: ModelParams{Model: "gemma3:4b"},
		System: "s",
		User:   "u",
	})
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
	if !strings.Contains(err.Error(), "no completion choices") {
		t.Errorf("error = %v", err)
	}
}

func TestChatBackendError(t *testing.T) {
	backend := &fakeBackend{failWith: http.StatusBadRequest}

	calls, err := logging.Open(filepath.Join(t.TempDir(), "calls.db"))
	if err != nil {
		t.Fatalf("opening call log: %v", err)
	}
	defer calls.Close()

	svc := newTestService(t, backend, calls)

	_, err = svc.Chat(context.Background(), ChatRequest{
		Params:    ModelParams{Model: "gemma3:4b"},
		System:    "s",
		User:      "u",
		Operation: "critic.speak",
	})
	if err == nil {
		t.Fatal("expected error from the backend")
	}
	if !strings.Contains(err.Error(), "chat completion failed") {
		t.Errorf("error = %v", err)
	}

	// Failures are recorded too.
	recorded, err := calls.Recent(1)
	if err != nil {
		t.Fatalf("reading call log: %v", err)
	}
	if len(recorded) != 1 || recorded[0].Error == "" {
		t.Errorf("failure not recorded: %+v", recorded)
	}
}

func TestChatDefaultOperation(t *testing.T) {
	backend := &fakeBackend{content: "ok"}

	calls, err := logging.Open(filepath.Join(t.TempDir(), "calls.db"))
	if err != nil {
		t.Fatalf("opening call log: %v", err)
	}
	defer calls.Close()

	svc := newTestService(t, backend, calls)

	if _, err := svc.Chat(context.Background(), ChatRequest{
		Params: ModelParams{Model: "gemma3:4b"},
		System: "s",
		User:   "u",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	recorded, err := calls.Recent(1)
	if err != nil {
		t.Fatalf("reading call log: %v", err)
	}
	if recorded[0].Operation != "llm.chat" {
		t.Errorf("operation = %q, want llm.chat", recorded[0].Operation)
	}
}

func TestListModels(t *testing.T) {
	backend := &fakeBackend{models: []string{"gemma3:4b", "gemma3:12b", "qwen3:8b"}}
	svc := newTestService(t, backend, nil)

	ids, err := svc.ListModels(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("got %d models, want 3", len(ids))
	}
	if ids[0] != "gemma3:4b" || ids[2] != "qwen3:8b" {
		t.Errorf("unexpected catalog: %v", ids)
	}
}

func TestListModelsError(t *testing.T) {
	backend := &fakeBackend{failWith: http.StatusBadRequest}
	svc := newTestService(t, backend, nil)

	if _, err := svc.ListModels(context.Background()); err == nil {
		t.Fatal("expected error from the backend")
	}
}

func TestRunIDContext(t *testing.T) {
	ctx := context.Background()
	if got := RunIDFromContext(ctx); got != "" {
		t.Errorf("empty context returned run ID %q", got)
	}

	ctx = WithRunID(ctx, "run-42")
	if got := RunIDFromContext(ctx); got != "run-42" {
		t.Errorf("run ID = %q, want run-42", got)
	}
}

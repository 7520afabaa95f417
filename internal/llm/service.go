package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storyduet/internal/debug"
	"storyduet/internal/logging"
	"storyduet/internal/observability"
)

const (
	// DefaultBaseURL is Ollama's OpenAI-compatible endpoint.
	DefaultBaseURL = "http://localhost:11434/v1"
	// DefaultAPIKey satisfies the SDK's auth header; Ollama ignores it.
	DefaultAPIKey = "ollama"
)

// ModelParams is the model identifier plus sampling options for one role.
// Zero-valued fields are left unset on the request.
type ModelParams struct {
	Model            string  `json:"model"`
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"top_p"`
	MaxTokens        int     `json:"max_tokens"`
	FrequencyPenalty float64 `json:"frequency_penalty,omitempty"`
	Seed             int     `json:"seed,omitempty"`
}

// ChatRequest is one synchronous generation request. Operation names the
// caller's intent and becomes the span name and the call-log operation.
type ChatRequest struct {
	Params    ModelParams
	System    string
	User      string
	Operation string
}

// Service is the chat backend adapter. Every call emits a client span, a
// debug line and a best-effort call-log record.
type Service struct {
	client *openai.Client
	debug  *debug.Logger
	calls  *logging.CallLog
	tracer trace.Tracer
}

func NewService(baseURL, apiKey string, debugLogger *debug.Logger, calls *logging.CallLog) *Service {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if apiKey == "" {
		apiKey = DefaultAPIKey
	}
	client := openai.NewClient(option.WithBaseURL(baseURL), option.WithAPIKey(apiKey))
	return &Service{
		client: &client,
		debug:  debugLogger,
		calls:  calls,
		tracer: otel.Tracer("llm-service"),
	}
}

// Chat sends a system+user message pair and returns the first choice's
// content. No retries and no in-band timeout; cancellation comes from ctx.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (string, error) {
	operation := req.Operation
	if operation == "" {
		operation = "llm.chat"
	}

	ctx, span := s.tracer.Start(ctx, operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			observability.CreateGenAIAttributes("ollama", req.Params.Model, 0, 0, req.Params.Temperature)...,
		),
	)
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.Int("gen_ai.request.max_tokens", req.Params.MaxTokens),
		attribute.String("langfuse.observation.type", "generation"),
	}
	if runID := RunIDFromContext(ctx); runID != "" {
		attrs = append(attrs,
			attribute.String("langfuse.session.id", runID),
			attribute.String("run.id", runID),
		)
	}
	span.SetAttributes(attrs...)

	span.AddEvent("gen_ai.user.message", trace.WithAttributes(
		attribute.String("gen_ai.system", "ollama"),
		attribute.String("content", req.User),
	))

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(req.Params.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
	}
	if req.Params.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.Params.MaxTokens))
	}
	if req.Params.Temperature > 0 {
		params.Temperature = openai.Float(req.Params.Temperature)
	}
	if req.Params.TopP > 0 {
		params.TopP = openai.Float(req.Params.TopP)
	}
	if req.Params.FrequencyPenalty != 0 {
		params.FrequencyPenalty = openai.Float(req.Params.FrequencyPenalty)
	}
	if req.Params.Seed != 0 {
		params.Seed = openai.Int(int64(req.Params.Seed))
	}

	if s.debug != nil {
		s.debug.Printf("%s: model=%s max_tokens=%d system_len=%d user_len=%d",
			operation, req.Params.Model, req.Params.MaxTokens, len(req.System), len(req.User))
	}

	startTime := time.Now()
	resp, err := s.client.Chat.Completions.New(ctx, params)
	duration := time.Since(startTime)

	if err != nil {
		span.SetAttributes(attribute.String("error.type", "llm_completion_error"))
		span.RecordError(err)
		if s.debug != nil {
			s.debug.Printf("%s error: %v", operation, err)
		}
		s.record(ctx, req, operation, "", duration, err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no completion choices returned")
		span.RecordError(err)
		s.record(ctx, req, operation, "", duration, err)
		return "", err
	}

	content := resp.Choices[0].Message.Content

	span.SetAttributes(
		attribute.Int64("gen_ai.usage.input_tokens", resp.Usage.PromptTokens),
		attribute.Int64("gen_ai.usage.output_tokens", resp.Usage.CompletionTokens),
		attribute.Int64("response_time_ms", duration.Milliseconds()),
		attribute.String("langfuse.observation.input", req.System+"\n\n"+req.User),
		attribute.String("langfuse.observation.output", content),
		attribute.String("langfuse.observation.model.name", req.Params.Model),
	)
	span.AddEvent("gen_ai.choice", trace.WithAttributes(
		attribute.String("gen_ai.system", "ollama"),
		attribute.String("content", content),
	))

	if s.debug != nil {
		s.debug.Printf("%s: response_len=%d tokens=%d/%d duration=%v",
			operation, len(content), resp.Usage.PromptTokens, resp.Usage.CompletionTokens, duration)
	}

	s.record(ctx, req, operation, content, duration, nil)
	return content, nil
}

// ListModels is the single adapter for the backend's model catalog. All
// connectivity and model-presence probing goes through it.
func (s *Service) ListModels(ctx context.Context) ([]string, error) {
	page, err := s.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing models failed: %w", err)
	}
	ids := make([]string, 0, len(page.Data))
	for _, model := range page.Data {
		ids = append(ids, model.ID)
	}
	return ids, nil
}

func (s *Service) record(ctx context.Context, req ChatRequest, operation, response string, duration time.Duration, callErr error) {
	if s.calls == nil {
		return
	}
	rec := logging.Call{
		RunID:        RunIDFromContext(ctx),
		Operation:    operation,
		Model:        req.Params.Model,
		SystemPrompt: req.System,
		UserPrompt:   req.User,
		Response:     response,
		DurationMS:   duration.Milliseconds(),
	}
	if callErr != nil {
		rec.Error = callErr.Error()
	}
	if err := s.calls.Record(rec); err != nil && s.debug != nil {
		s.debug.Printf("call log write failed: %v", err)
	}
}

// WithRunID tags a context with the dialogue run identifier so spans and
// call-log records from the same run can be correlated.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, observability.GetRunIDKey(), runID)
}

// RunIDFromContext extracts the run identifier, or "" when absent.
func RunIDFromContext(ctx context.Context) string {
	return observability.RunIDFromContext(ctx)
}

package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient implements LLMClient for Google Gemini. The API key may come
// from config or per request, so one genai client is kept per key.
type GeminiClient struct {
	cfg      LLMConfig
	observer Observer

	mu      sync.Mutex
	clients map[string]*genai.Client
}

// NewGeminiClient creates a Gemini-backed LLMClient. No network connection
// is made until the first Generate call.
func NewGeminiClient(cfg LLMConfig, observer Observer) *GeminiClient {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &GeminiClient{cfg: cfg, observer: observer, clients: map[string]*genai.Client{}}
}

func (c *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	start := time.Now()
	params := resolveParams(c.cfg, req)
	if params.apiKey == "" {
		c.observer.OnCallComplete(LLMCallEvent{
			Task:      req.Task,
			Model:     params.model,
			Success:   false,
			ErrorCode: errorCode(ErrNoCredential),
		})
		return nil, ErrNoCredential
	}

	client, err := c.client(ctx, params.apiKey)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, params.timeout)
	defer cancel()

	out, err := callWithFallback(ctx, c.cfg.MaxRetries, params.model, params.fallback,
		func(ctx context.Context, modelName string) (string, string, error) {
			model := client.GenerativeModel(modelName)
			model.SetTemperature(float32(params.temperature))
			if params.maxTokens > 0 {
				model.SetMaxOutputTokens(int32(params.maxTokens))
			}
			if req.JSON {
				model.ResponseMIMEType = "application/json"
			}
			if req.SystemPrompt != "" {
				model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.SystemPrompt)}}
			}

			resp, err := model.GenerateContent(ctx, genai.Text(req.UserPrompt))
			if err != nil {
				return "", "", fmt.Errorf("failed to generate content: %w", err)
			}
			text, err := extractTextFromResponse(resp)
			return text, modelName, err
		})

	latency := time.Since(start).Milliseconds()
	if err != nil {
		if ctx.Err() != nil {
			err = ErrTimeout
		} else {
			err = fmt.Errorf("%w: %v", ErrRetryExhausted, err)
		}
		c.observer.OnCallComplete(LLMCallEvent{
			Task:      req.Task,
			Model:     params.model,
			LatencyMs: latency,
			Success:   false,
			ErrorCode: errorCode(err),
		})
		return nil, err
	}

	c.observer.OnCallComplete(LLMCallEvent{
		Task:      req.Task,
		Model:     out.model,
		LatencyMs: latency,
		Success:   true,
		Fallback:  out.fallback,
	})
	return &GenerateResponse{Text: out.text, Model: out.model, LatencyMs: latency, Fallback: out.fallback}, nil
}

// Available reports whether a configured API key exists. Keys supplied per
// request are not known here.
func (c *GeminiClient) Available(context.Context) bool {
	return c.cfg.APIKey != ""
}

// Close releases every cached genai client.
func (c *GeminiClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for key, cl := range c.clients {
		if err := cl.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.clients, key)
	}
	return firstErr
}

func (c *GeminiClient) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cl, ok := c.clients[apiKey]; ok {
		return cl, nil
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.clients[apiKey] = cl
	return cl, nil
}

// extractTextFromResponse joins the text parts of the first candidate.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates in response", ErrInvalidOutput)
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no content in response", ErrInvalidOutput)
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: no text parts in response", ErrInvalidOutput)
	}
	return strings.Join(parts, ""), nil
}

package llm

import (
	"context"
	"time"

	"github.com/alexanderramin/rfpilot/internal/domain"
)

type callParams struct {
	model       string
	fallback    string
	apiKey      string
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

// resolveParams merges per-request overrides over the task and global config.
func resolveParams(cfg LLMConfig, req GenerateRequest) callParams {
	taskCfg := cfg.Tasks[req.Task]
	p := callParams{
		model:       domain.CoalesceStr(req.Model, cfg.Model),
		fallback:    domain.CoalesceStr(req.FallbackModel, cfg.FallbackModel),
		apiKey:      domain.CoalesceStr(req.APIKey, cfg.APIKey),
		temperature: domain.Float64FromPtrWithDefault(taskCfg.Temperature, req.Temperature),
		maxTokens:   taskCfg.MaxTokens,
		timeout:     time.Duration(cfg.TaskTimeout(req.Task)) * time.Millisecond,
	}
	if req.MaxTokens != nil {
		p.maxTokens = *req.MaxTokens
	}
	if p.fallback == p.model {
		p.fallback = ""
	}
	return p
}

type callOutput struct {
	text     string
	model    string
	fallback bool
}

type modelCall func(ctx context.Context, model string) (text, servedBy string, err error)

// callWithFallback tries the primary model up to 1+retries times, then the
// fallback model once. Deadline and cancellation stop it immediately.
func callWithFallback(ctx context.Context, retries int, primary, fallback string, call modelCall) (callOutput, error) {
	var lastErr error
	for i := 0; i < 1+retries; i++ {
		text, servedBy, err := call(ctx, primary)
		if err == nil {
			return callOutput{text: text, model: domain.CoalesceStr(servedBy, primary)}, nil
		}
		lastErr = err
		// Don't retry on context cancellation/timeout
		if ctx.Err() != nil {
			return callOutput{}, lastErr
		}
	}

	if fallback == "" {
		return callOutput{}, lastErr
	}
	text, servedBy, err := call(ctx, fallback)
	if err != nil {
		return callOutput{}, err
	}
	return callOutput{text: text, model: domain.CoalesceStr(servedBy, fallback), fallback: true}, nil
}

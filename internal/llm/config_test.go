package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_CoversEveryTask(t *testing.T) {
	cfg := DefaultConfig()
	for _, task := range []TaskType{
		TaskAnalyze, TaskTrends, TaskStrategy, TaskStrategyReview,
		TaskMatch, TaskQuality, TaskHistoryQuality,
	} {
		_, ok := cfg.Tasks[task]
		assert.True(t, ok, "task=%s", task)
	}
	assert.Equal(t, ProviderGemini, cfg.Provider)
}

func TestTaskTimeout_OverrideAndGlobal(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 45000, cfg.TaskTimeout(TaskAnalyze))
	assert.Equal(t, cfg.TimeoutMs, cfg.TaskTimeout(TaskTrends))
	assert.Equal(t, cfg.TimeoutMs, cfg.TaskTimeout(TaskType("unknown")))
}

func TestResolveParams_RequestOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "cfg-key"
	cfg.FallbackModel = "gemini-1.5-flash"
	temp := 0.9

	p := resolveParams(cfg, GenerateRequest{
		Task:        TaskTrends,
		Model:       "custom",
		APIKey:      "req-key",
		Temperature: &temp,
	})
	assert.Equal(t, "custom", p.model)
	assert.Equal(t, "gemini-1.5-flash", p.fallback)
	assert.Equal(t, "req-key", p.apiKey)
	assert.Equal(t, 0.9, p.temperature)

	p = resolveParams(cfg, GenerateRequest{Task: TaskTrends, FallbackModel: cfg.Model})
	assert.Empty(t, p.fallback, "fallback equal to primary is dropped")
	assert.Equal(t, "cfg-key", p.apiKey)
	assert.Equal(t, cfg.Tasks[TaskTrends].Temperature, p.temperature, "nil temperature keeps the task default")
}

func TestIsUnconfigured(t *testing.T) {
	assert.True(t, IsUnconfigured(ErrNoCredential))
	assert.True(t, IsUnconfigured(ErrOllamaUnavailable))
	assert.False(t, IsUnconfigured(ErrTimeout))
}

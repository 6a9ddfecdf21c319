package llm

// TaskType identifies the kind of LLM task being performed.
type TaskType string

const (
	TaskAnalyze        TaskType = "analyze"
	TaskTrends         TaskType = "trends"
	TaskStrategy       TaskType = "strategy"
	TaskStrategyReview TaskType = "strategy_review"
	TaskMatch          TaskType = "match"
	TaskQuality        TaskType = "quality"
	TaskHistoryQuality TaskType = "history_quality"
)

// Provider names a generation backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOllama Provider = "ollama"
)

// TaskConfig holds per-task LLM parameters.
type TaskConfig struct {
	Temperature float64
	MaxTokens   int
	TimeoutMs   int // overrides global if > 0
}

// LLMConfig holds all configuration for the LLM subsystem.
type LLMConfig struct {
	Provider      Provider
	LogCalls      bool
	Endpoint      string
	Model         string
	FallbackModel string
	APIKey        string
	TimeoutMs     int
	MaxRetries    int
	Tasks         map[TaskType]TaskConfig
}

// DefaultConfig returns an LLMConfig with sensible defaults. Without an API
// key the Gemini backend reports ErrNoCredential on every call.
func DefaultConfig() LLMConfig {
	return LLMConfig{
		Provider:      ProviderGemini,
		LogCalls:      false,
		Endpoint:      "http://localhost:11434",
		Model:         "gemini-2.5-flash",
		FallbackModel: "",
		TimeoutMs:     30000,
		MaxRetries:    1,
		Tasks: map[TaskType]TaskConfig{
			TaskAnalyze:        {Temperature: 0.2, MaxTokens: 2048, TimeoutMs: 45000},
			TaskTrends:         {Temperature: 0.7, MaxTokens: 1024},
			TaskStrategy:       {Temperature: 0.6, MaxTokens: 2048},
			TaskStrategyReview: {Temperature: 0.1, MaxTokens: 1024},
			TaskMatch:          {Temperature: 0.4, MaxTokens: 2048},
			TaskQuality:        {Temperature: 0.1, MaxTokens: 1024},
			TaskHistoryQuality: {Temperature: 0.1, MaxTokens: 1024},
		},
	}
}

// TaskTimeout returns the effective timeout for a given task type.
// Uses the task-specific timeout if set, otherwise the global timeout.
func (c LLMConfig) TaskTimeout(task TaskType) int {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return tc.TimeoutMs
	}
	return c.TimeoutMs
}

package intelligence

import (
	"context"
	"fmt"

	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/alexanderramin/rfpilot/internal/llm"
)

// CallOptions carries per-agent settings into a generation call. The core
// passes them through untouched.
type CallOptions struct {
	APIKey        string
	Model         string
	FallbackModel string
	SystemPrompt  string
	Temperature   *float64
}

// Result is the outcome of an agent call that did not fail. Degraded marks
// intentional fallback content, with Reason saying why.
type Result[T any] struct {
	Value    T
	Degraded bool
	Reason   string
}

// Ok wraps a value produced by the model.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Degrade wraps fallback content.
func Degrade[T any](v T, reason string) Result[T] {
	return Result[T]{Value: v, Degraded: true, Reason: reason}
}

// Agents produces the content of each wizard step.
type Agents interface {
	// AnalyzeRequirements extracts structured requirements from RFP files.
	AnalyzeRequirements(ctx context.Context, files []domain.FileMeta, opts CallOptions) (Result[domain.Analysis], error)

	// ResearchTrends returns trend insights relevant to the requested modules.
	ResearchTrends(ctx context.Context, modules []string, opts CallOptions) (Result[[]domain.TrendInsight], error)

	// ProposeStrategies returns strategy options, each already scored by a
	// review pass.
	ProposeStrategies(ctx context.Context, analysis domain.Analysis, trends []domain.TrendInsight, opts CallOptions) (Result[[]domain.Strategy], error)

	// MatchCurriculum pairs each module with a course and instructor.
	MatchCurriculum(ctx context.Context, modules []string, trends []domain.TrendInsight, opts CallOptions) (Result[[]domain.CourseMatch], error)

	// EvaluateQuality scores an assembled proposal.
	EvaluateQuality(ctx context.Context, analysis domain.Analysis, matches []domain.CourseMatch, opts CallOptions) (Result[domain.QualityAssessment], error)

	// EvaluateHistoricalProposal scores an archived proposal after the fact.
	EvaluateHistoricalProposal(ctx context.Context, p domain.HistoricalProposal, opts CallOptions) (Result[domain.QualityAssessment], error)
}

// ExcerptReader returns readable text of an uploaded file, or "".
type ExcerptReader interface {
	Excerpt(f domain.FileMeta) string
}

type noExcerpts struct{}

func (noExcerpts) Excerpt(domain.FileMeta) string { return "" }

// generate runs one JSON generation call and decodes the reply into T.
func generate[T any](ctx context.Context, client llm.LLMClient, task llm.TaskType, opts CallOptions, systemPrompt, userPrompt string, validate llm.SchemaValidator[T]) (T, error) {
	var zero T
	resp, err := client.Generate(ctx, llm.GenerateRequest{
		Task:          task,
		SystemPrompt:  systemPrompt + jsonOnlyRule,
		UserPrompt:    userPrompt,
		Model:         opts.Model,
		FallbackModel: opts.FallbackModel,
		APIKey:        opts.APIKey,
		JSON:          true,
		Temperature:   opts.Temperature,
	})
	if err != nil {
		return zero, err
	}
	return llm.ExtractJSON(resp.Text, validate)
}

func unconfiguredReason(err error) string {
	return fmt.Sprintf("showing sample content: %v", err)
}

package intelligence

import (
	"context"
	"fmt"

	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/alexanderramin/rfpilot/internal/llm"
	"github.com/google/uuid"
)

type agentService struct {
	client   llm.LLMClient
	excerpts ExcerptReader
}

// NewAgents creates Agents backed by an LLM client. When the backend is
// unconfigured or unreachable, each call returns sample content as a
// degraded result instead of failing.
func NewAgents(client llm.LLMClient, excerpts ExcerptReader) Agents {
	if excerpts == nil {
		excerpts = noExcerpts{}
	}
	return &agentService{client: client, excerpts: excerpts}
}

func (s *agentService) AnalyzeRequirements(ctx context.Context, files []domain.FileMeta, opts CallOptions) (Result[domain.Analysis], error) {
	analysis, err := generate[domain.Analysis](ctx, s.client, llm.TaskAnalyze, opts,
		domain.CoalesceStr(opts.SystemPrompt, analyzeSystemPrompt),
		analyzePrompt(files, s.excerpts),
		func(a domain.Analysis) error { return domain.Validate(&a) })
	if err != nil {
		if llm.IsUnconfigured(err) {
			return Degrade(SampleAnalysis(), unconfiguredReason(err)), nil
		}
		return Result[domain.Analysis]{}, fmt.Errorf("analyze requirements: %w", err)
	}
	return Ok(analysis), nil
}

func (s *agentService) ResearchTrends(ctx context.Context, modules []string, opts CallOptions) (Result[[]domain.TrendInsight], error) {
	trends, err := generate[[]domain.TrendInsight](ctx, s.client, llm.TaskTrends, opts,
		domain.CoalesceStr(opts.SystemPrompt, trendsSystemPrompt),
		trendsPrompt(modules),
		domain.ValidateEach[domain.TrendInsight])
	if err != nil {
		if llm.IsUnconfigured(err) {
			return Degrade(SampleTrends(), unconfiguredReason(err)), nil
		}
		return Result[[]domain.TrendInsight]{}, fmt.Errorf("research trends: %w", err)
	}
	return Ok(trends), nil
}

func (s *agentService) ProposeStrategies(ctx context.Context, analysis domain.Analysis, trends []domain.TrendInsight, opts CallOptions) (Result[[]domain.Strategy], error) {
	strategies, err := generate[[]domain.Strategy](ctx, s.client, llm.TaskStrategy, opts,
		domain.CoalesceStr(opts.SystemPrompt, strategySystemPrompt),
		strategyPrompt(analysis, trends),
		validateStrategyDrafts)
	if err != nil {
		if llm.IsUnconfigured(err) {
			return Degrade(SampleStrategies(analysis), unconfiguredReason(err)), nil
		}
		return Result[[]domain.Strategy]{}, fmt.Errorf("propose strategies: %w", err)
	}
	for i := range strategies {
		if strategies[i].ID == "" {
			strategies[i].ID = uuid.New().String()
		}
		strategies[i].QualityScore = 0
		strategies[i].QualityAdvice = ""
	}

	// The review pass uses its own reviewer prompt on the same model settings.
	reviews, err := generate[[]strategyReview](ctx, s.client, llm.TaskStrategyReview, opts,
		strategyReviewSystemPrompt,
		strategyReviewPrompt(analysis, strategies),
		nil)
	if err != nil {
		return Degrade(strategies, fmt.Sprintf("strategy review unavailable: %v", err)), nil
	}
	byID := make(map[string]strategyReview, len(reviews))
	for _, r := range reviews {
		byID[r.ID] = r
	}
	for i := range strategies {
		if r, ok := byID[strategies[i].ID]; ok {
			strategies[i].QualityScore = domain.ClampScore(r.QualityScore)
			strategies[i].QualityAdvice = r.QualityAdvice
		}
	}
	return Ok(strategies), nil
}

type strategyReview struct {
	ID            string `json:"id"`
	QualityScore  int    `json:"qualityScore"`
	QualityAdvice string `json:"qualityAdvice"`
}

// validateStrategyDrafts checks model output before IDs are assigned.
func validateStrategyDrafts(in []domain.Strategy) error {
	if len(in) == 0 {
		return fmt.Errorf("no strategies returned")
	}
	for i, st := range in {
		if st.Title == "" {
			return fmt.Errorf("strategy %d: missing title", i)
		}
	}
	return nil
}

func (s *agentService) MatchCurriculum(ctx context.Context, modules []string, trends []domain.TrendInsight, opts CallOptions) (Result[[]domain.CourseMatch], error) {
	matches, err := generate[[]domain.CourseMatch](ctx, s.client, llm.TaskMatch, opts,
		domain.CoalesceStr(opts.SystemPrompt, matchSystemPrompt),
		matchPrompt(modules, trends),
		validateMatchDrafts)
	if err != nil {
		if llm.IsUnconfigured(err) {
			return Degrade(SampleMatches(modules, trends), unconfiguredReason(err)), nil
		}
		return Result[[]domain.CourseMatch]{}, fmt.Errorf("match curriculum: %w", err)
	}
	for i := range matches {
		if matches[i].ID == "" {
			matches[i].ID = uuid.New().String()
		}
		matches[i].MatchScore = domain.ClampScore(matches[i].MatchScore)
	}
	return Ok(matches), nil
}

func validateMatchDrafts(in []domain.CourseMatch) error {
	for i, m := range in {
		if m.ModuleName == "" {
			return fmt.Errorf("match %d: missing module name", i)
		}
	}
	return nil
}

func (s *agentService) EvaluateQuality(ctx context.Context, analysis domain.Analysis, matches []domain.CourseMatch, opts CallOptions) (Result[domain.QualityAssessment], error) {
	qa, err := generate[domain.QualityAssessment](ctx, s.client, llm.TaskQuality, opts,
		domain.CoalesceStr(opts.SystemPrompt, qualitySystemPrompt),
		qualityPrompt(analysis, matches),
		nil)
	if err != nil {
		if llm.IsUnconfigured(err) {
			return Degrade(SampleQuality(), unconfiguredReason(err)), nil
		}
		return Result[domain.QualityAssessment]{}, fmt.Errorf("evaluate quality: %w", err)
	}
	return Ok(normalizeQuality(qa)), nil
}

func (s *agentService) EvaluateHistoricalProposal(ctx context.Context, p domain.HistoricalProposal, opts CallOptions) (Result[domain.QualityAssessment], error) {
	qa, err := generate[domain.QualityAssessment](ctx, s.client, llm.TaskHistoryQuality, opts,
		domain.CoalesceStr(opts.SystemPrompt, historySystemPrompt),
		historyPrompt(p),
		nil)
	if err != nil {
		if llm.IsUnconfigured(err) {
			return Degrade(HeuristicHistoryQuality(p), unconfiguredReason(err)), nil
		}
		return Result[domain.QualityAssessment]{}, fmt.Errorf("evaluate proposal %s: %w", p.ID, err)
	}
	return Ok(normalizeQuality(qa)), nil
}

// normalizeQuality clamps scores and fills a missing total with the mean.
func normalizeQuality(q domain.QualityAssessment) domain.QualityAssessment {
	q.ComplianceScore = domain.ClampScore(q.ComplianceScore)
	q.InstructorExpertiseScore = domain.ClampScore(q.InstructorExpertiseScore)
	q.IndustryMatchScore = domain.ClampScore(q.IndustryMatchScore)
	q.TotalScore = domain.ClampScore(q.TotalScore)
	if q.TotalScore == 0 {
		q.TotalScore = (q.ComplianceScore + q.InstructorExpertiseScore + q.IndustryMatchScore) / 3
	}
	return q
}

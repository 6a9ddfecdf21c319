package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/alexanderramin/rfpilot/internal/intelligence"
)

// Agent method names used to configure FakeAgents.
const (
	CallAnalyze  = "AnalyzeRequirements"
	CallTrends   = "ResearchTrends"
	CallStrategy = "ProposeStrategies"
	CallMatch    = "MatchCurriculum"
	CallQuality  = "EvaluateQuality"
	CallHistory  = "EvaluateHistoricalProposal"
)

// FakeAgents is a scripted intelligence.Agents. Calls can be made to fail,
// degrade, or block until released.
type FakeAgents struct {
	Analysis   domain.Analysis
	Trends     []domain.TrendInsight
	Strategies []domain.Strategy
	Matches    []domain.CourseMatch
	Quality    domain.QualityAssessment

	mu       sync.Mutex
	errs     map[string]error
	degraded map[string]string
	gates    map[string]chan struct{}
	calls    map[string]int
	opts     map[string]intelligence.CallOptions
}

// NewFakeAgents returns fakes that answer every call with fixture data.
func NewFakeAgents() *FakeAgents {
	return &FakeAgents{
		Analysis:   *NewTestAnalysis(),
		Trends:     NewTestTrends("AI coaching", "Hybrid work"),
		Strategies: NewTestStrategies(3),
		Matches:    NewTestMatches("Coaching", "Feedback"),
		Quality:    NewTestQuality(),
		errs:       map[string]error{},
		degraded:   map[string]string{},
		gates:      map[string]chan struct{}{},
		calls:      map[string]int{},
		opts:       map[string]intelligence.CallOptions{},
	}
}

// FailWith makes method return err until cleared with a nil err.
func (f *FakeAgents) FailWith(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, method)
		return
	}
	f.errs[method] = err
}

// Degrade makes method return its data as degraded with reason.
func (f *FakeAgents) Degrade(method, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.degraded[method] = reason
}

// Block makes subsequent calls to method wait until the returned release
// func is called or their context ends.
func (f *FakeAgents) Block(method string) (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gates[method] = gate
	var once sync.Once
	return func() {
		once.Do(func() { close(gate) })
	}
}

// Calls returns how many times method was invoked.
func (f *FakeAgents) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// LastOptions returns the options of the latest call to method.
func (f *FakeAgents) LastOptions(method string) intelligence.CallOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opts[method]
}

// enter records a call, waits on its gate and reports the scripted outcome.
func (f *FakeAgents) enter(ctx context.Context, method string, opts intelligence.CallOptions) (string, error) {
	f.mu.Lock()
	f.calls[method]++
	f.opts[method] = opts
	gate := f.gates[method]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.degraded[method], f.errs[method]
}

func result[T any](v T, reason string) intelligence.Result[T] {
	if reason != "" {
		return intelligence.Degrade(v, reason)
	}
	return intelligence.Ok(v)
}

func (f *FakeAgents) AnalyzeRequirements(ctx context.Context, _ []domain.FileMeta, opts intelligence.CallOptions) (intelligence.Result[domain.Analysis], error) {
	reason, err := f.enter(ctx, CallAnalyze, opts)
	if err != nil {
		return intelligence.Result[domain.Analysis]{}, err
	}
	return result(*f.Analysis.Clone(), reason), nil
}

func (f *FakeAgents) ResearchTrends(ctx context.Context, _ []string, opts intelligence.CallOptions) (intelligence.Result[[]domain.TrendInsight], error) {
	reason, err := f.enter(ctx, CallTrends, opts)
	if err != nil {
		return intelligence.Result[[]domain.TrendInsight]{}, err
	}
	return result(slices.Clone(f.Trends), reason), nil
}

func (f *FakeAgents) ProposeStrategies(ctx context.Context, _ domain.Analysis, _ []domain.TrendInsight, opts intelligence.CallOptions) (intelligence.Result[[]domain.Strategy], error) {
	reason, err := f.enter(ctx, CallStrategy, opts)
	if err != nil {
		return intelligence.Result[[]domain.Strategy]{}, err
	}
	return result(domain.CloneStrategies(f.Strategies), reason), nil
}

func (f *FakeAgents) MatchCurriculum(ctx context.Context, _ []string, _ []domain.TrendInsight, opts intelligence.CallOptions) (intelligence.Result[[]domain.CourseMatch], error) {
	reason, err := f.enter(ctx, CallMatch, opts)
	if err != nil {
		return intelligence.Result[[]domain.CourseMatch]{}, err
	}
	return result(slices.Clone(f.Matches), reason), nil
}

func (f *FakeAgents) EvaluateQuality(ctx context.Context, _ domain.Analysis, _ []domain.CourseMatch, opts intelligence.CallOptions) (intelligence.Result[domain.QualityAssessment], error) {
	reason, err := f.enter(ctx, CallQuality, opts)
	if err != nil {
		return intelligence.Result[domain.QualityAssessment]{}, err
	}
	return result(f.Quality, reason), nil
}

func (f *FakeAgents) EvaluateHistoricalProposal(ctx context.Context, _ domain.HistoricalProposal, opts intelligence.CallOptions) (intelligence.Result[domain.QualityAssessment], error) {
	reason, err := f.enter(ctx, CallHistory, opts)
	if err != nil {
		return intelligence.Result[domain.QualityAssessment]{}, err
	}
	return result(f.Quality, reason), nil
}

var _ intelligence.Agents = (*FakeAgents)(nil)

package testutil

import (
	"fmt"
	"time"

	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/google/uuid"
)

// TestTime is a fixed UTC instant for deterministic fixtures.
var TestTime = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func NewTestFiles(names ...string) []domain.FileMeta {
	files := make([]domain.FileMeta, 0, len(names))
	for i, n := range names {
		files = append(files, domain.FileMeta{
			FileName:   n,
			Size:       int64(1024 * (i + 1)),
			UploadDate: TestTime,
		})
	}
	return files
}

// Analysis options
type AnalysisOption func(*domain.Analysis)

func WithModules(modules ...string) AnalysisOption {
	return func(a *domain.Analysis) {
		a.Modules = modules
	}
}

func WithProgramName(name string) AnalysisOption {
	return func(a *domain.Analysis) {
		a.ProgramName = name
	}
}

func NewTestAnalysis(opts ...AnalysisOption) *domain.Analysis {
	a := &domain.Analysis{
		ClientName:     "Acme Corp",
		Industry:       "Manufacturing",
		Department:     "HR",
		ProgramName:    "Leadership Academy",
		Objectives:     []string{"Grow first-line managers"},
		TargetAudience: "New team leads",
		Schedule:       "Q3, 3 days",
		Location:       "Seoul",
		Modules:        []string{"Coaching", "Feedback"},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func NewTestTrends(topics ...string) []domain.TrendInsight {
	out := make([]domain.TrendInsight, 0, len(topics))
	for i, t := range topics {
		out = append(out, domain.TrendInsight{
			Topic:          t,
			Insight:        t + " is rising",
			Source:         "Test Report 2025",
			RelevanceScore: 90 - i,
		})
	}
	return out
}

func NewTestStrategies(n int) []domain.Strategy {
	out := make([]domain.Strategy, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Strategy{
			ID:           fmt.Sprintf("strategy-%d", i+1),
			Title:        fmt.Sprintf("Strategy %d", i+1),
			Description:  "A test strategy",
			Keywords:     []string{"test"},
			QualityScore: 80 + i,
		})
	}
	return out
}

func NewTestMatches(modules ...string) []domain.CourseMatch {
	out := make([]domain.CourseMatch, 0, len(modules))
	for i, m := range modules {
		out = append(out, domain.CourseMatch{
			ID:          uuid.New().String(),
			ModuleName:  m,
			CourseTitle: m + " Essentials",
			Instructor:  fmt.Sprintf("Instructor %d", i+1),
			MatchScore:  85,
		})
	}
	return out
}

func NewTestQuality() domain.QualityAssessment {
	return domain.QualityAssessment{
		ComplianceScore:          90,
		InstructorExpertiseScore: 85,
		IndustryMatchScore:       80,
		TotalScore:               85,
		OverallComment:           "Solid proposal",
	}
}

// Draft options
type DraftOption func(*domain.Draft)

func WithDraftID(id string) DraftOption {
	return func(d *domain.Draft) {
		d.ID = id
	}
}

func WithFiles(files []domain.FileMeta) DraftOption {
	return func(d *domain.Draft) {
		d.Files = files
	}
}

func WithAnalysis(a *domain.Analysis) DraftOption {
	return func(d *domain.Draft) {
		d.Analysis = a
	}
}

// NewTestDraft returns a consistent draft at step: every output of an earlier
// step is filled in, later ones are empty.
func NewTestDraft(step domain.Step, opts ...DraftOption) *domain.Draft {
	d := &domain.Draft{
		ID:          uuid.New().String(),
		LastUpdated: TestTime,
		Step:        step,
		Files:       NewTestFiles("rfp.pdf"),
	}
	if step > domain.StepAnalysis {
		d.Analysis = NewTestAnalysis()
	}
	if step > domain.StepResearch {
		d.Trends = NewTestTrends("AI coaching", "Hybrid work")
	}
	if step > domain.StepStrategy {
		s := NewTestStrategies(1)[0]
		d.SelectedStrategy = &s
	}
	if step > domain.StepMatching {
		d.Matches = NewTestMatches("Coaching", "Feedback")
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func NewTestProposal(title string, date time.Time) *domain.HistoricalProposal {
	return &domain.HistoricalProposal{
		ID:         uuid.New().String(),
		DraftID:    uuid.New().String(),
		Title:      title,
		ClientName: "Acme Corp",
		Industry:   "Manufacturing",
		Date:       date.UTC(),
		Tags:       []string{"Coaching"},
		FileName:   "rfp.pdf",
		Status:     domain.StatusWon,
		CreatedAt:  date.UTC(),
	}
}

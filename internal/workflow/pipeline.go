package workflow

import (
	"fmt"
	"slices"

	"github.com/alexanderramin/rfpilot/internal/domain"
)

// Pipeline is an ordered subsequence of the working steps. It always starts
// at Upload, contains Analysis and ends at Preview. Complete is the implicit
// terminal state and is never listed.
type Pipeline struct {
	steps []domain.Step
}

// DefaultPipeline returns the pipeline with every working step.
func DefaultPipeline() Pipeline {
	return Pipeline{steps: []domain.Step{
		domain.StepUpload,
		domain.StepAnalysis,
		domain.StepResearch,
		domain.StepStrategy,
		domain.StepMatching,
		domain.StepPreview,
	}}
}

// NewPipeline validates steps and returns the pipeline they describe.
func NewPipeline(steps []domain.Step) (Pipeline, error) {
	if len(steps) == 0 {
		return Pipeline{}, fmt.Errorf("%w: no steps", ErrInvalidPipeline)
	}
	if steps[0] != domain.StepUpload {
		return Pipeline{}, fmt.Errorf("%w: must start with %s", ErrInvalidPipeline, domain.StepUpload)
	}
	if steps[len(steps)-1] != domain.StepPreview {
		return Pipeline{}, fmt.Errorf("%w: must end with %s", ErrInvalidPipeline, domain.StepPreview)
	}
	if !slices.Contains(steps, domain.StepAnalysis) {
		return Pipeline{}, fmt.Errorf("%w: must contain %s", ErrInvalidPipeline, domain.StepAnalysis)
	}
	for i := 1; i < len(steps); i++ {
		if steps[i] <= steps[i-1] {
			return Pipeline{}, fmt.Errorf("%w: %s listed after %s", ErrInvalidPipeline, steps[i], steps[i-1])
		}
	}
	return Pipeline{steps: slices.Clone(steps)}, nil
}

// ParsePipeline builds a pipeline from step names. An empty list yields the
// default pipeline.
func ParsePipeline(names []string) (Pipeline, error) {
	if len(names) == 0 {
		return DefaultPipeline(), nil
	}
	steps := make([]domain.Step, 0, len(names))
	for _, n := range names {
		s, err := domain.ParseStep(n)
		if err != nil {
			return Pipeline{}, fmt.Errorf("%w: %w", ErrInvalidPipeline, err)
		}
		steps = append(steps, s)
	}
	return NewPipeline(steps)
}

// Steps returns a copy of the working steps in order.
func (p Pipeline) Steps() []domain.Step {
	return slices.Clone(p.steps)
}

// Contains reports whether s is a working step of p.
func (p Pipeline) Contains(s domain.Step) bool {
	return slices.Contains(p.steps, s)
}

// Next returns the step after s. Preview and Complete have no next step in
// the wizard; Complete is reached only by archiving.
func (p Pipeline) Next(s domain.Step) (domain.Step, error) {
	i := slices.Index(p.steps, s)
	if i < 0 || i == len(p.steps)-1 {
		return 0, fmt.Errorf("%w: cannot advance from %s", ErrInvalidTransition, s)
	}
	return p.steps[i+1], nil
}

// Prev returns the step before s. Upload and Complete cannot regress.
func (p Pipeline) Prev(s domain.Step) (domain.Step, error) {
	i := slices.Index(p.steps, s)
	if i <= 0 {
		return 0, fmt.Errorf("%w: cannot go back from %s", ErrInvalidTransition, s)
	}
	return p.steps[i-1], nil
}

// Requires returns the steps whose outputs feed s: every pipeline step
// before it.
func (p Pipeline) Requires(s domain.Step) []domain.Step {
	var out []domain.Step
	for _, st := range p.steps {
		if st >= s {
			break
		}
		out = append(out, st)
	}
	return out
}

// Progress returns how far along the pipeline s is, as a percentage.
func (p Pipeline) Progress(s domain.Step) int {
	if s == domain.StepComplete {
		return 100
	}
	i := slices.Index(p.steps, s)
	if i < 0 {
		return 0
	}
	return (i + 1) * 100 / (len(p.steps) + 1)
}

// ValidateDraft checks that d is a record this pipeline could have produced:
// its step is a working step, outputs exist only for reached steps in the
// pipeline, and the inputs of the current step are present.
func (p Pipeline) ValidateDraft(d *domain.Draft) error {
	if d == nil {
		return fmt.Errorf("%w: nil draft", ErrInvalidDraft)
	}
	if !p.Contains(d.Step) {
		return fmt.Errorf("%w: step %s is not resumable", ErrInvalidDraft, d.Step)
	}

	populated := map[domain.Step]bool{
		domain.StepAnalysis: d.Analysis != nil,
		domain.StepResearch: len(d.Trends) > 0,
		domain.StepStrategy: d.SelectedStrategy != nil,
		domain.StepMatching: len(d.Matches) > 0,
	}
	for step, ok := range populated {
		if !ok {
			continue
		}
		if !p.Contains(step) {
			return fmt.Errorf("%w: %s output present but step not in pipeline", ErrInvalidDraft, step)
		}
		if step > d.Step {
			return fmt.Errorf("%w: %s output present at step %s", ErrInvalidDraft, step, d.Step)
		}
	}

	// Analysis and a selected strategy are hard inputs of later steps.
	// Trends and matches may legitimately be empty lists.
	for _, req := range p.Requires(d.Step) {
		switch req {
		case domain.StepAnalysis:
			if d.Analysis == nil {
				return fmt.Errorf("%w: missing analysis at step %s", ErrInvalidDraft, d.Step)
			}
		case domain.StepStrategy:
			if d.SelectedStrategy == nil {
				return fmt.Errorf("%w: missing strategy at step %s", ErrInvalidDraft, d.Step)
			}
		}
	}
	return nil
}

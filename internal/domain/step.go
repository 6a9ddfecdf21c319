package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Step is one stage of the proposal pipeline. Steps are ranked; a higher
// value is always later in the pipeline.
type Step int

const (
	StepUpload Step = iota + 1
	StepAnalysis
	StepResearch
	StepStrategy
	StepMatching
	StepPreview
	StepComplete
)

var stepNames = map[Step]string{
	StepUpload:   "upload",
	StepAnalysis: "analysis",
	StepResearch: "research",
	StepStrategy: "strategy",
	StepMatching: "matching",
	StepPreview:  "preview",
	StepComplete: "complete",
}

var stepLabels = map[Step]string{
	StepUpload:   "RFP upload",
	StepAnalysis: "Requirements analysis",
	StepResearch: "Trend research",
	StepStrategy: "Strategy selection",
	StepMatching: "Curriculum matching",
	StepPreview:  "Proposal preview",
	StepComplete: "Complete",
}

// AllSteps lists every step in rank order, including the terminal step.
var AllSteps = []Step{
	StepUpload, StepAnalysis, StepResearch, StepStrategy,
	StepMatching, StepPreview, StepComplete,
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Label returns the human-readable name shown in draft listings.
func (s Step) Label() string {
	if label, ok := stepLabels[s]; ok {
		return label
	}
	return "Not started"
}

// Valid reports whether s is one of the known steps.
func (s Step) Valid() bool {
	return s >= StepUpload && s <= StepComplete
}

// ParseStep resolves a step from its name (case-insensitive) or numeric rank.
func ParseStep(name string) (Step, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	names := make([]string, len(AllSteps))
	for i, step := range AllSteps {
		if stepNames[step] == key {
			return step, nil
		}
		names[i] = stepNames[step]
	}
	if rank, err := strconv.Atoi(key); err == nil && Step(rank).Valid() {
		return Step(rank), nil
	}
	return 0, fmt.Errorf("unknown step %q (want one of %s)", name, strings.Join(names, ", "))
}

package domain

import "slices"

// Analysis is the structured requirement extraction of an RFP.
type Analysis struct {
	ClientName      string   `json:"clientName"`
	Industry        string   `json:"industry"`
	Department      string   `json:"department"`
	ProgramName     string   `json:"programName"`
	Objectives      []string `json:"objectives"`
	TargetAudience  string   `json:"targetAudience"`
	Schedule        string   `json:"schedule"`
	Location        string   `json:"location"`
	Modules         []string `json:"modules" validate:"dive,required"`
	SpecialRequests string   `json:"specialRequests"`
}

// Clone returns a deep copy of a. A nil receiver yields nil.
func (a *Analysis) Clone() *Analysis {
	if a == nil {
		return nil
	}
	c := *a
	c.Objectives = slices.Clone(a.Objectives)
	c.Modules = slices.Clone(a.Modules)
	return &c
}

// TrendInsight is one researched HRD or business trend.
type TrendInsight struct {
	Topic          string `json:"topic" validate:"required"`
	Insight        string `json:"insight"`
	Source         string `json:"source"`
	RelevanceScore int    `json:"relevanceScore" validate:"gte=0,lte=100"`
}

// Strategy is a proposal strategy option. QualityScore and QualityAdvice are
// filled in by the strategy review pass of the generating agent.
type Strategy struct {
	ID            string   `json:"id" validate:"required"`
	Title         string   `json:"title" validate:"required"`
	Description   string   `json:"description"`
	Keywords      []string `json:"keywords"`
	Rationale     string   `json:"rationale"`
	QualityScore  int      `json:"qualityScore" validate:"gte=0,lte=100"`
	QualityAdvice string   `json:"qualityAdvice"`
}

// Clone returns a deep copy of s. A nil receiver yields nil.
func (s *Strategy) Clone() *Strategy {
	if s == nil {
		return nil
	}
	c := *s
	c.Keywords = slices.Clone(s.Keywords)
	return &c
}

// CourseMatch pairs a requested module with an internal course and instructor.
type CourseMatch struct {
	ID          string `json:"id" validate:"required"`
	ModuleName  string `json:"moduleName" validate:"required"`
	CourseTitle string `json:"courseTitle"`
	Instructor  string `json:"instructor"`
	MatchReason string `json:"matchReason"`
	MatchScore  int    `json:"matchScore" validate:"gte=0,lte=100"`
	IsExternal  bool   `json:"isExternal"`
}

// QualityAssessment scores a proposal on three criteria plus a total.
type QualityAssessment struct {
	ComplianceScore           int    `json:"complianceScore" validate:"gte=0,lte=100"`
	ComplianceReason          string `json:"complianceReason"`
	InstructorExpertiseScore  int    `json:"instructorExpertiseScore" validate:"gte=0,lte=100"`
	InstructorExpertiseReason string `json:"instructorExpertiseReason"`
	IndustryMatchScore        int    `json:"industryMatchScore" validate:"gte=0,lte=100"`
	IndustryMatchReason       string `json:"industryMatchReason"`
	TotalScore                int    `json:"totalScore" validate:"gte=0,lte=100"`
	OverallComment            string `json:"overallComment"`
}

// SlideType classifies a proposal slide.
type SlideType string

const (
	SlideCover      SlideType = "cover"
	SlideAgenda     SlideType = "agenda"
	SlideOverview   SlideType = "overview"
	SlideTrend      SlideType = "trend"
	SlideCurriculum SlideType = "curriculum"
	SlideInstructor SlideType = "instructor"
	SlideSchedule   SlideType = "schedule"
	SlideClosing    SlideType = "closing"
)

// Slide is one page of the assembled proposal deck.
type Slide struct {
	ID      int       `json:"id"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Type    SlideType `json:"type"`
}

// Preview is the output of the preview step: the assembled deck and its
// quality assessment. It is shown to the user but never stored on a draft.
type Preview struct {
	Slides  []Slide            `json:"slides"`
	Quality *QualityAssessment `json:"quality,omitempty"`
}

// Clone returns a deep copy of p. A nil receiver yields nil.
func (p *Preview) Clone() *Preview {
	if p == nil {
		return nil
	}
	c := Preview{Slides: slices.Clone(p.Slides)}
	if p.Quality != nil {
		q := *p.Quality
		c.Quality = &q
	}
	return &c
}

// CloneStrategies deep-copies a slice of strategies, preserving nil.
func CloneStrategies(in []Strategy) []Strategy {
	if in == nil {
		return nil
	}
	out := make([]Strategy, len(in))
	for i := range in {
		out[i] = *in[i].Clone()
	}
	return out
}

package intelligence

import (
	"fmt"

	"github.com/alexanderramin/rfpilot/internal/domain"
)

// SampleAnalysis is the requirement extraction shown when no model can be
// reached. It describes a typical leadership program RFP.
func SampleAnalysis() domain.Analysis {
	return domain.Analysis{
		ProgramName: "Next-Generation Leadership Development Program 2025",
		Objectives: []string{
			"Build leadership suited to digital transformation",
			"Strengthen data-driven decision making",
			"Coach and communicate effectively with younger team members",
		},
		TargetAudience:  "30 team leads and leader candidates",
		Schedule:        "May 2025, 3-day residential course",
		Modules:         []string{"DT trends and the leader's role", "Data literacy workshop", "Cross-generation communication and coaching"},
		SpecialRequests: "Practice-oriented sessions with current trend case studies",
	}
}

// SampleTrends returns fixed trend insights.
func SampleTrends() []domain.TrendInsight {
	return []domain.TrendInsight{
		{Topic: "Digital Transformation", Insight: "Leaders are expected to understand AI adoption well enough to steer it.", Source: "HBR 2024", RelevanceScore: 95},
		{Topic: "Employee Experience (EX)", Insight: "Retaining younger staff depends on visible growth experiences.", Source: "Gartner HR Trends", RelevanceScore: 88},
		{Topic: "Data Driven Decision", Insight: "Decision cultures are shifting from intuition to evidence.", Source: "McKinsey", RelevanceScore: 92},
	}
}

// SampleStrategies returns three fixed strategies with review scores.
func SampleStrategies(a domain.Analysis) []domain.Strategy {
	program := domain.CoalesceStr(a.ProgramName, "the program")
	return []domain.Strategy{
		{
			ID: "strategy-1", Title: "Hands-on transformation lab",
			Description:   fmt.Sprintf("Run %s as a series of practical labs on real business cases.", program),
			Keywords:      []string{"practice", "case study", "DT"},
			Rationale:     "Matches the request for practice-oriented sessions.",
			QualityScore:  88,
			QualityAdvice: "Name the client cases used in each lab.",
		},
		{
			ID: "strategy-2", Title: "Data-driven leadership track",
			Description:   "Anchor every module on decisions backed by team data.",
			Keywords:      []string{"data literacy", "decision making"},
			Rationale:     "Builds on the data-driven decision objective.",
			QualityScore:  84,
			QualityAdvice: "Add a pre-assessment to baseline data skills.",
		},
		{
			ID: "strategy-3", Title: "Coaching-first culture program",
			Description:   "Focus on coaching conversations across generations.",
			Keywords:      []string{"coaching", "communication", "MZ generation"},
			Rationale:     "Addresses retention pressure highlighted by current trends.",
			QualityScore:  79,
			QualityAdvice: "Link the coaching model to measurable follow-up.",
		},
	}
}

var sampleInstructors = []string{"Chulsoo Kim, Principal", "Younghee Lee, Director"}

// SampleMatches pairs each module with a house course, deterministically.
func SampleMatches(modules []string, trends []domain.TrendInsight) []domain.CourseMatch {
	topic := "current trends"
	if len(trends) > 0 {
		topic = trends[0].Topic
	}
	matches := make([]domain.CourseMatch, len(modules))
	for i, mod := range modules {
		matches[i] = domain.CourseMatch{
			ID:          fmt.Sprintf("course-%d", i),
			ModuleName:  mod,
			CourseTitle: "Expert " + mod + " Master Class",
			Instructor:  sampleInstructors[i%len(sampleInstructors)],
			MatchReason: fmt.Sprintf("Selected to reflect the trend analysis (%s).", topic),
			MatchScore:  90 + (i*3)%10,
			IsExternal:  false,
		}
	}
	return matches
}

// SampleQuality returns a fixed assessment of an assembled proposal.
func SampleQuality() domain.QualityAssessment {
	return domain.QualityAssessment{
		ComplianceScore:           92,
		ComplianceReason:          "All requested modules are covered and the schedule and audience match the RFP.",
		InstructorExpertiseScore:  88,
		InstructorExpertiseReason: "Instructor profiles fit the topics; advanced topics may need an external expert.",
		IndustryMatchScore:        85,
		IndustryMatchReason:       "Cases suit the industry but a more specific case study is recommended.",
		TotalScore:                89,
		OverallComment:            "A strong proposal. Strengthening the trend section would raise the win rate.",
	}
}

// HeuristicHistoryQuality estimates the quality of an archived proposal from
// its summary alone.
func HeuristicHistoryQuality(p domain.HistoricalProposal) domain.QualityAssessment {
	compliance := domain.ClampScore(55 + 10*min(len(p.Tags), 4))
	industry := 50
	if p.Industry != "" {
		industry = 75
	}
	expertise := 70
	q := domain.QualityAssessment{
		ComplianceScore:           compliance,
		ComplianceReason:          fmt.Sprintf("%d requested modules on record.", len(p.Tags)),
		InstructorExpertiseScore:  expertise,
		InstructorExpertiseReason: "No instructor data is kept on archived proposals.",
		IndustryMatchScore:        industry,
		IndustryMatchReason:       "Based on whether the client industry was captured.",
		TotalScore:                (compliance + expertise + industry) / 3,
	}
	q.OverallComment = fmt.Sprintf("Heuristic estimate for a %s proposal.", p.Status)
	return q
}

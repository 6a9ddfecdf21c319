package intelligence

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alexanderramin/rfpilot/internal/domain"
)

const jsonOnlyRule = "\n\nRespond with JSON only. No markdown, no commentary."

const analyzeSystemPrompt = `You are an expert RFP analyst for a corporate training company.
Extract the key information from the proposal request: client name, industry,
department, program name, objectives, target audience, schedule, location,
requested modules and special requests. Do not invent facts that are not in
the documents; leave a field empty when it is unknown.`

const trendsSystemPrompt = `You research HRD and business leadership trends.
For the given training modules, produce 3 current, enterprise-level trend
insights with a source and a relevance score from 0 to 100.`

const strategySystemPrompt = `You are a proposal strategist for corporate training.
Given the analysed requirements and trend insights, propose 3 distinct
proposal strategies. Each needs a short title, a description, 3-5 keywords
and a rationale tied to the client's objectives.`

const strategyReviewSystemPrompt = `You are a strict proposal quality reviewer.
Score each strategy from 0 to 100 for fit with the requirements and give one
sentence of concrete advice to improve it.`

const matchSystemPrompt = `You are an expert curriculum planner.
Match every requested module with the best internal course and instructor.
Justify each match using the trend insights, and give a match score from 0 to
100. Set isExternal to false unless no internal instructor fits.`

const qualitySystemPrompt = `You are a strict quality assurance auditor for training proposals.
Evaluate the proposal on: 1. compliance with the RFP objectives and modules,
2. instructor expertise match, 3. industry fit for the target audience.
Give each a score from 0 to 100 with a reason, then a total score and an
overall comment.`

const historySystemPrompt = `You review archived training proposals.
From the proposal summary, estimate compliance, instructor expertise and
industry fit scores from 0 to 100 with reasons, then a total score and an
overall comment explaining the likely outcome.`

func analyzePrompt(files []domain.FileMeta, excerpts ExcerptReader) string {
	var b strings.Builder
	if len(files) == 0 {
		b.WriteString("No documents were uploaded. Return an empty analysis.\n")
	}
	for i, f := range files {
		fmt.Fprintf(&b, "Document %d: %s (%d bytes)\n", i+1, f.FileName, f.Size)
		if text := excerpts.Excerpt(f); text != "" {
			fmt.Fprintf(&b, "---\n%s\n---\n", text)
		}
	}
	b.WriteString(`
JSON format:
{"clientName": string, "industry": string, "department": string,
 "programName": string, "objectives": [string], "targetAudience": string,
 "schedule": string, "location": string, "modules": [string],
 "specialRequests": string}`)
	return b.String()
}

func trendsPrompt(modules []string) string {
	return fmt.Sprintf(`Modules: %s

JSON format:
[{"topic": string, "insight": string, "source": string, "relevanceScore": number}]`,
		strings.Join(modules, ", "))
}

func strategyPrompt(analysis domain.Analysis, trends []domain.TrendInsight) string {
	return fmt.Sprintf(`Requirements: %s
Trends: %s

JSON format:
[{"id": string, "title": string, "description": string, "keywords": [string], "rationale": string}]`,
		mustJSON(analysis), trendSummary(trends))
}

func strategyReviewPrompt(analysis domain.Analysis, strategies []domain.Strategy) string {
	return fmt.Sprintf(`Requirements: %s
Strategies: %s

JSON format:
[{"id": string, "qualityScore": number, "qualityAdvice": string}]`,
		mustJSON(analysis), mustJSON(strategies))
}

func matchPrompt(modules []string, trends []domain.TrendInsight) string {
	return fmt.Sprintf(`Required modules: %s
Trend insights: %s

JSON format:
[{"id": string, "moduleName": string, "courseTitle": string, "instructor": string,
  "matchReason": string, "matchScore": number, "isExternal": boolean}]`,
		strings.Join(modules, ", "), trendSummary(trends))
}

func qualityPrompt(analysis domain.Analysis, matches []domain.CourseMatch) string {
	return fmt.Sprintf(`Requirements: %s
Matched courses: %s
%s`, mustJSON(analysis), mustJSON(matches), qualityFormat)
}

func historyPrompt(p domain.HistoricalProposal) string {
	return fmt.Sprintf(`Title: %s
Client: %s
Industry: %s
Modules: %s
Outcome: %s
%s`, p.Title, p.ClientName, p.Industry, strings.Join(p.Tags, ", "), p.Status, qualityFormat)
}

const qualityFormat = `
JSON format:
{"complianceScore": number, "complianceReason": string,
 "instructorExpertiseScore": number, "instructorExpertiseReason": string,
 "industryMatchScore": number, "industryMatchReason": string,
 "totalScore": number, "overallComment": string}`

func trendSummary(trends []domain.TrendInsight) string {
	if len(trends) == 0 {
		return "none"
	}
	parts := make([]string, len(trends))
	for i, t := range trends {
		parts[i] = t.Topic + ": " + t.Insight
	}
	return strings.Join(parts, "; ")
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

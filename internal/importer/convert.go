package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/google/uuid"
)

// Convert transforms a validated ImportSchema into historical proposals ready
// for persistence. Call ValidateImportSchema first; Convert assumes the
// schema is valid.
func Convert(schema *ImportSchema, now time.Time) ([]*domain.HistoricalProposal, error) {
	now = now.UTC()
	out := make([]*domain.HistoricalProposal, 0, len(schema.Proposals))

	for i, p := range schema.Proposals {
		date, err := time.Parse(dateLayout, p.Date)
		if err != nil {
			return nil, fmt.Errorf("proposals[%d]: parsing date: %w", i, err)
		}
		status, err := domain.ParseProposalStatus(p.Status)
		if err != nil {
			return nil, fmt.Errorf("proposals[%d]: %w", i, err)
		}

		id := p.ID
		if id == "" {
			id = uuid.New().String()
		}
		tags := make([]string, 0, len(p.Tags))
		for _, tag := range p.Tags {
			tags = append(tags, strings.TrimSpace(tag))
		}

		hp := &domain.HistoricalProposal{
			ID:         id,
			Title:      strings.TrimSpace(p.Title),
			ClientName: p.ClientName,
			Industry:   p.Industry,
			Date:       date.UTC(),
			Tags:       tags,
			FileName:   p.FileName,
			Status:     status,
			CreatedAt:  now,
		}
		if p.Quality != nil {
			qa := p.Quality.assessment()
			hp.Quality = &qa
		}
		out = append(out, hp)
	}
	return out, nil
}

func (q *QualityImport) assessment() domain.QualityAssessment {
	return domain.QualityAssessment{
		ComplianceScore:           q.Compliance,
		ComplianceReason:          q.ComplianceReason,
		InstructorExpertiseScore:  q.Expertise,
		InstructorExpertiseReason: q.ExpertiseReason,
		IndustryMatchScore:        q.IndustryMatch,
		IndustryMatchReason:       q.IndustryMatchReason,
		TotalScore:                q.Total,
		OverallComment:            q.Comment,
	}
}

package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/rfpilot/internal/domain"
)

const dateLayout = "2006-01-02"

// ValidateImportSchema checks the import schema for errors before conversion.
// Returns a slice of all validation errors found.
func ValidateImportSchema(schema *ImportSchema) []error {
	if len(schema.Proposals) == 0 {
		return []error{fmt.Errorf("proposals: at least one proposal is required")}
	}

	var errs []error
	ids := make(map[string]int)
	for i := range schema.Proposals {
		p := &schema.Proposals[i]
		errs = append(errs, validateProposal(i, p)...)
		if p.ID == "" {
			continue
		}
		if first, dup := ids[p.ID]; dup {
			errs = append(errs, fmt.Errorf("proposals[%d].id: duplicate id %q (first used by proposals[%d])", i, p.ID, first))
			continue
		}
		ids[p.ID] = i
	}
	return errs
}

func validateProposal(i int, p *ProposalImport) []error {
	var errs []error
	prefix := fmt.Sprintf("proposals[%d]", i)

	if strings.TrimSpace(p.Title) == "" {
		errs = append(errs, fmt.Errorf("%s.title is required", prefix))
	}
	if p.Date == "" {
		errs = append(errs, fmt.Errorf("%s.date is required", prefix))
	} else if _, err := time.Parse(dateLayout, p.Date); err != nil {
		errs = append(errs, fmt.Errorf("%s.date: invalid date format %q (expected YYYY-MM-DD)", prefix, p.Date))
	}
	if p.Status == "" {
		errs = append(errs, fmt.Errorf("%s.status is required", prefix))
	} else if _, err := domain.ParseProposalStatus(p.Status); err != nil {
		errs = append(errs, fmt.Errorf("%s.status: %w", prefix, err))
	}
	for j, tag := range p.Tags {
		if strings.TrimSpace(tag) == "" {
			errs = append(errs, fmt.Errorf("%s.tags[%d] must not be blank", prefix, j))
		}
	}
	if p.Quality != nil {
		if err := domain.Validate(p.Quality.assessment()); err != nil {
			errs = append(errs, fmt.Errorf("%s.quality: %w", prefix, err))
		}
	}
	return errs
}

package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UntitledProject is the title used when a draft has no program name.
const UntitledProject = "Untitled Project"

// ErrInvalidOutcome indicates an archive request with a non-terminal status.
var ErrInvalidOutcome = errors.New("outcome must be Won or Lost")

// ProposalStatus is the business status of a proposal.
type ProposalStatus string

const (
	StatusDraft     ProposalStatus = "Draft"
	StatusReview    ProposalStatus = "Review"
	StatusCompleted ProposalStatus = "Completed"
	StatusSubmitted ProposalStatus = "Submitted"
	StatusWon       ProposalStatus = "Won"
	StatusLost      ProposalStatus = "Lost"
)

var proposalStatuses = []ProposalStatus{
	StatusDraft, StatusReview, StatusCompleted, StatusSubmitted, StatusWon, StatusLost,
}

// Terminal reports whether the status ends a draft's life (Won or Lost).
func (s ProposalStatus) Terminal() bool {
	return s == StatusWon || s == StatusLost
}

// ParseProposalStatus resolves a status name case-insensitively.
func ParseProposalStatus(name string) (ProposalStatus, error) {
	for _, s := range proposalStatuses {
		if strings.EqualFold(string(s), strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown proposal status %q", name)
}

// HistoricalProposal is the permanent record left behind by an archived draft.
type HistoricalProposal struct {
	ID         string
	DraftID    string
	Title      string
	ClientName string
	Industry   string
	Date       time.Time
	Tags       []string
	FileName   string
	Status     ProposalStatus
	Quality    *QualityAssessment
	CreatedAt  time.Time
}

// Clone returns a deep copy of p.
func (p *HistoricalProposal) Clone() *HistoricalProposal {
	if p == nil {
		return nil
	}
	c := *p
	c.Tags = slices.Clone(p.Tags)
	if p.Quality != nil {
		q := *p.Quality
		c.Quality = &q
	}
	return &c
}

// NewHistoricalProposal derives the archived snapshot of d with the given
// terminal outcome. Tags are the analysed modules, or empty without analysis.
func NewHistoricalProposal(d *Draft, outcome ProposalStatus, now time.Time) (*HistoricalProposal, error) {
	if !outcome.Terminal() {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidOutcome, outcome)
	}

	now = now.UTC()
	p := &HistoricalProposal{
		ID:        uuid.New().String(),
		DraftID:   d.ID,
		Title:     UntitledProject,
		Date:      now,
		Tags:      []string{},
		Status:    outcome,
		CreatedAt: now,
	}
	if a := d.Analysis; a != nil {
		p.Title = CoalesceStr(a.ProgramName, UntitledProject)
		p.ClientName = a.ClientName
		p.Industry = a.Industry
		if a.Modules != nil {
			p.Tags = slices.Clone(a.Modules)
		}
	}
	if len(d.Files) > 0 {
		p.FileName = d.Files[0].FileName
	}
	return p, nil
}

package service

import (
	"context"
	"time"

	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/spf13/afero"
)

// DraftSummary is one row of the draft dashboard.
type DraftSummary struct {
	ID          string
	Title       string
	Step        domain.Step
	StepLabel   string
	Progress    int
	FileCount   int
	LastUpdated time.Time
}

type DraftService interface {
	List(ctx context.Context) ([]DraftSummary, error)
	Get(ctx context.Context, id string) (*domain.Draft, error)
	Delete(ctx context.Context, id string) error
	Archive(ctx context.Context, id string, outcome domain.ProposalStatus) (*domain.HistoricalProposal, error)
}

type HistoryService interface {
	List(ctx context.Context) ([]*domain.HistoricalProposal, error)
	// Search filters List by a case-insensitive match on title, client or
	// industry. An empty query matches everything.
	Search(ctx context.Context, query string) ([]*domain.HistoricalProposal, error)
	Get(ctx context.Context, id string) (*domain.HistoricalProposal, error)
	// Import loads past proposals from a JSON or YAML file on fs. Either
	// every proposal in the file is stored or none is.
	Import(ctx context.Context, fs afero.Fs, path string) ([]*domain.HistoricalProposal, error)
	// Evaluate scores a proposal that has no assessment yet. A stored
	// assessment is returned as is.
	Evaluate(ctx context.Context, id string) (*domain.HistoricalProposal, error)
	// EvaluatePending scores every unscored proposal, at most concurrency at
	// a time, and returns how many assessments were stored.
	EvaluatePending(ctx context.Context, concurrency int) (int, error)
}

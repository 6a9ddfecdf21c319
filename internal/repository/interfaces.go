package repository

import (
	"context"

	"github.com/alexanderramin/rfpilot/internal/domain"
)

// DraftRepo persists in-progress proposals. Each call is atomic: a reader
// never observes a partially merged draft.
type DraftRepo interface {
	Create(ctx context.Context, files []domain.FileMeta) (string, error)
	GetByID(ctx context.Context, id string) (*domain.Draft, error)
	// List returns drafts ordered by LastUpdated, newest first.
	List(ctx context.Context) ([]*domain.Draft, error)
	Update(ctx context.Context, id string, patch domain.DraftPatch) (*domain.Draft, error)
	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
	// Archive removes the draft and records its outcome in one step.
	Archive(ctx context.Context, id string, outcome domain.ProposalStatus) (*domain.HistoricalProposal, error)
}

type HistoryRepo interface {
	Create(ctx context.Context, p *domain.HistoricalProposal) error
	// CreateAll inserts a batch atomically.
	CreateAll(ctx context.Context, ps []*domain.HistoricalProposal) error
	GetByID(ctx context.Context, id string) (*domain.HistoricalProposal, error)
	// List returns proposals ordered by Date, newest first.
	List(ctx context.Context) ([]*domain.HistoricalProposal, error)
	// AttachQuality stores qa only when the proposal has no assessment yet
	// and returns the stored record either way.
	AttachQuality(ctx context.Context, id string, qa domain.QualityAssessment) (*domain.HistoricalProposal, error)
}

package service

import (
	"context"
	"time"

	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/alexanderramin/rfpilot/internal/repository"
	"github.com/alexanderramin/rfpilot/internal/workflow"
)

type draftService struct {
	drafts   repository.DraftRepo
	pipeline workflow.Pipeline
	observer UseCaseObserver
}

func NewDraftService(drafts repository.DraftRepo, pipeline workflow.Pipeline, observers ...UseCaseObserver) DraftService {
	return &draftService{
		drafts:   drafts,
		pipeline: pipeline,
		observer: combineObservers(observers),
	}
}

func (s *draftService) List(ctx context.Context) ([]DraftSummary, error) {
	drafts, err := s.drafts.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DraftSummary, 0, len(drafts))
	for _, d := range drafts {
		out = append(out, DraftSummary{
			ID:          d.ID,
			Title:       d.DisplayTitle(),
			Step:        d.Step,
			StepLabel:   d.Step.Label(),
			Progress:    s.pipeline.Progress(d.Step),
			FileCount:   len(d.Files),
			LastUpdated: d.LastUpdated,
		})
	}
	return out, nil
}

func (s *draftService) Get(ctx context.Context, id string) (*domain.Draft, error) {
	return s.drafts.GetByID(ctx, id)
}

func (s *draftService) Delete(ctx context.Context, id string) (err error) {
	startedAt := time.Now()
	defer func() {
		observe(ctx, s.observer, "delete-draft", startedAt, map[string]any{"draft_id": id}, err)
	}()
	return s.drafts.Delete(ctx, id)
}

func (s *draftService) Archive(ctx context.Context, id string, outcome domain.ProposalStatus) (hp *domain.HistoricalProposal, err error) {
	startedAt := time.Now()
	fields := map[string]any{"draft_id": id, "outcome": string(outcome)}
	defer func() {
		observe(ctx, s.observer, "archive-draft", startedAt, fields, err)
	}()

	hp, err = s.drafts.Archive(ctx, id, outcome)
	if err != nil {
		return nil, err
	}
	fields["history_id"] = hp.ID
	return hp, nil
}

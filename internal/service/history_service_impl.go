package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/alexanderramin/rfpilot/internal/importer"
	"github.com/alexanderramin/rfpilot/internal/intelligence"
	"github.com/alexanderramin/rfpilot/internal/repository"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

type historyService struct {
	history  repository.HistoryRepo
	agents   intelligence.Agents
	opts     intelligence.CallOptions
	observer UseCaseObserver
	group    singleflight.Group
}

func NewHistoryService(history repository.HistoryRepo, agents intelligence.Agents, opts intelligence.CallOptions, observers ...UseCaseObserver) HistoryService {
	return &historyService{
		history:  history,
		agents:   agents,
		opts:     opts,
		observer: combineObservers(observers),
	}
}

func (s *historyService) List(ctx context.Context) ([]*domain.HistoricalProposal, error) {
	return s.history.List(ctx)
}

func (s *historyService) Search(ctx context.Context, query string) ([]*domain.HistoricalProposal, error) {
	all, err := s.history.List(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return all, nil
	}
	var out []*domain.HistoricalProposal
	for _, p := range all {
		for _, field := range []string{p.Title, p.ClientName, p.Industry} {
			if strings.Contains(strings.ToLower(field), query) {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

// ErrInvalidImport wraps the validation failures of an import file.
var ErrInvalidImport = errors.New("invalid import file")

func (s *historyService) Import(ctx context.Context, fs afero.Fs, path string) (proposals []*domain.HistoricalProposal, err error) {
	startedAt := time.Now()
	fields := map[string]any{"path": path}
	defer func() {
		if err == nil {
			fields["count"] = len(proposals)
		}
		observe(ctx, s.observer, "import-history", startedAt, fields, err)
	}()

	schema, err := importer.LoadImportSchema(fs, path)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	if errs := importer.ValidateImportSchema(schema); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImport, errors.Join(errs...))
	}
	proposals, err = importer.Convert(schema, time.Now())
	if err != nil {
		return nil, fmt.Errorf("converting import schema: %w", err)
	}
	if err := s.history.CreateAll(ctx, proposals); err != nil {
		return nil, fmt.Errorf("storing imported proposals: %w", err)
	}
	return proposals, nil
}

func (s *historyService) Get(ctx context.Context, id string) (*domain.HistoricalProposal, error) {
	return s.history.GetByID(ctx, id)
}

type evaluation struct {
	proposal *domain.HistoricalProposal
	stored   bool
}

func (s *historyService) Evaluate(ctx context.Context, id string) (*domain.HistoricalProposal, error) {
	ev, err := s.evaluate(ctx, id)
	if err != nil {
		return nil, err
	}
	return ev.proposal, nil
}

// evaluate runs at most one evaluation per proposal at a time; concurrent
// callers share its result. The shared call is detached from any caller's
// cancellation, and each caller stops waiting when its own ctx ends.
func (s *historyService) evaluate(ctx context.Context, id string) (evaluation, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(id, func() (any, error) {
		startedAt := time.Now()
		fields := map[string]any{"history_id": id}
		ev, err := s.evaluateOnce(shared, id, fields)
		observe(shared, s.observer, "evaluate-proposal", startedAt, fields, err)
		return ev, err
	})

	select {
	case <-ctx.Done():
		return evaluation{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return evaluation{}, r.Err
		}
		ev := r.Val.(evaluation)
		return evaluation{proposal: ev.proposal.Clone(), stored: ev.stored}, nil
	}
}

func (s *historyService) evaluateOnce(ctx context.Context, id string, fields map[string]any) (evaluation, error) {
	p, err := s.history.GetByID(ctx, id)
	if err != nil {
		return evaluation{}, err
	}
	if p.Quality != nil {
		fields["cached"] = true
		return evaluation{proposal: p}, nil
	}

	res, err := s.agents.EvaluateHistoricalProposal(ctx, *p, s.opts)
	if err != nil {
		return evaluation{}, fmt.Errorf("evaluating %s: %w", id, err)
	}
	if res.Degraded {
		// Sample scores are shown but not kept, so a later run with a
		// working model can still evaluate the proposal.
		fields["degraded"] = res.Reason
		qa := res.Value
		p.Quality = &qa
		return evaluation{proposal: p}, nil
	}

	stored, err := s.history.AttachQuality(ctx, id, res.Value)
	if err != nil {
		return evaluation{}, err
	}
	fields["total_score"] = stored.Quality.TotalScore
	return evaluation{proposal: stored, stored: true}, nil
}

func (s *historyService) EvaluatePending(ctx context.Context, concurrency int) (int, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	all, err := s.history.List(ctx)
	if err != nil {
		return 0, err
	}

	var stored atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, p := range all {
		if p.Quality != nil {
			continue
		}
		id := p.ID
		g.Go(func() error {
			ev, err := s.evaluate(gctx, id)
			if err != nil {
				return err
			}
			if ev.stored {
				stored.Add(1)
			}
			return nil
		})
	}
	err = g.Wait()
	return int(stored.Load()), err
}

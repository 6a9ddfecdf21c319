package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/google/uuid"
)

// MemoryDraftRepo is an in-memory DraftRepo. Records are copied on every read
// and write, so callers never share state with the store.
type MemoryDraftRepo struct {
	mu      sync.RWMutex
	drafts  map[string]*domain.Draft
	history *MemoryHistoryRepo
	now     func() time.Time
}

// NewMemoryDraftRepo creates an empty store. Archived drafts are recorded in
// history; a nil history gets a private one.
func NewMemoryDraftRepo(history *MemoryHistoryRepo) *MemoryDraftRepo {
	if history == nil {
		history = NewMemoryHistoryRepo()
	}
	return &MemoryDraftRepo{
		drafts:  make(map[string]*domain.Draft),
		history: history,
		now:     time.Now,
	}
}

func (r *MemoryDraftRepo) Create(_ context.Context, files []domain.FileMeta) (string, error) {
	if err := domain.ValidateEach(files); err != nil {
		return "", fmt.Errorf("creating draft: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	d := &domain.Draft{
		ID:          uuid.New().String(),
		LastUpdated: r.now().UTC(),
		Step:        domain.StepUpload,
		Files:       append([]domain.FileMeta{}, files...),
	}
	r.drafts[d.ID] = d
	return d.ID, nil
}

func (r *MemoryDraftRepo) GetByID(_ context.Context, id string) (*domain.Draft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drafts[id]
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	return d.Clone(), nil
}

func (r *MemoryDraftRepo) List(_ context.Context) ([]*domain.Draft, error) {
	r.mu.RLock()
	out := make([]*domain.Draft, 0, len(r.drafts))
	for _, d := range r.drafts {
		out = append(out, d.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastUpdated.Equal(out[j].LastUpdated) {
			return out[i].LastUpdated.After(out[j].LastUpdated)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryDraftRepo) Update(_ context.Context, id string, patch domain.DraftPatch) (*domain.Draft, error) {
	if patch.Step.Set && !patch.Step.Value.Valid() {
		return nil, fmt.Errorf("updating draft: invalid step %d", int(patch.Step.Value))
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.drafts[id]
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	next := current.Clone()
	next.Apply(patch, r.now())
	r.drafts[id] = next
	return next.Clone(), nil
}

func (r *MemoryDraftRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, id)
	return nil
}

func (r *MemoryDraftRepo) Archive(_ context.Context, id string, outcome domain.ProposalStatus) (*domain.HistoricalProposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.drafts[id]
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	p, err := domain.NewHistoricalProposal(d, outcome, r.now())
	if err != nil {
		return nil, err
	}
	r.history.insert(p)
	delete(r.drafts, id)
	return p.Clone(), nil
}

// MemoryHistoryRepo is an in-memory HistoryRepo.
type MemoryHistoryRepo struct {
	mu      sync.RWMutex
	records map[string]*domain.HistoricalProposal
}

func NewMemoryHistoryRepo() *MemoryHistoryRepo {
	return &MemoryHistoryRepo{records: make(map[string]*domain.HistoricalProposal)}
}

func (r *MemoryHistoryRepo) insert(p *domain.HistoricalProposal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[p.ID] = p.Clone()
}

func (r *MemoryHistoryRepo) Create(_ context.Context, p *domain.HistoricalProposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[p.ID]; exists {
		return fmt.Errorf("historical proposal %s already exists", p.ID)
	}
	r.records[p.ID] = p.Clone()
	return nil
}

// CreateAll inserts every proposal or none of them.
func (r *MemoryHistoryRepo) CreateAll(_ context.Context, ps []*domain.HistoricalProposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool, len(ps))
	for _, p := range ps {
		if _, exists := r.records[p.ID]; exists || seen[p.ID] {
			return fmt.Errorf("historical proposal %s already exists", p.ID)
		}
		seen[p.ID] = true
	}
	for _, p := range ps {
		r.records[p.ID] = p.Clone()
	}
	return nil
}

func (r *MemoryHistoryRepo) GetByID(_ context.Context, id string) (*domain.HistoricalProposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("historical proposal %s: %w", id, ErrNotFound)
	}
	return p.Clone(), nil
}

func (r *MemoryHistoryRepo) List(_ context.Context) ([]*domain.HistoricalProposal, error) {
	r.mu.RLock()
	out := make([]*domain.HistoricalProposal, 0, len(r.records))
	for _, p := range r.records {
		out = append(out, p.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryHistoryRepo) AttachQuality(_ context.Context, id string, qa domain.QualityAssessment) (*domain.HistoricalProposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("historical proposal %s: %w", id, ErrNotFound)
	}
	if p.Quality == nil {
		next := p.Clone()
		next.Quality = &qa
		r.records[id] = next
		p = next
	}
	return p.Clone(), nil
}

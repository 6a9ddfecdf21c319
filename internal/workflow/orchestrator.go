package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/alexanderramin/rfpilot/internal/intelligence"
)

// DraftStore is the persistence the orchestrator syncs sessions into.
type DraftStore interface {
	Create(ctx context.Context, files []domain.FileMeta) (string, error)
	GetByID(ctx context.Context, id string) (*domain.Draft, error)
	Update(ctx context.Context, id string, patch domain.DraftPatch) (*domain.Draft, error)
	Archive(ctx context.Context, id string, outcome domain.ProposalStatus) (*domain.HistoricalProposal, error)
}

// SlideAssembler builds the preview deck.
type SlideAssembler interface {
	Assemble(analysis *domain.Analysis, trends []domain.TrendInsight, matches []domain.CourseMatch) ([]domain.Slide, error)
}

// OptionsProvider returns the agent settings for a step.
type OptionsProvider interface {
	CallOptions(step domain.Step) intelligence.CallOptions
}

// Orchestrator drives sessions through the pipeline: it requests generation
// for the current step, commits confirmed candidates, moves between steps
// and syncs drafts into the store when asked to.
type Orchestrator struct {
	pipeline Pipeline
	agents   intelligence.Agents
	slides   SlideAssembler
	drafts   DraftStore
	options  OptionsProvider
	logger   *slog.Logger
}

// NewOrchestrator wires an Orchestrator. options and logger may be nil.
func NewOrchestrator(pipeline Pipeline, agents intelligence.Agents, slides SlideAssembler, drafts DraftStore, options OptionsProvider, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		pipeline: pipeline,
		agents:   agents,
		slides:   slides,
		drafts:   drafts,
		options:  options,
		logger:   logger,
	}
}

// Pipeline returns the step sequence this orchestrator runs.
func (o *Orchestrator) Pipeline() Pipeline {
	return o.pipeline
}

// StartNew returns a fresh session at the upload step with no draft.
func (o *Orchestrator) StartNew() *Session {
	return newSession(domain.StepUpload)
}

// Resume rebuilds a session from a stored draft. Outputs of earlier steps
// become committed; the current step's own output, when present, becomes
// its ready candidate.
func (o *Orchestrator) Resume(d *domain.Draft) (*Session, error) {
	if err := o.pipeline.ValidateDraft(d); err != nil {
		return nil, err
	}

	s := newSession(d.Step)
	s.draftID = d.ID
	s.lastUpdated = d.LastUpdated
	for _, step := range o.pipeline.Steps() {
		if step > d.Step {
			break
		}
		p, present := payloadFromDraft(step, d)
		if step < d.Step || present {
			s.committed[step] = p
		}
	}
	s.presentLocked()

	o.logger.Info("draft resumed", "draft_id", d.ID, "step", d.Step.String())
	return s, nil
}

// ResumeByID loads a draft from the store and resumes it.
func (o *Orchestrator) ResumeByID(ctx context.Context, id string) (*Session, error) {
	d, err := o.drafts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load draft %s: %w", id, err)
	}
	return o.Resume(d)
}

// Invoke starts generation for the current step and returns a channel that
// is closed once the result has been applied or discarded. ctx bounds the
// generation call.
func (o *Orchestrator) Invoke(ctx context.Context, s *Session) (<-chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := o.checkGenerator(s.step); err != nil {
		return nil, err
	}
	switch s.candidate.Status {
	case CandidateIdle:
	case CandidatePending:
		return nil, ErrGenerationInFlight
	default:
		return nil, fmt.Errorf("%w: candidate is %s", ErrRegenerateRequired, s.candidate.Status)
	}
	return o.startLocked(ctx, s)
}

// Regenerate cancels any pending call for the current step, drops the
// current candidate and generates again.
func (o *Orchestrator) Regenerate(ctx context.Context, s *Session) (<-chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := o.checkGenerator(s.step); err != nil {
		return nil, err
	}
	s.cancelInflightLocked()
	return o.startLocked(ctx, s)
}

// Wait blocks until the pending generation, if any, completes and returns
// the resulting candidate.
func (o *Orchestrator) Wait(ctx context.Context, s *Session) (Candidate, error) {
	s.mu.Lock()
	var done chan struct{}
	if s.inflight != nil {
		done = s.inflight.done
	}
	s.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return Candidate{}, ctx.Err()
		}
	}
	return s.Candidate(), nil
}

// Advance commits the reviewed candidate and moves to the next step. With
// persist the new snapshot is written to the store first, creating the draft
// on the first sync; if that fails the session does not move.
func (o *Orchestrator) Advance(ctx context.Context, s *Session, persist bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := o.pipeline.Next(s.step)
	if err != nil {
		return err
	}
	switch s.candidate.Status {
	case CandidatePending:
		return ErrGenerationInFlight
	case CandidateIdle:
		return fmt.Errorf("%w at %s", ErrNoCandidate, s.step)
	case CandidateFailed:
		return fmt.Errorf("%w: last generation failed: %v", ErrRegenerateRequired, s.candidate.Err)
	}
	if err := validatePayload(s.step, s.candidate.Payload); err != nil {
		return err
	}

	committed := cloneCommitted(s.committed)
	committed[s.step] = s.candidate.Payload.Clone()

	if persist {
		if err := o.syncLocked(ctx, s, next, committed); err != nil {
			return err
		}
	}

	from := s.step
	s.committed = committed
	s.step = next
	s.seq++
	s.presentLocked()

	o.logger.Info("step advanced",
		"draft_id", s.draftID, "from", from.String(), "to", next.String(), "persist", persist)
	return nil
}

// Regress moves back one step. The earlier step's committed output becomes
// the candidate again; later outputs stay in the session but leave the
// persisted snapshot. Pending generation is cancelled.
func (o *Orchestrator) Regress(ctx context.Context, s *Session, persist bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := o.pipeline.Prev(s.step)
	if err != nil {
		return err
	}
	if persist {
		if err := o.syncLocked(ctx, s, prev, s.committed); err != nil {
			return err
		}
	}

	from := s.step
	s.cancelInflightLocked()
	s.step = prev
	s.seq++
	s.presentLocked()

	o.logger.Info("step regressed",
		"draft_id", s.draftID, "from", from.String(), "to", prev.String(), "persist", persist)
	return nil
}

// Archive closes the session's draft with a final outcome. The draft leaves
// the store, a historical record is written and the session completes.
func (o *Orchestrator) Archive(ctx context.Context, s *Session, outcome domain.ProposalStatus) (*domain.HistoricalProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draftID == "" {
		return nil, ErrNoDraft
	}
	if !outcome.Terminal() {
		return nil, fmt.Errorf("%w: got %q", domain.ErrInvalidOutcome, outcome)
	}
	hp, err := o.drafts.Archive(ctx, s.draftID, outcome)
	if err != nil {
		return nil, fmt.Errorf("archive draft %s: %w", s.draftID, err)
	}

	s.cancelInflightLocked()
	s.step = domain.StepComplete
	s.seq++
	s.candidate = Candidate{Step: domain.StepComplete, Status: CandidateIdle}

	o.logger.Info("draft archived", "draft_id", s.draftID, "outcome", string(outcome), "history_id", hp.ID)
	return hp, nil
}

// syncLocked writes the snapshot for step into the store, creating the draft
// if the session has none. The draft id is kept even when the update after
// creation fails, so a retry does not create a second draft.
func (o *Orchestrator) syncLocked(ctx context.Context, s *Session, step domain.Step, committed map[domain.Step]Payload) error {
	if s.draftID == "" {
		id, err := o.drafts.Create(ctx, committed[domain.StepUpload].Files)
		if err != nil {
			return fmt.Errorf("create draft: %w", err)
		}
		s.draftID = id
		o.logger.Info("draft created", "draft_id", id)
	}

	snap := draftSnapshot(s.draftID, step, committed, s.lastUpdated)
	updated, err := o.drafts.Update(ctx, s.draftID, domain.PatchFromDraft(snap))
	if err != nil {
		return fmt.Errorf("update draft %s: %w", s.draftID, err)
	}
	s.lastUpdated = updated.LastUpdated
	return nil
}

func (o *Orchestrator) checkGenerator(step domain.Step) error {
	if step == domain.StepUpload || step == domain.StepComplete || !o.pipeline.Contains(step) {
		return fmt.Errorf("%w: nothing to generate at %s", ErrInvalidTransition, step)
	}
	return nil
}

// stepInputs is the upstream context handed to a step's generator.
type stepInputs struct {
	files    []domain.FileMeta
	analysis *domain.Analysis
	trends   []domain.TrendInsight
	matches  []domain.CourseMatch
}

func (s *Session) inputsLocked() (stepInputs, error) {
	var in stepInputs
	for step, p := range s.committed {
		if step >= s.step {
			continue
		}
		switch step {
		case domain.StepUpload:
			in.files = p.Clone().Files
		case domain.StepAnalysis:
			in.analysis = p.Analysis.Clone()
		case domain.StepResearch:
			in.trends = p.Clone().Trends
		case domain.StepMatching:
			in.matches = p.Clone().Matches
		}
	}
	if s.step > domain.StepAnalysis && in.analysis == nil {
		return stepInputs{}, fmt.Errorf("%w: missing analysis at %s", ErrInvalidDraft, s.step)
	}
	return in, nil
}

func (o *Orchestrator) callOptions(s *Session, step domain.Step) intelligence.CallOptions {
	var opts intelligence.CallOptions
	if o.options != nil {
		opts = o.options.CallOptions(step)
	}
	if s.overrides.APIKey != "" {
		opts.APIKey = s.overrides.APIKey
	}
	if s.overrides.Model != "" {
		opts.Model = s.overrides.Model
	}
	return opts
}

func (o *Orchestrator) startLocked(ctx context.Context, s *Session) (<-chan struct{}, error) {
	in, err := s.inputsLocked()
	if err != nil {
		return nil, err
	}
	opts := o.callOptions(s, s.step)

	s.seq++
	tok := s.currentToken()
	gctx, cancel := context.WithCancel(ctx)
	gen := &generation{token: tok, cancel: cancel, done: make(chan struct{})}
	s.inflight = gen
	s.candidate = Candidate{Step: s.step, Status: CandidatePending}

	o.logger.Debug("generation started", "draft_id", tok.draftID, "step", tok.step.String(), "seq", tok.seq)

	go func() {
		defer close(gen.done)
		defer cancel()
		out, err := o.generate(gctx, tok.step, in, opts)
		o.complete(s, tok, out, err)
	}()
	return gen.done, nil
}

type stepOutput struct {
	payload  Payload
	degraded bool
	reason   string
}

func (o *Orchestrator) generate(ctx context.Context, step domain.Step, in stepInputs, opts intelligence.CallOptions) (stepOutput, error) {
	switch step {
	case domain.StepAnalysis:
		r, err := o.agents.AnalyzeRequirements(ctx, in.files, opts)
		if err != nil {
			return stepOutput{}, err
		}
		return stepOutput{Payload{Analysis: &r.Value}, r.Degraded, r.Reason}, nil

	case domain.StepResearch:
		r, err := o.agents.ResearchTrends(ctx, in.analysis.Modules, opts)
		if err != nil {
			return stepOutput{}, err
		}
		return stepOutput{Payload{Trends: r.Value}, r.Degraded, r.Reason}, nil

	case domain.StepStrategy:
		r, err := o.agents.ProposeStrategies(ctx, *in.analysis, in.trends, opts)
		if err != nil {
			return stepOutput{}, err
		}
		return stepOutput{Payload{Strategies: r.Value}, r.Degraded, r.Reason}, nil

	case domain.StepMatching:
		r, err := o.agents.MatchCurriculum(ctx, in.analysis.Modules, in.trends, opts)
		if err != nil {
			return stepOutput{}, err
		}
		return stepOutput{Payload{Matches: r.Value}, r.Degraded, r.Reason}, nil

	case domain.StepPreview:
		deck, err := o.slides.Assemble(in.analysis, in.trends, in.matches)
		if err != nil {
			return stepOutput{}, err
		}
		r, err := o.agents.EvaluateQuality(ctx, *in.analysis, in.matches, opts)
		if err != nil {
			return stepOutput{}, err
		}
		return stepOutput{Payload{Preview: &domain.Preview{Slides: deck, Quality: &r.Value}}, r.Degraded, r.Reason}, nil
	}
	return stepOutput{}, fmt.Errorf("%w: nothing to generate at %s", ErrInvalidTransition, step)
}

// complete applies a generation result if its token still matches the
// session. Stale results are dropped.
func (o *Orchestrator) complete(s *Session, tok token, out stepOutput, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight == nil || s.inflight.token != tok || s.currentToken() != tok {
		o.logger.Debug("discarding stale generation result",
			"draft_id", tok.draftID, "step", tok.step.String(), "seq", tok.seq)
		return
	}
	s.inflight = nil

	c := Candidate{Step: tok.step, Payload: out.payload}
	switch {
	case err != nil:
		c = Candidate{Step: tok.step, Status: CandidateFailed, Err: err}
		o.logger.Warn("generation failed", "draft_id", tok.draftID, "step", tok.step.String(), "error", err)
	case out.degraded:
		c.Status = CandidateDegraded
		c.Reason = out.reason
		o.logger.Info("generation degraded", "draft_id", tok.draftID, "step", tok.step.String(), "reason", out.reason)
	default:
		c.Status = CandidateReady
	}
	s.candidate = c
}

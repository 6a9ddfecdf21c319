package workflow

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/alexanderramin/rfpilot/internal/domain"
)

// CandidateStatus is the state of the output waiting for user review.
type CandidateStatus int

const (
	CandidateIdle CandidateStatus = iota
	CandidatePending
	CandidateReady
	CandidateDegraded
	CandidateFailed
)

var candidateStatusNames = [...]string{"idle", "pending", "ready", "degraded", "failed"}

func (c CandidateStatus) String() string {
	if int(c) < len(candidateStatusNames) {
		return candidateStatusNames[c]
	}
	return fmt.Sprintf("status(%d)", int(c))
}

// Reviewable reports whether the candidate can be edited and confirmed.
func (c CandidateStatus) Reviewable() bool {
	return c == CandidateReady || c == CandidateDegraded
}

// Payload is the output of one step. Only the fields of that step are set:
// Files for upload, Analysis, Trends, Strategies plus the selected Strategy,
// Matches, and Preview.
type Payload struct {
	Files      []domain.FileMeta
	Analysis   *domain.Analysis
	Trends     []domain.TrendInsight
	Strategies []domain.Strategy
	Strategy   *domain.Strategy
	Matches    []domain.CourseMatch
	Preview    *domain.Preview
}

// Clone returns a deep copy of p.
func (p Payload) Clone() Payload {
	return Payload{
		Files:      slices.Clone(p.Files),
		Analysis:   p.Analysis.Clone(),
		Trends:     slices.Clone(p.Trends),
		Strategies: domain.CloneStrategies(p.Strategies),
		Strategy:   p.Strategy.Clone(),
		Matches:    slices.Clone(p.Matches),
		Preview:    p.Preview.Clone(),
	}
}

// Candidate is the generated output of the current step awaiting review.
type Candidate struct {
	Step    domain.Step
	Status  CandidateStatus
	Payload Payload
	Reason  string // why content is degraded
	Err     error  // why generation failed
}

func (c Candidate) clone() Candidate {
	c.Payload = c.Payload.Clone()
	return c
}

// Overrides replaces per-agent settings for one session, such as an API key
// typed in by the user.
type Overrides struct {
	APIKey string
	Model  string
}

// token identifies one generation request. A result is applied only while
// the session still carries the same token.
type token struct {
	seq     uint64
	step    domain.Step
	draftID string
}

type generation struct {
	token  token
	cancel context.CancelFunc
	done   chan struct{}
}

// Session is the working state of one wizard run. Sessions are created by an
// Orchestrator and are safe for concurrent use.
//
// Committed outputs are kept for every confirmed step, including steps after
// the current one when the user went back. Only outputs up to the current
// step are part of the persisted snapshot.
type Session struct {
	mu          sync.Mutex
	draftID     string
	step        domain.Step
	lastUpdated time.Time
	committed   map[domain.Step]Payload
	candidate   Candidate
	inflight    *generation
	seq         uint64
	overrides   Overrides
}

func newSession(step domain.Step) *Session {
	return &Session{
		step:      step,
		committed: map[domain.Step]Payload{},
		candidate: Candidate{Step: step, Status: CandidateIdle},
	}
}

// DraftID returns the persisted draft id, or "" before the first sync.
func (s *Session) DraftID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftID
}

// Step returns the current step.
func (s *Session) Step() domain.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// LastUpdated returns the timestamp of the last persisted sync.
func (s *Session) LastUpdated() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdated
}

// Candidate returns a copy of the current candidate.
func (s *Session) Candidate() Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidate.clone()
}

// Committed returns a copy of the confirmed output of step, if any.
func (s *Session) Committed(step domain.Step) (Payload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.committed[step]
	return p.Clone(), ok
}

// SetOverrides replaces the session's per-call overrides.
func (s *Session) SetOverrides(o Overrides) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides = o
}

// SetFiles sets the upload candidate. Files can change only until the draft
// is first persisted.
func (s *Session) SetFiles(files []domain.FileMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != domain.StepUpload {
		return fmt.Errorf("%w: files can only be set at %s", ErrInvalidTransition, domain.StepUpload)
	}
	if s.draftID != "" {
		return ErrFilesImmutable
	}
	if err := domain.ValidateEach(files); err != nil {
		return fmt.Errorf("files: %w", err)
	}
	s.candidate = Candidate{
		Step:    domain.StepUpload,
		Status:  CandidateReady,
		Payload: Payload{Files: slices.Clone(files)},
	}
	return nil
}

// Edit applies fn to the candidate payload. It is allowed only while the
// candidate is ready or degraded; the draft record is not touched.
func (s *Session) Edit(fn func(p *Payload)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step == domain.StepUpload {
		return fmt.Errorf("%w: use SetFiles at %s", ErrInvalidTransition, domain.StepUpload)
	}
	if !s.candidate.Status.Reviewable() {
		return fmt.Errorf("%w: candidate is %s", ErrNoCandidate, s.candidate.Status)
	}
	p := s.candidate.Payload.Clone()
	fn(&p)
	s.candidate.Payload = p
	return nil
}

// SelectStrategy marks one of the proposed strategies as the user's choice.
func (s *Session) SelectStrategy(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step != domain.StepStrategy {
		return fmt.Errorf("%w: not at %s", ErrInvalidTransition, domain.StepStrategy)
	}
	if !s.candidate.Status.Reviewable() {
		return fmt.Errorf("%w: candidate is %s", ErrNoCandidate, s.candidate.Status)
	}
	for _, st := range s.candidate.Payload.Strategies {
		if st.ID == id {
			s.candidate.Payload.Strategy = st.Clone()
			return nil
		}
	}
	return fmt.Errorf("unknown strategy %q", id)
}

// Snapshot returns the draft record this session would persist now.
func (s *Session) Snapshot() *domain.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return draftSnapshot(s.draftID, s.step, s.committed, s.lastUpdated)
}

func (s *Session) currentToken() token {
	return token{seq: s.seq, step: s.step, draftID: s.draftID}
}

// cancelInflightLocked stops any pending generation. Its result, if it still
// arrives, no longer matches the session token.
func (s *Session) cancelInflightLocked() {
	if s.inflight != nil {
		s.inflight.cancel()
		s.inflight = nil
	}
}

// presentLocked makes the committed output of the current step, if any, the
// candidate again.
func (s *Session) presentLocked() {
	if p, ok := s.committed[s.step]; ok {
		s.candidate = Candidate{Step: s.step, Status: CandidateReady, Payload: p.Clone()}
		return
	}
	s.candidate = Candidate{Step: s.step, Status: CandidateIdle}
}

func cloneCommitted(in map[domain.Step]Payload) map[domain.Step]Payload {
	out := maps.Clone(in)
	for k, v := range out {
		out[k] = v.Clone()
	}
	return out
}

// draftSnapshot builds the persisted view: files plus the committed output
// of every step up to and including step.
func draftSnapshot(id string, step domain.Step, committed map[domain.Step]Payload, lastUpdated time.Time) *domain.Draft {
	d := &domain.Draft{ID: id, Step: step, LastUpdated: lastUpdated}
	if p, ok := committed[domain.StepUpload]; ok {
		d.Files = slices.Clone(p.Files)
	}
	if p, ok := committed[domain.StepAnalysis]; ok && step >= domain.StepAnalysis {
		d.Analysis = p.Analysis.Clone()
	}
	if p, ok := committed[domain.StepResearch]; ok && step >= domain.StepResearch {
		d.Trends = slices.Clone(p.Trends)
	}
	if p, ok := committed[domain.StepStrategy]; ok && step >= domain.StepStrategy {
		d.SelectedStrategy = p.Strategy.Clone()
	}
	if p, ok := committed[domain.StepMatching]; ok && step >= domain.StepMatching {
		d.Matches = slices.Clone(p.Matches)
	}
	return d
}

// payloadFromDraft extracts the stored output of step from d.
func payloadFromDraft(step domain.Step, d *domain.Draft) (Payload, bool) {
	switch step {
	case domain.StepUpload:
		return Payload{Files: slices.Clone(d.Files)}, true
	case domain.StepAnalysis:
		return Payload{Analysis: d.Analysis.Clone()}, d.Analysis != nil
	case domain.StepResearch:
		return Payload{Trends: slices.Clone(d.Trends)}, d.Trends != nil
	case domain.StepStrategy:
		p := Payload{Strategy: d.SelectedStrategy.Clone()}
		if d.SelectedStrategy != nil {
			p.Strategies = []domain.Strategy{*d.SelectedStrategy.Clone()}
		}
		return p, d.SelectedStrategy != nil
	case domain.StepMatching:
		return Payload{Matches: slices.Clone(d.Matches)}, d.Matches != nil
	default:
		return Payload{}, false
	}
}

// validatePayload checks a candidate before it is committed for step.
func validatePayload(step domain.Step, p Payload) error {
	switch step {
	case domain.StepUpload:
		return domain.ValidateEach(p.Files)
	case domain.StepAnalysis:
		if p.Analysis == nil {
			return fmt.Errorf("%w: analysis is empty", ErrNoCandidate)
		}
		return domain.Validate(p.Analysis)
	case domain.StepResearch:
		return domain.ValidateEach(p.Trends)
	case domain.StepStrategy:
		if p.Strategy == nil {
			return fmt.Errorf("%w: select a strategy first", ErrNotConfirmed)
		}
		return domain.Validate(p.Strategy)
	case domain.StepMatching:
		return domain.ValidateEach(p.Matches)
	}
	return nil
}

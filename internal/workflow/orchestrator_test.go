package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/alexanderramin/rfpilot/internal/intelligence"
	"github.com/alexanderramin/rfpilot/internal/repository"
	"github.com/alexanderramin/rfpilot/internal/slides"
	"github.com/alexanderramin/rfpilot/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	o      *Orchestrator
	agents *testutil.FakeAgents
	drafts *repository.MemoryDraftRepo
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	agents := testutil.NewFakeAgents()
	drafts := repository.NewMemoryDraftRepo(nil)
	o := NewOrchestrator(DefaultPipeline(), agents, slides.Assembler{Company: "Test Co"}, drafts, nil, nil)
	return fixture{o: o, agents: agents, drafts: drafts}
}

// generate invokes the current step and waits for its result.
func (f fixture) generate(t *testing.T, s *Session) Candidate {
	t.Helper()
	done, err := f.o.Invoke(context.Background(), s)
	require.NoError(t, err)
	waitDone(t, done)
	return s.Candidate()
}

// driveTo walks a new session up to step, persisting every advance.
func (f fixture) driveTo(t *testing.T, step domain.Step) *Session {
	t.Helper()
	ctx := context.Background()
	s := f.o.StartNew()
	require.NoError(t, s.SetFiles(testutil.NewTestFiles("rfp.pdf")))
	for s.Step() != step {
		if s.Step() != domain.StepUpload {
			c := f.generate(t, s)
			require.True(t, c.Status.Reviewable(), "generation at %s: %s", s.Step(), c.Status)
		}
		if s.Step() == domain.StepStrategy {
			require.NoError(t, s.SelectStrategy("strategy-1"))
		}
		require.NoError(t, f.o.Advance(ctx, s, true))
	}
	return s
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("generation did not finish")
	}
}

func TestStartNew(t *testing.T) {
	f := newFixture(t)
	s := f.o.StartNew()

	assert.Equal(t, domain.StepUpload, s.Step())
	assert.Empty(t, s.DraftID())
	assert.Equal(t, CandidateIdle, s.Candidate().Status)

	snap := s.Snapshot()
	assert.Nil(t, snap.Files)
	assert.Nil(t, snap.Analysis)
}

func TestAdvance_WithoutCandidate(t *testing.T) {
	f := newFixture(t)
	s := f.o.StartNew()

	err := f.o.Advance(context.Background(), s, true)
	assert.ErrorIs(t, err, ErrNoCandidate)
	assert.Equal(t, domain.StepUpload, s.Step())
}

func TestAdvance_FromUploadCreatesDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.o.StartNew()
	files := testutil.NewTestFiles("rfp.pdf", "budget.xlsx")
	require.NoError(t, s.SetFiles(files))

	require.NoError(t, f.o.Advance(ctx, s, true))

	assert.Equal(t, domain.StepAnalysis, s.Step())
	require.NotEmpty(t, s.DraftID())
	assert.Equal(t, CandidateIdle, s.Candidate().Status)

	d, err := f.drafts.GetByID(ctx, s.DraftID())
	require.NoError(t, err)
	assert.Equal(t, domain.StepAnalysis, d.Step)
	assert.Equal(t, files, d.Files)
	assert.Nil(t, d.Analysis)
	assert.Empty(t, d.Trends)
	assert.Empty(t, d.Matches)
	assert.Equal(t, d.LastUpdated, s.LastUpdated())
}

func TestAdvance_AnalysisRecordHasNoLaterOutputs(t *testing.T) {
	f := newFixture(t)
	s := f.driveTo(t, domain.StepResearch)

	d, err := f.drafts.GetByID(context.Background(), s.DraftID())
	require.NoError(t, err)
	assert.Equal(t, domain.StepResearch, d.Step)
	require.NotNil(t, d.Analysis)
	assert.Equal(t, f.agents.Analysis.Modules, d.Analysis.Modules)
	assert.Empty(t, d.Trends)
	assert.Nil(t, d.SelectedStrategy)
	assert.Empty(t, d.Matches)
}

func TestRegress_AtUploadIsRejected(t *testing.T) {
	f := newFixture(t)
	s := f.o.StartNew()

	err := f.o.Regress(context.Background(), s, true)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, s.DraftID())
}

func TestAdvance_AtPreviewIsRejected(t *testing.T) {
	f := newFixture(t)
	s := f.driveTo(t, domain.StepPreview)
	c := f.generate(t, s)
	require.Equal(t, CandidateReady, c.Status)

	err := f.o.Advance(context.Background(), s, true)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, domain.StepPreview, s.Step())
}

func TestWalkthrough_StepsMoveByOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.o.StartNew()
	require.NoError(t, s.SetFiles(testutil.NewTestFiles("rfp.pdf")))

	steps := DefaultPipeline().Steps()
	for i := 0; i < len(steps)-1; i++ {
		require.Equal(t, steps[i], s.Step())
		if steps[i] != domain.StepUpload {
			f.generate(t, s)
		}
		if steps[i] == domain.StepStrategy {
			require.NoError(t, s.SelectStrategy("strategy-2"))
		}
		require.NoError(t, f.o.Advance(ctx, s, true))
		assert.Equal(t, steps[i+1], s.Step())
	}

	d, err := f.drafts.GetByID(ctx, s.DraftID())
	require.NoError(t, err)
	assert.Equal(t, domain.StepPreview, d.Step)
	require.NotNil(t, d.SelectedStrategy)
	assert.Equal(t, "strategy-2", d.SelectedStrategy.ID)
	assert.Len(t, d.Matches, 2)

	for i := len(steps) - 1; i > 0; i-- {
		require.NoError(t, f.o.Regress(ctx, s, false))
		assert.Equal(t, steps[i-1], s.Step())
	}
}

func TestResume_RoundTrip(t *testing.T) {
	f := newFixture(t)

	for _, step := range DefaultPipeline().Steps() {
		t.Run(step.String(), func(t *testing.T) {
			d := testutil.NewTestDraft(step)
			s, err := f.o.Resume(d)
			require.NoError(t, err)

			assert.Equal(t, d.ID, s.DraftID())
			assert.Equal(t, step, s.Step())
			assert.Equal(t, d, s.Snapshot())
		})
	}
}

func TestResume_CurrentOutputBecomesCandidate(t *testing.T) {
	f := newFixture(t)
	d := testutil.NewTestDraft(domain.StepResearch)
	d.Trends = testutil.NewTestTrends("Saved trend")

	s, err := f.o.Resume(d)
	require.NoError(t, err)

	c := s.Candidate()
	assert.Equal(t, CandidateReady, c.Status)
	assert.Equal(t, d.Trends, c.Payload.Trends)

	// A ready candidate must be regenerated, not invoked.
	_, err = f.o.Invoke(context.Background(), s)
	assert.ErrorIs(t, err, ErrRegenerateRequired)
}

func TestResume_EmptyOutputIsIdle(t *testing.T) {
	f := newFixture(t)
	s, err := f.o.Resume(testutil.NewTestDraft(domain.StepStrategy))
	require.NoError(t, err)
	assert.Equal(t, CandidateIdle, s.Candidate().Status)

	c := f.generate(t, s)
	assert.Equal(t, CandidateReady, c.Status)
	assert.Len(t, c.Payload.Strategies, 3)
}

func TestResume_RejectsInvalidDraft(t *testing.T) {
	f := newFixture(t)

	_, err := f.o.Resume(testutil.NewTestDraft(domain.StepComplete))
	assert.ErrorIs(t, err, ErrInvalidDraft)

	_, err = f.o.Resume(testutil.NewTestDraft(domain.StepMatching, testutil.WithAnalysis(nil)))
	assert.ErrorIs(t, err, ErrInvalidDraft)
}

func TestResumeByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.driveTo(t, domain.StepStrategy)

	resumed, err := f.o.ResumeByID(ctx, s.DraftID())
	require.NoError(t, err)
	assert.Equal(t, s.Snapshot(), resumed.Snapshot())

	_, err = f.o.ResumeByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRegress_DuringResearchDiscardsStaleResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.driveTo(t, domain.StepResearch)

	release := f.agents.Block(testutil.CallTrends)
	done, err := f.o.Invoke(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, CandidatePending, s.Candidate().Status)

	require.NoError(t, f.o.Regress(ctx, s, true))
	release()
	waitDone(t, done)

	assert.Equal(t, domain.StepAnalysis, s.Step())
	c := s.Candidate()
	assert.Equal(t, domain.StepAnalysis, c.Step)
	assert.Equal(t, CandidateReady, c.Status)
	assert.Nil(t, c.Payload.Trends)

	_, ok := s.Committed(domain.StepResearch)
	assert.False(t, ok)

	d, err := f.drafts.GetByID(ctx, s.DraftID())
	require.NoError(t, err)
	assert.Equal(t, domain.StepAnalysis, d.Step)
	assert.Nil(t, d.Trends)
}

func TestRegenerate_SupersedesPendingCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.driveTo(t, domain.StepResearch)

	release := f.agents.Block(testutil.CallTrends)
	first, err := f.o.Invoke(ctx, s)
	require.NoError(t, err)

	_, err = f.o.Invoke(ctx, s)
	assert.ErrorIs(t, err, ErrGenerationInFlight)
	assert.ErrorIs(t, f.o.Advance(ctx, s, true), ErrGenerationInFlight)

	second, err := f.o.Regenerate(ctx, s)
	require.NoError(t, err)
	release()
	waitDone(t, first)
	waitDone(t, second)

	c := s.Candidate()
	assert.Equal(t, CandidateReady, c.Status)
	assert.Equal(t, f.agents.Trends, c.Payload.Trends)
	assert.Equal(t, 2, f.agents.Calls(testutil.CallTrends))
}

func TestEdit_ModulesArePersisted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.driveTo(t, domain.StepAnalysis)
	f.generate(t, s)

	require.NoError(t, s.Edit(func(p *Payload) {
		p.Analysis.Modules = []string{"Negotiation", "Storytelling"}
	}))

	// The edit lives only in the session until the step is confirmed.
	d, err := f.drafts.GetByID(ctx, s.DraftID())
	require.NoError(t, err)
	assert.Nil(t, d.Analysis)

	require.NoError(t, f.o.Advance(ctx, s, true))

	d, err = f.drafts.GetByID(ctx, s.DraftID())
	require.NoError(t, err)
	require.NotNil(t, d.Analysis)
	assert.Equal(t, []string{"Negotiation", "Storytelling"}, d.Analysis.Modules)
}

func TestEdit_RequiresReviewableCandidate(t *testing.T) {
	f := newFixture(t)
	s := f.driveTo(t, domain.StepAnalysis)

	err := s.Edit(func(p *Payload) {})
	assert.ErrorIs(t, err, ErrNoCandidate)

	up := f.o.StartNew()
	assert.ErrorIs(t, up.Edit(func(p *Payload) {}), ErrInvalidTransition)
}

func TestAdvance_WithoutPersistLeavesStoreUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fresh := f.o.StartNew()
	require.NoError(t, fresh.SetFiles(testutil.NewTestFiles("rfp.pdf")))
	require.NoError(t, f.o.Advance(ctx, fresh, false))
	assert.Equal(t, domain.StepAnalysis, fresh.Step())
	assert.Empty(t, fresh.DraftID())

	list, err := f.drafts.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	s := f.driveTo(t, domain.StepAnalysis)
	before, err := f.drafts.GetByID(ctx, s.DraftID())
	require.NoError(t, err)

	f.generate(t, s)
	require.NoError(t, f.o.Advance(ctx, s, false))
	require.NoError(t, f.o.Regress(ctx, s, false))

	after, err := f.drafts.GetByID(ctx, s.DraftID())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

// flakyStore fails Update calls until healed.
type flakyStore struct {
	DraftStore
	fail bool
}

func (f *flakyStore) Update(ctx context.Context, id string, patch domain.DraftPatch) (*domain.Draft, error) {
	if f.fail {
		return nil, errors.New("database is locked")
	}
	return f.DraftStore.Update(ctx, id, patch)
}

func TestAdvance_SyncFailureKeepsSession(t *testing.T) {
	agents := testutil.NewFakeAgents()
	repo := repository.NewMemoryDraftRepo(nil)
	store := &flakyStore{DraftStore: repo, fail: true}
	o := NewOrchestrator(DefaultPipeline(), agents, slides.Assembler{}, store, nil, nil)
	ctx := context.Background()

	s := o.StartNew()
	files := testutil.NewTestFiles("rfp.pdf")
	require.NoError(t, s.SetFiles(files))

	err := o.Advance(ctx, s, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")

	assert.Equal(t, domain.StepUpload, s.Step())
	c := s.Candidate()
	assert.Equal(t, CandidateReady, c.Status)
	assert.Equal(t, files, c.Payload.Files)
	_, committed := s.Committed(domain.StepUpload)
	assert.False(t, committed)

	store.fail = false
	require.NoError(t, o.Advance(ctx, s, true))
	assert.Equal(t, domain.StepAnalysis, s.Step())

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1, "retry reuses the draft created by the failed attempt")
	assert.Equal(t, domain.StepAnalysis, list[0].Step)
}

func TestRegress_SyncFailureKeepsSession(t *testing.T) {
	agents := testutil.NewFakeAgents()
	repo := repository.NewMemoryDraftRepo(nil)
	store := &flakyStore{DraftStore: repo}
	o := NewOrchestrator(DefaultPipeline(), agents, slides.Assembler{}, store, nil, nil)
	ctx := context.Background()

	s := o.StartNew()
	require.NoError(t, s.SetFiles(testutil.NewTestFiles("rfp.pdf")))
	require.NoError(t, o.Advance(ctx, s, true))

	store.fail = true
	require.Error(t, o.Regress(ctx, s, true))
	assert.Equal(t, domain.StepAnalysis, s.Step())
}

func TestGenerationFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.driveTo(t, domain.StepAnalysis)
	f.agents.FailWith(testutil.CallAnalyze, errors.New("model overloaded"))

	c := f.generate(t, s)
	assert.Equal(t, CandidateFailed, c.Status)
	require.Error(t, c.Err)
	assert.Contains(t, c.Err.Error(), "model overloaded")

	assert.ErrorIs(t, f.o.Advance(ctx, s, true), ErrRegenerateRequired)
	_, err := f.o.Invoke(ctx, s)
	assert.ErrorIs(t, err, ErrRegenerateRequired)
	assert.ErrorIs(t, s.Edit(func(p *Payload) {}), ErrNoCandidate)

	d, err := f.drafts.GetByID(ctx, s.DraftID())
	require.NoError(t, err)
	assert.Nil(t, d.Analysis)

	f.agents.FailWith(testutil.CallAnalyze, nil)
	done, err := f.o.Regenerate(ctx, s)
	require.NoError(t, err)
	waitDone(t, done)
	assert.Equal(t, CandidateReady, s.Candidate().Status)
}

func TestDegradedCandidateCanBeConfirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.driveTo(t, domain.StepAnalysis)
	f.agents.Degrade(testutil.CallAnalyze, "no API key configured")

	c := f.generate(t, s)
	assert.Equal(t, CandidateDegraded, c.Status)
	assert.Equal(t, "no API key configured", c.Reason)
	require.NotNil(t, c.Payload.Analysis)

	require.NoError(t, f.o.Advance(ctx, s, true))
	assert.Equal(t, domain.StepResearch, s.Step())
}

func TestStrategy_RequiresSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.driveTo(t, domain.StepStrategy)
	f.generate(t, s)

	assert.ErrorIs(t, f.o.Advance(ctx, s, true), ErrNotConfirmed)
	assert.Error(t, s.SelectStrategy("no-such-strategy"))

	require.NoError(t, s.SelectStrategy("strategy-3"))
	require.NoError(t, f.o.Advance(ctx, s, true))

	d, err := f.drafts.GetByID(ctx, s.DraftID())
	require.NoError(t, err)
	require.NotNil(t, d.SelectedStrategy)
	assert.Equal(t, "strategy-3", d.SelectedStrategy.ID)
}

func TestRegress_RetainsLaterOutputsInSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.driveTo(t, domain.StepStrategy)
	trends := f.agents.Trends

	// Back to analysis: trends leave the stored draft but stay in the session.
	require.NoError(t, f.o.Regress(ctx, s, true))
	require.NoError(t, f.o.Regress(ctx, s, true))
	assert.Equal(t, domain.StepAnalysis, s.Step())

	d, err := f.drafts.GetByID(ctx, s.DraftID())
	require.NoError(t, err)
	assert.Nil(t, d.Trends)

	require.NoError(t, f.o.Advance(ctx, s, true))
	c := s.Candidate()
	assert.Equal(t, domain.StepResearch, c.Step)
	assert.Equal(t, CandidateReady, c.Status)
	assert.Equal(t, trends, c.Payload.Trends)

	d, err = f.drafts.GetByID(ctx, s.DraftID())
	require.NoError(t, err)
	assert.Equal(t, trends, d.Trends)
}

func TestPreview_AssemblesDeckAndQuality(t *testing.T) {
	f := newFixture(t)
	s := f.driveTo(t, domain.StepPreview)

	c := f.generate(t, s)
	require.Equal(t, CandidateReady, c.Status)
	require.NotNil(t, c.Payload.Preview)
	assert.NotEmpty(t, c.Payload.Preview.Slides)
	require.NotNil(t, c.Payload.Preview.Quality)
	assert.Equal(t, f.agents.Quality, *c.Payload.Preview.Quality)
	assert.Equal(t, 1, f.agents.Calls(testutil.CallQuality))
}

func TestArchive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.driveTo(t, domain.StepPreview)
	id := s.DraftID()

	_, err := f.o.Archive(ctx, s, domain.StatusSubmitted)
	assert.ErrorIs(t, err, domain.ErrInvalidOutcome)

	hp, err := f.o.Archive(ctx, s, domain.StatusWon)
	require.NoError(t, err)
	assert.Equal(t, id, hp.DraftID)
	assert.Equal(t, f.agents.Analysis.ProgramName, hp.Title)
	assert.Equal(t, f.agents.Analysis.Modules, hp.Tags)
	assert.Equal(t, domain.StepComplete, s.Step())

	_, err = f.drafts.GetByID(ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, f.o.Advance(ctx, s, true), ErrInvalidTransition)
	assert.ErrorIs(t, f.o.Regress(ctx, s, true), ErrInvalidTransition)
}

func TestArchive_EmptyUploadIsUntitled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.o.StartNew()
	require.NoError(t, s.SetFiles([]domain.FileMeta{}))
	require.NoError(t, f.o.Advance(ctx, s, true))

	hp, err := f.o.Archive(ctx, s, domain.StatusLost)
	require.NoError(t, err)
	assert.Equal(t, domain.UntitledProject, hp.Title)
	assert.Empty(t, hp.Tags)
	assert.Equal(t, domain.StatusLost, hp.Status)
}

func TestArchive_WithoutDraft(t *testing.T) {
	f := newFixture(t)
	_, err := f.o.Archive(context.Background(), f.o.StartNew(), domain.StatusWon)
	assert.ErrorIs(t, err, ErrNoDraft)
}

func TestSetFiles_ImmutableAfterCreate(t *testing.T) {
	f := newFixture(t)
	s, err := f.o.Resume(testutil.NewTestDraft(domain.StepUpload))
	require.NoError(t, err)

	assert.ErrorIs(t, s.SetFiles(testutil.NewTestFiles("other.pdf")), ErrFilesImmutable)

	later := f.driveTo(t, domain.StepAnalysis)
	assert.ErrorIs(t, later.SetFiles(nil), ErrInvalidTransition)
}

func TestInvoke_NothingToGenerateAtUpload(t *testing.T) {
	f := newFixture(t)
	_, err := f.o.Invoke(context.Background(), f.o.StartNew())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

type staticOptions map[domain.Step]intelligence.CallOptions

func (m staticOptions) CallOptions(step domain.Step) intelligence.CallOptions {
	return m[step]
}

func TestCallOptions_SessionOverridesWin(t *testing.T) {
	agents := testutil.NewFakeAgents()
	options := staticOptions{
		domain.StepAnalysis: {Model: "gemini-2.5-pro", SystemPrompt: "You are an RFP analyst.", APIKey: "config-key"},
	}
	o := NewOrchestrator(DefaultPipeline(), agents, slides.Assembler{}, repository.NewMemoryDraftRepo(nil), options, nil)
	f := fixture{o: o, agents: agents}

	s := f.driveTo(t, domain.StepAnalysis)
	s.SetOverrides(Overrides{APIKey: "user-key"})
	f.generate(t, s)

	got := agents.LastOptions(testutil.CallAnalyze)
	assert.Equal(t, "user-key", got.APIKey)
	assert.Equal(t, "gemini-2.5-pro", got.Model)
	assert.Equal(t, "You are an RFP analyst.", got.SystemPrompt)
}

func TestWait_RespectsContext(t *testing.T) {
	f := newFixture(t)
	s := f.driveTo(t, domain.StepAnalysis)
	release := f.agents.Block(testutil.CallAnalyze)
	defer release()

	_, err := f.o.Invoke(context.Background(), s)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = f.o.Wait(ctx, s)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	c, err := f.o.Wait(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, CandidateReady, c.Status)
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func sampleDraft() *Draft {
	return &Draft{
		ID:          "d-1",
		LastUpdated: testNow,
		Step:        StepStrategy,
		Files:       []FileMeta{{FileName: "rfp.pdf", Size: 2048, UploadDate: testNow}},
		Analysis: &Analysis{
			ClientName:  "Acme",
			Industry:    "Manufacturing",
			ProgramName: "Leadership 2025",
			Modules:     []string{"Coaching", "Feedback"},
		},
		Trends:           []TrendInsight{{Topic: "AI", RelevanceScore: 80}},
		SelectedStrategy: &Strategy{ID: "s1", Title: "Hands-on", Keywords: []string{"lab"}},
	}
}

func TestParseStep(t *testing.T) {
	cases := []struct {
		in   string
		want Step
	}{
		{"upload", StepUpload},
		{"Analysis", StepAnalysis},
		{" MATCHING ", StepMatching},
		{"6", StepPreview},
		{"7", StepComplete},
	}
	for _, tc := range cases {
		got, err := ParseStep(tc.in)
		require.NoError(t, err, "input=%q", tc.in)
		assert.Equal(t, tc.want, got)
	}

	for _, bad := range []string{"", "0", "8", "3x", "review"} {
		_, err := ParseStep(bad)
		assert.Error(t, err, "input=%q", bad)
	}

	_, err := ParseStep("review")
	assert.EqualError(t, err,
		`unknown step "review" (want one of upload, analysis, research, strategy, matching, preview, complete)`)
}

func TestStep_LabelAndString(t *testing.T) {
	assert.Equal(t, "Requirements analysis", StepAnalysis.Label())
	assert.Equal(t, "Not started", Step(0).Label())
	assert.Equal(t, "preview", StepPreview.String())
	assert.Equal(t, "step(42)", Step(42).String())
	assert.False(t, Step(0).Valid())
	assert.True(t, StepComplete.Valid())
}

func TestDraftClone_IsDeep(t *testing.T) {
	d := sampleDraft()
	c := d.Clone()

	c.Analysis.Modules[0] = "changed"
	c.Trends[0].Topic = "changed"
	c.SelectedStrategy.Keywords[0] = "changed"
	c.Files[0].FileName = "changed"

	assert.Equal(t, "Coaching", d.Analysis.Modules[0])
	assert.Equal(t, "AI", d.Trends[0].Topic)
	assert.Equal(t, "lab", d.SelectedStrategy.Keywords[0])
	assert.Equal(t, "rfp.pdf", d.Files[0].FileName)

	var nilDraft *Draft
	assert.Nil(t, nilDraft.Clone())
}

func TestDraftApply_OnlySetFields(t *testing.T) {
	d := sampleDraft()
	d.Apply(DraftPatch{Step: SetTo(StepMatching)}, testNow.Add(time.Minute))

	assert.Equal(t, StepMatching, d.Step)
	require.NotNil(t, d.Analysis)
	assert.Len(t, d.Trends, 1)
	assert.Equal(t, testNow.Add(time.Minute), d.LastUpdated)
}

func TestDraftApply_ExplicitClear(t *testing.T) {
	d := sampleDraft()
	d.Apply(DraftPatch{
		Step:             SetTo(StepAnalysis),
		Trends:           SetTo[[]TrendInsight](nil),
		SelectedStrategy: SetTo[*Strategy](nil),
	}, testNow.Add(time.Minute))

	assert.Equal(t, StepAnalysis, d.Step)
	assert.Nil(t, d.Trends)
	assert.Nil(t, d.SelectedStrategy)
	assert.NotNil(t, d.Analysis, "unset field must be untouched")
}

func TestDraftApply_CopiesValues(t *testing.T) {
	d := sampleDraft()
	a := &Analysis{ProgramName: "New", Modules: []string{"One"}}
	d.Apply(DraftPatch{Analysis: SetTo(a)}, testNow.Add(time.Minute))

	a.Modules[0] = "mutated"
	assert.Equal(t, "One", d.Analysis.Modules[0])
}

func TestDraftApply_TimestampStrictlyIncreases(t *testing.T) {
	d := sampleDraft()
	d.Apply(DraftPatch{}, testNow)
	assert.True(t, d.LastUpdated.After(testNow))

	prev := d.LastUpdated
	d.Apply(DraftPatch{}, testNow.Add(-time.Hour))
	assert.True(t, d.LastUpdated.After(prev))
}

func TestPatchFromDraft_SetsEverything(t *testing.T) {
	p := PatchFromDraft(sampleDraft())
	assert.True(t, p.Step.Set)
	assert.True(t, p.Analysis.Set)
	assert.True(t, p.Trends.Set)
	assert.True(t, p.SelectedStrategy.Set)
	assert.True(t, p.Matches.Set)
	assert.Nil(t, p.Matches.Value)
}

func TestDraftDisplayTitle(t *testing.T) {
	d := sampleDraft()
	assert.Equal(t, "Leadership 2025", d.DisplayTitle())

	d.Analysis = nil
	assert.Equal(t, "rfp.pdf", d.DisplayTitle())

	d.Files = nil
	assert.Equal(t, UntitledProject, d.DisplayTitle())
}

func TestNewHistoricalProposal(t *testing.T) {
	p, err := NewHistoricalProposal(sampleDraft(), StatusWon, testNow)
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "d-1", p.DraftID)
	assert.Equal(t, "Leadership 2025", p.Title)
	assert.Equal(t, "Acme", p.ClientName)
	assert.Equal(t, "Manufacturing", p.Industry)
	assert.Equal(t, []string{"Coaching", "Feedback"}, p.Tags)
	assert.Equal(t, "rfp.pdf", p.FileName)
	assert.Equal(t, StatusWon, p.Status)
	assert.Nil(t, p.Quality)
	assert.Equal(t, testNow, p.Date)
}

func TestNewHistoricalProposal_NoAnalysis(t *testing.T) {
	d := sampleDraft()
	d.Analysis = nil
	d.Files = nil

	p, err := NewHistoricalProposal(d, StatusLost, testNow)
	require.NoError(t, err)
	assert.Equal(t, UntitledProject, p.Title)
	assert.Empty(t, p.ClientName)
	assert.NotNil(t, p.Tags)
	assert.Empty(t, p.Tags)
	assert.Empty(t, p.FileName)
}

func TestNewHistoricalProposal_RejectsNonTerminal(t *testing.T) {
	for _, s := range []ProposalStatus{StatusDraft, StatusReview, StatusCompleted, StatusSubmitted} {
		_, err := NewHistoricalProposal(sampleDraft(), s, testNow)
		assert.ErrorIs(t, err, ErrInvalidOutcome, "status=%s", s)
	}
}

func TestParseProposalStatus(t *testing.T) {
	s, err := ParseProposalStatus("won")
	require.NoError(t, err)
	assert.Equal(t, StatusWon, s)
	assert.True(t, s.Terminal())

	_, err = ParseProposalStatus("pending")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(&Strategy{ID: "s1", Title: "ok", QualityScore: 90}))

	err := Validate(&Strategy{ID: "s1", Title: "ok", QualityScore: 140})
	require.ErrorIs(t, err, ErrInvalidPayload)
	assert.Contains(t, err.Error(), "QualityScore")

	err = ValidateEach([]CourseMatch{{ID: "m1", ModuleName: "A"}, {ID: "m2"}})
	require.ErrorIs(t, err, ErrInvalidPayload)
	assert.Contains(t, err.Error(), "item 1")

	err = Validate(&Analysis{Modules: []string{"A", ""}})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, ClampScore(-5))
	assert.Equal(t, 100, ClampScore(250))
	assert.Equal(t, 42, ClampScore(42))
}

package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/rfpilot/internal/config"
	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/alexanderramin/rfpilot/internal/repository"
	"github.com/alexanderramin/rfpilot/internal/service"
	"github.com/alexanderramin/rfpilot/internal/slides"
	"github.com/alexanderramin/rfpilot/internal/testutil"
	"github.com/alexanderramin/rfpilot/internal/upload"
	"github.com/alexanderramin/rfpilot/internal/workflow"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRFP = "/rfps/acme.pdf"

type testEnv struct {
	app    *App
	agents *testutil.FakeAgents
	prompt *scriptedPrompter
	fs     afero.Fs
}

// newTestEnv wires an App over an in-memory database, fake agents and a
// scripted prompter.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	drafts := repository.NewSQLiteDraftRepo(database)
	history := repository.NewSQLiteHistoryRepo(database)
	agents := testutil.NewFakeAgents()
	pipeline := workflow.DefaultPipeline()
	cfg := &config.Config{Agents: config.DefaultAgents()}

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, testRFP, []byte("Request for proposal"), 0o644))

	prompt := &scriptedPrompter{}
	app := &App{
		Drafts:       service.NewDraftService(drafts, pipeline),
		History:      service.NewHistoryService(history, agents, cfg.AgentOptions(config.AgentQA)),
		Orchestrator: workflow.NewOrchestrator(pipeline, agents, slides.Assembler{Company: "Test Co"}, drafts, cfg, nil),
		Files:        upload.NewInspector(fs),
		Config:       cfg,
		FS:           fs,
		Prompter:     prompt,
		Now:          func() time.Time { return testutil.TestTime },
	}
	return &testEnv{app: app, agents: agents, prompt: prompt, fs: fs}
}

func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stripANSI(buf.String()), err
}

// newDraft creates a draft through the CLI and returns its id.
func (e *testEnv) newDraft(t *testing.T) string {
	t.Helper()
	_, err := executeCmd(t, e.app, "draft", "new", testRFP)
	require.NoError(t, err)
	list, err := e.app.Drafts.List(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, list)
	return list[0].ID
}

func TestDraftNew_CreatesDraftAtAnalysis(t *testing.T) {
	env := newTestEnv(t)

	out, err := executeCmd(t, env.app, "draft", "new", testRFP)
	require.NoError(t, err)
	assert.Contains(t, out, "Created draft")
	assert.Contains(t, out, "with 1 file(s)")

	list, err := env.app.Drafts.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.StepAnalysis, list[0].Step)
	assert.Equal(t, 1, list[0].FileCount)
	assert.Contains(t, out, "rfpilot draft resume "+list[0].ID)
	assert.Zero(t, env.agents.Calls(testutil.CallAnalyze))
}

func TestDraftNew_Errors(t *testing.T) {
	env := newTestEnv(t)

	_, err := executeCmd(t, env.app, "draft", "new", "/rfps/missing.pdf")
	assert.Error(t, err)

	env.app.Prompter = nil
	_, err = executeCmd(t, env.app, "draft", "new")
	require.Error(t, err)
	assert.ErrorIs(t, err, errNotInteractive)

	list, err := env.app.Drafts.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDraftNew_AsksForFiles(t *testing.T) {
	env := newTestEnv(t)
	env.prompt.files = [][]string{{testRFP}}

	_, err := executeCmd(t, env.app, "draft", "new")
	require.NoError(t, err)

	list, err := env.app.Drafts.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDraftListAndShow(t *testing.T) {
	env := newTestEnv(t)
	id := env.newDraft(t)

	out, err := executeCmd(t, env.app, "draft", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "acme.pdf")
	assert.Contains(t, out, "Requirements analysis")
	assert.Contains(t, out, id[:8])

	out, err = executeCmd(t, env.app, "draft", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "ACME.PDF")
	assert.Contains(t, out, id)

	_, err = executeCmd(t, env.app, "draft", "show", "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDraftDelete(t *testing.T) {
	env := newTestEnv(t)
	id := env.newDraft(t)

	env.prompt.confirm = false
	out, err := executeCmd(t, env.app, "draft", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")
	_, err = env.app.Drafts.Get(context.Background(), id)
	require.NoError(t, err)

	out, err = executeCmd(t, env.app, "draft", "delete", "--force", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted draft")
	_, err = env.app.Drafts.Get(context.Background(), id)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	env.app.Prompter = nil
	_, err = executeCmd(t, env.app, "draft", "delete", id)
	assert.ErrorIs(t, err, errNotInteractive)
}

func TestDraftArchive(t *testing.T) {
	env := newTestEnv(t)
	id := env.newDraft(t)

	_, err := executeCmd(t, env.app, "draft", "archive", id, "--outcome", "maybe")
	assert.Error(t, err)
	_, err = executeCmd(t, env.app, "draft", "archive", id, "--outcome", "submitted")
	assert.ErrorIs(t, err, domain.ErrInvalidOutcome)

	out, err := executeCmd(t, env.app, "draft", "archive", id, "--outcome", "won")
	require.NoError(t, err)
	assert.Contains(t, out, "Archived")
	assert.Contains(t, out, domain.UntitledProject)

	out, err = executeCmd(t, env.app, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Won")
	assert.Contains(t, out, domain.UntitledProject)

	drafts, err := env.app.Drafts.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestHistoryShowAndEvaluate(t *testing.T) {
	env := newTestEnv(t)
	_, err := executeCmd(t, env.app, "draft", "archive", env.newDraft(t), "--outcome", "lost")
	require.NoError(t, err)
	list, err := env.app.History.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	hid := list[0].ID

	out, err := executeCmd(t, env.app, "history", "show", hid)
	require.NoError(t, err)
	assert.Contains(t, out, "Not evaluated")

	out, err = executeCmd(t, env.app, "history", "evaluate", hid)
	require.NoError(t, err)
	assert.Contains(t, out, "RFP compliance")
	assert.Contains(t, out, "85/100")

	_, err = executeCmd(t, env.app, "history", "evaluate")
	assert.Error(t, err)

	_, err = executeCmd(t, env.app, "history", "show", "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestHistoryEvaluateAll(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		_, err := executeCmd(t, env.app, "draft", "archive", env.newDraft(t), "--outcome", "won")
		require.NoError(t, err)
	}

	out, err := executeCmd(t, env.app, "history", "evaluate", "--all", "--concurrency", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Evaluated 3 proposal(s)")
	assert.Equal(t, 3, env.agents.Calls(testutil.CallHistory))

	out, err = executeCmd(t, env.app, "history", "evaluate", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Evaluated 0 proposal(s)")
}

func TestHistoryImportAndSearch(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, afero.WriteFile(env.fs, "/import/history.json", []byte(`{"proposals": [
  {"title": "Leadership Academy", "client_name": "Acme", "industry": "Manufacturing", "date": "2024-03-01", "status": "Won"},
  {"title": "Sales Bootcamp", "client_name": "Shopwise", "industry": "Retail", "date": "2024-05-12", "status": "Lost"}
]}`), 0o644))

	out, err := executeCmd(t, env.app, "history", "import", "/import/history.json")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 proposal(s) from /import/history.json")

	out, err = executeCmd(t, env.app, "history", "list", "--search", "retail")
	require.NoError(t, err)
	assert.Contains(t, out, "Sales Bootcamp")
	assert.NotContains(t, out, "Leadership Academy")

	out, err = executeCmd(t, env.app, "history", "list", "-s", "aerospace")
	require.NoError(t, err)
	assert.Contains(t, out, "No archived proposals yet.")
}

func TestHistoryImportRejectsInvalidFile(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, afero.WriteFile(env.fs, "/import/bad.yaml", []byte(`proposals:
  - title: Missing date
    status: Won
`), 0o644))

	_, err := executeCmd(t, env.app, "history", "import", "/import/bad.yaml")
	require.ErrorIs(t, err, service.ErrInvalidImport)
	assert.ErrorContains(t, err, "date is required")

	_, err = executeCmd(t, env.app, "history", "import", "/import/missing.json")
	assert.Error(t, err)

	list, err := env.app.History.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAgentsListAndExport(t *testing.T) {
	env := newTestEnv(t)

	out, err := executeCmd(t, env.app, "agents", "list")
	require.NoError(t, err)
	assert.Contains(t, out, config.AgentAnalyst)
	assert.Contains(t, out, config.AgentQA)

	out, err = executeCmd(t, env.app, "agents", "export")
	require.NoError(t, err)
	assert.Contains(t, out, "agents:")
	assert.Contains(t, out, config.AgentPlanner+":")

	out, err = executeCmd(t, env.app, "agents", "export", "-o", "/out/agents.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote /out/agents.yaml")
	data, err := afero.ReadFile(env.fs, "/out/agents.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "system_prompt:")
}

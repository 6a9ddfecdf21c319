package cli

import (
	"context"
	"errors"
	"io"

	"github.com/alexanderramin/rfpilot/internal/cli/formatter"
	"github.com/alexanderramin/rfpilot/internal/workflow"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

var errInterrupted = errors.New("interrupted")

type generationDoneMsg struct{}

// spinnerModel shows a spinner until done is closed or the user presses
// ctrl+c.
type spinnerModel struct {
	spinner     spinner.Model
	label       string
	done        <-chan struct{}
	finished    bool
	interrupted bool
}

func newSpinnerModel(label string, done <-chan struct{}) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = formatter.StylePurple
	return spinnerModel{spinner: s, label: label, done: done}
}

func (m spinnerModel) Init() tea.Cmd {
	done := m.done
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		<-done
		return generationDoneMsg{}
	})
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case generationDoneMsg:
		m.finished = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			m.interrupted = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.finished || m.interrupted {
		return ""
	}
	return "  " + m.spinner.View() + " " + formatter.Dim(m.label) + "\n"
}

// waitForCandidate blocks until the session's pending generation settles.
// On a terminal a spinner is shown and ctrl+c stops waiting.
func waitForCandidate(ctx context.Context, app *App, s *workflow.Session, out io.Writer) (workflow.Candidate, error) {
	if !app.interactive() {
		return app.Orchestrator.Wait(ctx, s)
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	go func() {
		_, _ = app.Orchestrator.Wait(waitCtx, s)
		close(done)
	}()

	label := "Generating " + s.Step().Label() + "…"
	final, err := tea.NewProgram(newSpinnerModel(label, done), tea.WithOutput(out)).Run()
	if err != nil {
		return workflow.Candidate{}, err
	}
	if final.(spinnerModel).interrupted {
		return workflow.Candidate{}, errInterrupted
	}
	return s.Candidate(), ctx.Err()
}

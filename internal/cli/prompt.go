package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/rfpilot/internal/cli/formatter"
	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/alexanderramin/rfpilot/internal/service"
	"github.com/alexanderramin/rfpilot/internal/workflow"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var errNotInteractive = errors.New("an interactive terminal is required")

// Action is a choice offered while reviewing a step.
type Action string

const (
	ActionConfirm     Action = "confirm"
	ActionRegenerate  Action = "regenerate"
	ActionBack        Action = "back"
	ActionEditModules Action = "edit-modules"
	ActionArchive     Action = "archive"
	ActionQuit        Action = "quit"
)

var actionLabels = map[Action]string{
	ActionConfirm:     "Confirm and continue",
	ActionRegenerate:  "Regenerate",
	ActionBack:        "Back to the previous step",
	ActionEditModules: "Edit training modules",
	ActionArchive:     "Finish and archive",
	ActionQuit:        "Save and exit",
}

// Prompter asks the user for wizard decisions.
type Prompter interface {
	// PickDraft returns the id of the draft to resume, or "" for a new one.
	PickDraft(drafts []service.DraftSummary) (string, error)
	Files() ([]string, error)
	Review(step domain.Step, c workflow.Candidate, actions []Action) (Action, error)
	Strategy(options []domain.Strategy) (string, error)
	Modules(current []string) ([]string, error)
	Outcome() (domain.ProposalStatus, error)
	Confirm(title string) (bool, error)
}

// rfpilotHuhTheme returns a huh theme using the formatter palette.
func rfpilotHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// huhPrompter asks through huh forms on the terminal.
type huhPrompter struct{}

func runForm(fields ...huh.Field) error {
	return huh.NewForm(huh.NewGroup(fields...)).
		WithTheme(rfpilotHuhTheme()).
		WithShowHelp(false).
		Run()
}

func (huhPrompter) PickDraft(drafts []service.DraftSummary) (string, error) {
	if len(drafts) == 0 {
		return "", nil
	}
	opts := []huh.Option[string]{huh.NewOption("Start a new proposal", "")}
	for _, d := range drafts {
		label := fmt.Sprintf("%s  (%s, %d%%)", d.Title, d.StepLabel, d.Progress)
		opts = append(opts, huh.NewOption(label, d.ID))
	}
	var id string
	err := runForm(huh.NewSelect[string]().
		Title("Resume a draft?").
		Options(opts...).
		Value(&id))
	return id, err
}

func (huhPrompter) Files() ([]string, error) {
	var raw string
	err := runForm(huh.NewText().
		Title("RFP files").
		Description("One path per line").
		Value(&raw).
		Validate(func(s string) error {
			if len(splitLines(s)) == 0 {
				return errors.New("at least one file is required")
			}
			return nil
		}))
	return splitLines(raw), err
}

func (huhPrompter) Review(step domain.Step, _ workflow.Candidate, actions []Action) (Action, error) {
	opts := make([]huh.Option[Action], 0, len(actions))
	for _, a := range actions {
		opts = append(opts, huh.NewOption(actionLabels[a], a))
	}
	var choice Action
	err := runForm(huh.NewSelect[Action]().
		Title(step.Label()).
		Options(opts...).
		Value(&choice))
	return choice, err
}

func (huhPrompter) Strategy(options []domain.Strategy) (string, error) {
	opts := make([]huh.Option[string], 0, len(options))
	for _, s := range options {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s  (%d/100)", s.Title, s.QualityScore), s.ID))
	}
	var id string
	err := runForm(huh.NewSelect[string]().
		Title("Choose a strategy").
		Options(opts...).
		Value(&id))
	return id, err
}

func (huhPrompter) Modules(current []string) ([]string, error) {
	raw := strings.Join(current, "\n")
	err := runForm(huh.NewText().
		Title("Training modules").
		Description("One module per line").
		Value(&raw))
	return splitLines(raw), err
}

func (huhPrompter) Outcome() (domain.ProposalStatus, error) {
	var status domain.ProposalStatus
	err := runForm(huh.NewSelect[domain.ProposalStatus]().
		Title("Outcome").
		Options(
			huh.NewOption("Won", domain.StatusWon),
			huh.NewOption("Lost", domain.StatusLost),
		).
		Value(&status))
	return status, err
}

func (huhPrompter) Confirm(title string) (bool, error) {
	var ok bool
	err := runForm(huh.NewConfirm().Title(title).Value(&ok))
	return ok, err
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

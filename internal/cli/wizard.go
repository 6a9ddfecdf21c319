package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/alexanderramin/rfpilot/internal/cli/formatter"
	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/alexanderramin/rfpilot/internal/workflow"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// saveMode decides whether the wizard writes its moves to the draft store.
type saveMode string

const (
	saveAlways saveMode = "always"
	saveAsk    saveMode = "ask"
	saveNever  saveMode = "never"
)

func parseSaveMode(name string) (saveMode, error) {
	switch m := saveMode(name); m {
	case saveAlways, saveAsk, saveNever:
		return m, nil
	}
	return "", fmt.Errorf("invalid --save %q (want always, ask or never)", name)
}

func addSaveFlag(cmd *cobra.Command, mode *string) {
	cmd.Flags().StringVar(mode, "save", string(saveAlways),
		"when to save confirmed and reverted steps: always, ask or never")
}

func newWizardCmd(app *App) *cobra.Command {
	var save string
	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Run the proposal wizard, resuming a draft or starting a new one",
		Long: `Run the proposal wizard, resuming a draft or starting a new one.

With --save ask every confirm or back asks whether to save the draft;
--save never explores without writing anything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := parseSaveMode(save)
			if err != nil {
				return err
			}
			p, err := app.prompter()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			drafts, err := app.Drafts.List(ctx)
			if err != nil {
				return err
			}
			id, err := p.PickDraft(drafts)
			if err != nil {
				return err
			}

			var s *workflow.Session
			if id == "" {
				s = app.Orchestrator.StartNew()
			} else if s, err = app.Orchestrator.ResumeByID(ctx, id); err != nil {
				return err
			}
			return newWizard(app, p, cmd.OutOrStdout(), mode).run(ctx, s)
		},
	}
	addSaveFlag(cmd, &save)
	return cmd
}

// wizard walks one session through the pipeline, asking the prompter what
// to do with each generated step. Moves are saved according to save.
type wizard struct {
	app    *App
	orch   *workflow.Orchestrator
	prompt Prompter
	out    io.Writer
	save   saveMode

	// savedAt is the step the stored draft is at.
	savedAt domain.Step
}

func newWizard(app *App, p Prompter, out io.Writer, save saveMode) *wizard {
	return &wizard{app: app, orch: app.Orchestrator, prompt: p, out: out, save: save}
}

func (w *wizard) run(ctx context.Context, s *workflow.Session) error {
	if s.DraftID() != "" {
		w.savedAt = s.Step()
	}
	if b := w.app.Backend; b != nil && !b.Available(ctx) {
		fmt.Fprintln(w.out, formatter.StyleYellow.Render(
			"! Language model backend is unreachable; generation will fail until it is. Check the llm settings."))
	}
	for s.Step() != domain.StepComplete {
		c, err := w.prepare(ctx, s)
		if aborted(err) {
			w.printSaved(s)
			return nil
		}
		if err != nil {
			return err
		}

		w.printCandidate(s.Step(), c)
		action, err := w.prompt.Review(s.Step(), c, w.actions(s, c))
		if aborted(err) {
			w.printSaved(s)
			return nil
		}
		if err != nil {
			return err
		}
		finished, err := w.apply(ctx, s, c, action)
		switch {
		case aborted(err):
			w.printSaved(s)
			return nil
		case err != nil && ctx.Err() != nil:
			return err
		case err != nil:
			w.printError(err)
		case finished:
			return nil
		}
	}
	return nil
}

// aborted reports whether the user cancelled a prompt or a wait.
func aborted(err error) bool {
	return errors.Is(err, huh.ErrUserAborted) || errors.Is(err, errInterrupted)
}

// prepare returns the candidate to review at the current step, asking for
// files at upload and generating content elsewhere.
func (w *wizard) prepare(ctx context.Context, s *workflow.Session) (workflow.Candidate, error) {
	c := s.Candidate()
	if s.Step() == domain.StepUpload {
		if c.Status == workflow.CandidateReady {
			return c, nil
		}
		return w.upload(s)
	}

	if c.Status == workflow.CandidateIdle {
		if _, err := w.orch.Invoke(ctx, s); err != nil {
			return c, err
		}
	}
	return waitForCandidate(ctx, w.app, s, w.out)
}

// upload asks for files until they can all be read.
func (w *wizard) upload(s *workflow.Session) (workflow.Candidate, error) {
	for {
		paths, err := w.prompt.Files()
		if err != nil {
			return workflow.Candidate{}, err
		}
		files, err := w.app.Files.Describe(paths)
		if err == nil {
			err = s.SetFiles(files)
		}
		if err != nil {
			w.printError(err)
			continue
		}
		return s.Candidate(), nil
	}
}

// actions lists what the user may do with candidate c at the current step.
func (w *wizard) actions(s *workflow.Session, c workflow.Candidate) []Action {
	step := s.Step()
	_, prevErr := w.orch.Pipeline().Prev(step)
	canBack := prevErr == nil

	var out []Action
	if c.Status.Reviewable() {
		if step == domain.StepPreview {
			// Archiving reads the stored draft, so it must be saved here.
			if s.DraftID() != "" && w.savedAt == domain.StepPreview {
				out = append(out, ActionArchive)
			}
		} else {
			out = append(out, ActionConfirm)
		}
		if step == domain.StepAnalysis {
			out = append(out, ActionEditModules)
		}
	}
	if step != domain.StepUpload {
		out = append(out, ActionRegenerate)
	}
	if canBack {
		out = append(out, ActionBack)
	}
	return append(out, ActionQuit)
}

// apply carries out action and reports whether the wizard is finished.
func (w *wizard) apply(ctx context.Context, s *workflow.Session, c workflow.Candidate, action Action) (bool, error) {
	switch action {
	case ActionConfirm:
		if s.Step() == domain.StepStrategy && c.Payload.Strategy == nil {
			id, err := w.prompt.Strategy(c.Payload.Strategies)
			if err != nil {
				return false, err
			}
			if err := s.SelectStrategy(id); err != nil {
				return false, err
			}
		}
		persist, err := w.shouldSave()
		if err != nil {
			return false, err
		}
		if err := w.orch.Advance(ctx, s, persist); err != nil {
			return false, err
		}
		w.moved(s, persist)
		return false, nil

	case ActionRegenerate:
		_, err := w.orch.Regenerate(ctx, s)
		return false, err

	case ActionBack:
		persist, err := w.shouldSave()
		if err != nil {
			return false, err
		}
		if err := w.orch.Regress(ctx, s, persist); err != nil {
			return false, err
		}
		if persist {
			w.savedAt = s.Step()
		}
		return false, nil

	case ActionEditModules:
		var current []string
		if c.Payload.Analysis != nil {
			current = c.Payload.Analysis.Modules
		}
		modules, err := w.prompt.Modules(current)
		if err != nil {
			return false, err
		}
		return false, s.Edit(func(p *workflow.Payload) {
			if p.Analysis != nil {
				p.Analysis.Modules = modules
			}
		})

	case ActionArchive:
		outcome, err := w.prompt.Outcome()
		if err != nil {
			return false, err
		}
		hp, err := w.orch.Archive(ctx, s, outcome)
		if err != nil {
			return false, err
		}
		printArchived(w.out, hp)
		return true, nil

	case ActionQuit:
		w.printSaved(s)
		return true, nil
	}
	return false, fmt.Errorf("unknown action %q", action)
}

func (w *wizard) shouldSave() (bool, error) {
	switch w.save {
	case saveNever:
		return false, nil
	case saveAsk:
		return w.prompt.Confirm("Save draft?")
	}
	return true, nil
}

func (w *wizard) moved(s *workflow.Session, persisted bool) {
	if !persisted {
		fmt.Fprintln(w.out, formatter.Dim("Continuing without saving."))
		return
	}
	w.savedAt = s.Step()
	fmt.Fprintf(w.out, "%s %s\n", formatter.StyleGreen.Render("✔ Saved draft"), formatter.Dim(s.DraftID()))
}

func (w *wizard) printCandidate(step domain.Step, c workflow.Candidate) {
	steps := w.orch.Pipeline().Steps()
	rank := slices.Index(steps, step) + 1
	fmt.Fprintf(w.out, "\n%s\n%s\n", formatter.StepBadge(step, rank, len(steps)), formatter.FormatCandidate(c))
}

func (w *wizard) printSaved(s *workflow.Session) {
	id := s.DraftID()
	if id == "" {
		fmt.Fprintln(w.out, formatter.Dim("Nothing saved."))
		return
	}
	fmt.Fprintf(w.out, "Draft %s saved at %s.\n%s\n", formatter.Bold(id), w.savedAt.Label(),
		formatter.Dim("Resume with: rfpilot draft resume "+id))
}

func (w *wizard) printError(err error) {
	fmt.Fprintf(w.out, "%s %v\n", formatter.StyleRed.Render("Error:"), err)
}

func printArchived(out io.Writer, hp *domain.HistoricalProposal) {
	fmt.Fprintf(out, "%s %s as %s\n", formatter.StyleGreen.Render("Archived"),
		formatter.Bold(hp.Title), formatter.StatusPill(hp.Status))
	fmt.Fprintf(out, "%s\n", formatter.Dim("History id: "+hp.ID))
}

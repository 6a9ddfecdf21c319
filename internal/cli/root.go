package cli

import (
	"context"
	"time"

	"github.com/alexanderramin/rfpilot/internal/config"
	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/alexanderramin/rfpilot/internal/service"
	"github.com/alexanderramin/rfpilot/internal/workflow"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// FileDescriber turns local paths into upload metadata.
type FileDescriber interface {
	Describe(paths []string) ([]domain.FileMeta, error)
}

// Backend reports whether the language model can be reached.
type Backend interface {
	Available(ctx context.Context) bool
}

// App holds everything the CLI commands need.
type App struct {
	Drafts       service.DraftService
	History      service.HistoryService
	Orchestrator *workflow.Orchestrator
	Files        FileDescriber
	Config       *config.Config

	// Backend is checked before the wizard generates. Nil skips the check.
	Backend Backend

	// FS receives exported files. Nil means the OS filesystem.
	FS afero.Fs

	// Prompter answers wizard questions. Nil means huh forms on the terminal.
	Prompter Prompter

	// IsInteractive reports whether stdin is a terminal.
	IsInteractive func() bool

	Now func() time.Time
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) fs() afero.Fs {
	if a.FS == nil {
		return afero.NewOsFs()
	}
	return a.FS
}

// prompter returns the configured prompter, falling back to terminal forms
// when stdin is interactive.
func (a *App) prompter() (Prompter, error) {
	if a.Prompter != nil {
		return a.Prompter, nil
	}
	if !a.interactive() {
		return nil, errNotInteractive
	}
	return huhPrompter{}, nil
}

// NewRootCmd creates the top-level "rfpilot" command and registers all
// subcommands against app.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "rfpilot",
		Short:         "Guided RFP proposal wizard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	// Read by main before the command tree is built; declared here so cobra
	// accepts it.
	root.PersistentFlags().String("config", "", "config file (default ~/.rfpilot/config.yaml)")

	root.AddCommand(
		newDraftCmd(app),
		newHistoryCmd(app),
		newAgentsCmd(app),
		newWizardCmd(app),
	)
	return root
}

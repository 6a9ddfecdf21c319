package cli

import (
	"fmt"

	"github.com/alexanderramin/rfpilot/internal/cli/formatter"
	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/spf13/cobra"
)

func newDraftCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Manage proposal drafts",
	}
	cmd.AddCommand(
		newDraftNewCmd(app),
		newDraftListCmd(app),
		newDraftShowCmd(app),
		newDraftResumeCmd(app),
		newDraftDeleteCmd(app),
		newDraftArchiveCmd(app),
	)
	return cmd
}

func newDraftNewCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "new [files...]",
		Short: "Create a draft from RFP files",
		Long: `Create a draft from one or more RFP files. The draft starts at the
requirements analysis step; continue it with "rfpilot draft resume <id>".

Run without files on a terminal to be asked for them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if len(paths) == 0 {
				p, err := app.prompter()
				if err != nil {
					return fmt.Errorf("no files given: %w", err)
				}
				if paths, err = p.Files(); err != nil {
					return err
				}
			}
			files, err := app.Files.Describe(paths)
			if err != nil {
				return err
			}

			s := app.Orchestrator.StartNew()
			if err := s.SetFiles(files); err != nil {
				return err
			}
			if err := app.Orchestrator.Advance(cmd.Context(), s, true); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s with %d file(s)\n",
				formatter.StyleGreen.Render("Created draft"), formatter.Bold(s.DraftID()), len(files))
			fmt.Fprintf(out, "%s\n", formatter.Dim("Continue with: rfpilot draft resume "+s.DraftID()))
			return nil
		},
	}
}

func newDraftListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List drafts in progress, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			drafts, err := app.Drafts.List(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDraftList(drafts, app.now()))
			return nil
		},
	}
}

func newDraftShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a draft and its stored outputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.Drafts.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("draft %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatDraft(d, app.Orchestrator.Pipeline()))
			return nil
		},
	}
}

func newDraftResumeCmd(app *App) *cobra.Command {
	var save string
	cmd := &cobra.Command{
		Use:   "resume <id>",
		Short: "Continue a draft in the interactive wizard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := parseSaveMode(save)
			if err != nil {
				return err
			}
			p, err := app.prompter()
			if err != nil {
				return err
			}
			s, err := app.Orchestrator.ResumeByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return newWizard(app, p, cmd.OutOrStdout(), mode).run(cmd.Context(), s)
		},
	}
	addSaveFlag(cmd, &save)
	return cmd
}

func newDraftDeleteCmd(app *App) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a draft without archiving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !force {
				p, err := app.prompter()
				if err != nil {
					return fmt.Errorf("refusing to delete without --force: %w", err)
				}
				ok, err := p.Confirm(fmt.Sprintf("Delete draft %s?", id))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Cancelled."))
					return nil
				}
			}
			if err := app.Drafts.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", formatter.StyleGreen.Render("Deleted draft"), id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")
	return cmd
}

func newDraftArchiveCmd(app *App) *cobra.Command {
	var outcome string
	cmd := &cobra.Command{
		Use:   "archive <id>",
		Short: "Close a draft as won or lost and move it to history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := domain.ParseProposalStatus(outcome)
			if err != nil {
				return err
			}
			hp, err := app.Drafts.Archive(cmd.Context(), args[0], status)
			if err != nil {
				return err
			}
			printArchived(cmd.OutOrStdout(), hp)
			return nil
		},
	}
	cmd.Flags().StringVar(&outcome, "outcome", "", "final outcome: won or lost")
	_ = cmd.MarkFlagRequired("outcome")
	return cmd
}

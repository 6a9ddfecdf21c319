package cli

import (
	"fmt"

	"github.com/alexanderramin/rfpilot/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse archived proposals",
	}
	cmd.AddCommand(
		newHistoryListCmd(app),
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show an archived proposal",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := app.History.Get(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("proposal %s: %w", args[0], err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProposal(p))
				return nil
			},
		},
		newHistoryEvaluateCmd(app),
		newHistoryImportCmd(app),
	)
	return cmd
}

func newHistoryListCmd(app *App) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List archived proposals, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := app.History.Search(cmd.Context(), search)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHistoryList(list))
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by title, client or industry")
	return cmd
}

func newHistoryImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import past proposals from a JSON or YAML file",
		Long: `Import past proposals into the history. The file holds a "proposals" list;
each entry needs a title, a date (YYYY-MM-DD) and a status. Nothing is stored
unless every entry is valid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imported, err := app.History.Import(cmd.Context(), app.fs(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d proposal(s) from %s\n",
				formatter.StyleGreen.Render("Imported"), len(imported), args[0])
			return nil
		},
	}
}

func newHistoryEvaluateCmd(app *App) *cobra.Command {
	var (
		all         bool
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "evaluate [id]",
		Short: "Score archived proposals with the QA agent",
		Long: `Score one archived proposal, or every proposal without a score with --all.
Scores are stored once; sample scores shown without a configured model are
not stored.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if all {
				n, err := app.History.EvaluatePending(cmd.Context(), concurrency)
				fmt.Fprintf(out, "%s %d proposal(s)\n", formatter.StyleGreen.Render("Evaluated"), n)
				return err
			}
			if len(args) == 0 {
				return fmt.Errorf("give a proposal id or --all")
			}
			p, err := app.History.Evaluate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, formatter.FormatProposal(p))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "evaluate every unscored proposal")
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "parallel evaluations with --all")
	return cmd
}

package cli

import (
	"fmt"

	"github.com/alexanderramin/rfpilot/internal/cli/formatter"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newAgentsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Inspect the agent personas behind each step",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List configured agents in pipeline order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatAgents(app.Config.AgentIDs(), app.Config.Agents))
				return nil
			},
		},
		newAgentsExportCmd(app),
	)
	return cmd
}

func newAgentsExportCmd(app *App) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the agent configuration as YAML",
		Long: `Write the effective agent configuration as YAML. The output can be pasted
into config.yaml under "agents" to customize prompts and models.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output == "" {
				return app.Config.ExportAgents(cmd.OutOrStdout())
			}
			f, err := app.fs().Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			if err := exportTo(app, f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", formatter.StyleGreen.Render("Wrote"), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write instead of stdout")
	return cmd
}

func exportTo(app *App, f afero.File) (err error) {
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return app.Config.ExportAgents(f)
}

package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/twill/pkg/errors"
)

// browseCommand creates the browse command, an interactive view of a
// transformed document.
func (c *CLI) browseCommand() *cobra.Command {
	var pf pipelineFlags

	cmd := &cobra.Command{
		Use:   "browse [file|-]",
		Short: "Browse the resources of a JSON:API document interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "-" {
				return errors.New(errors.ErrCodeInvalidInput, "browse needs a file; stdin is used for the terminal")
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			pf.apply(cmd, cfg)

			result, err := c.transformInput(cmd.Context(), cfg, args)
			if err != nil {
				return err
			}

			model := NewResourceListModel(args[0], result.Output.Slice())
			_, err = tea.NewProgram(model, tea.WithContext(cmd.Context()), tea.WithAltScreen()).Run()
			return err
		},
	}

	pf.register(cmd)
	return cmd
}

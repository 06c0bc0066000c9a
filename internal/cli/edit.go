package cli

import (
	"context"
	stderrors "errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ecomap/pkg/errors"
	"github.com/matzehuels/ecomap/pkg/io"
)

// editCommand creates the edit command: a terminal editor for the boxes
// of a saved map.
func (c *CLI) editCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "edit <map.json>",
		Short: "Move, resize and restyle the boxes of a saved map",
		Long: `Edit opens a saved map in an interactive terminal editor. Select a box with
tab, move it with the arrow keys and resize it with shift+arrows. Moved and
resized boxes keep their geometry through later builds with --snapshot.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = args[0]
			}
			return c.runEdit(cmd.Context(), args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "save to this file instead of the input")
	return cmd
}

func (c *CLI) runEdit(ctx context.Context, path, output string) error {
	st, err := c.openMap(path)
	if err != nil {
		return err
	}
	if len(st.Categories()) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "%s contains no categories", path)
	}

	save := func(d io.Document) error { return io.ExportSnapshot(d, output) }
	final, err := tea.NewProgram(NewEditorModel(st, output, save), tea.WithContext(ctx)).Run()
	if err != nil {
		if stderrors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrap(errors.ErrCodeInternal, err, "run editor")
	}
	if m, ok := final.(EditorModel); ok && m.Dirty {
		c.out.warn("Quit without saving %s", output)
	}
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ecomap/pkg/io"
)

// columnsCommand creates the columns command for inspecting a table before
// choosing a mapping.
func (c *CLI) columnsCommand() *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "columns <file>",
		Short: "Show the columns of a CSV or JSON file and the suggested mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := io.ReadFile(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			fmt.Fprintln(w, StyleTitle.Render(args[0]))
			fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("%s · %d columns · %d rows", t.Format, len(t.Columns), t.Len())))
			fmt.Fprintln(w)

			m := c.mapping(t.Columns, io.Mapping{})
			fmt.Fprintln(w, renderTable([]string{"Field", "Column"}, [][]string{
				{"company_name", orDash(m.CompanyName)},
				{"category", orDash(m.Category)},
				{"subcategory", orDash(m.Subcategory)},
				{"logo_filename", orDash(m.LogoFilename)},
			}))

			if preview := io.Preview(t, rows); len(preview) > 0 {
				fmt.Fprintln(w)
				fmt.Fprintln(w, renderTable(t.Columns, preview))
			}

			fmt.Fprintln(w)
			if err := m.Validate(t.Columns); err != nil {
				fmt.Fprintln(w, StyleWarning.Render(iconWarning)+" "+err.Error())
				fmt.Fprintln(w, StyleDim.Render("Pick the columns with: ")+styleCommand.Render(fmt.Sprintf("ecomap build %s --name <col> --category <col>", args[0])))
				return nil
			}
			fmt.Fprintln(w, StyleDim.Render("Build the map: ")+styleCommand.Render("ecomap build "+args[0]))
			return nil
		},
	}

	cmd.Flags().IntVarP(&rows, "rows", "n", 5, "number of preview rows")
	return cmd
}

// mapping resolves the column mapping: explicit flags win, then the
// [mapping] config table, then the suggestion from the header. Each field
// falls back independently.
func (c *CLI) mapping(columns []string, flags io.Mapping) io.Mapping {
	return flags.Or(c.cfg.Mapping).Or(io.SuggestMapping(columns))
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ecomap/pkg/ecosystem"
	"github.com/matzehuels/ecomap/pkg/io"
	"github.com/matzehuels/ecomap/pkg/render/sink"
)

func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for ecomap.

  $ source <(ecomap completion bash)
  $ ecomap completion zsh > "${fpath[1]}/_ecomap"
  $ ecomap completion fish | source
  PS> ecomap completion powershell | Out-String | Invoke-Expression

Besides commands and flags, the scripts complete export formats and, for
the mapping flags of build, the column names of the input file.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, w := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(w, true)
			case "zsh":
				return root.GenZshCompletion(w)
			case "fish":
				return root.GenFishCompletion(w, true)
			default:
				return root.GenPowerShellCompletionWithDesc(w)
			}
		},
	}
}

// registerCompletions attaches argument and flag completion to the
// commands that take data files.
func registerCompletions(root *cobra.Command) {
	for _, cmd := range root.Commands() {
		switch cmd.Name() {
		case "columns", "build":
			cmd.ValidArgsFunction = completeFiles("csv", "json")
		case "render", "edit":
			cmd.ValidArgsFunction = completeFiles("json")
		}
		if cmd.Flags().Lookup("format") != nil {
			cmd.RegisterFlagCompletionFunc("format", completeFormats)
		}
		if cmd.Flags().Lookup("orientation") != nil {
			cmd.RegisterFlagCompletionFunc("orientation", cobra.FixedCompletions(
				[]string{string(ecosystem.Landscape), string(ecosystem.Portrait)}, cobra.ShellCompDirectiveNoFileComp))
		}
		if cmd.Name() == "build" {
			for _, flag := range []string{"name", "category", "subcategory", "logo-column"} {
				cmd.RegisterFlagCompletionFunc(flag, completeColumns)
			}
		}
	}
}

func completeFiles(exts ...string) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return exts, cobra.ShellCompDirectiveFilterFileExt
	}
}

// completeFormats completes the last entry of a comma-separated list.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix := ""
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
	}
	out := make([]string, 0, len(sink.Formats))
	for _, f := range sink.Formats {
		out = append(out, prefix+string(f))
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// completeColumns offers the header of the input file named by the first
// argument.
func completeColumns(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	t, err := io.ReadFile(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return t.Columns, cobra.ShellCompDirectiveNoFileComp
}

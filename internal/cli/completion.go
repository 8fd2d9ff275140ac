package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/twill/pkg/pipeline"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for twill and print it to stdout.

  $ source <(twill completion bash)
  $ twill completion zsh > "${fpath[1]}/_twill"
  $ twill completion fish > ~/.config/fish/completions/twill.fish
  PS> twill completion powershell | Out-String | Invoke-Expression

Completion covers commands, flags, --format values and --store targets.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, w := cmd.Root(), c.out()
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

// completeFormats completes the comma-separated --format list: the part
// before the last comma is kept, formats already listed are skipped.
func completeFormats(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix := ""
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
	}
	used := make(map[string]bool)
	for _, f := range strings.Split(prefix, ",") {
		used[strings.TrimSpace(f)] = true
	}

	var out []string
	for _, f := range []string{pipeline.FormatJSON, pipeline.FormatDOT, pipeline.FormatSVG} {
		if !used[f] {
			out = append(out, prefix+f)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

func completeStores(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return []string{
		storeMongo + "\tupsert into MongoDB",
		storeJSONL + "\tnewline-delimited JSON",
	}, cobra.ShellCompDirectiveNoFileComp
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/hanprep/internal/textio"
)

var mergeEnsureNewline bool

var mergeCmd = &cobra.Command{
	Use:   "merge <dir> <target>",
	Short: "Append every file in a directory to one target file",
	Long: `Append the content of every regular file directly inside <dir> to
<target>, in filename order. Sub-directories are skipped and the target is
created if missing.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := textio.MergeOptions{EnsureNewline: mergeEnsureNewline}
		if err := textio.MergeDir(args[0], args[1], opts); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Merged %s into %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	mergeCmd.Flags().BoolVar(&mergeEnsureNewline, "ensure-newline", false, "add a newline after files that lack one")
}

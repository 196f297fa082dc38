package cli

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/hanprep/internal/dataset"
	"github.com/ppiankov/hanprep/internal/textio"
)

var (
	partitionRatio     string
	partitionOutputDir string
	partitionShuffle   bool
	partitionSeed      uint64
)

var partitionCmd = &cobra.Command{
	Use:   "partition <input>",
	Short: "Split a line-oriented dataset into train/val/test files",
	Long: `Split the lines of <input> into three contiguous parts and write them
to train.txt, val.txt and test.txt.

Sizes: train = floor(n*train), val = ceil(n*val), test = the remainder.
Ratios must be non-negative and sum to 1.`,
	Example: `  hanprep partition clean.txt --ratio 0.8,0.1,0.1 --output-dir data/
  hanprep partition clean.txt --shuffle --seed 42`,
	Args: cobra.ExactArgs(1),
	RunE: runPartition,
}

func init() {
	rootCmd.AddCommand(partitionCmd)

	partitionCmd.Flags().StringVar(&partitionRatio, "ratio", "0.6,0.2,0.2", "train,val,test ratios")
	partitionCmd.Flags().StringVar(&partitionOutputDir, "output-dir", ".", "directory for train.txt, val.txt and test.txt")
	partitionCmd.Flags().BoolVar(&partitionShuffle, "shuffle", false, "shuffle lines before splitting")
	partitionCmd.Flags().Uint64Var(&partitionSeed, "seed", 1, "shuffle seed")
}

func runPartition(cmd *cobra.Command, args []string) error {
	ratio, err := dataset.ParseRatio(partitionRatio)
	if err != nil {
		return err
	}

	lines, err := textio.ReadLines(args[0])
	if err != nil {
		return err
	}

	if partitionShuffle {
		rng := rand.New(rand.NewPCG(partitionSeed, partitionSeed))
		rng.Shuffle(len(lines), func(i, j int) { lines[i], lines[j] = lines[j], lines[i] })
	}

	train, val, test, err := dataset.Partition(lines, ratio)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(partitionOutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	splits := []struct {
		name  string
		lines []string
	}{
		{"train.txt", train},
		{"val.txt", val},
		{"test.txt", test},
	}

	out := cmd.OutOrStdout()
	for _, split := range splits {
		path := filepath.Join(partitionOutputDir, split.name)
		if err := textio.WriteLines(path, split.lines); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ %s: %d lines\n", path, len(split.lines))
	}
	return nil
}

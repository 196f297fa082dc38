package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/hanprep/internal/pipeline"
	"github.com/ppiankov/hanprep/internal/worker"
)

var (
	cleanOutput    string
	cleanOutputDir string
	cleanFromList  string
	cleanTimeout   time.Duration
)

var cleanCmd = &cobra.Command{
	Use:   "clean <input>...",
	Short: "Clean and filter raw sentences",
	Long: `Read raw text (one sentence per line, or HTML), apply the configured
filter chain and write one cleaned sentence per line.

With a single input and -o the result goes to that file. With several
inputs (or --from) each file is cleaned in parallel into --output-dir.

Filter chain: width normalisation, compound-sentence drop, special symbol /
English / digit / punctuation removal, blank drop, length window, dedupe.`,
	Example: `  hanprep clean raw.txt -o clean.txt
  hanprep clean corpus/*.txt --output-dir cleaned/ --min-len 8
  hanprep clean --from inputs.txt --output-dir cleaned/ --punctuation`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "output file (single input)")
	cleanCmd.Flags().StringVar(&cleanOutputDir, "output-dir", "", "output directory (multiple inputs)")
	cleanCmd.Flags().StringVar(&cleanFromList, "from", "", "file listing input paths, one per line")
	cleanCmd.Flags().DurationVar(&cleanTimeout, "timeout", 30*time.Minute, "total timeout")

	cleanCmd.Flags().Int("min-len", 0, "minimum sentence length in characters")
	cleanCmd.Flags().Int("max-len", 0, "maximum sentence length in characters")
	cleanCmd.Flags().Bool("normalize", false, "fold full-width characters to half-width")
	cleanCmd.Flags().Bool("punctuation", false, "remove punctuation")
	cleanCmd.Flags().Bool("english", false, "remove English words")
	cleanCmd.Flags().Bool("digits", false, "remove digits")
	cleanCmd.Flags().Bool("simple-only", true, "drop lines holding more than one sentence")
	cleanCmd.Flags().Bool("dedupe", true, "drop repeated sentences")
	cleanCmd.Flags().IntP("workers", "w", 0, "number of concurrent files")

	bindFlags(cleanCmd, map[string]string{
		"filter.min_len":       "min-len",
		"filter.max_len":       "max-len",
		"filter.normalize":     "normalize",
		"filter.punctuation":   "punctuation",
		"filter.english_words": "english",
		"filter.digits":        "digits",
		"filter.simple_only":   "simple-only",
		"filter.dedupe":        "dedupe",
		"concurrency.workers":  "workers",
	})
}

// bindFlags ties config keys to command flags. A flag only wins when set.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for key, flag := range keys {
		_ = viper.BindPFlag(key, cmd.Flags().Lookup(flag))
	}
}

func runClean(cmd *cobra.Command, args []string) error {
	inputs := args
	if cleanFromList != "" {
		listed, err := worker.ReadFileList(cleanFromList)
		if err != nil {
			return err
		}
		inputs = append(inputs, listed...)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no input files (pass paths or --from)")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, cleanTimeout)
	defer cancelTimeout()

	cleaner := pipeline.NewCleaner(cfg.Filter, log)
	renderer := pipeline.NewRenderer()

	// Single file straight to -o
	if cleanOutput != "" {
		if len(inputs) != 1 {
			return fmt.Errorf("-o takes exactly one input, got %d (use --output-dir)", len(inputs))
		}
		stats, err := cleaner.CleanFile(ctx, inputs[0], cleanOutput)
		if err != nil {
			return fmt.Errorf("clean %s: %w", inputs[0], err)
		}
		renderer.RenderSummary(cmd.ErrOrStderr(), 1, stats)
		return nil
	}

	if cleanOutputDir == "" {
		return fmt.Errorf("either -o or --output-dir is required")
	}

	log.WithField("files", len(inputs)).WithField("workers", cfg.Concurrency.Workers).Info("cleaning corpus")

	processor := worker.NewBatchProcessor(cleaner, cfg.Concurrency.Workers)
	results, err := processor.ProcessFiles(ctx, inputs, cleanOutputDir)
	if err != nil {
		return err
	}

	var total pipeline.CleanStats
	failed := 0
	for _, res := range results {
		if res.Err() != nil {
			failed++
			log.WithError(res.Err()).WithField("input", res.Input).Error("clean failed")
			continue
		}
		total.Add(res.Stats)
		log.WithField("output", res.Output).Debug("wrote")
	}

	renderer.RenderSummary(cmd.ErrOrStderr(), len(results)-failed, total)

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(results))
	}
	return nil
}

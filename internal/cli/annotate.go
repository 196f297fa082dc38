package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ppiankov/hanprep/internal/annotate"
	"github.com/ppiankov/hanprep/internal/cache"
	"github.com/ppiankov/hanprep/internal/ltp"
	"github.com/ppiankov/hanprep/internal/ltp/gsekit"
	"github.com/ppiankov/hanprep/internal/ltp/remote"
	"github.com/ppiankov/hanprep/internal/model"
	"github.com/ppiankov/hanprep/internal/pipeline"
	"github.com/ppiankov/hanprep/internal/textio"
	"github.com/ppiankov/hanprep/internal/textproc"
)

var (
	annotateStages string
	annotateJSON   string
	annotateCoNLL  string
	annotateSplit  bool
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <input>",
	Short: "Segment, tag, recognise, parse and label sentences",
	Long: `Run the selected annotation stages over every line of <input>.

Stages (comma separated, or "all"): seg, pos, ner, parse, srl.
Prerequisites are added automatically, so "srl" also runs seg, pos and parse.

Backends:
  gse     segmentation, tagging and NER from gse dictionaries in the model
          directory; parse and srl go to the model server
  remote  every stage on the model server at remote.base_url

Model files: cws.model, pos.model, ner.model, parser.model, pisrl_win.model.`,
	Example: `  hanprep annotate clean.txt --stages seg,pos,ner --json out.jsonl
  hanprep annotate clean.txt --backend remote --stages all --conll out.conll
  HANPREP_MODELS_DIR=/opt/ltp_data hanprep annotate clean.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotate,
}

func init() {
	rootCmd.AddCommand(annotateCmd)

	annotateCmd.Flags().StringVar(&annotateStages, "stages", "seg,pos", "stages to run")
	annotateCmd.Flags().StringVar(&annotateJSON, "json", "", "write JSON lines to this file")
	annotateCmd.Flags().StringVar(&annotateCoNLL, "conll", "", "write CoNLL-U to this file")
	annotateCmd.Flags().BoolVar(&annotateSplit, "split", false, "split input lines into sentences first")

	annotateCmd.Flags().String("models", "", "model directory")
	annotateCmd.Flags().String("backend", "", "toolkit backend (gse, remote)")
	annotateCmd.Flags().Bool("keep-loaded", false, "keep models loaded between stages")
	annotateCmd.Flags().String("stopwords", "", "stopword file; stopwords are dropped after segmentation")
	annotateCmd.Flags().String("remote-url", "", "model server base URL")
	annotateCmd.Flags().Bool("cache", true, "cache model server responses")

	bindFlags(annotateCmd, map[string]string{
		"models.dir":         "models",
		"models.backend":     "backend",
		"models.keep_loaded": "keep-loaded",
		"filter.stopwords":   "stopwords",
		"remote.base_url":    "remote-url",
		"cache.enabled":      "cache",
	})
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	stages, err := annotate.ParseStages(annotateStages)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	// 1. Input
	sentences, err := textio.ReadLines(args[0])
	if err != nil {
		return err
	}
	sentences = textproc.DelBlankLines(sentences)
	if annotateSplit {
		var split []string
		for _, line := range sentences {
			split = append(split, textproc.SplitSentences(line)...)
		}
		sentences = split
	}

	opts := annotate.RunOptions{Stages: stages}
	if cfg.Filter.Stopwords != "" {
		opts.Stopwords, err = textproc.LoadStopwords(cfg.Filter.Stopwords)
		if err != nil {
			return err
		}
	}

	// 2. Toolkit
	toolkit, err := buildToolkit(cfg, stages, log)
	if err != nil {
		return err
	}

	annOpts := []annotate.Option{annotate.WithLogger(log)}
	if cfg.Models.KeepLoaded {
		annOpts = append(annOpts, annotate.WithKeepLoaded(cfg.Models.TTL))
	}
	annotator := annotate.New(cfg.Models.Dir, toolkit, annOpts...)
	defer annotator.Close()

	log.WithFields(logrus.Fields{
		"sentences": len(sentences),
		"stages":    stages.String(),
		"toolkit":   toolkit.Name,
	}).Info("annotating")

	// 3. Annotate
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	docs, err := annotator.Run(ctx, sentences, opts)
	if err != nil {
		return err
	}

	// 4. Render
	renderer := pipeline.NewRenderer()
	if annotateJSON == "" && annotateCoNLL == "" {
		return renderer.RenderJSONL(cmd.OutOrStdout(), docs)
	}
	if annotateJSON != "" {
		if err := renderTo(annotateJSON, func(w io.Writer) error { return renderer.RenderJSONL(w, docs) }); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote JSON lines: %s\n", annotateJSON)
	}
	if annotateCoNLL != "" {
		if err := renderTo(annotateCoNLL, func(w io.Writer) error { return renderer.RenderCoNLL(w, docs) }); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote CoNLL-U: %s\n", annotateCoNLL)
	}
	return nil
}

// buildToolkit assembles the backend for the requested stages. The gse
// backend borrows parse and srl from the model server, which is only
// contacted when those stages run.
func buildToolkit(cfg *model.Config, stages annotate.Stages, log logrus.FieldLogger) (ltp.Toolkit, error) {
	needsRemote := false
	var kit ltp.Toolkit

	switch cfg.Models.Backend {
	case "", "gse":
		kit = gsekit.Toolkit()
		needsRemote = stages.Parse || stages.Label
	case "remote":
		needsRemote = true
	default:
		return ltp.Toolkit{}, fmt.Errorf("unknown backend: %s (supported: gse, remote)", cfg.Models.Backend)
	}

	if !needsRemote {
		return kit, nil
	}

	opts := []remote.Option{remote.WithLogger(log)}
	if cfg.Cache.Enabled {
		responses := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		opts = append(opts, remote.WithCache(responses, cfg.Cache.DiskTTL))
	}
	client, err := remote.NewClient(cfg.Remote, opts...)
	if err != nil {
		return ltp.Toolkit{}, err
	}

	if kit.Name == "" {
		return client.Toolkit(), nil
	}
	return kit.Merge(client.Toolkit()), nil
}

func renderTo(path string, render func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	return render(f)
}

package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/hanprep/internal/model"
	"github.com/ppiankov/hanprep/internal/textio"
	"github.com/ppiankov/hanprep/internal/textproc"
)

// CleanStats counts what each step of a Clean call removed
type CleanStats struct {
	Input     int `json:"input"`
	Output    int `json:"output"`
	Blank     int `json:"blank"`
	Complex   int `json:"complex"`
	Length    int `json:"length"`
	Duplicate int `json:"duplicate"`
}

// Add accumulates other into s
func (s *CleanStats) Add(other CleanStats) {
	s.Input += other.Input
	s.Output += other.Output
	s.Blank += other.Blank
	s.Complex += other.Complex
	s.Length += other.Length
	s.Duplicate += other.Duplicate
}

// Cleaner applies the configured filter chain to a corpus
type Cleaner struct {
	cfg    model.FilterConfig
	filter textproc.Filter
	log    logrus.FieldLogger
}

// NewCleaner creates a cleaner. Zero length bounds fall back to the
// sentence length defaults.
func NewCleaner(cfg model.FilterConfig, log logrus.FieldLogger) *Cleaner {
	minLen, maxLen := cfg.MinLen, cfg.MaxLen
	if minLen <= 0 {
		minLen = textproc.SentenceMinLen
	}
	if maxLen <= 0 {
		maxLen = textproc.SentenceMaxLen
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Cleaner{
		cfg:    cfg,
		filter: textproc.NewFilter(minLen, maxLen),
		log:    log,
	}
}

// Clean runs the filter chain over lines and returns the survivors in
// input order
func (c *Cleaner) Clean(lines []string) ([]string, CleanStats) {
	stats := CleanStats{Input: len(lines)}
	seen := make(map[string]struct{})
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		// 1. Normalise width so later patterns see half-width ASCII
		if c.cfg.Normalize {
			line = textproc.Normalize(line)
		}

		// 2. Drop lines holding more than one sentence
		if c.cfg.SimpleOnly && !textproc.IsSimpleSentence(line) {
			stats.Complex++
			continue
		}

		// 3. Substitutions
		line = c.strip(line)

		// 4. Blank lines
		line = strings.TrimSpace(line)
		if line == "" {
			stats.Blank++
			continue
		}

		// 5. Length window
		if !c.filter.IsLengthValid(line) {
			stats.Length++
			continue
		}

		// 6. Exact duplicates
		if c.cfg.Dedupe {
			if _, ok := seen[line]; ok {
				stats.Duplicate++
				continue
			}
			seen[line] = struct{}{}
		}

		out = append(out, line)
	}

	stats.Output = len(out)
	return out, stats
}

func (c *Cleaner) strip(line string) string {
	if c.cfg.SpecialSymbols {
		line = textproc.DelSpecialSymbol(line)
	}
	if c.cfg.EnglishWords {
		line = textproc.DelEnglishWord(line)
	}
	if c.cfg.Digits {
		line = textproc.DelDigits(line)
	}
	if c.cfg.Punctuation {
		line = textproc.DelPunctuation(line)
	}
	return line
}

// ReadCorpus loads a corpus file. HTML files contribute their visible text
// split into sentences; anything else is read line by line.
func ReadCorpus(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		blocks, err := textio.ReadHTMLText(path)
		if err != nil {
			return nil, err
		}
		var sentences []string
		for _, block := range blocks {
			sentences = append(sentences, textproc.SplitSentences(block)...)
		}
		return sentences, nil
	default:
		return textio.ReadLines(path)
	}
}

// CleanFile cleans inPath into outPath
func (c *Cleaner) CleanFile(ctx context.Context, inPath, outPath string) (CleanStats, error) {
	if err := ctx.Err(); err != nil {
		return CleanStats{}, err
	}

	lines, err := ReadCorpus(inPath)
	if err != nil {
		return CleanStats{}, fmt.Errorf("read corpus: %w", err)
	}

	cleaned, stats := c.Clean(lines)

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if err := textio.WriteLines(outPath, cleaned); err != nil {
		return stats, fmt.Errorf("write cleaned corpus: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"input":  inPath,
		"output": outPath,
		"kept":   stats.Output,
		"read":   stats.Input,
	}).Debug("cleaned corpus")

	return stats, nil
}

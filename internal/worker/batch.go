package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/hanprep/internal/pipeline"
)

// FileCleaner cleans one corpus file into another
type FileCleaner interface {
	CleanFile(ctx context.Context, inPath, outPath string) (pipeline.CleanStats, error)
}

// CleanJob cleans a single input file
type CleanJob struct {
	Index   int
	Input   string
	Output  string
	Cleaner FileCleaner
}

// Execute runs the clean job
func (j *CleanJob) Execute(ctx context.Context) Result {
	stats, err := j.Cleaner.CleanFile(ctx, j.Input, j.Output)
	return &CleanResult{
		Index:  j.Index,
		Input:  j.Input,
		Output: j.Output,
		Stats:  stats,
		Error:  err,
	}
}

// CleanResult is the outcome of a CleanJob
type CleanResult struct {
	Index  int
	Input  string
	Output string
	Stats  pipeline.CleanStats
	Error  error
}

// Err returns the job error
func (r *CleanResult) Err() error {
	return r.Error
}

// BatchProcessor cleans many files concurrently
type BatchProcessor struct {
	cleaner     FileCleaner
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(cleaner FileCleaner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		cleaner:     cleaner,
		concurrency: concurrency,
	}
}

// ProcessFiles cleans every input into outDir and returns results in input
// order. Inputs whose job never ran because ctx was cancelled carry the
// context error.
func (b *BatchProcessor) ProcessFiles(ctx context.Context, inputs []string, outDir string) ([]*CleanResult, error) {
	if len(inputs) == 0 {
		return []*CleanResult{}, nil
	}

	outputs, err := OutputPaths(inputs, outDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	jobs := make([]Job, len(inputs))
	for i, in := range inputs {
		jobs[i] = &CleanJob{
			Index:   i,
			Input:   in,
			Output:  outputs[i],
			Cleaner: b.cleaner,
		}
	}

	pool := NewPool(ctx, b.concurrency)
	done := pool.Run(jobs)

	results := make([]*CleanResult, len(inputs))
	for _, r := range done {
		res := r.(*CleanResult)
		results[res.Index] = res
	}
	for i, res := range results {
		if res == nil {
			cause := ctx.Err()
			if cause == nil {
				cause = context.Canceled
			}
			results[i] = &CleanResult{Index: i, Input: inputs[i], Output: outputs[i], Error: cause}
		}
	}

	return results, nil
}

// OutputPaths maps each input to <outDir>/<basename>.txt. Two inputs that
// would write the same file are an error.
func OutputPaths(inputs []string, outDir string) ([]string, error) {
	outputs := make([]string, len(inputs))
	owner := make(map[string]string, len(inputs))

	for i, in := range inputs {
		base := filepath.Base(in)
		name := strings.TrimSuffix(base, filepath.Ext(base)) + ".txt"
		out := filepath.Join(outDir, name)

		if prev, ok := owner[out]; ok {
			return nil, fmt.Errorf("inputs %s and %s both map to %s", prev, in, out)
		}
		owner[out] = in
		outputs[i] = out
	}

	return outputs, nil
}

// ReadFileList reads input paths from a file (one per line). Blank lines
// and # comments are skipped, duplicates dropped.
func ReadFileList(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file list: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file list: %w", err)
	}

	return paths, nil
}

// Package annotate runs batches of sentences through the stages of an ltp
// toolkit and reshapes the results into plain aligned slices.
//
// Every stage call loads its model from the model directory, processes the
// whole batch, and releases the model on every exit path. A load failure
// aborts the call before any sentence is processed, and no partial results
// are ever returned. An Annotator is meant for one task at a time and is not
// safe for concurrent use.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/hanprep/internal/cache"
	"github.com/ppiankov/hanprep/internal/ltp"
	"github.com/ppiankov/hanprep/internal/model"
)

var (
	// ErrBatchMismatch is returned when the per-sentence inputs of a stage
	// have different batch lengths
	ErrBatchMismatch = errors.New("annotate: batch length mismatch")

	// ErrMisaligned is returned when a per-token sequence does not have one
	// entry per token
	ErrMisaligned = errors.New("annotate: sequence not aligned with tokens")

	// ErrUnsupportedStage is returned when the toolkit has no model for a stage
	ErrUnsupportedStage = errors.New("annotate: stage not supported by toolkit")
)

// Annotator drives a toolkit over batches of sentences
type Annotator struct {
	dir     string
	toolkit ltp.Toolkit
	log     logrus.FieldLogger
	handles *cache.HandleCache // nil unless models are kept loaded
}

// Option configures an Annotator
type Option func(*Annotator)

// WithLogger sets the logger for model load and release events
func WithLogger(l logrus.FieldLogger) Option {
	return func(a *Annotator) {
		a.log = l
	}
}

// WithKeepLoaded keeps model handles loaded between calls until they have
// been idle for ttl. Call Close to release them.
func WithKeepLoaded(ttl time.Duration) Option {
	return func(a *Annotator) {
		a.handles = cache.NewHandleCache(ttl, func(key string, err error) {
			a.logRelease(key, err)
		})
	}
}

// New creates an annotator reading model files from modelDir
func New(modelDir string, toolkit ltp.Toolkit, opts ...Option) *Annotator {
	a := &Annotator{
		dir:     modelDir,
		toolkit: toolkit,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ModelPath returns the model file used for stage
func (a *Annotator) ModelPath(stage ltp.Stage) string {
	return filepath.Join(a.dir, stage.ModelFile())
}

// Close releases any models kept loaded
func (a *Annotator) Close() {
	if a.handles != nil {
		a.handles.Close()
	}
}

func (a *Annotator) logRelease(path string, err error) {
	if err != nil {
		a.log.WithField("model", path).WithError(err).Warn("model release failed")
		return
	}
	a.log.WithField("model", path).Debug("model released")
}

// acquire returns a loaded model for stage and the function that gives it
// back. The caller must call release exactly once.
func acquire[M ltp.Model](a *Annotator, stage ltp.Stage, newModel func() M) (m M, release func(), err error) {
	if newModel == nil {
		return m, nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedStage, stage, a.toolkit.Name)
	}

	path := a.ModelPath(stage)

	if a.handles != nil {
		a.handles.Sweep()
		if h, ok := a.handles.Get(path); ok {
			if cached, ok := h.(M); ok {
				return cached, func() {}, nil
			}
		}
	}

	m = newModel()
	if err := m.Load(path); err != nil {
		return m, nil, fmt.Errorf("load %s model %s: %w", stage, path, err)
	}
	a.log.WithFields(logrus.Fields{
		"stage": stage,
		"model": path,
	}).Debug("model loaded")

	if a.handles != nil {
		a.handles.Put(path, m)
		return m, func() {}, nil
	}

	return m, func() { a.logRelease(path, m.Release()) }, nil
}

// checkBatch verifies that every per-sentence input has n entries
func checkBatch(n int, lens ...int) error {
	for _, l := range lens {
		if l != n {
			return fmt.Errorf("%w: %d sentences, got %d", ErrBatchMismatch, n, l)
		}
	}
	return nil
}

// checkAligned verifies that sentence i has one entry per token
func checkAligned(i int, what string, tokens, got int) error {
	if tokens != got {
		return fmt.Errorf("%w: sentence %d has %d tokens but %d %s", ErrMisaligned, i, tokens, got, what)
	}
	return nil
}

// Segment splits every sentence into words
func (a *Annotator) Segment(ctx context.Context, sentences []string) ([][]string, error) {
	if len(sentences) == 0 {
		return [][]string{}, nil
	}

	segmentor, release, err := acquire(a, ltp.StageSegment, a.toolkit.NewSegmentor)
	if err != nil {
		return nil, err
	}
	defer release()

	out := make([][]string, len(sentences))
	for i, sentence := range sentences {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		words, err := segmentor.Segment(sentence)
		if err != nil {
			return nil, fmt.Errorf("segment sentence %d: %w", i, err)
		}
		out[i] = words
	}

	a.log.WithFields(logrus.Fields{"stage": ltp.StageSegment, "sentences": len(out)}).Debug("stage complete")
	return out, nil
}

// Postag tags every word of every segmented sentence
func (a *Annotator) Postag(ctx context.Context, segSents [][]string) ([][]string, error) {
	if len(segSents) == 0 {
		return [][]string{}, nil
	}

	postagger, release, err := acquire(a, ltp.StagePostag, a.toolkit.NewPostagger)
	if err != nil {
		return nil, err
	}
	defer release()

	out := make([][]string, len(segSents))
	for i, words := range segSents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tags, err := postagger.Postag(words)
		if err != nil {
			return nil, fmt.Errorf("postag sentence %d: %w", i, err)
		}
		if err := checkAligned(i, "tags", len(words), len(tags)); err != nil {
			return nil, err
		}
		out[i] = tags
	}

	a.log.WithFields(logrus.Fields{"stage": ltp.StagePostag, "sentences": len(out)}).Debug("stage complete")
	return out, nil
}

// RecognizeEntities tags every word with its entity boundary tag
func (a *Annotator) RecognizeEntities(ctx context.Context, segSents, posSents [][]string) ([][]string, error) {
	if err := checkBatch(len(segSents), len(posSents)); err != nil {
		return nil, err
	}
	if len(segSents) == 0 {
		return [][]string{}, nil
	}
	for i := range segSents {
		if err := checkAligned(i, "tags", len(segSents[i]), len(posSents[i])); err != nil {
			return nil, err
		}
	}

	recognizer, release, err := acquire(a, ltp.StageRecognize, a.toolkit.NewRecognizer)
	if err != nil {
		return nil, err
	}
	defer release()

	out := make([][]string, len(segSents))
	for i := range segSents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entities, err := recognizer.Recognize(segSents[i], posSents[i])
		if err != nil {
			return nil, fmt.Errorf("recognize sentence %d: %w", i, err)
		}
		if err := checkAligned(i, "entity tags", len(segSents[i]), len(entities)); err != nil {
			return nil, err
		}
		out[i] = entities
	}

	a.log.WithFields(logrus.Fields{"stage": ltp.StageRecognize, "sentences": len(out)}).Debug("stage complete")
	return out, nil
}

// ParseDependency parses every sentence. It returns the raw toolkit arcs,
// which LabelRoles consumes, and the same arcs as (head, relation) pairs.
func (a *Annotator) ParseDependency(ctx context.Context, segSents, posSents [][]string) ([][]ltp.Arc, [][]model.Dependency, error) {
	if err := checkBatch(len(segSents), len(posSents)); err != nil {
		return nil, nil, err
	}
	if len(segSents) == 0 {
		return [][]ltp.Arc{}, [][]model.Dependency{}, nil
	}
	for i := range segSents {
		if err := checkAligned(i, "tags", len(segSents[i]), len(posSents[i])); err != nil {
			return nil, nil, err
		}
	}

	parser, release, err := acquire(a, ltp.StageParse, a.toolkit.NewParser)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	arcObjs := make([][]ltp.Arc, len(segSents))
	arcSents := make([][]model.Dependency, len(segSents))
	for i := range segSents {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		arcs, err := parser.Parse(segSents[i], posSents[i])
		if err != nil {
			return nil, nil, fmt.Errorf("parse sentence %d: %w", i, err)
		}
		if err := checkAligned(i, "arcs", len(segSents[i]), len(arcs)); err != nil {
			return nil, nil, err
		}

		pairs := make([]model.Dependency, len(arcs))
		for j, arc := range arcs {
			pairs[j] = model.Dependency{Head: arc.Head, Relation: arc.Relation}
		}
		arcObjs[i] = arcs
		arcSents[i] = pairs
	}

	a.log.WithFields(logrus.Fields{"stage": ltp.StageParse, "sentences": len(arcSents)}).Debug("stage complete")
	return arcObjs, arcSents, nil
}

// LabelRoles labels the semantic roles of every sentence. The arguments of
// all predicates in a sentence are flattened into one list of tuples.
func (a *Annotator) LabelRoles(ctx context.Context, segSents, posSents [][]string, arcs [][]ltp.Arc) ([][]model.RoleTuple, error) {
	if err := checkBatch(len(segSents), len(posSents), len(arcs)); err != nil {
		return nil, err
	}
	if len(segSents) == 0 {
		return [][]model.RoleTuple{}, nil
	}
	for i := range segSents {
		if err := checkAligned(i, "tags", len(segSents[i]), len(posSents[i])); err != nil {
			return nil, err
		}
		if err := checkAligned(i, "arcs", len(segSents[i]), len(arcs[i])); err != nil {
			return nil, err
		}
	}

	labeller, release, err := acquire(a, ltp.StageLabel, a.toolkit.NewLabeller)
	if err != nil {
		return nil, err
	}
	defer release()

	out := make([][]model.RoleTuple, len(segSents))
	for i := range segSents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		roles, err := labeller.Label(segSents[i], posSents[i], arcs[i])
		if err != nil {
			return nil, fmt.Errorf("label sentence %d: %w", i, err)
		}
		out[i] = flattenRoles(roles)
	}

	a.log.WithFields(logrus.Fields{"stage": ltp.StageLabel, "sentences": len(out)}).Debug("stage complete")
	return out, nil
}

func flattenRoles(roles []ltp.Role) []model.RoleTuple {
	tuples := []model.RoleTuple{}
	for _, r := range roles {
		for _, arg := range r.Arguments {
			tuples = append(tuples, model.RoleTuple{
				Predicate: r.Index,
				Role:      arg.Name,
				Start:     arg.Range.Start,
				End:       arg.Range.End,
			})
		}
	}
	return tuples
}

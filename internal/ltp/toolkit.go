// Package ltp defines the contract of the external linguistic toolkit the
// annotator drives: one model type per stage, each loaded from a file and
// released after use.
package ltp

import "fmt"

// Model file names expected inside the model directory
const (
	SegmentorModel  = "cws.model"
	PostaggerModel  = "pos.model"
	RecognizerModel = "ner.model"
	ParserModel     = "parser.model"
	LabellerModel   = "pisrl_win.model"
)

// Stage names one annotation step
type Stage string

const (
	StageSegment   Stage = "segment"
	StagePostag    Stage = "postag"
	StageRecognize Stage = "recognize"
	StageParse     Stage = "parse"
	StageLabel     Stage = "label"
)

// ModelFile returns the model file name used by the stage
func (s Stage) ModelFile() string {
	switch s {
	case StageSegment:
		return SegmentorModel
	case StagePostag:
		return PostaggerModel
	case StageRecognize:
		return RecognizerModel
	case StageParse:
		return ParserModel
	case StageLabel:
		return LabellerModel
	default:
		return ""
	}
}

// ParseStage maps a stage name or common alias to a Stage
func ParseStage(name string) (Stage, error) {
	switch name {
	case "segment", "seg", "cws":
		return StageSegment, nil
	case "postag", "pos":
		return StagePostag, nil
	case "recognize", "ner":
		return StageRecognize, nil
	case "parse", "parser", "dep":
		return StageParse, nil
	case "label", "srl":
		return StageLabel, nil
	default:
		return "", fmt.Errorf("unknown stage: %s (supported: seg, pos, ner, parse, srl)", name)
	}
}

// Model is the load/release lifecycle shared by every stage
type Model interface {
	// Load reads the model artifact at path
	Load(path string) error

	// Release frees the loaded model. The model may be loaded again after.
	Release() error
}

// Segmentor splits a sentence into words
type Segmentor interface {
	Model
	Segment(sentence string) ([]string, error)
}

// Postagger assigns one part-of-speech tag per word
type Postagger interface {
	Model
	Postag(words []string) ([]string, error)
}

// Recognizer assigns one entity boundary tag per word (S-, B-, I-, E- or O)
type Recognizer interface {
	Model
	Recognize(words, postags []string) ([]string, error)
}

// Parser produces one dependency arc per word
type Parser interface {
	Model
	Parse(words, postags []string) ([]Arc, error)
}

// Labeller finds the semantic roles of every predicate in the sentence
type Labeller interface {
	Model
	Label(words, postags []string, arcs []Arc) ([]Role, error)
}

// Arc is a dependency arc as reported by the toolkit. Head is 1-based, 0
// marks the root.
type Arc struct {
	Head     int    `json:"head"`
	Relation string `json:"relation"`
}

// Role is one predicate and its arguments
type Role struct {
	Index     int        `json:"index"`
	Arguments []Argument `json:"arguments"`
}

// Argument is a labelled span of words
type Argument struct {
	Name  string `json:"name"`
	Range Span   `json:"range"`
}

// Span is an inclusive word range
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Toolkit constructs fresh, unloaded models for each stage. A nil
// constructor means the backend does not support that stage.
type Toolkit struct {
	Name          string
	NewSegmentor  func() Segmentor
	NewPostagger  func() Postagger
	NewRecognizer func() Recognizer
	NewParser     func() Parser
	NewLabeller   func() Labeller
}

// Supports reports whether the toolkit can build a model for stage
func (t Toolkit) Supports(stage Stage) bool {
	switch stage {
	case StageSegment:
		return t.NewSegmentor != nil
	case StagePostag:
		return t.NewPostagger != nil
	case StageRecognize:
		return t.NewRecognizer != nil
	case StageParse:
		return t.NewParser != nil
	case StageLabel:
		return t.NewLabeller != nil
	default:
		return false
	}
}

// Merge fills stages missing from t with those of fallback
func (t Toolkit) Merge(fallback Toolkit) Toolkit {
	out := t
	if out.NewSegmentor == nil {
		out.NewSegmentor = fallback.NewSegmentor
	}
	if out.NewPostagger == nil {
		out.NewPostagger = fallback.NewPostagger
	}
	if out.NewRecognizer == nil {
		out.NewRecognizer = fallback.NewRecognizer
	}
	if out.NewParser == nil {
		out.NewParser = fallback.NewParser
	}
	if out.NewLabeller == nil {
		out.NewLabeller = fallback.NewLabeller
	}
	if fallback.Name != "" {
		out.Name = t.Name + "+" + fallback.Name
	}
	return out
}

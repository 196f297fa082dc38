package annotate

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/hanprep/internal/ltp"
	"github.com/ppiankov/hanprep/internal/model"
	"github.com/ppiankov/hanprep/internal/textproc"
)

// Stages selects the steps Run performs
type Stages struct {
	Segment   bool
	Postag    bool
	Recognize bool
	Parse     bool
	Label     bool
}

// AllStages enables every step
func AllStages() Stages {
	return Stages{Segment: true, Postag: true, Recognize: true, Parse: true, Label: true}
}

// ParseStages reads a comma-separated stage list such as "seg,pos,ner"
func ParseStages(list string) (Stages, error) {
	var s Stages
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if name == "all" {
			return AllStages(), nil
		}
		stage, err := ltp.ParseStage(name)
		if err != nil {
			return Stages{}, err
		}
		s.enable(stage)
	}
	return s.withPrerequisites(), nil
}

func (s *Stages) enable(stage ltp.Stage) {
	switch stage {
	case ltp.StageSegment:
		s.Segment = true
	case ltp.StagePostag:
		s.Postag = true
	case ltp.StageRecognize:
		s.Recognize = true
	case ltp.StageParse:
		s.Parse = true
	case ltp.StageLabel:
		s.Label = true
	}
}

// withPrerequisites turns on the stages the selected ones consume
func (s Stages) withPrerequisites() Stages {
	if s.Label {
		s.Parse = true
	}
	if s.Parse || s.Recognize {
		s.Postag = true
	}
	if s.Postag {
		s.Segment = true
	}
	return s
}

// String lists the enabled stages in pipeline order
func (s Stages) String() string {
	var names []string
	for _, st := range []struct {
		on   bool
		name ltp.Stage
	}{
		{s.Segment, ltp.StageSegment},
		{s.Postag, ltp.StagePostag},
		{s.Recognize, ltp.StageRecognize},
		{s.Parse, ltp.StageParse},
		{s.Label, ltp.StageLabel},
	} {
		if st.on {
			names = append(names, string(st.name))
		}
	}
	return strings.Join(names, ",")
}

// RunOptions configures Run
type RunOptions struct {
	Stages Stages

	// Stopwords are dropped right after segmentation, before tagging
	Stopwords textproc.Stopwords
}

// Run annotates sentences with the selected stages in pipeline order:
// segment, postag, then entities and parsing, then role labelling. It
// returns one Document per sentence.
func (a *Annotator) Run(ctx context.Context, sentences []string, opts RunOptions) ([]model.Document, error) {
	stages := opts.Stages.withPrerequisites()

	docs := make([]model.Document, len(sentences))
	for i, s := range sentences {
		docs[i].Sentence = s
	}
	if len(sentences) == 0 || !stages.Segment {
		return docs, nil
	}

	// 1. Segment
	segSents, err := a.Segment(ctx, sentences)
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	if len(opts.Stopwords) > 0 {
		segSents = textproc.DelStopwords(segSents, opts.Stopwords)
	}
	for i := range docs {
		docs[i].Tokens = segSents[i]
	}
	if !stages.Postag {
		return docs, nil
	}

	// 2. Tag
	posSents, err := a.Postag(ctx, segSents)
	if err != nil {
		return nil, fmt.Errorf("postag: %w", err)
	}
	for i := range docs {
		docs[i].Tags = posSents[i]
	}

	// 3. Entities
	if stages.Recognize {
		neSents, err := a.RecognizeEntities(ctx, segSents, posSents)
		if err != nil {
			return nil, fmt.Errorf("recognize: %w", err)
		}
		for i := range docs {
			docs[i].Entities = neSents[i]
		}
	}

	// 4. Dependencies
	if !stages.Parse {
		return docs, nil
	}
	arcObjs, arcSents, err := a.ParseDependency(ctx, segSents, posSents)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	for i := range docs {
		docs[i].Arcs = arcSents[i]
	}

	// 5. Semantic roles
	if stages.Label {
		roles, err := a.LabelRoles(ctx, segSents, posSents, arcObjs)
		if err != nil {
			return nil, fmt.Errorf("label: %w", err)
		}
		for i := range docs {
			docs[i].Roles = roles[i]
		}
	}

	return docs, nil
}

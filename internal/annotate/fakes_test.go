package annotate

import (
	"errors"
	"strings"

	"github.com/ppiankov/hanprep/internal/ltp"
)

// recorder tracks model lifecycle events across fake models
type recorder struct {
	loads    []string
	releases []string
	calls    int
}

type fakeModel struct {
	rec        *recorder
	loadErr    error
	releaseErr error
	loaded     bool
}

func (m *fakeModel) Load(path string) error {
	m.rec.loads = append(m.rec.loads, path)
	if m.loadErr != nil {
		return m.loadErr
	}
	m.loaded = true
	return nil
}

func (m *fakeModel) Release() error {
	m.rec.releases = append(m.rec.releases, "released")
	m.loaded = false
	return m.releaseErr
}

func (m *fakeModel) use() error {
	if !m.loaded {
		return errors.New("fake model used while not loaded")
	}
	m.rec.calls++
	return nil
}

type fakeSegmentor struct {
	fakeModel
	failOn string
}

func (s *fakeSegmentor) Segment(sentence string) ([]string, error) {
	if err := s.use(); err != nil {
		return nil, err
	}
	if sentence == s.failOn {
		return nil, errors.New("segment failed")
	}
	return strings.Fields(sentence), nil
}

type fakePostagger struct {
	fakeModel
	short bool
}

func (p *fakePostagger) Postag(words []string) ([]string, error) {
	if err := p.use(); err != nil {
		return nil, err
	}
	tags := make([]string, len(words))
	for i, w := range words {
		switch {
		case w == "去":
			tags[i] = "v"
		case strings.HasPrefix(w, "北"):
			tags[i] = "ns"
		default:
			tags[i] = "n"
		}
	}
	if p.short && len(tags) > 0 {
		tags = tags[:len(tags)-1]
	}
	return tags, nil
}

type fakeRecognizer struct {
	fakeModel
}

func (r *fakeRecognizer) Recognize(words, postags []string) ([]string, error) {
	if err := r.use(); err != nil {
		return nil, err
	}
	tags := make([]string, len(words))
	for i := range words {
		tags[i] = "O"
		if postags[i] == "ns" {
			tags[i] = "S-Ns"
		}
	}
	return tags, nil
}

type fakeParser struct {
	fakeModel
}

// Parse attaches every word to the one before it; the first is the root
func (p *fakeParser) Parse(words, postags []string) ([]ltp.Arc, error) {
	if err := p.use(); err != nil {
		return nil, err
	}
	arcs := make([]ltp.Arc, len(words))
	for i := range words {
		if i == 0 {
			arcs[i] = ltp.Arc{Head: 0, Relation: "HED"}
			continue
		}
		arcs[i] = ltp.Arc{Head: i, Relation: "ATT"}
	}
	return arcs, nil
}

type fakeLabeller struct {
	fakeModel
}

// Label treats every verb as a predicate with A0 before it and A1 after it
func (l *fakeLabeller) Label(words, postags []string, arcs []ltp.Arc) ([]ltp.Role, error) {
	if err := l.use(); err != nil {
		return nil, err
	}
	var roles []ltp.Role
	for i, tag := range postags {
		if tag != "v" {
			continue
		}
		role := ltp.Role{Index: i}
		if i > 0 {
			role.Arguments = append(role.Arguments, ltp.Argument{Name: "A0", Range: ltp.Span{Start: 0, End: i - 1}})
		}
		if i < len(words)-1 {
			role.Arguments = append(role.Arguments, ltp.Argument{Name: "A1", Range: ltp.Span{Start: i + 1, End: len(words) - 1}})
		}
		roles = append(roles, role)
	}
	return roles, nil
}

// fakeKit builds a toolkit whose models all report to rec
type fakeKit struct {
	rec        *recorder
	loadErr    error
	releaseErr error
	failOn     string
	shortTags  bool
}

func (k *fakeKit) model() fakeModel {
	return fakeModel{rec: k.rec, loadErr: k.loadErr, releaseErr: k.releaseErr}
}

func (k *fakeKit) toolkit() ltp.Toolkit {
	return ltp.Toolkit{
		Name:          "fake",
		NewSegmentor:  func() ltp.Segmentor { return &fakeSegmentor{fakeModel: k.model(), failOn: k.failOn} },
		NewPostagger:  func() ltp.Postagger { return &fakePostagger{fakeModel: k.model(), short: k.shortTags} },
		NewRecognizer: func() ltp.Recognizer { return &fakeRecognizer{fakeModel: k.model()} },
		NewParser:     func() ltp.Parser { return &fakeParser{fakeModel: k.model()} },
		NewLabeller:   func() ltp.Labeller { return &fakeLabeller{fakeModel: k.model()} },
	}
}

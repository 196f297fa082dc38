// Package gsekit implements the segmentation, tagging and entity stages of
// the ltp toolkit contract on top of the gse dictionary segmenter. Each
// model file is a gse dictionary: one "word frequency pos" entry per line.
//
// gse treats commas in a dictionary argument as a list separator, so a
// model directory whose path contains a comma cannot be loaded.
package gsekit

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/go-ego/gse"

	"github.com/ppiankov/hanprep/internal/ltp"
	"github.com/ppiankov/hanprep/internal/textproc"
)

// ErrNotLoaded is returned when a model is used before Load or after Release
var ErrNotLoaded = errors.New("gsekit: model not loaded")

// Toolkit returns the gse-backed stages. Parsing and role labelling are not
// available and must come from another backend.
func Toolkit() ltp.Toolkit {
	return ltp.Toolkit{
		Name:          "gse",
		NewSegmentor:  func() ltp.Segmentor { return &Segmentor{} },
		NewPostagger:  func() ltp.Postagger { return &Postagger{} },
		NewRecognizer: func() ltp.Recognizer { return &Recognizer{} },
	}
}

// dict wraps a gse segmenter used purely as a loaded dictionary
type dict struct {
	seg *gse.Segmenter
}

func (d *dict) Load(path string) error {
	seg := &gse.Segmenter{SkipLog: true}
	if err := seg.LoadDict(path); err != nil {
		return fmt.Errorf("load dictionary %s: %w", path, err)
	}
	d.seg = seg
	return nil
}

func (d *dict) Release() error {
	d.seg = nil
	return nil
}

func (d *dict) loaded() error {
	if d.seg == nil {
		return ErrNotLoaded
	}
	return nil
}

// lookup returns the dictionary POS of word, if present
func (d *dict) lookup(word string) (string, bool) {
	_, pos, ok := d.seg.Find(word)
	if !ok || pos == "" {
		return "", false
	}
	return pos, true
}

// Segmentor cuts sentences along the most probable dictionary path
type Segmentor struct {
	dict
}

var _ ltp.Segmentor = (*Segmentor)(nil)

// Segment splits sentence into words
func (s *Segmentor) Segment(sentence string) ([]string, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	// Dictionary DAG, with runs of unknown characters cut by the HMM
	words := s.seg.Cut(sentence, true)

	// gse keeps whitespace as tokens; the toolkit contract does not
	out := make([]string, 0, len(words))
	for _, w := range words {
		if !isBlank(w) {
			out = append(out, w)
		}
	}
	return out, nil
}

// Postagger tags words with their dictionary part of speech
type Postagger struct {
	dict
}

var _ ltp.Postagger = (*Postagger)(nil)

// Postag returns one tag per word. Words missing from the dictionary get
// wp (punctuation), m (number), ws (foreign word) or x.
func (p *Postagger) Postag(words []string) ([]string, error) {
	if err := p.loaded(); err != nil {
		return nil, err
	}

	tags := make([]string, len(words))
	for i, w := range words {
		if pos, ok := p.lookup(w); ok {
			tags[i] = pos
			continue
		}
		tags[i] = guessTag(w)
	}
	return tags, nil
}

func guessTag(word string) string {
	switch {
	case allRunes(word, textproc.IsPunctuation):
		return "wp"
	case allRunes(word, unicode.IsDigit):
		return "m"
	case allRunes(word, func(r rune) bool { return r < unicode.MaxASCII && unicode.IsLetter(r) }):
		return "ws"
	default:
		return "x"
	}
}

// Recognizer tags named entities. Entity types come from the ner dictionary
// first and fall back to the person, place and organisation POS tags.
type Recognizer struct {
	dict
}

var _ ltp.Recognizer = (*Recognizer)(nil)

// entityTypes maps dictionary or POS tags to LTP entity types
var entityTypes = map[string]string{
	"Nh": "Nh", "nh": "Nh", "nr": "Nh",
	"Ns": "Ns", "ns": "Ns",
	"Ni": "Ni", "ni": "Ni", "nt": "Ni",
}

// Recognize returns one tag per word: O outside entities, S-<type> for a
// single-word entity and B-/I-/E-<type> across adjacent words of one type
func (r *Recognizer) Recognize(words, postags []string) ([]string, error) {
	if err := r.loaded(); err != nil {
		return nil, err
	}
	if len(words) != len(postags) {
		return nil, fmt.Errorf("gsekit: %d words but %d tags", len(words), len(postags))
	}

	types := make([]string, len(words))
	for i, w := range words {
		if pos, ok := r.lookup(w); ok {
			types[i] = entityTypes[pos]
		}
		if types[i] == "" {
			types[i] = entityTypes[postags[i]]
		}
	}

	tags := make([]string, len(words))
	for i := 0; i < len(types); {
		if types[i] == "" {
			tags[i] = "O"
			i++
			continue
		}

		j := i
		for j+1 < len(types) && types[j+1] == types[i] {
			j++
		}
		if i == j {
			tags[i] = "S-" + types[i]
		} else {
			tags[i] = "B-" + types[i]
			for k := i + 1; k < j; k++ {
				tags[k] = "I-" + types[i]
			}
			tags[j] = "E-" + types[i]
		}
		i = j + 1
	}

	return tags, nil
}

func allRunes(s string, pred func(rune) bool) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return true
}

func isBlank(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

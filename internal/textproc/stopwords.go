package textproc

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Stopwords is a set of tokens excluded from downstream processing
type Stopwords map[string]struct{}

// NewStopwords builds a set from the given words
func NewStopwords(words ...string) Stopwords {
	set := make(Stopwords, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Contains reports whether word is a stopword
func (s Stopwords) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// LoadStopwords reads one stopword per line, skipping blank lines
func LoadStopwords(path string) (Stopwords, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stopwords: %w", err)
	}
	defer func() { _ = f.Close() }()

	set := make(Stopwords)
	scan := bufio.NewScanner(f)
	for scan.Scan() {
		if w := strings.TrimSpace(scan.Text()); w != "" {
			set[w] = struct{}{}
		}
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("scan stopwords: %w", err)
	}

	return set, nil
}

// DelStopwords drops stopwords from every segmented sentence, keeping the
// order of the remaining tokens. The input is not modified.
func DelStopwords(segSents [][]string, stopwords Stopwords) [][]string {
	out := make([][]string, len(segSents))
	for i, sent := range segSents {
		kept := make([]string, 0, len(sent))
		for _, word := range sent {
			if !stopwords.Contains(word) {
				kept = append(kept, word)
			}
		}
		out[i] = kept
	}
	return out
}

package textproc

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// Sentence length bounds, in runes, used by DefaultFilter
const (
	SentenceMinLen = 5
	SentenceMaxLen = 50
)

var (
	digitRe  = regexp.MustCompile(`\p{Nd}+`)
	letterRe = regexp.MustCompile(`[a-zA-Z]+`)

	// Word characters, whitespace and CJK ideographs survive. RE2 \w and \s
	// are ASCII only, so Unicode whitespace is listed: \v, the information
	// separators, NEL and the Z category.
	specialSymbolRe = regexp.MustCompile(`[^\p{L}\p{N}_\s\v\x{1c}-\x{1f}\x{85}\p{Z}\x{4e00}-\x{9fa5}]+`)

	namedEntityRe = regexp.MustCompile(`^[SBIE]+`)
)

// Filter holds the sentence length bounds
type Filter struct {
	MinLen int
	MaxLen int
}

// NewFilter creates a filter accepting sentences of minLen to maxLen runes
func NewFilter(minLen, maxLen int) Filter {
	return Filter{MinLen: minLen, MaxLen: maxLen}
}

// DefaultFilter accepts sentences of 5 to 50 runes
func DefaultFilter() Filter {
	return NewFilter(SentenceMinLen, SentenceMaxLen)
}

// IsLengthValid reports whether the rune count of sentence lies in
// [MinLen, MaxLen]
func (f Filter) IsLengthValid(sentence string) bool {
	n := utf8.RuneCountInString(sentence)
	return f.MinLen <= n && n <= f.MaxLen
}

// IsLengthValid checks sentence against the default bounds
func IsLengthValid(sentence string) bool {
	return DefaultFilter().IsLengthValid(sentence)
}

// IsEqual reports whether two sentences are identical
func IsEqual(sent1, sent2 string) bool {
	return sent1 == sent2
}

// DelBlankLines drops entries that are empty once whitespace is stripped
func DelBlankLines(sentences []string) []string {
	out := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// DelSpecialSymbol removes garbled text and symbols that are neither word
// characters, whitespace nor CJK ideographs
func DelSpecialSymbol(sentence string) string {
	return specialSymbolRe.ReplaceAllString(sentence, "")
}

// DelEnglishWord removes runs of ASCII letters
func DelEnglishWord(sentence string) string {
	return letterRe.ReplaceAllString(sentence, "")
}

// DelDigits removes runs of decimal digits in any script, full-width included
func DelDigits(sentence string) string {
	return digitRe.ReplaceAllString(sentence, "")
}

// Normalize folds full-width ASCII variants (and the ideographic space) to
// their narrow forms
func Normalize(sentence string) string {
	return width.Fold.String(sentence)
}

// NamedEntityIndex returns the positions of tokens whose entity tag opens
// with S, B, I or E
func NamedEntityIndex(entityTags []string) []int {
	var idx []int
	for i, tag := range entityTags {
		if namedEntityRe.MatchString(tag) {
			idx = append(idx, i)
		}
	}
	return idx
}

// SplitSentences breaks running text into sentences after terminal
// punctuation. Closing quotes and brackets stay with the sentence they end.
// ASCII . ! ? only end a sentence when followed by whitespace or the end of
// text, so decimals survive. Runs such as ！？ or …… end a single sentence.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if !endsSentence(runes, i) {
			continue
		}
		for i+1 < len(runes) && (isClosing(runes[i+1]) || isStop(runes[i+1])) {
			i++
			current.WriteRune(runes[i])
		}
		flush()
	}
	flush()

	return sentences
}

func endsSentence(runes []rune, i int) bool {
	switch runes[i] {
	case '。', '！', '？', '…':
		return true
	case '.', '!', '?':
		return i+1 == len(runes) || isSpace(runes[i+1])
	}
	return false
}

func isStop(r rune) bool {
	switch r {
	case '。', '！', '？', '…', '!', '?':
		return true
	}
	return false
}

func isClosing(r rune) bool {
	return strings.ContainsRune(`”’」』）)]】》"'`, r)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '　'
}

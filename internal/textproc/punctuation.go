package textproc

import "strings"

// asciiPunctuation matches Python's string.punctuation
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// cjkPunctuation is the CJK punctuation set: full-width forms, CJK
// brackets and quotes, and the sentence stops ！？｡。
const cjkPunctuation = "＂＃＄％＆＇（）＊＋，－／：；＜＝＞＠［＼］＾＿｀｛｜｝～｟｠｢｣､　、〃〈〉《》「」『』【】〔〕〖〗〘〙〚〛〜〝〞〟〰〾〿–—‘’‛“”„‟…‧﹏" +
	"！？｡。"

// terminalPunctuation ends a sentence
const terminalPunctuation = "。.?？!！"

var punctuationSet = buildRuneSet(asciiPunctuation + cjkPunctuation)

var terminalSet = buildRuneSet(terminalPunctuation)

func buildRuneSet(chars string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(chars))
	for _, r := range chars {
		set[r] = struct{}{}
	}
	return set
}

// IsPunctuation reports whether r is in the ASCII or CJK punctuation set
func IsPunctuation(r rune) bool {
	_, ok := punctuationSet[r]
	return ok
}

// DelPunctuation removes ASCII and CJK punctuation from sentence. Symbols
// outside both sets, such as ↓ ① ℃, are left in place.
func DelPunctuation(sentence string) string {
	return strings.Map(func(r rune) rune {
		if IsPunctuation(r) {
			return -1
		}
		return r
	}, sentence)
}

// IsSimpleSentence reports whether sentence has at most one terminal
// punctuation mark. Such sentences tend to carry a single clear meaning.
func IsSimpleSentence(sentence string) bool {
	count := 0
	for _, r := range sentence {
		if _, ok := terminalSet[r]; ok {
			count++
			if count > 1 {
				return false
			}
		}
	}
	return true
}

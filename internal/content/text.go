package content

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	imageSyntax    = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)|!\[\[[^\]]*\]\]`)
	linkSyntax     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	wikiSyntax     = regexp.MustCompile(`\[\[(?:[^\]|]*\|)?([^\]]*)\]\]`)
	headingMarker  = regexp.MustCompile(`(?m)^ {0,3}#{1,6}[ \t]+`)
	listMarker     = regexp.MustCompile(`(?m)^[ \t]*(?:[-*+]|\d+[.)])[ \t]+`)
	quoteMarker    = regexp.MustCompile(`(?m)^[ \t]*>+[ \t]?`)
	emphasisMarker = regexp.MustCompile(`(\*\*|__|\*|_|~~)`)
	htmlTag        = regexp.MustCompile(`<[^>]+>`)
)

// PlainText strips markdown syntax from cleaned prose, keeping link and
// heading text.
func PlainText(prose string) string {
	s := imageSyntax.ReplaceAllString(prose, " ")
	s = linkSyntax.ReplaceAllString(s, "$1")
	s = wikiSyntax.ReplaceAllString(s, "$1")
	s = inlineCode.ReplaceAllString(s, " ")
	s = htmlTag.ReplaceAllString(s, " ")
	s = headingMarker.ReplaceAllString(s, "")
	s = listMarker.ReplaceAllString(s, "")
	s = quoteMarker.ReplaceAllString(s, "")
	s = emphasisMarker.ReplaceAllString(s, "")
	return s
}

// Tokens splits text on whitespace.
func Tokens(text string) []string {
	return strings.Fields(text)
}

// Words returns the alphanumeric words of text, lowercased, with
// surrounding punctuation removed.
func Words(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if w != "" {
			out = append(out, strings.ToLower(w))
		}
	}
	return out
}

// CountPhrase counts case-insensitive whole-word occurrences of phrase.
func CountPhrase(text, phrase string) int {
	target := Words(phrase)
	if len(target) == 0 {
		return 0
	}
	words := Words(text)
	n := 0
	for i := 0; i+len(target) <= len(words); i++ {
		match := true
		for j, t := range target {
			if words[i+j] != t {
				match = false
				break
			}
		}
		if match {
			n++
		}
	}
	return n
}

// Sentences counts sentence terminators in text. Text without a terminator
// but with words counts as one sentence.
func Sentences(text string) int {
	n := 0
	prevTerm := false
	for _, r := range text {
		term := r == '.' || r == '!' || r == '?'
		if term && !prevTerm {
			n++
		}
		prevTerm = term
	}
	if n == 0 && len(Words(text)) > 0 {
		return 1
	}
	return n
}

// Syllables estimates the syllable count of an English word by counting
// vowel groups, discounting a silent trailing "e".
func Syllables(word string) int {
	w := strings.ToLower(word)
	if w == "" {
		return 0
	}
	isVowel := func(r rune) bool { return strings.ContainsRune("aeiouy", r) }
	count := 0
	prev := false
	runes := []rune(w)
	for _, r := range runes {
		v := isVowel(r)
		if v && !prev {
			count++
		}
		prev = v
	}
	if len(runes) > 2 && runes[len(runes)-1] == 'e' && !isVowel(runes[len(runes)-2]) &&
		!(runes[len(runes)-2] == 'l' && len(runes) > 3 && !isVowel(runes[len(runes)-3])) {
		count--
	}
	if count < 1 {
		count = 1
	}
	return count
}

// ReadingEase computes the Flesch reading ease of text. ok is false when
// the text has no words.
func ReadingEase(text string) (score float64, ok bool) {
	words := Words(text)
	if len(words) == 0 {
		return 0, false
	}
	sentences := Sentences(text)
	syllables := 0
	for _, w := range words {
		syllables += Syllables(w)
	}
	wc := float64(len(words))
	return 206.835 - 1.015*(wc/float64(sentences)) - 84.6*(float64(syllables)/wc), true
}

// Package sentiment trains and applies a naive Bayes headline classifier
package sentiment

import (
	"strings"
	"unicode"
)

// Tokenize lower-cases text and splits it into word and punctuation tokens.
// Digits joined by '.' or ',' stay one token ("1,200.50"), as do
// apostrophes inside a word ("company's").
func Tokenize(text string) []string {
	runes := []rune(strings.ToLower(text))
	tokens := make([]string, 0, len(runes)/4)

	isWord := func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case isWord(r):
			j := i + 1
			for j < len(runes) {
				if isWord(runes[j]) {
					j++
					continue
				}
				if j+1 < len(runes) && isWord(runes[j+1]) {
					sep := runes[j]
					if (sep == '.' || sep == ',') && unicode.IsDigit(runes[j-1]) && unicode.IsDigit(runes[j+1]) {
						j += 2
						continue
					}
					if sep == '\'' || sep == '-' {
						j += 2
						continue
					}
				}
				break
			}
			tokens = append(tokens, string(runes[i:j]))
			i = j
		default:
			if !unicode.IsControl(r) {
				tokens = append(tokens, string(r))
			}
			i++
		}
	}
	return tokens
}

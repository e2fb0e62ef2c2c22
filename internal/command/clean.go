package command

import (
	"regexp"
	"strings"
)

var (
	fillerRe      = regexp.MustCompile(`\b(?:please|can you|could you|i want to|i'd like to|um|uh|the|a|an)\b`)
	punctuationRe = regexp.MustCompile(`[.,?!]`)
)

var wakeWords = []string{"hey one rep", "one rep", "hey onerep", "onerep", "hey gym", "gym"}

// Clean lowercases text, strips punctuation and filler words, and collapses whitespace.
func Clean(text string) string {
	s := strings.ToLower(text)
	s = punctuationRe.ReplaceAllString(s, "")
	s = fillerRe.ReplaceAllString(s, " ")

	return strings.Join(strings.Fields(s), " ")
}

// AfterWakeWord returns the part of text following a wake word such as
// "hey one rep". ok is false when no wake word is present or nothing follows it.
func AfterWakeWord(text string) (string, bool) {
	s := strings.ToLower(text)

	for _, w := range wakeWords {
		idx := strings.Index(s, w)
		if idx < 0 {
			continue
		}

		rest := strings.TrimSpace(s[idx+len(w):])
		rest = strings.TrimLeft(rest, ",.!? ")

		return rest, rest != ""
	}

	return "", false
}

package command

import "strings"

const fuzzyThreshold = 50

// Score rates how well query matches target on a 0 to 100 scale: equality,
// containment either way, shared words, and finally edit distance.
func Score(query, target string) int {
	if query == target {
		return 100
	}

	if strings.Contains(target, query) {
		return 80
	}

	if strings.Contains(query, target) {
		return 70
	}

	if overlap := wordOverlap(query, target); overlap > 0 {
		return 50 + overlap*15
	}

	q, t := []rune(query), []rune(target)

	maxLen := max(len(q), len(t))
	if maxLen == 0 {
		return 0
	}

	return max(0, 100-levenshtein(q, t)*100/maxLen)
}

func wordOverlap(a, b string) int {
	words := make(map[string]bool)
	for _, w := range strings.Fields(a) {
		words[w] = true
	}

	n := 0
	for _, w := range strings.Fields(b) {
		if words[w] {
			n++
			delete(words, w)
		}
	}

	return n
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i

		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}

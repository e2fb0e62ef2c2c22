package command

import (
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var weightPatterns = []*regexp.Regexp{
	regexp.MustCompile(`log (\d+)`),
	regexp.MustCompile(`(\d+) pounds`),
	regexp.MustCompile(`(\d+) lbs`),
	regexp.MustCompile(`(\d+) lb`),
	regexp.MustCompile(`weight (\d+)`),
	regexp.MustCompile(`set weight (\d+)`),
}

var (
	bareNumber     = regexp.MustCompile(`(\d+)`)
	weightKeywords = []string{"log", "weight", "pound", "lbs", "lb", "set"}
)

// startTriggers are tried longest first so "let's do" wins over "do".
var startTriggers = sortedByLength([]string{"start", "begin", "do", "let's do", "lets do", "go to"})

type trigger struct {
	kind    Kind
	phrases []string
}

// triggers are checked in table order and the first phrase found wins, so
// "next phase" is NextExercise. A phrase matches at the start of a word and may
// run into a suffix: "paused" is Pause, "unpause" is not.
var triggers = []trigger{
	{NextExercise, []string{"next exercise", "next one", "move on", "next"}},
	{SkipRest, []string{"skip rest", "skip the rest", "end rest", "no rest", "ready"}},
	{SkipPhase, []string{"skip phase", "skip this", "next phase", "skip"}},
	{Pause, []string{"pause", "hold", "wait", "stop timer"}},
	{Resume, []string{"resume", "continue", "go", "unpause", "start timer"}},
	{Stop, []string{"stop workout", "end workout", "stop", "quit", "finish workout", "i'm done with workout"}},
	{Done, []string{"done", "finished", "complete", "i'm done", "im done", "that's it", "thats it"}},
	{AnotherSet, []string{"another set", "one more", "again", "repeat", "same exercise", "do it again"}},
}

// Parser maps transcripts to commands against the active vocabulary.
type Parser struct {
	vocab *Store
}

// NewParser returns a parser reading from store.
func NewParser(store *Store) *Parser {
	return &Parser{vocab: store}
}

// Parse cleans text and returns its command.
func (p *Parser) Parse(text string) Command {
	cleaned := Clean(text)
	cmd := p.ParseCleaned(cleaned)

	slog.Debug("parsed command", "raw", text, "cleaned", cleaned, "command", cmd.String())

	return cmd
}

// ParseCleaned parses text that has already been through Clean.
// Weight, exercise start, and control phrases are tried in that order.
func (p *Parser) ParseCleaned(text string) Command {
	if text == "" {
		return Command{Kind: Unknown}
	}

	if w, ok := extractWeight(text); ok {
		return Command{Kind: LogWeight, Weight: w, Raw: text}
	}

	vocab := p.vocab.Load()

	if name, ok := matchStart(vocab, text); ok {
		return Command{Kind: StartExercise, Exercise: name, Raw: text}
	}

	if kind, ok := matchTrigger(text); ok {
		return Command{Kind: kind, Raw: text}
	}

	return Command{Kind: Unknown, Raw: text}
}

func extractWeight(text string) (int, bool) {
	for _, re := range weightPatterns {
		if n, ok := firstNumber(re, text); ok {
			return n, true
		}
	}

	for _, kw := range weightKeywords {
		if strings.Contains(text, kw) {
			return firstNumber(bareNumber, text)
		}
	}

	return 0, false
}

func firstNumber(re *regexp.Regexp, text string) (int, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}

	return n, true
}

func matchStart(vocab *Vocabulary, text string) (string, bool) {
	if vocab == nil {
		return "", false
	}

	for _, trig := range startTriggers {
		rest, ok := removeWords(text, trig)
		if !ok || rest == "" {
			continue
		}

		if name, ok := vocab.Match(rest); ok {
			return name, true
		}
	}

	if name, ok := vocab.Lookup(text); ok {
		return name, true
	}

	return vocab.Fuzzy(text)
}

func matchTrigger(text string) (Kind, bool) {
	for _, t := range triggers {
		for _, phrase := range t.phrases {
			if containsFromWordStart(text, phrase) {
				return t.kind, true
			}
		}
	}

	return Unknown, false
}

// containsFromWordStart reports whether phrase occurs in text beginning on a
// word boundary. The end of the match is not anchored.
func containsFromWordStart(text, phrase string) bool {
	for i := 0; i <= len(text); {
		idx := strings.Index(text[i:], phrase)
		if idx < 0 {
			return false
		}

		start := i + idx
		if start == 0 || text[start-1] == ' ' {
			return true
		}

		i = start + 1
	}

	return false
}

// removeWords drops the first whole-word occurrence of phrase from text.
func removeWords(text, phrase string) (string, bool) {
	padded := " " + text + " "

	idx := strings.Index(padded, " "+phrase+" ")
	if idx < 0 {
		return "", false
	}

	rest := padded[:idx] + " " + padded[idx+len(phrase)+2:]

	return strings.Join(strings.Fields(rest), " "), true
}

func sortedByLength(phrases []string) []string {
	out := append([]string(nil), phrases...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })

	return out
}

// Keywords returns the control and start phrases in table order, without duplicates.
func Keywords() []string {
	seen := make(map[string]bool)

	var out []string

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, p := range startTriggers {
		add(p)
	}

	for _, t := range triggers {
		for _, p := range t.phrases {
			add(p)
		}
	}

	add("log")
	add("pounds")

	return out
}

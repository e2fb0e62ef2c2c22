package command

import (
	"errors"
	"strings"
	"sync/atomic"
)

// ErrEmptyVocabulary is returned when a vocabulary would contain no phrases.
var ErrEmptyVocabulary = errors.New("empty exercise vocabulary")

// Alias maps a spoken phrase to a canonical exercise name.
type Alias struct {
	Phrase string
	Name   string
}

// Entry is one exercise of a workout with any extra phrases it answers to.
type Entry struct {
	Name    string
	Aliases []string
}

// BuiltinAliases returns the stock phrase table, in match order.
func BuiltinAliases() []Alias {
	return []Alias{
		// legs
		{"leg press", "Leg Press"},
		{"press legs", "Leg Press"},
		{"leg curl", "Leg Curl"},
		{"curl legs", "Leg Curl"},
		{"hamstring curl", "Leg Curl"},
		{"leg extension", "Leg Extension"},
		{"extend legs", "Leg Extension"},
		{"quad extension", "Leg Extension"},
		{"calf raise", "Calf Raise"},
		{"calf raises", "Calf Raise"},
		{"calves", "Calf Raise"},
		// chest
		{"chest press", "Chest Press"},
		{"press chest", "Chest Press"},
		{"bench press", "Chest Press"},
		{"incline press", "Incline Press"},
		{"incline", "Incline Press"},
		// back
		{"pulldown", "Pulldown"},
		{"pull down", "Pulldown"},
		{"lat pulldown", "Pulldown"},
		{"lats", "Pulldown"},
		{"seated row", "Seated Row"},
		{"row", "Seated Row"},
		{"rowing", "Seated Row"},
		{"back row", "Seated Row"},
		// shoulders
		{"overhead press", "Overhead Press"},
		{"shoulder press", "Overhead Press"},
		{"press overhead", "Overhead Press"},
		{"military press", "Overhead Press"},
		{"lateral raise", "Lateral Raise"},
		{"side raise", "Lateral Raise"},
		{"lateral raises", "Lateral Raise"},
		{"shrug", "Shrug"},
		{"shrugs", "Shrug"},
		{"shoulder shrug", "Shrug"},
		// arms
		{"bicep curl", "Bicep Curl"},
		{"biceps", "Bicep Curl"},
		{"curl biceps", "Bicep Curl"},
		{"arm curl", "Bicep Curl"},
		{"tricep extension", "Tricep Extension"},
		{"triceps", "Tricep Extension"},
		{"tricep", "Tricep Extension"},
		// core
		{"ab crunch", "Ab Crunch"},
		{"abs", "Ab Crunch"},
		{"crunches", "Ab Crunch"},
		{"abdominal", "Ab Crunch"},
		{"back extension", "Back Extension"},
		{"lower back", "Back Extension"},
		{"hyperextension", "Back Extension"},
	}
}

// Vocabulary is an immutable phrase table. Build a new one to change it.
type Vocabulary struct {
	aliases []Alias
	index   map[string]string
	names   []string
}

// NewVocabulary builds a vocabulary from the workout's exercises followed by
// the builtin table. Phrases are cleaned the same way transcripts are; the
// first mapping of a phrase wins.
func NewVocabulary(entries []Entry, builtin []Alias) (*Vocabulary, error) {
	v := &Vocabulary{index: make(map[string]string)}
	seenName := make(map[string]bool)

	addName := func(name string) {
		if !seenName[name] {
			seenName[name] = true
			v.names = append(v.names, name)
		}
	}

	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}

		addName(name)
		v.add(name, name)

		for _, a := range e.Aliases {
			v.add(a, name)
		}
	}

	for _, a := range builtin {
		v.add(a.Phrase, a.Name)
		addName(a.Name)
	}

	if len(v.aliases) == 0 {
		return nil, ErrEmptyVocabulary
	}

	return v, nil
}

func (v *Vocabulary) add(phrase, name string) {
	p := Clean(phrase)
	if p == "" {
		return
	}

	if _, ok := v.index[p]; ok {
		return
	}

	v.index[p] = name
	v.aliases = append(v.aliases, Alias{Phrase: p, Name: name})
}

// Aliases returns the phrase table in match order.
func (v *Vocabulary) Aliases() []Alias {
	return append([]Alias(nil), v.aliases...)
}

// Names returns the canonical exercise names, workout exercises first.
func (v *Vocabulary) Names() []string {
	return append([]string(nil), v.names...)
}

// Lookup returns the canonical name for an exact phrase.
func (v *Vocabulary) Lookup(phrase string) (string, bool) {
	name, ok := v.index[phrase]
	return name, ok
}

// Match resolves text to an exercise: exact phrase, then containment, then fuzzy.
func (v *Vocabulary) Match(text string) (string, bool) {
	if name, ok := v.Lookup(text); ok {
		return name, true
	}

	if name, ok := v.contained(text); ok {
		return name, true
	}

	return v.Fuzzy(text)
}

// contained prefers the longest phrase found as whole words inside text, then
// the shortest phrase that contains text.
func (v *Vocabulary) contained(text string) (string, bool) {
	best := Alias{}

	for _, a := range v.aliases {
		if len(a.Phrase) > len(best.Phrase) && containsWords(text, a.Phrase) {
			best = a
		}
	}

	if best.Name != "" {
		return best.Name, true
	}

	if len(text) < minContainedQuery {
		return "", false
	}

	for _, a := range v.aliases {
		if strings.Contains(a.Phrase, text) && (best.Name == "" || len(a.Phrase) < len(best.Phrase)) {
			best = a
		}
	}

	return best.Name, best.Name != ""
}

const minContainedQuery = 3

// Fuzzy returns the best-scoring phrase above the match threshold. Ties keep
// the phrase that comes first in match order.
func (v *Vocabulary) Fuzzy(text string) (string, bool) {
	bestScore := fuzzyThreshold
	bestName := ""

	for _, a := range v.aliases {
		if s := Score(text, a.Phrase); s > bestScore {
			bestScore = s
			bestName = a.Name
		}
	}

	return bestName, bestName != ""
}

// Store holds the active vocabulary. Readers always see a complete table.
type Store struct {
	p atomic.Pointer[Vocabulary]
}

// NewStore returns a store holding v.
func NewStore(v *Vocabulary) *Store {
	s := &Store{}
	s.p.Store(v)

	return s
}

// Load returns the current vocabulary.
func (s *Store) Load() *Vocabulary {
	return s.p.Load()
}

// Replace swaps in a rebuilt vocabulary.
func (s *Store) Replace(v *Vocabulary) {
	s.p.Store(v)
}

// Hints returns the phrases recognizers should be biased toward: the command
// keywords followed by the active exercise names.
func (s *Store) Hints() []string {
	hints := Keywords()

	if v := s.Load(); v != nil {
		hints = append(hints, v.Names()...)
	}

	return hints
}

// containsWords reports whether phrase occurs in text on word boundaries.
func containsWords(text, phrase string) bool {
	if phrase == "" {
		return false
	}

	for i := 0; ; {
		idx := strings.Index(text[i:], phrase)
		if idx < 0 {
			return false
		}

		start := i + idx
		end := start + len(phrase)

		if (start == 0 || text[start-1] == ' ') && (end == len(text) || text[end] == ' ') {
			return true
		}

		i = start + 1
	}
}

package extract

import (
	"regexp"
	"strings"

	"github.com/qmobility/qmobility/internal/city"
)

// MatchSource records which detection pass resolved a city.
type MatchSource string

// Detection passes, in the order they are tried.
const (
	MatchAlias     MatchSource = "alias"
	MatchKey       MatchSource = "key"
	MatchHeuristic MatchSource = "heuristic"
	MatchNone      MatchSource = "none"
)

// CityMatch is the outcome of city detection. Key is empty when nothing
// resolved; Mention may still carry the raw place text for display.
type CityMatch struct {
	Key     string      `json:"key,omitempty"`
	Mention string      `json:"mention,omitempty"`
	Source  MatchSource `json:"source"`
}

// Resolved reports whether a knowledge-base key was found.
func (m CityMatch) Resolved() bool {
	return m.Key != ""
}

var (
	iAmInPattern = regexp.MustCompile(`\bi am in\s+`)
	inPattern    = regexp.MustCompile(`\bin\s+`)
	placeRun     = regexp.MustCompile(`^[a-z\s.,-]+`)
	nonLetters   = regexp.MustCompile(`[^a-z\s]+`)
)

// Words that end the place name in "in X and ..." style phrases.
var clauseBreaks = map[string]bool{
	"and": true, "with": true, "to": true, "for": true, "at": true,
	"on": true, "but": true, "need": true, "needs": true, "from": true,
	"near": true, "by": true, "during": true, "going": true, "travel": true,
	"in": true,
}

var articles = map[string]bool{
	"a": true, "an": true, "the": true, "my": true, "our": true, "this": true, "that": true,
}

// detectCity runs the alias, key and heuristic passes over normalized text.
func (e *Extractor) detectCity(text string) CityMatch {
	for _, alias := range e.aliases {
		if containsName(text, alias.Name) {
			return CityMatch{Key: alias.CityKey, Mention: alias.Name, Source: MatchAlias}
		}
	}

	for _, key := range e.keys {
		if containsName(text, key) {
			return CityMatch{Key: key, Mention: key, Source: MatchKey}
		}
	}

	candidate := e.placeCandidate(text)
	if candidate == "" {
		return CityMatch{Source: MatchNone}
	}
	for _, key := range e.keys {
		if containsName(candidate, key) || containsName(key, candidate) {
			return CityMatch{Key: key, Mention: candidate, Source: MatchHeuristic}
		}
	}
	return CityMatch{Mention: candidate, Source: MatchNone}
}

// placeCandidate returns the first usable place after "i am in", then after
// any "in". Article-led phrases such as "in a hurry" and phrases containing a
// condition word such as "in heavy rain" are skipped.
func (e *Extractor) placeCandidate(text string) string {
	for _, p := range []*regexp.Regexp{iAmInPattern, inPattern} {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			if candidate := e.candidateAt(text[loc[1]:]); candidate != "" {
				return candidate
			}
		}
	}
	return ""
}

func (e *Extractor) candidateAt(rest string) string {
	raw := placeRun.FindString(rest)
	if i := strings.IndexAny(raw, ",.;"); i >= 0 {
		raw = raw[:i]
	}
	raw = nonLetters.ReplaceAllString(raw, " ")

	var words []string
	for _, w := range strings.Fields(raw) {
		if clauseBreaks[w] {
			break
		}
		words = append(words, w)
	}
	if len(words) == 0 || articles[words[0]] {
		return ""
	}

	candidate := strings.Join(words, " ")
	if e.triggerWords[candidate] {
		return ""
	}
	for _, w := range words {
		if e.triggerWords[w] {
			return ""
		}
	}
	return candidate
}

// containsName reports whether name occurs in text. Names containing ASCII
// letters must not sit inside a longer ASCII word, so "la" does not match
// "late"; other scripts match as plain substrings.
func containsName(text, name string) bool {
	if name == "" {
		return false
	}
	if !hasASCIILetter(name) {
		return strings.Contains(text, name)
	}

	for offset := 0; offset <= len(text)-len(name); {
		i := strings.Index(text[offset:], name)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(name)
		if !boundaryViolated(text, name, start, end) {
			return true
		}
		offset = start + 1
	}
	return false
}

func boundaryViolated(text, name string, start, end int) bool {
	if isASCIILetter(name[0]) && start > 0 && isASCIILetter(text[start-1]) {
		return true
	}
	if isASCIILetter(name[len(name)-1]) && end < len(text) && isASCIILetter(text[end]) {
		return true
	}
	return false
}

func hasASCIILetter(s string) bool {
	for i := 0; i < len(s); i++ {
		if isASCIILetter(s[i]) {
			return true
		}
	}
	return false
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// normalizedNames lowercases and trims knowledge-base names in order.
func normalizedNames(kb *city.KnowledgeBase) ([]city.Alias, []string) {
	aliases := kb.Aliases()
	for i := range aliases {
		aliases[i].Name = city.Normalize(aliases[i].Name)
	}
	keys := kb.Keys()
	for i := range keys {
		keys[i] = city.Normalize(keys[i])
	}
	return aliases, keys
}

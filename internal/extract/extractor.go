// Package extract pulls structured signals out of a free-text travel
// request: the city, a distance in kilometers, situational conditions and
// whether the user is asking about emissions.
package extract

import (
	"errors"
	"fmt"
	"strings"

	a "github.com/petar-dambovaliev/aho-corasick"

	"github.com/qmobility/qmobility/internal/city"
)

// Features is everything extracted from one utterance.
type Features struct {
	City          CityMatch  `json:"city"`
	DistanceKm    *float64   `json:"distanceKm"`
	Conditions    Conditions `json:"conditions"`
	AsksEmissions bool       `json:"asksEmissions"`
	AsksTraffic   bool       `json:"asksTraffic"`
}

type conditionMatcher struct {
	cond    Condition
	matcher a.AhoCorasick
}

// Extractor runs city, distance and condition detection. It is immutable
// after construction and safe for concurrent use.
type Extractor struct {
	aliases    []city.Alias
	keys       []string
	conditions []conditionMatcher
	emissions  a.AhoCorasick
	traffic    a.AhoCorasick

	// triggerWords holds every condition trigger, whole, for place filtering.
	triggerWords map[string]bool
}

// New builds an extractor over the knowledge base's names and the given
// trigger table.
func New(kb *city.KnowledgeBase, triggers TriggerTable) (*Extractor, error) {
	if kb == nil {
		return nil, errors.New("extract: nil knowledge base")
	}
	if err := triggers.Validate(); err != nil {
		return nil, err
	}

	e := &Extractor{
		conditions: make([]conditionMatcher, 0, len(AllConditions)),
		emissions:  newMatcher(triggers.Emissions),
		traffic:    newMatcher(triggers.Traffic),
	}
	e.aliases, e.keys = normalizedNames(kb)

	// One automaton per flag so overlapping triggers such as "rush" and
	// "rush hour" each report their own flag.
	e.triggerWords = make(map[string]bool)
	for _, cond := range AllConditions {
		for _, w := range triggers.Conditions[cond] {
			e.triggerWords[strings.ToLower(strings.TrimSpace(w))] = true
		}
		e.conditions = append(e.conditions, conditionMatcher{
			cond:    cond,
			matcher: newMatcher(triggers.Conditions[cond]),
		})
	}
	return e, nil
}

// NewDefault builds an extractor with the embedded trigger table.
func NewDefault(kb *city.KnowledgeBase) (*Extractor, error) {
	triggers, err := DefaultTriggers()
	if err != nil {
		return nil, fmt.Errorf("load default triggers: %w", err)
	}
	return New(kb, triggers)
}

// Extract runs all passes over the utterance. Every input, including the
// empty string, yields a well-formed result.
func (e *Extractor) Extract(utterance string) Features {
	text := city.Normalize(utterance)
	return Features{
		City:          e.detectCity(text),
		DistanceKm:    ParseDistance(text),
		Conditions:    e.conditionsOf(text),
		AsksEmissions: text != "" && hasMatch(e.emissions, text),
		AsksTraffic:   text != "" && hasMatch(e.traffic, text),
	}
}

// DetectCity runs only the city passes.
func (e *Extractor) DetectCity(utterance string) CityMatch {
	return e.detectCity(city.Normalize(utterance))
}

// Conditions runs only condition detection.
func (e *Extractor) Conditions(utterance string) Conditions {
	return e.conditionsOf(city.Normalize(utterance))
}

func (e *Extractor) conditionsOf(text string) Conditions {
	var c Conditions
	if text == "" {
		return c
	}
	for _, cm := range e.conditions {
		if hasMatch(cm.matcher, text) {
			c.Set(cm.cond, true)
		}
	}
	return c
}

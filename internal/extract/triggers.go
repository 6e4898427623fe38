package extract

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	a "github.com/petar-dambovaliev/aho-corasick"
)

//go:embed data/triggers.json
var embeddedTriggers []byte

// ErrInvalidTriggers is returned when a trigger table is incomplete.
var ErrInvalidTriggers = errors.New("invalid trigger table")

// TriggerTable is the editable word list driving condition and topic
// detection. Keys of Conditions are Condition names.
type TriggerTable struct {
	Conditions map[Condition][]string `json:"conditions"`
	Emissions  []string               `json:"emissions"`
	Traffic    []string               `json:"traffic"`
}

// DefaultTriggers returns the embedded English and Chinese trigger table.
func DefaultTriggers() (TriggerTable, error) {
	return ParseTriggers(embeddedTriggers)
}

// ParseTriggers decodes and validates a trigger table.
func ParseTriggers(data []byte) (TriggerTable, error) {
	var t TriggerTable
	if err := json.Unmarshal(data, &t); err != nil {
		return TriggerTable{}, fmt.Errorf("decode triggers: %w", err)
	}
	if err := t.Validate(); err != nil {
		return TriggerTable{}, err
	}
	return t, nil
}

// Validate requires a non-empty list for every flag and rejects blank or
// unknown entries.
func (t TriggerTable) Validate() error {
	for name := range t.Conditions {
		if !name.Valid() {
			return fmt.Errorf("%w: unknown condition %q", ErrInvalidTriggers, name)
		}
	}
	for _, cond := range AllConditions {
		if err := validateWords(string(cond), t.Conditions[cond]); err != nil {
			return err
		}
	}
	if err := validateWords("emissions", t.Emissions); err != nil {
		return err
	}
	return validateWords("traffic", t.Traffic)
}

func validateWords(name string, words []string) error {
	if len(words) == 0 {
		return fmt.Errorf("%w: no triggers for %s", ErrInvalidTriggers, name)
	}
	for _, w := range words {
		if strings.TrimSpace(w) == "" {
			return fmt.Errorf("%w: blank trigger for %s", ErrInvalidTriggers, name)
		}
	}
	return nil
}

// newMatcher builds a substring matcher over lowercased words.
// Whole-word matching stays off so "raining" and "下雨了" both hit.
func newMatcher(words []string) a.AhoCorasick {
	patterns := make([]string, len(words))
	for i, w := range words {
		patterns[i] = strings.ToLower(strings.TrimSpace(w))
	}
	builder := a.NewAhoCorasickBuilder(a.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  false,
	})
	return builder.Build(patterns)
}

func hasMatch(m a.AhoCorasick, s string) bool {
	iter := m.Iter(s)
	return iter.Next() != nil
}

package city

import (
	"fmt"
	"strings"
)

// KnowledgeBase is an immutable, insertion-ordered set of city profiles and
// aliases. It is safe for concurrent use without locking.
type KnowledgeBase struct {
	cities  []Profile
	index   map[string]int
	aliases []Alias
	aliasIx map[string]string
}

// Normalize lowercases and trims an identifier. Non-ASCII text passes
// through unchanged apart from Unicode lowercasing.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NewKnowledgeBase validates the given profiles and aliases and freezes
// their order. Keys and alias names are normalized.
func NewKnowledgeBase(cities []Profile, aliases []Alias) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{
		cities:  make([]Profile, 0, len(cities)),
		index:   make(map[string]int, len(cities)),
		aliases: make([]Alias, 0, len(aliases)),
		aliasIx: make(map[string]string, len(aliases)),
	}

	for _, p := range cities {
		p = p.clone()
		p.Key = Normalize(p.Key)
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, exists := kb.index[p.Key]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCity, p.Key)
		}
		kb.index[p.Key] = len(kb.cities)
		kb.cities = append(kb.cities, p)
	}

	for _, a := range aliases {
		a.Name = Normalize(a.Name)
		a.CityKey = Normalize(a.CityKey)
		if a.Name == "" {
			return nil, fmt.Errorf("%w: empty name for %q", ErrInvalidAlias, a.CityKey)
		}
		if _, ok := kb.index[a.CityKey]; !ok {
			return nil, fmt.Errorf("%w: %q -> %q", ErrUnknownAliasTarget, a.Name, a.CityKey)
		}
		// First definition wins so the ordered scan and the exact lookup agree.
		if _, exists := kb.aliasIx[a.Name]; exists {
			continue
		}
		kb.aliasIx[a.Name] = a.CityKey
		kb.aliases = append(kb.aliases, a)
	}

	return kb, nil
}

// Lookup resolves an identifier against the alias table first, then the
// city keys. No fuzzy matching is attempted.
func (kb *KnowledgeBase) Lookup(id string) (Profile, bool) {
	id = Normalize(id)
	if id == "" {
		return Profile{}, false
	}
	if key, ok := kb.aliasIx[id]; ok {
		id = key
	}
	i, ok := kb.index[id]
	if !ok {
		return Profile{}, false
	}
	return kb.cities[i].clone(), true
}

// Resolve returns the profile for key, or the fallback profile carrying
// mention when key is empty or unknown. The boolean reports whether a
// knowledge-base profile was found.
func (kb *KnowledgeBase) Resolve(key, mention string) (Profile, bool) {
	if p, ok := kb.Lookup(key); ok {
		return p, true
	}
	return Fallback(mention), false
}

// Cities returns copies of all profiles in insertion order.
func (kb *KnowledgeBase) Cities() []Profile {
	out := make([]Profile, len(kb.cities))
	for i, p := range kb.cities {
		out[i] = p.clone()
	}
	return out
}

// Keys returns the city keys in insertion order.
func (kb *KnowledgeBase) Keys() []string {
	keys := make([]string, len(kb.cities))
	for i, p := range kb.cities {
		keys[i] = p.Key
	}
	return keys
}

// Aliases returns the alias table in insertion order.
func (kb *KnowledgeBase) Aliases() []Alias {
	return append([]Alias(nil), kb.aliases...)
}

// Len returns the number of cities.
func (kb *KnowledgeBase) Len() int {
	return len(kb.cities)
}

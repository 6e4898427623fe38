// Package city provides the city knowledge base used to tailor mode
// recommendations to a city's mobility profile.
package city

import (
	"errors"
	"fmt"
)

// Knowledge base errors.
var (
	ErrInvalidProfile     = errors.New("invalid city profile")
	ErrDuplicateCity      = errors.New("duplicate city key")
	ErrUnknownAliasTarget = errors.New("alias targets unknown city")
	ErrInvalidAlias       = errors.New("invalid city alias")
)

// Fallback profile values used when no city can be identified.
const (
	FallbackDisplayName = "your city"
	FallbackCountry     = "Unknown"
	FallbackNote        = "No city profile found. Using general urban mobility rules."

	fallbackTransit    = 0.55
	fallbackBike       = 0.50
	fallbackWalk       = 0.50
	fallbackCongestion = 0.55
)

// Profile describes one city's mobility characteristics.
// Scores are normalized to [0, 1]; higher is stronger, except congestion
// where higher is worse.
type Profile struct {
	Key             string   `json:"key"`
	DisplayName     string   `json:"displayName"`
	Country         string   `json:"country"`
	Classification  string   `json:"classification"`
	TransitScore    float64  `json:"transitScore"`
	BikeScore       float64  `json:"bikeScore"`
	WalkScore       float64  `json:"walkScore"`
	CongestionScore float64  `json:"congestionScore"`
	Notes           []string `json:"notes"`
	Hubs            []string `json:"hubs"`
}

// Alias maps an alternate spelling or abbreviation to a canonical city key.
type Alias struct {
	Name    string `json:"name"`
	CityKey string `json:"city"`
}

// Validate checks that the profile has a key and all scores lie in [0, 1].
func (p Profile) Validate() error {
	if p.Key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidProfile)
	}

	scores := []struct {
		name  string
		value float64
	}{
		{"transitScore", p.TransitScore},
		{"bikeScore", p.BikeScore},
		{"walkScore", p.WalkScore},
		{"congestionScore", p.CongestionScore},
	}
	for _, s := range scores {
		// NaN fails both comparisons, so test the accepted range directly.
		if !(s.value >= 0 && s.value <= 1) {
			return fmt.Errorf("%w: %s %s=%v out of range [0,1]", ErrInvalidProfile, p.Key, s.name, s.value)
		}
	}
	return nil
}

// clone returns a deep copy so callers cannot mutate shared slices.
func (p Profile) clone() Profile {
	cpy := p
	cpy.Notes = append([]string(nil), p.Notes...)
	cpy.Hubs = append([]string(nil), p.Hubs...)
	return cpy
}

// Fallback returns the generic profile used when no city resolves.
// The display name echoes the unresolved mention when one was detected.
func Fallback(mention string) Profile {
	display := mention
	if display == "" {
		display = FallbackDisplayName
	}
	return Profile{
		DisplayName:     display,
		Country:         FallbackCountry,
		Classification:  "unknown",
		TransitScore:    fallbackTransit,
		BikeScore:       fallbackBike,
		WalkScore:       fallbackWalk,
		CongestionScore: fallbackCongestion,
		Notes:           []string{FallbackNote},
		Hubs:            []string{},
	}
}

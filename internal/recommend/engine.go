// Package recommend implements the rule table that maps a city profile, a
// trip distance and the situational conditions to a travel mode.
package recommend

import (
	"errors"
	"fmt"
	"math"

	"github.com/qmobility/qmobility/internal/city"
	"github.com/qmobility/qmobility/internal/extract"
)

// ErrInvalidThresholds is returned for inconsistent bucket or score limits.
var ErrInvalidThresholds = errors.New("invalid thresholds")

// Thresholds holds the distance bucket limits (km) and score cut-offs.
type Thresholds struct {
	VeryShortKm        float64 `json:"veryShortKm"`
	ShortKm            float64 `json:"shortKm"`
	MediumKm           float64 `json:"mediumKm"`
	BikeScore          float64 `json:"bikeScore"`
	WalkScore          float64 `json:"walkScore"`
	TransitScore       float64 `json:"transitScore"`
	StrongTransitScore float64 `json:"strongTransitScore"`
}

// DefaultThresholds returns the 1/5/15 km buckets and the 0.65/0.70/0.70/0.75
// score cut-offs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		VeryShortKm:        1,
		ShortKm:            5,
		MediumKm:           15,
		BikeScore:          0.65,
		WalkScore:          0.70,
		TransitScore:       0.70,
		StrongTransitScore: 0.75,
	}
}

// Validate checks that buckets increase and scores lie in [0, 1].
func (t Thresholds) Validate() error {
	if !(t.VeryShortKm > 0 && t.VeryShortKm < t.ShortKm && t.ShortKm < t.MediumKm) {
		return fmt.Errorf("%w: buckets must satisfy 0 < %v < %v < %v",
			ErrInvalidThresholds, t.VeryShortKm, t.ShortKm, t.MediumKm)
	}
	for _, s := range []float64{t.BikeScore, t.WalkScore, t.TransitScore, t.StrongTransitScore} {
		if !(s >= 0 && s <= 1) {
			return fmt.Errorf("%w: score cut-off %v out of range [0,1]", ErrInvalidThresholds, s)
		}
	}
	return nil
}

// Engine applies the ordered rule table. It holds no mutable state.
type Engine struct {
	t Thresholds
}

// NewEngine creates an engine with the given thresholds.
func NewEngine(t Thresholds) (*Engine, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Engine{t: t}, nil
}

// NewDefaultEngine creates an engine with DefaultThresholds.
func NewDefaultEngine() *Engine {
	return &Engine{t: DefaultThresholds()}
}

// Thresholds returns the engine's configuration.
func (e *Engine) Thresholds() Thresholds {
	return e.t
}

// Decide returns the recommendation for one trip. The first matching rule
// wins; a nil or NaN distance always yields ModeNeedDistance.
func (e *Engine) Decide(p city.Profile, km *float64, c extract.Conditions) Recommendation {
	if km == nil || math.IsNaN(*km) {
		return Recommendation{
			Mode:      ModeNeedDistance,
			Rationale: RationaleMissingDistance,
			Reason: "Tell me the distance (e.g., 3 km / 8 km) and constraints (rain, hurry, night). " +
				"Then I can give a sharper recommendation.",
		}
	}

	d := *km
	switch {
	case d <= e.t.VeryShortKm:
		return e.veryShort(c)
	case d <= e.t.ShortKm:
		return e.short(p, c)
	case d <= e.t.MediumKm:
		return e.medium(p, c)
	default:
		return e.long(p)
	}
}

func (e *Engine) veryShort(c extract.Conditions) Recommendation {
	if c.Rain {
		return Recommendation{
			Mode:      ModeTransitShortWalk,
			Rationale: RationaleRain,
			Reason:    "In rain, staying dry matters even for short trips.",
		}
	}
	return Recommendation{
		Mode:      ModeWalk,
		Rationale: RationaleShortWalk,
		Reason:    fmt.Sprintf("Under %s km, walking is usually the fastest and simplest.", fmtKm(e.t.VeryShortKm)),
	}
}

func (e *Engine) short(p city.Profile, c extract.Conditions) Recommendation {
	switch {
	case c.Luggage || c.Accessible:
		return Recommendation{
			Mode:      ModeTransitOrTaxi,
			Rationale: RationaleAccessNeeds,
			Reason:    "Comfort and access matter with luggage or accessibility needs.",
		}
	case c.Rain:
		return Recommendation{
			Mode:      ModeMetroBus,
			Rationale: RationaleRain,
			Reason:    "Rain makes cycling less comfortable and less safe.",
		}
	case p.BikeScore >= e.t.BikeScore:
		return Recommendation{
			Mode:      ModeBike,
			Rationale: RationaleBikeFriendly,
			Reason: fmt.Sprintf("For %s–%s km, bike/e-bike is efficient here (bike score %.2f).",
				fmtKm(e.t.VeryShortKm), fmtKm(e.t.ShortKm), p.BikeScore),
		}
	case p.WalkScore >= e.t.WalkScore:
		return Recommendation{
			Mode:      ModeWalkTransit,
			Rationale: RationaleWalkable,
			Reason:    fmt.Sprintf("Walkability is decent (walk score %.2f); mix with transit if needed.", p.WalkScore),
		}
	default:
		return Recommendation{
			Mode:      ModeBusMetro,
			Rationale: RationaleTransitDefault,
			Reason:    "Public transport is a good default for short trips.",
		}
	}
}

func (e *Engine) medium(p city.Profile, c extract.Conditions) Recommendation {
	if c.Hurry {
		if p.TransitScore >= e.t.StrongTransitScore {
			return Recommendation{
				Mode:      ModeMetroRail,
				Rationale: RationaleHurry,
				Reason:    "Transit avoids traffic uncertainty when you're in a hurry.",
			}
		}
		return Recommendation{
			Mode:      ModeTaxi,
			Rationale: RationaleWeakTransit,
			Reason: fmt.Sprintf("You're in a hurry and transit is weak here (transit score %.2f); "+
				"a direct car route is often faster.", p.TransitScore),
		}
	}

	if c.RushHour && p.TransitScore >= e.t.TransitScore {
		return Recommendation{
			Mode:      ModeMetroRail,
			Rationale: RationaleRushHour,
			Reason:    "Rush hour traffic makes road options slower; rail is more reliable.",
		}
	}

	if p.TransitScore >= e.t.TransitScore {
		return Recommendation{
			Mode:      ModeMetroBus,
			Rationale: RationaleStrongTransit,
			Reason:    fmt.Sprintf("Mid-range trips are where transit shines most (transit score %.2f).", p.TransitScore),
		}
	}

	return Recommendation{
		Mode:      ModeCar,
		Rationale: RationaleWeakTransit,
		Reason: fmt.Sprintf("Transit is limited here (transit score %.2f); road travel is often the practical choice.",
			p.TransitScore),
	}
}

func (e *Engine) long(p city.Profile) Recommendation {
	if p.TransitScore >= e.t.StrongTransitScore {
		return Recommendation{
			Mode:      ModeRailLastMile,
			Rationale: RationaleLongDistance,
			Reason:    "Long distance: rail is efficient, then connect by bus or on foot.",
		}
	}
	return Recommendation{
		Mode:      ModeCarOrIntercity,
		Rationale: RationaleLongDistance,
		Reason: fmt.Sprintf("Long trip and transit is not strong here (transit score %.2f); "+
			"take the most direct option, intercity bus or train if one serves your route.", p.TransitScore),
	}
}

// fmtKm formats a bucket limit without trailing zeros.
func fmtKm(v float64) string {
	return fmt.Sprintf("%g", v)
}

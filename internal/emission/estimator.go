// Package emission estimates the CO2 cost of a recommended trip.
package emission

import (
	"math"

	"github.com/qmobility/qmobility/internal/recommend"
)

// DefaultFactor is the grams-per-km factor for modes without an entry.
const DefaultFactor = 100.0

// Per-mode factors in grams CO2 per passenger-km. Illustrative averages.
var factors = map[recommend.Mode]float64{
	recommend.ModeWalk:             0,
	recommend.ModeTransitShortWalk: 0,
	recommend.ModeBike:             0,
	recommend.ModeWalkTransit:      0,
	recommend.ModeMetroBus:         35,
	recommend.ModeTransitOrTaxi:    35,
	recommend.ModeBusMetro:         35,
	recommend.ModeMetroRail:        35,
	recommend.ModeRailLastMile:     35,
	recommend.ModeCarOrIntercity:   80,
	recommend.ModeTaxi:             200,
	recommend.ModeCar:              170,
}

// Factor returns the grams-per-km factor for a mode.
func Factor(m recommend.Mode) float64 {
	if f, ok := factors[m]; ok {
		return f
	}
	return DefaultFactor
}

// Estimate returns grams of CO2 rounded to the nearest gram, or nil when the
// distance is unknown.
func Estimate(m recommend.Mode, km *float64) *int {
	if km == nil || math.IsNaN(*km) {
		return nil
	}
	grams := int(math.Round(Factor(m) * *km))
	return &grams
}

// Comparison is one row of a per-mode emission comparison.
type Comparison struct {
	Mode       string  `json:"mode"`
	GramsPerKm float64 `json:"gramsPerKm"`
	TotalGrams int     `json:"totalGrams"`
}

var comparisonRows = []struct {
	mode  string
	perKm float64
}{
	{"Car", 170},
	{"Bus", 80},
	{"Metro", 35},
	{"Bike/Walk", 0},
}

// Compare returns car, bus, metro and bike/walk estimates for a distance,
// highest first.
func Compare(km float64) []Comparison {
	out := make([]Comparison, len(comparisonRows))
	for i, row := range comparisonRows {
		out[i] = Comparison{
			Mode:       row.mode,
			GramsPerKm: row.perKm,
			TotalGrams: int(math.Round(row.perKm * km)),
		}
	}
	return out
}

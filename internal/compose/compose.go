// Package compose renders a mobility result as chat text.
package compose

import (
	"fmt"
	"strings"

	"github.com/qmobility/qmobility/internal/emission"
	"github.com/qmobility/qmobility/internal/extract"
	"github.com/qmobility/qmobility/internal/mobility"
)

const (
	maxHubs  = 2
	maxNotes = 3
)

// Examples are sample requests shown when more information is needed.
var Examples = []string{
	"I am in Hong Kong and need to travel 6 km, raining, in a hurry",
	"I am in Nanjing and need to travel 8 km during rush hour",
	"In Paris, 3 km, raining, I am in a hurry",
	"New York City, 18 km, late night, with luggage",
}

// TrafficAdvice answers general congestion questions that carry no trip.
const TrafficAdvice = "Reducing traffic congestion requires public transport priority, " +
	"demand management, and better land-use planning."

var conditionLabels = map[extract.Condition]string{
	extract.ConditionRain:       "rain",
	extract.ConditionHurry:      "hurry",
	extract.ConditionNight:      "night",
	extract.ConditionLuggage:    "luggage",
	extract.ConditionAccessible: "accessible",
	extract.ConditionRushHour:   "rush hour",
	extract.ConditionBudget:     "budget",
	extract.ConditionSafety:     "safety",
}

// ConditionLabel returns the display name of a condition flag.
func ConditionLabel(c extract.Condition) string {
	if label, ok := conditionLabels[c]; ok {
		return label
	}
	return string(c)
}

// Compose builds the reply text for a result.
func Compose(r mobility.Result) string {
	var b strings.Builder

	b.WriteString(cityLine(r))
	b.WriteString("\n")
	b.WriteString(conditionsLine(r.Conditions))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "✅ Recommendation: %s\n", r.Recommendation.Label())
	fmt.Fprintf(&b, "🧠 Reason: %s\n", r.Recommendation.Reason)
	b.WriteString(co2Line(r))

	if hubs := limit(r.Profile.Hubs, maxHubs); len(hubs) > 0 {
		fmt.Fprintf(&b, "\n\n🚉 Nearby major hubs: %s", strings.Join(hubs, " / "))
	}

	if notes := limit(r.Profile.Notes, maxNotes); len(notes) > 0 {
		b.WriteString("\n\n📚 City profile notes:")
		for _, n := range notes {
			fmt.Fprintf(&b, "\n- %s", n)
		}
	}

	if r.AsksEmissions && r.DistanceKm != nil {
		b.WriteString("\n\n")
		b.WriteString(Comparison(*r.DistanceKm))
	}

	if r.Recommendation.NeedsDistance() {
		b.WriteString("\n\n🧪 Example inputs you can try:")
		for _, ex := range Examples {
			fmt.Fprintf(&b, "\n- %q", ex)
		}
	}

	return b.String()
}

// Comparison renders the per-mode CO2 comparison for a distance.
func Comparison(km float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 CO₂ comparison for %.1f km:", km)
	for _, row := range emission.Compare(km) {
		fmt.Fprintf(&b, "\n- %s: %d g", row.Mode, row.TotalGrams)
	}
	return b.String()
}

func cityLine(r mobility.Result) string {
	if r.CityResolved {
		return fmt.Sprintf("📍 City detected: %s (%s)", r.Profile.DisplayName, r.Profile.Country)
	}
	tip := `(Tip: say "I am in Paris/Nanjing/Hong Kong/New York...")`
	if r.CityMention != "" {
		return fmt.Sprintf("📍 City not recognized: %q. Using general rules. %s", r.CityMention, tip)
	}
	return "📍 City not recognized. Using general rules. " + tip
}

func conditionsLine(c extract.Conditions) string {
	active := c.Active()
	if len(active) == 0 {
		return "🧩 Conditions: none detected"
	}
	labels := make([]string, len(active))
	for i, cond := range active {
		labels[i] = ConditionLabel(cond)
	}
	return "🧩 Conditions: " + strings.Join(labels, ", ")
}

func co2Line(r mobility.Result) string {
	if r.EmissionGrams == nil || r.DistanceKm == nil {
		return "🌿 CO₂ estimate: provide distance to estimate"
	}
	return fmt.Sprintf("🌿 CO₂ estimate (rough): ~%d g for %.1f km", *r.EmissionGrams, *r.DistanceKm)
}

func limit(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

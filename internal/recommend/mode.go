package recommend

import "encoding/json"

// Mode is the closed set of travel-mode recommendations.
type Mode string

// Recommended modes.
const (
	ModeWalk             Mode = "WALK"
	ModeTransitShortWalk Mode = "TRANSIT_SHORT_WALK"
	ModeTransitOrTaxi    Mode = "TRANSIT_OR_TAXI"
	ModeMetroBus         Mode = "METRO_BUS"
	ModeBike             Mode = "BIKE"
	ModeWalkTransit      Mode = "WALK_TRANSIT"
	ModeBusMetro         Mode = "BUS_METRO"
	ModeMetroRail        Mode = "METRO_RAIL"
	ModeTaxi             Mode = "TAXI"
	ModeCar              Mode = "CAR"
	ModeRailLastMile     Mode = "RAIL_LAST_MILE"
	ModeCarOrIntercity   Mode = "CAR_OR_INTERCITY"
	ModeNeedDistance     Mode = "NEED_DISTANCE"
)

var modeLabels = map[Mode]string{
	ModeWalk:             "Walk",
	ModeTransitShortWalk: "Metro/Bus + short walk",
	ModeTransitOrTaxi:    "Metro/Bus or taxi/ride-hailing",
	ModeMetroBus:         "Metro/Bus",
	ModeBike:             "Bike / e-bike",
	ModeWalkTransit:      "Walk + public transport",
	ModeBusMetro:         "Bus/Metro (if available)",
	ModeMetroRail:        "Metro/Rail",
	ModeTaxi:             "Taxi/ride-hailing",
	ModeCar:              "Car/ride-hailing",
	ModeRailLastMile:     "Rail + last-mile",
	ModeCarOrIntercity:   "Car (or intercity bus/train if available)",
	ModeNeedDistance:     "Need distance",
}

// AllModes lists every mode in display order.
var AllModes = []Mode{
	ModeWalk,
	ModeTransitShortWalk,
	ModeTransitOrTaxi,
	ModeMetroBus,
	ModeBike,
	ModeWalkTransit,
	ModeBusMetro,
	ModeMetroRail,
	ModeTaxi,
	ModeCar,
	ModeRailLastMile,
	ModeCarOrIntercity,
	ModeNeedDistance,
}

// Label returns the human-readable label, or the raw value for unknown modes.
func (m Mode) Label() string {
	if label, ok := modeLabels[m]; ok {
		return label
	}
	return string(m)
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	_, ok := modeLabels[m]
	return ok
}

// Rationale categorises the rule that produced a recommendation.
type Rationale string

// Rationale categories.
const (
	RationaleMissingDistance Rationale = "MISSING_DISTANCE"
	RationaleRain            Rationale = "RAIN"
	RationaleShortWalk       Rationale = "SHORT_WALK"
	RationaleAccessNeeds     Rationale = "ACCESS_NEEDS"
	RationaleBikeFriendly    Rationale = "BIKE_FRIENDLY"
	RationaleWalkable        Rationale = "WALKABLE"
	RationaleTransitDefault  Rationale = "TRANSIT_DEFAULT"
	RationaleHurry           Rationale = "HURRY"
	RationaleWeakTransit     Rationale = "WEAK_TRANSIT"
	RationaleRushHour        Rationale = "RUSH_HOUR"
	RationaleStrongTransit   Rationale = "STRONG_TRANSIT"
	RationaleLongDistance    Rationale = "LONG_DISTANCE"
)

// AllRationales lists every rationale category.
var AllRationales = []Rationale{
	RationaleMissingDistance,
	RationaleRain,
	RationaleShortWalk,
	RationaleAccessNeeds,
	RationaleBikeFriendly,
	RationaleWalkable,
	RationaleTransitDefault,
	RationaleHurry,
	RationaleWeakTransit,
	RationaleRushHour,
	RationaleStrongTransit,
	RationaleLongDistance,
}

// Recommendation is the engine's output for one request.
type Recommendation struct {
	Mode      Mode      `json:"mode"`
	Reason    string    `json:"reason"`
	Rationale Rationale `json:"rationale"`
}

// Label returns the mode's display label.
func (r Recommendation) Label() string {
	return r.Mode.Label()
}

// NeedsDistance reports whether the engine asked for more information.
func (r Recommendation) NeedsDistance() bool {
	return r.Mode == ModeNeedDistance
}

// MarshalJSON adds the display label to the encoded recommendation.
func (r Recommendation) MarshalJSON() ([]byte, error) {
	type alias Recommendation
	return json.Marshal(struct {
		alias
		Label string `json:"label"`
	}{alias: alias(r), Label: r.Label()})
}

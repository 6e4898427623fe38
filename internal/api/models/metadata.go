package models

// City is the public view of a city profile.
type City struct {
	Key             string   `json:"key"`
	DisplayName     string   `json:"displayName"`
	Country         string   `json:"country"`
	Classification  string   `json:"classification,omitempty"`
	TransitScore    float64  `json:"transitScore"`
	BikeScore       float64  `json:"bikeScore"`
	WalkScore       float64  `json:"walkScore"`
	CongestionScore float64  `json:"congestionScore"`
	Hubs            []string `json:"hubs,omitempty"`
	Notes           []string `json:"notes,omitempty"`
}

// CityAlias maps an alternate name to a city key.
type CityAlias struct {
	Name    string `json:"name"`
	CityKey string `json:"cityKey"`
}

// CityList is the response of GET /v1/metadata/cities.
type CityList struct {
	Items   []City      `json:"items"`
	Aliases []CityAlias `json:"aliases"`
}

// ModeInfo describes one recommendation mode.
type ModeInfo struct {
	Mode  string `json:"mode"`
	Label string `json:"label"`
}

// Thresholds are the distance buckets (km) and score cut-offs in effect.
type Thresholds struct {
	VeryShortKm        float64 `json:"veryShortKm"`
	ShortKm            float64 `json:"shortKm"`
	MediumKm           float64 `json:"mediumKm"`
	BikeScore          float64 `json:"bikeScore"`
	WalkScore          float64 `json:"walkScore"`
	TransitScore       float64 `json:"transitScore"`
	StrongTransitScore float64 `json:"strongTransitScore"`
}

// Enums represents the enum values used by the API.
type Enums struct {
	Modes      []ModeInfo `json:"modes"`
	Rationales []string   `json:"rationales"`
	Conditions []string   `json:"conditions"`
	Thresholds Thresholds `json:"thresholds"`
}

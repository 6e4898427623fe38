package extract

// Condition names one situational flag.
type Condition string

// Condition flags, in their canonical order.
const (
	ConditionRain       Condition = "rain"
	ConditionHurry      Condition = "hurry"
	ConditionNight      Condition = "night"
	ConditionLuggage    Condition = "luggage"
	ConditionAccessible Condition = "accessible"
	ConditionRushHour   Condition = "rushHour"
	ConditionBudget     Condition = "budget"
	ConditionSafety     Condition = "safety"
)

// AllConditions lists every flag in canonical order.
var AllConditions = []Condition{
	ConditionRain,
	ConditionHurry,
	ConditionNight,
	ConditionLuggage,
	ConditionAccessible,
	ConditionRushHour,
	ConditionBudget,
	ConditionSafety,
}

// Valid reports whether c is a known flag.
func (c Condition) Valid() bool {
	for _, known := range AllConditions {
		if c == known {
			return true
		}
	}
	return false
}

// Conditions holds the eight independent flags extracted from one utterance.
// The zero value has every flag false.
type Conditions struct {
	Rain       bool `json:"rain"`
	Hurry      bool `json:"hurry"`
	Night      bool `json:"night"`
	Luggage    bool `json:"luggage"`
	Accessible bool `json:"accessible"`
	RushHour   bool `json:"rushHour"`
	Budget     bool `json:"budget"`
	Safety     bool `json:"safety"`
}

func (c *Conditions) field(cond Condition) *bool {
	switch cond {
	case ConditionRain:
		return &c.Rain
	case ConditionHurry:
		return &c.Hurry
	case ConditionNight:
		return &c.Night
	case ConditionLuggage:
		return &c.Luggage
	case ConditionAccessible:
		return &c.Accessible
	case ConditionRushHour:
		return &c.RushHour
	case ConditionBudget:
		return &c.Budget
	case ConditionSafety:
		return &c.Safety
	}
	return nil
}

// Has reports whether the flag is set. Unknown flags are never set.
func (c Conditions) Has(cond Condition) bool {
	if f := c.field(cond); f != nil {
		return *f
	}
	return false
}

// Set sets or clears a flag. Unknown flags are ignored.
func (c *Conditions) Set(cond Condition, on bool) {
	if f := c.field(cond); f != nil {
		*f = on
	}
}

// Active returns the set flags in canonical order.
func (c Conditions) Active() []Condition {
	var active []Condition
	for _, cond := range AllConditions {
		if c.Has(cond) {
			active = append(active, cond)
		}
	}
	return active
}

// Any reports whether at least one flag is set.
func (c Conditions) Any() bool {
	return len(c.Active()) > 0
}

package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// KmPerMile converts miles to kilometers.
const KmPerMile = 1.60934

// distancePattern matches a decimal number followed by a distance unit.
// The number must start the text or follow a character that cannot be part
// of a number, so "1,000 km" is never read as "000 km". Thousands groups use
// commas. Latin units need a trailing word boundary so "5 min" is not read
// as miles; CJK units are matched as plain suffixes.
var distancePattern = regexp.MustCompile(
	`(?:^|[^\d.,])((?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?)\s*(?:(kilomet(?:er|re)s?|km|miles?|mi)\b|(公里|千米))`,
)

// ParseDistance returns the first distance in text, in kilometers.
// It returns nil when no well-formed number is followed by a recognised unit.
func ParseDistance(text string) *float64 {
	m := distancePattern.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return nil
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		return nil
	}

	if strings.HasPrefix(m[2], "mi") {
		value *= KmPerMile
	}
	return &value
}

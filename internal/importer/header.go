package importer

import (
	"strings"

	"github.com/cretemeteo/meteo-monitor/internal/models"
)

// headerRule pairs a predicate over the lower-cased header text with the
// canonical field it supplies.
type headerRule struct {
	matches func(string) bool
	field   models.Field
}

// headerRules is evaluated top to bottom and the first match wins. Order is
// load-bearing: "rain duration" headers must not be classified as
// precipitation, so the precipitation rule excludes "duration" and the rain
// duration rule comes last.
var headerRules = []headerRule{
	{containsAny("temperature", "air temp"), models.FieldTemperature},
	{containsAny("humidity"), models.FieldHumidity},
	{func(h string) bool {
		if strings.Contains(h, "duration") {
			return false
		}
		return strings.Contains(h, "rain") || strings.Contains(h, "precipitation")
	}, models.FieldPrecipitation},
	{containsAny("wind speed", "wind_speed"), models.FieldWindSpeed},
	{containsAny("wind direction", "wind_direction"), models.FieldWindDirection},
	{containsAny("pressure", "barometer"), models.FieldPressure},
	{containsAny("solar", "pyranometer"), models.FieldSolarRadiation},
	{containsAny("eto"), models.FieldETo},
	{func(h string) bool {
		return strings.Contains(h, "rain") && strings.Contains(h, "duration")
	}, models.FieldRainDuration},
}

func containsAny(substrings ...string) func(string) bool {
	return func(header string) bool {
		for _, sub := range substrings {
			if strings.Contains(header, sub) {
				return true
			}
		}
		return false
	}
}

// CanonicalField resolves one CSV column header to the canonical reading
// field it supplies. Matching is case-insensitive and substring-based, which
// tolerates the inconsistent, partly non-Latin column names different station
// vendors use for the same physical quantity. The second return is false for
// headers that match no rule; such columns are ignored for every row.
//
// Columns 0 and 1 of every row are always date and time and are never passed
// through this function.
func CanonicalField(header string) (models.Field, bool) {
	h := strings.ToLower(strings.TrimSpace(header))
	for _, rule := range headerRules {
		if rule.matches(h) {
			return rule.field, true
		}
	}
	return "", false
}

package importer

import (
	"testing"

	"github.com/cretemeteo/meteo-monitor/internal/models"
)

func TestCanonicalField(t *testing.T) {
	tests := []struct {
		header  string
		field   models.Field
		matched bool
	}{
		// Vendor headers seen in real station exports.
		{"M05 Temperature (AVG)", models.FieldTemperature, true},
		{"ΠΥΡΓΟΣ AIR TEMP (AVG)", models.FieldTemperature, true},
		{"M07 Relative Humidity (AVG)", models.FieldHumidity, true},
		{"M02 Precipitation (SUM)", models.FieldPrecipitation, true},
		{"ΠΥΡΓΟΣ Rain (SUM)", models.FieldPrecipitation, true},
		{"M04 WIND SPEED (AVG)", models.FieldWindSpeed, true},
		{"wind_speed", models.FieldWindSpeed, true},
		{"ΔΟΞΑΡΟ WIND DIRECTION (AVG)", models.FieldWindDirection, true},
		{"M05 Barometric Pressure (AVG)", models.FieldPressure, true},
		{"ΠΥΡΓΟΣ BAROMETER (AVG)", models.FieldPressure, true},
		{"M07 Pyranometer 0 - 2000 W/m² (AVG)", models.FieldSolarRadiation, true},
		{"ΠΥΡΓΟΣ SOLAR (AVG)", models.FieldSolarRadiation, true},
		{"ΤΥΜΠΑΚΙ Daily ETo", models.FieldETo, true},
		{"ΖΗΡΟΣ Rain Duration (SUM)", models.FieldRainDuration, true},

		// Case insensitivity.
		{"TEMPERATURE", models.FieldTemperature, true},
		{"humidity", models.FieldHumidity, true},

		// Precedence: duration-bearing rain headers must not be classified
		// as precipitation.
		{"Rain Duration (SUM)", models.FieldRainDuration, true},
		{"rain duration", models.FieldRainDuration, true},

		// Unrecognized columns are ignored.
		{"Battery Voltage", "", false},
		{"Station Notes", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			field, matched := CanonicalField(tt.header)
			if matched != tt.matched {
				t.Fatalf("CanonicalField(%q) matched = %v, want %v", tt.header, matched, tt.matched)
			}
			if field != tt.field {
				t.Errorf("CanonicalField(%q) = %v, want %v", tt.header, field, tt.field)
			}
		})
	}
}

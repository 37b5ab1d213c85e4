package importer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cretemeteo/meteo-monitor/internal/models"
)

// NormalizeDate converts DD/MM/YYYY dates to the canonical YYYY-MM-DD form
// with zero-padded month and day. Values that do not split into exactly
// three '/' separated parts pass through unchanged; they are not validated
// further at this layer.
func NormalizeDate(raw string) string {
	parts := strings.Split(raw, "/")
	if len(parts) != 3 {
		return raw
	}
	day, month, year := parts[0], parts[1], parts[2]
	return fmt.Sprintf("%s-%s-%s", year, pad2(month), pad2(day))
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// NormalizeTime coerces time values to HH:MM:SS. Two-part HH:MM values get
// ":00" appended, three-part values pass through unchanged, and a value with
// no ':' at all defaults to midnight.
func NormalizeTime(raw string) string {
	if !strings.Contains(raw, ":") {
		return "00:00:00"
	}
	parts := strings.Split(raw, ":")
	if len(parts) == 2 {
		return raw + ":00"
	}
	return raw
}

// ParseValue interprets one sensor cell. The empty string and the '*'
// placeholder mean the channel was not measured, as does anything that fails
// to parse as a finite number. Absent is distinct from zero: callers must
// not substitute 0 for a nil return.
func ParseValue(raw string) *float64 {
	if raw == "" || raw == "*" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// MapRow converts one tokenized data row into a Reading, using the tokenized
// header row to identify which sensor channel each column carries. Rows with
// fewer than two fields are rejected, as are rows whose date or time end up
// empty after normalization. The returned bool is false for rejected rows.
func MapRow(headers, row []string) (*models.Reading, bool) {
	if len(row) < 2 {
		return nil, false
	}

	reading := &models.Reading{
		Date: NormalizeDate(row[0]),
		Time: NormalizeTime(row[1]),
	}

	for i := 2; i < len(headers) && i < len(row); i++ {
		field, ok := CanonicalField(headers[i])
		if !ok {
			continue
		}
		if v := ParseValue(row[i]); v != nil {
			reading.SetField(field, *v)
		}
	}

	if !reading.IsValid() {
		return nil, false
	}
	return reading, true
}

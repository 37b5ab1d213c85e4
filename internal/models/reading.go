package models

import "fmt"

// Field names one of the canonical measurement channels every vendor column
// header is normalized onto.
type Field string

const (
	FieldTemperature    Field = "temperature"
	FieldHumidity       Field = "humidity"
	FieldPrecipitation  Field = "precipitation"
	FieldWindSpeed      Field = "wind_speed"
	FieldWindDirection  Field = "wind_direction"
	FieldPressure       Field = "pressure"
	FieldSolarRadiation Field = "solar_radiation"
	FieldETo            Field = "eto"
	FieldRainDuration   Field = "rain_duration"
)

// Reading is one timestamped set of sensor measurements for one station.
// Sensor fields are pointers: a nil field means the source file did not
// supply that channel, which is distinct from a measured zero.
type Reading struct {
	StationID      string   `json:"station_id"`
	Date           string   `json:"date"`
	Time           string   `json:"time"`
	Temperature    *float64 `json:"temperature,omitempty"`
	Humidity       *float64 `json:"humidity,omitempty"`
	Precipitation  *float64 `json:"precipitation,omitempty"`
	WindSpeed      *float64 `json:"wind_speed,omitempty"`
	WindDirection  *float64 `json:"wind_direction,omitempty"`
	Pressure       *float64 `json:"pressure,omitempty"`
	SolarRadiation *float64 `json:"solar_radiation,omitempty"`
	ETo            *float64 `json:"eto,omitempty"`
	RainDuration   *float64 `json:"rain_duration,omitempty"`
}

// IsValid reports whether the reading carries the date and time that form
// its identity. Readings without both are dropped during import.
func (r *Reading) IsValid() bool {
	return r.Date != "" && r.Time != ""
}

// Key returns the identity tuple used for upsert deduplication.
func (r *Reading) Key() string {
	return fmt.Sprintf("%s|%s|%s", r.StationID, r.Date, r.Time)
}

// SetField stores a measured value under the given canonical field.
// Unknown fields are ignored.
func (r *Reading) SetField(f Field, value float64) {
	v := value
	switch f {
	case FieldTemperature:
		r.Temperature = &v
	case FieldHumidity:
		r.Humidity = &v
	case FieldPrecipitation:
		r.Precipitation = &v
	case FieldWindSpeed:
		r.WindSpeed = &v
	case FieldWindDirection:
		r.WindDirection = &v
	case FieldPressure:
		r.Pressure = &v
	case FieldSolarRadiation:
		r.SolarRadiation = &v
	case FieldETo:
		r.ETo = &v
	case FieldRainDuration:
		r.RainDuration = &v
	}
}

// FieldValue returns the stored value for a canonical field, or nil when the
// field is absent.
func (r *Reading) FieldValue(f Field) *float64 {
	switch f {
	case FieldTemperature:
		return r.Temperature
	case FieldHumidity:
		return r.Humidity
	case FieldPrecipitation:
		return r.Precipitation
	case FieldWindSpeed:
		return r.WindSpeed
	case FieldWindDirection:
		return r.WindDirection
	case FieldPressure:
		return r.Pressure
	case FieldSolarRadiation:
		return r.SolarRadiation
	case FieldETo:
		return r.ETo
	case FieldRainDuration:
		return r.RainDuration
	}
	return nil
}

// Copy returns a deep copy of the Reading.
func (r *Reading) Copy() *Reading {
	if r == nil {
		return nil
	}
	dup := &Reading{
		StationID: r.StationID,
		Date:      r.Date,
		Time:      r.Time,
	}
	copyField := func(src *float64) *float64 {
		if src == nil {
			return nil
		}
		v := *src
		return &v
	}
	dup.Temperature = copyField(r.Temperature)
	dup.Humidity = copyField(r.Humidity)
	dup.Precipitation = copyField(r.Precipitation)
	dup.WindSpeed = copyField(r.WindSpeed)
	dup.WindDirection = copyField(r.WindDirection)
	dup.Pressure = copyField(r.Pressure)
	dup.SolarRadiation = copyField(r.SolarRadiation)
	dup.ETo = copyField(r.ETo)
	dup.RainDuration = copyField(r.RainDuration)
	return dup
}

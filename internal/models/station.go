package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Station is the metadata record for one meteorological station. Readings
// reference stations by ID; deleting a station leaves its historical
// readings in place.
type Station struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Elevation float64   `json:"elevation"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// NewStation creates a station with a fresh identifier. New stations start
// out active.
func NewStation(name, location string, latitude, longitude, elevation float64) *Station {
	return &Station{
		ID:        uuid.NewString(),
		Name:      name,
		Location:  location,
		Latitude:  latitude,
		Longitude: longitude,
		Elevation: elevation,
		Active:    true,
	}
}

// Validate checks the station metadata before it is persisted.
func (s *Station) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("station name is required")
	}
	if s.Latitude < -90 || s.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	return nil
}

func (s *Station) String() string {
	return fmt.Sprintf("Station{ID: %s, Name: %s, Location: %s, Lat: %.4f, Lon: %.4f}",
		s.ID, s.Name, s.Location, s.Latitude, s.Longitude)
}

package server

import (
	"context"

	"github.com/cretemeteo/meteo-monitor/internal/models"
	"github.com/cretemeteo/meteo-monitor/internal/storage"
)

// Store defines the persistence surface the HTTP API needs.
// storage.SQLiteStore implements this interface.
type Store interface {
	// CreateStation inserts a new station record
	CreateStation(ctx context.Context, station *models.Station) error

	// GetStation returns a station by ID, or nil if it does not exist
	GetStation(ctx context.Context, id string) (*models.Station, error)

	// ListStations returns all stations ordered by name
	ListStations(ctx context.Context) ([]*models.Station, error)

	// UpdateStation updates the metadata of an existing station
	UpdateStation(ctx context.Context, station *models.Station) error

	// DeleteStation removes a station; readings are left orphaned
	DeleteStation(ctx context.Context, id string) error

	// GetStationByName returns the first station with the given display name,
	// or nil if none exists
	GetStationByName(ctx context.Context, name string) (*models.Station, error)

	// DeleteReadings removes all readings for a station, or every reading
	// when stationID is empty, and returns the number of rows removed
	DeleteReadings(ctx context.Context, stationID string) (int64, error)

	// GetReadings returns readings for a station within a date range
	GetReadings(ctx context.Context, stationID, startDate, endDate string, limit int) ([]*models.Reading, error)

	// GetLatestReading returns the most recent reading for a station
	GetLatestReading(ctx context.Context, stationID string) (*models.Reading, error)

	// GetDailyStats returns per-day aggregates for charting
	GetDailyStats(ctx context.Context, stationID, startDate, endDate string) ([]storage.DailyStat, error)

	// GetStorageStats returns database statistics
	GetStorageStats(ctx context.Context) (*storage.StorageStats, error)
}

// ImportRunner runs one CSV submission against an existing station.
// importer.Importer implements this interface.
type ImportRunner interface {
	Import(ctx context.Context, stationID, csvData string) (*models.ImportSummary, error)
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/cretemeteo/meteo-monitor/internal/models"
)

// Store defines the interface for station and reading persistence
type Store interface {
	Close() error
	Migrate() error

	CreateStation(ctx context.Context, station *models.Station) error
	GetStation(ctx context.Context, id string) (*models.Station, error)
	GetStationByName(ctx context.Context, name string) (*models.Station, error)
	ListStations(ctx context.Context) ([]*models.Station, error)
	UpdateStation(ctx context.Context, station *models.Station) error
	DeleteStation(ctx context.Context, id string) error

	UpsertReadings(ctx context.Context, readings []*models.Reading) error
	DeleteReadings(ctx context.Context, stationID string) (int64, error)
	GetReadings(ctx context.Context, stationID, startDate, endDate string, limit int) ([]*models.Reading, error)
	GetLatestReading(ctx context.Context, stationID string) (*models.Reading, error)
	GetDailyStats(ctx context.Context, stationID, startDate, endDate string) ([]DailyStat, error)
	GetStorageStats(ctx context.Context) (*StorageStats, error)
}

// Compile-time interface check
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore handles persistent storage of stations and readings
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// DailyStat represents aggregated statistics for a single calendar day.
// Aggregates over channels no row measured come back nil.
type DailyStat struct {
	Date             string   `json:"date"`
	StationID        string   `json:"station_id"`
	MinTemperature   *float64 `json:"min_temperature,omitempty"`
	MaxTemperature   *float64 `json:"max_temperature,omitempty"`
	AvgTemperature   *float64 `json:"avg_temperature,omitempty"`
	AvgHumidity      *float64 `json:"avg_humidity,omitempty"`
	PrecipitationSum *float64 `json:"precipitation_sum,omitempty"`
	AvgSolar         *float64 `json:"avg_solar_radiation,omitempty"`
	ReadingCount     int      `json:"reading_count"`
}

// StorageStats contains information about the database
type StorageStats struct {
	TotalReadings  int64   `json:"total_readings"`
	TotalStations  int     `json:"total_stations"`
	OldestDate     string  `json:"oldest_date,omitempty"`
	NewestDate     string  `json:"newest_date,omitempty"`
	DatabaseSizeMB float64 `json:"database_size_mb"`
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(dbPath string, logger zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Apply performance pragmas for SQLite
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=10000",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=OFF", // readings survive station deletion
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	// Configure connection pool for SQLite (single writer)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := store.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info().Str("path", dbPath).Msg("SQLite store initialized")

	return store, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate creates the database schema if it doesn't exist
func (s *SQLiteStore) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS stations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		latitude REAL NOT NULL DEFAULT 0,
		longitude REAL NOT NULL DEFAULT 0,
		elevation REAL NOT NULL DEFAULT 0,
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		station_id TEXT NOT NULL,
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		temperature REAL,
		humidity REAL,
		precipitation REAL,
		wind_speed REAL,
		wind_direction REAL,
		pressure REAL,
		solar_radiation REAL,
		eto REAL,
		rain_duration REAL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(station_id, date, time)
	);

	CREATE INDEX IF NOT EXISTS idx_readings_station_date ON readings(station_id, date, time);
	CREATE INDEX IF NOT EXISTS idx_stations_name ON stations(name);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	s.logger.Debug().Msg("Database schema migrated")
	return nil
}

// CreateStation inserts a new station record
func (s *SQLiteStore) CreateStation(ctx context.Context, station *models.Station) error {
	query := `
		INSERT INTO stations (id, name, location, latitude, longitude, elevation, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		station.ID,
		station.Name,
		station.Location,
		station.Latitude,
		station.Longitude,
		station.Elevation,
		station.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to insert station: %w", err)
	}

	s.logger.Info().Str("station_id", station.ID).Str("name", station.Name).Msg("Station created")
	return nil
}

// GetStation returns the station with the given ID, or nil if none exists
func (s *SQLiteStore) GetStation(ctx context.Context, id string) (*models.Station, error) {
	query := `
		SELECT id, name, location, latitude, longitude, elevation, active, created_at, updated_at
		FROM stations
		WHERE id = ?
	`

	station, err := s.scanStation(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get station: %w", err)
	}
	return station, nil
}

// GetStationByName returns the first station with the given display name, or
// nil if none exists. Names are not guaranteed unique.
func (s *SQLiteStore) GetStationByName(ctx context.Context, name string) (*models.Station, error) {
	query := `
		SELECT id, name, location, latitude, longitude, elevation, active, created_at, updated_at
		FROM stations
		WHERE name = ?
		ORDER BY created_at
		LIMIT 1
	`

	station, err := s.scanStation(s.db.QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get station by name: %w", err)
	}
	return station, nil
}

// ListStations returns all stations ordered by name
func (s *SQLiteStore) ListStations(ctx context.Context) ([]*models.Station, error) {
	query := `
		SELECT id, name, location, latitude, longitude, elevation, active, created_at, updated_at
		FROM stations
		ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	var stations []*models.Station
	for rows.Next() {
		station, err := s.scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan station: %w", err)
		}
		stations = append(stations, station)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return stations, nil
}

// UpdateStation updates the metadata of an existing station
func (s *SQLiteStore) UpdateStation(ctx context.Context, station *models.Station) error {
	query := `
		UPDATE stations
		SET name = ?, location = ?, latitude = ?, longitude = ?, elevation = ?, active = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		station.Name,
		station.Location,
		station.Latitude,
		station.Longitude,
		station.Elevation,
		station.Active,
		station.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update station: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	s.logger.Info().Str("station_id", station.ID).Msg("Station updated")
	return nil
}

// DeleteStation removes a station record. Historical readings referencing
// the station are left in place, orphaned by design.
func (s *SQLiteStore) DeleteStation(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM stations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete station: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	s.logger.Info().Str("station_id", id).Msg("Station deleted")
	return nil
}

// UpsertReadings writes a batch of readings in a single transaction using
// insert-or-replace semantics keyed on (station_id, date, time). A reading
// matching an existing key overwrites all sensor columns of that row, so a
// channel absent from the new reading becomes NULL rather than keeping a
// stale value.
func (s *SQLiteStore) UpsertReadings(ctx context.Context, readings []*models.Reading) error {
	if len(readings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO readings (
			station_id, date, time,
			temperature, humidity, precipitation, wind_speed, wind_direction,
			pressure, solar_radiation, eto, rain_duration
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(station_id, date, time) DO UPDATE SET
			temperature = excluded.temperature,
			humidity = excluded.humidity,
			precipitation = excluded.precipitation,
			wind_speed = excluded.wind_speed,
			wind_direction = excluded.wind_direction,
			pressure = excluded.pressure,
			solar_radiation = excluded.solar_radiation,
			eto = excluded.eto,
			rain_duration = excluded.rain_duration,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range readings {
		_, err := stmt.ExecContext(ctx,
			r.StationID,
			r.Date,
			r.Time,
			r.Temperature,
			r.Humidity,
			r.Precipitation,
			r.WindSpeed,
			r.WindDirection,
			r.Pressure,
			r.SolarRadiation,
			r.ETo,
			r.RainDuration,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert reading in batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug().Int("count", len(readings)).Msg("Batch upsert completed")
	return nil
}

// DeleteReadings removes all readings for one station, or every reading in
// the database when stationID is empty. It returns the number of rows
// removed. The station record itself is untouched.
func (s *SQLiteStore) DeleteReadings(ctx context.Context, stationID string) (int64, error) {
	var result sql.Result
	var err error
	if stationID == "" {
		result, err = s.db.ExecContext(ctx, "DELETE FROM readings")
	} else {
		result, err = s.db.ExecContext(ctx, "DELETE FROM readings WHERE station_id = ?", stationID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to delete readings: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	s.logger.Info().Str("station_id", stationID).Int64("deleted", deleted).Msg("Readings deleted")
	return deleted, nil
}

// GetReadings returns readings for a station ordered by date and time.
// startDate and endDate are canonical YYYY-MM-DD strings and may be empty to
// leave that end of the range open.
func (s *SQLiteStore) GetReadings(ctx context.Context, stationID, startDate, endDate string, limit int) ([]*models.Reading, error) {
	query := `
		SELECT station_id, date, time,
		       temperature, humidity, precipitation, wind_speed, wind_direction,
		       pressure, solar_radiation, eto, rain_duration
		FROM readings
		WHERE station_id = ?
	`
	args := []interface{}{stationID}

	if startDate != "" {
		query += " AND date >= ?"
		args = append(args, startDate)
	}
	if endDate != "" {
		query += " AND date <= ?"
		args = append(args, endDate)
	}

	query += " ORDER BY date, time LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	return s.scanReadings(rows)
}

// GetLatestReading returns the most recent reading for a station, or nil if
// the station has no readings
func (s *SQLiteStore) GetLatestReading(ctx context.Context, stationID string) (*models.Reading, error) {
	query := `
		SELECT station_id, date, time,
		       temperature, humidity, precipitation, wind_speed, wind_direction,
		       pressure, solar_radiation, eto, rain_duration
		FROM readings
		WHERE station_id = ?
		ORDER BY date DESC, time DESC
		LIMIT 1
	`

	reading, err := s.scanReading(s.db.QueryRowContext(ctx, query, stationID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest reading: %w", err)
	}
	return reading, nil
}

// GetDailyStats returns per-day aggregates for a station within a date range
func (s *SQLiteStore) GetDailyStats(ctx context.Context, stationID, startDate, endDate string) ([]DailyStat, error) {
	query := `
		SELECT date, station_id,
		       MIN(temperature), MAX(temperature), AVG(temperature),
		       AVG(humidity),
		       SUM(precipitation),
		       AVG(solar_radiation),
		       COUNT(*)
		FROM readings
		WHERE station_id = ?
	`
	args := []interface{}{stationID}

	if startDate != "" {
		query += " AND date >= ?"
		args = append(args, startDate)
	}
	if endDate != "" {
		query += " AND date <= ?"
		args = append(args, endDate)
	}

	query += " GROUP BY date ORDER BY date"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}
	defer rows.Close()

	var stats []DailyStat
	for rows.Next() {
		var stat DailyStat
		err := rows.Scan(
			&stat.Date,
			&stat.StationID,
			&stat.MinTemperature,
			&stat.MaxTemperature,
			&stat.AvgTemperature,
			&stat.AvgHumidity,
			&stat.PrecipitationSum,
			&stat.AvgSolar,
			&stat.ReadingCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily stat: %w", err)
		}
		stats = append(stats, stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return stats, nil
}

// GetStorageStats returns statistics about the database
func (s *SQLiteStore) GetStorageStats(ctx context.Context) (*StorageStats, error) {
	stats := &StorageStats{}

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM readings").Scan(&stats.TotalReadings)
	if err != nil {
		return nil, fmt.Errorf("failed to count readings: %w", err)
	}

	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM stations").Scan(&stats.TotalStations)
	if err != nil {
		return nil, fmt.Errorf("failed to count stations: %w", err)
	}

	if stats.TotalReadings > 0 {
		err = s.db.QueryRowContext(ctx, "SELECT MIN(date), MAX(date) FROM readings").
			Scan(&stats.OldestDate, &stats.NewestDate)
		if err != nil {
			return nil, fmt.Errorf("failed to get date range: %w", err)
		}
	}

	var pageCount, pageSize int64
	s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
	stats.DatabaseSizeMB = float64(pageCount*pageSize) / (1024 * 1024)

	return stats, nil
}

// scanStation is a helper to scan a row into a Station struct
func (s *SQLiteStore) scanStation(row interface{ Scan(...interface{}) error }) (*models.Station, error) {
	var st models.Station
	var createdAt, updatedAt string

	err := row.Scan(&st.ID, &st.Name, &st.Location, &st.Latitude, &st.Longitude,
		&st.Elevation, &st.Active, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	st.CreatedAt, _ = s.parseTimestamp(createdAt)
	st.UpdatedAt, _ = s.parseTimestamp(updatedAt)

	return &st, nil
}

// scanReading is a helper to scan a row into a Reading struct
func (s *SQLiteStore) scanReading(row interface{ Scan(...interface{}) error }) (*models.Reading, error) {
	var r models.Reading
	err := row.Scan(
		&r.StationID, &r.Date, &r.Time,
		&r.Temperature, &r.Humidity, &r.Precipitation, &r.WindSpeed, &r.WindDirection,
		&r.Pressure, &r.SolarRadiation, &r.ETo, &r.RainDuration,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// scanReadings scans multiple rows into a slice of readings
func (s *SQLiteStore) scanReadings(rows *sql.Rows) ([]*models.Reading, error) {
	var readings []*models.Reading

	for rows.Next() {
		reading, err := s.scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, reading)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return readings, nil
}

// parseTimestamp tries multiple formats to parse a SQLite timestamp
func (s *SQLiteStore) parseTimestamp(ts string) (time.Time, error) {
	formats := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, ts); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", ts)
}

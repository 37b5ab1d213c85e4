package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cretemeteo/meteo-monitor/internal/models"
)

// Precondition failures that fail the whole import with nothing persisted.
var (
	ErrStationNotFound = errors.New("station not found")
	ErrEmptyCSV        = errors.New("csv must contain at least a header and one data row")
	ErrNoValidReadings = errors.New("no valid readings found in csv")
)

// DefaultBatchSize is the number of readings submitted to the store per
// upsert call.
const DefaultBatchSize = 100

// Store is the persistence surface the importer needs. UpsertReadings must
// use insert-or-replace semantics keyed on (station_id, date, time).
type Store interface {
	GetStation(ctx context.Context, id string) (*models.Station, error)
	UpsertReadings(ctx context.Context, readings []*models.Reading) error
}

// Importer runs CSV submissions against the readings store. It keeps no
// state between calls; each Import is a single unit of work.
type Importer struct {
	store     Store
	batchSize int
	logger    zerolog.Logger
}

// New creates an importer. A non-positive batchSize falls back to
// DefaultBatchSize.
func New(store Store, batchSize int, logger zerolog.Logger) *Importer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Importer{
		store:     store,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Import parses the raw CSV text and upserts the resulting readings for the
// given station in fixed-size batches.
//
// The station must already exist; the importer never creates stations from
// file contents. Rows that fail to parse are counted as skipped and dropped.
// A batch that fails to persist charges all of its rows to the error tally
// and does not abort the remaining batches. If no row at all survives
// parsing the import fails as a whole and nothing is written.
func (im *Importer) Import(ctx context.Context, stationID, csvData string) (*models.ImportSummary, error) {
	station, err := im.store.GetStation(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve station: %w", err)
	}
	if station == nil {
		return nil, ErrStationNotFound
	}

	lines := strings.Split(strings.TrimSpace(csvData), "\n")
	if len(lines) < 2 {
		return nil, ErrEmptyCSV
	}

	headers := SplitLine(lines[0])
	im.logger.Debug().
		Str("station_id", station.ID).
		Int("columns", len(headers)).
		Int("lines", len(lines)-1).
		Msg("Parsing CSV")

	readings := make([]*models.Reading, 0, len(lines)-1)
	skipped := 0
	for _, line := range lines[1:] {
		row := SplitLine(line)
		reading, ok := MapRow(headers, row)
		if !ok {
			skipped++
			continue
		}
		reading.StationID = station.ID
		readings = append(readings, reading)
	}

	if len(readings) == 0 {
		return nil, ErrNoValidReadings
	}

	inserted := 0
	failed := 0
	for start := 0; start < len(readings); start += im.batchSize {
		end := min(start+im.batchSize, len(readings))
		batch := readings[start:end]

		if err := im.store.UpsertReadings(ctx, batch); err != nil {
			// Error accounting is batch-grained: every row in the failing
			// batch counts, and later batches still run.
			failed += len(batch)
			im.logger.Error().Err(err).Int("batch_size", len(batch)).Msg("Failed to upsert batch")
			continue
		}
		inserted += len(batch)
	}

	summary := &models.ImportSummary{
		Success:   true,
		Message:   fmt.Sprintf("Successfully imported %d readings for station %s", inserted, station.Name),
		TotalRows: len(readings),
		Inserted:  inserted,
		Errors:    failed,
		Skipped:   skipped,
	}

	im.logger.Info().
		Str("station_id", station.ID).
		Int("total_rows", summary.TotalRows).
		Int("inserted", inserted).
		Int("errors", failed).
		Int("skipped", skipped).
		Msg("Import completed")

	return summary, nil
}

package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cretemeteo/meteo-monitor/internal/models"
)

// fakeStore implements Store against an in-memory map keyed on
// (station_id, date, time), mirroring the upsert semantics of the real store.
type fakeStore struct {
	stations    map[string]*models.Station
	readings    map[string]*models.Reading
	batchSizes  []int
	failBatches map[int]bool // batch index -> fail
}

func newFakeStore(stations ...*models.Station) *fakeStore {
	fs := &fakeStore{
		stations:    make(map[string]*models.Station),
		readings:    make(map[string]*models.Reading),
		failBatches: make(map[int]bool),
	}
	for _, s := range stations {
		fs.stations[s.ID] = s
	}
	return fs
}

func (fs *fakeStore) GetStation(_ context.Context, id string) (*models.Station, error) {
	return fs.stations[id], nil
}

func (fs *fakeStore) UpsertReadings(_ context.Context, readings []*models.Reading) error {
	batchIndex := len(fs.batchSizes)
	fs.batchSizes = append(fs.batchSizes, len(readings))
	if fs.failBatches[batchIndex] {
		return errors.New("simulated store failure")
	}
	for _, r := range readings {
		fs.readings[r.Key()] = r.Copy()
	}
	return nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zerolog.Disabled)
}

func testStation() *models.Station {
	return &models.Station{ID: "st-01", Name: "Tympaki", Active: true}
}

func TestImport_HappyPath(t *testing.T) {
	store := newFakeStore(testStation())
	im := New(store, 0, testLogger())

	csv := "Date,Time,M05 Temperature (AVG),M05 Precipitation (SUM)\n" +
		"01/05/2024,14:30,22.5,0.0\n" +
		"01/05/2024,15:00,23.1,*\n"

	summary, err := im.Import(context.Background(), "st-01", csv)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if summary.TotalRows != 2 || summary.Inserted != 2 || summary.Errors != 0 || summary.Skipped != 0 {
		t.Errorf("summary = %+v, want totalRows=2 inserted=2 errors=0 skipped=0", summary)
	}
	if !summary.Success {
		t.Error("expected Success = true")
	}

	r, ok := store.readings["st-01|2024-05-01|14:30:00"]
	if !ok {
		t.Fatal("expected first reading stored under canonical key")
	}
	if r.Temperature == nil || *r.Temperature != 22.5 {
		t.Errorf("Temperature = %v, want 22.5", r.Temperature)
	}
	if r.Precipitation == nil || *r.Precipitation != 0.0 {
		t.Errorf("Precipitation = %v, want 0.0 (zero is a value)", r.Precipitation)
	}

	second := store.readings["st-01|2024-05-01|15:00:00"]
	if second == nil {
		t.Fatal("expected second reading stored")
	}
	if second.Precipitation != nil {
		t.Errorf("Precipitation = %v, want nil for '*'", second.Precipitation)
	}
}

func TestImport_StationNotFound(t *testing.T) {
	store := newFakeStore()
	im := New(store, 0, testLogger())

	_, err := im.Import(context.Background(), "missing", "Date,Time\n01/05/2024,14:30\n")
	if !errors.Is(err, ErrStationNotFound) {
		t.Fatalf("expected ErrStationNotFound, got %v", err)
	}
	if len(store.readings) != 0 {
		t.Error("store must stay unmodified on precondition failure")
	}
}

func TestImport_TooShortCSV(t *testing.T) {
	store := newFakeStore(testStation())
	im := New(store, 0, testLogger())

	for _, csv := range []string{"", "Date,Time", "Date,Time\n"} {
		_, err := im.Import(context.Background(), "st-01", csv)
		if !errors.Is(err, ErrEmptyCSV) {
			t.Errorf("Import(%q): expected ErrEmptyCSV, got %v", csv, err)
		}
	}
}

func TestImport_NoValidReadings(t *testing.T) {
	store := newFakeStore(testStation())
	im := New(store, 0, testLogger())

	// Every data row is malformed: too few fields or empty date.
	csv := "Date,Time,Temperature\nonlyonefield\n,14:30,22.5\n"

	_, err := im.Import(context.Background(), "st-01", csv)
	if !errors.Is(err, ErrNoValidReadings) {
		t.Fatalf("expected ErrNoValidReadings, got %v", err)
	}
	if len(store.readings) != 0 {
		t.Error("store must stay unmodified when zero rows survive parsing")
	}
}

func TestImport_SkippedRowsCounted(t *testing.T) {
	store := newFakeStore(testStation())
	im := New(store, 0, testLogger())

	csv := "Date,Time,Temperature\n01/05/2024,14:30,22.5\nmalformed\n"

	summary, err := im.Import(context.Background(), "st-01", csv)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if summary.Inserted != 1 || summary.Skipped != 1 || summary.Errors != 0 {
		t.Errorf("summary = %+v, want inserted=1 skipped=1 errors=0", summary)
	}
}

func TestImport_BatchSplitting(t *testing.T) {
	store := newFakeStore(testStation())
	im := New(store, 2, testLogger())

	csv := "Date,Time,Temperature\n"
	for i := 0; i < 5; i++ {
		csv += fmt.Sprintf("01/05/2024,%02d:00,20.0\n", i)
	}

	summary, err := im.Import(context.Background(), "st-01", csv)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if summary.Inserted != 5 {
		t.Errorf("Inserted = %d, want 5", summary.Inserted)
	}

	expected := []int{2, 2, 1}
	if len(store.batchSizes) != len(expected) {
		t.Fatalf("batch count = %d, want %d", len(store.batchSizes), len(expected))
	}
	for i, size := range expected {
		if store.batchSizes[i] != size {
			t.Errorf("batch %d size = %d, want %d", i, store.batchSizes[i], size)
		}
	}
}

func TestImport_FailingBatchDoesNotAbort(t *testing.T) {
	store := newFakeStore(testStation())
	store.failBatches[0] = true
	im := New(store, 2, testLogger())

	csv := "Date,Time,Temperature\n"
	for i := 0; i < 5; i++ {
		csv += fmt.Sprintf("01/05/2024,%02d:00,20.0\n", i)
	}

	summary, err := im.Import(context.Background(), "st-01", csv)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	// First batch of 2 fails wholesale, remaining 3 rows insert.
	if summary.Errors != 2 {
		t.Errorf("Errors = %d, want 2", summary.Errors)
	}
	if summary.Inserted != 3 {
		t.Errorf("Inserted = %d, want 3", summary.Inserted)
	}
	if summary.TotalRows != 5 {
		t.Errorf("TotalRows = %d, want 5", summary.TotalRows)
	}
}

func TestImport_Reimport_Overwrites(t *testing.T) {
	store := newFakeStore(testStation())
	im := New(store, 0, testLogger())

	first := "Date,Time,Temperature\n01/05/2024,14:30,20\n"
	if _, err := im.Import(context.Background(), "st-01", first); err != nil {
		t.Fatalf("first import failed: %v", err)
	}

	second := "Date,Time,Temperature\n01/05/2024,14:30,22\n"
	if _, err := im.Import(context.Background(), "st-01", second); err != nil {
		t.Fatalf("second import failed: %v", err)
	}

	if len(store.readings) != 1 {
		t.Fatalf("reading count = %d, want 1 (upsert, not duplicate)", len(store.readings))
	}
	r := store.readings["st-01|2024-05-01|14:30:00"]
	if r.Temperature == nil || *r.Temperature != 22 {
		t.Errorf("Temperature = %v, want 22 after re-import", r.Temperature)
	}
}

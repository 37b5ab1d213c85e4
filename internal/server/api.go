package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cretemeteo/meteo-monitor/internal/importer"
	"github.com/cretemeteo/meteo-monitor/internal/models"
)

const defaultReadingsLimit = 1000

// APIHandler handles HTTP API requests for the dashboard
type APIHandler struct {
	store       Store
	importer    ImportRunner
	hub         *Hub
	authToken   string
	maxCSVBytes int64
	logger      zerolog.Logger
}

// NewAPIHandler creates a new API handler. hub may be nil when live events
// are disabled.
func NewAPIHandler(store Store, imp ImportRunner, hub *Hub, authToken string, maxCSVBytes int64, logger zerolog.Logger) *APIHandler {
	return &APIHandler{
		store:       store,
		importer:    imp,
		hub:         hub,
		authToken:   authToken,
		maxCSVBytes: maxCSVBytes,
		logger:      logger,
	}
}

// Register attaches all API routes to the mux
func (api *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/import", api.requireAuth(api.HandleImport))

	mux.HandleFunc("GET /api/stations", api.HandleListStations)
	mux.HandleFunc("POST /api/stations", api.requireAuth(api.HandleCreateStation))
	mux.HandleFunc("GET /api/stations/{id}", api.HandleGetStation)
	mux.HandleFunc("PUT /api/stations/{id}", api.requireAuth(api.HandleUpdateStation))
	mux.HandleFunc("DELETE /api/stations/{id}", api.requireAuth(api.HandleDeleteStation))

	mux.HandleFunc("GET /api/readings", api.HandleReadings)
	mux.HandleFunc("DELETE /api/readings", api.requireAuth(api.HandleDeleteReadings))
	mux.HandleFunc("GET /api/readings/latest", api.HandleLatestReading)
	mux.HandleFunc("GET /api/daily/stats", api.HandleDailyStats)
	mux.HandleFunc("GET /api/stats", api.HandleStats)
	mux.HandleFunc("GET /health", api.HandleHealth)
}

// requireAuth wraps mutating handlers with a bearer token check
func (api *APIHandler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token != api.authToken {
			api.writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r)
	}
}

// importRequest is the body of POST /api/import. StationName is
// informational only; the station is resolved by ID.
type importRequest struct {
	StationID   string `json:"stationId"`
	StationName string `json:"stationName,omitempty"`
	CSVData     string `json:"csvData"`
}

// HandleImport runs one CSV submission
func (api *APIHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, api.maxCSVBytes)
	defer body.Close()

	var req importRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if errors.As(err, new(*http.MaxBytesError)) {
			api.writeError(w, http.StatusRequestEntityTooLarge, "CSV payload too large")
			return
		}
		api.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.StationID == "" || req.CSVData == "" {
		api.writeError(w, http.StatusBadRequest, "Station id and CSV data are required")
		return
	}

	summary, err := api.importer.Import(r.Context(), req.StationID, req.CSVData)
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrStationNotFound):
			api.writeError(w, http.StatusNotFound, "Station not found")
		case errors.Is(err, importer.ErrEmptyCSV):
			api.writeError(w, http.StatusBadRequest, "CSV must contain at least header and one data row")
		case errors.Is(err, importer.ErrNoValidReadings):
			api.writeError(w, http.StatusBadRequest, "No valid readings found in CSV")
		default:
			api.logger.Error().Err(err).Str("station_id", req.StationID).Msg("Import failed")
			api.writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	api.broadcast(models.EventImportCompleted, models.ImportCompletedEvent{
		StationID:   req.StationID,
		StationName: req.StationName,
		Summary:     *summary,
	})

	api.writeJSON(w, http.StatusOK, summary)
}

// HandleListStations returns all stations
func (api *APIHandler) HandleListStations(w http.ResponseWriter, r *http.Request) {
	stations, err := api.store.ListStations(r.Context())
	if err != nil {
		api.logger.Error().Err(err).Msg("Failed to list stations")
		api.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if stations == nil {
		stations = []*models.Station{}
	}
	api.writeJSON(w, http.StatusOK, stations)
}

// stationRequest is the body of POST /api/stations and PUT /api/stations/{id}
type stationRequest struct {
	Name      string   `json:"name"`
	Location  string   `json:"location"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Elevation *float64 `json:"elevation"`
	Active    *bool    `json:"active"`
}

// HandleCreateStation creates a new station
func (api *APIHandler) HandleCreateStation(w http.ResponseWriter, r *http.Request) {
	var req stationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	station := models.NewStation(req.Name, req.Location,
		floatOrZero(req.Latitude), floatOrZero(req.Longitude), floatOrZero(req.Elevation))
	if req.Active != nil {
		station.Active = *req.Active
	}

	if err := station.Validate(); err != nil {
		api.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := api.store.CreateStation(r.Context(), station); err != nil {
		api.logger.Error().Err(err).Msg("Failed to create station")
		api.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	api.broadcast(models.EventStationCreated, models.StationEvent{StationID: station.ID, Name: station.Name})
	api.writeJSON(w, http.StatusCreated, station)
}

// HandleGetStation returns a single station by ID
func (api *APIHandler) HandleGetStation(w http.ResponseWriter, r *http.Request) {
	station, ok := api.fetchStation(w, r)
	if !ok {
		return
	}
	api.writeJSON(w, http.StatusOK, station)
}

// HandleUpdateStation applies a partial update to an existing station
func (api *APIHandler) HandleUpdateStation(w http.ResponseWriter, r *http.Request) {
	station, ok := api.fetchStation(w, r)
	if !ok {
		return
	}

	var req stationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name != "" {
		station.Name = req.Name
	}
	if req.Location != "" {
		station.Location = req.Location
	}
	if req.Latitude != nil {
		station.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		station.Longitude = *req.Longitude
	}
	if req.Elevation != nil {
		station.Elevation = *req.Elevation
	}
	if req.Active != nil {
		station.Active = *req.Active
	}

	if err := station.Validate(); err != nil {
		api.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := api.store.UpdateStation(r.Context(), station); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			api.writeError(w, http.StatusNotFound, "Station not found")
			return
		}
		api.logger.Error().Err(err).Str("station_id", station.ID).Msg("Failed to update station")
		api.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	api.broadcast(models.EventStationUpdated, models.StationEvent{StationID: station.ID, Name: station.Name})
	api.writeJSON(w, http.StatusOK, station)
}

// HandleDeleteStation removes a station. Its readings remain.
func (api *APIHandler) HandleDeleteStation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := api.store.DeleteStation(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			api.writeError(w, http.StatusNotFound, "Station not found")
			return
		}
		api.logger.Error().Err(err).Str("station_id", id).Msg("Failed to delete station")
		api.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	api.broadcast(models.EventStationDeleted, models.StationEvent{StationID: id})
	w.WriteHeader(http.StatusNoContent)
}

// HandleReadings returns readings for a station and optional date range
func (api *APIHandler) HandleReadings(w http.ResponseWriter, r *http.Request) {
	stationID := r.URL.Query().Get("station_id")
	if stationID == "" {
		api.writeError(w, http.StatusBadRequest, "station_id is required")
		return
	}

	limit := defaultReadingsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	readings, err := api.store.GetReadings(r.Context(), stationID,
		r.URL.Query().Get("start"), r.URL.Query().Get("end"), limit)
	if err != nil {
		api.logger.Error().Err(err).Str("station_id", stationID).Msg("Failed to query readings")
		api.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if readings == nil {
		readings = []*models.Reading{}
	}
	api.writeJSON(w, http.StatusOK, readings)
}

// HandleDeleteReadings clears historical readings. The target is either one
// station, selected by station_id or resolved from station_name, or the
// entire readings table when neither parameter is given. Station records are
// never touched.
func (api *APIHandler) HandleDeleteReadings(w http.ResponseWriter, r *http.Request) {
	stationID := r.URL.Query().Get("station_id")

	if name := r.URL.Query().Get("station_name"); stationID == "" && name != "" {
		station, err := api.store.GetStationByName(r.Context(), name)
		if err != nil {
			api.logger.Error().Err(err).Str("name", name).Msg("Failed to resolve station by name")
			api.writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if station == nil {
			api.writeError(w, http.StatusNotFound, "Station not found")
			return
		}
		stationID = station.ID
	}

	deleted, err := api.store.DeleteReadings(r.Context(), stationID)
	if err != nil {
		api.logger.Error().Err(err).Str("station_id", stationID).Msg("Failed to delete readings")
		api.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	api.broadcast(models.EventReadingsCleared, models.ReadingsClearedEvent{
		StationID: stationID,
		Deleted:   deleted,
	})
	api.writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// HandleLatestReading returns the most recent reading for a station
func (api *APIHandler) HandleLatestReading(w http.ResponseWriter, r *http.Request) {
	stationID := r.URL.Query().Get("station_id")
	if stationID == "" {
		api.writeError(w, http.StatusBadRequest, "station_id is required")
		return
	}

	reading, err := api.store.GetLatestReading(r.Context(), stationID)
	if err != nil {
		api.logger.Error().Err(err).Str("station_id", stationID).Msg("Failed to query latest reading")
		api.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if reading == nil {
		api.writeError(w, http.StatusNotFound, "No readings available")
		return
	}
	api.writeJSON(w, http.StatusOK, reading)
}

// HandleDailyStats returns per-day aggregates for charting
func (api *APIHandler) HandleDailyStats(w http.ResponseWriter, r *http.Request) {
	stationID := r.URL.Query().Get("station_id")
	if stationID == "" {
		api.writeError(w, http.StatusBadRequest, "station_id is required")
		return
	}

	stats, err := api.store.GetDailyStats(r.Context(), stationID,
		r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		api.logger.Error().Err(err).Str("station_id", stationID).Msg("Failed to query daily stats")
		api.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	api.writeJSON(w, http.StatusOK, stats)
}

// HandleStats returns database statistics
func (api *APIHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := api.store.GetStorageStats(r.Context())
	if err != nil {
		api.logger.Error().Err(err).Msg("Failed to query storage stats")
		api.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	api.writeJSON(w, http.StatusOK, stats)
}

// HandleHealth is the liveness endpoint
func (api *APIHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (api *APIHandler) fetchStation(w http.ResponseWriter, r *http.Request) (*models.Station, bool) {
	id := r.PathValue("id")
	station, err := api.store.GetStation(r.Context(), id)
	if err != nil {
		api.logger.Error().Err(err).Str("station_id", id).Msg("Failed to get station")
		api.writeError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	if station == nil {
		api.writeError(w, http.StatusNotFound, "Station not found")
		return nil, false
	}
	return station, true
}

func (api *APIHandler) broadcast(eventType models.EventType, payload interface{}) {
	if api.hub == nil {
		return
	}
	api.hub.Broadcast(eventType, payload)
}

func (api *APIHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		api.logger.Warn().Err(err).Msg("Failed to encode response")
	}
}

func (api *APIHandler) writeError(w http.ResponseWriter, status int, message string) {
	api.writeJSON(w, status, map[string]string{"error": message})
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

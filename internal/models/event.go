package models

import (
	"encoding/json"
	"time"
)

// EventType represents the type of dashboard event
type EventType string

const (
	EventImportCompleted EventType = "import_completed"
	EventStationCreated  EventType = "station_created"
	EventStationUpdated  EventType = "station_updated"
	EventStationDeleted  EventType = "station_deleted"
	EventReadingsCleared EventType = "readings_cleared"
)

// Event is the envelope for all WebSocket notifications pushed to connected
// dashboards.
type Event struct {
	Type      EventType       `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent creates a new event with the given type and payload
func NewEvent(eventType EventType, payload interface{}) (*Event, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Payload:   payloadJSON,
		Timestamp: time.Now(),
	}, nil
}

// UnmarshalPayload unmarshals the event payload into the provided struct
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// ImportCompletedEvent is the payload for EventImportCompleted
type ImportCompletedEvent struct {
	StationID   string        `json:"station_id"`
	StationName string        `json:"station_name"`
	Summary     ImportSummary `json:"summary"`
}

// StationEvent is the payload for the station lifecycle events
type StationEvent struct {
	StationID string `json:"station_id"`
	Name      string `json:"name"`
}

// ReadingsClearedEvent is the payload for EventReadingsCleared. An empty
// StationID means the clear spanned all stations.
type ReadingsClearedEvent struct {
	StationID string `json:"station_id,omitempty"`
	Deleted   int64  `json:"deleted"`
}

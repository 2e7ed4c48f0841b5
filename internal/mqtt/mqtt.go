// Package mqtt publishes dashboard telemetry and lifecycle events, with a
// fake for tests.
package mqtt

import (
	"encoding/json"
	"math"
	"time"

	"github.com/sweeney/motodash/internal/acquisition"
)

// TopicTelemetry carries periodic vehicle telemetry.
const TopicTelemetry = "motodash/telemetry"

// TopicSystem carries lifecycle events.
const TopicSystem = "motodash/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a telemetry sample. Failures are returned, never fatal.
	Publish(t Telemetry) error

	// PublishSystem sends a lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Telemetry is one periodic report of acquired state.
type Telemetry struct {
	Timestamp time.Time
	Snap      acquisition.Snapshot
}

// SystemEvent is a lifecycle event (STARTUP, SHUTDOWN, HEARTBEAT, RECONNECTED).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // SIGTERM, SIGINT, MQTT_DISCONNECT
	RawPayload []byte // pre-formatted JSON; if set, FormatSystemPayload returns it as is
	Retained   bool
}

// Payload is the telemetry message.
type Payload struct {
	Telemetry TelemetryPayload `json:"telemetry"`
}

// TelemetryPayload holds one report. Pointer fields are omitted while the
// underlying value is unknown.
type TelemetryPayload struct {
	Timestamp  string   `json:"timestamp"`
	State      string   `json:"state"`
	Session    string   `json:"session,omitempty"`
	RPM        *int     `json:"rpm,omitempty"`
	PeakRPM    int      `json:"peak_rpm"`
	SpeedKmph  *float64 `json:"speed_kmph,omitempty"`
	Lat        *float64 `json:"lat,omitempty"`
	Lng        *float64 `json:"lng,omitempty"`
	AltitudeM  *float64 `json:"altitude_m,omitempty"`
	Satellites *int     `json:"satellites,omitempty"`
	TripM      float64  `json:"trip_m"`
	LocalTime  string   `json:"local_time,omitempty"`
	Samples    int      `json:"samples"`
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// FormatPayload creates the JSON payload for a telemetry report.
func FormatPayload(t Telemetry) ([]byte, error) {
	s := t.Snap
	p := TelemetryPayload{
		Timestamp: t.Timestamp.UTC().Format(time.RFC3339),
		State:     s.State.String(),
		Session:   s.Session,
		PeakRPM:   int(s.PeakRPM),
		TripM:     round(s.TripMeters, 1),
		Samples:   s.HistoryLen,
	}
	if s.RPMKnown {
		rpm := int(s.RPM)
		p.RPM = &rpm
	}
	if s.Fix.SpeedValid {
		v := round(s.Fix.SpeedKmph, 1)
		p.SpeedKmph = &v
	}
	if s.Fix.LocationValid {
		lat, lng := round(s.Fix.Lat, 6), round(s.Fix.Lng, 6)
		p.Lat, p.Lng = &lat, &lng
	}
	if s.Fix.AltitudeValid {
		v := round(s.Fix.AltitudeM, 1)
		p.AltitudeM = &v
	}
	if s.Fix.SatellitesValid {
		n := s.Fix.Satellites
		p.Satellites = &n
	}
	if s.TimeKnown {
		p.LocalTime = s.LocalTime.Format("15:04:05")
	}
	return json.Marshal(Payload{Telemetry: p})
}

// SystemPayload is the message for simple lifecycle events (will message,
// RECONNECTED) that carry no status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

package status

import (
	"encoding/json"
	"math"
	"time"

	"github.com/sweeney/motodash/internal/gpio"
	"github.com/sweeney/motodash/internal/settings"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string          `json:"event,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	Version       string          `json:"version"`
	Screen        string          `json:"screen"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	StartTime     string          `json:"start_time"`
	Timestamp     string          `json:"timestamp"`
	Acquisition   AcqJSON         `json:"acquisition"`
	GPS           GPSJSON         `json:"gps"`
	Buttons       map[string]int  `json:"buttons"`
	Settings      settings.Record `json:"settings"`
	LEDs          LEDsJSON        `json:"leds"`
	MQTT          MQTTStatus      `json:"mqtt"`
	Network       *NetworkJSON    `json:"network,omitempty"`
	Config        ConfigJSON      `json:"config"`
}

// AcqJSON reports acquired vehicle state. Unknown readings are omitted.
type AcqJSON struct {
	State          string   `json:"state"`
	Session        string   `json:"session,omitempty"`
	RPM            *int     `json:"rpm,omitempty"`
	PeakRPM        int      `json:"peak_rpm"`
	SpeedKmph      *float64 `json:"speed_kmph,omitempty"`
	Lat            *float64 `json:"lat,omitempty"`
	Lng            *float64 `json:"lng,omitempty"`
	AltitudeM      *float64 `json:"altitude_m,omitempty"`
	Satellites     *int     `json:"satellites,omitempty"`
	TripM          float64  `json:"trip_m"`
	LocalTime      string   `json:"local_time,omitempty"`
	Samples        int      `json:"samples"`
	SampleCapacity int      `json:"sample_capacity"`
	SamplesDropped int      `json:"samples_dropped"`
}

// GPSJSON reports the receiver link.
type GPSJSON struct {
	Sentences int    `json:"sentences"`
	Failures  int    `json:"failures"`
	LastError string `json:"last_error,omitempty"`
}

// LEDsJSON reports the shift light strip.
type LEDsJSON struct {
	Lit        int      `json:"lit"`
	Brightness int      `json:"brightness"`
	Colors     []string `json:"colors"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	SampleMs    int64  `json:"sample_ms"`
	TelemetryMs int64  `json:"telemetry_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	WSBroker    string `json:"ws_broker,omitempty"`
	GPSDevice   string `json:"gps_device,omitempty"`
}

func buildAcq(snap Snapshot) AcqJSON {
	a := snap.Acq
	out := AcqJSON{
		State:          a.State.String(),
		Session:        a.Session,
		PeakRPM:        int(a.PeakRPM),
		TripM:          math.Round(a.TripMeters*10) / 10,
		Samples:        a.HistoryLen,
		SampleCapacity: a.HistoryCap,
		SamplesDropped: a.HistoryDropped,
	}
	if a.RPMKnown {
		rpm := int(a.RPM)
		out.RPM = &rpm
	}
	if a.Fix.SpeedValid {
		v := a.Fix.SpeedKmph
		out.SpeedKmph = &v
	}
	if a.Fix.LocationValid {
		lat, lng := a.Fix.Lat, a.Fix.Lng
		out.Lat, out.Lng = &lat, &lng
	}
	if a.Fix.AltitudeValid {
		v := a.Fix.AltitudeM
		out.AltitudeM = &v
	}
	if a.Fix.SatellitesValid {
		n := a.Fix.Satellites
		out.Satellites = &n
	}
	if a.TimeKnown {
		out.LocalTime = a.LocalTime.Format("15:04:05")
	}
	return out
}

func buildLEDs(snap Snapshot) LEDsJSON {
	out := LEDsJSON{
		Lit:        snap.LEDs.Lit(),
		Brightness: snap.LEDs.Brightness,
		Colors:     make([]string, len(snap.LEDs.LEDs)),
	}
	for i, c := range snap.LEDs.LEDs {
		out.Colors[i] = c.String()
	}
	return out
}

// buildButtons keys click counts by button name.
func buildButtons(snap Snapshot) map[string]int {
	out := make(map[string]int, gpio.NumButtons)
	for b := gpio.Button(0); b < gpio.NumButtons; b++ {
		out[b.String()] = snap.Clicks[b]
	}
	return out
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Version:       settings.SoftwareVersion,
		Screen:        snap.NavState,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Acquisition:   buildAcq(snap),
		GPS:           GPSJSON{Sentences: snap.GPS.Sentences, Failures: snap.GPS.Failures, LastError: snap.GPS.LastError},
		Buttons:       buildButtons(snap),
		Settings:      snap.Settings,
		LEDs:          buildLEDs(snap),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			SampleMs:    snap.Config.SampleMs,
			TelemetryMs: snap.Config.TelemetryMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			WSBroker:    snap.Config.WSBroker,
			GPSDevice:   snap.Config.GPSDevice,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

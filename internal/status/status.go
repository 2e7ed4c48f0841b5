// Package status provides a thread-safe view of the dashboard for the web
// server and MQTT lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/motodash/internal/acquisition"
	"github.com/sweeney/motodash/internal/gps"
	"github.com/sweeney/motodash/internal/input"
	"github.com/sweeney/motodash/internal/leds"
	"github.com/sweeney/motodash/internal/settings"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	SampleMs    int64
	TelemetryMs int64
	Broker      string
	HTTPAddr    string
	WSBroker    string // websocket broker URL for browser MQTT (empty = disabled)
	GPSDevice   string
}

// Snapshot is a point-in-time view of dashboard state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Acq           acquisition.Snapshot
	Settings      settings.Record
	LEDs          leds.Frame
	NavState      string
	Clicks        input.ClickCounts
	GPS           gps.Health
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable dashboard state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			NavState:  "SPLASH",
		},
	}
}

// Update stores the state produced by one main loop tick.
func (t *Tracker) Update(acq acquisition.Snapshot, rec settings.Record, frame leds.Frame, navState string) {
	t.mu.Lock()
	t.snap.Acq = acq
	t.snap.Settings = rec
	t.snap.LEDs = frame
	t.snap.NavState = navState
	t.mu.Unlock()
}

// SetInput records the accepted click counts.
func (t *Tracker) SetInput(clicks input.ClickCounts) {
	t.mu.Lock()
	t.snap.Clicks = clicks
	t.mu.Unlock()
}

// SetGPS records the receiver link state.
func (t *Tracker) SetGPS(h gps.Health) {
	t.mu.Lock()
	t.snap.GPS = h
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the dashboard state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

// Package acquisition derives display-ready vehicle state from the RPM
// edge signal and the GPS fix: engine speed, fix lifecycle, trip distance,
// time of day and a bounded sample history.
//
// Only RPMMeter and TickFlag are touched from outside the main loop; every
// other method belongs to the main loop and takes the current time as a
// parameter.
package acquisition

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/motodash/internal/gps"
)

// State is the GPS fix lifecycle. It only moves forward.
type State int

const (
	StateIdle State = iota
	StateFirstFix
	StateRecording
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateFirstFix:
		return "FIRST_FIX"
	case StateRecording:
		return "RECORDING"
	}
	return "UNKNOWN"
}

// Config holds acquisition tuning.
type Config struct {
	RecordingDelay   time.Duration
	MinTripSpeedKmph float64
	HistoryCapacity  int
	RPMStaleAfter    time.Duration
	UTCOffset        time.Duration
	PeakDecay        float64 // RPM lost per update while below the peak
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		RecordingDelay:   20 * time.Second,
		MinTripSpeedKmph: 2.0,
		HistoryCapacity:  10000,
		RPMStaleAfter:    time.Second,
		UTCOffset:        2 * time.Hour,
		PeakDecay:        50,
	}
}

// Snapshot is a point-in-time view of acquired state.
type Snapshot struct {
	State       State
	Session     string
	FirstFixAt  time.Time
	RecordingAt time.Time

	RPM      float64
	PeakRPM  float64
	RPMKnown bool

	Fix        gps.Fix
	TripMeters float64

	LocalTime time.Time
	TimeKnown bool

	HistoryLen     int
	HistoryCap     int
	HistoryDropped int
}

// Engine owns all acquired state.
type Engine struct {
	cfg Config

	meter  RPMMeter
	sample TickFlag

	state       State
	firstFixAt  time.Time
	recordingAt time.Time
	session     string
	newSession  func() string

	fix     gps.Fix
	trip    Trip
	clock   Clock
	history *History

	rpm        float64
	peak       float64
	rpmKnown   bool
	lastEdges  uint32
	lastEdgeAt time.Time
}

// NewEngine creates an idle engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:        cfg,
		clock:      NewClock(cfg.UTCOffset),
		history:    NewHistory(cfg.HistoryCapacity),
		newSession: uuid.NewString,
	}
}

// Meter returns the RPM handoff fed by the edge handler.
func (e *Engine) Meter() *RPMMeter {
	return &e.meter
}

// SampleFlag returns the flag set by the periodic sampling timer.
func (e *Engine) SampleFlag() *TickFlag {
	return &e.sample
}

// History returns the sample log.
func (e *Engine) History() *History {
	return e.history
}

// Update runs one acquisition step with the latest fix.
func (e *Engine) Update(fix gps.Fix, now time.Time) {
	e.updateRPM(now)

	e.fix = fix
	if e.clock.Sync(fix, now) {
		t, _ := e.clock.Now(now)
		log.Printf("acquisition: clock set from gps local=%s", t.Format("2006-01-02 15:04:05"))
	}

	e.advanceState(fix, now)

	if e.state != StateIdle {
		e.trip.Update(fix, e.cfg.MinTripSpeedKmph)
	}

	if e.sample.Take() && e.state == StateRecording {
		e.history.Append(Sample{
			Lat:   fix.Lat,
			Lng:   fix.Lng,
			Alt:   fix.AltitudeM,
			Speed: fix.SpeedKmph,
		})
	}
}

func (e *Engine) advanceState(fix gps.Fix, now time.Time) {
	switch e.state {
	case StateIdle:
		if !fix.Complete() {
			return
		}
		e.state = StateFirstFix
		e.firstFixAt = now
		e.trip.Anchor(fix.Lat, fix.Lng)
		log.Printf("acquisition: first fix lat=%.6f lng=%.6f sats=%d", fix.Lat, fix.Lng, fix.Satellites)
	case StateFirstFix:
		if now.Sub(e.firstFixAt) < e.cfg.RecordingDelay {
			return
		}
		e.state = StateRecording
		e.recordingAt = now
		e.session = e.newSession()
		log.Printf("acquisition: recording started session=%s", e.session)
	}
}

func (e *Engine) updateRPM(now time.Time) {
	period, edges := e.meter.Read()
	if edges != e.lastEdges {
		e.lastEdges = edges
		e.lastEdgeAt = now
	}

	stale := edges < 2 || now.Sub(e.lastEdgeAt) > e.cfg.RPMStaleAfter
	if stale || period <= 0 {
		e.rpm = 0
		e.rpmKnown = false
	} else {
		e.rpm = RPMFromPeriod(period)
		e.rpmKnown = true
	}

	if e.rpm >= e.peak {
		e.peak = e.rpm
		return
	}
	e.peak -= e.cfg.PeakDecay
	if e.peak < e.rpm {
		e.peak = e.rpm
	}
}

// ResetTrip zeroes the trip distance.
func (e *Engine) ResetTrip() {
	e.trip.Reset()
}

// State returns the fix lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// Snapshot returns the current acquired state.
func (e *Engine) Snapshot(now time.Time) Snapshot {
	local, known := e.clock.Now(now)
	return Snapshot{
		State:          e.state,
		Session:        e.session,
		FirstFixAt:     e.firstFixAt,
		RecordingAt:    e.recordingAt,
		RPM:            e.rpm,
		PeakRPM:        e.peak,
		RPMKnown:       e.rpmKnown,
		Fix:            e.fix,
		TripMeters:     e.trip.Meters(),
		LocalTime:      local,
		TimeKnown:      known,
		HistoryLen:     e.history.Len(),
		HistoryCap:     e.history.Cap(),
		HistoryDropped: e.history.Dropped(),
	}
}

// Package gps turns the NMEA stream of the satellite receiver into a Fix
// with per-field validity. Consumers only see the Provider interface.
package gps

import "time"

// Fix is one positioning solution. Each group of fields carries its own
// validity flag; a field is meaningless while its flag is false.
type Fix struct {
	LocationValid bool
	Lat           float64 // decimal degrees
	Lng           float64 // decimal degrees

	SpeedValid bool
	SpeedKmph  float64

	AltitudeValid bool
	AltitudeM     float64

	TimeValid bool
	Hour      int
	Minute    int
	Second    int

	DateValid bool
	Day       int
	Month     int
	Year      int

	SatellitesValid bool
	Satellites      int
}

// Complete reports whether every field group is valid at once.
func (f Fix) Complete() bool {
	return f.LocationValid && f.DateValid && f.TimeValid &&
		f.AltitudeValid && f.SpeedValid && f.SatellitesValid
}

// UTC returns the receiver's date and time, if both are valid.
func (f Fix) UTC() (time.Time, bool) {
	if !f.DateValid || !f.TimeValid {
		return time.Time{}, false
	}
	return time.Date(f.Year, time.Month(f.Month), f.Day, f.Hour, f.Minute, f.Second, 0, time.UTC), true
}

// Health summarises the receiver link: decoded and rejected sentences and
// the most recent read or decode error.
type Health struct {
	Sentences int
	Failures  int
	LastError string
}

// Provider exposes the latest fix and the state of the link.
type Provider interface {
	Fix() Fix
	Health() Health
}

// FakeProvider is a test double returning a settable fix.
type FakeProvider struct {
	Current Fix
	Link    Health
}

// Health returns the configured link state.
func (p *FakeProvider) Health() Health {
	return p.Link
}

// Fix returns the current fix.
func (p *FakeProvider) Fix() Fix {
	return p.Current
}

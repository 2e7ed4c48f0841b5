package gps

import (
	"fmt"

	nmea "github.com/adrianmo/go-nmea"
)

const knotsToKmph = 1.852

// Decoder folds NMEA sentences into a Fix. Validity latches: once a field
// group has been reported valid it keeps its last good value.
type Decoder struct {
	fix       Fix
	sentences int
	failures  int
}

// Feed decodes one sentence. It reports whether the fix changed.
func (d *Decoder) Feed(line string) (bool, error) {
	s, err := nmea.Parse(line)
	if err != nil {
		d.failures++
		return false, fmt.Errorf("nmea: %w", err)
	}
	d.sentences++

	switch m := s.(type) {
	case nmea.RMC:
		return d.applyRMC(m), nil
	case nmea.GGA:
		return d.applyGGA(m), nil
	case nmea.VTG:
		return d.applyVTG(m), nil
	}
	return false, nil
}

func (d *Decoder) applyRMC(m nmea.RMC) bool {
	d.applyTime(m.Time)
	if m.Date.Valid {
		d.fix.DateValid = true
		d.fix.Day = m.Date.DD
		d.fix.Month = m.Date.MM
		d.fix.Year = 2000 + m.Date.YY
	}
	if m.Validity != nmea.ValidRMC {
		return true
	}
	d.fix.LocationValid = true
	d.fix.Lat = m.Latitude
	d.fix.Lng = m.Longitude
	d.fix.SpeedValid = true
	d.fix.SpeedKmph = m.Speed * knotsToKmph
	return true
}

func (d *Decoder) applyGGA(m nmea.GGA) bool {
	d.applyTime(m.Time)
	d.fix.SatellitesValid = true
	d.fix.Satellites = int(m.NumSatellites)
	if m.FixQuality == nmea.Invalid {
		return true
	}
	d.fix.LocationValid = true
	d.fix.Lat = m.Latitude
	d.fix.Lng = m.Longitude
	d.fix.AltitudeValid = true
	d.fix.AltitudeM = m.Altitude
	return true
}

func (d *Decoder) applyVTG(m nmea.VTG) bool {
	// Receivers emit an empty VTG before they have a solution.
	if m.GroundSpeedKPH == 0 && m.GroundSpeedKnots == 0 && m.TrueTrack == 0 {
		return false
	}
	d.fix.SpeedValid = true
	d.fix.SpeedKmph = m.GroundSpeedKPH
	return true
}

func (d *Decoder) applyTime(t nmea.Time) {
	if !t.Valid {
		return
	}
	d.fix.TimeValid = true
	d.fix.Hour = t.Hour
	d.fix.Minute = t.Minute
	d.fix.Second = t.Second
}

// Fix returns the accumulated fix.
func (d *Decoder) Fix() Fix {
	return d.fix
}

// Stats returns the number of decoded and rejected sentences.
func (d *Decoder) Stats() (sentences, failures int) {
	return d.sentences, d.failures
}

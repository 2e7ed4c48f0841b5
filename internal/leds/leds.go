// Package leds computes the shift-light pattern of the 12-LED strip.
// It is pure: the caller passes time and values in and renders the Frame.
package leds

import (
	"time"

	"github.com/sweeney/motodash/internal/settings"
)

// Count is the number of LEDs on the strip.
const Count = 12

// FastBlink is the half-period of the over-max blink.
const FastBlink = 50 * time.Millisecond

// Color of one LED.
type Color int

const (
	Off Color = iota
	Green
	Orange
	Red
)

func (c Color) String() string {
	switch c {
	case Off:
		return "off"
	case Green:
		return "green"
	case Orange:
		return "orange"
	case Red:
		return "red"
	}
	return "unknown"
}

// Frame is one rendered strip state. LEDs[0] is the first LED of the bar.
type Frame struct {
	Brightness int
	LEDs       [Count]Color
}

// Lit returns the number of LEDs that are not off.
func (f Frame) Lit() int {
	n := 0
	for _, c := range f.LEDs {
		if c != Off {
			n++
		}
	}
	return n
}

// Strip keeps the blink phase between frames.
type Strip struct {
	blinkOn bool
	blinkAt time.Time
}

func NewStrip() *Strip {
	return &Strip{}
}

// Update advances the blink phase to now and renders the frame for rpm.
func (s *Strip) Update(now time.Time, rpm float64, rec settings.Record) Frame {
	if now.Sub(s.blinkAt) > FastBlink {
		s.blinkOn = !s.blinkOn
		s.blinkAt = now
	}
	if !rec.LEDEnabled {
		return Frame{}
	}
	return rpmFrame(rpm, rec, s.blinkOn)
}

// rpmFrame fills the bar proportionally to rpm/maxRPM. Past 60% of the
// strip LEDs turn orange, past 80% red. At or over max the whole strip
// blinks red.
func rpmFrame(rpm float64, rec settings.Record, blinkOn bool) Frame {
	f := Frame{Brightness: rec.LEDBrightness}
	if rec.MaxRPM <= 0 || rpm <= 0 {
		return f
	}
	percent := int(rpm / float64(rec.MaxRPM) * 100)
	lit := Count * percent / 100
	if lit >= Count {
		if blinkOn {
			for i := range f.LEDs {
				f.LEDs[i] = Red
			}
		}
		return f
	}
	for i := 0; i < lit; i++ {
		switch {
		case float64(i) >= Count*0.8:
			f.LEDs[i] = Red
		case float64(i) >= Count*0.6:
			f.LEDs[i] = Orange
		default:
			f.LEDs[i] = Green
		}
	}
	return f
}

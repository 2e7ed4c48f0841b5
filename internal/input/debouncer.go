// Package input debounces the handlebar buttons and turns releases into
// click events. This package has NO GPIO access; raw levels and time are
// always passed in by the caller.
package input

import (
	"time"

	"github.com/sweeney/motodash/internal/gpio"
)

// DefaultDebounce is the time a raw level must hold before it is accepted.
const DefaultDebounce = 20 * time.Millisecond

// ButtonState tracks debounce state for a single button.
type ButtonState struct {
	// Debounced level (true = high = released)
	Stable bool
	// Raw level seen on the previous poll
	LastRaw bool
	// Time of the last raw level change
	ChangedAt time.Time
	// Set when a release is accepted, cleared by the reader
	Clicked bool
}

// ClickCounts tracks accepted clicks per button since startup.
type ClickCounts [gpio.NumButtons]int

// Debouncer samples button levels and exposes edge-triggered clicks.
type Debouncer struct {
	window  time.Duration
	buttons [gpio.NumButtons]ButtonState
	counts  ClickCounts
}

// NewDebouncer creates a debouncer with every button released.
func NewDebouncer(window time.Duration) *Debouncer {
	d := &Debouncer{window: window}
	for i := range d.buttons {
		d.buttons[i] = ButtonState{Stable: true, LastRaw: true}
	}
	return d
}

// Poll updates every button from one sample of raw levels.
// A level is accepted once it has been stable for the debounce window;
// accepting the released level marks a pending click.
func (d *Debouncer) Poll(raw gpio.Levels, now time.Time) {
	for i := range d.buttons {
		d.pollButton(&d.buttons[i], raw[i], now, i)
	}
}

func (d *Debouncer) pollButton(b *ButtonState, raw bool, now time.Time, idx int) {
	if raw != b.LastRaw {
		b.ChangedAt = now
	}
	b.LastRaw = raw

	if now.Sub(b.ChangedAt) < d.window {
		return
	}
	if raw == b.Stable {
		return
	}

	b.Stable = raw
	if raw {
		b.Clicked = true
		d.counts[idx]++
	}
}

// IsClicked reports a pending click and clears it, so every physical press
// is delivered at most once. Unknown buttons are never clicked.
func (d *Debouncer) IsClicked(b gpio.Button) bool {
	if !b.Valid() {
		return false
	}
	st := &d.buttons[b]
	if !st.Clicked {
		return false
	}
	st.Clicked = false
	return true
}

// IsPressed reports whether the button is held down.
// It also discards any pending click for that button.
func (d *Debouncer) IsPressed(b gpio.Button) bool {
	if !b.Valid() {
		return false
	}
	st := &d.buttons[b]
	st.Clicked = false
	return !st.Stable
}

// State returns a copy of the debounce state of a button.
func (d *Debouncer) State(b gpio.Button) ButtonState {
	if !b.Valid() {
		return ButtonState{}
	}
	return d.buttons[b]
}

// Counts returns the number of accepted clicks per button.
func (d *Debouncer) Counts() ClickCounts {
	return d.counts
}

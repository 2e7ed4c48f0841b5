package input

import (
	"testing"
	"time"

	"github.com/sweeney/motodash/internal/gpio"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// hold polls the debouncer every 5ms from start (inclusive) to end (exclusive)
// with the given levels.
func hold(d *Debouncer, lv gpio.Levels, start, end time.Duration) {
	for at := start; at < end; at += 5 * time.Millisecond {
		d.Poll(lv, t0.Add(at))
	}
}

func TestNewDebouncerAllReleased(t *testing.T) {
	d := NewDebouncer(DefaultDebounce)
	for b := gpio.Button(0); b < gpio.NumButtons; b++ {
		if d.IsPressed(b) {
			t.Errorf("%v: should start released", b)
		}
		if d.IsClicked(b) {
			t.Errorf("%v: should start without clicks", b)
		}
	}
}

func TestShortPressRejected(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	// Held low for 15ms, then released
	hold(d, gpio.Press(gpio.LeftUp), 0, 15*time.Millisecond)
	hold(d, gpio.Released(), 15*time.Millisecond, 100*time.Millisecond)

	if d.IsClicked(gpio.LeftUp) {
		t.Error("bounce shorter than debounce window must not register a click")
	}
	if d.Counts()[gpio.LeftUp] != 0 {
		t.Errorf("expected 0 clicks counted, got %d", d.Counts()[gpio.LeftUp])
	}
}

func TestLongPressClicksOnce(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	// Held low for 30ms, then released
	hold(d, gpio.Press(gpio.LeftUp), 0, 30*time.Millisecond)
	if d.State(gpio.LeftUp).Stable {
		t.Fatal("press held past the window should be accepted")
	}
	if d.State(gpio.LeftUp).Clicked {
		t.Fatal("click must not fire on press")
	}

	hold(d, gpio.Released(), 30*time.Millisecond, 100*time.Millisecond)

	if !d.IsClicked(gpio.LeftUp) {
		t.Fatal("expected one click after release")
	}
	if d.IsClicked(gpio.LeftUp) {
		t.Error("second query without a new press must return false")
	}
	if got := d.Counts()[gpio.LeftUp]; got != 1 {
		t.Errorf("expected 1 click counted, got %d", got)
	}
}

func TestReleaseMustAlsoBeStable(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	hold(d, gpio.Press(gpio.RightUp), 0, 40*time.Millisecond)
	// Release for only 10ms, then bounce low again
	hold(d, gpio.Released(), 40*time.Millisecond, 50*time.Millisecond)
	hold(d, gpio.Press(gpio.RightUp), 50*time.Millisecond, 60*time.Millisecond)

	if d.IsClicked(gpio.RightUp) {
		t.Error("unstable release must not register a click")
	}
	if !d.IsPressed(gpio.RightUp) {
		t.Error("button should still be considered pressed")
	}
}

func TestWindowBoundaryInclusive(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	d.Poll(gpio.Press(gpio.LeftDown), t0)
	d.Poll(gpio.Press(gpio.LeftDown), t0.Add(20*time.Millisecond))
	if !d.IsPressed(gpio.LeftDown) {
		t.Fatal("level stable for exactly the window should be accepted")
	}

	d.Poll(gpio.Released(), t0.Add(30*time.Millisecond))
	d.Poll(gpio.Released(), t0.Add(50*time.Millisecond))
	if !d.IsClicked(gpio.LeftDown) {
		t.Error("expected click after release held for exactly the window")
	}
}

func TestIsPressedDiscardsPendingClick(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	hold(d, gpio.Press(gpio.RightDown), 0, 30*time.Millisecond)
	hold(d, gpio.Released(), 30*time.Millisecond, 80*time.Millisecond)

	if d.IsPressed(gpio.RightDown) {
		t.Error("button should be released")
	}
	if d.IsClicked(gpio.RightDown) {
		t.Error("IsPressed should have discarded the pending click")
	}
}

func TestIndependentButtons(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	hold(d, gpio.Press(gpio.LeftUp, gpio.RightUp), 0, 30*time.Millisecond)
	hold(d, gpio.Press(gpio.RightUp), 30*time.Millisecond, 80*time.Millisecond)

	if !d.IsClicked(gpio.LeftUp) {
		t.Error("left-up should have clicked")
	}
	if d.IsClicked(gpio.RightUp) {
		t.Error("right-up is still held and must not click")
	}
	if !d.IsPressed(gpio.RightUp) {
		t.Error("right-up should be pressed")
	}
}

func TestInvalidButtonIsNoOp(t *testing.T) {
	d := NewDebouncer(DefaultDebounce)
	for _, b := range []gpio.Button{-1, gpio.NumButtons, 42} {
		if d.IsClicked(b) {
			t.Errorf("IsClicked(%d) should be false", b)
		}
		if d.IsPressed(b) {
			t.Errorf("IsPressed(%d) should be false", b)
		}
		if (d.State(b) != ButtonState{}) {
			t.Errorf("State(%d) should be zero", b)
		}
	}
}

func TestRepeatedClicksCounted(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	at := time.Duration(0)
	for i := 0; i < 3; i++ {
		hold(d, gpio.Press(gpio.LeftDown), at, at+30*time.Millisecond)
		hold(d, gpio.Released(), at+30*time.Millisecond, at+60*time.Millisecond)
		if !d.IsClicked(gpio.LeftDown) {
			t.Fatalf("press %d: expected click", i)
		}
		at += 60 * time.Millisecond
	}
	if got := d.Counts()[gpio.LeftDown]; got != 3 {
		t.Errorf("expected 3 clicks counted, got %d", got)
	}
}

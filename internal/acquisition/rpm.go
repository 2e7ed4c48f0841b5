package acquisition

import (
	"runtime"
	"sync/atomic"
	"time"
)

// RPMMeter is the handoff between the edge handler and the main loop.
// Edge is the single writer, Read the single reader; a sequence counter
// makes the (timestamp, period) pair consistent without a mutex.
type RPMMeter struct {
	seq   atomic.Uint32
	last  atomic.Int64 // timestamp of the previous edge
	delta atomic.Int64 // period between the last two edges
}

// Edge records a falling edge at kernel timestamp ts. It is O(1) and never
// blocks or allocates.
func (m *RPMMeter) Edge(ts time.Duration) {
	s := m.seq.Add(1)
	prev := m.last.Load()
	if s > 1 {
		d := int64(ts) - prev
		if d < 0 {
			d = 0
		}
		m.delta.Store(d)
	}
	m.last.Store(int64(ts))
	m.seq.Add(1)
}

// Read returns the last measured period and the number of edges seen so far.
// A zero period means nothing has been measured yet.
func (m *RPMMeter) Read() (period time.Duration, edges uint32) {
	for {
		s1 := m.seq.Load()
		if s1&1 == 1 {
			runtime.Gosched()
			continue
		}
		d := m.delta.Load()
		if m.seq.Load() == s1 {
			return time.Duration(d), s1 / 2
		}
	}
}

// RPMFromPeriod converts one revolution period into revolutions per minute.
// Zero or negative periods map to 0.
func RPMFromPeriod(period time.Duration) float64 {
	if period <= 0 {
		return 0
	}
	micros := float64(period) / float64(time.Microsecond)
	return 60e6 / micros
}

// TickFlag is set by a periodic timer and consumed by the main loop.
type TickFlag struct {
	set atomic.Bool
}

// Set marks a tick. Called from the timer goroutine.
func (f *TickFlag) Set() {
	f.set.Store(true)
}

// Take reports whether a tick happened since the last call and clears it.
func (f *TickFlag) Take() bool {
	return f.set.CompareAndSwap(true, false)
}

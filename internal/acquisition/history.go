package acquisition

import "sync"

// Sample is one periodic snapshot of position, altitude and speed.
type Sample struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Alt   float64 `json:"alt_m"`
	Speed float64 `json:"speed_kmph"`
}

// SampleBytes is the in-memory size of one Sample.
const SampleBytes = 32

// History is a fixed-capacity, append-only sample log. Once full, further
// samples are dropped; nothing is overwritten.
// Append is called by the main loop; readers may run concurrently.
type History struct {
	mu      sync.RWMutex
	samples []Sample
	n       int
	dropped int
}

// NewHistory allocates the whole buffer up front.
func NewHistory(capacity int) *History {
	if capacity < 0 {
		capacity = 0
	}
	return &History{samples: make([]Sample, capacity)}
}

// Append stores s and reports whether it was kept.
func (h *History) Append(s Sample) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.n >= len(h.samples) {
		h.dropped++
		return false
	}
	h.samples[h.n] = s
	h.n++
	return true
}

// Len returns the number of stored samples.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.n
}

// Cap returns the capacity.
func (h *History) Cap() int {
	return len(h.samples)
}

// Dropped returns how many samples were rejected because the buffer was full.
func (h *History) Dropped() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Samples returns a copy of the stored samples in insertion order.
func (h *History) Samples() []Sample {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Sample, h.n)
	copy(out, h.samples[:h.n])
	return out
}

// Last returns the newest sample.
func (h *History) Last() (Sample, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.n == 0 {
		return Sample{}, false
	}
	return h.samples[h.n-1], true
}

// SizeBytes returns the memory used by stored samples.
func (h *History) SizeBytes() int {
	return h.Len() * SampleBytes
}

package mqtt

import "log"

// bufferedMsg is a serialized message held for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO of messages queued while the broker
// is unreachable. When full, the oldest message is overwritten: fresh
// telemetry is worth more than stale telemetry.
// Not safe for concurrent use; the publisher holds its mutex.
type ringBuffer struct {
	buf      []bufferedMsg
	head     int // next write position
	count    int
	dropped  int  // total overwritten since creation
	overflow bool // any overwrite since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ringBuffer{buf: make([]bufferedMsg, capacity)}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	n := len(r.buf)
	r.buf[r.head] = msg
	r.head = (r.head + 1) % n
	if r.count < n {
		r.count++
		return
	}
	r.dropped++
	if !r.overflow {
		log.Printf("mqtt: offline buffer full (%d messages), dropping oldest", n)
		r.overflow = true
	}
}

// drainAll returns the queued messages oldest first and empties the buffer.
func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.count == 0 {
		return nil
	}
	n := len(r.buf)
	out := make([]bufferedMsg, r.count)
	start := (r.head - r.count + n) % n
	for i := range out {
		out[i] = r.buf[(start+i)%n]
	}
	r.count = 0
	r.head = 0
	r.overflow = false
	return out
}

func (r *ringBuffer) len() int {
	return r.count
}

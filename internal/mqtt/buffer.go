package mqtt

import "log"

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO that stores messages while disconnected.
// Not safe for concurrent use; the caller must synchronize.
type ringBuffer struct {
	buf      []bufferedMsg
	capacity int
	head     int // next write position
	count    int
	dropped  int  // messages overwritten since startup
	overflow bool // true if any message was dropped since the buffer was last empty
}

// newRingBuffer returns a buffer holding up to capacity messages.
// A capacity below 1 is raised to 1 so the latest message always survives.
func newRingBuffer(capacity int) *ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ringBuffer{
		buf:      make([]bufferedMsg, capacity),
		capacity: capacity,
	}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	if r.count == r.capacity {
		if !r.overflow {
			log.Printf("mqtt: buffer full (%d messages), dropping oldest", r.capacity)
			r.overflow = true
		}
		r.dropped++
		// head already points at the oldest entry
		r.buf[r.head] = msg
		r.head = (r.head + 1) % r.capacity
		return
	}
	r.buf[r.head] = msg
	r.head = (r.head + 1) % r.capacity
	r.count++
}

// shift removes and returns the oldest message.
func (r *ringBuffer) shift() (bufferedMsg, bool) {
	if r.count == 0 {
		return bufferedMsg{}, false
	}

	oldest := (r.head - r.count + r.capacity) % r.capacity
	msg := r.buf[oldest]
	r.buf[oldest] = bufferedMsg{}
	r.count--
	if r.count == 0 {
		r.overflow = false
	}
	return msg, true
}

func (r *ringBuffer) len() int {
	return r.count
}

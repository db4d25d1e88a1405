package receiver

// Create a receiver that holds at most capacity bytes of a telegram.
func NewReceiver(capacity int) *Receiver {
	if capacity < 1 {
		capacity = 1
	}
	return &Receiver{buf: make([]byte, capacity)}
}

// Feed one byte from the serial line. Never blocks.
// After Complete the telegram stays readable through Telegram until the next
// start marker arrives or Reset is called.
func (r *Receiver) Feed(b byte) Status {
	// P1 is 7-bit ASCII, the high bit is line noise.
	b &= asciiMask

	if !r.startReceived || r.endReceived {
		if b != startMarker {
			return Idle
		}
		r.begin()
		return Accumulating
	}

	// A start marker at the beginning of a line means the previous telegram
	// was cut off; resync on the new one.
	if b == startMarker && r.writeIndex == r.lineStart {
		r.begin()
		return Accumulating
	}

	if r.writeIndex >= len(r.buf) {
		r.Reset()
		return Overflow
	}

	r.buf[r.writeIndex] = b
	r.writeIndex++
	if b != lineFeed {
		return Accumulating
	}

	// The first line always holds the header, so it can never end the telegram.
	if r.lineStart != 0 && r.buf[r.lineStart] == endMarker {
		r.endReceived = true
		r.datagrams++
		return Complete
	}
	r.lineStart = r.writeIndex
	return Accumulating
}

// Telegram returns a view of the buffered bytes. It is only meaningful right
// after Feed returned Complete and is overwritten by the next telegram.
func (r *Receiver) Telegram() []byte {
	return r.buf[:r.writeIndex]
}

// Reset discards any buffered content and waits for a new start marker.
func (r *Receiver) Reset() {
	r.writeIndex = 0
	r.lineStart = 0
	r.startReceived = false
	r.endReceived = false
}

// InTelegram reports whether a telegram is being assembled right now.
func (r *Receiver) InTelegram() bool {
	return r.startReceived && !r.endReceived
}

// Datagrams is the number of completed telegrams.
func (r *Receiver) Datagrams() uint64 {
	return r.datagrams
}

func (r *Receiver) Len() int {
	return r.writeIndex
}

func (r *Receiver) Capacity() int {
	return len(r.buf)
}

func (r *Receiver) begin() {
	r.Reset()
	r.startReceived = true
	r.buf[0] = startMarker
	r.writeIndex = 1
}

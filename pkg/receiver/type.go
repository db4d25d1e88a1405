package receiver

// Status reported by Feed for every byte.
type Status uint8

const (
	Idle Status = iota
	Accumulating
	Complete
	Overflow
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Accumulating:
		return "accumulating"
	case Complete:
		return "complete"
	case Overflow:
		return "overflow"
	}
	return "unknown"
}

const (
	startMarker = '/'
	endMarker   = '!'
	lineFeed    = '\n'
	asciiMask   = 0x7f
)

// Receiver assembles one telegram at a time into a fixed buffer.
// It is not safe for concurrent use.
type Receiver struct {
	buf           []byte
	writeIndex    int
	lineStart     int
	startReceived bool
	endReceived   bool

	// Completed telegrams since the receiver was created
	datagrams uint64
}

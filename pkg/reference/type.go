package reference

// FormatKind selects how the extractor reads the value of a matched reference.
type FormatKind uint8

const (
	PowerCumulative FormatKind = iota
	PowerActual
	Tariff
	GasCumulative
	Header
)

func (k FormatKind) String() string {
	switch k {
	case PowerCumulative:
		return "power-cumulative"
	case PowerActual:
		return "power-actual"
	case Tariff:
		return "tariff"
	case GasCumulative:
		return "gas-cumulative"
	case Header:
		return "header"
	}
	return "unknown"
}

// Pattern ties an OBIS reference in the telegram to an output topic.
type Pattern struct {
	ReferenceID string
	Topic       string
	Format      FormatKind
	// The matched line only carries a timestamp, the value is on the next line.
	ValueOnNextLine bool
}

// Table is an ordered, read-only list of patterns.
type Table struct {
	patterns []Pattern
}

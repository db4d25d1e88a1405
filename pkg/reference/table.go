package reference

import "fmt"

// Build a table from patterns. Reference IDs must be unique.
func NewTable(patterns ...Pattern) (Table, error) {
	seen := make(map[string]bool, len(patterns))
	for _, p := range patterns {
		if p.ReferenceID == "" {
			return Table{}, fmt.Errorf("empty reference id for topic %q", p.Topic)
		}
		if seen[p.ReferenceID] {
			return Table{}, fmt.Errorf("duplicate reference id %q", p.ReferenceID)
		}
		seen[p.ReferenceID] = true
	}

	// Own copy, so callers can't mutate it afterwards
	owned := make([]Pattern, len(patterns))
	copy(owned, patterns)
	return Table{patterns: owned}, nil
}

// DefaultTable returns the fixed reference table for a DSMR 2.2 style meter.
// The header topic lives under the device name.
func DefaultTable(device string) Table {
	t, err := NewTable(
		Pattern{ReferenceID: "/", Topic: device + "/header", Format: Header},
		Pattern{ReferenceID: "1-0:1.8.1", Topic: "power/cumulative-usage-1", Format: PowerCumulative},
		Pattern{ReferenceID: "1-0:1.8.2", Topic: "power/cumulative-usage-2", Format: PowerCumulative},
		Pattern{ReferenceID: "0-0:96.14.0", Topic: "power/tariff", Format: Tariff},
		Pattern{ReferenceID: "1-0:1.7.0", Topic: "power/actual-usage", Format: PowerActual},
		Pattern{ReferenceID: "0-2:24.3.0", Topic: "gas/cumulative-usage", Format: GasCumulative, ValueOnNextLine: true},
	)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Table) Len() int {
	return len(t.patterns)
}

func (t Table) At(i int) Pattern {
	return t.patterns[i]
}

// Patterns returns a copy of the patterns in table order.
func (t Table) Patterns() []Pattern {
	out := make([]Pattern, len(t.patterns))
	copy(out, t.patterns)
	return out
}

package extractor

import (
	"bytes"
	"errors"

	"github.com/NotCoffee418/smartmeter_mqtt/pkg/reference"
	log "github.com/sirupsen/logrus"
)

var (
	ErrMalformedField    = errors.New("malformed field")
	ErrUnknownFormatKind = errors.New("unknown format kind")
)

func NewExtractor(logger log.FieldLogger) *Extractor {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Extractor{logger: logger}
}

// Extract walks the table in order and reads every reference present in the
// telegram. Missing references are skipped silently, malformed ones are
// dropped. The telegram is never modified.
func (e *Extractor) Extract(telegram []byte, table reference.Table) []Field {
	fields := make([]Field, 0, table.Len())
	for i := 0; i < table.Len(); i++ {
		pattern := table.At(i)

		pos := bytes.Index(telegram, []byte(pattern.ReferenceID))
		if pos < 0 {
			continue
		}

		field, err := parsePattern(telegram, pos, pattern)
		switch {
		case errors.Is(err, ErrUnknownFormatKind):
			e.logger.WithFields(log.Fields{
				"reference": pattern.ReferenceID,
				"format":    uint8(pattern.Format),
			}).Error("Reference table contains an unknown format kind, skipping")
			continue
		case err != nil:
			e.logger.WithFields(log.Fields{
				"reference": pattern.ReferenceID,
				"line":      string(trimEOL(lineAt(telegram, pos))),
			}).Debug("Skipping malformed field")
			continue
		}
		fields = append(fields, field)
	}
	return fields
}

func parsePattern(telegram []byte, pos int, pattern reference.Pattern) (Field, error) {
	line := lineAt(telegram, pos)
	// Only look for groups after the reference itself.
	rest := telegram[pos+len(pattern.ReferenceID) : lineStart(telegram, pos)+len(line)]

	if pattern.ValueOnNextLine {
		return parseNextLine(telegram, pos, rest, pattern)
	}

	field := Field{Topic: pattern.Topic}
	switch pattern.Format {
	case reference.Header:
		if len(line) == 0 || line[0] != '/' {
			return field, ErrMalformedField
		}
		token := headerToken(line[1:])
		if !fits(token, valueWidth[reference.Header]) {
			return field, ErrMalformedField
		}
		field.Value = string(token)

	case reference.PowerCumulative, reference.PowerActual:
		content, ok := group(rest)
		if !ok {
			return field, ErrMalformedField
		}
		value, unit := splitUnit(content)
		if !fits(value, valueWidth[pattern.Format]) || len(unit) > maxUnitLen {
			return field, ErrMalformedField
		}
		field.Value, field.Unit = string(value), string(unit)

	case reference.Tariff:
		content, ok := group(rest)
		if !ok || !fits(content, valueWidth[reference.Tariff]) {
			return field, ErrMalformedField
		}
		field.Value = string(content)

	case reference.GasCumulative:
		// Single line shape: (<timestamp>)(<value>*<unit>)
		timestamp, ok := group(rest)
		if !ok || !fits(timestamp, maxTimestampLen) {
			return field, ErrMalformedField
		}
		content, ok := group(afterGroup(rest))
		if !ok {
			return field, ErrMalformedField
		}
		value, unit := splitUnit(content)
		if !fits(value, valueWidth[reference.GasCumulative]) || len(unit) > maxUnitLen {
			return field, ErrMalformedField
		}
		field.Value, field.Unit, field.Timestamp = string(value), string(unit), string(timestamp)

	default:
		return field, ErrUnknownFormatKind
	}
	return field, nil
}

// Matched line holds the timestamp, the line after it holds the value.
func parseNextLine(telegram []byte, pos int, rest []byte, pattern reference.Pattern) (Field, error) {
	field := Field{Topic: pattern.Topic}

	width, known := valueWidth[pattern.Format]
	if !known {
		return field, ErrUnknownFormatKind
	}

	timestamp, ok := group(rest)
	if !ok || !fits(timestamp, maxTimestampLen) {
		return field, ErrMalformedField
	}

	next := lineStart(telegram, pos) + len(lineAt(telegram, pos))
	if next >= len(telegram) {
		return field, ErrMalformedField
	}
	content, ok := group(lineAt(telegram, next))
	if !ok {
		return field, ErrMalformedField
	}
	value, _ := splitUnit(content)
	if !fits(value, width) {
		return field, ErrMalformedField
	}

	field.Value, field.Timestamp = string(value), string(timestamp)
	return field, nil
}

// lineStart returns the index where the line containing pos begins.
func lineStart(telegram []byte, pos int) int {
	return bytes.LastIndexByte(telegram[:pos], '\n') + 1
}

// lineAt returns the line containing pos including its line feed, if any.
func lineAt(telegram []byte, pos int) []byte {
	start := lineStart(telegram, pos)
	end := bytes.IndexByte(telegram[start:], '\n')
	if end < 0 {
		return telegram[start:]
	}
	return telegram[start : start+end+1]
}

// group returns the content of the first parenthesized group in b.
func group(b []byte) ([]byte, bool) {
	open := bytes.IndexByte(b, '(')
	if open < 0 {
		return nil, false
	}
	closing := bytes.IndexByte(b[open+1:], ')')
	if closing < 0 {
		return nil, false
	}
	return b[open+1 : open+1+closing], true
}

// afterGroup returns what follows the first complete group in b.
func afterGroup(b []byte) []byte {
	open := bytes.IndexByte(b, '(')
	if open < 0 {
		return nil
	}
	closing := bytes.IndexByte(b[open+1:], ')')
	if closing < 0 {
		return nil
	}
	return b[open+closing+2:]
}

func splitUnit(content []byte) (value, unit []byte) {
	star := bytes.IndexByte(content, '*')
	if star < 0 {
		return content, nil
	}
	return content[:star], content[star+1:]
}

func headerToken(b []byte) []byte {
	end := bytes.IndexAny(b, " \t\r\n")
	if end < 0 {
		return b
	}
	return b[:end]
}

func trimEOL(b []byte) []byte {
	return bytes.TrimRight(b, "\r\n")
}

func fits(value []byte, width int) bool {
	return len(value) > 0 && len(value) <= width
}

package extractor

import (
	"bytes"
	"fmt"

	"github.com/sigurn/crc16"
)

// CRC16/ARC, as used by DSMR 4 and later.
var crcTable = crc16.MakeTable(crc16.CRC16_ARC)

// ValidateCRC checks the four hex digits after the end marker against the
// telegram content up to and including the '!'.
func ValidateCRC(telegram []byte) bool {
	end := bytes.LastIndexByte(telegram, '!')
	if end < 0 || len(telegram) < end+5 {
		return false
	}

	givenCRC := bytes.ToUpper(telegram[end+1 : end+5])
	calcCRC := crc16.Checksum(telegram[:end+1], crcTable)
	return string(givenCRC) == fmt.Sprintf("%04X", calcCRC)
}

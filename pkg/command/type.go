package command

// Flags toggle the optional outputs. They are owned by the bridge loop and
// only change between telegrams.
type Flags struct {
	EmitDatagramCount bool `toml:"emit_datagram_count" json:"emit_datagram_count"`
	EmitUnits         bool `toml:"emit_units" json:"emit_units"`
	EmitRawTelegram   bool `toml:"emit_raw_telegram" json:"emit_raw_telegram"`
}

// Command topic suffixes, relative to the device name.
const (
	SetRawTelegram = "set/p1-telegram"
	SetDatagrams   = "set/datagrams"
	SetUnits       = "set/units"
)

// Handler maps inbound command topics to flags for one device.
type Handler struct {
	device string
}

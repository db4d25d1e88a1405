package config

import "github.com/NotCoffee418/smartmeter_mqtt/pkg/command"

type BridgeConfig struct {
	SerialDevice string `toml:"serial_device"`
	Baudrate     uint   `toml:"baudrate"`
	DataBits     uint   `toml:"data_bits"`
	// none, odd or even
	Parity string `toml:"parity"`

	// Largest telegram accepted, in bytes
	BufferCapacity int    `toml:"buffer_capacity"`
	DeviceName     string `toml:"device_name"`
	// IANA zone for the published timestamp, empty for system local time
	Timezone                string `toml:"timezone"`
	ClockSyncTimeoutSeconds int    `toml:"clock_sync_timeout_seconds"`
	// Only DSMR 4 and later meters send a CRC
	ValidateCRC bool   `toml:"validate_crc"`
	LogLevel    string `toml:"log_level"`

	Bus BusConfig `toml:"bus"`
	API APIConfig `toml:"api"`
	// Initial state of the remotely switchable outputs
	Flags command.Flags `toml:"flags"`
}

type BusConfig struct {
	// mqtt or nats
	Kind           string `toml:"kind"`
	URL            string `toml:"url"`
	ClientID       string `toml:"client_id"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	QoS            uint8  `toml:"qos"`
	ConnectRetries int    `toml:"connect_retries"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type APIConfig struct {
	// Empty disables the local HTTP API
	ListenAddress string `toml:"listen_address"`
}

type MonitorConfig struct {
	BridgeHost string `toml:"bridge_host"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

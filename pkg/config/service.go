package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/pathing"
	log "github.com/sirupsen/logrus"
)

var (
	ActiveBridgeConfig  *BridgeConfig
	ActiveMonitorConfig *MonitorConfig
)

var ErrInvalidConfig = errors.New("invalid config")

func DefaultBridgeConfig() *BridgeConfig {
	return &BridgeConfig{
		// DSMR 2.2 meters talk 9600 baud. The parity bit ends up as the
		// high bit of every byte, which the receiver masks off.
		SerialDevice:            "/dev/ttyUSB0",
		Baudrate:                9600,
		DataBits:                8,
		Parity:                  "none",
		BufferCapacity:          2048,
		DeviceName:              "sm1",
		ClockSyncTimeoutSeconds: 120,
		LogLevel:                "info",
		Bus: BusConfig{
			Kind:           "mqtt",
			URL:            "tcp://localhost:1883",
			ClientID:       "smartmeter_mqtt",
			ConnectRetries: 10,
			TimeoutSeconds: 10,
		},
		API: APIConfig{
			ListenAddress: "0.0.0.0:9039",
		},
	}
}

func LoadBridgeConfig() error {
	cfg, err := Load(filepath.Join(pathing.GetConfigDir(), "bridge.toml"))
	if err != nil {
		return err
	}
	ActiveBridgeConfig = cfg
	return nil
}

// Load reads the bridge config at path, writing the defaults there first if
// the file does not exist yet.
func Load(path string) (*BridgeConfig, error) {
	cfg := DefaultBridgeConfig()
	if err := loadOrCreate(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadMonitorConfig() error {
	cfg := &MonitorConfig{
		BridgeHost: "localhost:9039",
		TLSEnabled: false,
	}
	if err := loadOrCreate(filepath.Join(pathing.GetConfigDir(), "telegram_monitor.toml"), cfg); err != nil {
		return err
	}
	ActiveMonitorConfig = cfg
	return nil
}

func (c *BridgeConfig) Validate() error {
	var problems []string

	if c.SerialDevice == "" {
		problems = append(problems, "serial_device is empty")
	}
	if c.DataBits < 5 || c.DataBits > 8 {
		problems = append(problems, fmt.Sprintf("data_bits %d out of range 5-8", c.DataBits))
	}
	switch c.Parity {
	case "", "none", "odd", "even":
	default:
		problems = append(problems, fmt.Sprintf("unknown parity %q", c.Parity))
	}
	if c.BufferCapacity < 64 {
		problems = append(problems, fmt.Sprintf("buffer_capacity %d is too small", c.BufferCapacity))
	}
	if c.DeviceName == "" || strings.ContainsAny(c.DeviceName, "/#+.* ") {
		problems = append(problems, fmt.Sprintf("device_name %q is not a valid topic segment", c.DeviceName))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	switch c.Bus.Kind {
	case "mqtt", "nats":
	default:
		problems = append(problems, fmt.Sprintf("unknown bus kind %q", c.Bus.Kind))
	}
	if c.Bus.URL == "" {
		problems = append(problems, "bus url is empty")
	}
	if c.Bus.QoS > 2 {
		problems = append(problems, fmt.Sprintf("bus qos %d out of range 0-2", c.Bus.QoS))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func loadOrCreate(path string, cfg any) error {
	// Create default if not exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		cfgFile, err := os.Create(path)
		if err != nil {
			return err
		}
		defer cfgFile.Close()
		log.Infof("Writing default config to %s", path)
		return toml.NewEncoder(cfgFile).Encode(cfg)
	}

	// Load existing config
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

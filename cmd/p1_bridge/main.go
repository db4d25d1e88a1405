// P1 bridge reads telegrams from the smart meter's P1 port and publishes
// every field as its own message on the bus.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NotCoffee418/smartmeter_mqtt/pkg/bridge"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/bus"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/clock"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/config"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/extractor"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/liveapi"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/metrics"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/output"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/port_reader"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/reference"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	// Load config
	if err := config.LoadBridgeConfig(); err != nil {
		log.Fatalf("Failed to load bridge config: %v", err)
	}
	cfg := config.ActiveBridgeConfig

	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Timestamps are worthless before the clock is set
	wallClock, err := clock.New(cfg.Timezone)
	if err != nil {
		log.Fatalf("Invalid timezone: %v", err)
	}
	syncTimeout := time.Duration(cfg.ClockSyncTimeoutSeconds) * time.Second
	if err := wallClock.WaitForSync(ctx, syncTimeout, time.Second); err != nil {
		log.WithError(err).Warn("Continuing with an unsynchronized clock")
	}

	// Connect to the bus
	client, err := bus.Connect(ctx, bus.Options{
		Kind:           cfg.Bus.Kind,
		URL:            cfg.Bus.URL,
		ClientID:       cfg.Bus.ClientID,
		Username:       cfg.Bus.Username,
		Password:       cfg.Bus.Password,
		QoS:            cfg.Bus.QoS,
		ConnectRetries: cfg.Bus.ConnectRetries,
		Timeout:        time.Duration(cfg.Bus.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		log.Fatalf("Failed to connect to %s bus: %v", cfg.Bus.Kind, err)
	}
	defer client.Close()

	m := metrics.New()

	// Raw telegrams go to the console and the live API, never to the bus
	sink := output.MultiSink{output.ConsoleSink{}}
	var api *liveapi.Server
	if cfg.API.ListenAddress != "" {
		api = liveapi.NewServer(cfg.API.ListenAddress, m)
		sink = append(sink, api)
		api.Start()
	}

	opts := bridge.Options{
		Device:         cfg.DeviceName,
		BufferCapacity: cfg.BufferCapacity,
		ValidateCRC:    cfg.ValidateCRC,
		Table:          reference.DefaultTable(cfg.DeviceName),
		Flags:          cfg.Flags,
	}
	if api != nil {
		opts.OnTelegram = func(datagrams uint64, at time.Time, fields []extractor.Field) {
			api.SetLatest(liveapi.Snapshot{
				Received:  at.Format(time.RFC3339),
				Datagrams: datagrams,
				Fields:    fields,
			})
		}
	}

	stage := output.NewStage(client, sink, cfg.DeviceName, m)
	b := bridge.New(opts, stage, wallClock, m)
	if err := b.Subscribe(client); err != nil {
		log.Fatalf("Failed to subscribe to command topics: %v", err)
	}

	// Start reading the P1 port
	p1Reader := port_reader.NewP1Reader(port_reader.PortSettings{
		Device:   cfg.SerialDevice,
		Baudrate: cfg.Baudrate,
		DataBits: cfg.DataBits,
		Parity:   cfg.Parity,
	})
	if err := p1Reader.StartReading(); err != nil {
		log.Fatalf("Failed to start P1 reader: %v", err)
	}
	defer p1Reader.StopReading()

	log.Infof("Bridging P1 telegrams from %s as %s", cfg.SerialDevice, cfg.DeviceName)
	runErr := b.Run(ctx, p1Reader)

	if api != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := api.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Live API shutdown")
		}
	}
	if runErr != nil {
		log.Errorf("Error reading P1 port: %v", runErr)
		return
	}
	log.Info("Shutting down")
}

// Telegram monitor prints the raw telegrams a bridge streams on its live API.
// Depends on the bridge running with emit_raw_telegram enabled.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/NotCoffee418/smartmeter_mqtt/pkg/config"
	"github.com/NotCoffee418/smartmeter_mqtt/pkg/monitor"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := config.LoadMonitorConfig(); err != nil {
		log.Fatalf("Failed to load monitor config: %v", err)
	}

	// Set the host:port from env var BRIDGE_HOST
	host := os.Getenv("BRIDGE_HOST")
	if host == "" {
		host = config.ActiveMonitorConfig.BridgeHost
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	monitor.Listen(ctx, host, config.ActiveMonitorConfig.TLSEnabled, func(telegram string) {
		fmt.Print(telegram)
	})
}

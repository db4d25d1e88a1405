package pathing

import "os"

const configDirEnv = "SMARTMETER_MQTT_CONFIG_DIR"

func GetConfigDir() string {
	if dir := os.Getenv(configDirEnv); dir != "" {
		return dir
	}
	return "/etc/smartmeter_mqtt"
}

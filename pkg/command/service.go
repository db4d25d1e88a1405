package command

import (
	"strings"

	log "github.com/sirupsen/logrus"
)

func NewHandler(device string) *Handler {
	return &Handler{device: device}
}

// Topics to subscribe to.
func (h *Handler) Topics() []string {
	return []string{
		h.device + "/" + SetRawTelegram,
		h.device + "/" + SetDatagrams,
		h.device + "/" + SetUnits,
	}
}

// Apply sets the flag addressed by topic. A payload starting with "on"
// enables it, anything else disables it. Returns false for unknown topics.
func (h *Handler) Apply(flags *Flags, topic string, payload []byte) bool {
	enabled := strings.HasPrefix(string(payload), "on")

	switch strings.TrimPrefix(topic, h.device+"/") {
	case SetRawTelegram:
		flags.EmitRawTelegram = enabled
	case SetDatagrams:
		flags.EmitDatagramCount = enabled
	case SetUnits:
		flags.EmitUnits = enabled
	default:
		log.WithField("topic", topic).Warn("Ignoring command on unknown topic")
		return false
	}

	log.WithFields(log.Fields{"topic": topic, "enabled": enabled}).Info("Command applied")
	return true
}

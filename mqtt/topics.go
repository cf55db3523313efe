package mqtt

import (
	"strings"

	"github.com/eddielth/fire-alarm/sensor"
)

// SensorTopics returns the topic of every sensor kind under prefix
func SensorTopics(prefix string) []string {
	topics := make([]string, 0, len(sensor.Kinds))
	for _, k := range sensor.Kinds {
		topics = append(topics, prefix+k.Topic())
	}
	return topics
}

// AlertWildcard matches every alert channel under prefix
func AlertWildcard(prefix string) string {
	return prefix + "alerts/#"
}

// IsAlertTopic reports whether topic is an alert channel under prefix
func IsAlertTopic(prefix, topic string) bool {
	return strings.HasPrefix(topic, prefix+"alerts/")
}

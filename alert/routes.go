package alert

import (
	"github.com/eddielth/fire-alarm/risk"
)

// Route binds an alert level to its audience channel and fixed message text
type Route struct {
	Channel  string
	Audience string
	Message  string
}

var routes = map[risk.Level]Route{
	risk.Warning: {
		Channel:  "alerts/homeowners",
		Audience: "local homeowners",
		Message:  "Forest fire risk detected. Please be prepared for evacuation.",
	},
	risk.Alert: {
		Channel:  "alerts/fire_service",
		Audience: "fire service",
		Message:  "Forest fire confirmed. Fire service has been notified.",
	},
	risk.Emergency: {
		Channel:  "alerts/news",
		Audience: "news organizations",
		Message:  "EMERGENCY: Large forest fire detected. Immediate evacuation required.",
	},
	risk.Critical: {
		Channel:  "alerts/social_media",
		Audience: "social media",
		Message:  "CRITICAL: Massive forest fire spreading rapidly. Evacuate immediately!",
	},
}

// RouteFor returns the route for a level. NONE and unknown levels have no route.
func RouteFor(level risk.Level) (Route, bool) {
	r, ok := routes[level]
	return r, ok
}

// Channels lists every alert channel, lowest level first
func Channels() []string {
	return []string{
		routes[risk.Warning].Channel,
		routes[risk.Alert].Channel,
		routes[risk.Emergency].Channel,
		routes[risk.Critical].Channel,
	}
}

package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tm "github.com/buger/goterm"

	"github.com/eddielth/fire-alarm/logger"
	"github.com/eddielth/fire-alarm/mqtt"
	"github.com/eddielth/fire-alarm/risk"
	"github.com/eddielth/fire-alarm/sensor"
)

const (
	title    = "FOREST FIRE MONITORING DASHBOARD"
	ruleSize = 60
	na       = "N/A"

	// DefaultRefresh is used when no refresh interval is configured
	DefaultRefresh = 5 * time.Second
)

// Subscriber is the part of the MQTT client the dashboard needs
type Subscriber interface {
	Subscribe(topic string, handler mqtt.MessageHandler) error
	Prefix() string
}

// Render writes the sensor block, risk status and alert history as plain text
func (d *Dashboard) Render(w io.Writer) {
	snap := d.Latest()
	history := d.History()

	fmt.Fprintln(w, strings.Repeat("=", ruleSize))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "SENSOR STATUS:")
	if snap.Heat != nil {
		fmt.Fprintf(w, "  Temperature:    %.1f°C  (%s)\n", snap.Heat.Temperature, snap.Heat.Timestamp)
	} else {
		fmt.Fprintf(w, "  Temperature:    %s\n", na)
	}
	if snap.Smoke != nil {
		fmt.Fprintf(w, "  Smoke Level:    %.0f%%  (%s)\n", snap.Smoke.SmokeLevel, snap.Smoke.Timestamp)
	} else {
		fmt.Fprintf(w, "  Smoke Level:    %s\n", na)
	}
	if snap.Fire != nil {
		fmt.Fprintf(w, "  Fire Detected:  %s  (%s)\n", yesNo(snap.Fire.FireDetected), snap.Fire.Timestamp)
		fmt.Fprintf(w, "  Fire Intensity: %.0f%%\n", snap.Fire.FireIntensity)
	} else {
		fmt.Fprintf(w, "  Fire Detected:  %s\n", na)
		fmt.Fprintf(w, "  Fire Intensity: %s\n", na)
	}
	if snap.Wind != nil {
		fmt.Fprintf(w, "  Wind Speed:     %.1f km/h  (%s)\n", snap.Wind.WindSpeed, snap.Wind.Timestamp)
	} else {
		fmt.Fprintf(w, "  Wind Speed:     %s\n", na)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "RISK STATUS:")
	if len(history) > 0 {
		fmt.Fprintf(w, "  Last Alert:     %s at %s\n", history[0].Level, history[0].Timestamp)
	} else {
		fmt.Fprintf(w, "  Last Alert:     %s\n", risk.None)
	}
	if snap.Complete() {
		score, level := risk.Assess(snap)
		fmt.Fprintf(w, "  Current Score:  %d/%d (%s)\n", score, risk.MaxScore, level)
	} else {
		reporting := 0
		for _, k := range sensor.Kinds {
			if snap.Has(k) {
				reporting++
			}
		}
		fmt.Fprintf(w, "  Current Score:  waiting for all sensors (%d/%d reporting)\n", reporting, len(sensor.Kinds))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "RECENT ALERTS:")
	if len(history) == 0 {
		fmt.Fprintln(w, "  No recent alerts")
	}
	for _, n := range history {
		fmt.Fprintf(w, "  [%s] Level %d %s: %s\n", n.Timestamp, int(n.Level), n.Level, n.Message)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", ruleSize))
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

// draw clears the terminal and prints the current view
func (d *Dashboard) draw() {
	var buf bytes.Buffer
	d.Render(&buf)

	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Println(tm.Bold(tm.Color(title, titleColor(d.lastLevel()))))
	tm.Print(buf.String())
	tm.Println("Press Ctrl+C to exit")
	tm.Flush()
}

func (d *Dashboard) lastLevel() risk.Level {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.history) == 0 {
		return risk.None
	}
	return d.history[0].Level
}

func titleColor(l risk.Level) int {
	switch {
	case l >= risk.Emergency:
		return tm.RED
	case l >= risk.Warning:
		return tm.YELLOW
	}
	return tm.GREEN
}

// Run subscribes to every sensor topic and alert channel and redraws the
// terminal every refresh until ctx is done
func (d *Dashboard) Run(ctx context.Context, sub Subscriber, refresh time.Duration) error {
	handler := func(topic string, payload []byte) {
		if err := d.Handle(topic, payload); err != nil {
			logger.Warn("dashboard skipped message: %v", err)
		}
	}

	topics := append(mqtt.SensorTopics(sub.Prefix()), mqtt.AlertWildcard(sub.Prefix()))
	for _, topic := range topics {
		if err := sub.Subscribe(topic, handler); err != nil {
			return fmt.Errorf("subscribe to %s failed: %w", topic, err)
		}
	}

	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	d.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.draw()
		}
	}
}

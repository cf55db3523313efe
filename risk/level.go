package risk

import (
	"fmt"
)

// Level is an ordered alert severity. It also selects the audience channel.
type Level int

const (
	None Level = iota
	Warning
	Alert
	Emergency
	Critical
)

var levelNames = map[Level]string{
	None:      "NONE",
	Warning:   "WARNING",
	Alert:     "ALERT",
	Emergency: "EMERGENCY",
	Critical:  "CRITICAL",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// Score thresholds for each level, checked from the top down
const (
	criticalScore  = 8
	emergencyScore = 6
	alertScore     = 4
	warningScore   = 2
)

// LevelFor maps a risk score to an alert level
func LevelFor(score int) Level {
	switch {
	case score >= criticalScore:
		return Critical
	case score >= emergencyScore:
		return Emergency
	case score >= alertScore:
		return Alert
	case score >= warningScore:
		return Warning
	default:
		return None
	}
}

package risk

import (
	"github.com/eddielth/fire-alarm/fusion"
)

// MaxScore is the highest score Score can return (3+3+4+2)
const MaxScore = 12

// Score computes the composite risk over a full snapshot. Any empty slot yields 0:
// no assessment is made until every sensor kind has reported at least once.
// All thresholds are strict, so a value sitting on a boundary scores the lower bucket.
func Score(s fusion.Snapshot) int {
	if !s.Complete() {
		return 0
	}

	return temperatureScore(s.Heat.Temperature) +
		smokeScore(s.Smoke.SmokeLevel) +
		fireScore(s.Fire.FireDetected, s.Fire.FireIntensity) +
		windScore(s.Wind.WindSpeed)
}

func temperatureScore(celsius float64) int {
	switch {
	case celsius > 60:
		return 3
	case celsius > 45:
		return 2
	case celsius > 35:
		return 1
	}
	return 0
}

func smokeScore(level float64) int {
	switch {
	case level > 80:
		return 3
	case level > 60:
		return 2
	case level > 40:
		return 1
	}
	return 0
}

// intensity is ignored unless a fire is detected
func fireScore(detected bool, intensity float64) int {
	if !detected {
		return 0
	}
	switch {
	case intensity > 70:
		return 4
	case intensity > 40:
		return 3
	}
	return 2
}

// strong wind accelerates spread
func windScore(kmh float64) int {
	switch {
	case kmh > 25:
		return 2
	case kmh > 15:
		return 1
	}
	return 0
}

// Assess scores a snapshot and maps the result to a level
func Assess(s fusion.Snapshot) (int, Level) {
	score := Score(s)
	return score, LevelFor(score)
}

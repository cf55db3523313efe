package risk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelFor(t *testing.T) {
	t.Parallel()

	want := map[int]Level{
		-1: None, 0: None, 1: None,
		2: Warning, 3: Warning,
		4: Alert, 5: Alert,
		6: Emergency, 7: Emergency,
		8: Critical, 10: Critical, 12: Critical,
	}

	for score, level := range want {
		require.Equal(t, level, LevelFor(score), "score %d", score)
		// same score, same answer
		require.Equal(t, LevelFor(score), LevelFor(score))
	}
}

func TestLevelForMonotonic(t *testing.T) {
	t.Parallel()

	for s := 0; s < MaxScore; s++ {
		require.LessOrEqual(t, LevelFor(s), LevelFor(s+1))
	}
}

func TestLevelNames(t *testing.T) {
	t.Parallel()

	require.Equal(t, "CRITICAL", Critical.String())
	require.Equal(t, "Level(9)", Level(9).String())

	require.True(t, None < Warning && Warning < Alert && Alert < Emergency && Emergency < Critical)
}

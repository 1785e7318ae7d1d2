package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fanfirst-engagement-service/internal/domain"
)

func TestScoreAccuracyIsExact(t *testing.T) {
	e := NewEngine(DefaultConfig())
	for total := 1; total <= 12; total++ {
		for correct := 0; correct <= total; correct++ {
			s, err := e.Score(correct, total, []int64{3000})
			require.NoError(t, err)
			assert.Equal(t, 100*float64(correct)/float64(total), s.Accuracy)
			assert.GreaterOrEqual(t, s.Accuracy, 0.0)
			assert.LessOrEqual(t, s.Accuracy, 100.0)
		}
	}
}

func TestScoreRejectsInvalidInput(t *testing.T) {
	e := NewEngine(DefaultConfig())
	cases := []struct {
		name    string
		correct int
		total   int
		times   []int64
	}{
		{"zero total", 0, 0, nil},
		{"correct above total", 6, 5, nil},
		{"negative correct", -1, 5, nil},
		{"negative time", 1, 5, []int64{1000, -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Score(tc.correct, tc.total, tc.times)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		})
	}
}

func TestSpeedIsMonotonic(t *testing.T) {
	e := NewEngine(DefaultConfig())
	base := []int64{800, 1500, 2400, 3100}
	prev := 101.0
	for shift := int64(0); shift <= 8000; shift += 250 {
		times := make([]int64, len(base))
		for i, v := range base {
			times[i] = v + shift
		}
		s, err := e.Score(2, 4, times)
		require.NoError(t, err)
		assert.LessOrEqual(t, s.Speed, prev, "shift %d", shift)
		assert.GreaterOrEqual(t, s.Speed, 0.0)
		prev = s.Speed
	}
}

func TestSpeedCurveEndpoints(t *testing.T) {
	e := NewEngine(DefaultConfig())

	s, _ := e.Score(1, 1, []int64{1500})
	assert.Equal(t, 100.0, s.Speed)

	s, _ = e.Score(1, 1, []int64{7000})
	assert.Equal(t, 0.0, s.Speed)

	s, _ = e.Score(1, 1, []int64{4500})
	assert.InDelta(t, 50.0, s.Speed, 1e-9)

	s, _ = e.Score(1, 1, nil)
	assert.Equal(t, 0.0, s.Speed)
}

func TestConsistencyIdenticalTimes(t *testing.T) {
	e := NewEngine(DefaultConfig())
	for _, times := range [][]int64{nil, {2500}, {2500, 2500, 2500}} {
		s, err := e.Score(1, 3, times)
		require.NoError(t, err)
		assert.Equal(t, 100.0, s.Consistency)
		assert.Equal(t, 0.0, s.StdDev)
	}

	s, err := e.Score(2, 3, []int64{1000, 5000})
	require.NoError(t, err)
	assert.Less(t, s.Consistency, 100.0)
	// population std dev of {1000,5000} is 2000, cv 2/3
	assert.InDelta(t, 2000.0, s.StdDev, 1e-9)
	assert.InDelta(t, 100/(1+2.0*(2000.0/3000.0)), s.Consistency, 1e-9)
}

func TestScoreIsDeterministic(t *testing.T) {
	e := NewEngine(DefaultConfig())
	times := []int64{1234, 2345, 3456, 987}
	a, err := e.Score(3, 5, times)
	require.NoError(t, err)
	b, err := e.Score(3, 5, times)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	cfg := DefaultConfig()
	want := cfg.AccuracyWeight*a.Accuracy + cfg.SpeedWeight*a.Speed + cfg.ConsistencyWeight*a.Consistency
	assert.Equal(t, want, a.Final)
}

func TestTrackStreak(t *testing.T) {
	current, longest := TrackStreak([]bool{true, true, false, true, true, true, false, true})
	assert.Equal(t, 1, current)
	assert.Equal(t, 3, longest)

	current, longest = TrackStreak(nil)
	assert.Zero(t, current)
	assert.Zero(t, longest)
}

func TestRankCountsStrictlyGreater(t *testing.T) {
	completed := []float64{90, 80, 80}
	higher := func(score float64) int {
		n := 0
		for _, s := range completed {
			if s > score {
				n++
			}
		}
		return n
	}
	for score, want := range map[float64]int{80: 2, 95: 1, 10: 4} {
		rank, err := Rank(higher(score))
		require.NoError(t, err)
		assert.Equal(t, want, rank, "score %.0f", score)
	}
}

func TestRankRejectsNegativeCount(t *testing.T) {
	_, err := Rank(-1)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.SpeedWeight = 0.5
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.TimeBudget = cfg.InstantThreshold
	assert.Error(t, cfg.Validate())
}

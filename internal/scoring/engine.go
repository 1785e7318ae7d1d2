// Package scoring computes composite quiz scores, answer streaks, competitive
// rank and the fandom bonus awarded for a completed attempt. Everything here is
// pure and safe for concurrent use.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"time"

	"fanfirst-engagement-service/internal/domain"
)

// Config holds the weights and speed curve of the composite score.
type Config struct {
	AccuracyWeight         float64       `yaml:"accuracyWeight" toml:"accuracyWeight"`
	SpeedWeight            float64       `yaml:"speedWeight" toml:"speedWeight"`
	ConsistencyWeight      float64       `yaml:"consistencyWeight" toml:"consistencyWeight"`
	InstantThreshold       time.Duration `yaml:"-" toml:"-"`
	TimeBudget             time.Duration `yaml:"-" toml:"-"`
	ConsistencySensitivity float64       `yaml:"consistencySensitivity" toml:"consistencySensitivity"`
}

// DefaultConfig returns the production weights.
func DefaultConfig() Config {
	return Config{
		AccuracyWeight:         0.5,
		SpeedWeight:            0.3,
		ConsistencyWeight:      0.2,
		InstantThreshold:       2 * time.Second,
		TimeBudget:             7 * time.Second,
		ConsistencySensitivity: 2.0,
	}
}

// Validate checks that weights sum to one and the speed curve is well formed.
func (c Config) Validate() error {
	var errs []error
	if c.AccuracyWeight < 0 || c.SpeedWeight < 0 || c.ConsistencyWeight < 0 {
		errs = append(errs, errors.New("scoring weights must be non-negative"))
	}
	if sum := c.AccuracyWeight + c.SpeedWeight + c.ConsistencyWeight; math.Abs(sum-1) > 1e-9 {
		errs = append(errs, fmt.Errorf("scoring weights must sum to 1, got %.4f", sum))
	}
	if c.InstantThreshold < 0 || c.TimeBudget <= c.InstantThreshold {
		errs = append(errs, errors.New("scoring time budget must exceed instant threshold"))
	}
	if c.ConsistencySensitivity < 0 {
		errs = append(errs, errors.New("consistency sensitivity must be non-negative"))
	}
	return errors.Join(errs...)
}

// Scores is the full breakdown for one attempt. All scores are in [0,100].
type Scores struct {
	Accuracy    float64
	Speed       float64
	Consistency float64
	Final       float64
	AvgResponse float64 // ms
	StdDev      float64 // ms
}

// Engine scores attempts with a fixed Config.
type Engine struct {
	cfg Config
}

// NewEngine returns an Engine using cfg as given; call cfg.Validate first.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Score computes the composite score for correct answers out of total with the
// given per-answer response times in milliseconds.
func (e *Engine) Score(correct, total int, responseTimes []int64) (Scores, error) {
	if total <= 0 {
		return Scores{}, domain.InvalidInput("totalQuestions", "total questions must be positive")
	}
	if correct < 0 || correct > total {
		return Scores{}, domain.InvalidInput("correctAnswers", fmt.Sprintf("correct answers must be within [0,%d]", total))
	}
	for _, rt := range responseTimes {
		if rt < 0 {
			return Scores{}, domain.InvalidInput("responseTimes", "response times must be non-negative")
		}
	}

	avg, std := meanStdDev(responseTimes)
	s := Scores{
		Accuracy:    100 * float64(correct) / float64(total),
		AvgResponse: avg,
		StdDev:      std,
	}
	if len(responseTimes) > 0 {
		s.Speed = e.speed(avg)
	}
	s.Consistency = e.consistency(len(responseTimes), avg, std)
	s.Final = e.cfg.AccuracyWeight*s.Accuracy +
		e.cfg.SpeedWeight*s.Speed +
		e.cfg.ConsistencyWeight*s.Consistency
	return s, nil
}

// speed falls linearly from 100 at the instant threshold to 0 at the time budget.
func (e *Engine) speed(avgMs float64) float64 {
	floor := float64(e.cfg.InstantThreshold.Milliseconds())
	budget := float64(e.cfg.TimeBudget.Milliseconds())
	if avgMs <= floor {
		return 100
	}
	if avgMs >= budget {
		return 0
	}
	return clip(100*(budget-avgMs)/(budget-floor), 0, 100)
}

func (e *Engine) consistency(n int, avg, std float64) float64 {
	if n < 2 || std == 0 || avg == 0 {
		return 100
	}
	cv := std / avg
	return clip(100/(1+e.cfg.ConsistencySensitivity*cv), 0, 100)
}

func meanStdDev(values []int64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	mean := sum / float64(len(values))
	if len(values) < 2 {
		return mean, 0
	}
	var sq float64
	for _, v := range values {
		d := float64(v) - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

// TrackStreak walks correctness flags in order and returns the streak still
// running at the end and the longest streak seen.
func TrackStreak(correct []bool) (current, longest int) {
	for _, ok := range correct {
		if ok {
			current++
			if current > longest {
				longest = current
			}
			continue
		}
		current = 0
	}
	return current, longest
}

// Rank is one plus the number of completed attempts scoring strictly higher.
// Equal scores share a rank. A negative count is reported, not corrected.
func Rank(higher int) (int, error) {
	if higher < 0 {
		return 0, fmt.Errorf("rank: negative higher-score count %d", higher)
	}
	return higher + 1, nil
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

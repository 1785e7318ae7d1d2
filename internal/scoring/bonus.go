package scoring

import "fanfirst-engagement-service/internal/domain"

// BonusConfig sets the fandom points awarded for a completed attempt.
type BonusConfig struct {
	PointsPerCorrect int `yaml:"pointsPerCorrect" toml:"pointsPerCorrect"`
	StreakThreshold  int `yaml:"streakThreshold" toml:"streakThreshold"`
	StreakBonus      int `yaml:"streakBonus" toml:"streakBonus"`
	PerfectBonus     int `yaml:"perfectBonus" toml:"perfectBonus"`
	// MaxBonus caps the per-correct points of a single award. The streak and
	// perfect bonuses are added on top. Zero disables the cap.
	MaxBonus int `yaml:"maxBonus" toml:"maxBonus"`
}

// DefaultBonusConfig is 5 points per correct answer capped at 50, plus 10 for a
// streak above 3 and 10 for a perfect round.
func DefaultBonusConfig() BonusConfig {
	return BonusConfig{
		PointsPerCorrect: 5,
		StreakThreshold:  3,
		StreakBonus:      10,
		PerfectBonus:     10,
		MaxBonus:         50,
	}
}

// Bonus returns the fandom points earned by an attempt. The result is never negative.
func (c BonusConfig) Bonus(correct, total, maxStreak int, perfect bool) (int, error) {
	if correct < 0 || total < 0 || maxStreak < 0 {
		return 0, domain.InvalidInput("", "bonus inputs must be non-negative")
	}
	if correct > total {
		return 0, domain.InvalidInput("correctAnswers", "correct answers exceed total questions")
	}

	bonus := correct * c.PointsPerCorrect
	if c.MaxBonus > 0 && bonus > c.MaxBonus {
		bonus = c.MaxBonus
	}
	if maxStreak > c.StreakThreshold {
		bonus += c.StreakBonus
	}
	if perfect {
		bonus += c.PerfectBonus
	}
	if bonus < 0 {
		bonus = 0
	}
	return bonus, nil
}

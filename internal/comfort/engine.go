// Package comfort infers how familiar a visitor is with Web3 tooling from a
// handful of behavioral signals and turns that into UI steering decisions.
package comfort

import (
	"fanfirst-engagement-service/internal/domain"
)

// Tier awards Points once a signal count reaches Min. Only the highest
// matching tier of a table applies.
type Tier struct {
	Min    int
	Points int
}

// Weights is the scoring table. Tier slices must be sorted by ascending Min.
type Weights struct {
	WalletExtension           int
	ConnectedWithExtension    int
	ConnectedWithoutExtension int
	Transactions              []Tier
	SecondsPerUIPoint         int
	MaxUIPoints               int
	Sessions                  []Tier
	Failures                  []Tier // Points are negative
	OverrideScore             int
	NativeThreshold           int
	CuriousThreshold          int
}

// DefaultWeights are the production point tables and level thresholds.
func DefaultWeights() Weights {
	return Weights{
		WalletExtension:           30,
		ConnectedWithExtension:    25,
		ConnectedWithoutExtension: 15,
		Transactions:              []Tier{{1, 5}, {3, 12}, {5, 20}},
		SecondsPerUIPoint:         30,
		MaxUIPoints:               10,
		Sessions:                  []Tier{{2, 3}, {3, 5}, {5, 8}},
		Failures:                  []Tier{{1, -5}, {2, -10}, {4, -15}},
		OverrideScore:             5,
		NativeThreshold:           55,
		CuriousThreshold:          25,
	}
}

const (
	recommendNative  = "Show full Web3 experience with wallet connection"
	recommendCurious = "Offer choice between wallet and simplified payment"
	recommendNovice  = "Hide Web3 complexity, use embedded wallet"
)

// Engine is the deterministic rule-based scorer.
type Engine struct {
	w Weights
}

// NewEngine returns a rule engine scoring with w.
func NewEngine(w Weights) *Engine {
	return &Engine{w: w}
}

// Evaluate scores signals and maps the score to a level, confidence and UI flags.
func (e *Engine) Evaluate(s domain.UserSignals) (domain.ComfortResult, error) {
	if err := validateSignals(s); err != nil {
		return domain.ComfortResult{}, err
	}
	b := e.Breakdown(s)
	level := e.Level(b.Total)
	res := Decide(level)
	res.Score = b.Total
	res.Confidence = Confidence(s, b.Total)
	res.Breakdown = &b
	res.Source = domain.SourceRules
	return res, nil
}

// Breakdown computes each signal's contribution. Callers must validate signals first.
func (e *Engine) Breakdown(s domain.UserSignals) domain.ComfortBreakdown {
	var b domain.ComfortBreakdown
	if s.HasWalletExtension {
		b.WalletExtension = e.w.WalletExtension
	}
	if s.HasConnectedWalletBefore {
		if s.HasWalletExtension {
			b.ConnectedBefore = e.w.ConnectedWithExtension
		} else {
			b.ConnectedBefore = e.w.ConnectedWithoutExtension
		}
	}
	b.Transactions = tier(e.w.Transactions, s.PreviousTransactionCount)
	if e.w.SecondsPerUIPoint > 0 {
		b.TimeOnWeb3UI = min(s.TimeOnWeb3UI/e.w.SecondsPerUIPoint, e.w.MaxUIPoints)
	}
	b.ReturningUser = tier(e.w.Sessions, s.SessionCount)
	b.FailedPenalty = tier(e.w.Failures, s.FailedTransactions)

	if isBrandNew(s) {
		b.Total = e.w.OverrideScore
		b.OverrideApplied = true
		return b
	}
	total := b.WalletExtension + b.ConnectedBefore + b.Transactions +
		b.TimeOnWeb3UI + b.ReturningUser + b.FailedPenalty
	b.Total = max(0, min(100, total))
	return b
}

// Level thresholds are inclusive on the lower bound of each band.
func (e *Engine) Level(score int) domain.ComfortLevel {
	switch {
	case score >= e.w.NativeThreshold:
		return domain.ComfortNative
	case score >= e.w.CuriousThreshold:
		return domain.ComfortCurious
	default:
		return domain.ComfortNovice
	}
}

// Decide returns the UI contract for a level with score and confidence unset.
func Decide(level domain.ComfortLevel) domain.ComfortResult {
	switch level {
	case domain.ComfortNative:
		return domain.ComfortResult{Level: level, ShouldShowWallet: true, Recommendation: recommendNative}
	case domain.ComfortCurious:
		return domain.ComfortResult{Level: level, ShouldShowWallet: true, ShouldOfferEmbeddedWallet: true, Recommendation: recommendCurious}
	default:
		return domain.ComfortResult{Level: domain.ComfortNovice, ShouldOfferEmbeddedWallet: true, Recommendation: recommendNovice}
	}
}

// Confidence estimates how much the rule-based score can be trusted.
func Confidence(s domain.UserSignals, score int) float64 {
	c := 0.6
	if s.HasWalletExtension && s.HasConnectedWalletBefore {
		c += 0.25
	}
	if !s.HasWalletExtension && s.PreviousTransactionCount == 0 {
		c += 0.25
	}
	if score > 20 && score < 60 {
		c -= 0.15
	}
	if s.HasWalletExtension && s.FailedTransactions >= 2 {
		c -= 0.10
	}
	return clamp(c, 0.4, 0.95)
}

func isBrandNew(s domain.UserSignals) bool {
	return !s.HasWalletExtension && !s.HasConnectedWalletBefore &&
		s.PreviousTransactionCount == 0 && s.SessionCount <= 1
}

func tier(tiers []Tier, n int) int {
	points := 0
	for _, t := range tiers {
		if n >= t.Min {
			points = t.Points
		}
	}
	return points
}

func validateSignals(s domain.UserSignals) error {
	switch {
	case s.PreviousTransactionCount < 0:
		return domain.InvalidInput("previousTransactionCount", "must be non-negative")
	case s.TimeOnWeb3UI < 0:
		return domain.InvalidInput("timeOnWeb3UI", "must be non-negative")
	case s.FailedTransactions < 0:
		return domain.InvalidInput("failedTransactions", "must be non-negative")
	case s.SessionCount < 0:
		return domain.InvalidInput("sessionCount", "must be non-negative")
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

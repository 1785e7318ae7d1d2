package comfort

import (
	"context"
	"fmt"
	"log/slog"

	"fanfirst-engagement-service/internal/domain"
	"fanfirst-engagement-service/internal/guard"
)

const (
	// EscalationConfidence is the rule confidence at or above which no second opinion is sought.
	EscalationConfidence = 0.75
	clearNoviceBelow     = 15
	clearNativeAbove     = 70
	maxConfidence        = 0.95
)

// Rule short-circuit reasons.
const (
	ReasonHighConfidence = "high-confidence"
	ReasonClearNovice    = "clear-novice"
	ReasonClearNative    = "clear-native"
	ReasonNoEscalator    = "escalation-disabled"
)

// Escalator is an external classifier consulted for ambiguous scores.
type Escalator interface {
	ClassifyComfort(ctx context.Context, req domain.ComfortEscalation) (domain.ComfortResult, error)
}

// Classifier trusts the rule engine when it can and escalates otherwise.
type Classifier struct {
	engine    *Engine
	escalator Escalator
	policy    guard.Policy
	logger    *slog.Logger
}

// NewClassifier wires the engine to an optional escalator. A nil escalator
// keeps every decision rule-based.
func NewClassifier(engine *Engine, escalator Escalator, policy guard.Policy, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if policy.Logger == nil {
		policy.Logger = logger
	}
	return &Classifier{engine: engine, escalator: escalator, policy: policy, logger: logger}
}

// ShouldEscalate applies the escalation policy in order: confident rules win,
// then clear novices, then clear natives.
func ShouldEscalate(score int, confidence float64) (bool, string) {
	switch {
	case confidence >= EscalationConfidence:
		return false, ReasonHighConfidence
	case score < clearNoviceBelow:
		return false, ReasonClearNovice
	case score > clearNativeAbove:
		return false, ReasonClearNative
	}
	return true, ""
}

// Classify always returns a usable result unless the signals themselves are invalid.
func (c *Classifier) Classify(ctx context.Context, s domain.UserSignals) (domain.ComfortResult, error) {
	rules, err := c.engine.Evaluate(s)
	if err != nil {
		return domain.ComfortResult{}, err
	}

	escalate, reason := ShouldEscalate(rules.Score, rules.Confidence)
	if !escalate {
		rules.Reason = reason
		return rules, nil
	}
	if c.escalator == nil {
		rules.Reason = ReasonNoEscalator
		return rules, nil
	}

	req := domain.ComfortEscalation{Signals: s, RuleBasedScore: rules.Score, Breakdown: *rules.Breakdown}
	res := guard.Call(ctx, c.policy, func(ctx context.Context) (domain.ComfortResult, error) {
		return c.escalator.ClassifyComfort(ctx, req)
	}, c.validate, domain.ComfortResult{})

	if res.Fallback {
		out := rules
		out.Source = domain.SourceFallback
		out.Reason = res.Reason
		return out, nil
	}
	return merge(rules, res.Value), nil
}

func (c *Classifier) validate(r domain.ComfortResult) error {
	if !r.Level.Valid() {
		return domain.Malformed(c.policy.Service, fmt.Sprintf("unknown level %q", r.Level))
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return domain.Malformed(c.policy.Service, fmt.Sprintf("confidence %.3f out of range", r.Confidence))
	}
	return nil
}

// merge keeps the rule score and breakdown and never lets the external answer lower confidence.
func merge(rules, ext domain.ComfortResult) domain.ComfortResult {
	out := ext
	out.Score = rules.Score
	out.Breakdown = rules.Breakdown
	out.Confidence = min(max(ext.Confidence, rules.Confidence), maxConfidence)
	out.Source = domain.SourceAI
	out.Reason = ""
	if out.Recommendation == "" {
		out.Recommendation = Decide(out.Level).Recommendation
	}
	return out
}

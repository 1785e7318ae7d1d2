package comfort

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fanfirst-engagement-service/internal/domain"
)

func TestBrandNewVisitorOverride(t *testing.T) {
	e := NewEngine(DefaultWeights())
	res, err := e.Evaluate(domain.UserSignals{SessionCount: 1})
	require.NoError(t, err)

	assert.Equal(t, DefaultWeights().OverrideScore, res.Score)
	assert.Equal(t, domain.ComfortNovice, res.Level)
	assert.False(t, res.ShouldShowWallet)
	assert.True(t, res.ShouldOfferEmbeddedWallet)
	assert.True(t, res.Breakdown.OverrideApplied)
}

func TestExperiencedUserIsNative(t *testing.T) {
	e := NewEngine(DefaultWeights())
	res, err := e.Evaluate(domain.UserSignals{
		HasWalletExtension:       true,
		HasConnectedWalletBefore: true,
		PreviousTransactionCount: 5,
		TimeOnWeb3UI:             300,
		SessionCount:             5,
	})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, res.Score, 55)
	assert.Equal(t, 93, res.Score)
	assert.Equal(t, domain.ComfortNative, res.Level)
	assert.GreaterOrEqual(t, res.Confidence, EscalationConfidence)
	assert.True(t, res.ShouldShowWallet)
	assert.False(t, res.ShouldOfferEmbeddedWallet)
}

func TestBreakdownTiers(t *testing.T) {
	e := NewEngine(DefaultWeights())
	b := e.Breakdown(domain.UserSignals{
		HasConnectedWalletBefore: true,
		PreviousTransactionCount: 4,
		TimeOnWeb3UI:             95,
		FailedTransactions:       3,
		SessionCount:             3,
	})
	assert.Equal(t, 0, b.WalletExtension)
	assert.Equal(t, 15, b.ConnectedBefore)
	assert.Equal(t, 12, b.Transactions)
	assert.Equal(t, 3, b.TimeOnWeb3UI)
	assert.Equal(t, 5, b.ReturningUser)
	assert.Equal(t, -10, b.FailedPenalty)
	assert.Equal(t, 25, b.Total)
	assert.Equal(t, domain.ComfortCurious, e.Level(b.Total))
}

func TestScoreAlwaysClamped(t *testing.T) {
	w := DefaultWeights()
	w.WalletExtension = 90
	w.Failures = []Tier{{1, -200}}
	e := NewEngine(w)

	for _, ext := range []bool{false, true} {
		for _, conn := range []bool{false, true} {
			for _, tx := range []int{0, 1, 3, 5, 50} {
				for _, fail := range []int{0, 1, 2, 4, 10} {
					for _, sessions := range []int{0, 1, 2, 5} {
						s := domain.UserSignals{
							HasWalletExtension:       ext,
							HasConnectedWalletBefore: conn,
							PreviousTransactionCount: tx,
							TimeOnWeb3UI:             100000,
							FailedTransactions:       fail,
							SessionCount:             sessions,
						}
						for _, eng := range []*Engine{e, NewEngine(DefaultWeights())} {
							res, err := eng.Evaluate(s)
							require.NoError(t, err)
							assert.GreaterOrEqual(t, res.Score, 0)
							assert.LessOrEqual(t, res.Score, 100)
							assert.GreaterOrEqual(t, res.Confidence, 0.4)
							assert.LessOrEqual(t, res.Confidence, 0.95)
						}
					}
				}
			}
		}
	}
}

func TestLevelBoundaries(t *testing.T) {
	e := NewEngine(DefaultWeights())
	assert.Equal(t, domain.ComfortNovice, e.Level(24))
	assert.Equal(t, domain.ComfortCurious, e.Level(25))
	assert.Equal(t, domain.ComfortCurious, e.Level(54))
	assert.Equal(t, domain.ComfortNative, e.Level(55))
}

func TestConfidenceAdjustments(t *testing.T) {
	assert.InDelta(t, 0.45, Confidence(domain.UserSignals{HasWalletExtension: true}, 40), 1e-9)
	assert.InDelta(t, 0.75, Confidence(domain.UserSignals{HasWalletExtension: true, HasConnectedWalletBefore: true, FailedTransactions: 2}, 70), 1e-9)
	assert.InDelta(t, 0.4, Confidence(domain.UserSignals{HasWalletExtension: true, FailedTransactions: 3}, 30), 1e-9)
	assert.InDelta(t, 0.85, Confidence(domain.UserSignals{}, 5), 1e-9)
}

func TestEvaluateRejectsNegativeCounts(t *testing.T) {
	e := NewEngine(DefaultWeights())
	_, err := e.Evaluate(domain.UserSignals{SessionCount: -1})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

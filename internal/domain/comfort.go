package domain

// ComfortLevel is the inferred Web3 familiarity of a visitor.
type ComfortLevel string

const (
	ComfortNovice  ComfortLevel = "novice"
	ComfortCurious ComfortLevel = "curious"
	ComfortNative  ComfortLevel = "native"
)

// Valid reports whether l is one of the three known levels.
func (l ComfortLevel) Valid() bool {
	switch l {
	case ComfortNovice, ComfortCurious, ComfortNative:
		return true
	}
	return false
}

// UserSignals is a point-in-time behavioral snapshot computed by the caller.
type UserSignals struct {
	HasWalletExtension       bool `json:"hasWalletExtension"`
	HasConnectedWalletBefore bool `json:"hasConnectedWalletBefore"`
	PreviousTransactionCount int  `json:"previousTransactionCount"`
	TimeOnWeb3UI             int  `json:"timeOnWeb3UI"` // seconds
	FailedTransactions       int  `json:"failedTransactions"`
	SessionCount             int  `json:"sessionCount"`
}

// ComfortBreakdown lists each signal's contribution to the comfort score.
type ComfortBreakdown struct {
	WalletExtension int  `json:"walletExtension"`
	ConnectedBefore int  `json:"connectedBefore"`
	Transactions    int  `json:"transactions"`
	TimeOnWeb3UI    int  `json:"timeOnWeb3UI"`
	ReturningUser   int  `json:"returningUser"`
	FailedPenalty   int  `json:"failedPenalty"`
	Total           int  `json:"total"`
	OverrideApplied bool `json:"overrideApplied,omitempty"`
}

// ComfortSource records which path produced a ComfortResult.
type ComfortSource string

const (
	SourceRules    ComfortSource = "rules"
	SourceAI       ComfortSource = "ai"
	SourceFallback ComfortSource = "fallback"
)

// ComfortResult is the classification handed to the UI layer.
type ComfortResult struct {
	Level                     ComfortLevel      `json:"level"`
	Score                     int               `json:"score"`
	Confidence                float64           `json:"confidence"`
	ShouldShowWallet          bool              `json:"shouldShowWallet"`
	ShouldOfferEmbeddedWallet bool              `json:"shouldOfferEmbeddedWallet"`
	Recommendation            string            `json:"recommendation"`
	Reasoning                 string            `json:"reasoning,omitempty"`
	Breakdown                 *ComfortBreakdown `json:"breakdown,omitempty"`
	Source                    ComfortSource     `json:"source"`
	Reason                    string            `json:"reason,omitempty"`
}

// ComfortEscalation is the context handed to an external classifier for an ambiguous case.
type ComfortEscalation struct {
	Signals        UserSignals      `json:"signals"`
	RuleBasedScore int              `json:"ruleBasedScore"`
	Breakdown      ComfortBreakdown `json:"breakdown"`
}

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fanfirst-engagement-service/internal/comfort"
	"fanfirst-engagement-service/internal/domain"
)

// NewComfortCmd scores a signal vector with the rule engine and prints the
// breakdown. Handy for tuning thresholds without running the server.
func NewComfortCmd(v *viper.Viper) *cobra.Command {
	var s domain.UserSignals
	cmd := &cobra.Command{
		Use:   "comfort",
		Short: "Classify Web3 comfort from signals using the rule engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			w := comfort.DefaultWeights()
			w.NativeThreshold = cfg.Comfort.NativeThreshold
			w.CuriousThreshold = cfg.Comfort.CuriousThreshold
			res, err := comfort.NewEngine(w).Evaluate(s)
			if err != nil {
				return err
			}
			printComfort(cmd.OutOrStdout(), res)
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&s.HasWalletExtension, "extension", false, "wallet browser extension detected")
	f.BoolVar(&s.HasConnectedWalletBefore, "connected", false, "wallet connected in a previous session")
	f.IntVar(&s.PreviousTransactionCount, "tx", 0, "completed on-chain transactions")
	f.IntVar(&s.TimeOnWeb3UI, "ui-seconds", 0, "seconds spent on Web3 screens")
	f.IntVar(&s.FailedTransactions, "failed", 0, "failed transactions")
	f.IntVar(&s.SessionCount, "sessions", 0, "sessions so far")
	return cmd
}

type comfortStyles struct {
	header  lipgloss.Style
	native  lipgloss.Style
	curious lipgloss.Style
	novice  lipgloss.Style
	dim     lipgloss.Style
}

func newComfortStyles() comfortStyles {
	return comfortStyles{
		header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		native:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		curious: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		novice:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (s comfortStyles) level(l domain.ComfortLevel) lipgloss.Style {
	switch l {
	case domain.ComfortNative:
		return s.native
	case domain.ComfortCurious:
		return s.curious
	default:
		return s.novice
	}
}

func printComfort(out io.Writer, res domain.ComfortResult) {
	st := newComfortStyles()
	fmt.Fprintln(out, st.header.Render("Web3 comfort"))
	fmt.Fprintf(out, "  level       %s\n", st.level(res.Level).Render(strings.ToUpper(string(res.Level))))
	fmt.Fprintf(out, "  score       %d/100\n", res.Score)
	fmt.Fprintf(out, "  confidence  %.2f\n", res.Confidence)
	fmt.Fprintf(out, "  wallet      show=%t embedded=%t\n", res.ShouldShowWallet, res.ShouldOfferEmbeddedWallet)
	fmt.Fprintf(out, "  advice      %s\n", res.Recommendation)

	if b := res.Breakdown; b != nil {
		fmt.Fprintln(out, st.header.Render("Breakdown"))
		rows := []struct {
			name  string
			value int
		}{
			{"wallet extension", b.WalletExtension},
			{"connected before", b.ConnectedBefore},
			{"transactions", b.Transactions},
			{"time on web3 ui", b.TimeOnWeb3UI},
			{"returning user", b.ReturningUser},
			{"failed penalty", b.FailedPenalty},
		}
		for _, r := range rows {
			fmt.Fprintf(out, "  %-17s %s\n", r.name, st.dim.Render(fmt.Sprintf("%+d", r.value)))
		}
		if b.OverrideApplied {
			fmt.Fprintln(out, st.dim.Render("  brand-new visitor: score overridden"))
		}
	}
	if escalate, _ := comfort.ShouldEscalate(res.Score, res.Confidence); escalate {
		fmt.Fprintln(out, st.dim.Render("  ambiguous: the server would ask the AI classifier"))
	}
}

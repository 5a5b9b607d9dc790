package backtest

import "github.com/pairlens/pairlens/internal/models"

// Mode identifies which strategy a run used.
type Mode string

const (
	ModePairSpread  Mode = "pair_spread"
	ModeMomentumRSI Mode = "momentum_rsi"
)

// Strategy is a tagged variant: exactly one concrete strategy type exists
// per mode, each carrying its own config and inputs. Dispatch is an explicit
// type switch, not duck-typing on an optional mode field.
type Strategy interface {
	Mode() Mode
}

// PairSpread runs the two-leg mean-reversion engine.
type PairSpread struct {
	PrimarySymbol   string
	SecondarySymbol string
	Primary         []float64
	Secondary       []float64
	Config          Config
}

// Mode implements Strategy.
func (PairSpread) Mode() Mode { return ModePairSpread }

// MomentumRSI runs the single-instrument scanner variant.
type MomentumRSI struct {
	Symbol  string
	Candles []models.Candle
	Config  MomentumConfig
}

// Mode implements Strategy.
func (MomentumRSI) Mode() Mode { return ModeMomentumRSI }

// RunResult wraps either strategy's output so calling code can treat both
// uniformly through the shared summary.
type RunResult struct {
	Mode     Mode            `json:"mode"`
	Pair     *Result         `json:"pair,omitempty"`
	Momentum *MomentumResult `json:"momentum,omitempty"`
}

// Summary returns the shared statistics of whichever strategy ran.
func (r RunResult) Summary() Summary {
	switch r.Mode {
	case ModePairSpread:
		return r.Pair.Summary
	case ModeMomentumRSI:
		return r.Momentum.Summary
	default:
		return Summary{}
	}
}

// EquityCurve returns the equity curve of whichever strategy ran.
func (r RunResult) EquityCurve() []float64 {
	switch r.Mode {
	case ModePairSpread:
		return r.Pair.EquityCurve
	case ModeMomentumRSI:
		return r.Momentum.EquityCurve
	default:
		return nil
	}
}

// RunStrategy dispatches to the concrete engine for the given variant.
func RunStrategy(s Strategy) RunResult {
	switch v := s.(type) {
	case PairSpread:
		return RunResult{Mode: ModePairSpread, Pair: Run(v.Primary, v.Secondary, v.PrimarySymbol, v.SecondarySymbol, v.Config)}
	case *PairSpread:
		return RunStrategy(*v)
	case MomentumRSI:
		return RunResult{Mode: ModeMomentumRSI, Momentum: RunMomentum(v.Candles, v.Symbol, v.Config)}
	case *MomentumRSI:
		return RunStrategy(*v)
	default:
		return RunResult{}
	}
}

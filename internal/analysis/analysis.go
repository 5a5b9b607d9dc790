// Package analysis orchestrates the statistical pipeline that turns two raw
// close-price series into a single scored pair-trading opportunity.
package analysis

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/pairlens/pairlens/internal/meanrev"
	"github.com/pairlens/pairlens/internal/signal"
	"github.com/pairlens/pairlens/internal/stats"
)

// Options toggles the enrichment steps and carries their window sizes. The
// zero value enables everything with default windows.
type Options struct {
	MeanRev    meanrev.Config
	Velocity   signal.VelocityConfig
	Volatility signal.VolatilityConfig

	DisableVelocity   bool
	DisableVolatility bool
}

// DefaultOptions returns fully populated analysis options.
func DefaultOptions() Options {
	return Options{
		MeanRev:    meanrev.DefaultConfig(),
		Velocity:   signal.DefaultVelocityConfig(),
		Volatility: signal.DefaultVolatilityConfig(),
	}
}

// normalize fills in any zero-valued windows so partially specified options
// behave like defaults. Each option is defaulted independently.
func (o Options) normalize() Options {
	def := DefaultOptions()
	if o.MeanRev.RollingBetaWindow == 0 {
		o.MeanRev.RollingBetaWindow = def.MeanRev.RollingBetaWindow
	}
	if o.MeanRev.RollingBetaMinWindow == 0 {
		o.MeanRev.RollingBetaMinWindow = def.MeanRev.RollingBetaMinWindow
	}
	if o.MeanRev.ADFCriticalValue == 0 {
		o.MeanRev.ADFCriticalValue = def.MeanRev.ADFCriticalValue
	}
	if o.MeanRev.MinHalfLifeBars == 0 {
		o.MeanRev.MinHalfLifeBars = def.MeanRev.MinHalfLifeBars
	}
	if o.MeanRev.MaxHalfLifeBars == 0 {
		o.MeanRev.MaxHalfLifeBars = def.MeanRev.MaxHalfLifeBars
	}
	if o.Velocity.Window == 0 {
		o.Velocity.Window = def.Velocity.Window
	}
	if o.Velocity.Lookback == 0 {
		o.Velocity.Lookback = def.Velocity.Lookback
	}
	if o.Volatility.Lookback == 0 {
		o.Volatility.Lookback = def.Volatility.Lookback
	}
	return o
}

// ReversionProbability estimates the chance the current spread divergence
// closes within LookaheadBars. Method records provenance: "history" when a
// scorer collaborator resolved it from past outcomes, "fallback" when the
// built-in heuristic produced it.
type ReversionProbability struct {
	Probability   float64 `json:"probability"`
	LookaheadBars int     `json:"lookahead_bars"`
	SampleSize    int     `json:"sample_size"`
	Wins          int     `json:"wins"`
	Method        string  `json:"method"`
}

const (
	MethodHistory  = "history"
	MethodFallback = "fallback"
)

// fallbackLookaheadBars is the horizon the heuristic estimate assumes.
const fallbackLookaheadBars = 10

// ReversionScorer resolves a reversion probability from historical outcomes.
// Implementations return ok=false when they lack enough samples, in which
// case the analyzer falls back to its own heuristic.
type ReversionScorer interface {
	Score(result *Result) (prob ReversionProbability, notes []string, ok bool)
}

// Result is the complete scored record for one (primary, candidate) pair.
// It is constructed fresh on every call and never mutated afterwards.
type Result struct {
	Symbol        string `json:"symbol"`
	PrimarySymbol string `json:"primary_symbol"`

	Correlation  float64 `json:"correlation"`
	SpreadMean   float64 `json:"spread_mean"`
	SpreadStd    float64 `json:"spread_std"`
	SpreadZScore float64 `json:"spread_zscore"`
	Beta         float64 `json:"beta"`

	Stationarity meanrev.Result          `json:"stationarity"`
	Reversion    ReversionProbability    `json:"reversion"`
	Volatility   signal.VolatilityResult `json:"volatility"`
	Velocity     signal.VelocityResult   `json:"velocity"`
	Confluence   signal.ConfluenceResult `json:"confluence"`

	OpportunityScore int      `json:"opportunity_score"` // 0-100
	Notes            []string `json:"notes"`

	AlignedBars int       `json:"aligned_bars"`
	DroppedBars int       `json:"dropped_bars"`
	AnalyzedAt  time.Time `json:"analyzed_at"`
}

// Analyzer runs the pair-analysis pipeline. The scorer collaborator is
// optional; pass nil to always use the fallback probability heuristic.
type Analyzer struct {
	opts   Options
	scorer ReversionScorer
	logger *zap.Logger
}

// NewAnalyzer creates an analyzer with the given options and collaborators.
func NewAnalyzer(opts Options, scorer ReversionScorer, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{opts: opts.normalize(), scorer: scorer, logger: logger}
}

// AnalyzePair scores one candidate against the primary instrument. Inputs
// are chronologically ordered close prices; dirty values are dropped by
// alignment before any log math runs.
func (a *Analyzer) AnalyzePair(primary, candidate []float64, primarySymbol, candidateSymbol string) *Result {
	aligned := stats.AlignSeries(primary, candidate, stats.DefaultAlignOptions())

	res := &Result{
		Symbol:        candidateSymbol,
		PrimarySymbol: primarySymbol,
		AlignedBars:   len(aligned.Primary),
		DroppedBars:   aligned.Dropped,
		AnalyzedAt:    time.Now().UTC(),
	}

	if len(aligned.Primary) < 2 {
		res.Reversion = ReversionProbability{Method: MethodFallback}
		res.Velocity = signal.VelocityResult{Regime: signal.RegimeStable}
		res.Volatility = signal.VolatilityResult{Quality: signal.QualityInsufficientData}
		res.Notes = []string{"Insufficient data: fewer than 2 aligned price points"}
		return res
	}

	primaryReturns := stats.Returns(aligned.Primary)
	candidateReturns := stats.Returns(aligned.Secondary)
	res.Correlation = stats.PearsonCorrelation(primaryReturns, candidateReturns)

	res.Stationarity = meanrev.Analyze(aligned.Primary, aligned.Secondary, a.opts.MeanRev)
	res.Beta = res.Stationarity.Beta

	z := stats.ZScore(res.Stationarity.Spread)
	res.SpreadMean = z.Mean
	res.SpreadStd = z.Std
	res.SpreadZScore = z.ZScore

	if a.opts.DisableVelocity {
		res.Velocity = signal.VelocityResult{Regime: signal.RegimeStable}
	} else {
		res.Velocity = signal.CorrelationVelocity(primaryReturns, candidateReturns, a.opts.Velocity)
	}

	if a.opts.DisableVolatility {
		res.Volatility = signal.VolatilityResult{Quality: signal.QualityInsufficientData}
	} else {
		res.Volatility = signal.VolatilityAdjustedSpread(aligned.Primary, aligned.Secondary, a.opts.Volatility)
	}

	res.Confluence = signal.Confluence(res.SpreadZScore, res.Velocity.Regime, res.Volatility.Quality)

	base := a.baseScore(res)
	res.Reversion, res.Notes = a.scoreReversion(res)
	res.Notes = append(res.Notes, buildNotes(res)...)

	res.OpportunityScore = combineScores(base, res.Reversion.Probability)
	if !res.Stationarity.IsMeanReverting {
		res.OpportunityScore = 0
	}

	a.logger.Debug("pair analyzed",
		zap.String("symbol", candidateSymbol),
		zap.String("primary", primarySymbol),
		zap.Float64("correlation", res.Correlation),
		zap.Float64("zscore", res.SpreadZScore),
		zap.Bool("mean_reverting", res.Stationarity.IsMeanReverting),
		zap.Int("score", res.OpportunityScore),
	)

	return res
}

// baseScore blends spread extremity, volatility-adjusted signal strength and
// correlation magnitude 45/30/25 into a 0-100 value. The weights are tuned
// constants, preserved as literals.
func (a *Analyzer) baseScore(res *Result) float64 {
	spreadOpportunity := math.Min(1, math.Abs(res.SpreadZScore)/3) * 100

	score := 0.45*spreadOpportunity +
		0.30*res.Volatility.SignalStrength +
		0.25*math.Abs(res.Correlation)*100

	return clampScore(score)
}

// scoreReversion asks the scorer collaborator for a history-backed estimate
// and falls back to the built-in heuristic when none is available.
func (a *Analyzer) scoreReversion(res *Result) (ReversionProbability, []string) {
	if a.scorer != nil {
		if prob, notes, ok := a.scorer.Score(res); ok {
			return prob, notes
		}
	}
	return a.fallbackProbability(res), nil
}

// fallbackProbability blends z-strength and correlation strength, subtracts
// a volatility penalty, and collapses the estimate when the stationarity
// gate failed.
func (a *Analyzer) fallbackProbability(res *Result) ReversionProbability {
	zComponent := math.Min(1, math.Abs(res.SpreadZScore)/3)
	corrComponent := math.Abs(res.Correlation)
	volPenalty := math.Min(0.3, res.Volatility.CombinedVol*5)

	p := 0.55*zComponent + 0.45*corrComponent - volPenalty
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	if !res.Stationarity.IsMeanReverting {
		p *= 0.15
	}

	return ReversionProbability{
		Probability:   p,
		LookaheadBars: fallbackLookaheadBars,
		Method:        MethodFallback,
	}
}

// combineScores folds the base score and the probability estimate into the
// final 0-100 opportunity score. Probability dominates: 15/85.
func combineScores(base, probability float64) int {
	return int(math.Round(clampScore(base*0.15 + probability*100*0.85)))
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// Candidate pairs a symbol with its resolved close-price history.
type Candidate struct {
	Symbol string
	Closes []float64
}

// ScanUniverse analyzes every candidate against the primary instrument
// sequentially and returns results sorted by opportunity score descending.
// Callers wanting parallel fetch should resolve the close arrays first; the
// analysis itself is deterministic and cheap relative to I/O.
func (a *Analyzer) ScanUniverse(primarySymbol string, primary []float64, candidates []Candidate) []*Result {
	results := make([]*Result, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, a.AnalyzePair(primary, c.Closes, primarySymbol, c.Symbol))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].OpportunityScore > results[j].OpportunityScore
	})
	return results
}

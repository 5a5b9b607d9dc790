// Package history estimates reversion probability from a pair's own past:
// how often did spread excursions like the current one actually close within
// the lookahead horizon.
package history

import (
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/pairlens/pairlens/internal/analysis"
	"github.com/pairlens/pairlens/internal/stats"
)

const (
	// DefaultLookaheadBars is how far forward an excursion may resolve.
	DefaultLookaheadBars = 10
	// DefaultMinSamples is the fewest past episodes worth trusting.
	DefaultMinSamples = 5

	// An excursion counts as reverted once |z| falls back to half the
	// entry threshold.
	revertedFraction = 0.5
)

// Scorer implements analysis.ReversionScorer over registered price series.
// Series are registered per symbol before analysis runs; Score resolves the
// pair named in the result from that store.
type Scorer struct {
	mu         sync.RWMutex
	series     map[string][]float64
	lookahead  int
	minSamples int
	logger     *zap.Logger
}

// NewScorer creates a scorer with default lookahead and sample floor.
func NewScorer(logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{
		series:     make(map[string][]float64),
		lookahead:  DefaultLookaheadBars,
		minSamples: DefaultMinSamples,
		logger:     logger,
	}
}

// SetSeries registers the close-price history for a symbol.
func (s *Scorer) SetSeries(symbol string, closes []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series[symbol] = closes
}

// Score counts past excursions at least as extreme as the current z-score
// and how many of them reverted within the lookahead. Returns ok=false when
// either symbol has no registered history or too few episodes exist.
func (s *Scorer) Score(res *analysis.Result) (analysis.ReversionProbability, []string, bool) {
	s.mu.RLock()
	primary, okP := s.series[res.PrimarySymbol]
	secondary, okS := s.series[res.Symbol]
	s.mu.RUnlock()

	if !okP || !okS {
		return analysis.ReversionProbability{}, nil, false
	}

	aligned := stats.AlignSeries(primary, secondary, stats.DefaultAlignOptions())
	if len(aligned.Primary) < s.lookahead+2 {
		return analysis.ReversionProbability{}, nil, false
	}

	threshold := clampThreshold(math.Abs(res.SpreadZScore))
	spread := stats.Spread(aligned.Primary, aligned.Secondary)
	zSeries := zScoreSeries(spread)

	wins, samples := countEpisodes(zSeries, threshold, s.lookahead)
	if samples < s.minSamples {
		s.logger.Debug("too few historical episodes",
			zap.String("symbol", res.Symbol),
			zap.Float64("threshold", threshold),
			zap.Int("samples", samples))
		return analysis.ReversionProbability{}, nil, false
	}

	prob := float64(wins) / float64(samples)
	if !res.Stationarity.IsMeanReverting {
		prob *= 0.15
	}

	notes := []string{
		"Historical reversion: " + ratioNote(wins, samples, s.lookahead),
	}

	return analysis.ReversionProbability{
		Probability:   prob,
		LookaheadBars: s.lookahead,
		SampleSize:    samples,
		Wins:          wins,
		Method:        analysis.MethodHistory,
	}, notes, true
}

// clampThreshold keeps the episode threshold in a band where a calm spread
// still yields comparable episodes and an extreme one is not unmatchable.
func clampThreshold(z float64) float64 {
	if z < 1 {
		return 1
	}
	if z > 3 {
		return 3
	}
	return z
}

// zScoreSeries standardizes the spread against its own full-history moments.
func zScoreSeries(spread []float64) []float64 {
	mean := stats.Mean(spread)
	std := stats.StdDevWithMean(spread, mean)
	out := make([]float64, len(spread))
	if std < stats.Epsilon {
		return out
	}
	for i, v := range spread {
		out[i] = (v - mean) / std
	}
	return out
}

// countEpisodes walks the z-series for upward crossings of the threshold and
// checks whether |z| came back to half the threshold within the lookahead.
// Crossings too close to the end to resolve are skipped.
func countEpisodes(z []float64, threshold float64, lookahead int) (wins, samples int) {
	for i := 1; i < len(z); i++ {
		if math.Abs(z[i-1]) >= threshold || math.Abs(z[i]) < threshold {
			continue
		}
		if i+lookahead >= len(z) {
			break
		}

		samples++
		for j := i + 1; j <= i+lookahead; j++ {
			if math.Abs(z[j]) <= revertedFraction*threshold {
				wins++
				break
			}
		}
	}
	return wins, samples
}

func ratioNote(wins, samples, lookahead int) string {
	pct := int(math.Round(100 * float64(wins) / float64(samples)))
	return fmt.Sprintf("%d/%d similar excursions reverted within %d bars (%d%%)", wins, samples, lookahead, pct)
}

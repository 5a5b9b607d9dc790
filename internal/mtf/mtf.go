// Package mtf aggregates pair analyses across multiple timeframes into one
// confidence-rated confluence result. A signal that looks the same on the
// 5-minute, 15-minute and hourly charts is worth more than any single view.
package mtf

import (
	"math"
	"time"

	"github.com/pairlens/pairlens/internal/analysis"
	"github.com/pairlens/pairlens/internal/models"
	"github.com/pairlens/pairlens/internal/signal"
	"github.com/pairlens/pairlens/internal/stats"
)

// Confidence grades how trustworthy the multi-timeframe agreement is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceMixed  Confidence = "mixed"
)

// DefaultIntervals is the standard timeframe ladder for confluence scans.
var DefaultIntervals = []string{"5m", "15m", "1h", "4h"}

// nativeWeights carries the hand-tuned weights for the common intervals;
// anything else interpolates logarithmically between 1m=0.5 and 1h=1.0.
var nativeWeights = map[string]float64{
	"1m":  0.5,
	"5m":  0.7,
	"15m": 0.83,
	"30m": 0.92,
	"1h":  1.0,
}

// alignedMajorityShare is the vote share required to call directions aligned.
const alignedMajorityShare = 0.6

// IntervalSeries is the resolved close-price input for one timeframe.
type IntervalSeries struct {
	Interval  string
	Primary   []float64
	Candidate []float64
}

// IntervalResult pairs one timeframe's analysis with its weight.
type IntervalResult struct {
	Interval string           `json:"interval"`
	Weight   float64          `json:"weight"`
	Result   *analysis.Result `json:"result"`
}

// Result is one candidate's multi-timeframe rollup.
type Result struct {
	Symbol        string `json:"symbol"`
	PrimarySymbol string `json:"primary_symbol"`

	Intervals []IntervalResult `json:"intervals"`

	Score      float64    `json:"score"` // 0-100
	Confidence Confidence `json:"confidence"`

	Direction         signal.Direction `json:"direction"`
	AlignedCount      int              `json:"aligned_count"`
	AlignmentStrength float64          `json:"alignment_strength"` // majority vote share

	WeightedOpportunity float64 `json:"weighted_opportunity"`
	ZAgreement          float64 `json:"z_agreement"`
	CorrAgreement       float64 `json:"corr_agreement"`
	QualityAgreement    float64 `json:"quality_agreement"`

	BestInterval  string    `json:"best_interval"`
	WorstInterval string    `json:"worst_interval"`
	AnalyzedAt    time.Time `json:"analyzed_at"`
}

// IntervalWeight returns the confluence weight of a timeframe. Native
// intervals use the tuned table; others interpolate 0.5 + 0.5*ln(m)/ln(60),
// clamped to [0.5, 1.0]. Unparsable intervals take the midpoint.
func IntervalWeight(interval string) float64 {
	if w, ok := nativeWeights[interval]; ok {
		return w
	}

	minutes := models.IntervalMinutes(interval)
	if minutes <= 0 {
		return 0.75
	}

	w := 0.5 + 0.5*math.Log(float64(minutes))/math.Log(60)
	if w < 0.5 {
		return 0.5
	}
	if w > 1.0 {
		return 1.0
	}
	return w
}

// agreement maps the dispersion of a metric across intervals to [0, 1]:
// perfect agreement (zero deviation) scores 1, dispersion of 2+ scores 0.
func agreement(values []float64) float64 {
	if len(values) < 2 {
		return 1
	}
	a := 1 - stats.StdDev(values)/2
	if a < 0 {
		return 0
	}
	return a
}

var qualityScale = map[signal.Quality]float64{
	signal.QualityPremium:          1.0,
	signal.QualityStrong:           0.8,
	signal.QualityModerate:         0.6,
	signal.QualityWeak:             0.4,
	signal.QualityNoisy:            0.2,
	signal.QualityInsufficientData: 0,
}

// Analyze runs the pair analyzer once per timeframe and rolls the results up
// into a single confluence score and confidence tier. Intervals are analyzed
// sequentially; callers parallelize data fetch, not analysis.
func Analyze(a *analysis.Analyzer, primarySymbol, candidateSymbol string, series []IntervalSeries) *Result {
	res := &Result{
		Symbol:        candidateSymbol,
		PrimarySymbol: primarySymbol,
		Direction:     signal.DirectionNeutral,
		AnalyzedAt:    time.Now().UTC(),
	}
	if len(series) == 0 {
		res.Confidence = ConfidenceMixed
		return res
	}

	zMags := make([]float64, 0, len(series))
	corrMags := make([]float64, 0, len(series))
	qualities := make([]float64, 0, len(series))
	scores := make([]int, 0, len(series))
	votes := map[signal.Direction]int{}

	var weightedScore, weightSum float64
	for _, s := range series {
		r := a.AnalyzePair(s.Primary, s.Candidate, primarySymbol, candidateSymbol)
		w := IntervalWeight(s.Interval)
		res.Intervals = append(res.Intervals, IntervalResult{Interval: s.Interval, Weight: w, Result: r})

		zMags = append(zMags, math.Abs(r.SpreadZScore))
		corrMags = append(corrMags, math.Abs(r.Correlation))
		qualities = append(qualities, qualityScale[r.Volatility.Quality])
		scores = append(scores, r.OpportunityScore)

		if d := r.Confluence.Direction; d != signal.DirectionNeutral {
			votes[d]++
		}

		weightedScore += w * float64(r.OpportunityScore)
		weightSum += w

		if res.BestInterval == "" || r.OpportunityScore > bestScore(res) {
			res.BestInterval = s.Interval
		}
		if res.WorstInterval == "" || r.OpportunityScore < worstScore(res) {
			res.WorstInterval = s.Interval
		}
	}

	res.WeightedOpportunity = weightedScore / weightSum
	res.ZAgreement = agreement(zMags)
	res.CorrAgreement = agreement(corrMags)
	res.QualityAgreement = agreement(qualities)

	res.Direction, res.AlignedCount, res.AlignmentStrength = majorityDirection(votes)

	avgAgreement := (res.ZAgreement + res.CorrAgreement + res.QualityAgreement) / 3
	qualityBonus := math.Min(10, stats.Mean(qualities)*10)
	varianceBonus := math.Min(5, res.ZAgreement*5)

	score := res.WeightedOpportunity*0.5 +
		res.AlignmentStrength*20 +
		avgAgreement*15 +
		qualityBonus +
		varianceBonus -
		dataQualityPenalty(scores)

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	res.Score = score
	res.Confidence = confidence(res)
	return res
}

func bestScore(res *Result) int {
	for _, ir := range res.Intervals {
		if ir.Interval == res.BestInterval {
			return ir.Result.OpportunityScore
		}
	}
	return 0
}

func worstScore(res *Result) int {
	for _, ir := range res.Intervals {
		if ir.Interval == res.WorstInterval {
			return ir.Result.OpportunityScore
		}
	}
	return 0
}

// majorityDirection tallies non-neutral per-interval directions. The pair is
// aligned when the majority holds at least the required vote share.
func majorityDirection(votes map[signal.Direction]int) (signal.Direction, int, float64) {
	total := 0
	best := signal.DirectionNeutral
	bestCount := 0
	for d, n := range votes {
		total += n
		if n > bestCount {
			best, bestCount = d, n
		}
	}
	if total == 0 {
		return signal.DirectionNeutral, 0, 0
	}

	share := float64(bestCount) / float64(total)
	if share < alignedMajorityShare {
		return signal.DirectionNeutral, bestCount, share
	}
	return best, bestCount, share
}

// dataQualityPenalty flags byte-identical scores across 3+ intervals while
// the average is elevated. Genuinely independent timeframes do not agree to
// the integer; that pattern usually means duplicated or stale data.
func dataQualityPenalty(scores []int) float64 {
	if len(scores) < 3 {
		return 0
	}

	counts := map[int]int{}
	sum := 0
	for _, s := range scores {
		counts[s]++
		sum += s
	}
	avg := float64(sum) / float64(len(scores))

	for _, n := range counts {
		if n >= 3 && avg > 80 {
			return 20
		}
	}
	return 0
}

func confidence(res *Result) Confidence {
	switch {
	case res.AlignmentStrength >= 0.7 && res.ZAgreement > 0.7 &&
		res.QualityAgreement > 0.6 && res.AlignedCount >= 3:
		return ConfidenceHigh
	case res.AlignmentStrength >= 0.5 && res.ZAgreement > 0.5 &&
		res.QualityAgreement > 0.4 && res.AlignedCount >= 2:
		return ConfidenceMedium
	case res.AlignmentStrength >= alignedMajorityShare:
		return ConfidenceLow
	default:
		return ConfidenceMixed
	}
}

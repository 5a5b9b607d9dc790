package stats

import "math"

// Epsilon guards divisions and logarithms against degenerate inputs.
// Values below this are treated as zero.
const Epsilon = 1e-12

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation of values (divide by N).
// Returns 0 for fewer than 2 values.
func StdDev(values []float64) float64 {
	return StdDevWithMean(values, Mean(values))
}

// StdDevWithMean is StdDev with a precomputed mean, avoiding a second pass
// when the caller already has it.
func StdDevWithMean(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// PearsonCorrelation returns the Pearson correlation coefficient over the
// first min(len(a), len(b)) elements, clamped to [-1, 1]. Returns 0 when
// fewer than 2 usable elements exist or either series is near-constant.
func PearsonCorrelation(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}

	meanA := Mean(a[:n])
	meanB := Mean(b[:n])

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}

	denom := math.Sqrt(varA * varB)
	if denom < Epsilon {
		return 0
	}

	r := cov / denom
	if r > 1 {
		return 1
	}
	if r < -1 {
		return -1
	}
	return r
}

// Returns computes log returns: ln(c[i]/c[i-1]) for each consecutive pair.
// The result is one element shorter than the input; empty for fewer than 2
// closes. Non-positive prices are floored at Epsilon before the log.
func Returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return []float64{}
	}
	out := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		out[i-1] = math.Log(math.Max(Epsilon, closes[i]) / math.Max(Epsilon, closes[i-1]))
	}
	return out
}

// Spread computes the elementwise log spread ln(p) - ln(s), truncated to the
// shorter series. Non-positive inputs are floored at Epsilon.
func Spread(primary, secondary []float64) []float64 {
	n := len(primary)
	if len(secondary) < n {
		n = len(secondary)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = math.Log(math.Max(Epsilon, primary[i])) - math.Log(math.Max(Epsilon, secondary[i]))
	}
	return out
}

// Ratio computes the elementwise price ratio p/s, substituting 0 where the
// secondary price is non-positive. Truncated to the shorter series.
func Ratio(primary, secondary []float64) []float64 {
	n := len(primary)
	if len(secondary) < n {
		n = len(secondary)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if secondary[i] <= 0 {
			out[i] = 0
			continue
		}
		out[i] = primary[i] / secondary[i]
	}
	return out
}

// AlignOptions controls series alignment.
type AlignOptions struct {
	// RequirePositive drops index pairs where either value is <= 0, which
	// protects downstream log math. Defaults to true via DefaultAlignOptions.
	RequirePositive bool
}

// DefaultAlignOptions returns the standard alignment options.
func DefaultAlignOptions() AlignOptions {
	return AlignOptions{RequirePositive: true}
}

// AlignedPair holds two equal-length series after dirty-value filtering.
type AlignedPair struct {
	Primary   []float64
	Secondary []float64
	Dropped   int
}

// AlignSeries truncates both series to the shorter length and drops any index
// where either value is non-finite, or non-positive when RequirePositive is
// set. Order is preserved; the result series always have equal length.
func AlignSeries(primary, secondary []float64, opts AlignOptions) AlignedPair {
	n := len(primary)
	if len(secondary) < n {
		n = len(secondary)
	}

	p := make([]float64, 0, n)
	s := make([]float64, 0, n)
	dropped := 0

	for i := 0; i < n; i++ {
		a, b := primary[i], secondary[i]
		if math.IsNaN(a) || math.IsInf(a, 0) || math.IsNaN(b) || math.IsInf(b, 0) {
			dropped++
			continue
		}
		if opts.RequirePositive && (a <= 0 || b <= 0) {
			dropped++
			continue
		}
		p = append(p, a)
		s = append(s, b)
	}

	return AlignedPair{Primary: p, Secondary: s, Dropped: dropped}
}

// ZScoreResult reports the z-score of the last element of a series relative
// to the series mean and population standard deviation.
type ZScoreResult struct {
	ZScore  float64
	Mean    float64
	Std     float64
	Current float64
}

// ZScore computes the z-score of the final element of spread. Degenerate
// inputs (empty series, near-zero deviation) produce a zero z-score rather
// than NaN.
func ZScore(spread []float64) ZScoreResult {
	if len(spread) == 0 {
		return ZScoreResult{}
	}

	mean := Mean(spread)
	std := StdDevWithMean(spread, mean)
	current := spread[len(spread)-1]

	z := 0.0
	if std > Epsilon {
		z = (current - mean) / std
	}

	return ZScoreResult{ZScore: z, Mean: mean, Std: std, Current: current}
}

// LinearRegression fits y = intercept + slope*x by ordinary least squares
// over the first min(len(x), len(y)) points. Returns (0, mean(y)) when the
// x variance is degenerate.
func LinearRegression(x, y []float64) (slope, intercept float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n < 2 {
		return 0, Mean(y)
	}

	meanX := Mean(x[:n])
	meanY := Mean(y[:n])

	var cov, varX float64
	for i := 0; i < n; i++ {
		dx := x[i] - meanX
		cov += dx * (y[i] - meanY)
		varX += dx * dx
	}

	if varX < Epsilon {
		return 0, meanY
	}

	slope = cov / varX
	intercept = meanY - slope*meanX
	return slope, intercept
}

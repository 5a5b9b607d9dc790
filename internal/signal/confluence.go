package signal

import "math"

// Direction is the trade implied by an extreme spread z-score.
type Direction string

const (
	DirectionLongSpread  Direction = "long_spread"
	DirectionShortSpread Direction = "short_spread"
	DirectionNeutral     Direction = "neutral"
)

// extremeZScore is the divergence beyond which a reversion trade is implied.
const extremeZScore = 2.0

// ActionableRating is the minimum confluence rating worth acting on.
const ActionableRating = 2

// ConfluenceResult counts how many independent indicators currently agree.
type ConfluenceResult struct {
	Rating     int       `json:"rating"` // 0-3
	Direction  Direction `json:"direction"`
	ZExtreme   bool      `json:"z_extreme"`
	RegimeGood bool      `json:"regime_good"`
	QualityHi  bool      `json:"quality_hi"`
}

// Actionable reports whether enough indicators agree to justify attention.
func (c ConfluenceResult) Actionable() bool {
	return c.Rating >= ActionableRating
}

// Confluence sums three independent booleans into a 0-3 rating: z-score
// extremity, a favorable correlation regime, and high signal quality.
func Confluence(zscore float64, regime Regime, quality Quality) ConfluenceResult {
	res := ConfluenceResult{
		ZExtreme:   math.Abs(zscore) > extremeZScore,
		RegimeGood: regime == RegimeStrengthening || regime == RegimeRecovering || regime == RegimeStableStrong,
		QualityHi:  quality == QualityPremium || quality == QualityStrong,
		Direction:  DirectionNeutral,
	}

	if res.ZExtreme {
		res.Rating++
	}
	if res.RegimeGood {
		res.Rating++
	}
	if res.QualityHi {
		res.Rating++
	}

	if zscore > extremeZScore {
		res.Direction = DirectionShortSpread
	} else if zscore < -extremeZScore {
		res.Direction = DirectionLongSpread
	}

	return res
}

// Package insights composes risk metrics, trend analysis and retrieved
// context into investment recommendations and symbol comparisons.
package insights

import (
	"github.com/aristath/finsight/internal/domain"
	"github.com/aristath/finsight/internal/modules/risk"
	"github.com/aristath/finsight/internal/modules/vectorindex"
)

// Recommendation is an advisory action with its supporting rationale.
// Rationale and RiskFactors are always non-nil so they serialize as
// lists even when empty.
type Recommendation struct {
	Action      string   `json:"action"`
	Confidence  string   `json:"confidence"`
	Rationale   []string `json:"rationale"`
	RiskFactors []string `json:"risk_factors"`
}

// shortTermThreshold is the 7-day return magnitude that overrides the
// default HOLD action.
const shortTermThreshold = 0.05

// Compose derives a recommendation from whatever analysis succeeded.
// Any of the inputs may be absent (nil metrics, empty trends, no news);
// missing inputs simply contribute nothing, they never fail the
// recommendation.
func Compose(metrics *risk.Metrics, trends map[string]risk.Trend, news []vectorindex.Result) Recommendation {
	rec := Recommendation{
		Action:      "HOLD",
		Confidence:  "Medium",
		Rationale:   []string{},
		RiskFactors: []string{},
	}

	if metrics != nil {
		switch metrics.RiskLevel {
		case "Low":
			rec.Rationale = append(rec.Rationale, "Low volatility and drawdown risk")
		case "High":
			rec.Rationale = append(rec.Rationale, "High risk profile - consider position sizing")
			rec.RiskFactors = append(rec.RiskFactors, "High volatility")
		}
	}

	if recent, ok := trends["7d"]; ok {
		if recent.Return > shortTermThreshold {
			rec.Action = "BUY"
			rec.Confidence = "High"
			rec.Rationale = append(rec.Rationale, "Strong short-term momentum")
		} else if recent.Return < -shortTermThreshold {
			rec.Action = "SELL"
			rec.Confidence = "Medium"
			rec.Rationale = append(rec.Rationale, "Negative short-term trend")
		}
	}

	if len(news) > 0 {
		positive := 0
		for _, item := range news {
			if item.Metadata.Sentiment == string(domain.SentimentPositive) {
				positive++
			}
		}
		if float64(positive) > float64(len(news))/2 {
			rec.Rationale = append(rec.Rationale, "Positive news sentiment")
		} else if float64(positive) < float64(len(news))/4 {
			rec.Rationale = append(rec.Rationale, "Negative news sentiment")
			rec.RiskFactors = append(rec.RiskFactors, "Unfavorable news coverage")
		}
	}

	return rec
}

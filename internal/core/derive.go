package core

import "strings"

// FairnessLabel is a human-facing grade derived from the fairness score.
type FairnessLabel string

const (
	FairnessExcellent FairnessLabel = "Excellent"
	FairnessGood      FairnessLabel = "Good"
	FairnessFair      FairnessLabel = "Fair"
	FairnessPoor      FairnessLabel = "Poor"
	FairnessCritical  FairnessLabel = "Critical"
)

// BiasRisk is the inverse risk grade derived from the fairness score.
type BiasRisk string

const (
	RiskLow      BiasRisk = "Low"
	RiskModerate BiasRisk = "Moderate"
	RiskHigh     BiasRisk = "High"
	RiskCritical BiasRisk = "Critical"
)

// FairnessLabelForScore derives the fairness label from a 0-100 score.
// The label is always recomputed from the score; upstream-provided labels
// are ignored so the two can never disagree.
func FairnessLabelForScore(score float64) FairnessLabel {
	switch {
	case score >= 85:
		return FairnessExcellent
	case score >= 70:
		return FairnessGood
	case score >= 55:
		return FairnessFair
	case score >= 40:
		return FairnessPoor
	default:
		return FairnessCritical
	}
}

// BiasRiskForScore derives the bias risk grade from a 0-100 score.
func BiasRiskForScore(score float64) BiasRisk {
	switch {
	case score >= 70:
		return RiskLow
	case score >= 55:
		return RiskModerate
	case score >= 40:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// ClampScore forces a fairness score into the valid [0,100] range.
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func normalizeEnum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

package detector

import "github.com/rextempo/LiqPro-AI-sub004/internal/model"

// RiskThresholds configures the classifier tiers.
type RiskThresholds struct {
	HighTotalChange   float64
	HighTopBin        float64
	MediumTotalChange float64
	MediumTopBin      float64
}

// DefaultRiskThresholds mirrors the documented configuration defaults.
func DefaultRiskThresholds() RiskThresholds {
	return RiskThresholds{
		HighTotalChange:   0.15,
		HighTopBin:        0.10,
		MediumTotalChange: 0.08,
		MediumTopBin:      0.05,
	}
}

// ClassifyRisk grades a change record. The high check runs before the
// medium check, so a change that satisfies both is high.
func ClassifyRisk(rec *model.ChangeRecord, t RiskThresholds) model.RiskLevel {
	var topBinPct float64
	for _, bc := range rec.TopBinChanges {
		if bc.Percent > topBinPct {
			topBinPct = bc.Percent
		}
	}

	switch {
	case rec.ChangePercent >= t.HighTotalChange || topBinPct >= t.HighTopBin:
		return model.RiskHigh
	case rec.ChangePercent >= t.MediumTotalChange || topBinPct >= t.MediumTopBin:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

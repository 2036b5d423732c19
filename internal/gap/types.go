// Package gap scores assessments against a framework taxonomy and derives a
// prioritized gap list, function aggregates and remediation impact.
//
// Every operation is a pure function of its arguments. Inputs are never
// modified and no state is retained between calls.
package gap

import "github.com/dshills/csfgap/internal/assessment"

// Gap is a subcategory that needs remediation. Gaps are recomputed on every
// analysis and are never a source of truth.
type Gap struct {
	Priority           Priority          `json:"priority"`
	FunctionID         string            `json:"function_id"`
	FunctionName       string            `json:"function_name,omitempty"`
	CategoryID         string            `json:"category_id"`
	CategoryName       string            `json:"category_name,omitempty"`
	SubcategoryID      string            `json:"subcategory_id"`
	Description        string            `json:"description"`
	Status             assessment.Status `json:"status"`
	CurrentScore       float64           `json:"current_score"`
	WeightedScore      float64           `json:"weighted_score"`
	FunctionWeight     float64           `json:"function_weight"`
	RemediationUrgency Urgency           `json:"remediation_urgency"`
	Remediation        string            `json:"remediation"`
	EvidenceCount      int               `json:"evidence_count"`
	Notes              string            `json:"notes,omitempty"`
}

// TierImpact is the potential score uplift from fixing every gap in a tier.
type TierImpact struct {
	Priority    Priority `json:"priority"`
	Gaps        int      `json:"gaps"`
	Improvement float64  `json:"improvement"`
	Cumulative  float64  `json:"cumulative"`
}

// Impact is the remediation waterfall: tiers in Critical, High, Medium, Low
// order followed by the total.
type Impact struct {
	Tiers []TierImpact `json:"tiers"`
	Total float64      `json:"total"`
}

// ByPriority returns the per-tier improvement as a map.
func (i Impact) ByPriority() map[Priority]float64 {
	out := make(map[Priority]float64, len(i.Tiers))
	for _, t := range i.Tiers {
		out[t.Priority] = t.Improvement
	}
	return out
}

// Summary holds the headline figures of an analysis.
type Summary struct {
	TotalGaps       int                `json:"total_gaps"`
	CriticalCount   int                `json:"critical_count"`
	HighCount       int                `json:"high_count"`
	MediumCount     int                `json:"medium_count"`
	LowCount        int                `json:"low_count"`
	ByUrgency       map[Urgency]int    `json:"by_urgency"`
	Assessed        int                `json:"assessed"`
	OverallMaturity float64            `json:"overall_maturity"`
	WeightedOverall float64            `json:"weighted_overall"`
	FunctionScores  map[string]float64 `json:"function_scores"`
	MaxScale        float64            `json:"max_scale"`
}

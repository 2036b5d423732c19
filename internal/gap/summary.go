package gap

import (
	"github.com/dshills/csfgap/internal/assessment"
	"github.com/dshills/csfgap/internal/taxonomy"
	"github.com/dshills/csfgap/internal/weights"
)

// Summarize derives counts and maturity figures for an analysis.
func (e *Engine) Summarize(gaps []Gap, a assessment.Set, w weights.Map, t *taxonomy.Taxonomy) (Summary, error) {
	fnScores, err := AggregateByFunction(a, t)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		TotalGaps:       len(gaps),
		ByUrgency:       make(map[Urgency]int, len(Urgencies)),
		Assessed:        len(a),
		OverallMaturity: OverallMaturity(a),
		WeightedOverall: WeightedScore(fnScores, w),
		FunctionScores:  fnScores,
		MaxScale:        e.maxScale,
	}
	for _, g := range gaps {
		switch g.Priority {
		case PriorityCritical:
			s.CriticalCount++
		case PriorityHigh:
			s.HighCount++
		case PriorityMedium:
			s.MediumCount++
		case PriorityLow:
			s.LowCount++
		}
		s.ByUrgency[g.RemediationUrgency]++
	}
	return s, nil
}

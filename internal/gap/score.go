package gap

import "github.com/dshills/csfgap/internal/weights"

// DefaultMaxScale is the top of the score range when callers do not set one.
const DefaultMaxScale = 10.0

// Tier boundaries and thresholds, expressed on a 0-10 reference scale and
// rescaled to the engine's max scale.
const (
	referenceScale = 10.0

	criticalBelow = 3.0
	highBelow     = 5.0
	mediumBelow   = 7.0

	immediateRawBelow = 2.0
	highRawBelow      = 4.0

	// maxUpliftPerGap caps the improvement one gap contributes to the
	// remediation impact, in raw score points.
	maxUpliftPerGap = 3.0
)

// Engine evaluates assessments on a fixed score scale. It holds no other
// state and is safe for concurrent use.
type Engine struct {
	maxScale float64
}

// New returns an Engine for scores in [0, maxScale].
func New(maxScale float64) (*Engine, error) {
	if !(maxScale > 0) {
		return nil, &InvalidScaleError{MaxScale: maxScale}
	}
	return &Engine{maxScale: maxScale}, nil
}

// MaxScale returns the top of the score range.
func (e *Engine) MaxScale() float64 { return e.maxScale }

// normalize maps a score onto the 0-10 reference scale.
func (e *Engine) normalize(score float64) float64 {
	return score * referenceScale / e.maxScale
}

// WeightedScore returns the weighted mean of per-function scores. Functions
// missing from w count with weights.DefaultWeight. Empty scores yield 0.
func WeightedScore(scores map[string]float64, w weights.Map) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum, total float64
	for fn, s := range scores {
		wt := w.Get(fn)
		sum += s * wt
		total += wt
	}
	if total == 0 {
		return 0
	}
	return sum / total
}

// PriorityOf classifies a score after applying the function weight. A
// heavier weight marks the function as more important to the organisation
// and pulls the score towards a more urgent tier. On the reference scale the
// tiers are <3 Critical, [3,5) High, [5,7) Medium and >=7 Low; a value on a
// boundary takes the less urgent tier.
func (e *Engine) PriorityOf(score, functionWeight float64) Priority {
	adjusted := score
	if functionWeight > 0 {
		adjusted = score / functionWeight
	}
	n := e.normalize(adjusted)
	switch {
	case n < criticalBelow:
		return PriorityCritical
	case n < highBelow:
		return PriorityHigh
	case n < mediumBelow:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// RemediationUrgency maps a priority to an urgency. A very low raw score
// escalates the urgency regardless of how the weighted priority came out.
func (e *Engine) RemediationUrgency(p Priority, score float64) Urgency {
	raw := e.normalize(score)
	switch {
	case p == PriorityCritical || raw < immediateRawBelow:
		return UrgencyImmediate
	case p == PriorityHigh || raw < highRawBelow:
		return UrgencyHigh
	case p == PriorityMedium:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// gapThreshold is the raw score below which a subcategory is always a gap.
func (e *Engine) gapThreshold() float64 {
	return e.maxScale / 2
}

// potentialImprovement is the uplift one remediation cycle can realistically
// add to a score.
func (e *Engine) potentialImprovement(score float64) float64 {
	up := e.maxScale - score
	if up > maxUpliftPerGap {
		up = maxUpliftPerGap
	}
	if up < 0 {
		up = 0
	}
	return up
}

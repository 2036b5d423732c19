package gap

import (
	"sort"

	"github.com/dshills/csfgap/internal/assessment"
	"github.com/dshills/csfgap/internal/taxonomy"
	"github.com/dshills/csfgap/internal/weights"
)

// DefaultRemediation is used when a subcategory carries no remediation hint.
const DefaultRemediation = "Review current implementation and identify improvement opportunities."

// AnalyzeGaps walks the taxonomy in canonical order and returns a gap for
// every assessed subcategory that meets any gap condition: an open status, a
// score below half the scale, or a Critical or High priority. Unassessed
// subcategories are skipped. The result is in traversal order.
//
// If any assessment references a subcategory the taxonomy does not contain,
// AnalyzeGaps returns a *DanglingReferenceError and no gaps.
func (e *Engine) AnalyzeGaps(a assessment.Set, w weights.Map, t *taxonomy.Taxonomy) ([]Gap, error) {
	if err := checkReferences(a, t); err != nil {
		return nil, err
	}

	var gaps []Gap
	t.Walk(func(f taxonomy.Function, c taxonomy.Category, s taxonomy.Subcategory) {
		rec, ok := a[s.ID]
		if !ok {
			return
		}
		wt := w.Get(f.ID)
		p := e.PriorityOf(rec.Score, wt)
		if !e.isGap(rec, p) {
			return
		}
		remediation := s.Remediation
		if remediation == "" {
			remediation = DefaultRemediation
		}
		gaps = append(gaps, Gap{
			Priority:           p,
			FunctionID:         f.ID,
			FunctionName:       f.Name,
			CategoryID:         c.ID,
			CategoryName:       c.Name,
			SubcategoryID:      s.ID,
			Description:        s.Description,
			Status:             rec.Status,
			CurrentScore:       rec.Score,
			WeightedScore:      rec.Score * wt,
			FunctionWeight:     wt,
			RemediationUrgency: e.RemediationUrgency(p, rec.Score),
			Remediation:        remediation,
			EvidenceCount:      rec.EvidenceCount(),
			Notes:              rec.Notes,
		})
	})
	return gaps, nil
}

func (e *Engine) isGap(rec assessment.Record, p Priority) bool {
	return rec.Status.Open() ||
		rec.Score < e.gapThreshold() ||
		p == PriorityCritical || p == PriorityHigh
}

// checkReferences fails with every assessment id missing from t, sorted.
func checkReferences(a assessment.Set, t *taxonomy.Taxonomy) error {
	var dangling []string
	for id := range a {
		if !t.Has(id) {
			dangling = append(dangling, id)
		}
	}
	if len(dangling) == 0 {
		return nil
	}
	sort.Strings(dangling)
	return &DanglingReferenceError{IDs: dangling}
}

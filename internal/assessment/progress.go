package assessment

import "github.com/dshills/csfgap/internal/taxonomy"

// Progress summarises how much of the taxonomy a subject has assessed.
type Progress struct {
	Total      int     `json:"total_subcategories"`
	Assessed   int     `json:"assessed_subcategories"`
	Completed  int     `json:"completed_subcategories"`
	Percentage float64 `json:"completion_percentage"`
}

// ComputeProgress counts subcategories of t that appear in s. A subcategory
// is completed once it has moved off Not Implemented with a positive score.
// Records that do not exist in t are ignored.
func ComputeProgress(t *taxonomy.Taxonomy, s Set) Progress {
	var p Progress
	t.Walk(func(_ taxonomy.Function, _ taxonomy.Category, sub taxonomy.Subcategory) {
		p.Total++
		rec, ok := s[sub.ID]
		if !ok {
			return
		}
		p.Assessed++
		if rec.Status != StatusNotImplemented && rec.Score > 0 {
			p.Completed++
		}
	})
	if p.Total > 0 {
		p.Percentage = float64(p.Completed) / float64(p.Total) * 100
	}
	return p
}

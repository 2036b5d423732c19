package gap

import (
	"github.com/dshills/csfgap/internal/assessment"
	"github.com/dshills/csfgap/internal/taxonomy"
)

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64) { m.sum += v; m.n++ }

func (m mean) value() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

func collect(acc map[string]*mean, key string, v float64) {
	m, ok := acc[key]
	if !ok {
		m = &mean{}
		acc[key] = m
	}
	m.add(v)
}

func values(acc map[string]*mean) map[string]float64 {
	out := make(map[string]float64, len(acc))
	for k, m := range acc {
		out[k] = m.value()
	}
	return out
}

// AggregateByFunction returns the mean score of the assessed subcategories
// of each function. Functions with nothing assessed are omitted.
func AggregateByFunction(a assessment.Set, t *taxonomy.Taxonomy) (map[string]float64, error) {
	if err := checkReferences(a, t); err != nil {
		return nil, err
	}
	acc := make(map[string]*mean)
	t.Walk(func(f taxonomy.Function, _ taxonomy.Category, s taxonomy.Subcategory) {
		if rec, ok := a[s.ID]; ok {
			collect(acc, f.ID, rec.Score)
		}
	})
	return values(acc), nil
}

// AggregateByCategory is AggregateByFunction at category granularity.
func AggregateByCategory(a assessment.Set, t *taxonomy.Taxonomy) (map[string]float64, error) {
	if err := checkReferences(a, t); err != nil {
		return nil, err
	}
	acc := make(map[string]*mean)
	t.Walk(func(_ taxonomy.Function, c taxonomy.Category, s taxonomy.Subcategory) {
		if rec, ok := a[s.ID]; ok {
			collect(acc, c.ID, rec.Score)
		}
	})
	return values(acc), nil
}

// AggregateGapsByFunction returns the mean current score of the gaps in each
// function.
func AggregateGapsByFunction(gaps []Gap) map[string]float64 {
	acc := make(map[string]*mean)
	for _, g := range gaps {
		collect(acc, g.FunctionID, g.CurrentScore)
	}
	return values(acc)
}

// OverallMaturity is the flat mean of every assessment score. It is not the
// mean of the function means, so larger functions count for more.
func OverallMaturity(a assessment.Set) float64 {
	var m mean
	for _, rec := range a {
		m.add(rec.Score)
	}
	return m.value()
}

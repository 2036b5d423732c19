package gap

import "sort"

// SortGaps sorts gaps by priority (Critical first), then by current score
// ascending. Equal gaps keep their traversal order.
func SortGaps(gaps []Gap) {
	sort.SliceStable(gaps, func(i, j int) bool {
		ri, rj := gaps[i].Priority.Rank(), gaps[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return gaps[i].CurrentScore < gaps[j].CurrentScore
	})
}

// FilterByPriority returns the gaps at or above threshold, in their original
// order. The input is not modified.
func FilterByPriority(gaps []Gap, threshold Priority) []Gap {
	limit := threshold.Rank()
	out := make([]Gap, 0, len(gaps))
	for _, g := range gaps {
		if g.Priority.Rank() <= limit {
			out = append(out, g)
		}
	}
	return out
}

package gap

// RemediationImpact estimates how much each priority tier could add if its
// gaps were remediated. Each gap contributes min(maxScale-score, 3), never
// negative. Tiers appear in Critical, High, Medium, Low order and only when
// they hold at least one gap.
func (e *Engine) RemediationImpact(gaps []Gap) Impact {
	sums := make(map[Priority]float64, len(Priorities))
	counts := make(map[Priority]int, len(Priorities))
	for _, g := range gaps {
		sums[g.Priority] += e.potentialImprovement(g.CurrentScore)
		counts[g.Priority]++
	}

	var imp Impact
	for _, p := range Priorities {
		if counts[p] == 0 {
			continue
		}
		imp.Total += sums[p]
		imp.Tiers = append(imp.Tiers, TierImpact{
			Priority:    p,
			Gaps:        counts[p],
			Improvement: sums[p],
			Cumulative:  imp.Total,
		})
	}
	return imp
}

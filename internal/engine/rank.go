package engine

import "sort"

// Rank sorts opportunities by profit descending and truncates to limit.
// The sort is stable so ties keep discovery order — repeated computation over
// a fixed input yields byte-identical ordering. It returns the page and the
// unbounded total match count. A limit <= 0 means no truncation.
func Rank[T any](opps []T, profit func(T) int64, limit int) (page []T, total int) {
	sort.SliceStable(opps, func(i, j int) bool {
		return profit(opps[i]) > profit(opps[j])
	})
	total = len(opps)
	if limit > 0 && len(opps) > limit {
		return opps[:limit], total
	}
	return opps, total
}

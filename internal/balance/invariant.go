package balance

import (
	"fmt"
	"sort"
)

// checkZeroSum verifies that netting conserved money. Each participant's
// signed position (owed to them minus owed by them) is computed twice, once
// from the full-precision raw matrix and once from the rounded netted edges,
// and the two must agree within balanceTolerance. A violation indicates
// corrupted share data or excessive rounding drift; it is reported as a
// warning so the result still renders while operators get a diagnostic.
func checkZeroSum(matrix map[pair]float64, edges []netEdge) []string {
	raw := make(map[uint]float64)
	for k, amt := range matrix {
		raw[k.from] -= amt
		raw[k.to] += amt
	}

	netted := make(map[uint]float64)
	for _, e := range edges {
		netted[e.fromID] -= e.amount
		netted[e.toID] += e.amount
	}

	ids := make([]uint, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var warnings []string
	for _, id := range ids {
		drift := raw[id] - netted[id]
		if drift > balanceTolerance || drift < -balanceTolerance {
			warnings = append(warnings, fmt.Sprintf("settlement does not balance for participant %d: drift %.4f exceeds tolerance %.2f", id, drift, balanceTolerance))
		}
	}
	return warnings
}

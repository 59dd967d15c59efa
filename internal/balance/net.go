package balance

import "sort"

// netEdge is a single directed obligation left after offsetting the two raw
// debts of one participant pair.
type netEdge struct {
	fromID uint
	toID   uint
	amount float64
}

// netDebts collapses each unordered participant pair's opposing raw debts
// into at most one directed edge. A pair whose net balance is within epsilon
// is settled and emits nothing, so the output never contains both A→B and
// B→A. The result is sorted by (from, to) id so repeated runs over the same
// snapshot produce identical output.
func netDebts(matrix map[pair]float64, participants []Participant) []netEdge {
	ids := make([]uint, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var edges []netEdge
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := ids[i], ids[j]
			owedByA := matrix[pair{from: a, to: b}]
			owedByB := matrix[pair{from: b, to: a}]

			net := owedByA - owedByB
			if net > epsilon {
				edges = append(edges, netEdge{fromID: a, toID: b, amount: round2(net)})
			} else if net < -epsilon {
				edges = append(edges, netEdge{fromID: b, toID: a, amount: round2(-net)})
			}
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].fromID != edges[j].fromID {
			return edges[i].fromID < edges[j].fromID
		}
		return edges[i].toID < edges[j].toID
	})
	return edges
}

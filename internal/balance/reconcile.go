package balance

import "sort"

// reconcile applies reimbursements to the netted edges and produces the
// final Debt list. Completed reimbursements reduce the remaining amount
// (clamped at zero); pending and rejected ones are summed separately for
// visibility and never change what is owed.
//
// The edge set is the union of the netted edges and every directed pair
// that has reimbursement records. An edge with zero principal but recorded
// reimbursements still surfaces, so a repayment whose underlying expense was
// later edited away stays visible for audit instead of being dropped.
func reconcile(edges []netEdge, snap Snapshot, nameOf map[uint]string) []Debt {
	principal := make(map[pair]float64, len(edges))
	for _, e := range edges {
		principal[pair{from: e.fromID, to: e.toID}] = e.amount
	}

	byPair := make(map[pair][]Reimbursement)
	for _, r := range snap.Reimbursements {
		k := pair{from: r.FromID, to: r.ToID}
		byPair[k] = append(byPair[k], r)
		if _, ok := principal[k]; !ok {
			principal[k] = 0
		}
	}

	keys := make([]pair, 0, len(principal))
	for k := range principal {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].from != keys[j].from {
			return keys[i].from < keys[j].from
		}
		return keys[i].to < keys[j].to
	})

	debts := make([]Debt, 0, len(keys))
	for _, k := range keys {
		original := principal[k]

		recs := byPair[k]
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })

		var completed, pending, rejected float64
		trail := make([]ReimbursementRecord, 0, len(recs))
		for _, r := range recs {
			switch r.Status {
			case StatusCompleted:
				completed += r.Amount
			case StatusPending:
				pending += r.Amount
			case StatusRejected:
				rejected += r.Amount
			}
			trail = append(trail, ReimbursementRecord{
				ID:     r.ID,
				Amount: r.Amount,
				Status: r.Status,
				Date:   r.Date,
			})
		}

		remaining := round2(original - completed)
		if remaining < 0 {
			remaining = 0
		}

		debts = append(debts, Debt{
			From:                  nameOf[k.from],
			To:                    nameOf[k.to],
			FromID:                k.from,
			ToID:                  k.to,
			Amount:                remaining,
			OriginalAmount:        round2(original),
			ReimbursedAmount:      round2(completed),
			PendingReimbursement:  round2(pending),
			RejectedReimbursement: round2(rejected),
			TotalReimbursed:       round2(completed + pending),
			IsFullyReimbursed:     remaining <= epsilon && completed > 0 && completed >= original-epsilon,
			Currency:              snap.Currency,
			Reimbursements:        trail,
		})
	}

	return debts
}

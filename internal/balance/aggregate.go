package balance

import (
	"fmt"
	"math"
)

// pair is a directed debtor→creditor edge key.
type pair struct {
	from uint
	to   uint
}

// aggregate folds every expense's participating shares into a directed
// amount table keyed by (debtor, creditor). Shares of the payer, zero
// shares and NaN shares contribute nothing. Payer names that match no
// participant make the whole expense non-contributing and are reported as
// warnings rather than errors: a stale name is a data-entry anomaly, not a
// reason to fail the settlement.
func aggregate(snap Snapshot) (map[pair]float64, []string) {
	idByName := make(map[string]uint, len(snap.Participants))
	for _, p := range snap.Participants {
		idByName[p.Name] = p.ID
	}

	matrix := make(map[pair]float64)
	var warnings []string

	for _, exp := range snap.Expenses {
		payerID, ok := idByName[exp.PaidBy]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("expense %d: payer %q is not a participant, skipping", exp.ID, exp.PaidBy))
			continue
		}
		for _, share := range exp.Shares {
			if !share.Participates {
				continue
			}
			if share.ParticipantID == payerID {
				continue
			}
			if math.IsNaN(share.Amount) || share.Amount < epsilon {
				continue
			}
			matrix[pair{from: share.ParticipantID, to: payerID}] += share.Amount
		}
	}

	return matrix, warnings
}

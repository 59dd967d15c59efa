package balance

// Viewer identifies the requesting user for the personal summary projection.
// A zero-value Viewer yields a result without a UserSummary.
type Viewer struct {
	UserID   uint
	Username string
}

// Compute runs the full settlement pipeline over a snapshot: aggregate raw
// debts, net each pair, reconcile reimbursements and project the viewer's
// summary. It is deterministic: two calls over equal snapshots return equal
// results.
func Compute(snap Snapshot, viewer Viewer) Result {
	matrix, warnings := aggregate(snap)
	edges := netDebts(matrix, snap.Participants)
	warnings = append(warnings, checkZeroSum(matrix, edges)...)

	nameOf := make(map[uint]string, len(snap.Participants))
	for _, p := range snap.Participants {
		nameOf[p.ID] = p.Name
	}
	debts := reconcile(edges, snap, nameOf)

	res := Result{
		Debts:    debts,
		Warnings: warnings,
	}

	// Top-level totals are the viewer's personal position. Without a
	// resolvable viewer the debts are still returned but the totals stay zero.
	if p := ResolveViewer(snap.Participants, viewer.UserID, viewer.Username); p != nil {
		s := projectSummary(debts, *p)
		res.UserSummary = s
		res.TotalToPay = s.TotalToPay
		res.TotalToReceive = s.TotalToReceive
		res.PendingToPay = s.PendingToPay
		res.RejectedToPay = s.RejectedToPay
	}
	return res
}

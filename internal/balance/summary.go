package balance

import "sort"

// ResolveViewer finds the participant record representing the requesting
// user. The user's account link is authoritative; when no participant is
// linked to the user id, the display name is matched against unlinked
// participants so that people who joined an event before creating an
// account still get a personal summary. Returns nil when neither matches.
func ResolveViewer(participants []Participant, userID uint, username string) *Participant {
	if userID != 0 {
		for i := range participants {
			p := &participants[i]
			if p.UserID != nil && *p.UserID == userID {
				return p
			}
		}
	}
	if username != "" {
		for i := range participants {
			p := &participants[i]
			if p.UserID == nil && p.Name == username {
				return p
			}
		}
	}
	return nil
}

// projectSummary aggregates the reconciled debts into one participant's
// personal totals. Sums are accumulated at full precision and rounded once
// at the end so per-term rounding errors do not compound.
func projectSummary(debts []Debt, viewer Participant) *Summary {
	s := &Summary{
		ParticipantID: viewer.ID,
		Credit:        []CreditEntry{},
		Debit:         []DebitEntry{},
	}
	if viewer.UserID != nil {
		s.UserID = *viewer.UserID
	}

	var toPay, toReceive, pending, rejected float64
	for _, d := range debts {
		if d.FromID == viewer.ID {
			toPay += d.Amount
			pending += d.PendingReimbursement
			rejected += d.RejectedReimbursement
			if d.Amount > 0 {
				s.Debit = append(s.Debit, DebitEntry{To: d.To, Amount: d.Amount})
			}
		}
		if d.ToID == viewer.ID {
			toReceive += d.Amount
			if d.Amount > 0 {
				s.Credit = append(s.Credit, CreditEntry{From: d.From, Amount: d.Amount})
			}
		}
	}

	sort.Slice(s.Credit, func(i, j int) bool { return s.Credit[i].Amount > s.Credit[j].Amount })
	sort.Slice(s.Debit, func(i, j int) bool { return s.Debit[i].Amount > s.Debit[j].Amount })

	s.TotalToPay = round2(toPay)
	s.TotalToReceive = round2(toReceive)
	s.PendingToPay = round2(pending)
	s.RejectedToPay = round2(rejected)
	return s
}

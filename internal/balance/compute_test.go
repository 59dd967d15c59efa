package balance

import (
	"math"
	"reflect"
	"testing"
	"time"
)

func uintPtr(v uint) *uint { return &v }

func equalShares(amount float64, ids ...uint) []Share {
	share := round2(amount / float64(len(ids)))
	out := make([]Share, 0, len(ids))
	for _, id := range ids {
		out = append(out, Share{ParticipantID: id, Amount: share, Participates: true})
	}
	return out
}

func findDebt(t *testing.T, debts []Debt, from, to uint) *Debt {
	t.Helper()
	for i := range debts {
		if debts[i].FromID == from && debts[i].ToID == to {
			return &debts[i]
		}
	}
	t.Fatalf("no debt %d->%d in %+v", from, to, debts)
	return nil
}

func TestCompute(t *testing.T) {
	twoPeople := []Participant{
		{ID: 1, Name: "Alice", UserID: uintPtr(10)},
		{ID: 2, Name: "Bob", UserID: uintPtr(20)},
	}
	baseExpense := Expense{ID: 1, Amount: 30.0, PaidBy: "Alice", Split: SplitEqual, Currency: "EUR", Shares: equalShares(30.0, 1, 2)}

	tests := []struct {
		name     string
		snap     Snapshot
		viewer   Viewer
		validate func(t *testing.T, res Result)
	}{
		{
			name: "equal split produces single directed debt",
			snap: Snapshot{
				Participants: twoPeople,
				Expenses:     []Expense{baseExpense},
				Currency:     "EUR",
			},
			viewer: Viewer{UserID: 20},
			validate: func(t *testing.T, res Result) {
				if len(res.Debts) != 1 {
					t.Fatalf("got %d debts, want 1", len(res.Debts))
				}
				d := findDebt(t, res.Debts, 2, 1)
				if math.Abs(d.Amount-15.0) > 0.01 {
					t.Errorf("debt amount = %v, want 15.0", d.Amount)
				}
				if d.From != "Bob" || d.To != "Alice" {
					t.Errorf("debt names = %s->%s, want Bob->Alice", d.From, d.To)
				}
				if d.Currency != "EUR" {
					t.Errorf("currency = %q, want EUR", d.Currency)
				}
				if math.Abs(res.TotalToPay-15.0) > 0.01 {
					t.Errorf("viewer to_pay = %v, want 15.0", res.TotalToPay)
				}
				if res.TotalToReceive != 0 {
					t.Errorf("viewer to_receive = %v, want 0", res.TotalToReceive)
				}
			},
		},
		{
			name: "creditor viewer sees amount to receive",
			snap: Snapshot{
				Participants: twoPeople,
				Expenses:     []Expense{baseExpense},
				Currency:     "EUR",
			},
			viewer: Viewer{UserID: 10},
			validate: func(t *testing.T, res Result) {
				if math.Abs(res.TotalToReceive-15.0) > 0.01 {
					t.Errorf("viewer to_receive = %v, want 15.0", res.TotalToReceive)
				}
				if res.TotalToPay != 0 {
					t.Errorf("viewer to_pay = %v, want 0", res.TotalToPay)
				}
				if res.UserSummary == nil || len(res.UserSummary.Credit) != 1 {
					t.Fatalf("expected one credit entry, got %+v", res.UserSummary)
				}
				if res.UserSummary.Credit[0].From != "Bob" {
					t.Errorf("credit from = %q, want Bob", res.UserSummary.Credit[0].From)
				}
			},
		},
		{
			name: "completed reimbursement clears the debt",
			snap: Snapshot{
				Participants: twoPeople,
				Expenses:     []Expense{baseExpense},
				Reimbursements: []Reimbursement{
					{ID: 1, FromID: 2, ToID: 1, Amount: 15.0, Status: StatusCompleted, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
				},
				Currency: "EUR",
			},
			viewer: Viewer{UserID: 20},
			validate: func(t *testing.T, res Result) {
				d := findDebt(t, res.Debts, 2, 1)
				if d.Amount != 0 {
					t.Errorf("remaining = %v, want 0", d.Amount)
				}
				if !d.IsFullyReimbursed {
					t.Error("expected fully reimbursed")
				}
				if math.Abs(d.ReimbursedAmount-15.0) > 0.01 {
					t.Errorf("reimbursed = %v, want 15.0", d.ReimbursedAmount)
				}
				if math.Abs(d.OriginalAmount-15.0) > 0.01 {
					t.Errorf("original = %v, want 15.0", d.OriginalAmount)
				}
				if res.TotalToPay != 0 {
					t.Errorf("viewer to_pay = %v, want 0", res.TotalToPay)
				}
			},
		},
		{
			name: "pending reimbursement does not reduce the debt",
			snap: Snapshot{
				Participants: twoPeople,
				Expenses:     []Expense{baseExpense},
				Reimbursements: []Reimbursement{
					{ID: 1, FromID: 2, ToID: 1, Amount: 10.0, Status: StatusPending, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
				},
				Currency: "EUR",
			},
			viewer: Viewer{UserID: 20},
			validate: func(t *testing.T, res Result) {
				d := findDebt(t, res.Debts, 2, 1)
				if math.Abs(d.Amount-15.0) > 0.01 {
					t.Errorf("remaining = %v, want 15.0", d.Amount)
				}
				if math.Abs(d.PendingReimbursement-10.0) > 0.01 {
					t.Errorf("pending = %v, want 10.0", d.PendingReimbursement)
				}
				if d.IsFullyReimbursed {
					t.Error("pending repayment must not mark debt fully reimbursed")
				}
				if math.Abs(res.PendingToPay-10.0) > 0.01 {
					t.Errorf("viewer pending_to_pay = %v, want 10.0", res.PendingToPay)
				}
				if math.Abs(res.TotalToPay-15.0) > 0.01 {
					t.Errorf("viewer to_pay = %v, want 15.0", res.TotalToPay)
				}
			},
		},
		{
			name: "three participants with cross expenses net per pair",
			snap: Snapshot{
				Participants: []Participant{
					{ID: 1, Name: "Alice"},
					{ID: 2, Name: "Bob"},
					{ID: 3, Name: "Carol"},
				},
				Expenses: []Expense{
					{ID: 1, Amount: 20.0, PaidBy: "Alice", Split: SplitEqual, Currency: "EUR", Shares: equalShares(20.0, 1, 2, 3)},
					{ID: 2, Amount: 9.0, PaidBy: "Bob", Split: SplitEqual, Currency: "EUR", Shares: equalShares(9.0, 1, 2, 3)},
				},
				Currency: "EUR",
			},
			validate: func(t *testing.T, res Result) {
				// Pair (Alice,Bob): Bob owes 6.67, Alice owes 3.00 back, net 3.67.
				// Pair (Alice,Carol): 6.67. Pair (Bob,Carol): 3.00.
				if len(res.Debts) != 3 {
					t.Fatalf("got %d debts, want 3: %+v", len(res.Debts), res.Debts)
				}
				if d := findDebt(t, res.Debts, 2, 1); math.Abs(d.Amount-3.67) > 0.01 {
					t.Errorf("Bob->Alice = %v, want 3.67", d.Amount)
				}
				if d := findDebt(t, res.Debts, 3, 1); math.Abs(d.Amount-6.67) > 0.01 {
					t.Errorf("Carol->Alice = %v, want 6.67", d.Amount)
				}
				if d := findDebt(t, res.Debts, 3, 2); math.Abs(d.Amount-3.0) > 0.01 {
					t.Errorf("Carol->Bob = %v, want 3.00", d.Amount)
				}
			},
		},
		{
			name: "rejected reimbursement with no principal still surfaces for audit",
			snap: Snapshot{
				Participants: twoPeople,
				Reimbursements: []Reimbursement{
					{ID: 7, FromID: 1, ToID: 2, Amount: 5.0, Status: StatusRejected, Date: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
				},
				Currency: "EUR",
			},
			validate: func(t *testing.T, res Result) {
				d := findDebt(t, res.Debts, 1, 2)
				if d.Amount != 0 || d.OriginalAmount != 0 {
					t.Errorf("expected zero amounts, got amount=%v original=%v", d.Amount, d.OriginalAmount)
				}
				if math.Abs(d.RejectedReimbursement-5.0) > 0.01 {
					t.Errorf("rejected = %v, want 5.0", d.RejectedReimbursement)
				}
				if d.IsFullyReimbursed {
					t.Error("audit-only edge must not read as fully reimbursed")
				}
				if len(d.Reimbursements) != 1 || d.Reimbursements[0].ID != 7 {
					t.Errorf("audit trail = %+v, want the rejected record", d.Reimbursements)
				}
			},
		},
		{
			name:   "empty event settles to nothing",
			snap:   Snapshot{Participants: twoPeople, Currency: "EUR"},
			viewer: Viewer{UserID: 10},
			validate: func(t *testing.T, res Result) {
				if len(res.Debts) != 0 {
					t.Errorf("got %d debts, want 0", len(res.Debts))
				}
				if res.TotalToPay != 0 || res.TotalToReceive != 0 || res.PendingToPay != 0 || res.RejectedToPay != 0 {
					t.Errorf("expected all-zero totals, got %+v", res)
				}
			},
		},
		{
			name: "unknown payer skips the expense with a warning",
			snap: Snapshot{
				Participants: twoPeople,
				Expenses: []Expense{
					{ID: 9, Amount: 12.0, PaidBy: "Mallory", Split: SplitEqual, Currency: "EUR", Shares: equalShares(12.0, 1, 2)},
				},
				Currency: "EUR",
			},
			validate: func(t *testing.T, res Result) {
				if len(res.Debts) != 0 {
					t.Errorf("got %d debts, want 0", len(res.Debts))
				}
				if len(res.Warnings) != 1 {
					t.Fatalf("got %d warnings, want 1: %v", len(res.Warnings), res.Warnings)
				}
			},
		},
		{
			name: "deselected participant contributes nothing",
			snap: Snapshot{
				Participants: []Participant{
					{ID: 1, Name: "Alice"},
					{ID: 2, Name: "Bob"},
					{ID: 3, Name: "Carol"},
				},
				Expenses: []Expense{
					{ID: 1, Amount: 30.0, PaidBy: "Alice", Split: SplitEqual, Currency: "EUR", Shares: []Share{
						{ParticipantID: 1, Amount: 15.0, Participates: true},
						{ParticipantID: 2, Amount: 15.0, Participates: true},
						{ParticipantID: 3, Amount: 0, Participates: false},
					}},
				},
				Currency: "EUR",
			},
			validate: func(t *testing.T, res Result) {
				if len(res.Debts) != 1 {
					t.Fatalf("got %d debts, want 1", len(res.Debts))
				}
				d := findDebt(t, res.Debts, 2, 1)
				if math.Abs(d.Amount-15.0) > 0.01 {
					t.Errorf("Bob->Alice = %v, want 15.0", d.Amount)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Compute(tt.snap, tt.viewer)
			tt.validate(t, res)
		})
	}
}

func TestComputeIdempotent(t *testing.T) {
	snap := Snapshot{
		Participants: []Participant{
			{ID: 1, Name: "Alice", UserID: uintPtr(10)},
			{ID: 2, Name: "Bob"},
			{ID: 3, Name: "Carol"},
		},
		Expenses: []Expense{
			{ID: 1, Amount: 20.0, PaidBy: "Alice", Split: SplitEqual, Currency: "EUR", Shares: equalShares(20.0, 1, 2, 3)},
			{ID: 2, Amount: 9.0, PaidBy: "Bob", Split: SplitEqual, Currency: "EUR", Shares: equalShares(9.0, 1, 2, 3)},
			{ID: 3, Amount: 42.5, PaidBy: "Carol", Split: SplitEqual, Currency: "EUR", Shares: equalShares(42.5, 1, 3)},
		},
		Reimbursements: []Reimbursement{
			{ID: 1, FromID: 2, ToID: 1, Amount: 1.5, Status: StatusCompleted, Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
			{ID: 2, FromID: 3, ToID: 1, Amount: 2.0, Status: StatusPending, Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
		},
		Currency: "EUR",
	}

	first := Compute(snap, Viewer{UserID: 10})
	second := Compute(snap, Viewer{UserID: 10})
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated computation diverged:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestComputeNoOpposingEdges(t *testing.T) {
	snap := Snapshot{
		Participants: []Participant{
			{ID: 1, Name: "Alice"},
			{ID: 2, Name: "Bob"},
			{ID: 3, Name: "Carol"},
			{ID: 4, Name: "Dan"},
		},
		Expenses: []Expense{
			{ID: 1, Amount: 100.0, PaidBy: "Alice", Split: SplitEqual, Currency: "EUR", Shares: equalShares(100.0, 1, 2, 3, 4)},
			{ID: 2, Amount: 60.0, PaidBy: "Bob", Split: SplitEqual, Currency: "EUR", Shares: equalShares(60.0, 1, 2, 3)},
			{ID: 3, Amount: 45.0, PaidBy: "Carol", Split: SplitEqual, Currency: "EUR", Shares: equalShares(45.0, 2, 3, 4)},
			{ID: 4, Amount: 10.0, PaidBy: "Dan", Split: SplitEqual, Currency: "EUR", Shares: equalShares(10.0, 1, 4)},
		},
		Currency: "EUR",
	}

	res := Compute(snap, Viewer{})
	seen := make(map[[2]uint]bool)
	for _, d := range res.Debts {
		if seen[[2]uint{d.ToID, d.FromID}] {
			t.Errorf("opposing edges between %d and %d", d.FromID, d.ToID)
		}
		seen[[2]uint{d.FromID, d.ToID}] = true
	}
}

func TestComputeZeroSum(t *testing.T) {
	snap := Snapshot{
		Participants: []Participant{
			{ID: 1, Name: "Alice"},
			{ID: 2, Name: "Bob"},
			{ID: 3, Name: "Carol"},
		},
		Expenses: []Expense{
			{ID: 1, Amount: 20.0, PaidBy: "Alice", Split: SplitEqual, Currency: "EUR", Shares: equalShares(20.0, 1, 2, 3)},
			{ID: 2, Amount: 9.0, PaidBy: "Bob", Split: SplitEqual, Currency: "EUR", Shares: equalShares(9.0, 1, 2, 3)},
			{ID: 3, Amount: 33.33, PaidBy: "Carol", Split: SplitEqual, Currency: "EUR", Shares: equalShares(33.33, 1, 2, 3)},
		},
		Currency: "EUR",
	}

	res := Compute(snap, Viewer{})
	positions := make(map[uint]float64)
	for _, d := range res.Debts {
		positions[d.FromID] -= d.OriginalAmount
		positions[d.ToID] += d.OriginalAmount
	}
	var total float64
	for _, v := range positions {
		total += v
	}
	if math.Abs(total) > 0.02 {
		t.Errorf("net positions sum to %v, want ~0", total)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestReimbursementMonotonicity(t *testing.T) {
	base := Snapshot{
		Participants: []Participant{
			{ID: 1, Name: "Alice"},
			{ID: 2, Name: "Bob"},
		},
		Expenses: []Expense{
			{ID: 1, Amount: 30.0, PaidBy: "Alice", Split: SplitEqual, Currency: "EUR", Shares: equalShares(30.0, 1, 2)},
		},
		Currency: "EUR",
	}

	prev := math.Inf(1)
	for _, repaid := range []float64{0, 5, 10, 15, 20, 100} {
		snap := base
		if repaid > 0 {
			snap.Reimbursements = []Reimbursement{
				{ID: 1, FromID: 2, ToID: 1, Amount: repaid, Status: StatusCompleted, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
			}
		}
		res := Compute(snap, Viewer{})
		d := findDebt(t, res.Debts, 2, 1)
		if d.Amount < 0 {
			t.Errorf("repaid %v: remaining %v went negative", repaid, d.Amount)
		}
		if d.Amount > prev {
			t.Errorf("repaid %v: remaining %v exceeds previous %v", repaid, d.Amount, prev)
		}
		prev = d.Amount
	}
}

func TestResolveViewerNameFallback(t *testing.T) {
	participants := []Participant{
		{ID: 1, Name: "Alice", UserID: uintPtr(10)},
		{ID: 2, Name: "Bob"},
	}

	if p := ResolveViewer(participants, 10, "Alice"); p == nil || p.ID != 1 {
		t.Errorf("linked user: got %+v, want participant 1", p)
	}
	if p := ResolveViewer(participants, 99, "Bob"); p == nil || p.ID != 2 {
		t.Errorf("name fallback: got %+v, want participant 2", p)
	}
	// Name fallback must not hijack a participant linked to someone else.
	if p := ResolveViewer(participants, 99, "Alice"); p != nil {
		t.Errorf("got %+v, want nil for name matching a linked participant", p)
	}
	if p := ResolveViewer(participants, 0, ""); p != nil {
		t.Errorf("got %+v, want nil for anonymous viewer", p)
	}
}

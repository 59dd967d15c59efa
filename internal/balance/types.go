// Package balance computes the settlement state of an event: it folds raw
// expenses into pairwise debts, nets opposing obligations, applies confirmed
// reimbursements and projects per-user totals. All computation is pure and
// in-memory over a snapshot fetched by the caller; nothing here touches
// storage or retains state between calls.
package balance

import (
	"math"
	"time"
)

// Amounts within epsilon of each other are considered equal; this absorbs
// float64 rounding noise on 2-decimal currency values.
const epsilon = 0.01

// balanceTolerance bounds the acceptable drift of the zero-sum check over a
// whole event (per-pair rounding can accumulate beyond a single epsilon).
const balanceTolerance = 0.02

// ReimbursementStatus is the lifecycle state of a recorded repayment attempt.
type ReimbursementStatus string

const (
	StatusPending   ReimbursementStatus = "pending"
	StatusCompleted ReimbursementStatus = "completed"
	StatusRejected  ReimbursementStatus = "rejected"
)

// SplitKind determines how an expense amount is allocated to participants.
type SplitKind string

const (
	SplitEqual  SplitKind = "equal"
	SplitCustom SplitKind = "custom"
	SplitShares SplitKind = "shares"
)

// Participant is one member of the event. ID is the stable identity the
// engine keys on; Name is carried for display and for resolving legacy
// payer references recorded by name.
type Participant struct {
	ID     uint
	Name   string
	UserID *uint
}

// Share is one participant's allocation of an expense. Deselected
// participants are kept with Participates=false and a zero amount so the
// record survives for audit; they never contribute to debts.
type Share struct {
	ParticipantID uint
	Amount        float64
	Participates  bool
}

// Expense is one outlay paid by a single participant. PaidBy holds the
// payer's display name as stored historically; it is resolved to a
// participant ID once, at the start of computation.
type Expense struct {
	ID       uint
	Amount   float64
	PaidBy   string
	Split    SplitKind
	Currency string
	Shares   []Share
}

// Reimbursement is a recorded attempt by one participant to repay another.
type Reimbursement struct {
	ID     uint
	FromID uint
	ToID   uint
	Amount float64
	Status ReimbursementStatus
	Date   time.Time
}

// Snapshot is the full input of one settlement computation. The caller is
// responsible for reading all three collections consistently (ideally in a
// single transaction); the engine treats the snapshot as immutable.
type Snapshot struct {
	Participants   []Participant
	Expenses       []Expense
	Reimbursements []Reimbursement
	Currency       string
}

// ReimbursementRecord is one entry of a debt's audit trail.
type ReimbursementRecord struct {
	ID     uint                `json:"id"`
	Amount float64             `json:"amount"`
	Status ReimbursementStatus `json:"status"`
	Date   time.Time           `json:"date"`
}

// Debt is a single net directed obligation after netting and reconciliation.
// Amount is what remains to pay; OriginalAmount is the netted principal
// before completed reimbursements were subtracted.
type Debt struct {
	From                  string                `json:"from"`
	To                    string                `json:"to"`
	FromID                uint                  `json:"from_id"`
	ToID                  uint                  `json:"to_id"`
	Amount                float64               `json:"amount"`
	OriginalAmount        float64               `json:"original_amount"`
	ReimbursedAmount      float64               `json:"reimbursed_amount"`
	PendingReimbursement  float64               `json:"pending_reimbursement"`
	RejectedReimbursement float64               `json:"rejected_reimbursement"`
	TotalReimbursed       float64               `json:"total_reimbursed"`
	IsFullyReimbursed     bool                  `json:"is_fully_reimbursed"`
	Currency              string                `json:"currency"`
	Reimbursements        []ReimbursementRecord `json:"reimbursements"`
}

// CreditEntry is an amount someone owes the summarized participant.
type CreditEntry struct {
	From   string  `json:"from"`
	Amount float64 `json:"amount"`
}

// DebitEntry is an amount the summarized participant owes someone.
type DebitEntry struct {
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// Summary is the personal view of the settlement for one participant.
type Summary struct {
	ParticipantID  uint          `json:"participant_id"`
	UserID         uint          `json:"user_id,omitempty"`
	TotalToPay     float64       `json:"total_to_pay"`
	TotalToReceive float64       `json:"total_to_receive"`
	PendingToPay   float64       `json:"pending_to_pay"`
	RejectedToPay  float64       `json:"rejected_to_pay"`
	Credit         []CreditEntry `json:"credit"`
	Debit          []DebitEntry  `json:"debit"`
}

// Result is the full settlement output. Warnings carries non-fatal
// diagnostics (unknown payer names, zero-sum drift) for the caller to log;
// it is never serialized to clients.
type Result struct {
	Debts          []Debt   `json:"debts"`
	TotalToPay     float64  `json:"total_to_pay"`
	TotalToReceive float64  `json:"total_to_receive"`
	PendingToPay   float64  `json:"pending_to_pay"`
	RejectedToPay  float64  `json:"rejected_to_pay"`
	UserSummary    *Summary `json:"user_summary,omitempty"`
	Warnings       []string `json:"-"`
}

// round2 rounds to 2 decimal places, the precision of every emitted amount.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package models

import "testing"

func TestReimbursementStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    ReimbursementStatus
		to      ReimbursementStatus
		allowed bool
	}{
		{"pending to completed", ReimbursementStatusPending, ReimbursementStatusCompleted, true},
		{"pending to rejected", ReimbursementStatusPending, ReimbursementStatusRejected, true},
		{"pending to pending", ReimbursementStatusPending, ReimbursementStatusPending, false},
		{"completed is terminal", ReimbursementStatusCompleted, ReimbursementStatusRejected, false},
		{"rejected is terminal", ReimbursementStatusRejected, ReimbursementStatusCompleted, false},
		{"unknown target", ReimbursementStatusPending, ReimbursementStatus("refunded"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
				t.Errorf("CanTransitionTo(%s -> %s) = %v; want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

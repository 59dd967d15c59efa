package models

import (
	"time"

	"gorm.io/gorm"
)

// ReimbursementStatus is the lifecycle state of a repayment attempt.
// Pending may move to completed or rejected; both of those are terminal.
type ReimbursementStatus string

const (
	ReimbursementStatusPending   ReimbursementStatus = "pending"
	ReimbursementStatusCompleted ReimbursementStatus = "completed"
	ReimbursementStatusRejected  ReimbursementStatus = "rejected"
)

// CanTransitionTo reports whether the status may move to the target state.
func (s ReimbursementStatus) CanTransitionTo(target ReimbursementStatus) bool {
	if s != ReimbursementStatusPending {
		return false
	}
	return target == ReimbursementStatusCompleted || target == ReimbursementStatusRejected
}

// Reimbursement records one attempted repayment from one participant to
// another. Amount and endpoints are immutable once created; only the status
// changes, through CanTransitionTo.
type Reimbursement struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	EventID           uint                `gorm:"index" json:"event_id"`
	FromParticipantID uint                `gorm:"index" json:"from_participant_id"`
	ToParticipantID   uint                `gorm:"index" json:"to_participant_id"`
	Amount            float64             `gorm:"type:decimal(15,2)" json:"amount"`
	Currency          string              `gorm:"type:varchar(10)" json:"currency"`
	Status            ReimbursementStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	Note              string              `gorm:"type:varchar(255)" json:"note"`
	Date              time.Time           `json:"date"`

	// Relationships
	Event           Event       `gorm:"foreignKey:EventID" json:"event,omitempty"`
	FromParticipant Participant `gorm:"foreignKey:FromParticipantID" json:"from_participant,omitempty"`
	ToParticipant   Participant `gorm:"foreignKey:ToParticipantID" json:"to_participant,omitempty"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// SplitKind determines how an expense amount is allocated across shares.
type SplitKind string

const (
	SplitKindEqual  SplitKind = "equal"
	SplitKindCustom SplitKind = "custom"
	SplitKindShares SplitKind = "shares"
)

// Expense is one outlay paid by a single participant on behalf of the
// group. Shares are replaced wholesale on update, never edited in place.
type Expense struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	EventID     uint      `gorm:"index" json:"event_id"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	Amount      float64   `gorm:"type:decimal(15,2)" json:"amount"`
	PaidByID    uint      `gorm:"index" json:"paid_by_id"`
	SplitKind   SplitKind `gorm:"type:varchar(20);default:'equal'" json:"split_kind"`
	Currency    string    `gorm:"type:varchar(10)" json:"currency"`
	SpentAt     time.Time `json:"spent_at"`

	// Relationships
	Event  Event          `gorm:"foreignKey:EventID" json:"event,omitempty"`
	PaidBy Participant    `gorm:"foreignKey:PaidByID" json:"paid_by,omitempty"`
	Shares []ExpenseShare `gorm:"foreignKey:ExpenseID" json:"shares,omitempty"`
}

// ExpenseShare is one participant's allocation of an expense. Deselected
// participants keep a row with Participates=false and a zero amount so the
// selection survives edits and audits.
type ExpenseShare struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ExpenseID     uint    `gorm:"index" json:"expense_id"`
	ParticipantID uint    `gorm:"index" json:"participant_id"`
	Amount        float64 `gorm:"type:decimal(15,2)" json:"amount"`
	Weight        float64 `gorm:"type:decimal(10,2);default:1" json:"weight"`
	Participates  bool    `gorm:"default:true" json:"participates"`

	// Relationships
	Expense     Expense     `gorm:"foreignKey:ExpenseID" json:"expense,omitempty"`
	Participant Participant `gorm:"foreignKey:ParticipantID" json:"participant,omitempty"`
}

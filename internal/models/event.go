package models

import (
	"time"

	"gorm.io/gorm"
)

// Event scopes a group of participants sharing expenses: a trip, a
// household, a recurring activity. Code is the short invite token members
// use to join.
type Event struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name        string `gorm:"type:varchar(255)" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Code        string `gorm:"type:varchar(20);uniqueIndex" json:"code"`
	Currency    string `gorm:"type:varchar(10);default:'EUR'" json:"currency"`
	CreatedBy   uint   `gorm:"index" json:"created_by"`

	// Relationships
	Participants   []Participant   `gorm:"foreignKey:EventID" json:"participants,omitempty"`
	Expenses       []Expense       `gorm:"foreignKey:EventID" json:"expenses,omitempty"`
	Reimbursements []Reimbursement `gorm:"foreignKey:EventID" json:"reimbursements,omitempty"`
}

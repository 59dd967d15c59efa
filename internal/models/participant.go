package models

import (
	"time"

	"gorm.io/gorm"
)

// Participant is one member of an event. Name must be unique within the
// event and is what other members see; UserID links the participant to an
// account once the person registers, and stays nil for members added by
// name only.
type Participant struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	EventID uint   `gorm:"uniqueIndex:idx_participants_event_name,priority:1" json:"event_id"`
	Name    string `gorm:"type:varchar(255);uniqueIndex:idx_participants_event_name,priority:2" json:"name"`
	UserID  *uint  `gorm:"index" json:"user_id,omitempty"`

	// Relationships
	Event Event `gorm:"foreignKey:EventID" json:"event,omitempty"`
	User  *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

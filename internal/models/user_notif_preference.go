package models

import (
	"time"

	"gorm.io/gorm"
)

type NotificationChannel string

const (
	NotificationChannelEmail NotificationChannel = "email"
	NotificationChannelPush  NotificationChannel = "push"
	NotificationChannelNone  NotificationChannel = "none"
)

// UserNotifPreference holds how a user wants to receive settlement
// reminders. ExpoPushToken is set by the mobile client on login and is
// required for the push channel to work.
type UserNotifPreference struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID uint `gorm:"uniqueIndex" json:"user_id"`

	Channel       NotificationChannel `gorm:"type:varchar(20);default:'email'" json:"channel"`
	ExpoPushToken string              `gorm:"type:varchar(100)" json:"expo_push_token"`
}

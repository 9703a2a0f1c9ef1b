package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReminderRecipient is an addressee for a standalone obligation's reminders.
// UserID is empty for externally-known contacts; name and email are captured
// redundantly so the reminder stays self-contained if the user row changes.
type ReminderRecipient struct {
	ID           string `gorm:"type:uuid;primaryKey" json:"id"`
	ObligationID string `gorm:"type:uuid;index;not null" json:"obligation_id"`
	UserID       string `gorm:"type:uuid" json:"user_id,omitempty"`

	Name  string `gorm:"not null" json:"name"`
	Email string `gorm:"not null" json:"email"`

	CreatedAt time.Time `json:"created_at"`
}

func (r *ReminderRecipient) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Reminder is one scheduled notification for one addressee at one escalation
// stage. ScheduledDate is indexed for the daily due-today scan; the token is
// single-use and unique across all reminders.
type Reminder struct {
	ID                  string `gorm:"type:uuid;primaryKey" json:"id"`
	ObligationID        string `gorm:"type:uuid;index;not null" json:"obligation_id"`
	ReminderRecipientID string `gorm:"type:uuid;index;not null" json:"reminder_recipient_id"`

	Stage         ReminderStage  `gorm:"not null" json:"stage"`
	ScheduledDate time.Time      `gorm:"index;not null" json:"scheduled_date"`
	Status        ReminderStatus `gorm:"not null;default:pending" json:"status"`

	Token string `gorm:"uniqueIndex;not null" json:"-"`

	SentAt      *time.Time `json:"sent_at,omitempty"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	ConfirmedBy string     `json:"confirmed_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Reminder) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Confirmation is the immutable audit record written when a reminder token is
// redeemed.
type Confirmation struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"id"`
	ReminderID string `gorm:"type:uuid;index;not null" json:"reminder_id"`

	Type           ConfirmationType `gorm:"not null" json:"confirmation_type"`
	ConfirmedBy    string           `gorm:"not null" json:"confirmed_by"`
	ConfirmedEmail string           `json:"confirmed_email,omitempty"`
	Notes          string           `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (c *Confirmation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

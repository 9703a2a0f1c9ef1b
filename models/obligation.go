package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Obligation is a standalone recurring duty tracked independently of any
// survey run. Frequency here is advisory metadata; obligations never recur on
// their own.
type Obligation struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Type        string `gorm:"not null" json:"type"`
	Description string `json:"description,omitempty"`

	DueDate   time.Time `gorm:"not null" json:"due_date"`
	AnchorDay *int      `json:"anchor_day,omitempty"`
	Frequency Frequency `gorm:"not null;default:once" json:"frequency"`

	Status   ObligationStatus `gorm:"not null;default:active" json:"status"`
	Priority string           `json:"priority,omitempty"`

	AssigneeID   string `gorm:"type:uuid" json:"assignee_id,omitempty"`
	DepartmentID string `gorm:"type:uuid" json:"department_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *Obligation) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

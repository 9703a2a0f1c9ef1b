package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobRecord is the persisted trace of one background job invocation (daily
// tick). Keeping it in the store means job history survives restarts and
// tests can assert on it without a shared registry.
type JobRecord struct {
	ID     string    `gorm:"type:uuid;primaryKey" json:"id"`
	Kind   string    `gorm:"not null;index" json:"kind"`
	Status JobStatus `gorm:"not null" json:"status"`
	Detail string    `json:"detail,omitempty"`

	StartedAt  time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func (j *JobRecord) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

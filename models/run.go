package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Run is one compliance survey campaign. A recurring run acts as the template
// its occurrences are cloned from; clones are always single occurrences.
type Run struct {
	// ID is a UUID primary key, assigned in BeforeCreate so the same model
	// works under Postgres and the SQLite databases used in tests.
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"not null" json:"description"`

	// Frequency drives recurrence. IsRecurring is true iff Frequency != once.
	Frequency   Frequency `gorm:"not null" json:"frequency"`
	IsRecurring bool      `json:"is_recurring"`

	StartDate time.Time `gorm:"not null" json:"start_date"`
	DueDate   time.Time `gorm:"not null" json:"due_date"`

	// AnchorDay is the day-of-month (or weekday index 1-7 for weekly runs)
	// the recurrence calculator pins occurrences to.
	AnchorDay int `json:"anchor_day"`

	// LastRunDate/NextRunDate are recurrence bookkeeping. NextRunDate is set
	// only while the run is recurring and active.
	LastRunDate *time.Time `json:"last_run_date,omitempty"`
	NextRunDate *time.Time `json:"next_run_date,omitempty"`

	Status  RunStatus `gorm:"not null;default:draft" json:"status"`
	OwnerID string    `gorm:"type:uuid" json:"owner_id"`

	// TargetDepartments holds the audience as a JSON array of department ids.
	TargetDepartments datatypes.JSON `json:"target_departments"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Run) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Question belongs to exactly one Run and keeps a fixed ordinal position
// within it. Options is only populated for multiple-choice questions,
// MaxScore only for score questions.
type Question struct {
	ID       string         `gorm:"type:uuid;primaryKey" json:"id"`
	RunID    string         `gorm:"type:uuid;index;not null" json:"run_id"`
	Text     string         `gorm:"not null" json:"text"`
	Type     QuestionType   `gorm:"not null" json:"type"`
	Required bool           `json:"required"`
	Options  datatypes.JSON `json:"options,omitempty"`
	MaxScore int            `json:"max_score,omitempty"`
	Position int            `gorm:"not null" json:"position"`

	CreatedAt time.Time `json:"created_at"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

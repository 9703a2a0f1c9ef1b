package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recipient is the participation record for one (run, person) pair. Name and
// email are snapshots taken at fan-out time so the record stays usable even
// if the user row changes later. The token authorizes exactly one survey
// completion and is never reissued.
type Recipient struct {
	ID           string `gorm:"type:uuid;primaryKey" json:"id"`
	RunID        string `gorm:"type:uuid;index;not null" json:"run_id"`
	UserID       string `gorm:"type:uuid" json:"user_id"`
	DepartmentID string `gorm:"type:uuid" json:"department_id"`

	Name  string `json:"name"`
	Email string `gorm:"not null" json:"email"`

	Token string `gorm:"uniqueIndex;not null" json:"-"`

	EmailSent   bool       `json:"email_sent"`
	EmailSentAt *time.Time `json:"email_sent_at,omitempty"`

	SurveyCompleted   bool       `json:"survey_completed"`
	SurveyCompletedAt *time.Time `json:"survey_completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Recipient) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Response is one recipient's answer to one question.
type Response struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID string `gorm:"type:uuid;index;not null" json:"recipient_id"`
	QuestionID  string `gorm:"type:uuid;index;not null" json:"question_id"`

	Answer  string `json:"answer"`
	Score   *int   `json:"score,omitempty"`
	Comment string `json:"comment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (r *Response) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

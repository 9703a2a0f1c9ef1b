package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	model "github.com/arnavb7/CompliFlow/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ComplianceService owns the survey-run side of the engine: run lifecycle,
// recipient fan-out, and survey submission by token.
type ComplianceService struct {
	db       *gorm.DB
	notifier Notifier
	baseURL  string
	now      func() time.Time
}

// NewComplianceService wires the service with its store and notifier. The
// clock defaults to time.Now and is overridable in tests.
func NewComplianceService(db *gorm.DB, notifier Notifier, baseURL string) *ComplianceService {
	return &ComplianceService{
		db:       db,
		notifier: notifier,
		baseURL:  baseURL,
		now:      time.Now,
	}
}

// QuestionInput describes one question of a run being created.
type QuestionInput struct {
	Text     string             `json:"text"`
	Type     model.QuestionType `json:"type"`
	Required bool               `json:"required"`
	Options  []string           `json:"options,omitempty"`
	MaxScore int                `json:"max_score,omitempty"`
}

// CreateRunInput carries everything needed to create a draft run.
type CreateRunInput struct {
	Title               string          `json:"title"`
	Description         string          `json:"description"`
	Frequency           model.Frequency `json:"frequency"`
	StartDate           time.Time       `json:"start_date"`
	DueDate             time.Time       `json:"due_date"`
	AnchorDay           int             `json:"anchor_day"`
	OwnerID             string          `json:"owner_id"`
	TargetDepartmentIDs []string        `json:"target_department_ids"`
	Questions           []QuestionInput `json:"questions"`
}

// CreateRun validates the input and persists the run plus its questions in
// one transaction. The run starts in draft; no recipients exist until
// activation.
func (s *ComplianceService) CreateRun(input CreateRunInput) (*model.Run, error) {
	if err := validateRunInput(input); err != nil {
		return nil, err
	}

	departments, err := json.Marshal(input.TargetDepartmentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode target departments: %w", err)
	}

	run := model.Run{
		Title:             input.Title,
		Description:       input.Description,
		Frequency:         input.Frequency,
		IsRecurring:       input.Frequency != model.FrequencyOnce,
		StartDate:         DateOnly(input.StartDate),
		DueDate:           DateOnly(input.DueDate),
		AnchorDay:         input.AnchorDay,
		Status:            model.RunStatusDraft,
		OwnerID:           input.OwnerID,
		TargetDepartments: datatypes.JSON(departments),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return err
		}
		for i, q := range input.Questions {
			question := model.Question{
				RunID:    run.ID,
				Text:     q.Text,
				Type:     q.Type,
				Required: q.Required,
				MaxScore: q.MaxScore,
				Position: i,
			}
			if len(q.Options) > 0 {
				opts, err := json.Marshal(q.Options)
				if err != nil {
					return fmt.Errorf("failed to encode question options: %w", err)
				}
				question.Options = datatypes.JSON(opts)
			}
			if err := tx.Create(&question).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[CreateRun] Error creating run %q: %v", input.Title, err)
		return nil, err
	}

	log.Printf("[CreateRun] Run %s created with %d questions", run.ID, len(input.Questions))
	return &run, nil
}

func validateRunInput(input CreateRunInput) error {
	switch {
	case input.Title == "":
		return newValidationError("title is required")
	case input.Description == "":
		return newValidationError("description is required")
	case !input.Frequency.Valid():
		return newValidationError("unknown frequency %q", input.Frequency)
	case input.StartDate.IsZero():
		return newValidationError("start date is required")
	case input.DueDate.IsZero():
		return newValidationError("due date is required")
	case input.OwnerID == "":
		return newValidationError("owner is required")
	}
	if err := validateAnchorDay(input.Frequency, input.AnchorDay); err != nil {
		return err
	}
	if DateOnly(input.DueDate).Before(DateOnly(input.StartDate)) {
		return newValidationError("due date precedes start date")
	}
	for i, q := range input.Questions {
		if q.Text == "" {
			return newValidationError("question %d has no text", i+1)
		}
		if !q.Type.Valid() {
			return newValidationError("question %d has unknown type %q", i+1, q.Type)
		}
		if q.Type == model.QuestionMultipleChoice && len(q.Options) == 0 {
			return newValidationError("question %d is multiple-choice but has no options", i+1)
		}
		if q.Type == model.QuestionScore && q.MaxScore <= 0 {
			return newValidationError("question %d is score-typed but has no max score", i+1)
		}
	}
	return nil
}

// ActivateRun transitions a draft run to active and fans it out to the
// resolved audience. The status change and the recipient rows commit in one
// transaction; if the audience resolves empty nothing is written and the run
// stays in draft. Email dispatch happens after the commit, best-effort.
func (s *ComplianceService) ActivateRun(runID string) (*model.Run, error) {
	var run model.Run
	if err := s.db.First(&run, "id = ?", runID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Entity: "run", ID: runID}
		}
		return nil, err
	}
	if run.Status != model.RunStatusDraft {
		return nil, newValidationError("run %s is %s, only draft runs can be activated", runID, run.Status)
	}

	audience, err := s.resolveAudience(&run)
	if err != nil {
		return nil, err
	}
	if len(audience) == 0 {
		log.Printf("[ActivateRun] No eligible department heads for run %s, staying in draft", runID)
		return nil, &NoAudienceError{RunID: runID}
	}

	var recipients []model.Recipient
	err = s.db.Transaction(func(tx *gorm.DB) error {
		run.Status = model.RunStatusActive
		if run.IsRecurring {
			next := NextOccurrence(run.Frequency, run.AnchorDay, run.DueDate)
			run.NextRunDate = &next
		}
		if err := tx.Save(&run).Error; err != nil {
			return err
		}
		created, err := createRecipients(tx, run.ID, audience)
		if err != nil {
			return err
		}
		recipients = created
		return nil
	})
	if err != nil {
		log.Printf("[ActivateRun] Error activating run %s: %v", runID, err)
		return nil, err
	}

	log.Printf("[ActivateRun] Run %s activated with %d recipients", runID, len(recipients))
	s.dispatchRecipients(&run, recipients, TemplateSurveyInvite)
	return &run, nil
}

// PauseRun suppresses further recurrence and fan-out for an active run.
func (s *ComplianceService) PauseRun(runID string) error {
	return s.transitionRun(runID, model.RunStatusActive, model.RunStatusPaused)
}

// ResumeRun puts a paused run back into active rotation.
func (s *ComplianceService) ResumeRun(runID string) error {
	return s.transitionRun(runID, model.RunStatusPaused, model.RunStatusActive)
}

func (s *ComplianceService) transitionRun(runID string, from, to model.RunStatus) error {
	var run model.Run
	if err := s.db.First(&run, "id = ?", runID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &NotFoundError{Entity: "run", ID: runID}
		}
		return err
	}
	if run.Status != from {
		return newValidationError("run %s is %s, expected %s", runID, run.Status, from)
	}

	// next_run_date holds a value only while the run is recurring and active.
	updates := map[string]interface{}{"status": to}
	if run.IsRecurring {
		switch to {
		case model.RunStatusActive:
			updates["next_run_date"] = NextOccurrence(run.Frequency, run.AnchorDay, DateOnly(s.now()))
		default:
			updates["next_run_date"] = nil
		}
	}
	if err := s.db.Model(&run).Updates(updates).Error; err != nil {
		log.Printf("[transitionRun] Error moving run %s to %s: %v", runID, to, err)
		return err
	}
	return nil
}

// ListRuns returns all runs, newest first.
func (s *ComplianceService) ListRuns() ([]model.Run, error) {
	var runs []model.Run
	if err := s.db.Order("created_at DESC").Find(&runs).Error; err != nil {
		log.Printf("[ListRuns] Error fetching runs: %v", err)
		return nil, err
	}
	return runs, nil
}

// GetRunWithStats returns a run, its questions in order, and completion
// statistics over its recipients.
func (s *ComplianceService) GetRunWithStats(runID string) (map[string]interface{}, error) {
	var run model.Run
	if err := s.db.First(&run, "id = ?", runID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Entity: "run", ID: runID}
		}
		return nil, err
	}

	var questions []model.Question
	if err := s.db.Where("run_id = ?", runID).Order("position ASC").Find(&questions).Error; err != nil {
		return nil, err
	}

	var recipients []model.Recipient
	if err := s.db.Where("run_id = ?", runID).Find(&recipients).Error; err != nil {
		return nil, err
	}

	completed := 0
	sent := 0
	for _, r := range recipients {
		if r.SurveyCompleted {
			completed++
		}
		if r.EmailSent {
			sent++
		}
	}
	rate := 0.0
	if len(recipients) > 0 {
		rate = float64(completed) / float64(len(recipients))
	}

	return map[string]interface{}{
		"run":       run,
		"questions": questions,
		"stats": map[string]interface{}{
			"total_recipients": len(recipients),
			"emails_sent":      sent,
			"completed":        completed,
			"completion_rate":  rate,
		},
	}, nil
}

package services

import (
	"log"
	"strings"

	model "github.com/arnavb7/CompliFlow/models"
	"gorm.io/gorm"
)

// AnswerInput is one answer in a survey submission.
type AnswerInput struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
	Score      *int   `json:"score,omitempty"`
	Comment    string `json:"comment,omitempty"`
}

// GetSurveyByToken resolves a recipient token into the survey the token link
// renders: the run, its questions in order, and whether this recipient has
// already completed it.
func (s *ComplianceService) GetSurveyByToken(token string) (map[string]interface{}, error) {
	var recipient model.Recipient
	if err := s.db.First(&recipient, "token = ?", token).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &InvalidTokenError{Reason: "unknown token"}
		}
		return nil, err
	}

	var run model.Run
	if err := s.db.First(&run, "id = ?", recipient.RunID).Error; err != nil {
		return nil, err
	}
	var questions []model.Question
	if err := s.db.Where("run_id = ?", run.ID).Order("position ASC").Find(&questions).Error; err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"title":       run.Title,
		"description": run.Description,
		"due_date":    run.DueDate,
		"questions":   questions,
		"completed":   recipient.SurveyCompleted,
	}, nil
}

// SubmitSurvey validates and applies a token-bearing survey submission
// exactly once: one response row per answer plus the completion flag commit
// together or not at all. When the last outstanding recipient completes, the
// run is closed out in the same transaction.
func (s *ComplianceService) SubmitSurvey(token string, answers []AnswerInput) error {
	var recipient model.Recipient
	if err := s.db.First(&recipient, "token = ?", token).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &InvalidTokenError{Reason: "unknown token"}
		}
		return err
	}
	if recipient.SurveyCompleted {
		return &AlreadyCompletedError{}
	}

	var questions []model.Question
	if err := s.db.Where("run_id = ?", recipient.RunID).Find(&questions).Error; err != nil {
		return err
	}
	known := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		known[q.ID] = q
	}

	var foreign, duplicated []string
	answered := make(map[string]bool, len(answers))
	for _, a := range answers {
		if _, ok := known[a.QuestionID]; !ok {
			foreign = append(foreign, a.QuestionID)
		}
		if answered[a.QuestionID] {
			duplicated = append(duplicated, a.QuestionID)
		}
		answered[a.QuestionID] = true
	}
	if len(foreign) > 0 {
		return &InvalidQuestionError{QuestionIDs: foreign}
	}
	if len(duplicated) > 0 {
		return newValidationError("questions answered more than once: %s", strings.Join(duplicated, ", "))
	}
	for _, q := range questions {
		if q.Required && !answered[q.ID] {
			return newValidationError("required question %q has no answer", q.Text)
		}
	}

	now := s.now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, a := range answers {
			response := model.Response{
				RecipientID: recipient.ID,
				QuestionID:  a.QuestionID,
				Answer:      a.Answer,
				Score:       a.Score,
				Comment:     a.Comment,
			}
			if err := tx.Create(&response).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&recipient).Updates(map[string]interface{}{
			"survey_completed":    true,
			"survey_completed_at": now,
		}).Error; err != nil {
			return err
		}

		var outstanding int64
		if err := tx.Model(&model.Recipient{}).
			Where("run_id = ? AND survey_completed = ?", recipient.RunID, false).
			Count(&outstanding).Error; err != nil {
			return err
		}
		if outstanding == 0 {
			if err := tx.Model(&model.Run{}).
				Where("id = ? AND status = ?", recipient.RunID, model.RunStatusActive).
				Updates(map[string]interface{}{
					"status":        model.RunStatusCompleted,
					"next_run_date": nil,
				}).Error; err != nil {
				return err
			}
			log.Printf("[SubmitSurvey] Run %s completed by all recipients", recipient.RunID)
		}
		return nil
	})
	if err != nil {
		log.Printf("[SubmitSurvey] Error applying submission for recipient %s: %v", recipient.ID, err)
		return err
	}

	log.Printf("[SubmitSurvey] Recipient %s completed survey for run %s", recipient.ID, recipient.RunID)
	return nil
}

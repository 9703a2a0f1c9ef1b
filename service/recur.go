package services

import (
	"log"

	model "github.com/arnavb7/CompliFlow/models"
	"gorm.io/gorm"
)

// Recur clones a recurring run into a fresh single-occurrence run and rolls
// the parent's recurrence bookkeeping forward. The clone carries the parent's
// questions in order and the parent's recipient pairing with fresh tokens.
// Clone and parent update commit in one transaction; dispatch of the clone's
// invitations happens after the commit.
func (s *ComplianceService) Recur(run *model.Run) (*model.Run, error) {
	if !run.IsRecurring {
		return nil, newValidationError("run %s is not recurring", run.ID)
	}
	if run.Status != model.RunStatusActive {
		return nil, newValidationError("run %s is %s, only active runs recur", run.ID, run.Status)
	}
	if run.NextRunDate == nil {
		return nil, newValidationError("run %s has no next run date", run.ID)
	}

	today := DateOnly(s.now())
	occurrence := DateOnly(*run.NextRunDate)

	var questions []model.Question
	if err := s.db.Where("run_id = ?", run.ID).Order("position ASC").Find(&questions).Error; err != nil {
		return nil, err
	}
	var parentRecipients []model.Recipient
	if err := s.db.Where("run_id = ?", run.ID).Find(&parentRecipients).Error; err != nil {
		return nil, err
	}

	clone := model.Run{
		Title:             run.Title + " (" + occurrence.Format("2006-01-02") + ")",
		Description:       run.Description,
		Frequency:         run.Frequency,
		IsRecurring:       false,
		StartDate:         today,
		DueDate:           occurrence,
		AnchorDay:         run.AnchorDay,
		Status:            model.RunStatusActive,
		OwnerID:           run.OwnerID,
		TargetDepartments: run.TargetDepartments,
	}

	var cloneRecipients []model.Recipient
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&clone).Error; err != nil {
			return err
		}
		for _, q := range questions {
			question := model.Question{
				RunID:    clone.ID,
				Text:     q.Text,
				Type:     q.Type,
				Required: q.Required,
				Options:  q.Options,
				MaxScore: q.MaxScore,
				Position: q.Position,
			}
			if err := tx.Create(&question).Error; err != nil {
				return err
			}
		}
		for _, parent := range parentRecipients {
			token, err := newToken()
			if err != nil {
				return err
			}
			recipient := model.Recipient{
				RunID:        clone.ID,
				UserID:       parent.UserID,
				DepartmentID: parent.DepartmentID,
				Name:         parent.Name,
				Email:        parent.Email,
				Token:        token,
			}
			if err := tx.Create(&recipient).Error; err != nil {
				return err
			}
			cloneRecipients = append(cloneRecipients, recipient)
		}

		next := NextOccurrence(run.Frequency, run.AnchorDay, today)
		return tx.Model(run).Updates(map[string]interface{}{
			"last_run_date": today,
			"next_run_date": next,
		}).Error
	})
	if err != nil {
		log.Printf("[Recur] Error recurring run %s: %v", run.ID, err)
		return nil, err
	}

	log.Printf("[Recur] Run %s recurred into %s (%d recipients)", run.ID, clone.ID, len(cloneRecipients))
	s.dispatchRecipients(&clone, cloneRecipients, TemplateRecurringRunDispatch)
	return &clone, nil
}

// RecurDueRuns spawns an occurrence for every recurring active run whose
// next run date has arrived. A failure on one run is logged and does not
// block the others.
func (s *ComplianceService) RecurDueRuns() (int, error) {
	today := DateOnly(s.now())

	var due []model.Run
	err := s.db.
		Where("is_recurring = ? AND status = ? AND next_run_date <= ?", true, model.RunStatusActive, today).
		Find(&due).Error
	if err != nil {
		log.Printf("[RecurDueRuns] Error selecting due runs: %v", err)
		return 0, err
	}

	recurred := 0
	for i := range due {
		if _, err := s.Recur(&due[i]); err != nil {
			log.Printf("[RecurDueRuns] Error recurring run %s: %v", due[i].ID, err)
			continue
		}
		recurred++
	}
	return recurred, nil
}

// ExpireOverdueRuns freezes single-occurrence active runs whose due date has
// passed without every recipient completing. Recurring templates are left
// alone; they stop only when paused or expired by hand.
func (s *ComplianceService) ExpireOverdueRuns() (int, error) {
	today := DateOnly(s.now())

	var overdue []model.Run
	err := s.db.
		Where("is_recurring = ? AND status = ? AND due_date < ?", false, model.RunStatusActive, today).
		Find(&overdue).Error
	if err != nil {
		log.Printf("[ExpireOverdueRuns] Error selecting overdue runs: %v", err)
		return 0, err
	}

	expired := 0
	for _, run := range overdue {
		if err := s.db.Model(&run).Updates(map[string]interface{}{
			"status":        model.RunStatusExpired,
			"next_run_date": nil,
		}).Error; err != nil {
			log.Printf("[ExpireOverdueRuns] Error expiring run %s: %v", run.ID, err)
			continue
		}
		expired++
	}
	return expired, nil
}

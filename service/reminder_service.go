package services

import (
	"log"

	model "github.com/arnavb7/CompliFlow/models"
	"gorm.io/gorm"
)

// stageOffsets maps each auto-scheduled escalation stage to its distance
// before the due date. The overdue stage is deliberately absent: it exists as
// a status value but nothing schedules it.
var stageOffsets = []struct {
	stage model.ReminderStage
	days  int
}{
	{model.StageTwoWeeks, -14},
	{model.StageOneWeek, -7},
	{model.StageDueDate, 0},
}

// ScheduleReminders lays out the reminder timeline for an obligation: one
// pending reminder per stage per addressee, each with its own confirmation
// token. Pairs that already exist are skipped, so re-invoking the operation
// never duplicates the timeline. All new rows commit in one transaction.
func (s *ObligationService) ScheduleReminders(obligationID string) ([]model.Reminder, error) {
	var obligation model.Obligation
	if err := s.db.First(&obligation, "id = ?", obligationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Entity: "obligation", ID: obligationID}
		}
		return nil, err
	}

	var recipients []model.ReminderRecipient
	if err := s.db.Where("obligation_id = ?", obligationID).Find(&recipients).Error; err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, newValidationError("obligation %s has no reminder recipients", obligationID)
	}

	var existing []model.Reminder
	if err := s.db.Where("obligation_id = ?", obligationID).Find(&existing).Error; err != nil {
		return nil, err
	}
	scheduled := make(map[string]bool, len(existing))
	for _, r := range existing {
		scheduled[r.ReminderRecipientID+"/"+string(r.Stage)] = true
	}

	due := DateOnly(obligation.DueDate)
	var created []model.Reminder
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, recipient := range recipients {
			for _, offset := range stageOffsets {
				if scheduled[recipient.ID+"/"+string(offset.stage)] {
					continue
				}
				token, err := newToken()
				if err != nil {
					return err
				}
				reminder := model.Reminder{
					ObligationID:        obligationID,
					ReminderRecipientID: recipient.ID,
					Stage:               offset.stage,
					ScheduledDate:       due.AddDate(0, 0, offset.days),
					Status:              model.ReminderPending,
					Token:               token,
				}
				if err := tx.Create(&reminder).Error; err != nil {
					return err
				}
				created = append(created, reminder)
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[ScheduleReminders] Error scheduling reminders for obligation %s: %v", obligationID, err)
		return nil, err
	}

	log.Printf("[ScheduleReminders] Obligation %s: %d reminders scheduled", obligationID, len(created))
	return created, nil
}

// SelectDueToday returns every reminder scheduled for today that is still
// pending. Reminders already sent, confirmed, or failed are excluded, so a
// re-run after a partial dispatch never re-notifies anyone.
func (s *ObligationService) SelectDueToday() ([]model.Reminder, error) {
	today := DateOnly(s.now())
	tomorrow := today.AddDate(0, 0, 1)

	var due []model.Reminder
	err := s.db.
		Where("scheduled_date >= ? AND scheduled_date < ? AND status = ?", today, tomorrow, model.ReminderPending).
		Find(&due).Error
	if err != nil {
		log.Printf("[SelectDueToday] Error selecting due reminders: %v", err)
		return nil, err
	}
	return due, nil
}

// DispatchReminder resolves the obligation and addressee behind a reminder,
// sends the confirmation link, and records the outcome. Failure is terminal:
// the reminder flips to failed and a human has to re-trigger it.
func (s *ObligationService) DispatchReminder(reminder *model.Reminder) error {
	var obligation model.Obligation
	if err := s.db.First(&obligation, "id = ?", reminder.ObligationID).Error; err != nil {
		return err
	}
	var recipient model.ReminderRecipient
	if err := s.db.First(&recipient, "id = ?", reminder.ReminderRecipientID).Error; err != nil {
		return err
	}

	payload := map[string]string{
		"name":       recipient.Name,
		"obligation": obligation.Name,
		"due_date":   obligation.DueDate.Format("January 2, 2006"),
		"stage":      string(reminder.Stage),
		"link":       confirmLink(s.baseURL, reminder.Token),
	}
	if err := s.notifier.Send(recipient.Email, TemplateObligationReminder, payload); err != nil {
		dispatchErr := &DispatchError{Email: recipient.Email, Err: err}
		log.Printf("[DispatchReminder] Reminder %s: %v", reminder.ID, dispatchErr)
		if dbErr := s.db.Model(reminder).Update("status", model.ReminderFailed).Error; dbErr != nil {
			log.Printf("[DispatchReminder] Error marking reminder %s as failed: %v", reminder.ID, dbErr)
		}
		return dispatchErr
	}

	now := s.now()
	if err := s.db.Model(reminder).Updates(map[string]interface{}{
		"status":  model.ReminderSent,
		"sent_at": now,
	}).Error; err != nil {
		log.Printf("[DispatchReminder] Error marking reminder %s as sent: %v", reminder.ID, err)
		return err
	}
	return nil
}

// DispatchDueReminders sends every reminder due today. Per-item failures are
// captured on the reminder row and do not abort the batch; the return value
// counts successful sends.
func (s *ObligationService) DispatchDueReminders() (int, error) {
	due, err := s.SelectDueToday()
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range due {
		if err := s.DispatchReminder(&due[i]); err != nil {
			continue
		}
		sent++
	}
	log.Printf("[DispatchDueReminders] %d/%d due reminders dispatched", sent, len(due))
	return sent, nil
}

// ListPendingReminders returns all pending reminders, soonest first.
func (s *ObligationService) ListPendingReminders() ([]model.Reminder, error) {
	var pending []model.Reminder
	err := s.db.
		Where("status = ?", model.ReminderPending).
		Order("scheduled_date ASC").
		Find(&pending).Error
	if err != nil {
		log.Printf("[ListPendingReminders] Error fetching pending reminders: %v", err)
		return nil, err
	}
	return pending, nil
}

// GetReminderByToken resolves a confirmation token into the context the
// confirmation page renders.
func (s *ObligationService) GetReminderByToken(token string) (map[string]interface{}, error) {
	var reminder model.Reminder
	if err := s.db.First(&reminder, "token = ?", token).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &InvalidTokenError{Reason: "unknown token"}
		}
		return nil, err
	}
	var obligation model.Obligation
	if err := s.db.First(&obligation, "id = ?", reminder.ObligationID).Error; err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"obligation": obligation.Name,
		"due_date":   obligation.DueDate,
		"stage":      reminder.Stage,
		"status":     reminder.Status,
	}, nil
}

// ConfirmReminderInput carries a token redemption.
type ConfirmReminderInput struct {
	ConfirmedBy    string                 `json:"confirmed_by"`
	ConfirmedEmail string                 `json:"confirmed_email"`
	Type           model.ConfirmationType `json:"confirmation_type"`
	Notes          string                 `json:"notes,omitempty"`
}

// ConfirmReminder redeems a reminder token exactly once: the audit record,
// the reminder transition, and (for completed-type confirmations) the parent
// obligation's closure commit atomically. Only a token in sent state can be
// redeemed.
func (s *ObligationService) ConfirmReminder(token string, input ConfirmReminderInput) (*model.Confirmation, error) {
	if input.ConfirmedBy == "" {
		return nil, newValidationError("confirmed_by is required")
	}
	if !input.Type.Valid() {
		return nil, newValidationError("unknown confirmation type %q", input.Type)
	}

	var reminder model.Reminder
	if err := s.db.First(&reminder, "token = ?", token).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &InvalidTokenError{Reason: "unknown token"}
		}
		return nil, err
	}
	if reminder.Status != model.ReminderSent {
		return nil, &InvalidTokenError{Reason: "reminder is " + string(reminder.Status) + ", only sent reminders can be confirmed"}
	}

	now := s.now()
	confirmation := model.Confirmation{
		ReminderID:     reminder.ID,
		Type:           input.Type,
		ConfirmedBy:    input.ConfirmedBy,
		ConfirmedEmail: input.ConfirmedEmail,
		Notes:          input.Notes,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&confirmation).Error; err != nil {
			return err
		}
		if err := tx.Model(&reminder).Updates(map[string]interface{}{
			"status":       model.ReminderConfirmed,
			"confirmed_at": now,
			"confirmed_by": input.ConfirmedBy,
		}).Error; err != nil {
			return err
		}
		if input.Type == model.ConfirmationCompleted {
			if err := tx.Model(&model.Obligation{}).
				Where("id = ?", reminder.ObligationID).
				Update("status", model.ObligationCompleted).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[ConfirmReminder] Error confirming reminder %s: %v", reminder.ID, err)
		return nil, err
	}

	if input.Type == model.ConfirmationCompleted {
		var obligation model.Obligation
		if err := s.db.First(&obligation, "id = ?", reminder.ObligationID).Error; err == nil {
			s.indexObligation(&obligation)
		}
	}

	log.Printf("[ConfirmReminder] Reminder %s confirmed (%s) by %s", reminder.ID, input.Type, input.ConfirmedBy)
	return &confirmation, nil
}

package services

import (
	"encoding/json"
	"fmt"
	"log"

	model "github.com/arnavb7/CompliFlow/models"
	"gorm.io/gorm"
)

// PersonRef is a resolved audience member: the user identity plus the
// department that made them eligible.
type PersonRef struct {
	UserID       string
	DepartmentID string
	Name         string
	Email        string
}

// resolveAudience returns one PersonRef per department head of the run's
// target departments. A person heading several targeted departments is
// counted once, under the first department that resolved them.
func (s *ComplianceService) resolveAudience(run *model.Run) ([]PersonRef, error) {
	var departmentIDs []string
	if len(run.TargetDepartments) > 0 {
		if err := json.Unmarshal(run.TargetDepartments, &departmentIDs); err != nil {
			return nil, fmt.Errorf("failed to decode target departments for run %s: %w", run.ID, err)
		}
	}
	if len(departmentIDs) == 0 {
		return nil, nil
	}

	var heads []model.User
	err := s.db.
		Where("department_id IN ? AND role = ?", departmentIDs, model.RoleDepartmentHead).
		Find(&heads).Error
	if err != nil {
		log.Printf("[resolveAudience] Error fetching department heads for run %s: %v", run.ID, err)
		return nil, err
	}

	seen := make(map[string]bool, len(heads))
	refs := make([]PersonRef, 0, len(heads))
	for _, head := range heads {
		if seen[head.ID] {
			continue
		}
		seen[head.ID] = true
		refs = append(refs, PersonRef{
			UserID:       head.ID,
			DepartmentID: head.DepartmentID,
			Name:         head.Name,
			Email:        head.Email,
		})
	}
	return refs, nil
}

// createRecipients issues one participation record per audience member, each
// with a fresh single-use token and email_sent=false.
func createRecipients(tx *gorm.DB, runID string, audience []PersonRef) ([]model.Recipient, error) {
	recipients := make([]model.Recipient, 0, len(audience))
	for _, ref := range audience {
		token, err := newToken()
		if err != nil {
			return nil, err
		}
		recipient := model.Recipient{
			RunID:        runID,
			UserID:       ref.UserID,
			DepartmentID: ref.DepartmentID,
			Name:         ref.Name,
			Email:        ref.Email,
			Token:        token,
		}
		if err := tx.Create(&recipient).Error; err != nil {
			return nil, err
		}
		recipients = append(recipients, recipient)
	}
	return recipients, nil
}

// dispatchRecipients delivers the survey link to each recipient. The rows are
// already committed; a delivery failure is logged against that recipient and
// does not stop the rest of the batch. email_sent stays false for failed
// deliveries so a manual re-activation can pick them up.
func (s *ComplianceService) dispatchRecipients(run *model.Run, recipients []model.Recipient, kind TemplateKind) {
	for _, recipient := range recipients {
		payload := map[string]string{
			"name":     recipient.Name,
			"title":    run.Title,
			"due_date": run.DueDate.Format("January 2, 2006"),
			"link":     surveyLink(s.baseURL, recipient.Token),
		}
		if err := s.notifier.Send(recipient.Email, kind, payload); err != nil {
			dispatchErr := &DispatchError{Email: recipient.Email, Err: err}
			log.Printf("[dispatchRecipients] Run %s: %v", run.ID, dispatchErr)
			continue
		}
		now := s.now()
		update := s.db.Model(&model.Recipient{}).Where("id = ?", recipient.ID).Updates(map[string]interface{}{
			"email_sent":    true,
			"email_sent_at": now,
		})
		if update.Error != nil {
			log.Printf("[dispatchRecipients] Error marking recipient %s as sent: %v", recipient.ID, update.Error)
		}
	}
}

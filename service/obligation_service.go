package services

import (
	"log"
	"os"
	"time"

	model "github.com/arnavb7/CompliFlow/models"
	"github.com/elastic/go-elasticsearch/v8"
	"gorm.io/gorm"
)

// ObligationService owns the standalone-obligation side of the engine:
// compliance records, their reminder recipients, the reminder timeline, and
// reminder confirmation.
type ObligationService struct {
	db       *gorm.DB
	notifier Notifier
	esClient *elasticsearch.Client
	baseURL  string
	now      func() time.Time
}

// NewObligationService wires the service. The Elasticsearch client is
// optional: when ELASTICSEARCH_URL is unset, indexing is skipped and search
// reports an error.
func NewObligationService(db *gorm.DB, notifier Notifier, baseURL string) (*ObligationService, error) {
	var esClient *elasticsearch.Client
	if esURL := os.Getenv("ELASTICSEARCH_URL"); esURL != "" {
		client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{esURL}})
		if err != nil {
			log.Printf("Warning: Failed to create Elasticsearch client: %v", err)
		} else {
			esClient = client
		}
	}

	return &ObligationService{
		db:       db,
		notifier: notifier,
		esClient: esClient,
		baseURL:  baseURL,
		now:      time.Now,
	}, nil
}

// CreateObligationInput carries a new standalone compliance record.
type CreateObligationInput struct {
	Name         string                 `json:"name"`
	Type         string                 `json:"type"`
	Description  string                 `json:"description"`
	DueDate      time.Time              `json:"due_date"`
	AnchorDay    *int                   `json:"anchor_day,omitempty"`
	Frequency    model.Frequency        `json:"frequency"`
	Status       model.ObligationStatus `json:"status"`
	Priority     string                 `json:"priority"`
	AssigneeID   string                 `json:"assignee_id"`
	DepartmentID string                 `json:"department_id"`
}

// CreateObligation validates and persists a standalone obligation, then
// indexes it for search. Indexing failure never fails the create.
func (s *ObligationService) CreateObligation(input CreateObligationInput) (*model.Obligation, error) {
	switch {
	case input.Name == "":
		return nil, newValidationError("name is required")
	case input.Type == "":
		return nil, newValidationError("type is required")
	case input.DueDate.IsZero():
		return nil, newValidationError("due date is required")
	}
	if input.Frequency == "" {
		input.Frequency = model.FrequencyOnce
	}
	if !input.Frequency.Valid() {
		return nil, newValidationError("unknown frequency %q", input.Frequency)
	}
	if input.AnchorDay != nil {
		if err := validateAnchorDay(input.Frequency, *input.AnchorDay); err != nil {
			return nil, err
		}
	}
	if input.Status == "" {
		input.Status = model.ObligationActive
	}
	if !input.Status.Valid() {
		return nil, newValidationError("unknown status %q", input.Status)
	}

	obligation := model.Obligation{
		Name:         input.Name,
		Type:         input.Type,
		Description:  input.Description,
		DueDate:      DateOnly(input.DueDate),
		AnchorDay:    input.AnchorDay,
		Frequency:    input.Frequency,
		Status:       input.Status,
		Priority:     input.Priority,
		AssigneeID:   input.AssigneeID,
		DepartmentID: input.DepartmentID,
	}
	if err := s.db.Create(&obligation).Error; err != nil {
		log.Printf("[CreateObligation] Error saving obligation %q: %v", input.Name, err)
		return nil, err
	}

	s.indexObligation(&obligation)
	log.Printf("[CreateObligation] Obligation %s created", obligation.ID)
	return &obligation, nil
}

// ListObligations returns all obligations, soonest due first.
func (s *ObligationService) ListObligations() ([]model.Obligation, error) {
	var obligations []model.Obligation
	if err := s.db.Order("due_date ASC").Find(&obligations).Error; err != nil {
		log.Printf("[ListObligations] Error fetching obligations: %v", err)
		return nil, err
	}
	return obligations, nil
}

// UpdateObligationStatus applies a status transition and re-indexes.
func (s *ObligationService) UpdateObligationStatus(obligationID string, status model.ObligationStatus) (*model.Obligation, error) {
	if !status.Valid() {
		return nil, newValidationError("unknown status %q", status)
	}
	var obligation model.Obligation
	if err := s.db.First(&obligation, "id = ?", obligationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Entity: "obligation", ID: obligationID}
		}
		return nil, err
	}
	if err := s.db.Model(&obligation).Update("status", status).Error; err != nil {
		log.Printf("[UpdateObligationStatus] Error updating obligation %s: %v", obligationID, err)
		return nil, err
	}
	obligation.Status = status
	s.indexObligation(&obligation)
	return &obligation, nil
}

// DeleteObligation removes an obligation together with its reminder
// recipients, reminders, and confirmations. Composition: children never
// outlive the obligation.
func (s *ObligationService) DeleteObligation(obligationID string) error {
	var obligation model.Obligation
	if err := s.db.First(&obligation, "id = ?", obligationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &NotFoundError{Entity: "obligation", ID: obligationID}
		}
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var reminderIDs []string
		if err := tx.Model(&model.Reminder{}).
			Where("obligation_id = ?", obligationID).
			Pluck("id", &reminderIDs).Error; err != nil {
			return err
		}
		if len(reminderIDs) > 0 {
			if err := tx.Where("reminder_id IN ?", reminderIDs).Delete(&model.Confirmation{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("obligation_id = ?", obligationID).Delete(&model.Reminder{}).Error; err != nil {
			return err
		}
		if err := tx.Where("obligation_id = ?", obligationID).Delete(&model.ReminderRecipient{}).Error; err != nil {
			return err
		}
		return tx.Delete(&obligation).Error
	})
	if err != nil {
		log.Printf("[DeleteObligation] Error deleting obligation %s: %v", obligationID, err)
		return err
	}
	return nil
}

// MarkOverdueObligations flips active obligations past their due date to
// overdue. Invoked by the daily driver.
func (s *ObligationService) MarkOverdueObligations() (int, error) {
	today := DateOnly(s.now())
	result := s.db.Model(&model.Obligation{}).
		Where("status = ? AND due_date < ?", model.ObligationActive, today).
		Update("status", model.ObligationOverdue)
	if result.Error != nil {
		log.Printf("[MarkOverdueObligations] Error marking overdue obligations: %v", result.Error)
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// ReminderRecipientInput adds an addressee to an obligation's reminders.
// Either a user id (name/email snapshotted from the directory) or an
// external contact's name and email.
type ReminderRecipientInput struct {
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

// AddReminderRecipient attaches an addressee to an obligation.
func (s *ObligationService) AddReminderRecipient(obligationID string, input ReminderRecipientInput) (*model.ReminderRecipient, error) {
	var obligation model.Obligation
	if err := s.db.First(&obligation, "id = ?", obligationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Entity: "obligation", ID: obligationID}
		}
		return nil, err
	}

	recipient := model.ReminderRecipient{
		ObligationID: obligationID,
		UserID:       input.UserID,
		Name:         input.Name,
		Email:        input.Email,
	}
	if input.UserID != "" {
		var user model.User
		if err := s.db.First(&user, "id = ?", input.UserID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, &NotFoundError{Entity: "user", ID: input.UserID}
			}
			return nil, err
		}
		recipient.Name = user.Name
		recipient.Email = user.Email
	}
	if recipient.Name == "" || recipient.Email == "" {
		return nil, newValidationError("external reminder recipients need a name and an email")
	}

	if err := s.db.Create(&recipient).Error; err != nil {
		log.Printf("[AddReminderRecipient] Error adding recipient to obligation %s: %v", obligationID, err)
		return nil, err
	}
	return &recipient, nil
}

// RemoveReminderRecipient detaches an addressee and drops their not-yet-sent
// reminders. Sent or confirmed reminders stay for the audit trail.
func (s *ObligationService) RemoveReminderRecipient(obligationID, recipientID string) error {
	var recipient model.ReminderRecipient
	err := s.db.First(&recipient, "id = ? AND obligation_id = ?", recipientID, obligationID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return &NotFoundError{Entity: "reminder recipient", ID: recipientID}
		}
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("reminder_recipient_id = ? AND status = ?", recipientID, model.ReminderPending).
			Delete(&model.Reminder{}).Error; err != nil {
			return err
		}
		return tx.Delete(&recipient).Error
	})
}

// ListReminderRecipients returns the addressees of an obligation.
func (s *ObligationService) ListReminderRecipients(obligationID string) ([]model.ReminderRecipient, error) {
	var recipients []model.ReminderRecipient
	if err := s.db.Where("obligation_id = ?", obligationID).Find(&recipients).Error; err != nil {
		return nil, err
	}
	return recipients, nil
}

package services

import (
	"fmt"
	"testing"
	"time"

	model "github.com/arnavb7/CompliFlow/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// FixedTime anchors every test clock.
var FixedTime = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Department{},
		&model.User{},
		&model.Run{},
		&model.Question{},
		&model.Recipient{},
		&model.Response{},
		&model.Obligation{},
		&model.ReminderRecipient{},
		&model.Reminder{},
		&model.Confirmation{},
		&model.JobRecord{},
	))
	return db
}

type sentMail struct {
	Email   string
	Kind    TemplateKind
	Payload map[string]string
}

// mockNotifier records deliveries and can be told to fail for specific
// addresses.
type mockNotifier struct {
	sent    []sentMail
	failFor map[string]error
}

func (m *mockNotifier) Send(email string, kind TemplateKind, payload map[string]string) error {
	if err, ok := m.failFor[email]; ok {
		return err
	}
	m.sent = append(m.sent, sentMail{Email: email, Kind: kind, Payload: payload})
	return nil
}

func newTestComplianceService(db *gorm.DB, notifier *mockNotifier) *ComplianceService {
	s := NewComplianceService(db, notifier, "http://compliflow.test")
	s.now = func() time.Time { return FixedTime }
	return s
}

func newTestObligationService(db *gorm.DB, notifier *mockNotifier) *ObligationService {
	return &ObligationService{
		db:       db,
		notifier: notifier,
		baseURL:  "http://compliflow.test",
		now:      func() time.Time { return FixedTime },
	}
}

func seedDepartmentWithHead(t *testing.T, db *gorm.DB, name string) (model.Department, model.User) {
	t.Helper()

	department := model.Department{Name: name}
	require.NoError(t, db.Create(&department).Error)

	head := model.User{
		Name:         name + " Head",
		Email:        fmt.Sprintf("%s.head@example.com", name),
		Role:         model.RoleDepartmentHead,
		DepartmentID: department.ID,
	}
	require.NoError(t, db.Create(&head).Error)
	return department, head
}

func seedObligationWithRecipient(t *testing.T, db *gorm.DB, due time.Time) (model.Obligation, model.ReminderRecipient) {
	t.Helper()

	obligation := model.Obligation{
		Name:      "Annual Policy Review",
		Type:      "policy",
		DueDate:   due,
		Frequency: model.FrequencyAnnually,
		Status:    model.ObligationActive,
	}
	require.NoError(t, db.Create(&obligation).Error)

	recipient := model.ReminderRecipient{
		ObligationID: obligation.ID,
		Name:         "Outside Counsel",
		Email:        "counsel@example.com",
	}
	require.NoError(t, db.Create(&recipient).Error)
	return obligation, recipient
}

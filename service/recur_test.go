package services

import (
	"testing"
	"time"

	model "github.com/arnavb7/CompliFlow/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// activeRecurringRun creates and activates a quarterly run whose next run
// date is forced to today, so Recur and RecurDueRuns pick it up under the
// fixed test clock.
func activeRecurringRun(t *testing.T, svc *ComplianceService, departmentIDs ...string) model.Run {
	t.Helper()

	input := runInput(departmentIDs...)
	input.AnchorDay = 1
	created, err := svc.CreateRun(input)
	require.NoError(t, err)
	_, err = svc.ActivateRun(created.ID)
	require.NoError(t, err)

	today := DateOnly(FixedTime)
	require.NoError(t, svc.db.Model(created).Update("next_run_date", today).Error)

	var run model.Run
	require.NoError(t, svc.db.First(&run, "id = ?", created.ID).Error)
	return run
}

func TestRecurClonesRunAndAdvancesParent(t *testing.T) {
	db := setupTestDB(t)
	notifier := &mockNotifier{}
	svc := newTestComplianceService(db, notifier)

	legal, legalHead := seedDepartmentWithHead(t, db, "Legal")
	run := activeRecurringRun(t, svc, legal.ID)
	notifier.sent = nil // drop the activation invite

	clone, err := svc.Recur(&run)
	require.NoError(t, err)

	assert.Equal(t, "Quarterly Compliance Check (2024-03-01)", clone.Title)
	assert.Equal(t, model.RunStatusActive, clone.Status)
	assert.False(t, clone.IsRecurring)
	assert.Equal(t, date(2024, time.March, 1), clone.DueDate)
	assert.Nil(t, clone.NextRunDate)

	var cloneQuestions []model.Question
	require.NoError(t, db.Where("run_id = ?", clone.ID).Order("position ASC").Find(&cloneQuestions).Error)
	require.Len(t, cloneQuestions, 2)
	assert.Equal(t, "Are policies up to date?", cloneQuestions[0].Text)
	assert.Equal(t, "Rate your team's readiness", cloneQuestions[1].Text)

	var parentRecipient, cloneRecipient model.Recipient
	require.NoError(t, db.First(&parentRecipient, "run_id = ?", run.ID).Error)
	require.NoError(t, db.First(&cloneRecipient, "run_id = ?", clone.ID).Error)
	assert.Equal(t, parentRecipient.UserID, cloneRecipient.UserID)
	assert.NotEqual(t, parentRecipient.Token, cloneRecipient.Token, "occurrence tokens must be fresh")

	var parent model.Run
	require.NoError(t, db.First(&parent, "id = ?", run.ID).Error)
	require.NotNil(t, parent.LastRunDate)
	assert.Equal(t, date(2024, time.March, 1), *parent.LastRunDate)
	require.NotNil(t, parent.NextRunDate)
	assert.Equal(t, date(2024, time.June, 1), *parent.NextRunDate)
	assert.Equal(t, model.RunStatusActive, parent.Status)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, legalHead.Email, notifier.sent[0].Email)
	assert.Equal(t, TemplateRecurringRunDispatch, notifier.sent[0].Kind)
}

func TestRecurRejectsIneligibleRuns(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestComplianceService(db, &mockNotifier{})
	legal, _ := seedDepartmentWithHead(t, db, "Legal")

	t.Run("non-recurring", func(t *testing.T) {
		input := runInput(legal.ID)
		input.Frequency = model.FrequencyOnce
		run, err := svc.CreateRun(input)
		require.NoError(t, err)
		_, err = svc.Recur(run)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("paused", func(t *testing.T) {
		run := activeRecurringRun(t, svc, legal.ID)
		require.NoError(t, svc.PauseRun(run.ID))
		run.Status = model.RunStatusPaused
		_, err := svc.Recur(&run)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestRecurDueRunsSkipsFutureAndPaused(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestComplianceService(db, &mockNotifier{})
	legal, _ := seedDepartmentWithHead(t, db, "Legal")

	due := activeRecurringRun(t, svc, legal.ID)

	notYet := activeRecurringRun(t, svc, legal.ID)
	future := date(2024, time.June, 1)
	require.NoError(t, db.Model(&notYet).Update("next_run_date", future).Error)

	paused := activeRecurringRun(t, svc, legal.ID)
	require.NoError(t, svc.PauseRun(paused.ID))

	recurred, err := svc.RecurDueRuns()
	require.NoError(t, err)
	assert.Equal(t, 1, recurred)

	var clones []model.Run
	require.NoError(t, db.Where("is_recurring = ? AND id != ?", false, due.ID).Find(&clones).Error)
	require.Len(t, clones, 1)
	assert.Contains(t, clones[0].Title, "(2024-03-01)")
}

// A recurred template's next run date always lands strictly in the future,
// so a second sweep on the same day spawns nothing.
func TestRecurDueRunsDoesNotRepeatWithinADay(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestComplianceService(db, &mockNotifier{})
	legal, _ := seedDepartmentWithHead(t, db, "Legal")
	run := activeRecurringRun(t, svc, legal.ID)

	first, err := svc.RecurDueRuns()
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	second, err := svc.RecurDueRuns()
	require.NoError(t, err)
	assert.Zero(t, second)

	var clones int64
	require.NoError(t, db.Model(&model.Run{}).
		Where("is_recurring = ? AND id != ?", false, run.ID).
		Count(&clones).Error)
	assert.Equal(t, int64(1), clones)

	var parent model.Run
	require.NoError(t, db.First(&parent, "id = ?", run.ID).Error)
	require.NotNil(t, parent.NextRunDate)
	assert.True(t, parent.NextRunDate.After(DateOnly(FixedTime)))
}

func TestExpireOverdueRunsLeavesRecurringTemplates(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestComplianceService(db, &mockNotifier{})
	legal, _ := seedDepartmentWithHead(t, db, "Legal")

	overdue := date(2024, time.February, 15)

	// Single-occurrence run past its due date.
	once := runInput(legal.ID)
	once.Frequency = model.FrequencyOnce
	once.StartDate = date(2024, time.February, 1)
	once.DueDate = overdue
	onceRun, err := svc.CreateRun(once)
	require.NoError(t, err)
	_, err = svc.ActivateRun(onceRun.ID)
	require.NoError(t, err)

	// Recurring template past its due date: must stay active.
	template := activeRecurringRun(t, svc, legal.ID)
	require.NoError(t, db.Model(&template).Update("due_date", overdue).Error)

	// Single-occurrence run due today: not yet overdue.
	today := runInput(legal.ID)
	today.Frequency = model.FrequencyOnce
	today.DueDate = date(2024, time.March, 1)
	todayRun, err := svc.CreateRun(today)
	require.NoError(t, err)
	_, err = svc.ActivateRun(todayRun.ID)
	require.NoError(t, err)

	expired, err := svc.ExpireOverdueRuns()
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	var gotOnce model.Run
	require.NoError(t, db.First(&gotOnce, "id = ?", onceRun.ID).Error)
	assert.Equal(t, model.RunStatusExpired, gotOnce.Status)

	var gotTemplate model.Run
	require.NoError(t, db.First(&gotTemplate, "id = ?", template.ID).Error)
	assert.Equal(t, model.RunStatusActive, gotTemplate.Status)

	var gotToday model.Run
	require.NoError(t, db.First(&gotToday, "id = ?", todayRun.ID).Error)
	assert.Equal(t, model.RunStatusActive, gotToday.Status)
}

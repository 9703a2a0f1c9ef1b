package services

import (
	"testing"

	model "github.com/arnavb7/CompliFlow/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// activatedRunWithRecipients creates, activates, and returns a run together
// with its recipients and questions (both in creation order).
func activatedRunWithRecipients(t *testing.T, svc *ComplianceService, departmentIDs ...string) (model.Run, []model.Recipient, []model.Question) {
	t.Helper()

	created, err := svc.CreateRun(runInput(departmentIDs...))
	require.NoError(t, err)
	activated, err := svc.ActivateRun(created.ID)
	require.NoError(t, err)

	var recipients []model.Recipient
	require.NoError(t, svc.db.Where("run_id = ?", created.ID).Order("created_at ASC").Find(&recipients).Error)
	var questions []model.Question
	require.NoError(t, svc.db.Where("run_id = ?", created.ID).Order("position ASC").Find(&questions).Error)
	return *activated, recipients, questions
}

func TestGetSurveyByToken(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestComplianceService(db, &mockNotifier{})
	legal, _ := seedDepartmentWithHead(t, db, "Legal")
	run, recipients, _ := activatedRunWithRecipients(t, svc, legal.ID)

	survey, err := svc.GetSurveyByToken(recipients[0].Token)
	require.NoError(t, err)
	assert.Equal(t, run.Title, survey["title"])
	assert.Equal(t, false, survey["completed"])

	questions, ok := survey["questions"].([]model.Question)
	require.True(t, ok)
	require.Len(t, questions, 2)
	assert.Equal(t, "Are policies up to date?", questions[0].Text)

	_, err = svc.GetSurveyByToken("bogus")
	var invalid *InvalidTokenError
	require.ErrorAs(t, err, &invalid)
}

func TestSubmitSurveyHappyPath(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestComplianceService(db, &mockNotifier{})
	legal, _ := seedDepartmentWithHead(t, db, "Legal")
	finance, _ := seedDepartmentWithHead(t, db, "Finance")
	run, recipients, questions := activatedRunWithRecipients(t, svc, legal.ID, finance.ID)

	score := 8
	answers := []AnswerInput{
		{QuestionID: questions[0].ID, Answer: "yes"},
		{QuestionID: questions[1].ID, Answer: "8", Score: &score, Comment: "solid"},
	}
	require.NoError(t, svc.SubmitSurvey(recipients[0].Token, answers))

	var responses []model.Response
	require.NoError(t, db.Where("recipient_id = ?", recipients[0].ID).Find(&responses).Error)
	require.Len(t, responses, 2)

	var done model.Recipient
	require.NoError(t, db.First(&done, "id = ?", recipients[0].ID).Error)
	assert.True(t, done.SurveyCompleted)
	require.NotNil(t, done.SurveyCompletedAt)

	// One recipient is still outstanding, so the run stays active.
	var reloaded model.Run
	require.NoError(t, db.First(&reloaded, "id = ?", run.ID).Error)
	assert.Equal(t, model.RunStatusActive, reloaded.Status)
}

func TestSubmitSurveyClosesRunWhenLastRecipientCompletes(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestComplianceService(db, &mockNotifier{})
	legal, _ := seedDepartmentWithHead(t, db, "Legal")
	finance, _ := seedDepartmentWithHead(t, db, "Finance")
	run, recipients, questions := activatedRunWithRecipients(t, svc, legal.ID, finance.ID)

	answers := []AnswerInput{{QuestionID: questions[0].ID, Answer: "yes"}}
	for _, recipient := range recipients {
		require.NoError(t, svc.SubmitSurvey(recipient.Token, answers))
	}

	var reloaded model.Run
	require.NoError(t, db.First(&reloaded, "id = ?", run.ID).Error)
	assert.Equal(t, model.RunStatusCompleted, reloaded.Status)
	assert.Nil(t, reloaded.NextRunDate, "completed runs must not carry a next run date")
}

func TestSubmitSurveyRejectsSecondSubmission(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestComplianceService(db, &mockNotifier{})
	legal, _ := seedDepartmentWithHead(t, db, "Legal")
	_, recipients, questions := activatedRunWithRecipients(t, svc, legal.ID)

	answers := []AnswerInput{{QuestionID: questions[0].ID, Answer: "yes"}}
	require.NoError(t, svc.SubmitSurvey(recipients[0].Token, answers))

	err := svc.SubmitSurvey(recipients[0].Token, answers)
	var completed *AlreadyCompletedError
	require.ErrorAs(t, err, &completed)

	// The rejected submission must not write any response rows.
	var count int64
	require.NoError(t, db.Model(&model.Response{}).Where("recipient_id = ?", recipients[0].ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSubmitSurveyRejectsForeignQuestions(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestComplianceService(db, &mockNotifier{})
	legal, _ := seedDepartmentWithHead(t, db, "Legal")
	_, recipients, questions := activatedRunWithRecipients(t, svc, legal.ID)

	answers := []AnswerInput{
		{QuestionID: questions[0].ID, Answer: "yes"},
		{QuestionID: "someone-elses-question", Answer: "no"},
	}
	err := svc.SubmitSurvey(recipients[0].Token, answers)
	var invalid *InvalidQuestionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []string{"someone-elses-question"}, invalid.QuestionIDs)

	var count int64
	require.NoError(t, db.Model(&model.Response{}).Where("recipient_id = ?", recipients[0].ID).Count(&count).Error)
	assert.Zero(t, count)

	var recipient model.Recipient
	require.NoError(t, db.First(&recipient, "id = ?", recipients[0].ID).Error)
	assert.False(t, recipient.SurveyCompleted)
}

func TestSubmitSurveyRejectsDuplicateAnswers(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestComplianceService(db, &mockNotifier{})
	legal, _ := seedDepartmentWithHead(t, db, "Legal")
	_, recipients, questions := activatedRunWithRecipients(t, svc, legal.ID)

	answers := []AnswerInput{
		{QuestionID: questions[0].ID, Answer: "yes"},
		{QuestionID: questions[0].ID, Answer: "no"},
	}
	err := svc.SubmitSurvey(recipients[0].Token, answers)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	var count int64
	require.NoError(t, db.Model(&model.Response{}).Where("recipient_id = ?", recipients[0].ID).Count(&count).Error)
	assert.Zero(t, count)

	var recipient model.Recipient
	require.NoError(t, db.First(&recipient, "id = ?", recipients[0].ID).Error)
	assert.False(t, recipient.SurveyCompleted)
}

func TestSubmitSurveyRequiresRequiredAnswers(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestComplianceService(db, &mockNotifier{})
	legal, _ := seedDepartmentWithHead(t, db, "Legal")
	_, recipients, questions := activatedRunWithRecipients(t, svc, legal.ID)

	// Only the optional score question is answered; the required yes/no
	// question is missing.
	score := 5
	answers := []AnswerInput{{QuestionID: questions[1].ID, Answer: "5", Score: &score}}
	err := svc.SubmitSurvey(recipients[0].Token, answers)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestSubmitSurveyUnknownToken(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestComplianceService(db, &mockNotifier{})

	err := svc.SubmitSurvey("bogus", nil)
	var invalid *InvalidTokenError
	require.ErrorAs(t, err, &invalid)
}

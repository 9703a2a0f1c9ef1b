package models

// Frequency says how often a run or obligation repeats. FrequencyOnce means a
// single occurrence; everything else drives the recurrence calculator.
type Frequency string

const (
	FrequencyOnce      Frequency = "once"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyBimonthly Frequency = "bimonthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnually  Frequency = "annually"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOnce, FrequencyWeekly, FrequencyMonthly, FrequencyBimonthly, FrequencyQuarterly, FrequencyAnnually:
		return true
	}
	return false
}

// PeriodMonths returns the length of one period in months, or 0 for
// frequencies that are not month-based.
func (f Frequency) PeriodMonths() int {
	switch f {
	case FrequencyMonthly:
		return 1
	case FrequencyBimonthly:
		return 2
	case FrequencyQuarterly:
		return 3
	case FrequencyAnnually:
		return 12
	}
	return 0
}

type RunStatus string

const (
	RunStatusDraft     RunStatus = "draft"
	RunStatusActive    RunStatus = "active"
	RunStatusCompleted RunStatus = "completed"
	RunStatusExpired   RunStatus = "expired"
	RunStatusPaused    RunStatus = "paused"
)

func (s RunStatus) Valid() bool {
	switch s {
	case RunStatusDraft, RunStatusActive, RunStatusCompleted, RunStatusExpired, RunStatusPaused:
		return true
	}
	return false
}

type ObligationStatus string

const (
	ObligationActive    ObligationStatus = "active"
	ObligationPending   ObligationStatus = "pending"
	ObligationOverdue   ObligationStatus = "overdue"
	ObligationCompleted ObligationStatus = "completed"
	ObligationExpired   ObligationStatus = "expired"
)

func (s ObligationStatus) Valid() bool {
	switch s {
	case ObligationActive, ObligationPending, ObligationOverdue, ObligationCompleted, ObligationExpired:
		return true
	}
	return false
}

type QuestionType string

const (
	QuestionYesNo          QuestionType = "yes_no"
	QuestionScore          QuestionType = "score"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionFreeText       QuestionType = "free_text"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionYesNo, QuestionScore, QuestionMultipleChoice, QuestionFreeText:
		return true
	}
	return false
}

// ReminderStage places a reminder on the escalation timeline. StageOverdue is
// a recognized value but is never scheduled automatically.
type ReminderStage string

const (
	StageTwoWeeks ReminderStage = "two_weeks"
	StageOneWeek  ReminderStage = "one_week"
	StageDueDate  ReminderStage = "due_date"
	StageOverdue  ReminderStage = "overdue"
)

func (s ReminderStage) Valid() bool {
	switch s {
	case StageTwoWeeks, StageOneWeek, StageDueDate, StageOverdue:
		return true
	}
	return false
}

type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "pending"
	ReminderSent      ReminderStatus = "sent"
	ReminderConfirmed ReminderStatus = "confirmed"
	ReminderFailed    ReminderStatus = "failed"
)

func (s ReminderStatus) Valid() bool {
	switch s {
	case ReminderPending, ReminderSent, ReminderConfirmed, ReminderFailed:
		return true
	}
	return false
}

type ConfirmationType string

const (
	ConfirmationSubmitted ConfirmationType = "submitted"
	ConfirmationRenewed   ConfirmationType = "renewed"
	ConfirmationExtended  ConfirmationType = "extended"
	ConfirmationCompleted ConfirmationType = "completed"
)

func (t ConfirmationType) Valid() bool {
	switch t {
	case ConfirmationSubmitted, ConfirmationRenewed, ConfirmationExtended, ConfirmationCompleted:
		return true
	}
	return false
}

type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// RoleDepartmentHead marks the only user role the fan-out engine resolves.
const RoleDepartmentHead = "department_head"

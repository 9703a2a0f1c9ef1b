package services

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	model "github.com/arnavb7/CompliFlow/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const jobKindDailyTick = "daily_tick"

// Driver is the in-process periodic driver: one cron entry fires the daily
// tick that expires overdue runs, marks overdue obligations, dispatches due
// reminders, and recurs due recurring runs. Every tick is persisted as a
// JobRecord so job history survives restarts.
//
// A deployment must run a single driver instance; two drivers ticking at the
// same time can double-dispatch reminders because the due-today scan takes no
// row locks.
type Driver struct {
	cron        *cron.Cron
	db          *gorm.DB
	compliance  *ComplianceService
	obligations *ObligationService
	now         func() time.Time
}

func NewDriver(db *gorm.DB, compliance *ComplianceService, obligations *ObligationService) *Driver {
	return &Driver{
		cron:        cron.New(cron.WithSeconds()),
		db:          db,
		compliance:  compliance,
		obligations: obligations,
		now:         time.Now,
	}
}

// ScheduleDaily registers the daily tick at the given HH:MM time string.
func (d *Driver) ScheduleDaily(timeStr string) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, err
	}
	return d.cron.AddFunc(spec, func() {
		if err := d.RunDailyTick(); err != nil {
			log.Printf("[Driver] Daily tick failed: %v", err)
		}
	})
}

func (d *Driver) Start() {
	d.cron.Start()
}

func (d *Driver) Stop() {
	ctx := d.cron.Stop()
	<-ctx.Done()
}

// RunDailyTick executes one pass of the periodic work and records it.
func (d *Driver) RunDailyTick() error {
	job := model.JobRecord{
		Kind:      jobKindDailyTick,
		Status:    model.JobRunning,
		StartedAt: d.now(),
	}
	if err := d.db.Create(&job).Error; err != nil {
		return fmt.Errorf("failed to record daily tick: %w", err)
	}

	var failures []string

	expired, err := d.compliance.ExpireOverdueRuns()
	if err != nil {
		failures = append(failures, "expire runs: "+err.Error())
	}
	overdue, err := d.obligations.MarkOverdueObligations()
	if err != nil {
		failures = append(failures, "mark obligations: "+err.Error())
	}
	sent, err := d.obligations.DispatchDueReminders()
	if err != nil {
		failures = append(failures, "dispatch reminders: "+err.Error())
	}
	recurred, err := d.compliance.RecurDueRuns()
	if err != nil {
		failures = append(failures, "recur runs: "+err.Error())
	}

	finished := d.now()
	job.FinishedAt = &finished
	job.Detail = fmt.Sprintf("runs_expired=%d obligations_overdue=%d reminders_sent=%d runs_recurred=%d",
		expired, overdue, sent, recurred)
	job.Status = model.JobCompleted
	if len(failures) > 0 {
		job.Status = model.JobFailed
		job.Detail += " errors: " + strings.Join(failures, "; ")
	}
	if err := d.db.Save(&job).Error; err != nil {
		log.Printf("[Driver] Error finalizing job record %s: %v", job.ID, err)
	}

	log.Printf("[Driver] Daily tick %s: %s (%s)", job.ID, job.Detail, job.Status)
	if len(failures) > 0 {
		return fmt.Errorf("daily tick completed with errors: %s", strings.Join(failures, "; "))
	}
	return nil
}

// buildDailySpec turns an HH:MM string into a six-field cron spec.
func buildDailySpec(timeStr string) (string, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeStr)
	}
	// cron format: second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}

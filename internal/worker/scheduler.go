// Package worker runs the ledger's periodic jobs: converting due payments,
// checking the month's budget, sending payment reminders and taking backups.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"fintrack/internal/backup"
	"fintrack/internal/services"
)

// SchedulerConfig holds the cron specs and reminder window for the scheduler.
type SchedulerConfig struct {
	// ProcessorSchedule drives the due-payment sweep (default: @hourly).
	ProcessorSchedule string

	// BackupSchedule drives periodic backups; "" or "off" disables them.
	BackupSchedule string

	// ReminderDays is how far ahead payment reminders look; 0 disables them.
	ReminderDays int

	// RunOnStart runs one sweep right after Start.
	RunOnStart bool
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		ProcessorSchedule: "@hourly",
		BackupSchedule:    "@daily",
		ReminderDays:      3,
		RunOnStart:        true,
	}
}

// Report summarizes one sweep.
type Report struct {
	Converted     int
	Failed        int
	Reminders     int
	BudgetChecked bool
	OverWarning   bool
}

type Scheduler struct {
	payments *services.PaymentProcessor
	budgets  *services.BudgetService
	backups  *backup.Manager
	config   SchedulerConfig
	now      func() time.Time

	mu      sync.Mutex
	running bool
	cron    *cron.Cron
}

// NewScheduler creates a scheduler. backups may be nil.
func NewScheduler(payments *services.PaymentProcessor, budgets *services.BudgetService, backups *backup.Manager, config SchedulerConfig) *Scheduler {
	return &Scheduler{
		payments: payments,
		budgets:  budgets,
		backups:  backups,
		config:   config,
		now:      time.Now,
	}
}

// RunOnce converts due payments, checks the current month's budget and
// sends reminders. Every step runs even if an earlier one failed.
func (s *Scheduler) RunOnce(ctx context.Context) (Report, error) {
	now := s.now()
	var (
		report Report
		errs   []error
	)

	res, err := s.payments.ProcessDue(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("process due payments: %w", err))
	}
	report.Converted = res.Converted
	report.Failed = res.Failed

	if s.budgets != nil {
		status, found, err := s.budgets.Check(ctx, now.Year(), int(now.Month()))
		if err != nil {
			errs = append(errs, fmt.Errorf("check budget: %w", err))
		}
		report.BudgetChecked = found
		report.OverWarning = status.OverWarning
	}

	sent, err := s.payments.SendReminders(ctx, now, s.config.ReminderDays)
	if err != nil {
		errs = append(errs, fmt.Errorf("send reminders: %w", err))
	}
	report.Reminders = sent

	slog.InfoContext(ctx, "Scheduled sweep complete",
		"converted", report.Converted,
		"failed", report.Failed,
		"reminders", report.Reminders,
		"budget_checked", report.BudgetChecked,
		"over_warning", report.OverWarning)

	return report, errors.Join(errs...)
}

// Backup takes one backup. An empty ledger is not an error.
func (s *Scheduler) Backup(ctx context.Context) error {
	if s.backups == nil {
		return nil
	}
	_, err := s.backups.Create(ctx)
	if errors.Is(err, backup.ErrNothingToBackup) {
		slog.DebugContext(ctx, "Skipping backup, ledger is empty")
		return nil
	}
	return err
}

func (s *Scheduler) backupsEnabled() bool {
	return s.backups != nil && s.config.BackupSchedule != "" && s.config.BackupSchedule != "off"
}

// Start registers the jobs and starts the cron runner. Returns an error if
// already running or a schedule does not parse.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	if _, err := c.AddFunc(s.config.ProcessorSchedule, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			slog.ErrorContext(ctx, "Scheduled sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid processor schedule %q: %w", s.config.ProcessorSchedule, err)
	}

	if s.backupsEnabled() {
		if _, err := c.AddFunc(s.config.BackupSchedule, func() {
			if err := s.Backup(ctx); err != nil {
				slog.ErrorContext(ctx, "Scheduled backup failed", "error", err)
			}
		}); err != nil {
			return fmt.Errorf("invalid backup schedule %q: %w", s.config.BackupSchedule, err)
		}
	}

	if s.config.RunOnStart {
		if _, err := s.RunOnce(ctx); err != nil {
			slog.ErrorContext(ctx, "Initial sweep failed", "error", err)
		}
	}

	c.Start()
	s.cron = c
	s.running = true

	slog.InfoContext(ctx, "Scheduler started",
		"processor_schedule", s.config.ProcessorSchedule,
		"backup_schedule", s.config.BackupSchedule,
		"backups_enabled", s.backupsEnabled(),
		"reminder_days", s.config.ReminderDays)
	return nil
}

// Stop stops the cron runner and waits for running jobs to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	c := s.cron
	s.running = false
	s.cron = nil
	s.mu.Unlock()

	select {
	case <-c.Stop().Done():
		slog.InfoContext(ctx, "Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Scheduler stop timed out")
		return ctx.Err()
	}
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, stopTimeout time.Duration) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return s.Stop(stopCtx)
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

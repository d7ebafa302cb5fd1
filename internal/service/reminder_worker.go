package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/ledgerly/ledgerly-backend/internal/util"
	"github.com/rs/zerolog"
)

// ReminderWorker is a background worker that rolls over expired limit
// periods, repairs derived amounts and sends savings and income reminders.
type ReminderWorker struct {
	limitService   *SpendingLimitService
	savingsService *SavingsService
	incomeService  *IncomeService
	notifier       domain.Notifier
	logger         zerolog.Logger
	leadDays       int
	tickTimeout    time.Duration
	now            func() time.Time

	// reminded holds reminders already sent, keyed by entity and due date
	remindedMu sync.Mutex
	reminded   map[string]time.Time

	mu       sync.Mutex
	interval time.Duration
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// ReminderWorkerConfig holds configuration for the reminder worker
type ReminderWorkerConfig struct {
	Interval    time.Duration // How often to run
	LeadDays    int           // How many days ahead to remind
	TickTimeout time.Duration // Upper bound for one run
}

// DefaultReminderWorkerConfig returns sensible defaults
func DefaultReminderWorkerConfig() ReminderWorkerConfig {
	return ReminderWorkerConfig{
		Interval:    1 * time.Hour,
		LeadDays:    3,
		TickTimeout: 2 * time.Minute,
	}
}

// NewReminderWorker creates a new reminder worker
func NewReminderWorker(
	limitService *SpendingLimitService,
	savingsService *SavingsService,
	incomeService *IncomeService,
	notifier domain.Notifier,
	logger zerolog.Logger,
	config ReminderWorkerConfig,
) *ReminderWorker {
	defaults := DefaultReminderWorkerConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.LeadDays < 0 {
		config.LeadDays = defaults.LeadDays
	}
	if config.TickTimeout <= 0 {
		config.TickTimeout = defaults.TickTimeout
	}
	if notifier == nil {
		notifier = NoOpNotifier{}
	}

	return &ReminderWorker{
		limitService:   limitService,
		savingsService: savingsService,
		incomeService:  incomeService,
		notifier:       notifier,
		logger:         logger.With().Str("component", "reminder_worker").Logger(),
		leadDays:       config.LeadDays,
		tickTimeout:    config.TickTimeout,
		now:            func() time.Time { return time.Now().UTC() },
		interval:       config.Interval,
		reminded:       make(map[string]time.Time),
	}
}

// SetClock replaces the time source used to find due reminders
func (w *ReminderWorker) SetClock(now func() time.Time) {
	w.now = now
}

// Start begins the background loop. Calling it while running does nothing.
func (w *ReminderWorker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.startLocked(ctx)
}

func (w *ReminderWorker) startLocked(ctx context.Context) {
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	w.logger.Info().
		Dur("interval", w.interval).
		Int("lead_days", w.leadDays).
		Msg("Starting reminder worker")

	go w.run(ctx, w.interval, w.stopCh, w.doneCh)
}

// Stop gracefully stops the worker and waits for the current run to finish
func (w *ReminderWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
}

func (w *ReminderWorker) stopLocked() {
	if !w.running {
		return
	}
	w.logger.Info().Msg("Stopping reminder worker")
	close(w.stopCh)
	<-w.doneCh
	w.running = false
	w.logger.Info().Msg("Reminder worker stopped")
}

// Reschedule cancels the pending tick and restarts the loop with a new
// interval. A stopped worker only records the interval.
func (w *ReminderWorker) Reschedule(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive: %w", domain.ErrInvalidInput)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	wasRunning := w.running
	w.stopLocked()
	w.interval = interval
	if wasRunning {
		w.startLocked(ctx)
	}
	return nil
}

// Interval returns the current run interval
func (w *ReminderWorker) Interval() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.interval
}

// IsRunning returns whether the worker is currently running
func (w *ReminderWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// run is the main loop for the reminder worker
func (w *ReminderWorker) run(ctx context.Context, interval time.Duration, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	// Run immediately on startup
	w.tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.stopCh == stopCh {
				w.running = false
			}
			w.mu.Unlock()
			return
		case <-stopCh:
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *ReminderWorker) tick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.tickTimeout)
	defer cancel()

	startTime := time.Now()
	if err := w.RunOnce(ctx); err != nil {
		w.logger.Error().Err(err).Msg("Reminder run finished with errors")
	}
	w.logger.Debug().Dur("elapsed", time.Since(startTime)).Msg("Completed reminder run")
}

// RunOnce performs one full pass. Every step runs even when an earlier one
// failed; the failures are joined into the returned error. Each entity is
// reminded at most once per day for a given due date.
func (w *ReminderWorker) RunOnce(ctx context.Context) error {
	now := w.now()
	var errs []error

	rolled, err := w.limitService.RolloverExpired(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("rollover limits: %w", err))
	}

	repaired, err := w.limitService.Reconcile(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("reconcile limits: %w", err))
	}

	alerted, err := w.limitService.NotifyExceeded(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("notify exceeded limits: %w", err))
	}

	savingsReminders, err := w.remindSavings(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("savings reminders: %w", err))
	}

	if _, err := w.incomeService.AdvancePastOccurrences(ctx, now); err != nil {
		errs = append(errs, fmt.Errorf("advance incomes: %w", err))
	}

	incomeReminders, err := w.remindIncomes(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("income reminders: %w", err))
	}

	w.logger.Info().
		Int("rolled_over", rolled).
		Int("repaired", repaired).
		Int("limit_alerts", alerted).
		Int("savings_reminders", savingsReminders).
		Int("income_reminders", incomeReminders).
		Msg("Completed reminder run")

	return errors.Join(errs...)
}

// firstReminder records a reminder and reports whether it is new. Entries
// whose due date has passed are dropped.
func (w *ReminderWorker) firstReminder(key string, due, now time.Time) bool {
	w.remindedMu.Lock()
	defer w.remindedMu.Unlock()

	today := util.StartOfDay(now)
	for k, d := range w.reminded {
		if d.Before(today) {
			delete(w.reminded, k)
		}
	}
	key = fmt.Sprintf("%s:%s:%s", key, due.Format("2006-01-02"), today.Format("2006-01-02"))
	if _, ok := w.reminded[key]; ok {
		return false
	}
	w.reminded[key] = util.StartOfDay(due)
	return true
}

func (w *ReminderWorker) remindSavings(ctx context.Context, now time.Time) (int, error) {
	due, err := w.savingsService.GetDueContributions(ctx, now, w.leadDays)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, d := range due {
		if !w.firstReminder(fmt.Sprintf("savings:%d", d.Project.ID), d.DueDate, now) {
			continue
		}
		w.notifier.ShowSavingsReminder(ctx, d.Project.ID, d.DaysUntil)
		sent++
	}
	return sent, nil
}

func (w *ReminderWorker) remindIncomes(ctx context.Context, now time.Time) (int, error) {
	upcoming, err := w.incomeService.GetUpcomingRecurringIncomes(ctx, now, w.leadDays)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, u := range upcoming {
		if !w.firstReminder(fmt.Sprintf("income:%d", u.Income.ID), u.DueDate, now) {
			continue
		}
		w.notifier.ShowIncomeReminder(ctx, u.Income.ID, u.Income.Description, IncomeReminderMessage(u), u.Income.Amount)
		sent++
	}
	return sent, nil
}

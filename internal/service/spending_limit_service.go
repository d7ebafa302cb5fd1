package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/ledgerly/ledgerly-backend/internal/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultNearLimitRatio is the usage ratio from which a limit counts as near
var DefaultNearLimitRatio = decimal.NewFromFloat(0.8)

// reconcileTolerance is the largest drift accepted as rounding
var reconcileTolerance = decimal.NewFromFloat(0.005)

// SpendingLimitService keeps every limit's current amount equal to the sum
// of the matching expenses and answers exceeded/near-limit queries.
// Writes for one category are serialized by a per-category lock; the
// repository applies each delta in a single atomic statement.
type SpendingLimitService struct {
	limitRepo      domain.SpendingLimitRepository
	expenseRepo    domain.ExpenseRepository
	categoryRepo   domain.CategoryRepository
	notifier       domain.Notifier
	eventPublisher websocket.EventPublisher
	logger         zerolog.Logger
	locks          *keyedMutex[string]
	now            func() time.Time

	alertMu sync.Mutex
	alerted map[int32]bool
}

// NewSpendingLimitService creates a new SpendingLimitService
func NewSpendingLimitService(
	limitRepo domain.SpendingLimitRepository,
	expenseRepo domain.ExpenseRepository,
	categoryRepo domain.CategoryRepository,
	notifier domain.Notifier,
	logger zerolog.Logger,
) *SpendingLimitService {
	if notifier == nil {
		notifier = NoOpNotifier{}
	}
	return &SpendingLimitService{
		limitRepo:    limitRepo,
		expenseRepo:  expenseRepo,
		categoryRepo: categoryRepo,
		notifier:     notifier,
		logger:       logger.With().Str("component", "spending_limits").Logger(),
		locks:        newKeyedMutex[string](),
		now:          func() time.Time { return time.Now().UTC() },
		alerted:      make(map[int32]bool),
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *SpendingLimitService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock replaces the time source used for period rollover
func (s *SpendingLimitService) SetClock(now func() time.Time) {
	s.now = now
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *SpendingLimitService) publishEvent(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

var (
	_ ExpenseObserver = (*SpendingLimitService)(nil)
	_ CategoryLocker  = (*SpendingLimitService)(nil)
)

// heldCategoriesKey carries the categories locked by the caller
type heldCategoriesKey struct{}

// LockCategories locks categories in name order and returns a context
// carrying the held set. Categories already held through ctx are skipped.
func (s *SpendingLimitService) LockCategories(ctx context.Context, categories ...string) (context.Context, func()) {
	held, _ := ctx.Value(heldCategoriesKey{}).(map[string]bool)
	next := make(map[string]bool, len(held)+len(categories))
	for category := range held {
		next[category] = true
	}
	toLock := make([]string, 0, len(categories))
	for _, category := range categories {
		if category == "" || next[category] {
			continue
		}
		next[category] = true
		toLock = append(toLock, category)
	}
	if len(toLock) == 0 {
		return ctx, func() {}
	}
	sort.Strings(toLock)

	unlocks := make([]func(), 0, len(toLock))
	for _, category := range toLock {
		unlocks = append(unlocks, s.locks.Lock(category))
	}
	return context.WithValue(ctx, heldCategoriesKey{}, next), func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

// expenseDelta is one signed expense amount to apply to a category
type expenseDelta struct {
	category string
	date     time.Time
	amount   decimal.Decimal
}

func addedDelta(expense *domain.Expense) expenseDelta {
	return expenseDelta{category: expense.Category, date: expense.Date, amount: expense.Amount}
}

func removedDelta(expense *domain.Expense) expenseDelta {
	return expenseDelta{category: expense.Category, date: expense.Date, amount: expense.Amount.Neg()}
}

// OnExpenseAdded adds the expense to every limit period of its category
// that contains the expense date. Expenses without a matching limit are ignored.
func (s *SpendingLimitService) OnExpenseAdded(ctx context.Context, expense *domain.Expense) error {
	return s.applyExpenses(ctx, addedDelta(expense))
}

// OnExpenseRemoved subtracts the expense from the matching limit periods.
// The current amount never drops below zero.
func (s *SpendingLimitService) OnExpenseRemoved(ctx context.Context, expense *domain.Expense) error {
	return s.applyExpenses(ctx, removedDelta(expense))
}

// OnExpenseUpdated removes the old version and adds the new one; the two
// may hit different limits when category or date changed.
func (s *SpendingLimitService) OnExpenseUpdated(ctx context.Context, old, updated *domain.Expense) error {
	if old.Category == updated.Category && old.Date.Equal(updated.Date) && old.Amount.Equal(updated.Amount) {
		return nil
	}
	return s.applyExpenses(ctx, removedDelta(old), addedDelta(updated))
}

// applyExpenses applies deltas to the periods containing their dates.
// Observers run after the ledger write, so a period opened by a rollover
// here was summed from the store and already reflects the change; it is
// left alone.
func (s *SpendingLimitService) applyExpenses(ctx context.Context, deltas ...expenseDelta) error {
	categories := make([]string, 0, len(deltas))
	for _, d := range deltas {
		if d.category != "" && !d.amount.IsZero() {
			categories = append(categories, d.category)
		}
	}
	if len(categories) == 0 {
		return nil
	}

	ctx, unlock := s.LockCategories(ctx, categories...)
	defer unlock()

	tracked := make(map[string]bool, len(categories))
	opened := make(map[int32]bool)
	for _, category := range categories {
		if _, seen := tracked[category]; seen {
			continue
		}
		active, err := s.limitRepo.GetActiveByCategory(ctx, category)
		if err != nil {
			if errors.Is(err, domain.ErrSpendingLimitNotFound) {
				tracked[category] = false
				continue
			}
			return err
		}
		current, err := s.rolloverIfExpired(ctx, active)
		if err != nil {
			return err
		}
		if current.ID != active.ID {
			opened[current.ID] = true
		}
		tracked[category] = true
	}

	for _, d := range deltas {
		if !tracked[d.category] || d.amount.IsZero() {
			continue
		}
		periods, err := s.limitRepo.ListByCategory(ctx, d.category)
		if err != nil {
			return err
		}
		for _, period := range periods {
			if opened[period.ID] || !period.Contains(d.date) {
				continue
			}
			updated, err := s.limitRepo.AddToCurrentAmount(ctx, period.ID, d.amount)
			if err != nil {
				return err
			}
			if updated.IsActive {
				s.checkAlert(ctx, updated, updated.CurrentAmount.Sub(d.amount))
			}
			s.publishEvent(websocket.SpendingLimitUpdated(updated))
		}
	}
	return nil
}

// checkAlert notifies once when a limit crosses into exceeded and forgets
// the alert when it drops back below the amount.
func (s *SpendingLimitService) checkAlert(ctx context.Context, limit *domain.SpendingLimit, before decimal.Decimal) {
	if !limit.IsExceeded() {
		s.alertMu.Lock()
		delete(s.alerted, limit.ID)
		s.alertMu.Unlock()
		return
	}
	if before.GreaterThanOrEqual(limit.Amount) {
		return
	}
	s.notifyOnce(ctx, limit)
}

func (s *SpendingLimitService) notifyOnce(ctx context.Context, limit *domain.SpendingLimit) bool {
	s.alertMu.Lock()
	if s.alerted[limit.ID] {
		s.alertMu.Unlock()
		return false
	}
	s.alerted[limit.ID] = true
	s.alertMu.Unlock()

	s.logger.Info().
		Int32("limit_id", limit.ID).
		Str("category", limit.Category).
		Str("amount", limit.Amount.String()).
		Str("current_amount", limit.CurrentAmount.String()).
		Msg("Spending limit exceeded")
	s.notifier.ShowLimitAlert(ctx, limit)
	return true
}

// activeLimit returns the active period of a category, rolling it over first
// when it has expired. Callers hold the category lock.
func (s *SpendingLimitService) activeLimit(ctx context.Context, category string) (*domain.SpendingLimit, error) {
	limit, err := s.limitRepo.GetActiveByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	return s.rolloverIfExpired(ctx, limit)
}

// rolloverIfExpired closes an expired auto-reset period and opens the period
// containing now. The old row is kept as history. The new current amount is
// the sum of expenses already dated inside the new window, usually zero.
func (s *SpendingLimitService) rolloverIfExpired(ctx context.Context, limit *domain.SpendingLimit) (*domain.SpendingLimit, error) {
	now := s.now()
	if !limit.AutoReset || !limit.IsExpired(now) {
		return limit, nil
	}

	start, end := limit.NextPeriod(now)
	current, err := s.expenseRepo.SumByCategoryAndDateRange(ctx, limit.Category, start, end)
	if err != nil {
		return nil, err
	}

	next := &domain.SpendingLimit{
		Category:      limit.Category,
		Amount:        limit.Amount,
		CurrentAmount: current,
		StartDate:     start,
		Frequency:     limit.Frequency,
		PeriodDays:    limit.PeriodDays,
		AutoReset:     limit.AutoReset,
	}
	created, err := s.limitRepo.Rollover(ctx, limit.ID, next)
	if err != nil {
		return nil, err
	}

	s.alertMu.Lock()
	delete(s.alerted, limit.ID)
	s.alertMu.Unlock()

	s.logger.Info().
		Str("category", limit.Category).
		Int32("old_limit_id", limit.ID).
		Int32("new_limit_id", created.ID).
		Time("start_date", created.StartDate).
		Msg("Spending limit rolled over")
	s.publishEvent(websocket.SpendingLimitRolledOver(created))

	if created.IsExceeded() {
		s.notifyOnce(ctx, created)
	}
	return created, nil
}

// RolloverExpired rolls over every expired auto-reset limit and returns how many rolled
func (s *SpendingLimitService) RolloverExpired(ctx context.Context) (int, error) {
	limits, err := s.limitRepo.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	rolled := 0
	for _, limit := range limits {
		if !limit.AutoReset || !limit.IsExpired(s.now()) {
			continue
		}
		unlock := s.locks.Lock(limit.Category)
		next, err := s.activeLimit(ctx, limit.Category)
		unlock()
		if err != nil {
			return rolled, err
		}
		if next.ID != limit.ID {
			rolled++
		}
	}
	return rolled, nil
}

// listActive returns every active limit after rolling over expired ones
func (s *SpendingLimitService) listActive(ctx context.Context) ([]*domain.SpendingLimit, error) {
	limits, err := s.limitRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.SpendingLimit, 0, len(limits))
	for _, limit := range limits {
		if limit.AutoReset && limit.IsExpired(s.now()) {
			unlock := s.locks.Lock(limit.Category)
			limit, err = s.activeLimit(ctx, limit.Category)
			unlock()
			if err != nil {
				return nil, err
			}
		}
		result = append(result, limit)
	}
	return result, nil
}

// GetLimitByCategory returns the active period of a category's limit
func (s *SpendingLimitService) GetLimitByCategory(ctx context.Context, category string) (*domain.SpendingLimit, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, domain.ErrSpendingLimitNotFound
	}
	unlock := s.locks.Lock(category)
	defer unlock()
	return s.activeLimit(ctx, category)
}

// GetExceededLimits returns active limits whose current amount reached the
// amount, most exceeded first.
func (s *SpendingLimitService) GetExceededLimits(ctx context.Context) ([]*domain.SpendingLimit, error) {
	limits, err := s.listActive(ctx)
	if err != nil {
		return nil, err
	}

	exceeded := make([]*domain.SpendingLimit, 0)
	for _, limit := range limits {
		if limit.IsExceeded() {
			exceeded = append(exceeded, limit)
		}
	}
	sort.SliceStable(exceeded, func(i, j int) bool {
		return exceeded[i].Remaining().LessThan(exceeded[j].Remaining())
	})
	return exceeded, nil
}

// GetNearLimits returns active limits not yet exceeded whose usage is at
// least ratio, highest usage first.
func (s *SpendingLimitService) GetNearLimits(ctx context.Context, ratio decimal.Decimal) ([]*domain.SpendingLimit, error) {
	if !ratio.IsPositive() || ratio.GreaterThan(decimal.NewFromInt(1)) {
		return nil, domain.ErrInvalidThreshold
	}

	limits, err := s.listActive(ctx)
	if err != nil {
		return nil, err
	}

	near := make([]*domain.SpendingLimit, 0)
	for _, limit := range limits {
		if limit.IsExceeded() {
			continue
		}
		if limit.CurrentAmount.GreaterThanOrEqual(limit.Amount.Mul(ratio)) {
			near = append(near, limit)
		}
	}
	sort.SliceStable(near, func(i, j int) bool {
		return near[i].UsageRatio().GreaterThan(near[j].UsageRatio())
	})
	return near, nil
}

// ListLimits returns the active period of every limit
func (s *SpendingLimitService) ListLimits(ctx context.Context) ([]*domain.SpendingLimit, error) {
	return s.listActive(ctx)
}

// ListHistory returns all periods of a category, newest first
func (s *SpendingLimitService) ListHistory(ctx context.Context, category string) ([]*domain.SpendingLimit, error) {
	return s.limitRepo.ListByCategory(ctx, strings.TrimSpace(category))
}

// canonicalCategory maps a user-supplied category to its stored name
func (s *SpendingLimitService) canonicalCategory(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrUnknownCategory
	}
	category, err := s.categoryRepo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return "", domain.ErrUnknownCategory
		}
		return "", err
	}
	return category.Name, nil
}

// CreateLimit creates the active limit of a category. A start date in an
// already finished period is moved to the period containing now when the
// limit auto-resets. The current amount is computed from stored expenses.
func (s *SpendingLimitService) CreateLimit(ctx context.Context, limit *domain.SpendingLimit) (*domain.SpendingLimit, error) {
	category, err := s.canonicalCategory(ctx, limit.Category)
	if err != nil {
		return nil, err
	}
	limit.Category = category
	limit.StartDate = limit.StartDate.UTC()
	if err := limit.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(category)
	defer unlock()

	if limit.AutoReset && limit.IsExpired(s.now()) {
		limit.StartDate, _ = limit.NextPeriod(s.now())
	}

	current, err := s.expenseRepo.SumByCategoryAndDateRange(ctx, category, limit.StartDate, limit.PeriodEnd())
	if err != nil {
		return nil, err
	}
	limit.CurrentAmount = current

	created, err := s.limitRepo.Create(ctx, limit)
	if err != nil {
		return nil, err
	}

	s.checkAlert(ctx, created, decimal.Zero)
	s.publishEvent(websocket.SpendingLimitUpdated(created))
	return created, nil
}

// UpdateLimit changes the amount and schedule of an active limit and
// recomputes its current amount for the new window.
func (s *SpendingLimitService) UpdateLimit(ctx context.Context, id int32, changes *domain.SpendingLimit) (*domain.SpendingLimit, error) {
	existing, err := s.limitRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !existing.IsActive {
		return nil, domain.ErrSpendingLimitNotFound
	}

	unlock := s.locks.Lock(existing.Category)
	defer unlock()

	// A rollover may have closed the period while waiting for the lock
	existing, err = s.limitRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !existing.IsActive {
		return nil, domain.ErrSpendingLimitNotFound
	}

	updated := *existing
	updated.Amount = changes.Amount
	updated.StartDate = changes.StartDate.UTC()
	updated.Frequency = changes.Frequency
	updated.PeriodDays = changes.PeriodDays
	updated.AutoReset = changes.AutoReset
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	current, err := s.expenseRepo.SumByCategoryAndDateRange(ctx, updated.Category, updated.StartDate, updated.PeriodEnd())
	if err != nil {
		return nil, err
	}
	updated.CurrentAmount = current

	saved, err := s.limitRepo.Update(ctx, &updated)
	if err != nil {
		return nil, err
	}

	s.checkAlert(ctx, saved, existing.CurrentAmount)
	s.publishEvent(websocket.SpendingLimitUpdated(saved))
	return saved, nil
}

// DeleteLimit deletes a limit. Deleting the active period removes the
// category's whole history, including a period a concurrent rollover opened
// after the request; deleting a past period removes only that row.
func (s *SpendingLimitService) DeleteLimit(ctx context.Context, id int32) error {
	limit, err := s.limitRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(limit.Category)
	defer unlock()

	if _, err := s.limitRepo.GetByID(ctx, id); err != nil {
		return err
	}

	if !limit.IsActive {
		return s.limitRepo.Delete(ctx, id)
	}

	periods, err := s.limitRepo.ListByCategory(ctx, limit.Category)
	if err != nil {
		return err
	}
	for _, period := range periods {
		if err := s.limitRepo.Delete(ctx, period.ID); err != nil && !errors.Is(err, domain.ErrSpendingLimitNotFound) {
			return err
		}
		s.alertMu.Lock()
		delete(s.alerted, period.ID)
		s.alertMu.Unlock()
	}
	return nil
}

// sumPeriod scans the expenses of a limit's window
func (s *SpendingLimitService) sumPeriod(ctx context.Context, limit *domain.SpendingLimit) (decimal.Decimal, error) {
	return s.expenseRepo.SumByCategoryAndDateRange(ctx, limit.Category, limit.StartDate, limit.PeriodEnd())
}

// RecomputeAll rebuilds every period's current amount from the stored
// expenses, ignoring the incrementally maintained values.
func (s *SpendingLimitService) RecomputeAll(ctx context.Context) error {
	active, err := s.limitRepo.ListActive(ctx)
	if err != nil {
		return err
	}

	s.alertMu.Lock()
	s.alerted = make(map[int32]bool)
	s.alertMu.Unlock()

	for _, limit := range active {
		if err := s.recomputeCategory(ctx, limit.Category); err != nil {
			return err
		}
	}
	s.logger.Info().Int("categories", len(active)).Msg("Recomputed spending limits")
	return nil
}

// Reconcile compares every period with a scan of its expenses and repairs
// drift beyond rounding. It returns how many periods were repaired.
func (s *SpendingLimitService) Reconcile(ctx context.Context) (int, error) {
	active, err := s.limitRepo.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, limit := range active {
		unlock := s.locks.Lock(limit.Category)
		periods, err := s.limitRepo.ListByCategory(ctx, limit.Category)
		if err != nil {
			unlock()
			return repaired, err
		}
		for _, period := range periods {
			scanned, err := s.sumPeriod(ctx, period)
			if err != nil {
				unlock()
				return repaired, err
			}
			if period.CurrentAmount.Sub(scanned).Abs().LessThanOrEqual(reconcileTolerance) {
				continue
			}
			s.logger.Error().
				Err(domain.ErrConsistency).
				Int32("limit_id", period.ID).
				Str("category", period.Category).
				Str("stored", period.CurrentAmount.String()).
				Str("scanned", scanned.String()).
				Msg("Spending limit drifted from its expenses, repairing")
			if _, err := s.limitRepo.SetCurrentAmount(ctx, period.ID, scanned); err != nil {
				unlock()
				return repaired, err
			}
			repaired++
		}
		unlock()
	}
	return repaired, nil
}

func (s *SpendingLimitService) recomputeCategory(ctx context.Context, category string) error {
	unlock := s.locks.Lock(category)
	defer unlock()

	periods, err := s.limitRepo.ListByCategory(ctx, category)
	if err != nil {
		return err
	}
	for _, period := range periods {
		scanned, err := s.sumPeriod(ctx, period)
		if err != nil {
			return err
		}
		if _, err := s.limitRepo.SetCurrentAmount(ctx, period.ID, scanned); err != nil {
			return err
		}
	}
	return nil
}

// NotifyExceeded alerts for every exceeded active limit that has not been
// alerted yet, e.g. after a restore. It returns how many alerts were sent.
func (s *SpendingLimitService) NotifyExceeded(ctx context.Context) (int, error) {
	exceeded, err := s.GetExceededLimits(ctx)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, limit := range exceeded {
		if s.notifyOnce(ctx, limit) {
			sent++
		}
	}
	return sent, nil
}

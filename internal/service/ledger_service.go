package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/ledgerly/ledgerly-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// LedgerService validates and stores expenses and tells registered
// observers about every committed change.
type LedgerService struct {
	expenseRepo    domain.ExpenseRepository
	categoryRepo   domain.CategoryRepository
	eventPublisher websocket.EventPublisher
	locker         CategoryLocker
	logger         zerolog.Logger

	mu        sync.RWMutex
	observers []ExpenseObserver
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	expenseRepo domain.ExpenseRepository,
	categoryRepo domain.CategoryRepository,
	logger zerolog.Logger,
) *LedgerService {
	return &LedgerService{
		expenseRepo:  expenseRepo,
		categoryRepo: categoryRepo,
		logger:       logger.With().Str("component", "ledger").Logger(),
	}
}

// AddObserver registers an observer for expense changes
func (s *LedgerService) AddObserver(observer ExpenseObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *LedgerService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetCategoryLocker makes every expense write and its observer calls one
// critical section per touched category.
func (s *LedgerService) SetCategoryLocker(locker CategoryLocker) {
	s.locker = locker
}

func (s *LedgerService) lockCategories(ctx context.Context, categories ...string) (context.Context, func()) {
	if s.locker == nil {
		return ctx, func() {}
	}
	return s.locker.LockCategories(ctx, categories...)
}

// lockExpense locks the stored expense's category plus category and returns
// the expense as read under the locks.
func (s *LedgerService) lockExpense(ctx context.Context, id int32, category string) (context.Context, *domain.Expense, func(), error) {
	for {
		old, err := s.expenseRepo.GetByID(ctx, id)
		if err != nil {
			return ctx, nil, nil, err
		}
		lockedCtx, unlock := s.lockCategories(ctx, old.Category, category)
		current, err := s.expenseRepo.GetByID(lockedCtx, id)
		if err != nil {
			unlock()
			return ctx, nil, nil, err
		}
		if current.Category == old.Category {
			return lockedCtx, current, unlock, nil
		}
		// Moved to another category meanwhile; lock again
		unlock()
	}
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *LedgerService) publishEvent(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

func (s *LedgerService) snapshotObservers() []ExpenseObserver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ExpenseObserver(nil), s.observers...)
}

// notify runs fn for every observer. A failing observer is logged and the
// rest still run; Reconcile repairs whatever it missed.
func (s *LedgerService) notify(ctx context.Context, expenseID int32, op string, fn func(ExpenseObserver) error) {
	for _, observer := range s.snapshotObservers() {
		if err := fn(observer); err != nil {
			s.logger.Error().
				Err(err).
				Int32("expense_id", expenseID).
				Str("operation", op).
				Msg("Expense observer failed")
		}
	}
}

// canonicalCategory maps a user-supplied category to its stored name.
// Empty means uncategorized; unknown names are rejected.
func (s *LedgerService) canonicalCategory(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
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

func (s *LedgerService) prepare(ctx context.Context, expense *domain.Expense) error {
	expense.Date = expense.Date.UTC()
	if expense.Notes != nil {
		notes := strings.TrimSpace(*expense.Notes)
		expense.Notes = &notes
		if notes == "" {
			expense.Notes = nil
		}
	}
	if err := expense.Validate(); err != nil {
		return err
	}
	category, err := s.canonicalCategory(ctx, expense.Category)
	if err != nil {
		return err
	}
	expense.Category = category
	return nil
}

// CreateExpense validates and stores a new expense
func (s *LedgerService) CreateExpense(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	if err := s.prepare(ctx, expense); err != nil {
		return nil, err
	}

	ctx, unlock := s.lockCategories(ctx, expense.Category)
	defer unlock()

	created, err := s.expenseRepo.Create(ctx, expense)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, created.ID, "add", func(o ExpenseObserver) error {
		return o.OnExpenseAdded(ctx, created)
	})
	s.publishEvent(websocket.ExpenseCreated(created))
	return created, nil
}

// GetExpense retrieves an expense by ID
func (s *LedgerService) GetExpense(ctx context.Context, id int32) (*domain.Expense, error) {
	return s.expenseRepo.GetByID(ctx, id)
}

// UpdateExpense replaces the user-editable fields of an expense. The
// receipt path is kept from the stored expense.
func (s *LedgerService) UpdateExpense(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	if err := s.prepare(ctx, expense); err != nil {
		return nil, err
	}

	ctx, old, unlock, err := s.lockExpense(ctx, expense.ID, expense.Category)
	if err != nil {
		return nil, err
	}
	defer unlock()
	expense.ReceiptPath = old.ReceiptPath

	updated, err := s.expenseRepo.Update(ctx, expense)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, updated.ID, "update", func(o ExpenseObserver) error {
		return o.OnExpenseUpdated(ctx, old, updated)
	})
	s.publishEvent(websocket.ExpenseUpdated(updated))
	return updated, nil
}

// SetReceiptPath records where an expense's receipt is stored; nil clears it
func (s *LedgerService) SetReceiptPath(ctx context.Context, id int32, path *string) (*domain.Expense, error) {
	ctx, old, unlock, err := s.lockExpense(ctx, id, "")
	if err != nil {
		return nil, err
	}
	defer unlock()

	changed := *old
	changed.ReceiptPath = path
	updated, err := s.expenseRepo.Update(ctx, &changed)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, updated.ID, "update", func(o ExpenseObserver) error {
		return o.OnExpenseUpdated(ctx, old, updated)
	})
	s.publishEvent(websocket.ExpenseUpdated(updated))
	return updated, nil
}

// DeleteExpense deletes an expense
func (s *LedgerService) DeleteExpense(ctx context.Context, id int32) error {
	ctx, old, unlock, err := s.lockExpense(ctx, id, "")
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.expenseRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.notify(ctx, id, "remove", func(o ExpenseObserver) error {
		return o.OnExpenseRemoved(ctx, old)
	})
	s.publishEvent(websocket.ExpenseDeleted(map[string]int32{"id": id}))
	return nil
}

// ListExpenses returns expenses dated in [start, end), newest first
func (s *LedgerService) ListExpenses(ctx context.Context, start, end time.Time) ([]*domain.Expense, error) {
	if end.Before(start) {
		return nil, domain.ErrInvalidDateRange
	}
	return s.expenseRepo.ListByDateRange(ctx, start.UTC(), end.UTC())
}

// ListExpensesByCategory returns a category's expenses, newest first
func (s *LedgerService) ListExpensesByCategory(ctx context.Context, category string) ([]*domain.Expense, error) {
	name, err := s.canonicalCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	return s.expenseRepo.ListByCategory(ctx, name)
}

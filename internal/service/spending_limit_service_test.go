package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/ledgerly/ledgerly-backend/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var marchStart = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

func createMonthlyLimit(t *testing.T, env *testEnv, category string, amount int64) *domain.SpendingLimit {
	t.Helper()
	limit, err := env.limits.CreateLimit(context.Background(), &domain.SpendingLimit{
		Category:  category,
		Amount:    decimal.NewFromInt(amount),
		StartDate: marchStart,
		Frequency: domain.FrequencyMonthly,
		AutoReset: true,
	})
	require.NoError(t, err)
	return limit
}

func currentAmount(t *testing.T, env *testEnv, category string) decimal.Decimal {
	t.Helper()
	limit, err := env.limits.GetLimitByCategory(context.Background(), category)
	require.NoError(t, err)
	return limit.CurrentAmount
}

func TestSpendingLimit_TracksExpensesAndExceeds(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	createMonthlyLimit(t, env, "Food", 500)

	_, err := env.ledger.CreateExpense(ctx, newExpense("Groceries", "Food", 100, testNow))
	require.NoError(t, err)
	assert.True(t, currentAmount(t, env, "Food").Equal(decimal.NewFromInt(100)))

	exceeded, err := env.limits.GetExceededLimits(ctx)
	require.NoError(t, err)
	assert.Empty(t, exceeded)

	_, err = env.ledger.CreateExpense(ctx, newExpense("Party", "Food", 450, testNow))
	require.NoError(t, err)
	assert.True(t, currentAmount(t, env, "Food").Equal(decimal.NewFromInt(550)))

	exceeded, err = env.limits.GetExceededLimits(ctx)
	require.NoError(t, err)
	require.Len(t, exceeded, 1)
	assert.Equal(t, "Food", exceeded[0].Category)
	assert.Equal(t, 1, env.notifier.LimitAlertCount())
}

func TestSpendingLimit_ExactAmountCountsAsExceeded(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	createMonthlyLimit(t, env, "Food", 500)

	_, err := env.ledger.CreateExpense(ctx, newExpense("Catering", "Food", 500, testNow))
	require.NoError(t, err)

	exceeded, err := env.limits.GetExceededLimits(ctx)
	require.NoError(t, err)
	assert.Len(t, exceeded, 1)
}

func TestSpendingLimit_ConcurrentExpensesAllCounted(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	createMonthlyLimit(t, env, "Food", 100000)

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.ledger.CreateExpense(ctx, newExpense("Snack", "Food", 7, testNow))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, currentAmount(t, env, "Food").Equal(decimal.NewFromInt(7*workers)))
}

func TestSpendingLimit_IgnoresUnrelatedExpenses(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	createMonthlyLimit(t, env, "Food", 500)

	_, err := env.ledger.CreateExpense(ctx, newExpense("Bus", "Transport", 20, testNow))
	require.NoError(t, err)
	_, err = env.ledger.CreateExpense(ctx, newExpense("Gift", "", 20, testNow))
	require.NoError(t, err)
	_, err = env.ledger.CreateExpense(ctx, newExpense("Old groceries", "Food", 20, marchStart.AddDate(0, -2, 0)))
	require.NoError(t, err)

	assert.True(t, currentAmount(t, env, "Food").IsZero())
}

func TestSpendingLimit_DeleteSubtractsAndClampsAtZero(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	limit := createMonthlyLimit(t, env, "Food", 500)

	created, err := env.ledger.CreateExpense(ctx, newExpense("Lunch", "Food", 80, testNow))
	require.NoError(t, err)

	// Simulate drift so the subtraction would go below zero
	_, err = env.limitRepo.SetCurrentAmount(ctx, limit.ID, decimal.NewFromInt(30))
	require.NoError(t, err)

	require.NoError(t, env.ledger.DeleteExpense(ctx, created.ID))
	assert.True(t, currentAmount(t, env, "Food").IsZero())
}

func TestSpendingLimit_UpdateMovesAmountBetweenCategories(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	createMonthlyLimit(t, env, "Food", 500)
	createMonthlyLimit(t, env, "Transport", 200)

	created, err := env.ledger.CreateExpense(ctx, newExpense("Mixed", "Food", 60, testNow))
	require.NoError(t, err)

	changed := newExpense("Mixed", "Transport", 75, testNow)
	changed.ID = created.ID
	_, err = env.ledger.UpdateExpense(ctx, changed)
	require.NoError(t, err)

	assert.True(t, currentAmount(t, env, "Food").IsZero())
	assert.True(t, currentAmount(t, env, "Transport").Equal(decimal.NewFromInt(75)))
}

func TestSpendingLimit_AlertsOncePerCrossing(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	createMonthlyLimit(t, env, "Food", 100)

	first, err := env.ledger.CreateExpense(ctx, newExpense("Big shop", "Food", 120, testNow))
	require.NoError(t, err)
	_, err = env.ledger.CreateExpense(ctx, newExpense("Snack", "Food", 5, testNow))
	require.NoError(t, err)
	assert.Equal(t, 1, env.notifier.LimitAlertCount(), "staying above the amount does not alert again")

	require.NoError(t, env.ledger.DeleteExpense(ctx, first.ID))
	_, err = env.ledger.CreateExpense(ctx, newExpense("Another shop", "Food", 110, testNow))
	require.NoError(t, err)
	assert.Equal(t, 2, env.notifier.LimitAlertCount(), "dropping below and crossing again alerts again")

	sent, err := env.limits.NotifyExceeded(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}

func TestGetExceededLimits_MostExceededFirst(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	createMonthlyLimit(t, env, "Food", 100)
	createMonthlyLimit(t, env, "Transport", 100)

	_, err := env.ledger.CreateExpense(ctx, newExpense("Food", "Food", 150, testNow))
	require.NoError(t, err)
	_, err = env.ledger.CreateExpense(ctx, newExpense("Flight", "Transport", 300, testNow))
	require.NoError(t, err)

	exceeded, err := env.limits.GetExceededLimits(ctx)
	require.NoError(t, err)
	require.Len(t, exceeded, 2)
	assert.Equal(t, "Transport", exceeded[0].Category)
	assert.Equal(t, "Food", exceeded[1].Category)
}

func TestGetNearLimits(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	createMonthlyLimit(t, env, "Food", 500)
	createMonthlyLimit(t, env, "Transport", 100)
	createMonthlyLimit(t, env, "Housing", 1000)

	_, err := env.ledger.CreateExpense(ctx, newExpense("Groceries", "Food", 420, testNow))
	require.NoError(t, err)
	_, err = env.ledger.CreateExpense(ctx, newExpense("Bus pass", "Transport", 95, testNow))
	require.NoError(t, err)
	_, err = env.ledger.CreateExpense(ctx, newExpense("Repairs", "Housing", 1200, testNow))
	require.NoError(t, err)

	near, err := env.limits.GetNearLimits(ctx, decimal.NewFromFloat(0.8))
	require.NoError(t, err)
	require.Len(t, near, 2, "exceeded limits are not near")
	assert.Equal(t, "Transport", near[0].Category)
	assert.Equal(t, "Food", near[1].Category)

	for _, ratio := range []float64{0, -0.5, 1.5} {
		_, err := env.limits.GetNearLimits(ctx, decimal.NewFromFloat(ratio))
		assert.ErrorIs(t, err, domain.ErrInvalidThreshold)
	}
}

func TestCreateLimit_Validation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.limits.CreateLimit(ctx, &domain.SpendingLimit{
		Category:  "Travel",
		Amount:    decimal.NewFromInt(100),
		StartDate: marchStart,
		Frequency: domain.FrequencyMonthly,
	})
	assert.ErrorIs(t, err, domain.ErrUnknownCategory)

	_, err = env.limits.CreateLimit(ctx, &domain.SpendingLimit{
		Category:  "Food",
		Amount:    decimal.NewFromInt(-1),
		StartDate: marchStart,
		Frequency: domain.FrequencyMonthly,
	})
	assert.ErrorIs(t, err, domain.ErrNegativeAmount)

	_, err = env.limits.CreateLimit(ctx, &domain.SpendingLimit{
		Category:  "Food",
		Amount:    decimal.NewFromInt(100),
		StartDate: marchStart,
		Frequency: domain.FrequencyCustom,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPeriodDays)

	createMonthlyLimit(t, env, "Food", 100)
	_, err = env.limits.CreateLimit(ctx, &domain.SpendingLimit{
		Category:  "food",
		Amount:    decimal.NewFromInt(200),
		StartDate: marchStart,
		Frequency: domain.FrequencyMonthly,
	})
	assert.ErrorIs(t, err, domain.ErrSpendingLimitAlreadyExists)
}

func TestCreateLimit_CountsExistingExpenses(t *testing.T) {
	env := newTestEnv()

	env.expenseRepo.AddExpense(newExpense("Earlier", "Food", 300, testNow.AddDate(0, 0, -3)))
	env.expenseRepo.AddExpense(newExpense("Last month", "Food", 900, marchStart.AddDate(0, 0, -1)))

	limit := createMonthlyLimit(t, env, "food", 250)
	assert.Equal(t, "Food", limit.Category)
	assert.True(t, limit.CurrentAmount.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, 1, env.notifier.LimitAlertCount())
}

func TestCreateLimit_StaleStartMovesToCurrentPeriod(t *testing.T) {
	env := newTestEnv()

	limit, err := env.limits.CreateLimit(context.Background(), &domain.SpendingLimit{
		Category:  "Food",
		Amount:    decimal.NewFromInt(100),
		StartDate: time.Date(2023, time.November, 1, 0, 0, 0, 0, time.UTC),
		Frequency: domain.FrequencyMonthly,
		AutoReset: true,
	})
	require.NoError(t, err)
	assert.Equal(t, marchStart, limit.StartDate)
}

func TestRolloverExpired_KeepsHistory(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	february := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	env.limitRepo.AddLimit(&domain.SpendingLimit{
		Category:      "Food",
		Amount:        decimal.NewFromInt(500),
		CurrentAmount: decimal.NewFromInt(480),
		StartDate:     february,
		Frequency:     domain.FrequencyMonthly,
		AutoReset:     true,
		IsActive:      true,
	})
	env.expenseRepo.AddExpense(newExpense("Already this month", "Food", 40, testNow.AddDate(0, 0, -1)))

	rolled, err := env.limits.RolloverExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rolled)

	active, err := env.limits.GetLimitByCategory(ctx, "Food")
	require.NoError(t, err)
	assert.Equal(t, marchStart, active.StartDate)
	assert.True(t, active.CurrentAmount.Equal(decimal.NewFromInt(40)))

	history, err := env.limits.ListHistory(ctx, "Food")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].IsActive)
	assert.False(t, history[1].IsActive)
	assert.True(t, history[1].CurrentAmount.Equal(decimal.NewFromInt(480)))

	rolled, err = env.limits.RolloverExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, rolled)
}

func TestRolloverExpired_FixedWindowStays(t *testing.T) {
	env := newTestEnv()

	env.limitRepo.AddLimit(&domain.SpendingLimit{
		Category:  "Food",
		Amount:    decimal.NewFromInt(500),
		StartDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Frequency: domain.FrequencyMonthly,
		IsActive:  true,
	})

	rolled, err := env.limits.RolloverExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, rolled)

	history, err := env.limits.ListHistory(context.Background(), "Food")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSpendingLimit_BackdatedExpenseUpdatesHistoryRow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	february := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	env.limitRepo.AddLimit(&domain.SpendingLimit{
		ID:        1,
		Category:  "Food",
		Amount:    decimal.NewFromInt(100),
		StartDate: february,
		Frequency: domain.FrequencyMonthly,
		AutoReset: true,
	})
	env.limitRepo.AddLimit(&domain.SpendingLimit{
		ID:        2,
		Category:  "Food",
		Amount:    decimal.NewFromInt(100),
		StartDate: marchStart,
		Frequency: domain.FrequencyMonthly,
		AutoReset: true,
		IsActive:  true,
	})

	_, err := env.ledger.CreateExpense(ctx, newExpense("Late receipt", "Food", 150, february.AddDate(0, 0, 10)))
	require.NoError(t, err)

	old, err := env.limitRepo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, old.CurrentAmount.Equal(decimal.NewFromInt(150)))
	assert.True(t, currentAmount(t, env, "Food").IsZero())
	assert.Equal(t, 0, env.notifier.LimitAlertCount(), "past periods do not alert")
}

func TestReconcile_RepairsDrift(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	limit := createMonthlyLimit(t, env, "Food", 500)

	_, err := env.ledger.CreateExpense(ctx, newExpense("Lunch", "Food", 100, testNow))
	require.NoError(t, err)
	_, err = env.limitRepo.SetCurrentAmount(ctx, limit.ID, decimal.NewFromInt(999))
	require.NoError(t, err)

	repaired, err := env.limits.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)
	assert.True(t, currentAmount(t, env, "Food").Equal(decimal.NewFromInt(100)))

	repaired, err = env.limits.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, repaired)
}

func TestReconcile_RepairsMissedObserverUpdate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	createMonthlyLimit(t, env, "Food", 500)

	env.limitRepo.AddFn = func(int32, decimal.Decimal) (*domain.SpendingLimit, error) {
		return nil, errors.New("deadlock detected")
	}
	_, err := env.ledger.CreateExpense(ctx, newExpense("Lunch", "Food", 60, testNow))
	require.NoError(t, err, "the user's write survives a failed limit update")
	assert.True(t, currentAmount(t, env, "Food").IsZero())

	env.limitRepo.AddFn = nil
	repaired, err := env.limits.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)
	assert.True(t, currentAmount(t, env, "Food").Equal(decimal.NewFromInt(60)))
}

func TestUpdateLimit_RecomputesWindow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	limit := createMonthlyLimit(t, env, "Food", 500)

	env.expenseRepo.AddExpense(newExpense("Old", "Food", 70, marchStart.AddDate(0, 0, -10)))
	_, err := env.ledger.CreateExpense(ctx, newExpense("New", "Food", 30, testNow))
	require.NoError(t, err)

	weekly, err := env.limits.UpdateLimit(ctx, limit.ID, &domain.SpendingLimit{
		Amount:    decimal.NewFromInt(50),
		StartDate: time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC),
		Frequency: domain.FrequencyWeekly,
	})
	require.NoError(t, err)
	assert.True(t, weekly.CurrentAmount.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, domain.FrequencyWeekly, weekly.Frequency)

	_, err = env.limits.UpdateLimit(ctx, 999, &domain.SpendingLimit{Amount: decimal.NewFromInt(1), StartDate: marchStart, Frequency: domain.FrequencyDaily})
	assert.ErrorIs(t, err, domain.ErrSpendingLimitNotFound)
}

func TestDeleteLimit(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.limitRepo.AddLimit(&domain.SpendingLimit{
		ID:        1,
		Category:  "Food",
		Amount:    decimal.NewFromInt(100),
		StartDate: time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		Frequency: domain.FrequencyMonthly,
	})
	env.limitRepo.AddLimit(&domain.SpendingLimit{
		ID:        2,
		Category:  "Food",
		Amount:    decimal.NewFromInt(100),
		StartDate: marchStart,
		Frequency: domain.FrequencyMonthly,
		IsActive:  true,
	})

	t.Run("history row only", func(t *testing.T) {
		require.NoError(t, env.limits.DeleteLimit(ctx, 1))
		history, err := env.limits.ListHistory(ctx, "Food")
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, int32(2), history[0].ID)
	})

	t.Run("active row removes category", func(t *testing.T) {
		require.NoError(t, env.limits.DeleteLimit(ctx, 2))
		_, err := env.limits.GetLimitByCategory(ctx, "Food")
		assert.ErrorIs(t, err, domain.ErrSpendingLimitNotFound)
	})

	t.Run("missing", func(t *testing.T) {
		assert.ErrorIs(t, env.limits.DeleteLimit(ctx, 2), domain.ErrSpendingLimitNotFound)
	})
}

func TestRecomputeAll(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	limit := createMonthlyLimit(t, env, "Food", 500)

	env.expenseRepo.AddExpense(newExpense("Imported", "Food", 210, testNow))
	_, err := env.limitRepo.SetCurrentAmount(ctx, limit.ID, decimal.Zero)
	require.NoError(t, err)

	require.NoError(t, env.limits.RecomputeAll(ctx))
	assert.True(t, currentAmount(t, env, "Food").Equal(decimal.NewFromInt(210)))
}

var februaryStart = time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

// addExpiredFebruaryLimit stores an auto-reset Food limit whose period ended
// before testNow
func addExpiredFebruaryLimit(env *testEnv) {
	env.limitRepo.AddLimit(&domain.SpendingLimit{
		ID:            1,
		Category:      "Food",
		Amount:        decimal.NewFromInt(500),
		CurrentAmount: decimal.NewFromInt(480),
		StartDate:     februaryStart,
		Frequency:     domain.FrequencyMonthly,
		AutoReset:     true,
		IsActive:      true,
	})
}

func TestSpendingLimit_ExpenseOpeningNewPeriodCountsOnce(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	addExpiredFebruaryLimit(env)

	_, err := env.ledger.CreateExpense(ctx, newExpense("Groceries", "Food", 100, testNow))
	require.NoError(t, err)

	active, err := env.limits.GetLimitByCategory(ctx, "Food")
	require.NoError(t, err)
	assert.Equal(t, marchStart, active.StartDate)
	assert.True(t, active.CurrentAmount.Equal(decimal.NewFromInt(100)), "got %s", active.CurrentAmount)
	assert.Equal(t, 0, env.notifier.LimitAlertCount())

	february, err := env.limitRepo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, february.CurrentAmount.Equal(decimal.NewFromInt(480)))
}

func TestSpendingLimit_UpdateOpeningNewPeriodCountsOnce(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	addExpiredFebruaryLimit(env)

	stored := newExpense("Groceries", "Food", 40, testNow)
	env.expenseRepo.AddExpense(stored)

	changed := newExpense("Groceries", "Food", 60, testNow)
	changed.ID = stored.ID
	_, err := env.ledger.UpdateExpense(ctx, changed)
	require.NoError(t, err)

	assert.True(t, currentAmount(t, env, "Food").Equal(decimal.NewFromInt(60)))
}

// reconcilingExpenseRepo starts a reconcile right after storing an expense
// and gives it a moment to run before the write returns
type reconcilingExpenseRepo struct {
	*testutil.MockExpenseRepository
	limits *SpendingLimitService

	done     chan struct{}
	repaired int
	err      error
}

func (r *reconcilingExpenseRepo) Create(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	created, err := r.MockExpenseRepository.Create(ctx, expense)
	if err != nil {
		return nil, err
	}
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		r.repaired, r.err = r.limits.Reconcile(context.Background())
	}()
	select {
	case <-r.done:
	case <-time.After(50 * time.Millisecond):
	}
	return created, nil
}

func TestCreateExpense_ReconcileWaitsForLimitUpdate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	createMonthlyLimit(t, env, "Food", 500)

	repo := &reconcilingExpenseRepo{MockExpenseRepository: env.expenseRepo, limits: env.limits}
	ledger := NewLedgerService(repo, env.categoryRepo, zerolog.Nop())
	ledger.AddObserver(env.limits)
	ledger.SetCategoryLocker(env.limits)

	_, err := ledger.CreateExpense(ctx, newExpense("Groceries", "Food", 100, testNow))
	require.NoError(t, err)
	<-repo.done

	require.NoError(t, repo.err)
	assert.Equal(t, 0, repo.repaired)
	assert.True(t, currentAmount(t, env, "Food").Equal(decimal.NewFromInt(100)))
}

func TestLockCategories_SkipsHeldCategories(t *testing.T) {
	env := newTestEnv()

	ctx, unlockFood := env.limits.LockCategories(context.Background(), "Food", "")
	assert.Equal(t, 1, env.limits.locks.size())

	_, unlockBoth := env.limits.LockCategories(ctx, "Transport", "Food")
	assert.Equal(t, 2, env.limits.locks.size())

	unlockBoth()
	assert.Equal(t, 1, env.limits.locks.size())
	unlockFood()
	assert.Equal(t, 0, env.limits.locks.size())
}

// interleavingLimitRepo runs afterGet once, right after the first GetByID
type interleavingLimitRepo struct {
	*testutil.MockSpendingLimitRepository
	once     sync.Once
	afterGet func()
}

func (r *interleavingLimitRepo) GetByID(ctx context.Context, id int32) (*domain.SpendingLimit, error) {
	limit, err := r.MockSpendingLimitRepository.GetByID(ctx, id)
	r.once.Do(r.afterGet)
	return limit, err
}

// newInterleavedLimits returns a limit service whose first GetByID is
// followed by a rollover of every expired limit
func newInterleavedLimits(t *testing.T, env *testEnv) *SpendingLimitService {
	t.Helper()
	repo := &interleavingLimitRepo{MockSpendingLimitRepository: env.limitRepo}
	limits := NewSpendingLimitService(repo, env.expenseRepo, env.categoryRepo, env.notifier, zerolog.Nop())
	limits.SetClock(func() time.Time { return testNow })
	repo.afterGet = func() {
		rolled, err := limits.RolloverExpired(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, rolled)
	}
	return limits
}

func TestUpdateLimit_RejectsPeriodClosedWhileWaiting(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	addExpiredFebruaryLimit(env)
	limits := newInterleavedLimits(t, env)

	_, err := limits.UpdateLimit(ctx, 1, &domain.SpendingLimit{
		Amount:    decimal.NewFromInt(900),
		StartDate: februaryStart,
		Frequency: domain.FrequencyMonthly,
		AutoReset: true,
	})
	assert.ErrorIs(t, err, domain.ErrSpendingLimitNotFound)

	history, err := limits.ListHistory(ctx, "Food")
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, period := range history {
		assert.True(t, period.Amount.Equal(decimal.NewFromInt(500)))
	}
}

func TestDeleteLimit_ActivePeriodClosedWhileWaiting(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	addExpiredFebruaryLimit(env)
	limits := newInterleavedLimits(t, env)

	require.NoError(t, limits.DeleteLimit(ctx, 1))

	history, err := limits.ListHistory(ctx, "Food")
	require.NoError(t, err)
	assert.Empty(t, history)
	_, err = limits.GetLimitByCategory(ctx, "Food")
	assert.ErrorIs(t, err, domain.ErrSpendingLimitNotFound)
}

func TestSpendingLimit_FinalAmountIndependentOfOrder(t *testing.T) {
	amounts := []int64{120, 35, 80, 15, 60}
	orders := [][]int{{0, 1, 2, 3, 4}, {4, 3, 2, 1, 0}, {2, 0, 4, 1, 3}}

	for _, order := range orders {
		env := newTestEnv()
		ctx := context.Background()
		createMonthlyLimit(t, env, "Food", 1000)

		ids := make([]int32, len(amounts))
		for _, i := range order {
			created, err := env.ledger.CreateExpense(ctx, newExpense("Item", "Food", amounts[i], testNow))
			require.NoError(t, err)
			ids[i] = created.ID
		}
		require.NoError(t, env.ledger.DeleteExpense(ctx, ids[3]))
		require.NoError(t, env.ledger.DeleteExpense(ctx, ids[1]))

		assert.True(t, currentAmount(t, env, "Food").Equal(decimal.NewFromInt(260)), "order %v", order)
	}
}

package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReportService(env *testEnv) *ReportService {
	return NewReportService(env.expenseRepo, env.incomeRepo, env.limits, env.savings, env.incomes)
}

func addIncome(env *testEnv, description string, amount int64, date time.Time) {
	env.incomeRepo.AddIncome(&domain.Income{
		Description: description,
		Amount:      decimal.NewFromInt(amount),
		Type:        "Salary",
		Date:        date,
	})
}

func TestMonthlyTotals_EmptyMonth(t *testing.T) {
	env := newTestEnv()
	svc := newReportService(env)

	totals, err := svc.MonthlyTotals(context.Background(), 2024, 2)
	require.NoError(t, err)
	assert.True(t, totals.Income.IsZero())
	assert.True(t, totals.Expenses.IsZero())
	assert.True(t, totals.Balance.IsZero())
}

func TestMonthlyTotals(t *testing.T) {
	env := newTestEnv()
	svc := newReportService(env)

	addIncome(env, "Salary", 2500, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	env.expenseRepo.AddExpense(newExpense("Rent", "Housing", 700, time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)))
	env.expenseRepo.AddExpense(newExpense("Groceries", "Food", 300, time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC)))
	// Outside the month
	env.expenseRepo.AddExpense(newExpense("April rent", "Housing", 700, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)))
	addIncome(env, "February salary", 2500, time.Date(2024, time.February, 29, 23, 59, 59, 0, time.UTC))

	totals, err := svc.MonthlyTotals(context.Background(), 2024, 3)
	require.NoError(t, err)
	assert.True(t, totals.Income.Equal(decimal.NewFromInt(2500)))
	assert.True(t, totals.Expenses.Equal(decimal.NewFromInt(1000)))
	assert.True(t, totals.Balance.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), totals.Start)
	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond), totals.End)
}

func TestMonthlyTotals_InvalidMonth(t *testing.T) {
	env := newTestEnv()
	svc := newReportService(env)

	_, err := svc.MonthlyTotals(context.Background(), 2024, 13)
	assert.ErrorIs(t, err, domain.ErrInvalidMonth)
	_, err = svc.MonthlyTotals(context.Background(), 2024, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidMonth)
}

func TestPreviousMonthComparison_AcrossYear(t *testing.T) {
	env := newTestEnv()
	svc := newReportService(env)

	addIncome(env, "December salary", 2000, time.Date(2023, time.December, 20, 0, 0, 0, 0, time.UTC))
	env.expenseRepo.AddExpense(newExpense("Gifts", "", 800, time.Date(2023, time.December, 22, 0, 0, 0, 0, time.UTC)))
	addIncome(env, "January salary", 2100, time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC))
	env.expenseRepo.AddExpense(newExpense("Heating", "Housing", 300, time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)))

	comparison, err := svc.PreviousMonthComparison(context.Background(), 2024, 1)
	require.NoError(t, err)
	assert.Equal(t, 2023, comparison.Previous.Year)
	assert.Equal(t, 12, comparison.Previous.Month)
	assert.True(t, comparison.IncomeChange.Equal(decimal.NewFromInt(100)))
	assert.True(t, comparison.ExpenseChange.Equal(decimal.NewFromInt(-500)))
	assert.True(t, comparison.BalanceChange.Equal(decimal.NewFromInt(600)))
}

func TestCategoryBreakdown(t *testing.T) {
	env := newTestEnv()
	svc := newReportService(env)

	env.expenseRepo.AddExpense(newExpense("Lunch", "Food", 40, time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)))
	env.expenseRepo.AddExpense(newExpense("Dinner", "Food", 60, time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)))
	env.expenseRepo.AddExpense(newExpense("Rent", "Housing", 700, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)))
	env.expenseRepo.AddExpense(newExpense("Gift", "", 25, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)))
	env.expenseRepo.AddExpense(newExpense("Bus", "Transport", 5, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)))

	start, end := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
	totals, err := svc.CategoryBreakdown(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, totals, 3)
	assert.Equal(t, "Housing", totals[0].Category)
	assert.Equal(t, "Food", totals[1].Category)
	assert.True(t, totals[1].Total.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 2, totals[1].Count)
	assert.Equal(t, domain.UncategorizedLabel, totals[2].Category)

	_, err = svc.CategoryBreakdown(context.Background(), end, start)
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestCategoryBreakdown_InclusiveEnd(t *testing.T) {
	env := newTestEnv()
	svc := newReportService(env)

	end := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
	env.expenseRepo.AddExpense(newExpense("Last day", "Food", 10, end))

	totals, err := svc.CategoryBreakdown(context.Background(), end.AddDate(0, 0, -7), end)
	require.NoError(t, err)
	require.Len(t, totals, 1)
}

func TestSearchExpenses(t *testing.T) {
	env := newTestEnv()
	svc := newReportService(env)

	notes := "Birthday CAKE for Sam"
	withNotes := newExpense("Bakery", "Food", 30, time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC))
	withNotes.Notes = &notes
	env.expenseRepo.AddExpense(withNotes)
	env.expenseRepo.AddExpense(newExpense("Cake tin", "Shopping", 12, time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC)))
	env.expenseRepo.AddExpense(newExpense("Fuel", "Transport", 50, time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC)))

	results, err := svc.SearchExpenses(context.Background(), "cake")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Cake tin", results[0].Title, "newest first")
	assert.Equal(t, "Bakery", results[1].Title)

	results, err = svc.SearchExpenses(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = svc.SearchExpenses(context.Background(), strings.Repeat("a", domain.MaxSearchQueryLength+1))
	assert.ErrorIs(t, err, domain.ErrSearchQueryTooLong)
}

func TestSearchIncomes(t *testing.T) {
	env := newTestEnv()
	svc := newReportService(env)

	addIncome(env, "Freelance design", 400, time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC))
	addIncome(env, "Salary", 2500, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))

	results, err := svc.SearchIncomes(context.Background(), "DESIGN")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Freelance design", results[0].Description)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv()
	svc := newReportService(env)
	ctx := context.Background()

	createMonthlyLimit(t, env, "Food", 100)
	createMonthlyLimit(t, env, "Transport", 100)
	_, err := env.ledger.CreateExpense(ctx, newExpense("Feast", "Food", 150, testNow))
	require.NoError(t, err)
	_, err = env.ledger.CreateExpense(ctx, newExpense("Taxi", "Transport", 90, testNow))
	require.NoError(t, err)
	addIncome(env, "Salary", 3000, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))

	project, err := env.savings.CreateProject(ctx, newProject("Trip", 1000))
	require.NoError(t, err)
	_, err = env.savings.AddTransaction(ctx, project.ID, decimal.NewFromInt(400), testNow, nil)
	require.NoError(t, err)

	days := int32(30)
	env.incomeRepo.AddIncome(&domain.Income{
		Description:            "Rent from tenant",
		Amount:                 decimal.NewFromInt(800),
		Date:                   time.Date(2024, time.February, 17, 0, 0, 0, 0, time.UTC),
		IsRecurring:            true,
		RecurringFrequencyDays: &days,
	})

	dashboard, err := svc.Dashboard(ctx, testNow)
	require.NoError(t, err)
	assert.True(t, dashboard.Month.Current.Income.Equal(decimal.NewFromInt(3000)))
	assert.True(t, dashboard.Month.Current.Expenses.Equal(decimal.NewFromInt(240)))
	require.Len(t, dashboard.ExceededLimits, 1)
	assert.Equal(t, "Food", dashboard.ExceededLimits[0].Category)
	require.Len(t, dashboard.NearLimits, 1)
	assert.Equal(t, "Transport", dashboard.NearLimits[0].Category)
	require.Len(t, dashboard.Savings, 1)
	assert.True(t, dashboard.Savings[0].Progress.Equal(decimal.NewFromFloat(0.4)))
	require.Len(t, dashboard.UpcomingIncomes, 1)
	assert.Equal(t, 3, dashboard.UpcomingIncomes[0].DaysUntil)
}

func TestMonthlyTotals_TwoIncomesTwoExpenses(t *testing.T) {
	env := newTestEnv()
	svc := newReportService(env)

	addIncome(env, "Salary", 2000, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	addIncome(env, "Side job", 500, time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC))
	env.expenseRepo.AddExpense(newExpense("Rent", "Housing", 800, time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)))
	env.expenseRepo.AddExpense(newExpense("Groceries", "Food", 200, time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC)))

	totals, err := svc.MonthlyTotals(context.Background(), 2024, 3)
	require.NoError(t, err)
	assert.True(t, totals.Income.Equal(decimal.NewFromInt(2500)))
	assert.True(t, totals.Expenses.Equal(decimal.NewFromInt(1000)))
	assert.True(t, totals.Balance.Equal(decimal.NewFromInt(1500)))
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recurringIncome(description string, amount int64, date time.Time, everyDays int32) *domain.Income {
	return &domain.Income{
		Description:            description,
		Amount:                 decimal.NewFromInt(amount),
		Type:                   "Salary",
		Date:                   date,
		IsRecurring:            true,
		RecurringFrequencyDays: &everyDays,
	}
}

func TestCalculateNextOccurrence(t *testing.T) {
	env := newTestEnv()
	jan1 := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	income := recurringIncome("Salary", 3000, jan1, 30)

	tests := []struct {
		name  string
		after time.Time
		want  time.Time
	}{
		{"before the income date", jan1.AddDate(0, 0, -10), time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)},
		{"on the income date", jan1, time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)},
		{"exactly on an occurrence", time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC), time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)},
		{"between occurrences", time.Date(2024, time.February, 10, 8, 0, 0, 0, time.UTC), time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := env.incomes.CalculateNextOccurrence(income, tt.after)
			require.NotNil(t, next)
			assert.Equal(t, tt.want, *next)
		})
	}

	t.Run("not recurring", func(t *testing.T) {
		once := &domain.Income{Description: "Bonus", Amount: decimal.NewFromInt(100), Date: jan1}
		assert.Nil(t, env.incomes.CalculateNextOccurrence(once, jan1))
	})
}

func TestCreateIncome_SchedulesRecurring(t *testing.T) {
	env := newTestEnv()

	income := recurringIncome("Allowance", 200, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), 14)
	income.Type = "salary"

	created, err := env.incomes.CreateIncome(context.Background(), income)
	require.NoError(t, err)
	assert.Equal(t, "Salary", created.Type)
	require.NotNil(t, created.NextOccurrence)
	assert.Equal(t, time.Date(2024, time.March, 29, 0, 0, 0, 0, time.UTC), *created.NextOccurrence)
}

func TestCreateIncome_Validation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	unknown := &domain.Income{Description: "Prize", Amount: decimal.NewFromInt(50), Type: "Lottery", Date: testNow}
	_, err := env.incomes.CreateIncome(ctx, unknown)
	assert.ErrorIs(t, err, domain.ErrUnknownIncomeType)

	days := int32(7)
	inconsistent := &domain.Income{Description: "Tips", Amount: decimal.NewFromInt(5), Date: testNow, RecurringFrequencyDays: &days}
	_, err = env.incomes.CreateIncome(ctx, inconsistent)
	assert.ErrorIs(t, err, domain.ErrInvalidRecurrence)

	empty := &domain.Income{Description: " ", Amount: decimal.NewFromInt(5), Date: testNow}
	_, err = env.incomes.CreateIncome(ctx, empty)
	assert.ErrorIs(t, err, domain.ErrTitleRequired)

	assert.Empty(t, env.incomeRepo.Incomes)
}

func TestUpdateIncome_ClearsScheduleWhenNoLongerRecurring(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created, err := env.incomes.CreateIncome(ctx, recurringIncome("Rent", 500, testNow, 30))
	require.NoError(t, err)
	require.NotNil(t, created.NextOccurrence)

	changed := &domain.Income{ID: created.ID, Description: "Rent", Amount: decimal.NewFromInt(500), Date: testNow}
	updated, err := env.incomes.UpdateIncome(ctx, changed)
	require.NoError(t, err)
	assert.Nil(t, updated.NextOccurrence)
}

func TestDeleteIncome(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created, err := env.incomes.CreateIncome(ctx, &domain.Income{Description: "Refund", Amount: decimal.NewFromInt(20), Date: testNow})
	require.NoError(t, err)

	require.NoError(t, env.incomes.DeleteIncome(ctx, created.ID))
	_, err = env.incomes.GetIncome(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrIncomeNotFound)
}

func TestGetUpcomingRecurringIncomes(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	soon := recurringIncome("Soon", 100, time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC), 14)
	next := time.Date(2024, time.March, 16, 0, 0, 0, 0, time.UTC)
	soon.NextOccurrence = &next
	env.incomeRepo.AddIncome(soon)

	later := recurringIncome("Later", 100, time.Date(2024, time.February, 24, 0, 0, 0, 0, time.UTC), 30)
	laterNext := time.Date(2024, time.March, 25, 0, 0, 0, 0, time.UTC)
	later.NextOccurrence = &laterNext
	env.incomeRepo.AddIncome(later)

	today := recurringIncome("Today", 100, time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC), 7)
	todayNext := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	today.NextOccurrence = &todayNext
	env.incomeRepo.AddIncome(today)

	env.incomeRepo.AddIncome(&domain.Income{Description: "One-off", Amount: decimal.NewFromInt(100), Date: time.Date(2024, time.March, 16, 0, 0, 0, 0, time.UTC)})

	upcoming, err := env.incomes.GetUpcomingRecurringIncomes(ctx, testNow, 7)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "Today", upcoming[0].Income.Description)
	assert.Equal(t, 0, upcoming[0].DaysUntil)
	assert.Equal(t, "Soon", upcoming[1].Income.Description)
	assert.Equal(t, 1, upcoming[1].DaysUntil)
}

func TestAdvancePastOccurrences(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	stale := recurringIncome("Stale", 100, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), 28)
	staleNext := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
	stale.NextOccurrence = &staleNext
	env.incomeRepo.AddIncome(stale)

	fresh := recurringIncome("Fresh", 100, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), 10)
	freshNext := time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)
	fresh.NextOccurrence = &freshNext
	env.incomeRepo.AddIncome(fresh)

	moved, err := env.incomes.AdvancePastOccurrences(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	stored, err := env.incomes.GetIncome(ctx, stale.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.NextOccurrence)
	assert.Equal(t, time.Date(2024, time.March, 28, 0, 0, 0, 0, time.UTC), *stored.NextOccurrence)

	untouched, err := env.incomes.GetIncome(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, freshNext, *untouched.NextOccurrence)
}

func TestIncomeReminderMessage(t *testing.T) {
	income := &domain.Income{Description: "Salary", Amount: decimal.NewFromFloat(2500.5)}

	assert.Equal(t, "Salary of 2500.50 expected today", IncomeReminderMessage(&domain.UpcomingIncome{Income: income, DaysUntil: 0}))
	assert.Equal(t, "Salary of 2500.50 expected tomorrow", IncomeReminderMessage(&domain.UpcomingIncome{Income: income, DaysUntil: 1}))
	assert.Equal(t, "Salary of 2500.50 expected in 3 days", IncomeReminderMessage(&domain.UpcomingIncome{Income: income, DaysUntil: 3}))
}

func TestSearchIncomes_TooLong(t *testing.T) {
	env := newTestEnv()

	query := make([]byte, domain.MaxSearchQueryLength+1)
	for i := range query {
		query[i] = 'x'
	}
	_, err := env.incomes.SearchIncomes(context.Background(), string(query))
	assert.ErrorIs(t, err, domain.ErrSearchQueryTooLong)
}

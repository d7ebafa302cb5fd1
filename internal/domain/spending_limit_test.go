package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSpendingLimit_Window(t *testing.T) {
	limit := &SpendingLimit{
		Category:  "Food",
		Amount:    decimal.NewFromInt(100),
		StartDate: date(2024, 3, 1),
		Frequency: FrequencyMonthly,
	}

	assert.Equal(t, date(2024, 4, 1), limit.PeriodEnd())
	assert.True(t, limit.Contains(date(2024, 3, 1)))
	assert.True(t, limit.Contains(date(2024, 3, 31)))
	assert.False(t, limit.Contains(date(2024, 4, 1)))
	assert.False(t, limit.Contains(date(2024, 2, 29)))

	assert.False(t, limit.IsExpired(date(2024, 3, 31)))
	assert.True(t, limit.IsExpired(date(2024, 4, 1)))
}

func TestSpendingLimit_IsExceeded(t *testing.T) {
	limit := &SpendingLimit{Amount: decimal.NewFromInt(50), CurrentAmount: decimal.NewFromInt(49)}
	assert.False(t, limit.IsExceeded())
	assert.Equal(t, "1", limit.Remaining().String())

	limit.CurrentAmount = decimal.NewFromInt(50)
	assert.True(t, limit.IsExceeded())

	limit.CurrentAmount = decimal.NewFromInt(60)
	assert.True(t, limit.IsExceeded())
	assert.Equal(t, "-10", limit.Remaining().String())
}

func TestSpendingLimit_UsageRatio(t *testing.T) {
	limit := &SpendingLimit{Amount: decimal.NewFromInt(200), CurrentAmount: decimal.NewFromInt(50)}
	assert.True(t, limit.UsageRatio().Equal(decimal.NewFromFloat(0.25)))

	zero := &SpendingLimit{Amount: decimal.Zero}
	assert.True(t, zero.UsageRatio().Equal(decimal.NewFromInt(1)))
}

func TestSpendingLimit_Validate(t *testing.T) {
	days := int32(14)

	valid := &SpendingLimit{Amount: decimal.Zero, StartDate: date(2024, 1, 1), Frequency: FrequencyCustom, PeriodDays: &days}
	assert.NoError(t, valid.Validate())

	negative := &SpendingLimit{Amount: decimal.NewFromInt(-1), StartDate: date(2024, 1, 1), Frequency: FrequencyDaily}
	assert.ErrorIs(t, negative.Validate(), ErrNegativeAmount)

	noDays := &SpendingLimit{Amount: decimal.NewFromInt(1), StartDate: date(2024, 1, 1), Frequency: FrequencyCustom}
	assert.ErrorIs(t, noDays.Validate(), ErrInvalidPeriodDays)
}

func TestSavingsProject_Progress(t *testing.T) {
	tests := []struct {
		name    string
		current int64
		target  int64
		want    decimal.Decimal
	}{
		{"empty", 0, 100, decimal.Zero},
		{"half", 50, 100, decimal.NewFromFloat(0.5)},
		{"complete", 100, 100, decimal.NewFromInt(1)},
		{"over target clamps", 250, 100, decimal.NewFromInt(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &SavingsProject{CurrentAmount: decimal.NewFromInt(tt.current), TargetAmount: decimal.NewFromInt(tt.target)}
			assert.True(t, tt.want.Equal(p.Progress()), "got %s", p.Progress())
		})
	}
}

func TestSavingsProject_Validate(t *testing.T) {
	base := func() *SavingsProject {
		return &SavingsProject{
			Title:        "  Holiday ",
			TargetAmount: decimal.NewFromInt(1000),
			StartDate:    date(2024, 1, 1),
			Deadline:     date(2024, 12, 31),
			Frequency:    FrequencyMonthly,
		}
	}

	p := base()
	assert.NoError(t, p.Validate())
	assert.Equal(t, "Holiday", p.Title)

	p = base()
	p.TargetAmount = decimal.Zero
	assert.ErrorIs(t, p.Validate(), ErrInvalidTarget)

	p = base()
	p.Deadline = date(2023, 12, 31)
	assert.ErrorIs(t, p.Validate(), ErrInvalidDateRange)

	p = base()
	p.Frequency = FrequencyCustom
	assert.ErrorIs(t, p.Validate(), ErrInvalidFrequency)
}

func TestSavingsProject_NextContribution(t *testing.T) {
	p := &SavingsProject{StartDate: date(2024, 1, 10), Frequency: FrequencyWeekly}

	assert.Equal(t, date(2024, 1, 17), p.NextContribution(nil))

	last := date(2024, 2, 1)
	assert.Equal(t, date(2024, 2, 8), p.NextContribution(&last))
}

func TestExpense_Validate(t *testing.T) {
	days := int32(30)

	e := &Expense{Title: "Lunch", Amount: decimal.NewFromInt(12), Date: date(2024, 5, 1)}
	assert.NoError(t, e.Validate())

	e = &Expense{Title: "Lunch", Amount: decimal.Zero, Date: date(2024, 5, 1)}
	assert.ErrorIs(t, e.Validate(), ErrInvalidAmount)

	e = &Expense{Title: " ", Amount: decimal.NewFromInt(1), Date: date(2024, 5, 1)}
	assert.ErrorIs(t, e.Validate(), ErrTitleRequired)

	e = &Expense{Title: "Rent", Amount: decimal.NewFromInt(900), Date: date(2024, 5, 1), IsRecurring: true}
	assert.ErrorIs(t, e.Validate(), ErrInvalidRecurrence)

	e.RecurringFrequencyDays = &days
	assert.NoError(t, e.Validate())
}

func TestIncome_Validate_NextOccurrence(t *testing.T) {
	days := int32(30)
	before := date(2024, 4, 1)
	after := date(2024, 5, 31)

	i := &Income{Description: "Salary", Amount: decimal.NewFromInt(3000), Type: "Salary", Date: date(2024, 5, 1), IsRecurring: true, RecurringFrequencyDays: &days, NextOccurrence: &after}
	assert.NoError(t, i.Validate())

	i.NextOccurrence = &before
	assert.ErrorIs(t, i.Validate(), ErrInvalidRecurrence)

	single := &Income{Description: "Gift", Amount: decimal.NewFromInt(50), Date: date(2024, 5, 1), NextOccurrence: &after}
	assert.ErrorIs(t, single.Validate(), ErrInvalidRecurrence)
}

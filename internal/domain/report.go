package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyTotals holds income and expense sums of one calendar month
type MonthlyTotals struct {
	Year     int             `json:"year"`
	Month    int             `json:"month"`
	Start    time.Time       `json:"start"`
	End      time.Time       `json:"end"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Balance  decimal.Decimal `json:"balance"`
}

// MonthComparison compares a month with the one before it
type MonthComparison struct {
	Current       MonthlyTotals   `json:"current"`
	Previous      MonthlyTotals   `json:"previous"`
	IncomeChange  decimal.Decimal `json:"incomeChange"`
	ExpenseChange decimal.Decimal `json:"expenseChange"`
	BalanceChange decimal.Decimal `json:"balanceChange"`
}

// UncategorizedLabel names expenses without a category in breakdowns
const UncategorizedLabel = "Uncategorized"

// SavingsProgress summarises one savings project
type SavingsProgress struct {
	Project  *SavingsProject `json:"project"`
	Progress decimal.Decimal `json:"progress"`
}

// UpcomingIncome is a recurring income due soon
type UpcomingIncome struct {
	Income    *Income   `json:"income"`
	DueDate   time.Time `json:"dueDate"`
	DaysUntil int       `json:"daysUntil"`
}

// ContributionDue is a savings project whose next contribution is due soon
type ContributionDue struct {
	Project   *SavingsProject `json:"project"`
	DueDate   time.Time       `json:"dueDate"`
	DaysUntil int             `json:"daysUntil"`
}

// Dashboard is the overview shown on the home screen
type Dashboard struct {
	Month           MonthComparison    `json:"month"`
	ExceededLimits  []*SpendingLimit   `json:"exceededLimits"`
	NearLimits      []*SpendingLimit   `json:"nearLimits"`
	Savings         []*SavingsProgress `json:"savings"`
	UpcomingIncomes []*UpcomingIncome  `json:"upcomingIncomes"`
}

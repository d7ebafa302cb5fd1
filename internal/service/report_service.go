package service

import (
	"context"
	"strings"
	"time"

	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/ledgerly/ledgerly-backend/internal/util"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultUpcomingIncomeDays is the dashboard's look-ahead for recurring incomes
const DefaultUpcomingIncomeDays = 7

// ReportService aggregates ledger data for a period. It only reads.
type ReportService struct {
	expenseRepo    domain.ExpenseRepository
	incomeRepo     domain.IncomeRepository
	limitService   *SpendingLimitService
	savingsService *SavingsService
	incomeService  *IncomeService
	nearLimitRatio decimal.Decimal
}

// NewReportService creates a new ReportService
func NewReportService(
	expenseRepo domain.ExpenseRepository,
	incomeRepo domain.IncomeRepository,
	limitService *SpendingLimitService,
	savingsService *SavingsService,
	incomeService *IncomeService,
) *ReportService {
	return &ReportService{
		expenseRepo:    expenseRepo,
		incomeRepo:     incomeRepo,
		limitService:   limitService,
		savingsService: savingsService,
		incomeService:  incomeService,
		nearLimitRatio: DefaultNearLimitRatio,
	}
}

// SetNearLimitRatio sets the usage ratio the dashboard uses for near limits
func (s *ReportService) SetNearLimitRatio(ratio decimal.Decimal) {
	s.nearLimitRatio = ratio
}

// MonthlyTotals sums incomes and expenses dated from the first instant of
// the month through its last instant.
func (s *ReportService) MonthlyTotals(ctx context.Context, year, month int) (*domain.MonthlyTotals, error) {
	if !util.ValidMonth(year, month) {
		return nil, domain.ErrInvalidMonth
	}
	start, end := util.MonthBoundaries(year, month)
	// Repositories take half-open ranges
	until := end.Add(time.Nanosecond)

	income, err := s.incomeRepo.SumByDateRange(ctx, start, until)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenseRepo.SumByDateRange(ctx, start, until)
	if err != nil {
		return nil, err
	}

	return &domain.MonthlyTotals{
		Year:     year,
		Month:    month,
		Start:    start,
		End:      end,
		Income:   income,
		Expenses: expenses,
		Balance:  income.Sub(expenses),
	}, nil
}

// PreviousMonthComparison returns the totals of a month and of the month
// before it, with current minus previous deltas.
func (s *ReportService) PreviousMonthComparison(ctx context.Context, year, month int) (*domain.MonthComparison, error) {
	current, err := s.MonthlyTotals(ctx, year, month)
	if err != nil {
		return nil, err
	}
	prevYear, prevMonth := util.PreviousMonth(year, month)
	previous, err := s.MonthlyTotals(ctx, prevYear, prevMonth)
	if err != nil {
		return nil, err
	}

	return &domain.MonthComparison{
		Current:       *current,
		Previous:      *previous,
		IncomeChange:  current.Income.Sub(previous.Income),
		ExpenseChange: current.Expenses.Sub(previous.Expenses),
		BalanceChange: current.Balance.Sub(previous.Balance),
	}, nil
}

// CategoryBreakdown sums expenses per category for [start, end], largest
// first. Categories without expenses are left out.
func (s *ReportService) CategoryBreakdown(ctx context.Context, start, end time.Time) ([]*domain.CategoryTotal, error) {
	if end.Before(start) {
		return nil, domain.ErrInvalidDateRange
	}
	totals, err := s.expenseRepo.SumGroupedByCategory(ctx, start.UTC(), end.UTC().Add(time.Nanosecond))
	if err != nil {
		return nil, err
	}
	for _, t := range totals {
		if t.Category == "" {
			t.Category = domain.UncategorizedLabel
		}
	}
	return totals, nil
}

// SearchExpenses matches title and notes ignoring case, newest first
func (s *ReportService) SearchExpenses(ctx context.Context, query string) ([]*domain.Expense, error) {
	query = strings.TrimSpace(query)
	if len(query) > domain.MaxSearchQueryLength {
		return nil, domain.ErrSearchQueryTooLong
	}
	if query == "" {
		return []*domain.Expense{}, nil
	}
	return s.expenseRepo.Search(ctx, query)
}

// SearchIncomes matches income descriptions ignoring case, newest first
func (s *ReportService) SearchIncomes(ctx context.Context, query string) ([]*domain.Income, error) {
	return s.incomeService.SearchIncomes(ctx, query)
}

// Dashboard collects the overview for the month containing now. The
// sections are read concurrently.
func (s *ReportService) Dashboard(ctx context.Context, now time.Time) (*domain.Dashboard, error) {
	now = now.UTC()
	dashboard := &domain.Dashboard{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		comparison, err := s.PreviousMonthComparison(gctx, now.Year(), int(now.Month()))
		if err != nil {
			return err
		}
		dashboard.Month = *comparison
		return nil
	})
	g.Go(func() error {
		exceeded, err := s.limitService.GetExceededLimits(gctx)
		if err != nil {
			return err
		}
		dashboard.ExceededLimits = exceeded
		return nil
	})
	g.Go(func() error {
		near, err := s.limitService.GetNearLimits(gctx, s.nearLimitRatio)
		if err != nil {
			return err
		}
		dashboard.NearLimits = near
		return nil
	})
	g.Go(func() error {
		savings, err := s.savingsService.ListProgress(gctx)
		if err != nil {
			return err
		}
		dashboard.Savings = savings
		return nil
	})
	g.Go(func() error {
		upcoming, err := s.incomeService.GetUpcomingRecurringIncomes(gctx, now, DefaultUpcomingIncomeDays)
		if err != nil {
			return err
		}
		dashboard.UpcomingIncomes = upcoming
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dashboard, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/ledgerly/ledgerly-backend/internal/util"
	"github.com/ledgerly/ledgerly-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// IncomeService stores incomes and schedules recurring ones
type IncomeService struct {
	incomeRepo     domain.IncomeRepository
	incomeTypeRepo domain.IncomeTypeRepository
	eventPublisher websocket.EventPublisher
	logger         zerolog.Logger
	now            func() time.Time
}

// NewIncomeService creates a new IncomeService
func NewIncomeService(
	incomeRepo domain.IncomeRepository,
	incomeTypeRepo domain.IncomeTypeRepository,
	logger zerolog.Logger,
) *IncomeService {
	return &IncomeService{
		incomeRepo:     incomeRepo,
		incomeTypeRepo: incomeTypeRepo,
		logger:         logger.With().Str("component", "incomes").Logger(),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *IncomeService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock replaces the time source used to schedule occurrences
func (s *IncomeService) SetClock(now func() time.Time) {
	s.now = now
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *IncomeService) publishEvent(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

// CalculateNextOccurrence returns the first date+k*frequency (k >= 1) that
// is strictly after both the income date and after. Non-recurring incomes
// have no next occurrence.
func (s *IncomeService) CalculateNextOccurrence(income *domain.Income, after time.Time) *time.Time {
	if !income.IsRecurring || income.RecurringFrequencyDays == nil || *income.RecurringFrequencyDays <= 0 {
		return nil
	}
	step := int(*income.RecurringFrequencyDays)

	k := 1
	if after.After(income.Date) {
		elapsed := int(after.Sub(income.Date) / (24 * time.Hour))
		k = elapsed/step + 1
	}
	next := income.Date.AddDate(0, 0, k*step)
	for !next.After(after) {
		k++
		next = income.Date.AddDate(0, 0, k*step)
	}
	return &next
}

func (s *IncomeService) canonicalType(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}
	incomeType, err := s.incomeTypeRepo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrIncomeTypeNotFound) {
			return "", domain.ErrUnknownIncomeType
		}
		return "", err
	}
	return incomeType.Name, nil
}

func (s *IncomeService) prepare(ctx context.Context, income *domain.Income) error {
	income.Date = income.Date.UTC()
	income.NextOccurrence = nil
	if err := income.Validate(); err != nil {
		return err
	}
	incomeType, err := s.canonicalType(ctx, income.Type)
	if err != nil {
		return err
	}
	income.Type = incomeType
	income.NextOccurrence = s.CalculateNextOccurrence(income, s.now())
	return nil
}

// CreateIncome validates and stores a new income
func (s *IncomeService) CreateIncome(ctx context.Context, income *domain.Income) (*domain.Income, error) {
	if err := s.prepare(ctx, income); err != nil {
		return nil, err
	}
	created, err := s.incomeRepo.Create(ctx, income)
	if err != nil {
		return nil, err
	}
	s.publishEvent(websocket.IncomeCreated(created))
	return created, nil
}

// GetIncome retrieves an income by ID
func (s *IncomeService) GetIncome(ctx context.Context, id int32) (*domain.Income, error) {
	return s.incomeRepo.GetByID(ctx, id)
}

// UpdateIncome replaces an income and reschedules it
func (s *IncomeService) UpdateIncome(ctx context.Context, income *domain.Income) (*domain.Income, error) {
	if err := s.prepare(ctx, income); err != nil {
		return nil, err
	}
	updated, err := s.incomeRepo.Update(ctx, income)
	if err != nil {
		return nil, err
	}
	s.publishEvent(websocket.IncomeUpdated(updated))
	return updated, nil
}

// DeleteIncome deletes an income
func (s *IncomeService) DeleteIncome(ctx context.Context, id int32) error {
	if err := s.incomeRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.publishEvent(websocket.IncomeDeleted(map[string]int32{"id": id}))
	return nil
}

// ListIncomes returns incomes dated in [start, end), newest first
func (s *IncomeService) ListIncomes(ctx context.Context, start, end time.Time) ([]*domain.Income, error) {
	if end.Before(start) {
		return nil, domain.ErrInvalidDateRange
	}
	return s.incomeRepo.ListByDateRange(ctx, start.UTC(), end.UTC())
}

// SearchIncomes matches descriptions ignoring case, newest first
func (s *IncomeService) SearchIncomes(ctx context.Context, query string) ([]*domain.Income, error) {
	query = strings.TrimSpace(query)
	if len(query) > domain.MaxSearchQueryLength {
		return nil, domain.ErrSearchQueryTooLong
	}
	if query == "" {
		return []*domain.Income{}, nil
	}
	return s.incomeRepo.Search(ctx, query)
}

// GetUpcomingRecurringIncomes returns recurring incomes whose next
// occurrence lies within withinDays of now, soonest first. Stale next
// occurrences are projected forward without being stored.
func (s *IncomeService) GetUpcomingRecurringIncomes(ctx context.Context, now time.Time, withinDays int) ([]*domain.UpcomingIncome, error) {
	incomes, err := s.incomeRepo.ListRecurring(ctx)
	if err != nil {
		return nil, err
	}

	today := util.StartOfDay(now)
	horizon := today.AddDate(0, 0, withinDays+1)
	upcoming := make([]*domain.UpcomingIncome, 0)
	for _, income := range incomes {
		next := income.NextOccurrence
		if next == nil || next.Before(today) {
			next = s.CalculateNextOccurrence(income, today.Add(-time.Nanosecond))
		}
		if next == nil || next.Before(today) || !next.Before(horizon) {
			continue
		}
		upcoming = append(upcoming, &domain.UpcomingIncome{
			Income:    income,
			DueDate:   *next,
			DaysUntil: util.DaysBetween(today, *next),
		})
	}
	sortUpcoming(upcoming)
	return upcoming, nil
}

func sortUpcoming(upcoming []*domain.UpcomingIncome) {
	for i := 1; i < len(upcoming); i++ {
		for j := i; j > 0 && upcoming[j].DueDate.Before(upcoming[j-1].DueDate); j-- {
			upcoming[j], upcoming[j-1] = upcoming[j-1], upcoming[j]
		}
	}
}

// AdvancePastOccurrences moves next occurrences that lie before today
// forward and returns how many incomes were moved.
func (s *IncomeService) AdvancePastOccurrences(ctx context.Context, now time.Time) (int, error) {
	incomes, err := s.incomeRepo.ListRecurring(ctx)
	if err != nil {
		return 0, err
	}

	today := util.StartOfDay(now)
	moved := 0
	for _, income := range incomes {
		if income.NextOccurrence != nil && !income.NextOccurrence.Before(today) {
			continue
		}
		next := s.CalculateNextOccurrence(income, today.Add(-time.Nanosecond))
		if next == nil {
			continue
		}
		if err := s.incomeRepo.UpdateNextOccurrence(ctx, income.ID, next); err != nil {
			return moved, err
		}
		moved++
	}
	if moved > 0 {
		s.logger.Debug().Int("moved", moved).Msg("Advanced recurring incomes")
	}
	return moved, nil
}

// IncomeReminderMessage describes an upcoming income for a reminder
func IncomeReminderMessage(u *domain.UpcomingIncome) string {
	amount := u.Income.Amount.StringFixed(2)
	switch u.DaysUntil {
	case 0:
		return fmt.Sprintf("%s of %s expected today", u.Income.Description, amount)
	case 1:
		return fmt.Sprintf("%s of %s expected tomorrow", u.Income.Description, amount)
	}
	return fmt.Sprintf("%s of %s expected in %d days", u.Income.Description, amount, u.DaysUntil)
}

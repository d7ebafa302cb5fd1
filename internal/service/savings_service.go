package service

import (
	"context"
	"iter"
	"sort"
	"strings"
	"time"

	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/ledgerly/ledgerly-backend/internal/util"
	"github.com/ledgerly/ledgerly-backend/internal/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// savingsPageSize is how many transactions GetProjectTransactions fetches per query
const savingsPageSize = 50

// SavingsService keeps each project's current amount equal to the sum of
// its transactions. Transaction writes to one project are serialized.
type SavingsService struct {
	savingsRepo    domain.SavingsRepository
	eventPublisher websocket.EventPublisher
	logger         zerolog.Logger
	locks          *keyedMutex[int32]
	pageSize       int
}

// NewSavingsService creates a new SavingsService
func NewSavingsService(savingsRepo domain.SavingsRepository, logger zerolog.Logger) *SavingsService {
	return &SavingsService{
		savingsRepo: savingsRepo,
		logger:      logger.With().Str("component", "savings").Logger(),
		locks:       newKeyedMutex[int32](),
		pageSize:    savingsPageSize,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *SavingsService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *SavingsService) publishEvent(event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(event)
	}
}

func normalizeProject(project *domain.SavingsProject) {
	project.Title = strings.TrimSpace(project.Title)
	project.Frequency = domain.Frequency(strings.ToLower(string(project.Frequency)))
	project.StartDate = project.StartDate.UTC()
	project.Deadline = project.Deadline.UTC()
}

// CreateProject creates a savings project with nothing saved yet
func (s *SavingsService) CreateProject(ctx context.Context, project *domain.SavingsProject) (*domain.SavingsProject, error) {
	normalizeProject(project)
	if err := project.Validate(); err != nil {
		return nil, err
	}
	project.CurrentAmount = decimal.Zero

	created, err := s.savingsRepo.CreateProject(ctx, project)
	if err != nil {
		return nil, err
	}
	s.publishEvent(websocket.SavingsProjectUpdated(created))
	return created, nil
}

// UpdateProject changes a project's descriptive fields; the saved amount is kept
func (s *SavingsService) UpdateProject(ctx context.Context, project *domain.SavingsProject) (*domain.SavingsProject, error) {
	normalizeProject(project)
	if err := project.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(project.ID)
	defer unlock()

	updated, err := s.savingsRepo.UpdateProject(ctx, project)
	if err != nil {
		return nil, err
	}
	s.publishEvent(websocket.SavingsProjectUpdated(updated))
	return updated, nil
}

// GetProject retrieves a project by ID
func (s *SavingsService) GetProject(ctx context.Context, id int32) (*domain.SavingsProject, error) {
	return s.savingsRepo.GetProject(ctx, id)
}

// ListProjects returns all projects ordered by deadline
func (s *SavingsService) ListProjects(ctx context.Context) ([]*domain.SavingsProject, error) {
	return s.savingsRepo.ListProjects(ctx)
}

// DeleteProject deletes a project together with all of its transactions
func (s *SavingsService) DeleteProject(ctx context.Context, id int32) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.savingsRepo.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int32("project_id", id).Msg("Deleted savings project and its transactions")
	s.publishEvent(websocket.SavingsProjectDeleted(map[string]int32{"id": id}))
	return nil
}

// AddTransaction records a deposit. The project must exist.
func (s *SavingsService) AddTransaction(ctx context.Context, projectID int32, amount decimal.Decimal, date time.Time, note *string) (*domain.SavingsTransaction, error) {
	if note != nil {
		trimmed := strings.TrimSpace(*note)
		note = &trimmed
		if trimmed == "" {
			note = nil
		}
	}
	tx := &domain.SavingsTransaction{
		ProjectID: projectID,
		Amount:    amount,
		Date:      date.UTC(),
		Note:      note,
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(projectID)
	defer unlock()

	created, err := s.savingsRepo.AddTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	s.publishEvent(websocket.SavingsTransactionCreated(created))
	return created, nil
}

// RemoveTransaction subtracts a transaction from its project and deletes it
func (s *SavingsService) RemoveTransaction(ctx context.Context, transactionID int32) error {
	tx, err := s.savingsRepo.GetTransaction(ctx, transactionID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(tx.ProjectID)
	defer unlock()

	removed, err := s.savingsRepo.RemoveTransaction(ctx, transactionID)
	if err != nil {
		return err
	}
	s.publishEvent(websocket.SavingsTransactionDeleted(removed))
	return nil
}

// GetProgress returns the saved share of the target, clamped to [0, 1]
func (s *SavingsService) GetProgress(ctx context.Context, projectID int32) (decimal.Decimal, error) {
	project, err := s.savingsRepo.GetProject(ctx, projectID)
	if err != nil {
		return decimal.Zero, err
	}
	return project.Progress(), nil
}

// ListProgress returns the progress of every project
func (s *SavingsService) ListProgress(ctx context.Context) ([]*domain.SavingsProgress, error) {
	projects, err := s.savingsRepo.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.SavingsProgress, 0, len(projects))
	for _, p := range projects {
		result = append(result, &domain.SavingsProgress{Project: p, Progress: p.Progress()})
	}
	return result, nil
}

// GetProjectTransactions returns the project's transactions ordered by date.
// The sequence is lazy: pages are fetched as it is consumed, and ranging
// over it again starts a fresh read. A fetch error is yielded once and ends
// the sequence. A missing project yields an empty sequence.
func (s *SavingsService) GetProjectTransactions(ctx context.Context, projectID int32) iter.Seq2[*domain.SavingsTransaction, error] {
	return func(yield func(*domain.SavingsTransaction, error) bool) {
		var cursor *domain.SavingsTransactionCursor
		for {
			page, err := s.savingsRepo.ListTransactionsPage(ctx, projectID, cursor, s.pageSize)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, tx := range page {
				if !yield(tx, nil) {
					return
				}
			}
			if len(page) < s.pageSize {
				return
			}
			last := page[len(page)-1]
			cursor = &domain.SavingsTransactionCursor{Date: last.Date, ID: last.ID}
		}
	}
}

// RecomputeAll rebuilds every project's current amount from its transactions
func (s *SavingsService) RecomputeAll(ctx context.Context) error {
	if err := s.savingsRepo.RecomputeCurrentAmounts(ctx); err != nil {
		return err
	}
	s.logger.Info().Msg("Recomputed savings projects")
	return nil
}

// GetDueContributions returns open projects whose next contribution falls
// within leadDays of now, soonest first. A project is open while it is
// below its target and its deadline has not passed.
func (s *SavingsService) GetDueContributions(ctx context.Context, now time.Time, leadDays int) ([]*domain.ContributionDue, error) {
	projects, err := s.savingsRepo.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	today := util.StartOfDay(now)
	due := make([]*domain.ContributionDue, 0)
	for _, p := range projects {
		if p.IsCompleted() || p.Deadline.Before(today) {
			continue
		}
		last, err := s.savingsRepo.LastTransactionDate(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		next := p.NextContribution(last)
		if next.After(p.Deadline) {
			next = p.Deadline
		}
		days := util.DaysBetween(today, util.StartOfDay(next))
		if days < 0 || days > leadDays {
			continue
		}
		due = append(due, &domain.ContributionDue{Project: p, DueDate: next, DaysUntil: days})
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].DueDate.Before(due[j].DueDate) })
	return due, nil
}

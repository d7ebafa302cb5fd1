package testutil

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ledgerly/ledgerly-backend/internal/domain"
	"github.com/ledgerly/ledgerly-backend/internal/repository/storage"
	"github.com/shopspring/decimal"
)

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// MockExpenseRepository is a mock implementation of domain.ExpenseRepository
type MockExpenseRepository struct {
	mu       sync.Mutex
	Expenses map[int32]*domain.Expense
	NextID   int32
	CreateFn func(expense *domain.Expense) (*domain.Expense, error)
	DeleteFn func(id int32) error
}

// NewMockExpenseRepository creates a new MockExpenseRepository
func NewMockExpenseRepository() *MockExpenseRepository {
	return &MockExpenseRepository{
		Expenses: make(map[int32]*domain.Expense),
		NextID:   1,
	}
}

// Create stores a new expense
func (m *MockExpenseRepository) Create(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	if m.CreateFn != nil {
		return m.CreateFn(expense)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := *expense
	e.ID = m.NextID
	m.NextID++
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	m.Expenses[e.ID] = &e
	out := e
	return &out, nil
}

// GetByID retrieves an expense by ID
func (m *MockExpenseRepository) GetByID(ctx context.Context, id int32) (*domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Expenses[id]
	if !ok {
		return nil, domain.ErrExpenseNotFound
	}
	out := *e
	return &out, nil
}

// Update replaces an existing expense
func (m *MockExpenseRepository) Update(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Expenses[expense.ID]
	if !ok {
		return nil, domain.ErrExpenseNotFound
	}
	e := *expense
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = time.Now()
	m.Expenses[e.ID] = &e
	out := e
	return &out, nil
}

// Delete removes an expense
func (m *MockExpenseRepository) Delete(ctx context.Context, id int32) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Expenses[id]; !ok {
		return domain.ErrExpenseNotFound
	}
	delete(m.Expenses, id)
	return nil
}

func (m *MockExpenseRepository) filter(keep func(*domain.Expense) bool) []*domain.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Expense, 0)
	for _, e := range m.Expenses {
		if keep(e) {
			out := *e
			result = append(result, &out)
		}
	}
	return result
}

func sortExpensesNewestFirst(expenses []*domain.Expense) {
	sort.Slice(expenses, func(i, j int) bool {
		if expenses[i].Date.Equal(expenses[j].Date) {
			return expenses[i].ID > expenses[j].ID
		}
		return expenses[i].Date.After(expenses[j].Date)
	})
}

// ListByDateRange returns expenses dated in [start, end), newest first
func (m *MockExpenseRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]*domain.Expense, error) {
	result := m.filter(func(e *domain.Expense) bool { return inRange(e.Date, start, end) })
	sortExpensesNewestFirst(result)
	return result, nil
}

// ListByCategory returns expenses of a category, newest first
func (m *MockExpenseRepository) ListByCategory(ctx context.Context, category string) ([]*domain.Expense, error) {
	result := m.filter(func(e *domain.Expense) bool { return e.Category == category })
	sortExpensesNewestFirst(result)
	return result, nil
}

// ListAll returns every expense ordered by ID
func (m *MockExpenseRepository) ListAll(ctx context.Context) ([]*domain.Expense, error) {
	result := m.filter(func(*domain.Expense) bool { return true })
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// SumByDateRange sums expenses dated in [start, end)
func (m *MockExpenseRepository) SumByDateRange(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, e := range m.filter(func(e *domain.Expense) bool { return inRange(e.Date, start, end) }) {
		total = total.Add(e.Amount)
	}
	return total, nil
}

// SumByCategoryAndDateRange sums a category's expenses dated in [start, end)
func (m *MockExpenseRepository) SumByCategoryAndDateRange(ctx context.Context, category string, start, end time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, e := range m.filter(func(e *domain.Expense) bool {
		return e.Category == category && inRange(e.Date, start, end)
	}) {
		total = total.Add(e.Amount)
	}
	return total, nil
}

// SumGroupedByCategory sums expenses in [start, end) per category, largest first
func (m *MockExpenseRepository) SumGroupedByCategory(ctx context.Context, start, end time.Time) ([]*domain.CategoryTotal, error) {
	byCategory := make(map[string]*domain.CategoryTotal)
	for _, e := range m.filter(func(e *domain.Expense) bool { return inRange(e.Date, start, end) }) {
		ct, ok := byCategory[e.Category]
		if !ok {
			ct = &domain.CategoryTotal{Category: e.Category, Total: decimal.Zero}
			byCategory[e.Category] = ct
		}
		ct.Total = ct.Total.Add(e.Amount)
		ct.Count++
	}
	result := make([]*domain.CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		result = append(result, ct)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Total.Equal(result[j].Total) {
			return result[i].Category < result[j].Category
		}
		return result[i].Total.GreaterThan(result[j].Total)
	})
	return result, nil
}

// Search matches title or notes ignoring case, newest first
func (m *MockExpenseRepository) Search(ctx context.Context, query string) ([]*domain.Expense, error) {
	result := m.filter(func(e *domain.Expense) bool {
		return containsFold(e.Title, query) || (e.Notes != nil && containsFold(*e.Notes, query))
	})
	sortExpensesNewestFirst(result)
	return result, nil
}

// AddExpense adds an expense directly, bypassing any service (helper for tests)
func (m *MockExpenseRepository) AddExpense(expense *domain.Expense) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if expense.ID == 0 {
		expense.ID = m.NextID
	}
	if expense.ID >= m.NextID {
		m.NextID = expense.ID + 1
	}
	e := *expense
	m.Expenses[e.ID] = &e
}

// MockIncomeRepository is a mock implementation of domain.IncomeRepository
type MockIncomeRepository struct {
	mu      sync.Mutex
	Incomes map[int32]*domain.Income
	NextID  int32
	// ListRecurringFn overrides ListRecurring when set
	ListRecurringFn func() ([]*domain.Income, error)
}

// NewMockIncomeRepository creates a new MockIncomeRepository
func NewMockIncomeRepository() *MockIncomeRepository {
	return &MockIncomeRepository{
		Incomes: make(map[int32]*domain.Income),
		NextID:  1,
	}
}

// Create stores a new income
func (m *MockIncomeRepository) Create(ctx context.Context, income *domain.Income) (*domain.Income, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := *income
	i.ID = m.NextID
	m.NextID++
	i.CreatedAt = time.Now()
	i.UpdatedAt = i.CreatedAt
	m.Incomes[i.ID] = &i
	out := i
	return &out, nil
}

// GetByID retrieves an income by ID
func (m *MockIncomeRepository) GetByID(ctx context.Context, id int32) (*domain.Income, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.Incomes[id]
	if !ok {
		return nil, domain.ErrIncomeNotFound
	}
	out := *i
	return &out, nil
}

// Update replaces an existing income
func (m *MockIncomeRepository) Update(ctx context.Context, income *domain.Income) (*domain.Income, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Incomes[income.ID]
	if !ok {
		return nil, domain.ErrIncomeNotFound
	}
	i := *income
	i.CreatedAt = existing.CreatedAt
	i.UpdatedAt = time.Now()
	m.Incomes[i.ID] = &i
	out := i
	return &out, nil
}

// Delete removes an income
func (m *MockIncomeRepository) Delete(ctx context.Context, id int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Incomes[id]; !ok {
		return domain.ErrIncomeNotFound
	}
	delete(m.Incomes, id)
	return nil
}

func (m *MockIncomeRepository) filter(keep func(*domain.Income) bool) []*domain.Income {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Income, 0)
	for _, i := range m.Incomes {
		if keep(i) {
			out := *i
			result = append(result, &out)
		}
	}
	return result
}

func sortIncomesNewestFirst(incomes []*domain.Income) {
	sort.Slice(incomes, func(i, j int) bool {
		if incomes[i].Date.Equal(incomes[j].Date) {
			return incomes[i].ID > incomes[j].ID
		}
		return incomes[i].Date.After(incomes[j].Date)
	})
}

// ListByDateRange returns incomes dated in [start, end), newest first
func (m *MockIncomeRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]*domain.Income, error) {
	result := m.filter(func(i *domain.Income) bool { return inRange(i.Date, start, end) })
	sortIncomesNewestFirst(result)
	return result, nil
}

// ListRecurring returns recurring incomes ordered by next occurrence
func (m *MockIncomeRepository) ListRecurring(ctx context.Context) ([]*domain.Income, error) {
	if m.ListRecurringFn != nil {
		return m.ListRecurringFn()
	}
	result := m.filter(func(i *domain.Income) bool { return i.IsRecurring })
	sort.Slice(result, func(a, b int) bool {
		na, nb := result[a].NextOccurrence, result[b].NextOccurrence
		switch {
		case na == nil && nb == nil:
			return result[a].ID < result[b].ID
		case na == nil:
			return false
		case nb == nil:
			return true
		case na.Equal(*nb):
			return result[a].ID < result[b].ID
		}
		return na.Before(*nb)
	})
	return result, nil
}

// ListAll returns every income ordered by ID
func (m *MockIncomeRepository) ListAll(ctx context.Context) ([]*domain.Income, error) {
	result := m.filter(func(*domain.Income) bool { return true })
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// SumByDateRange sums incomes dated in [start, end)
func (m *MockIncomeRepository) SumByDateRange(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, i := range m.filter(func(i *domain.Income) bool { return inRange(i.Date, start, end) }) {
		total = total.Add(i.Amount)
	}
	return total, nil
}

// UpdateNextOccurrence moves the next occurrence of an income
func (m *MockIncomeRepository) UpdateNextOccurrence(ctx context.Context, id int32, next *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.Incomes[id]
	if !ok {
		return domain.ErrIncomeNotFound
	}
	i.NextOccurrence = next
	return nil
}

// Search matches description ignoring case, newest first
func (m *MockIncomeRepository) Search(ctx context.Context, query string) ([]*domain.Income, error) {
	result := m.filter(func(i *domain.Income) bool { return containsFold(i.Description, query) })
	sortIncomesNewestFirst(result)
	return result, nil
}

// AddIncome adds an income directly (helper for tests)
func (m *MockIncomeRepository) AddIncome(income *domain.Income) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if income.ID == 0 {
		income.ID = m.NextID
	}
	if income.ID >= m.NextID {
		m.NextID = income.ID + 1
	}
	i := *income
	m.Incomes[i.ID] = &i
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	mu         sync.Mutex
	Categories []*domain.Category
	NextID     int32
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{NextID: 1}
}

// Create stores a category, rejecting duplicate names ignoring case
func (m *MockCategoryRepository) Create(ctx context.Context, name string) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Categories {
		if strings.EqualFold(c.Name, name) {
			return nil, domain.ErrCategoryAlreadyExists
		}
	}
	c := &domain.Category{ID: m.NextID, Name: name, CreatedAt: time.Now()}
	m.NextID++
	m.Categories = append(m.Categories, c)
	return c, nil
}

// GetByName finds a category ignoring case
func (m *MockCategoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Categories {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}

// List returns categories ordered by name
func (m *MockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := append([]*domain.Category(nil), m.Categories...)
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// AddCategories adds categories by name (helper for tests)
func (m *MockCategoryRepository) AddCategories(names ...string) {
	for _, name := range names {
		_, _ = m.Create(context.Background(), name)
	}
}

// MockIncomeTypeRepository is a mock implementation of domain.IncomeTypeRepository
type MockIncomeTypeRepository struct {
	mu     sync.Mutex
	Types  []*domain.IncomeType
	NextID int32
}

// NewMockIncomeTypeRepository creates a new MockIncomeTypeRepository
func NewMockIncomeTypeRepository() *MockIncomeTypeRepository {
	return &MockIncomeTypeRepository{NextID: 1}
}

// Create stores an income type, rejecting duplicate names ignoring case
func (m *MockIncomeTypeRepository) Create(ctx context.Context, name string) (*domain.IncomeType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.Types {
		if strings.EqualFold(t.Name, name) {
			return nil, domain.ErrIncomeTypeAlreadyExists
		}
	}
	t := &domain.IncomeType{ID: m.NextID, Name: name, CreatedAt: time.Now()}
	m.NextID++
	m.Types = append(m.Types, t)
	return t, nil
}

// GetByName finds an income type ignoring case
func (m *MockIncomeTypeRepository) GetByName(ctx context.Context, name string) (*domain.IncomeType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.Types {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return nil, domain.ErrIncomeTypeNotFound
}

// List returns income types ordered by name
func (m *MockIncomeTypeRepository) List(ctx context.Context) ([]*domain.IncomeType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := append([]*domain.IncomeType(nil), m.Types...)
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// AddIncomeTypes adds income types by name (helper for tests)
func (m *MockIncomeTypeRepository) AddIncomeTypes(names ...string) {
	for _, name := range names {
		_, _ = m.Create(context.Background(), name)
	}
}

// MockSpendingLimitRepository is a mock implementation of domain.SpendingLimitRepository.
// AddToCurrentAmount holds the mutex for the whole read-modify-write like the
// single UPDATE statement of the real repository.
type MockSpendingLimitRepository struct {
	mu     sync.Mutex
	Limits map[int32]*domain.SpendingLimit
	NextID int32
	// AddCalls counts AddToCurrentAmount invocations
	AddCalls int
	AddFn    func(id int32, delta decimal.Decimal) (*domain.SpendingLimit, error)
}

// NewMockSpendingLimitRepository creates a new MockSpendingLimitRepository
func NewMockSpendingLimitRepository() *MockSpendingLimitRepository {
	return &MockSpendingLimitRepository{
		Limits: make(map[int32]*domain.SpendingLimit),
		NextID: 1,
	}
}

func (m *MockSpendingLimitRepository) insertLocked(limit *domain.SpendingLimit) (*domain.SpendingLimit, error) {
	for _, l := range m.Limits {
		if l.IsActive && l.Category == limit.Category {
			return nil, domain.ErrSpendingLimitAlreadyExists
		}
	}
	l := *limit
	l.ID = m.NextID
	m.NextID++
	l.IsActive = true
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	m.Limits[l.ID] = &l
	out := l
	return &out, nil
}

// Create stores a new active limit
func (m *MockSpendingLimitRepository) Create(ctx context.Context, limit *domain.SpendingLimit) (*domain.SpendingLimit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(limit)
}

// GetByID retrieves a limit by ID
func (m *MockSpendingLimitRepository) GetByID(ctx context.Context, id int32) (*domain.SpendingLimit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.Limits[id]
	if !ok {
		return nil, domain.ErrSpendingLimitNotFound
	}
	out := *l
	return &out, nil
}

// GetActiveByCategory retrieves the active limit of a category
func (m *MockSpendingLimitRepository) GetActiveByCategory(ctx context.Context, category string) (*domain.SpendingLimit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.Limits {
		if l.IsActive && l.Category == category {
			out := *l
			return &out, nil
		}
	}
	return nil, domain.ErrSpendingLimitNotFound
}

// ListActive returns active limits ordered by category
func (m *MockSpendingLimitRepository) ListActive(ctx context.Context) ([]*domain.SpendingLimit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.SpendingLimit, 0)
	for _, l := range m.Limits {
		if l.IsActive {
			out := *l
			result = append(result, &out)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Category < result[j].Category })
	return result, nil
}

// ListByCategory returns every period of a category, newest first
func (m *MockSpendingLimitRepository) ListByCategory(ctx context.Context, category string) ([]*domain.SpendingLimit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.SpendingLimit, 0)
	for _, l := range m.Limits {
		if l.Category == category {
			out := *l
			result = append(result, &out)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].ID > result[j].ID
		}
		return result[i].StartDate.After(result[j].StartDate)
	})
	return result, nil
}

// Update replaces the user-settable fields and the current amount
func (m *MockSpendingLimitRepository) Update(ctx context.Context, limit *domain.SpendingLimit) (*domain.SpendingLimit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.Limits[limit.ID]
	if !ok {
		return nil, domain.ErrSpendingLimitNotFound
	}
	l.Amount = limit.Amount
	l.CurrentAmount = limit.CurrentAmount
	l.StartDate = limit.StartDate
	l.Frequency = limit.Frequency
	l.PeriodDays = limit.PeriodDays
	l.AutoReset = limit.AutoReset
	l.UpdatedAt = time.Now()
	out := *l
	return &out, nil
}

// Delete removes a limit
func (m *MockSpendingLimitRepository) Delete(ctx context.Context, id int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Limits[id]; !ok {
		return domain.ErrSpendingLimitNotFound
	}
	delete(m.Limits, id)
	return nil
}

// AddToCurrentAmount adds delta and clamps at zero
func (m *MockSpendingLimitRepository) AddToCurrentAmount(ctx context.Context, id int32, delta decimal.Decimal) (*domain.SpendingLimit, error) {
	if m.AddFn != nil {
		return m.AddFn(id, delta)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddCalls++
	l, ok := m.Limits[id]
	if !ok {
		return nil, domain.ErrSpendingLimitNotFound
	}
	l.CurrentAmount = decimal.Max(l.CurrentAmount.Add(delta), decimal.Zero)
	out := *l
	return &out, nil
}

// SetCurrentAmount overwrites the current amount
func (m *MockSpendingLimitRepository) SetCurrentAmount(ctx context.Context, id int32, amount decimal.Decimal) (*domain.SpendingLimit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.Limits[id]
	if !ok {
		return nil, domain.ErrSpendingLimitNotFound
	}
	l.CurrentAmount = amount
	out := *l
	return &out, nil
}

// Rollover deactivates oldID and inserts next as the active row
func (m *MockSpendingLimitRepository) Rollover(ctx context.Context, oldID int32, next *domain.SpendingLimit) (*domain.SpendingLimit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.Limits[oldID]
	if !ok || !old.IsActive {
		return nil, domain.ErrSpendingLimitNotFound
	}
	old.IsActive = false
	created, err := m.insertLocked(next)
	if err != nil {
		old.IsActive = true
		return nil, err
	}
	return created, nil
}

// AddLimit adds a limit directly (helper for tests)
func (m *MockSpendingLimitRepository) AddLimit(limit *domain.SpendingLimit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit.ID == 0 {
		limit.ID = m.NextID
	}
	if limit.ID >= m.NextID {
		m.NextID = limit.ID + 1
	}
	l := *limit
	m.Limits[l.ID] = &l
}

// MockSavingsRepository is a mock implementation of domain.SavingsRepository
type MockSavingsRepository struct {
	mu           sync.Mutex
	Projects     map[int32]*domain.SavingsProject
	Transactions map[int32]*domain.SavingsTransaction
	NextID       int32
	NextTxID     int32
	// PageCalls counts ListTransactionsPage invocations
	PageCalls int
}

// NewMockSavingsRepository creates a new MockSavingsRepository
func NewMockSavingsRepository() *MockSavingsRepository {
	return &MockSavingsRepository{
		Projects:     make(map[int32]*domain.SavingsProject),
		Transactions: make(map[int32]*domain.SavingsTransaction),
		NextID:       1,
		NextTxID:     1,
	}
}

// CreateProject stores a new project with a zero current amount
func (m *MockSavingsRepository) CreateProject(ctx context.Context, project *domain.SavingsProject) (*domain.SavingsProject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := *project
	p.ID = m.NextID
	m.NextID++
	p.CurrentAmount = decimal.Zero
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.Projects[p.ID] = &p
	out := p
	return &out, nil
}

// GetProject retrieves a project by ID
func (m *MockSavingsRepository) GetProject(ctx context.Context, id int32) (*domain.SavingsProject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Projects[id]
	if !ok {
		return nil, domain.ErrSavingsProjectNotFound
	}
	out := *p
	return &out, nil
}

// ListProjects returns projects ordered by deadline
func (m *MockSavingsRepository) ListProjects(ctx context.Context) ([]*domain.SavingsProject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.SavingsProject, 0, len(m.Projects))
	for _, p := range m.Projects {
		out := *p
		result = append(result, &out)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Deadline.Equal(result[j].Deadline) {
			return result[i].ID < result[j].ID
		}
		return result[i].Deadline.Before(result[j].Deadline)
	})
	return result, nil
}

// UpdateProject replaces the descriptive fields
func (m *MockSavingsRepository) UpdateProject(ctx context.Context, project *domain.SavingsProject) (*domain.SavingsProject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Projects[project.ID]
	if !ok {
		return nil, domain.ErrSavingsProjectNotFound
	}
	p.Title = project.Title
	p.TargetAmount = project.TargetAmount
	p.StartDate = project.StartDate
	p.Deadline = project.Deadline
	p.Frequency = project.Frequency
	p.UpdatedAt = time.Now()
	out := *p
	return &out, nil
}

// DeleteProject removes the project's transactions and then the project
func (m *MockSavingsRepository) DeleteProject(ctx context.Context, id int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Projects[id]; !ok {
		return domain.ErrSavingsProjectNotFound
	}
	for txID, t := range m.Transactions {
		if t.ProjectID == id {
			delete(m.Transactions, txID)
		}
	}
	delete(m.Projects, id)
	return nil
}

// AddTransaction stores the transaction and increments the project
func (m *MockSavingsRepository) AddTransaction(ctx context.Context, st *domain.SavingsTransaction) (*domain.SavingsTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Projects[st.ProjectID]
	if !ok {
		return nil, domain.ErrSavingsProjectNotFound
	}
	t := *st
	t.ID = m.NextTxID
	m.NextTxID++
	t.CreatedAt = time.Now()
	m.Transactions[t.ID] = &t
	p.CurrentAmount = p.CurrentAmount.Add(t.Amount)
	out := t
	return &out, nil
}

// GetTransaction retrieves a transaction by ID
func (m *MockSavingsRepository) GetTransaction(ctx context.Context, id int32) (*domain.SavingsTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Transactions[id]
	if !ok {
		return nil, domain.ErrSavingsTransactionNotFound
	}
	out := *t
	return &out, nil
}

// RemoveTransaction decrements the project and deletes the transaction
func (m *MockSavingsRepository) RemoveTransaction(ctx context.Context, id int32) (*domain.SavingsTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Transactions[id]
	if !ok {
		return nil, domain.ErrSavingsTransactionNotFound
	}
	if p, ok := m.Projects[t.ProjectID]; ok {
		p.CurrentAmount = decimal.Max(p.CurrentAmount.Sub(t.Amount), decimal.Zero)
	}
	delete(m.Transactions, id)
	return t, nil
}

// ListTransactionsPage returns up to limit transactions after the cursor ordered by (date, id)
func (m *MockSavingsRepository) ListTransactionsPage(ctx context.Context, projectID int32, after *domain.SavingsTransactionCursor, limit int) ([]*domain.SavingsTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PageCalls++
	all := make([]*domain.SavingsTransaction, 0)
	for _, t := range m.Transactions {
		if t.ProjectID == projectID {
			out := *t
			all = append(all, &out)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Date.Equal(all[j].Date) {
			return all[i].ID < all[j].ID
		}
		return all[i].Date.Before(all[j].Date)
	})
	result := make([]*domain.SavingsTransaction, 0, limit)
	for _, t := range all {
		if after != nil && (t.Date.Before(after.Date) || (t.Date.Equal(after.Date) && t.ID <= after.ID)) {
			continue
		}
		result = append(result, t)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

// LastTransactionDate returns the latest contribution date of a project
func (m *MockSavingsRepository) LastTransactionDate(ctx context.Context, projectID int32) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last *time.Time
	for _, t := range m.Transactions {
		if t.ProjectID == projectID && (last == nil || t.Date.After(*last)) {
			d := t.Date
			last = &d
		}
	}
	return last, nil
}

// RecomputeCurrentAmounts rebuilds every project's current amount
func (m *MockSavingsRepository) RecomputeCurrentAmounts(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Projects {
		p.CurrentAmount = decimal.Zero
	}
	for _, t := range m.Transactions {
		if p, ok := m.Projects[t.ProjectID]; ok {
			p.CurrentAmount = p.CurrentAmount.Add(t.Amount)
		}
	}
	return nil
}

// AddProject adds a project directly, keeping its current amount (helper for tests)
func (m *MockSavingsRepository) AddProject(project *domain.SavingsProject) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if project.ID == 0 {
		project.ID = m.NextID
	}
	if project.ID >= m.NextID {
		m.NextID = project.ID + 1
	}
	p := *project
	m.Projects[p.ID] = &p
}

// MockSnapshotRepository is a mock implementation of domain.SnapshotRepository
// backed by the other in-memory repositories.
type MockSnapshotRepository struct {
	Expenses     *MockExpenseRepository
	Incomes      *MockIncomeRepository
	Categories   *MockCategoryRepository
	IncomeTypes  *MockIncomeTypeRepository
	Limits       *MockSpendingLimitRepository
	Savings      *MockSavingsRepository
	ReplaceAllFn func(snapshot *domain.Snapshot) error
}

// Export copies every mock repository into a snapshot
func (m *MockSnapshotRepository) Export(ctx context.Context) (*domain.Snapshot, error) {
	snapshot := &domain.Snapshot{Version: domain.SnapshotVersion, CreatedAt: time.Now().UTC()}
	snapshot.Categories, _ = m.Categories.List(ctx)
	snapshot.IncomeTypes, _ = m.IncomeTypes.List(ctx)
	snapshot.Expenses, _ = m.Expenses.ListAll(ctx)
	snapshot.Incomes, _ = m.Incomes.ListAll(ctx)

	m.Limits.mu.Lock()
	for _, l := range m.Limits.Limits {
		out := *l
		snapshot.SpendingLimits = append(snapshot.SpendingLimits, &out)
	}
	m.Limits.mu.Unlock()
	sort.Slice(snapshot.SpendingLimits, func(i, j int) bool {
		return snapshot.SpendingLimits[i].ID < snapshot.SpendingLimits[j].ID
	})

	snapshot.SavingsProjects, _ = m.Savings.ListProjects(ctx)
	m.Savings.mu.Lock()
	for _, t := range m.Savings.Transactions {
		out := *t
		snapshot.SavingsTransactions = append(snapshot.SavingsTransactions, &out)
	}
	m.Savings.mu.Unlock()
	sort.Slice(snapshot.SavingsTransactions, func(i, j int) bool {
		return snapshot.SavingsTransactions[i].ID < snapshot.SavingsTransactions[j].ID
	})
	return snapshot, nil
}

// ReplaceAll clears the mock repositories and loads the snapshot. Derived
// amounts are loaded as zero like the real repository.
func (m *MockSnapshotRepository) ReplaceAll(ctx context.Context, snapshot *domain.Snapshot) error {
	if m.ReplaceAllFn != nil {
		return m.ReplaceAllFn(snapshot)
	}

	m.Categories.mu.Lock()
	m.Categories.Categories = append([]*domain.Category(nil), snapshot.Categories...)
	for _, c := range snapshot.Categories {
		if c.ID >= m.Categories.NextID {
			m.Categories.NextID = c.ID + 1
		}
	}
	m.Categories.mu.Unlock()

	m.IncomeTypes.mu.Lock()
	m.IncomeTypes.Types = append([]*domain.IncomeType(nil), snapshot.IncomeTypes...)
	for _, t := range snapshot.IncomeTypes {
		if t.ID >= m.IncomeTypes.NextID {
			m.IncomeTypes.NextID = t.ID + 1
		}
	}
	m.IncomeTypes.mu.Unlock()

	m.Expenses.mu.Lock()
	m.Expenses.Expenses = make(map[int32]*domain.Expense)
	m.Expenses.mu.Unlock()
	for _, e := range snapshot.Expenses {
		m.Expenses.AddExpense(e)
	}

	m.Incomes.mu.Lock()
	m.Incomes.Incomes = make(map[int32]*domain.Income)
	m.Incomes.mu.Unlock()
	for _, i := range snapshot.Incomes {
		m.Incomes.AddIncome(i)
	}

	m.Limits.mu.Lock()
	m.Limits.Limits = make(map[int32]*domain.SpendingLimit)
	m.Limits.mu.Unlock()
	for _, l := range snapshot.SpendingLimits {
		restored := *l
		restored.CurrentAmount = decimal.Zero
		m.Limits.AddLimit(&restored)
	}

	m.Savings.mu.Lock()
	m.Savings.Projects = make(map[int32]*domain.SavingsProject)
	m.Savings.Transactions = make(map[int32]*domain.SavingsTransaction)
	for _, p := range snapshot.SavingsProjects {
		restored := *p
		restored.CurrentAmount = decimal.Zero
		m.Savings.Projects[restored.ID] = &restored
		if restored.ID >= m.Savings.NextID {
			m.Savings.NextID = restored.ID + 1
		}
	}
	for _, t := range snapshot.SavingsTransactions {
		restored := *t
		m.Savings.Transactions[restored.ID] = &restored
		if restored.ID >= m.Savings.NextTxID {
			m.Savings.NextTxID = restored.ID + 1
		}
	}
	m.Savings.mu.Unlock()
	return nil
}

// MockObjectStore is an in-memory storage.ObjectStore
type MockObjectStore struct {
	mu       sync.Mutex
	Objects  map[string][]byte
	Modified map[string]time.Time
	UploadFn func(key string) error
	Deleted  []string
}

// NewMockObjectStore creates a new MockObjectStore
func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{
		Objects:  make(map[string][]byte),
		Modified: make(map[string]time.Time),
	}
}

// Upload stores the data under key
func (m *MockObjectStore) Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadFn != nil {
		if err := m.UploadFn(key); err != nil {
			return "", err
		}
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[key] = buf
	m.Modified[key] = time.Now()
	return key, nil
}

// Download returns the data stored under key
func (m *MockObjectStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf, ok := m.Objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(buf)), nil
}

// Delete removes the object stored under key
func (m *MockObjectStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, key)
	delete(m.Modified, key)
	m.Deleted = append(m.Deleted, key)
	return nil
}

// List returns objects whose key starts with prefix, ordered by key
func (m *MockObjectStore) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]storage.ObjectInfo, 0)
	for key, buf := range m.Objects {
		if strings.HasPrefix(key, prefix) {
			result = append(result, storage.ObjectInfo{Key: key, Size: int64(len(buf)), LastModified: m.Modified[key]})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

// GeneratePresignedURL returns a fake URL for key
func (m *MockObjectStore) GeneratePresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://storage.example.com/" + key, nil
}

// Has reports whether key is stored (helper for tests)
func (m *MockObjectStore) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Objects[key]
	return ok
}

// SavingsReminderCall records one ShowSavingsReminder invocation
type SavingsReminderCall struct {
	ProjectID int32
	DaysUntil int
}

// IncomeReminderCall records one ShowIncomeReminder invocation
type IncomeReminderCall struct {
	IncomeID    int32
	Description string
	Message     string
	Amount      decimal.Decimal
}

// MockNotifier records every notification it is asked to show
type MockNotifier struct {
	mu               sync.Mutex
	LimitAlerts      []*domain.SpendingLimit
	SavingsReminders []SavingsReminderCall
	IncomeReminders  []IncomeReminderCall
}

// NewMockNotifier creates a new MockNotifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// ShowLimitAlert records a limit alert
func (m *MockNotifier) ShowLimitAlert(ctx context.Context, limit *domain.SpendingLimit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := *limit
	m.LimitAlerts = append(m.LimitAlerts, &l)
}

// ShowSavingsReminder records a savings reminder
func (m *MockNotifier) ShowSavingsReminder(ctx context.Context, projectID int32, daysUntil int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SavingsReminders = append(m.SavingsReminders, SavingsReminderCall{ProjectID: projectID, DaysUntil: daysUntil})
}

// ShowIncomeReminder records an income reminder
func (m *MockNotifier) ShowIncomeReminder(ctx context.Context, incomeID int32, description, message string, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IncomeReminders = append(m.IncomeReminders, IncomeReminderCall{
		IncomeID:    incomeID,
		Description: description,
		Message:     message,
		Amount:      amount,
	})
}

// LimitAlertCount returns how many limit alerts were shown
func (m *MockNotifier) LimitAlertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.LimitAlerts)
}

// SavingsReminderCount returns how many savings reminders were shown
func (m *MockNotifier) SavingsReminderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SavingsReminders)
}

// IncomeReminderCount returns how many income reminders were shown
func (m *MockNotifier) IncomeReminderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.IncomeReminders)
}

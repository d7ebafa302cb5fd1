package domain

import (
	"context"
	"time"
)

// SnapshotVersion is the format version written into every backup
const SnapshotVersion = 1

// Snapshot is the complete entity set used for backup and restore
type Snapshot struct {
	Version             int                   `json:"version"`
	CreatedAt           time.Time             `json:"createdAt"`
	Categories          []*Category           `json:"categories"`
	IncomeTypes         []*IncomeType         `json:"incomeTypes"`
	Expenses            []*Expense            `json:"expenses"`
	Incomes             []*Income             `json:"incomes"`
	SpendingLimits      []*SpendingLimit      `json:"spendingLimits"`
	SavingsProjects     []*SavingsProject     `json:"savingsProjects"`
	SavingsTransactions []*SavingsTransaction `json:"savingsTransactions"`
}

// Validate checks a snapshot before it replaces the stored data. Derived
// amounts are not checked; they are recomputed after restore.
func (s *Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return ErrInvalidBackup
	}

	categories := make(map[string]bool, len(s.Categories))
	for _, c := range s.Categories {
		categories[c.Name] = true
	}
	for _, e := range s.Expenses {
		if err := e.Validate(); err != nil {
			return err
		}
		if e.Category != "" && !categories[e.Category] {
			return ErrUnknownCategory
		}
	}
	for _, i := range s.Incomes {
		if err := i.Validate(); err != nil {
			return err
		}
	}
	for _, l := range s.SpendingLimits {
		if err := l.Validate(); err != nil {
			return err
		}
	}

	projects := make(map[int32]bool, len(s.SavingsProjects))
	for _, p := range s.SavingsProjects {
		if err := p.Validate(); err != nil {
			return err
		}
		projects[p.ID] = true
	}
	for _, t := range s.SavingsTransactions {
		if err := t.Validate(); err != nil {
			return err
		}
		if !projects[t.ProjectID] {
			return ErrInvalidBackup
		}
	}
	return nil
}

// SnapshotRepository reads and replaces the whole data set
type SnapshotRepository interface {
	Export(ctx context.Context) (*Snapshot, error)
	// ReplaceAll deletes every row and inserts the snapshot in one transaction
	ReplaceAll(ctx context.Context, snapshot *Snapshot) error
}

// BackupInfo describes a stored backup object
type BackupInfo struct {
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

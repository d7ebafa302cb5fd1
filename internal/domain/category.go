package domain

import (
	"context"
	"time"
)

type Category struct {
	ID        int32     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type IncomeType struct {
	ID        int32     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// CategoryRepository stores expense categories. Names are unique ignoring case.
type CategoryRepository interface {
	Create(ctx context.Context, name string) (*Category, error)
	GetByName(ctx context.Context, name string) (*Category, error)
	List(ctx context.Context) ([]*Category, error)
}

// IncomeTypeRepository stores income types. Names are unique ignoring case.
type IncomeTypeRepository interface {
	Create(ctx context.Context, name string) (*IncomeType, error)
	GetByName(ctx context.Context, name string) (*IncomeType, error)
	List(ctx context.Context) ([]*IncomeType, error)
}

// DefaultCategories are created on first start
var DefaultCategories = []string{
	"Food",
	"Transport",
	"Housing",
	"Utilities",
	"Health",
	"Entertainment",
	"Shopping",
	"Education",
	"Other",
}

// DefaultIncomeTypes are created on first start
var DefaultIncomeTypes = []string{
	"Salary",
	"Freelance",
	"Investment",
	"Gift",
	"Other",
}

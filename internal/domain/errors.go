package domain

import (
	"errors"
	"fmt"
)

// Base errors. Every domain error wraps exactly one of these so callers can
// classify with errors.Is.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrConsistency   = errors.New("derived state out of sync")
	ErrInternalError = errors.New("internal error")
)

// Not found
var (
	ErrExpenseNotFound            = fmt.Errorf("expense: %w", ErrNotFound)
	ErrIncomeNotFound             = fmt.Errorf("income: %w", ErrNotFound)
	ErrCategoryNotFound           = fmt.Errorf("category: %w", ErrNotFound)
	ErrIncomeTypeNotFound         = fmt.Errorf("income type: %w", ErrNotFound)
	ErrSpendingLimitNotFound      = fmt.Errorf("spending limit: %w", ErrNotFound)
	ErrSavingsProjectNotFound     = fmt.Errorf("savings project: %w", ErrNotFound)
	ErrSavingsTransactionNotFound = fmt.Errorf("savings transaction: %w", ErrNotFound)
	ErrBackupNotFound             = fmt.Errorf("backup: %w", ErrNotFound)
)

// Validation
var (
	ErrInvalidAmount      = fmt.Errorf("amount must be greater than zero: %w", ErrInvalidInput)
	ErrNegativeAmount     = fmt.Errorf("amount must not be negative: %w", ErrInvalidInput)
	ErrTitleRequired      = fmt.Errorf("title is required: %w", ErrInvalidInput)
	ErrTitleTooLong       = fmt.Errorf("title exceeds maximum length: %w", ErrInvalidInput)
	ErrNameRequired       = fmt.Errorf("name is required: %w", ErrInvalidInput)
	ErrNameTooLong        = fmt.Errorf("name exceeds maximum length: %w", ErrInvalidInput)
	ErrNotesTooLong       = fmt.Errorf("notes exceed maximum length: %w", ErrInvalidInput)
	ErrDateRequired       = fmt.Errorf("date is required: %w", ErrInvalidInput)
	ErrInvalidFrequency   = fmt.Errorf("invalid frequency: %w", ErrInvalidInput)
	ErrInvalidPeriodDays  = fmt.Errorf("period days must be set for custom frequency only and be positive: %w", ErrInvalidInput)
	ErrInvalidRecurrence  = fmt.Errorf("recurring entries need a positive frequency in days: %w", ErrInvalidInput)
	ErrUnknownCategory    = fmt.Errorf("unknown category: %w", ErrInvalidInput)
	ErrUnknownIncomeType  = fmt.Errorf("unknown income type: %w", ErrInvalidInput)
	ErrInvalidDateRange   = fmt.Errorf("end date must not be before start date: %w", ErrInvalidInput)
	ErrInvalidMonth       = fmt.Errorf("invalid year or month: %w", ErrInvalidInput)
	ErrInvalidTarget      = fmt.Errorf("target amount must be greater than zero: %w", ErrInvalidInput)
	ErrInvalidThreshold   = fmt.Errorf("threshold must be between 0 and 1: %w", ErrInvalidInput)
	ErrInvalidBackup      = fmt.Errorf("invalid backup: %w", ErrInvalidInput)
	ErrSearchQueryTooLong = fmt.Errorf("search query too long: %w", ErrInvalidInput)
)

// Conflicts
var (
	ErrCategoryAlreadyExists      = fmt.Errorf("category: %w", ErrAlreadyExists)
	ErrIncomeTypeAlreadyExists    = fmt.Errorf("income type: %w", ErrAlreadyExists)
	ErrSpendingLimitAlreadyExists = fmt.Errorf("active spending limit for category: %w", ErrAlreadyExists)
)

// Validation constants
const (
	MaxTitleLength       = 255
	MaxNameLength        = 64
	MaxNotesLength       = 1000
	MaxSearchQueryLength = 100
)

// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/billcalc/internal/models"
)

var (
	// ErrNotFound is returned when a calculator or user does not exist for the tenant.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an update carries a stale Version.
	ErrConflict = errors.New("version conflict")
)

// CalculatorStore persists bill calculators.
type CalculatorStore interface {
	// CreateCalculator persists a new calculator.
	// ID, CreatedAt and UpdatedAt are filled in when empty; Version starts at 1.
	CreateCalculator(ctx context.Context, calc *models.Calculator) error

	// GetCalculator retrieves a calculator and its items.
	// Returns ErrNotFound when the id does not exist for tenantID.
	GetCalculator(ctx context.Context, tenantID, calculatorID string) (*models.Calculator, error)

	// ListCalculators returns all calculators owned by tenantID, newest first.
	ListCalculators(ctx context.Context, tenantID string) ([]*models.Calculator, error)

	// UpdateCalculator replaces the stored calculator and all of its items.
	// calc.Version must match the stored version; on success it is incremented.
	// Returns ErrConflict on a version mismatch and ErrNotFound if the row is gone.
	UpdateCalculator(ctx context.Context, calc *models.Calculator) error

	// DeleteCalculator removes a calculator and its items.
	DeleteCalculator(ctx context.Context, tenantID, calculatorID string) error
}

// GuestListStore holds the tenant-level attending count that Auto-mode
// calculators sync from.
type GuestListStore interface {
	// SetAttendingCount records the attending guest count for tenantID.
	SetAttendingCount(ctx context.Context, tenantID string, count int) error

	// AttendingCount returns the attending count, or 0 if none was recorded.
	AttendingCount(ctx context.Context, tenantID string) (int, error)
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	// GetUserByEmail returns nil and no error when the email is unknown.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID returns nil and no error when the id is unknown.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Store defines the full storage interface.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	CalculatorStore
	GuestListStore
	UserStore

	// Close releases any resources held by the store.
	Close() error
}

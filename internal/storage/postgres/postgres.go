// Package postgres provides a PostgreSQL-backed implementation of the storage.Store
// interface using a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mmynk/billcalc/internal/models"
	"github.com/mmynk/billcalc/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store implements storage.Store on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to dsn, verifies the connection and creates the schema.
func New(ctx context.Context, dsn string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// CreateCalculator persists a new calculator and its items.
func (s *Store) CreateCalculator(ctx context.Context, calc *models.Calculator) error {
	if calc.ID == "" {
		calc.ID = uuid.New().String()
	}
	if calc.CreatedAt == 0 {
		calc.CreatedAt = time.Now().Unix()
	}
	if calc.UpdatedAt == 0 {
		calc.UpdatedAt = calc.CreatedAt
	}
	calc.Version = 1

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO calculators (id, tenant_id, name, vendor_id, event_id, tax_info_id, tax_region,
			    guest_count_mode, guest_count, tax_rate, notes, version, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			calc.ID, calc.TenantID, calc.Name, nullString(calc.VendorID), nullString(calc.EventID),
			nullString(calc.TaxInfoID), nullString(calc.TaxRegion), calc.GuestCountMode, calc.GuestCount,
			calc.TaxRate, nullString(calc.Notes), calc.Version, calc.CreatedAt, calc.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert calculator: %w", err)
		}
		return insertItems(ctx, tx, calc.ID, calc.Items)
	})
}

// GetCalculator retrieves a calculator by ID, including all items.
func (s *Store) GetCalculator(ctx context.Context, tenantID, calculatorID string) (*models.Calculator, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+calculatorColumns+` FROM calculators WHERE id = $1 AND tenant_id = $2`,
		calculatorID, tenantID,
	)
	calc, err := scanCalculator(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("calculator %s: %w", calculatorID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calculator: %w", err)
	}

	if calc.Items, err = s.loadItems(ctx, calc.ID); err != nil {
		return nil, err
	}
	return calc, nil
}

// ListCalculators retrieves all calculators for a tenant, newest first.
func (s *Store) ListCalculators(ctx context.Context, tenantID string) ([]*models.Calculator, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+calculatorColumns+` FROM calculators WHERE tenant_id = $1 ORDER BY created_at DESC, id`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list calculators: %w", err)
	}
	calcs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Calculator, error) {
		return scanCalculator(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan calculators: %w", err)
	}

	for _, calc := range calcs {
		if calc.Items, err = s.loadItems(ctx, calc.ID); err != nil {
			return nil, err
		}
	}
	return calcs, nil
}

// UpdateCalculator replaces a calculator and its items if the version matches.
func (s *Store) UpdateCalculator(ctx context.Context, calc *models.Calculator) error {
	if calc.UpdatedAt == 0 {
		calc.UpdatedAt = time.Now().Unix()
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE calculators SET name = $1, vendor_id = $2, event_id = $3, tax_info_id = $4, tax_region = $5,
			    guest_count_mode = $6, guest_count = $7, tax_rate = $8, notes = $9, updated_at = $10,
			    version = version + 1
			 WHERE id = $11 AND tenant_id = $12 AND version = $13`,
			calc.Name, nullString(calc.VendorID), nullString(calc.EventID), nullString(calc.TaxInfoID),
			nullString(calc.TaxRegion), calc.GuestCountMode, calc.GuestCount, calc.TaxRate,
			nullString(calc.Notes), calc.UpdatedAt, calc.ID, calc.TenantID, calc.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to update calculator: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			err := tx.QueryRow(ctx,
				"SELECT EXISTS (SELECT 1 FROM calculators WHERE id = $1 AND tenant_id = $2)",
				calc.ID, calc.TenantID,
			).Scan(&exists)
			if err != nil {
				return fmt.Errorf("failed to check calculator existence: %w", err)
			}
			if !exists {
				return fmt.Errorf("calculator %s: %w", calc.ID, storage.ErrNotFound)
			}
			return fmt.Errorf("calculator %s at version %d: %w", calc.ID, calc.Version, storage.ErrConflict)
		}

		if _, err := tx.Exec(ctx, "DELETE FROM line_items WHERE calculator_id = $1", calc.ID); err != nil {
			return fmt.Errorf("failed to clear items: %w", err)
		}
		return insertItems(ctx, tx, calc.ID, calc.Items)
	})
	if err != nil {
		return err
	}
	calc.Version++
	return nil
}

// DeleteCalculator removes a calculator by ID. Items cascade.
func (s *Store) DeleteCalculator(ctx context.Context, tenantID, calculatorID string) error {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM calculators WHERE id = $1 AND tenant_id = $2", calculatorID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete calculator: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("calculator %s: %w", calculatorID, storage.ErrNotFound)
	}
	return nil
}

// SetAttendingCount records the attending guest count for a tenant.
func (s *Store) SetAttendingCount(ctx context.Context, tenantID string, count int) error {
	if count < 0 {
		return fmt.Errorf("attending count must be >= 0, got %d", count)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO guest_lists (tenant_id, attending_count, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (tenant_id) DO UPDATE SET attending_count = EXCLUDED.attending_count, updated_at = EXCLUDED.updated_at`,
		tenantID, count, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to set attending count: %w", err)
	}
	return nil
}

// AttendingCount returns the attending guest count for a tenant, or 0 if none was recorded.
func (s *Store) AttendingCount(ctx context.Context, tenantID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		"SELECT attending_count FROM guest_lists WHERE tenant_id = $1", tenantID,
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get attending count: %w", err)
	}
	return count, nil
}

// CreateUser inserts a new user.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, display_name, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, strings.ToLower(user.Email), user.DisplayName, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by email. A missing user is (nil, nil).
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", strings.ToLower(email))
}

// GetUserByID retrieves a user by ID. A missing user is (nil, nil).
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (s *Store) getUser(ctx context.Context, query, arg string) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

const (
	calculatorColumns = `id, tenant_id, name, vendor_id, event_id, tax_info_id, tax_region,
    guest_count_mode, guest_count, tax_rate, notes, version, created_at, updated_at`
	userColumns = "id, email, display_name, password_hash, created_at, updated_at"
)

func scanCalculator(row pgx.Row) (*models.Calculator, error) {
	calc := &models.Calculator{}
	var vendorID, eventID, taxInfoID, taxRegion, notes *string

	err := row.Scan(&calc.ID, &calc.TenantID, &calc.Name, &vendorID, &eventID, &taxInfoID, &taxRegion,
		&calc.GuestCountMode, &calc.GuestCount, &calc.TaxRate, &notes, &calc.Version, &calc.CreatedAt, &calc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	calc.VendorID = deref(vendorID)
	calc.EventID = deref(eventID)
	calc.TaxInfoID = deref(taxInfoID)
	calc.TaxRegion = deref(taxRegion)
	calc.Notes = deref(notes)
	return calc, nil
}

func (s *Store) loadItems(ctx context.Context, calculatorID string) ([]models.LineItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, kind, name, amount, quantity, sort_order
		 FROM line_items WHERE calculator_id = $1 ORDER BY position`,
		calculatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.LineItem, error) {
		var item models.LineItem
		err := row.Scan(&item.ID, &item.Kind, &item.Name, &item.Amount, &item.Quantity, &item.SortOrder)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan items: %w", err)
	}
	return items, nil
}

func insertItems(ctx context.Context, tx pgx.Tx, calculatorID string, items []models.LineItem) error {
	batch := &pgx.Batch{}
	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		batch.Queue(
			`INSERT INTO line_items (id, calculator_id, position, kind, name, amount, quantity, sort_order)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			item.ID, calculatorID, i, item.Kind, item.Name, item.Amount, item.Quantity, item.SortOrder,
		)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert items: %w", err)
	}
	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

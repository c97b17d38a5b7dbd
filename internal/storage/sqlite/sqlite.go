// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/billcalc/internal/models"
	"github.com/mmynk/billcalc/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateCalculator persists a new calculator and its items.
func (s *SQLiteStore) CreateCalculator(ctx context.Context, calc *models.Calculator) error {
	if calc.ID == "" {
		calc.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if calc.CreatedAt == 0 {
		calc.CreatedAt = now
	}
	if calc.UpdatedAt == 0 {
		calc.UpdatedAt = calc.CreatedAt
	}
	calc.Version = 1

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO calculators (id, tenant_id, name, vendor_id, event_id, tax_info_id, tax_region,
		    guest_count_mode, guest_count, tax_rate, notes, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		calc.ID, calc.TenantID, calc.Name, nullString(calc.VendorID), nullString(calc.EventID),
		nullString(calc.TaxInfoID), nullString(calc.TaxRegion), calc.GuestCountMode, calc.GuestCount,
		nullFloat(calc.TaxRate), nullString(calc.Notes), calc.Version, calc.CreatedAt, calc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert calculator: %w", err)
	}

	if err := insertItems(ctx, tx, calc.ID, calc.Items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetCalculator retrieves a calculator by ID, including all items.
func (s *SQLiteStore) GetCalculator(ctx context.Context, tenantID, calculatorID string) (*models.Calculator, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+calculatorColumns+` FROM calculators WHERE id = ? AND tenant_id = ?`,
		calculatorID, tenantID,
	)
	calc, err := scanCalculator(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("calculator %s: %w", calculatorID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calculator: %w", err)
	}

	calc.Items, err = s.loadItems(ctx, calc.ID)
	if err != nil {
		return nil, err
	}
	return calc, nil
}

// ListCalculators retrieves all calculators for a tenant, newest first.
func (s *SQLiteStore) ListCalculators(ctx context.Context, tenantID string) ([]*models.Calculator, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+calculatorColumns+` FROM calculators WHERE tenant_id = ? ORDER BY created_at DESC, id`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list calculators: %w", err)
	}

	var calcs []*models.Calculator
	for rows.Next() {
		calc, err := scanCalculator(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan calculator: %w", err)
		}
		calcs = append(calcs, calc)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate calculators: %w", err)
	}
	rows.Close()

	// Items are loaded after the outer cursor is closed.
	for _, calc := range calcs {
		if calc.Items, err = s.loadItems(ctx, calc.ID); err != nil {
			return nil, err
		}
	}
	return calcs, nil
}

// UpdateCalculator replaces a calculator and its items if the version matches.
func (s *SQLiteStore) UpdateCalculator(ctx context.Context, calc *models.Calculator) error {
	if calc.UpdatedAt == 0 {
		calc.UpdatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE calculators SET name = ?, vendor_id = ?, event_id = ?, tax_info_id = ?, tax_region = ?,
		    guest_count_mode = ?, guest_count = ?, tax_rate = ?, notes = ?, updated_at = ?, version = version + 1
		 WHERE id = ? AND tenant_id = ? AND version = ?`,
		calc.Name, nullString(calc.VendorID), nullString(calc.EventID), nullString(calc.TaxInfoID),
		nullString(calc.TaxRegion), calc.GuestCountMode, calc.GuestCount, nullFloat(calc.TaxRate),
		nullString(calc.Notes), calc.UpdatedAt, calc.ID, calc.TenantID, calc.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update calculator: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		var exists int
		err := tx.QueryRowContext(ctx,
			"SELECT 1 FROM calculators WHERE id = ? AND tenant_id = ?", calc.ID, calc.TenantID,
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("calculator %s: %w", calc.ID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check calculator existence: %w", err)
		}
		return fmt.Errorf("calculator %s at version %d: %w", calc.ID, calc.Version, storage.ErrConflict)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM line_items WHERE calculator_id = ?", calc.ID); err != nil {
		return fmt.Errorf("failed to clear items: %w", err)
	}
	if err := insertItems(ctx, tx, calc.ID, calc.Items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	calc.Version++
	return nil
}

// DeleteCalculator removes a calculator by ID. Items cascade.
func (s *SQLiteStore) DeleteCalculator(ctx context.Context, tenantID, calculatorID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM calculators WHERE id = ? AND tenant_id = ?", calculatorID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete calculator: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("calculator %s: %w", calculatorID, storage.ErrNotFound)
	}
	return nil
}

const calculatorColumns = `id, tenant_id, name, vendor_id, event_id, tax_info_id, tax_region,
    guest_count_mode, guest_count, tax_rate, notes, version, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCalculator(row scanner) (*models.Calculator, error) {
	calc := &models.Calculator{}
	var vendorID, eventID, taxInfoID, taxRegion, notes sql.NullString
	var taxRate sql.NullFloat64

	err := row.Scan(&calc.ID, &calc.TenantID, &calc.Name, &vendorID, &eventID, &taxInfoID, &taxRegion,
		&calc.GuestCountMode, &calc.GuestCount, &taxRate, &notes, &calc.Version, &calc.CreatedAt, &calc.UpdatedAt)
	if err != nil {
		return nil, err
	}

	calc.VendorID = vendorID.String
	calc.EventID = eventID.String
	calc.TaxInfoID = taxInfoID.String
	calc.TaxRegion = taxRegion.String
	calc.Notes = notes.String
	if taxRate.Valid {
		r := taxRate.Float64
		calc.TaxRate = &r
	}
	return calc, nil
}

func (s *SQLiteStore) loadItems(ctx context.Context, calculatorID string) ([]models.LineItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, name, amount, quantity, sort_order
		 FROM line_items WHERE calculator_id = ? ORDER BY position`,
		calculatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	var items []models.LineItem
	for rows.Next() {
		var item models.LineItem
		var quantity sql.NullInt64
		if err := rows.Scan(&item.ID, &item.Kind, &item.Name, &item.Amount, &quantity, &item.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		if quantity.Valid {
			q := int(quantity.Int64)
			item.Quantity = &q
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return items, nil
}

func insertItems(ctx context.Context, tx *sql.Tx, calculatorID string, items []models.LineItem) error {
	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		var quantity any
		if item.Quantity != nil {
			quantity = *item.Quantity
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO line_items (id, calculator_id, position, kind, name, amount, quantity, sort_order)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, calculatorID, i, item.Kind, item.Name, item.Amount, quantity, item.SortOrder,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SetAttendingCount records the attending guest count for a tenant.
func (s *SQLiteStore) SetAttendingCount(ctx context.Context, tenantID string, count int) error {
	if count < 0 {
		return fmt.Errorf("attending count must be >= 0, got %d", count)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO guest_lists (tenant_id, attending_count, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(tenant_id) DO UPDATE SET attending_count = excluded.attending_count, updated_at = excluded.updated_at`,
		tenantID, count, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to set attending count: %w", err)
	}
	return nil
}

// AttendingCount returns the attending guest count for a tenant, or 0 if none was recorded.
func (s *SQLiteStore) AttendingCount(ctx context.Context, tenantID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT attending_count FROM guest_lists WHERE tenant_id = ?", tenantID,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get attending count: %w", err)
	}
	return count, nil
}

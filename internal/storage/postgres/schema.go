package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    display_name VARCHAR(255) NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS calculators (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    vendor_id TEXT,
    event_id TEXT,
    tax_info_id TEXT,
    tax_region TEXT,
    guest_count_mode VARCHAR(16) NOT NULL,
    guest_count INTEGER NOT NULL CHECK (guest_count >= 0),
    tax_rate DOUBLE PRECISION,
    notes TEXT,
    version BIGINT NOT NULL,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS line_items (
    id TEXT NOT NULL,
    calculator_id TEXT NOT NULL REFERENCES calculators(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    kind VARCHAR(16) NOT NULL,
    name TEXT NOT NULL,
    amount DOUBLE PRECISION NOT NULL CHECK (amount >= 0),
    quantity INTEGER CHECK (quantity IS NULL OR quantity >= 0),
    sort_order INTEGER NOT NULL,
    PRIMARY KEY (calculator_id, id)
);

CREATE TABLE IF NOT EXISTS guest_lists (
    tenant_id TEXT PRIMARY KEY,
    attending_count INTEGER NOT NULL CHECK (attending_count >= 0),
    updated_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_calculators_tenant_id ON calculators(tenant_id);
CREATE INDEX IF NOT EXISTS idx_line_items_calculator_id ON line_items(calculator_id);
`

// initSchema creates the tables if they do not exist.
func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}

package sqlite

import "database/sql"

// schema sets up the database tables. It runs on startup to ensure tables exist.
// position preserves insertion order so sort_order ties load back the same way.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS calculators (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    vendor_id TEXT,
    event_id TEXT,
    tax_info_id TEXT,
    tax_region TEXT,
    guest_count_mode TEXT NOT NULL,
    guest_count INTEGER NOT NULL CHECK (guest_count >= 0),
    tax_rate REAL,
    notes TEXT,
    version INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS line_items (
    id TEXT NOT NULL,
    calculator_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    kind TEXT NOT NULL,
    name TEXT NOT NULL,
    amount REAL NOT NULL CHECK (amount >= 0),
    quantity INTEGER CHECK (quantity IS NULL OR quantity >= 0),
    sort_order INTEGER NOT NULL,
    PRIMARY KEY (calculator_id, id),
    FOREIGN KEY (calculator_id) REFERENCES calculators(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS guest_lists (
    tenant_id TEXT PRIMARY KEY,
    attending_count INTEGER NOT NULL CHECK (attending_count >= 0),
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_calculators_tenant_id ON calculators(tenant_id);
CREATE INDEX IF NOT EXISTS idx_line_items_calculator_id ON line_items(calculator_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

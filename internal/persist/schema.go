package persist

// Schema definitions for the pet shop database.
// Compatible with both SQLite and PostgreSQL.

const schemaPets = `
CREATE TABLE IF NOT EXISTS pets (
    id BIGINT PRIMARY KEY,
    name TEXT NOT NULL,
    species TEXT NOT NULL,
    age INTEGER NOT NULL,
    price REAL NOT NULL,
    happiness REAL NOT NULL,
    hunger REAL NOT NULL,
    is_sold INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pets_sold ON pets(is_sold);
`

const schemaTransactions = `
CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    pet_id BIGINT NOT NULL,
    kind TEXT NOT NULL,
    amount REAL NOT NULL,
    timestamp TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_pet ON transactions(pet_id);
CREATE INDEX IF NOT EXISTS idx_transactions_kind ON transactions(kind);
`

// schemaMeta holds the single-row counter state: the next pet id. The row is
// keyed by a constant so upserts replace it.
const schemaMeta = `
CREATE TABLE IF NOT EXISTS shop_meta (
    key TEXT PRIMARY KEY,
    next_id BIGINT NOT NULL
);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaPets,
		schemaTransactions,
		schemaMeta,
	}
}

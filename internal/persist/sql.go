package persist

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/happy-paws/petshop/internal/domain"
)

// SQLStorage implements domain.Storage using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLStorage struct {
	db     *sql.DB
	driver string
}

// NewSQL creates a SQL storage backend based on configuration.
func NewSQL(cfg domain.StorageConfig) (*SQLStorage, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	s := &SQLStorage{
		db:     db,
		driver: cfg.Driver,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

func (s *SQLStorage) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := s.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// Save replaces the stored snapshot inside a single database transaction, so
// a failed write leaves the previous snapshot intact.
func (s *SQLStorage) Save(ctx context.Context, snap *domain.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM pets`, `DELETE FROM transactions`, `DELETE FROM shop_meta`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	petStmt := s.rebind(`
		INSERT INTO pets (id, name, species, age, price, happiness, hunger, is_sold, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	for _, p := range snap.Pets {
		sold := 0
		if p.IsSold {
			sold = 1
		}
		if _, err := tx.ExecContext(ctx, petStmt,
			p.ID, p.Name, string(p.Species), p.Age, p.Price,
			p.Happiness, p.Hunger, sold, p.CreatedAt, p.UpdatedAt,
		); err != nil {
			return err
		}
	}

	txStmt := s.rebind(`
		INSERT INTO transactions (id, pet_id, kind, amount, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`)
	for _, t := range snap.Transactions {
		if _, err := tx.ExecContext(ctx, txStmt,
			t.ID, t.PetID, string(t.Kind), t.Amount, t.Timestamp,
		); err != nil {
			return err
		}
	}

	metaStmt := s.rebind(`INSERT INTO shop_meta (key, next_id) VALUES (?, ?)`)
	if _, err := tx.ExecContext(ctx, metaStmt, "shop", snap.NextID); err != nil {
		return err
	}

	return tx.Commit()
}

// Load reads the stored snapshot. found is false when no snapshot has been
// saved yet (empty shop_meta).
func (s *SQLStorage) Load(ctx context.Context) (*domain.Snapshot, bool, error) {
	snap := &domain.Snapshot{}

	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT next_id FROM shop_meta WHERE key = ?`), "shop")
	if err := row.Scan(&snap.NextID); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, species, age, price, happiness, hunger, is_sold, created_at, updated_at
		FROM pets ORDER BY id
	`)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Pet
		var species string
		var sold int
		if err := rows.Scan(
			&p.ID, &p.Name, &species, &p.Age, &p.Price,
			&p.Happiness, &p.Hunger, &sold, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, false, err
		}
		p.Species = domain.Species(species)
		p.IsSold = sold == 1
		snap.Pets = append(snap.Pets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	txRows, err := s.db.QueryContext(ctx, `
		SELECT id, pet_id, kind, amount, timestamp
		FROM transactions ORDER BY timestamp, id
	`)
	if err != nil {
		return nil, false, err
	}
	defer txRows.Close()

	for txRows.Next() {
		var t domain.Transaction
		var kind string
		if err := txRows.Scan(&t.ID, &t.PetID, &kind, &t.Amount, &t.Timestamp); err != nil {
			return nil, false, err
		}
		t.Kind = domain.TransactionKind(kind)
		snap.Transactions = append(snap.Transactions, t)
	}
	if err := txRows.Err(); err != nil {
		return nil, false, err
	}

	return snap, true, nil
}

// Ping checks database connectivity.
func (s *SQLStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLStorage) Close() error {
	return s.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (s *SQLStorage) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}

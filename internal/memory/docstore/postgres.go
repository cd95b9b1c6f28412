package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/mohammad-safakhou/researcher/config"
)

// PostgresBackend stores each named document as one row of memory_documents.
type PostgresBackend struct {
	db      *sql.DB
	name    string
	timeout time.Duration
}

// NewPostgresBackend opens the database and creates the table when missing.
func NewPostgresBackend(ctx context.Context, cfg config.PostgresConfig, name string) (*PostgresBackend, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	b := newPostgresBackend(db, name, cfg.Timeout)
	pctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := b.ensureSchema(pctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return b, nil
}

func newPostgresBackend(db *sql.DB, name string, timeout time.Duration) *PostgresBackend {
	return &PostgresBackend{db: db, name: name, timeout: timeoutOr(timeout)}
}

func (p *PostgresBackend) ensureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS memory_documents (
    name TEXT PRIMARY KEY,
    body JSONB NOT NULL,
    updated_at TIMESTAMPTZ DEFAULT NOW()
);
`)
	return err
}

func (p *PostgresBackend) Location() string { return "postgres:memory_documents/" + p.name }

func (p *PostgresBackend) Load(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	var body []byte
	err := p.db.QueryRowContext(ctx, `SELECT body FROM memory_documents WHERE name = $1`, p.name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", p.name, err)
	}
	return body, nil
}

func (p *PostgresBackend) Save(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	_, err := p.db.ExecContext(ctx, `
INSERT INTO memory_documents (name, body, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()`, p.name, string(data))
	if err != nil {
		return fmt.Errorf("upsert %s: %w", p.name, err)
	}
	return nil
}

func (p *PostgresBackend) Size(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	var n sql.NullInt64
	err := p.db.QueryRowContext(ctx, `SELECT octet_length(body::text) FROM memory_documents WHERE name = $1`, p.name).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("size %s: %w", p.name, err)
	}
	return n.Int64, nil
}

func (p *PostgresBackend) Close() error { return p.db.Close() }

package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS players (
    address    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type pgRegistry struct {
	db *sql.DB
}

// NewPostgresRegistry 需要已连接的 *sql.DB（lib/pq 驱动）
func NewPostgresRegistry(db *sql.DB) Registry {
	return &pgRegistry{db: db}
}

// EnsureSchema 启动时建表
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create players table: %w", err)
	}
	return nil
}

func (p *pgRegistry) Name(ctx context.Context, address string) (string, error) {
	var name string
	err := p.db.QueryRowContext(ctx,
		`SELECT name FROM players WHERE address = $1`, Normalize(address),
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup %s: %w", address, err)
	}
	return name, nil
}

func (p *pgRegistry) SetName(ctx context.Context, address, name string) error {
	name = cleanName(name)
	if name == "" {
		_, err := p.db.ExecContext(ctx, `DELETE FROM players WHERE address = $1`, Normalize(address))
		return err
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO players (address, name, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (address) DO UPDATE SET name = EXCLUDED.name, updated_at = now()`,
		Normalize(address), name,
	)
	if err != nil {
		return fmt.Errorf("save name for %s: %w", address, err)
	}
	return nil
}

// Package accounts provides AccountStore implementations. The Postgres
// store is the production backend; the in-memory store backs tests and
// local development without a database.
package accounts

import (
	"context"
	"embed"
	"errors"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/guildboard/guildboard/pkg/session"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations exposes the embedded schema migrations for the account
// table so the application can apply them at startup.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(err)
	}
	return sub
}

// Postgres stores encrypted account records in the user_accounts table.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ session.AccountStore = (*Postgres)(nil)

// NewPostgres creates a Postgres-backed account store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Put upserts the encrypted record for the user.
func (s *Postgres) Put(ctx context.Context, userID string, encrypted string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_accounts (user_id, record, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id)
		DO UPDATE SET record = EXCLUDED.record, updated_at = now()`,
		userID, encrypted,
	)
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}

// Get returns the encrypted record for the user.
func (s *Postgres) Get(ctx context.Context, userID string) (string, error) {
	var record string
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM user_accounts WHERE user_id = $1`,
		userID,
	).Scan(&record)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", session.ErrAccountNotFound
	}
	if err != nil {
		return "", errors.Join(ErrStore, err)
	}
	return record, nil
}

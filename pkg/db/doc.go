// Package db wraps [github.com/jackc/pgx/v5/pgxpool] with the connection
// and migration plumbing the application needs: pooled connections with
// startup retries, goose migrations from an embedded FS, a health probe
// for readiness endpoints, and a shutdown hook.
package db

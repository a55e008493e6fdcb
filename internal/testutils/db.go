// Package testutils connects integration tests to a local PostgreSQL.
package testutils

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPgPool opens a pool from the DB_* environment, defaulting to the local
// development database.
func NewPgPool(ctx context.Context) (*pgxpool.Pool, error) {
	var dbUsername = getEnv("DB_USERNAME", "devel")
	var dbPassword = getEnv("DB_PASSWORD", "devel")
	var dbHost = getEnv("DB_HOST", "localhost")
	var dbPort = getEnv("DB_PORT", "5432")
	var dbName = getEnv("DB_DATABASE", "devel_jaq")

	connString := "postgres://" + dbUsername + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

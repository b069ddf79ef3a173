package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Open connects to PostgreSQL and waits until the server answers a ping.
// The schema is expected to exist already.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	return db, nil
}

// namedQuery resolves a configured statement and binds its :name
// parameters for the database's placeholder style.
func namedQuery(db *sqlx.DB, sql string, arg any) (string, []any, error) {
	q, args, err := sqlx.Named(sql, arg)
	if err != nil {
		return "", nil, err
	}
	return db.Rebind(q), args, nil
}

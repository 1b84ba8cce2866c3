// Package store samples the match database read-only: how many rows
// the agent has ever written, and how many landed recently. Used only
// by post-run effect reporting; never writes.
package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"match-scraper-ops/internal/errdefs"
)

// Querier is the read-only surface the post-run monitor consumes.
type Querier interface {
	Ping(ctx context.Context) error
	// SourceCounts returns the total number of match rows attributed
	// to source and the number created within the trailing window.
	SourceCounts(ctx context.Context, source string, window time.Duration) (total, recent int, err error)
}

// Postgres queries the match store over database/sql with the pgx
// driver.
type Postgres struct {
	DB *sql.DB
}

// Open connects to the store. The DSN may be keyword form or a
// postgresql:// URL; the pool stays tiny because the monitor issues
// two queries per run.
func Open(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errdefs.External("open store", err)
	}
	db.SetMaxOpenConns(2)
	db.SetConnMaxIdleTime(time.Minute)
	return &Postgres{DB: db}, nil
}

func (p *Postgres) Close() error {
	return p.DB.Close()
}

func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.DB.PingContext(ctx); err != nil {
		return errdefs.External("ping store", err)
	}
	return nil
}

func (p *Postgres) SourceCounts(ctx context.Context, source string, window time.Duration) (int, int, error) {
	var total int
	err := p.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM matches WHERE source = $1`, source).Scan(&total)
	if err != nil {
		return 0, 0, errdefs.External("count source rows", err)
	}

	var recent int
	cutoff := time.Now().Add(-window)
	err = p.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM matches WHERE source = $1 AND created_at > $2`, source, cutoff).Scan(&recent)
	if err != nil {
		return 0, 0, errdefs.External("count recent rows", err)
	}
	return total, recent, nil
}

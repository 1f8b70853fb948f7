package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

const (
	binaryParametersParam = "binary_parameters"
	maxTracedQueryLength  = 512

	defaultMaxOpenConns    = 10
	defaultConnMaxLifetime = 30 * time.Minute
)

type Options struct {
	URL string
	// BinaryParameters makes lib/pq send parameters in binary without a
	// separate prepare, which transaction poolers require.
	BinaryParameters bool
	MaxOpenConns     int
	ConnMaxLifetime  time.Duration
}

// Open connects a traced sqlx pool and pings it.
func Open(ctx context.Context, opts Options) (*sqlx.DB, error) {
	db, err := otelsqlx.Open("postgres", NormalizeURL(opts.URL, opts.BinaryParameters),
		otelsql.WithDBName(DatabaseName(opts.URL)),
		otelsql.WithQueryFormatter(traceQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	maxOpen := opts.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	lifetime := opts.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = defaultConnMaxLifetime
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen / 2)
	db.SetConnMaxLifetime(lifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NormalizeURL adds binary_parameters=yes to a URL or key/value DSN unless
// the caller already set it.
func NormalizeURL(raw string, binaryParameters bool) string {
	trimmed := strings.TrimSpace(raw)
	if !binaryParameters || trimmed == "" {
		return raw
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" {
		if strings.Contains(trimmed, binaryParametersParam+"=") {
			return raw
		}
		return trimmed + " " + binaryParametersParam + "=yes"
	}

	query := parsed.Query()
	if query.Get(binaryParametersParam) != "" {
		return raw
	}
	query.Set(binaryParametersParam, "yes")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// DatabaseName extracts the database from a URL path or a dbname= pair.
func DatabaseName(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if parsed, err := url.Parse(trimmed); err == nil && parsed.Scheme != "" {
		return strings.TrimPrefix(parsed.Path, "/")
	}
	for _, field := range strings.Fields(trimmed) {
		if name, ok := strings.CutPrefix(field, "dbname="); ok {
			return strings.Trim(name, `"'`)
		}
	}
	return ""
}

// traceQuery flattens a statement onto one bounded line for span attributes.
func traceQuery(query string) string {
	flat := strings.Join(strings.Fields(query), " ")
	flat = strings.TrimSuffix(flat, ";")
	if len(flat) > maxTracedQueryLength {
		return flat[:maxTracedQueryLength] + "..."
	}
	return flat
}

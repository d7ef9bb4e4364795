// Package history keeps a record of conversions in SQLite or PostgreSQL.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/akila/convert-api/models"
)

const schema = `CREATE TABLE IF NOT EXISTS conversions (
	id            TEXT PRIMARY KEY,
	original_name TEXT NOT NULL,
	input_format  TEXT NOT NULL,
	output_format TEXT NOT NULL,
	input_size    BIGINT NOT NULL,
	output_size   BIGINT NOT NULL,
	status        TEXT NOT NULL,
	error         TEXT NOT NULL DEFAULT '',
	duration_ms   BIGINT NOT NULL,
	created_at    TIMESTAMP NOT NULL
)`

// Store is a conversion log backed by database/sql.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to dsn. postgres:// and postgresql:// URLs use PostgreSQL;
// anything else is a SQLite path, optionally prefixed with sqlite://.
func Open(ctx context.Context, dsn string) (*Store, error) {
	driver, source := parseDSN(dsn)
	if source == "" {
		return nil, errors.New("history: empty database url")
	}
	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}
	s := &Store{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func parseDSN(dsn string) (driver, source string) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite3", strings.TrimPrefix(dsn, "sqlite://")
	default:
		return "sqlite3", dsn
	}
}

func (s *Store) migrate(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("history: connect: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("history: create schema: %w", err)
	}
	return nil
}

// Driver is the database/sql driver in use.
func (s *Store) Driver() string {
	return s.driver
}

// Record stores one conversion.
func (s *Store) Record(ctx context.Context, rec models.ConversionRecord) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO conversions
		(id, original_name, input_format, output_format, input_size, output_size, status, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.ID, rec.OriginalName, rec.InputFormat, rec.OutputFormat, rec.InputSize, rec.OutputSize,
		rec.Status, rec.Error, rec.Duration.Milliseconds(), rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("history: record %s: %w", rec.ID, err)
	}
	return nil
}

// Recent returns up to limit conversions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]models.ConversionRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT
		id, original_name, input_format, output_format, input_size, output_size, status, error, duration_ms, created_at
		FROM conversions ORDER BY created_at DESC, id LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var out []models.ConversionRecord
	for rows.Next() {
		var (
			rec        models.ConversionRecord
			durationMS int64
		)
		if err := rows.Scan(&rec.ID, &rec.OriginalName, &rec.InputFormat, &rec.OutputFormat,
			&rec.InputSize, &rec.OutputSize, &rec.Status, &rec.Error, &durationMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders as $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

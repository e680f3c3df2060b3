// Package sqlstore implements the record-store interfaces on top of
// database/sql. PostgreSQL (with pgvector feature columns) and MySQL are
// supported; the driver is picked from the connection string.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/aliyuchatgptt/falgates/internal/config"
)

const (
	driverPostgres = "postgres"
	driverMySQL    = "mysql"
)

// FeatureVectorDim is the fixed dimension of staff feature vectors. The
// pgvector column is declared with this width, so it cannot vary per row.
const FeatureVectorDim = 512

// Store is a SQL-backed implementation of the staff, check-in and settings
// stores. A single Store value serves all three interfaces.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database named by cfg.URL and verifies the
// connection. URLs with a postgres:// or postgresql:// scheme use the
// PostgreSQL driver; anything else is treated as a MySQL DSN.
func Open(cfg *config.DatabaseConfig) (*Store, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, errors.New("database URL is required")
	}

	driver := driverMySQL
	if strings.HasPrefix(cfg.URL, "postgres://") || strings.HasPrefix(cfg.URL, "postgresql://") {
		driver = driverPostgres
	}

	db, err := sql.Open(driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, driver: driver}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// DB returns the underlying sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// q rewrites $N placeholders to ? for the MySQL driver. Queries are written
// once in PostgreSQL style; arguments must appear in positional order so the
// rewrite stays a straight substitution.
func (s *Store) q(query string) string {
	if s.driver == driverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		if query[i] != '$' {
			b.WriteByte(query[i])
			continue
		}
		j := i + 1
		for j < len(query) && query[j] >= '0' && query[j] <= '9' {
			j++
		}
		if j == i+1 {
			b.WriteByte(query[i])
			continue
		}
		b.WriteByte('?')
		i = j - 1
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	result, err := s.db.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("executing statement: %w", err)
	}
	return result, nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	return rows, nil
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.q(query), args...)
}

func (s *Store) beginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return tx, nil
}

// vectorColumn is the DDL type for the feature vector column, which differs
// between the two backends. MySQL stores the vector as a JSON array.
func vectorColumn(driver string) string {
	if driver == driverPostgres {
		return "vector(" + strconv.Itoa(FeatureVectorDim) + ")"
	}
	return "TEXT"
}

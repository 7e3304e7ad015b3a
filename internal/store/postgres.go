package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTable holds the documents of a PostgresStore.
const DefaultTable = "emr_launch_documents"

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// PostgresStore keeps documents as jsonb rows keyed by kind, namespace and
// name.
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresStore connects and creates the document table when missing.
func NewPostgresStore(ctx context.Context, connStr, table string) (*PostgresStore, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	cfg.MaxConns = 4
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging PostgreSQL: %w", err)
	}

	s := &PostgresStore{pool: pool, table: table}
	if _, err := pool.Exec(ctx, s.createTableSQL()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating table %s: %w", table, err)
	}
	return s, nil
}

func (s *PostgresStore) createTableSQL() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	kind       text NOT NULL,
	namespace  text NOT NULL,
	name       text NOT NULL,
	body       jsonb NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (kind, namespace, name)
)`, s.table)
}

func (s *PostgresStore) Get(ctx context.Context, key Key) (Document, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	var body []byte
	sql := fmt.Sprintf("SELECT body FROM %s WHERE kind = $1 AND namespace = $2 AND name = $3", s.table)
	err := s.pool.QueryRow(ctx, sql, string(key.Kind), key.Namespace, key.Name).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return doc, nil
}

func (s *PostgresStore) Put(ctx context.Context, key Key, doc Document) error {
	if err := key.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	sql := fmt.Sprintf(`INSERT INTO %s (kind, namespace, name, body) VALUES ($1, $2, $3, $4)
ON CONFLICT (kind, namespace, name) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`, s.table)
	if _, err := s.pool.Exec(ctx, sql, string(key.Kind), key.Namespace, key.Name, string(body)); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, kind Kind, namespace string) ([]string, error) {
	sql := fmt.Sprintf("SELECT name FROM %s WHERE kind = $1 AND namespace = $2 ORDER BY name", s.table)
	rows, err := s.pool.Query(ctx, sql, string(kind), namespace)
	if err != nil {
		return nil, fmt.Errorf("listing %s/%s: %w", kind, namespace, err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("listing %s/%s: %w", kind, namespace, err)
	}
	return names, nil
}

func (s *PostgresStore) Close(context.Context) error {
	s.pool.Close()
	return nil
}

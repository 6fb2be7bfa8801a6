package docstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/trezcool/copo/core"
)

//go:embed migrations
var migrationsFS embed.FS

// Dialect is a SQL database able to hold JSON documents.
type Dialect struct {
	Name   string // goose dialect
	Driver string
	Dir    string // migrations directory

	eq       func(field string) string
	contains func(field string) string
}

var (
	Postgres = Dialect{
		Name:   "postgres",
		Driver: "postgres",
		Dir:    "migrations/postgres",
		eq: func(field string) string {
			return fmt.Sprintf("doc->>'%s' = ?", field)
		},
		contains: func(field string) string {
			return fmt.Sprintf("doc->'%s' @> jsonb_build_array(?::text)", field)
		},
	}

	SQLite = Dialect{
		Name:   "sqlite3",
		Driver: "sqlite",
		Dir:    "migrations/sqlite",
		eq: func(field string) string {
			return fmt.Sprintf("json_extract(doc, '$.%s') = ?", field)
		},
		contains: func(field string) string {
			return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(doc, '$.%s') WHERE json_each.value = ?)", field)
		},
	}
)

// SQLStore keeps every collection in one `documents` table.
type SQLStore struct {
	db      *sqlx.DB
	dialect Dialect
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore wraps an open database. The schema must already be migrated (see Migrate).
func NewSQLStore(db *sqlx.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// DB exposes the underlying database, for migrations.
func (s *SQLStore) DB() *sql.DB { return s.db.DB }

func (s *SQLStore) Dialect() Dialect { return s.dialect }

// Migrate brings the documents schema up to date.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(dialect.Name); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	if err := goose.UpContext(ctx, db, dialect.Dir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// RunMigrations runs a goose command (up, down, status, version, ...) against the documents schema.
func RunMigrations(ctx context.Context, db *sql.DB, dialect Dialect, command string, args ...string) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(dialect.Name); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	return goose.RunContext(ctx, command, db, dialect.Dir, args...)
}

func (s *SQLStore) Insert(ctx context.Context, collection, id string, doc interface{}) error {
	raw, err := encode(doc)
	if err != nil {
		return err
	}
	q := s.db.Rebind(`INSERT INTO documents (collection, id, doc) VALUES (?, ?, ?)
		ON CONFLICT (collection, id) DO NOTHING`)
	res, err := s.db.ExecContext(ctx, q, collection, id, string(raw))
	if err != nil {
		return errors.Wrap(err, "inserting document")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "inserting document")
	}
	if n == 0 {
		return ErrDuplicateID
	}
	return nil
}

func (s *SQLStore) Put(ctx context.Context, collection, id string, doc interface{}) error {
	raw, err := encode(doc)
	if err != nil {
		return err
	}
	q := s.db.Rebind(`INSERT INTO documents (collection, id, doc) VALUES (?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET doc = excluded.doc`)
	_, err = s.db.ExecContext(ctx, q, collection, id, string(raw))
	return errors.Wrap(err, "upserting document")
}

func (s *SQLStore) Get(ctx context.Context, collection, id string, out interface{}) error {
	var raw []byte
	q := s.db.Rebind(`SELECT doc FROM documents WHERE collection = ? AND id = ?`)
	if err := s.db.GetContext(ctx, &raw, q, collection, id); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return errors.Wrap(err, "selecting document")
	}
	return errors.Wrap(json.Unmarshal(raw, out), "decoding document")
}

func (s *SQLStore) FindOne(ctx context.Context, collection string, out interface{}, filters ...Filter) error {
	docs, err := s.find(ctx, collection, filters, 1)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return ErrNotFound
	}
	return errors.Wrap(json.Unmarshal(docs[0], out), "decoding document")
}

func (s *SQLStore) Find(ctx context.Context, collection string, out interface{}, filters ...Filter) error {
	docs, err := s.find(ctx, collection, filters, 0)
	if err != nil {
		return err
	}
	return decodeList(docs, out)
}

func (s *SQLStore) find(ctx context.Context, collection string, filters []Filter, limit int) ([][]byte, error) {
	if err := checkFilters(filters); err != nil {
		return nil, err
	}

	where := []string{"collection = ?"}
	args := []interface{}{collection}
	for _, f := range filters {
		switch f.op {
		case opEq:
			where = append(where, s.dialect.eq(f.Field))
		case opContains:
			where = append(where, s.dialect.contains(f.Field))
		}
		args = append(args, f.Value)
	}
	q := "SELECT doc FROM documents WHERE " + strings.Join(where, " AND ") + " ORDER BY seq"
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	var docs [][]byte
	if err := s.db.SelectContext(ctx, &docs, s.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting documents")
	}
	return docs, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// OpenPostgres connects to the configured postgres server, waits for it and migrates the schema.
func OpenPostgres(ctx context.Context, conf *core.Config) (*SQLStore, error) {
	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(conf.Database.User, conf.Database.Password),
		Host:     conf.Database.Address(),
		Path:     conf.Database.Name,
		RawQuery: q.Encode(),
	}
	return openSQL(ctx, Postgres, u.String())
}

// OpenSQLite opens (or creates) the sqlite file at path and migrates the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	return openSQL(ctx, SQLite, dsn)
}

func openSQL(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	db, err := sqlx.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if dialect.Driver == SQLite.Driver {
		db.SetMaxOpenConns(1) // single writer
	}
	if err = ping(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err = Migrate(ctx, db.DB, dialect); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLStore(db, dialect), nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, db *sql.DB) error {
	var err error
	maxAttempts := 20
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

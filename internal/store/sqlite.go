package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/qustavo/dotsql"
	_ "modernc.org/sqlite"

	"github.com/fieldline/engine/pkg/api"
)

//go:embed queries.sql
var queriesSQL string

// SQLite is a definition store backed by a single sqlite database file.
// Named queries live in queries.sql and are resolved through dotsql
type SQLite struct {
	db  *sqlx.DB
	dot *dotsql.DotSql
}

// NewSQLite opens (or creates) the database at path and ensures the
// workflows table exists
func NewSQLite(path string) (*SQLite, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}

	// modernc's driver serializes writes per connection; a single
	// connection avoids SQLITE_BUSY under concurrent writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}

	dot, err := dotsql.LoadFromString(queriesSQL)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("parsing queries: %w", err)
	}

	s := &SQLite{db: db, dot: dot}
	if err := s.exec(
		context.Background(), "create-workflows-table",
	); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) Put(ctx context.Context, wf *api.Workflow) error {
	data, err := encode(wf)
	if err != nil {
		return err
	}
	return s.exec(
		ctx, "upsert-workflow", string(wf.ID), wf.Name, string(data),
	)
}

func (s *SQLite) Get(
	ctx context.Context, id api.WorkflowID,
) (*api.Workflow, error) {
	query, err := s.query("get-workflow")
	if err != nil {
		return nil, err
	}
	var definition string
	err = s.db.GetContext(ctx, &definition, query, string(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decode([]byte(definition))
}

func (s *SQLite) Delete(ctx context.Context, id api.WorkflowID) error {
	query, err := s.query("delete-workflow")
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, string(id))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]*api.Workflow, error) {
	query, err := s.query("list-workflows")
	if err != nil {
		return nil, err
	}
	var definitions []string
	if err := s.db.SelectContext(ctx, &definitions, query); err != nil {
		return nil, err
	}
	workflows := make([]*api.Workflow, 0, len(definitions))
	for _, definition := range definitions {
		wf, err := decode([]byte(definition))
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, wf)
	}
	return workflows, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) query(name string) (string, error) {
	query, err := s.dot.Raw(name)
	if err != nil {
		return "", fmt.Errorf("query not found: %s", name)
	}
	return query, nil
}

func (s *SQLite) exec(ctx context.Context, name string, args ...any) error {
	query, err := s.query(name)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

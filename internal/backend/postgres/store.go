// Package postgres implementa o TableStore sobre o Postgres do backend via pgx.
package postgres

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/juju/errors"

	"github.com/gestao-concessionaria-api/internal/backend"
)

// DB é o subconjunto de *pgxpool.Pool usado pelo store
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Store struct {
	db DB
}

func New(db DB) *Store {
	return &Store{db: db}
}

func (s *Store) Select(ctx context.Context, q *backend.Query) ([]backend.Row, int, error) {
	sql, args, err := buildSelect(q)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.query(ctx, sql, args...)
	if err != nil {
		return nil, 0, errors.Annotatef(err, "select %s", q.Table)
	}
	if !q.HasRange {
		return rows, len(rows), nil
	}
	total, err := s.Count(ctx, q.Unranged())
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *Store) Count(ctx context.Context, q *backend.Query) (int, error) {
	sql, args, err := buildCount(q)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, errors.Annotatef(mapError(err), "count %s", q.Table)
	}
	return int(n), nil
}

func (s *Store) Insert(ctx context.Context, tbl string, values backend.Row) (backend.Row, error) {
	sql, args := buildInsert(tbl, values)
	rows, err := s.query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Annotatef(err, "insert %s", tbl)
	}
	if len(rows) == 0 {
		return nil, errors.Errorf("insert %s não retornou linha", tbl)
	}
	return rows[0], nil
}

func (s *Store) Update(ctx context.Context, q *backend.Query, values backend.Row) ([]backend.Row, error) {
	sql, args, err := buildUpdate(q, values)
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Annotatef(err, "update %s", q.Table)
	}
	return rows, nil
}

func (s *Store) Delete(ctx context.Context, q *backend.Query) ([]backend.Row, error) {
	sql, args, err := buildDelete(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Annotatef(err, "delete %s", q.Table)
	}
	return rows, nil
}

// RPC chama uma função SQL com argumentos nomeados (p_<nome>)
func (s *Store) RPC(ctx context.Context, name string, args backend.Row) (any, error) {
	b := &builder{}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	params := make([]string, len(keys))
	for i, k := range keys {
		params[i] = ident("p_"+k) + " => " + b.arg(encode(args[k]))
	}
	sql := "SELECT " + pgx.Identifier{backend.Schema, name}.Sanitize() + "(" + strings.Join(params, ", ") + ")"

	var out any
	if err := s.db.QueryRow(ctx, sql, b.args...).Scan(&out); err != nil {
		return nil, errors.Annotatef(mapError(err), "rpc %s", name)
	}
	return backend.Normalize(normalize(out)), nil
}

func (s *Store) query(ctx context.Context, sql string, args ...any) ([]backend.Row, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]backend.Row, len(maps))
	for i, m := range maps {
		row := make(backend.Row, len(m))
		for k, v := range m {
			row[k] = normalize(v)
		}
		out[i] = row
	}
	return out, nil
}

// normalize converte os tipos do pgx nos tipos esperados pelos modelos
func normalize(v any) any {
	switch t := v.(type) {
	case [16]byte:
		return uuid.UUID(t)
	case pgtype.Numeric:
		if !t.Valid {
			return nil
		}
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case time.Time:
		return t.UTC()
	case int32:
		return int64(t)
	case int16:
		return int64(t)
	}
	return v
}

// encode remove tipos nomeados e ponteiros antes de enviar ao pgx
func encode(v any) any {
	switch v.(type) {
	case nil, uuid.UUID, time.Time, string, int64, float64, bool:
		return v
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return encode(rv.Elem().Interface())
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return v
}

// mapError traduz códigos do Postgres para a taxonomia de erros da aplicação
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		return errors.NewAlreadyExists(err, pgErr.ConstraintName)
	case "23502", "23503", "23514", "22P02", "22023":
		return errors.NewNotValid(err, pgErr.Message)
	case "P0002":
		return errors.NewNotFound(err, pgErr.Message)
	case "42501":
		return errors.NewForbidden(err, pgErr.Message)
	}
	return err
}

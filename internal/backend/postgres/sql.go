package postgres

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/juju/errors"

	"github.com/gestao-concessionaria-api/internal/backend"
)

// builder acumula SQL e argumentos posicionais ($1, $2...)
type builder struct {
	sb   strings.Builder
	args []any
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func table(name string) string {
	return pgx.Identifier{backend.Schema, name}.Sanitize()
}

func (b *builder) where(preds []backend.Predicate) error {
	if len(preds) == 0 {
		return nil
	}
	conds := make([]string, 0, len(preds))
	for _, p := range preds {
		cond, err := b.predicate(p)
		if err != nil {
			return err
		}
		conds = append(conds, cond)
	}
	b.sb.WriteString(" WHERE ")
	b.sb.WriteString(strings.Join(conds, " AND "))
	return nil
}

func (b *builder) predicate(p backend.Predicate) (string, error) {
	if p.IsGroup() {
		alts := make([]string, 0, len(p.Any))
		for _, alt := range p.Any {
			cond, err := b.predicate(alt)
			if err != nil {
				return "", err
			}
			alts = append(alts, cond)
		}
		return "(" + strings.Join(alts, " OR ") + ")", nil
	}

	col := ident(p.Column)
	switch p.Op {
	case backend.OpEq:
		return col + " = " + b.arg(encode(p.Value)), nil
	case backend.OpNeq:
		return col + " <> " + b.arg(encode(p.Value)), nil
	case backend.OpGte:
		return col + " >= " + b.arg(encode(p.Value)), nil
	case backend.OpLte:
		return col + " <= " + b.arg(encode(p.Value)), nil
	case backend.OpILike:
		return col + "::text ILIKE " + b.arg(p.Value), nil
	case backend.OpIsNil:
		return col + " IS NULL", nil
	case backend.OpIn:
		values, ok := p.Value.([]any)
		if !ok {
			return "", errors.NotValidf("valor de in para %s", p.Column)
		}
		if len(values) == 0 {
			return "FALSE", nil
		}
		ph := make([]string, len(values))
		for i, v := range values {
			ph[i] = b.arg(encode(v))
		}
		return col + " IN (" + strings.Join(ph, ", ") + ")", nil
	}
	return "", errors.NotValidf("operador %q", p.Op)
}

func (b *builder) orderAndRange(q *backend.Query) {
	if len(q.Orders) > 0 {
		parts := make([]string, len(q.Orders))
		for i, o := range q.Orders {
			dir := "DESC"
			if o.Ascending {
				dir = "ASC"
			}
			parts[i] = ident(o.Column) + " " + dir
		}
		b.sb.WriteString(" ORDER BY ")
		b.sb.WriteString(strings.Join(parts, ", "))
	}
	if q.HasRange {
		fmt.Fprintf(&b.sb, " LIMIT %d OFFSET %d", q.Limit(), q.From)
	}
}

func buildSelect(q *backend.Query) (string, []any, error) {
	b := &builder{}
	b.sb.WriteString("SELECT * FROM " + table(q.Table))
	if err := b.where(q.Filters); err != nil {
		return "", nil, err
	}
	b.orderAndRange(q)
	return b.sb.String(), b.args, nil
}

func buildCount(q *backend.Query) (string, []any, error) {
	b := &builder{}
	b.sb.WriteString("SELECT count(*) FROM " + table(q.Table))
	if err := b.where(q.Filters); err != nil {
		return "", nil, err
	}
	return b.sb.String(), b.args, nil
}

func buildInsert(tbl string, values backend.Row) (string, []any) {
	b := &builder{}
	cols := sortedKeys(values)
	if len(cols) == 0 {
		return "INSERT INTO " + table(tbl) + " DEFAULT VALUES RETURNING *", nil
	}
	names := make([]string, len(cols))
	ph := make([]string, len(cols))
	for i, col := range cols {
		names[i] = ident(col)
		ph[i] = b.arg(encode(values[col]))
	}
	fmt.Fprintf(&b.sb, "INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		table(tbl), strings.Join(names, ", "), strings.Join(ph, ", "))
	return b.sb.String(), b.args
}

func buildUpdate(q *backend.Query, values backend.Row) (string, []any, error) {
	b := &builder{}
	cols := sortedKeys(values)
	sets := make([]string, 0, len(cols)+1)
	touched := false
	for _, col := range cols {
		if col == "id" {
			continue
		}
		if col == "updated_at" {
			touched = true
		}
		sets = append(sets, ident(col)+" = "+b.arg(encode(values[col])))
	}
	if !touched {
		sets = append(sets, ident("updated_at")+" = now()")
	}
	b.sb.WriteString("UPDATE " + table(q.Table) + " SET " + strings.Join(sets, ", "))
	if err := b.where(q.Filters); err != nil {
		return "", nil, err
	}
	b.sb.WriteString(" RETURNING *")
	return b.sb.String(), b.args, nil
}

func buildDelete(q *backend.Query) (string, []any, error) {
	b := &builder{}
	b.sb.WriteString("DELETE FROM " + table(q.Table))
	if err := b.where(q.Filters); err != nil {
		return "", nil, err
	}
	b.sb.WriteString(" RETURNING *")
	return b.sb.String(), b.args, nil
}

func sortedKeys(r backend.Row) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

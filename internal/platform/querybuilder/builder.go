// Package querybuilder renders PostgreSQL statements with $n placeholders.
// It covers the shapes the repositories need: filtered selects with row
// locks, multi-row inserts with ON CONFLICT upserts, and RETURNING clauses.
package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// Condition renders one predicate of a WHERE clause.
type Condition interface {
	appendSQL(w *writer)
}

type compareCondition struct {
	column string
	op     string
	value  any
}

func Eq(column string, value any) Condition {
	return compareCondition{column: column, op: "=", value: value}
}

func NotEq(column string, value any) Condition {
	return compareCondition{column: column, op: "<>", value: value}
}

func (c compareCondition) appendSQL(w *writer) {
	w.str(c.column, " ", c.op, " ")
	w.bind(c.value)
}

type exprCondition struct {
	expr string
	args []any
}

// Expr renders a raw expression, rewriting each `?` into the next `$n`.
func Expr(expr string, args ...any) Condition {
	return exprCondition{expr: expr, args: args}
}

func (c exprCondition) appendSQL(w *writer) {
	next := 0
	for i := 0; i < len(c.expr); i++ {
		if c.expr[i] != '?' || next >= len(c.args) {
			w.buf.WriteByte(c.expr[i])
			continue
		}
		w.bind(c.args[next])
		next++
	}
}

type SelectBuilder struct {
	columns   []string
	table     string
	where     []Condition
	orderBy   []string
	limit     int
	forUpdate bool
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

// ForUpdate locks the selected rows until the transaction ends.
func (b *SelectBuilder) ForUpdate() *SelectBuilder {
	b.forUpdate = true
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	w := newWriter(len(b.where))
	w.str("SELECT ", strings.Join(b.columns, ", "), " FROM ", b.table)
	w.where(b.where)
	if len(b.orderBy) > 0 {
		w.str(" ORDER BY ", strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		w.str(" LIMIT ", strconv.Itoa(b.limit))
	}
	if b.forUpdate {
		w.str(" FOR UPDATE")
	}
	return w.result()
}

// Assignment is one `column = expr` pair of an ON CONFLICT DO UPDATE.
type Assignment struct {
	Column string
	Expr   string
}

// Excluded takes the proposed row's value for column.
func Excluded(column string) Assignment {
	return Assignment{Column: column, Expr: "EXCLUDED." + column}
}

// KeepExisting takes the proposed value unless it is NULL.
func KeepExisting(table, column string) Assignment {
	return Assignment{Column: column, Expr: "COALESCE(EXCLUDED." + column + ", " + table + "." + column + ")"}
}

type conflictClause struct {
	target  []string
	updates []Assignment
	where   string
}

type InsertBuilder struct {
	table     string
	columns   []string
	rows      [][]any
	conflict  *conflictClause
	returning []string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

// Values adds one row; call it repeatedly for multi-row inserts.
func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

// OnConflictDoNothing skips rows that collide on target.
func (b *InsertBuilder) OnConflictDoNothing(target ...string) *InsertBuilder {
	b.conflict = &conflictClause{target: target}
	return b
}

// OnConflictDoUpdate turns the insert into an upsert keyed by target.
func (b *InsertBuilder) OnConflictDoUpdate(target []string, updates ...Assignment) *InsertBuilder {
	b.conflict = &conflictClause{target: target, updates: updates}
	return b
}

// ConflictWhere limits an OnConflictDoUpdate to existing rows matching expr.
// Rows that fail it are neither updated nor returned.
func (b *InsertBuilder) ConflictWhere(expr string) *InsertBuilder {
	if b.conflict == nil {
		b.conflict = &conflictClause{}
	}
	b.conflict.where = strings.TrimSpace(expr)
	return b
}

func (b *InsertBuilder) Returning(columns ...string) *InsertBuilder {
	b.returning = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("insert columns are required")
	}
	if len(b.rows) == 0 {
		return "", nil, fmt.Errorf("insert values are required")
	}

	w := newWriter(len(b.rows) * len(b.columns))
	w.str("INSERT INTO ", b.table, " (", strings.Join(b.columns, ", "), ") VALUES ")
	for rowIdx, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", rowIdx, len(row), len(b.columns))
		}
		if rowIdx > 0 {
			w.str(", ")
		}
		w.str("(")
		for colIdx, value := range row {
			if colIdx > 0 {
				w.str(", ")
			}
			w.bind(value)
		}
		w.str(")")
	}

	if c := b.conflict; c != nil {
		if len(c.target) == 0 {
			return "", nil, fmt.Errorf("conflict target is required")
		}
		w.str(" ON CONFLICT (", strings.Join(c.target, ", "), ")")
		if len(c.updates) == 0 {
			if c.where != "" {
				return "", nil, fmt.Errorf("conflict where requires do update")
			}
			w.str(" DO NOTHING")
		} else {
			w.str(" DO UPDATE SET ")
			for i, a := range c.updates {
				if i > 0 {
					w.str(", ")
				}
				w.str(a.Column, " = ", a.Expr)
			}
			if c.where != "" {
				w.str(" WHERE ", c.where)
			}
		}
	}
	w.returning(b.returning)
	return w.result()
}

type setClause struct {
	column string
	value  any
	expr   *exprCondition
}

type UpdateBuilder struct {
	table     string
	sets      []setClause
	where     []Condition
	returning []string
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, setClause{column: column, value: value})
	return b
}

// SetExpr assigns a raw expression; `?` placeholders bind args in order.
func (b *UpdateBuilder) SetExpr(column, expr string, args ...any) *UpdateBuilder {
	b.sets = append(b.sets, setClause{column: column, expr: &exprCondition{expr: expr, args: args}})
	return b
}

func (b *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *UpdateBuilder) Returning(columns ...string) *UpdateBuilder {
	b.returning = append([]string(nil), columns...)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("update table is required")
	}
	if len(b.sets) == 0 {
		return "", nil, fmt.Errorf("update sets are required")
	}
	// Unfiltered updates are never what a repository means.
	if len(b.where) == 0 {
		return "", nil, fmt.Errorf("update without where clause")
	}

	w := newWriter(len(b.sets) + len(b.where))
	w.str("UPDATE ", b.table, " SET ")
	for i, s := range b.sets {
		if i > 0 {
			w.str(", ")
		}
		w.str(s.column, " = ")
		if s.expr != nil {
			s.expr.appendSQL(w)
			continue
		}
		w.bind(s.value)
	}
	w.where(b.where)
	w.returning(b.returning)
	return w.result()
}

type writer struct {
	buf  strings.Builder
	args []any
}

func newWriter(argCap int) *writer {
	return &writer{args: make([]any, 0, argCap)}
}

func (w *writer) str(parts ...string) {
	for _, p := range parts {
		w.buf.WriteString(p)
	}
}

func (w *writer) bind(value any) {
	w.args = append(w.args, value)
	w.str("$", strconv.Itoa(len(w.args)))
}

func (w *writer) where(conditions []Condition) {
	for i, c := range conditions {
		if i == 0 {
			w.str(" WHERE ")
		} else {
			w.str(" AND ")
		}
		c.appendSQL(w)
	}
}

func (w *writer) returning(columns []string) {
	if len(columns) > 0 {
		w.str(" RETURNING ", strings.Join(columns, ", "))
	}
}

func (w *writer) result() (string, []any, error) {
	return w.buf.String(), w.args, nil
}

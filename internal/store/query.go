package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// softDeletable lists the tables that carry a deleted_at column. Reads
// against these tables are rewritten to exclude deleted rows, and deletes
// are rewritten to timestamp updates. Session and token tables are absent
// on purpose: their rows end by revocation or consumption, not deletion.
var softDeletable = map[string]bool{
	"users":             true,
	"customers":         true,
	"properties":        true,
	"services":          true,
	"bookings":          true,
	"leads":             true,
	"notifications":     true,
	"booking_summaries": true,
}

// Where accumulates SQL predicates joined with AND. The zero value is
// usable; an empty Where renders no WHERE clause at all.
type Where struct {
	conds []string
	args  []any
	cols  map[string]bool
}

func NewWhere() *Where {
	return &Where{}
}

func (w *Where) add(col, cond string, args ...any) *Where {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
	if w.cols == nil {
		w.cols = make(map[string]bool)
	}
	w.cols[col] = true
	return w
}

func (w *Where) Eq(col string, v any) *Where      { return w.add(col, col+" = ?", v) }
func (w *Where) Gt(col string, v any) *Where      { return w.add(col, col+" > ?", v) }
func (w *Where) Gte(col string, v any) *Where     { return w.add(col, col+" >= ?", v) }
func (w *Where) Lt(col string, v any) *Where      { return w.add(col, col+" < ?", v) }
func (w *Where) Lte(col string, v any) *Where     { return w.add(col, col+" <= ?", v) }
func (w *Where) Like(col, pattern string) *Where  { return w.add(col, col+" LIKE ?", pattern) }
func (w *Where) Null(col string) *Where           { return w.add(col, col+" IS NULL") }
func (w *Where) NotNull(col string) *Where        { return w.add(col, col+" IS NOT NULL") }

// Or adds a single predicate matching any of the given column LIKE pattern
// pairs. Used by the search specializations.
func (w *Where) Or(pattern string, cols ...string) *Where {
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = col + " LIKE ?"
		w.args = append(w.args, pattern)
		if w.cols == nil {
			w.cols = make(map[string]bool)
		}
		w.cols[col] = true
	}
	w.conds = append(w.conds, "("+strings.Join(parts, " OR ")+")")
	return w
}

// After adds a keyset-pagination predicate selecting rows strictly after
// (v, id) when ordering ascending on col with id as tiebreaker.
func (w *Where) After(col string, v any, id int64) *Where {
	return w.add(col, "("+col+" > ? OR ("+col+" = ? AND id > ?))", v, v, id)
}

// Before is the descending-order counterpart of After.
func (w *Where) Before(col string, v any, id int64) *Where {
	return w.add(col, "("+col+" < ? OR ("+col+" = ? AND id < ?))", v, v, id)
}

// Empty reports whether the Where contributes no predicates.
func (w *Where) Empty() bool {
	return w == nil || len(w.conds) == 0
}

// References reports whether any predicate touches the given column.
// A Where that references deleted_at is trusted verbatim by the
// interceptor: explicit caller intent wins over the default filter.
func (w *Where) References(col string) bool {
	return w != nil && w.cols[col]
}

// Clause renders the predicates as a WHERE clause (with leading space),
// or an empty string when there are none.
func (w *Where) Clause() (string, []any) {
	if w.Empty() {
		return "", nil
	}
	return " WHERE " + strings.Join(w.conds, " AND "), w.args
}

// DB wraps *sql.DB and makes every table in softDeletable transparently
// soft-delete aware: Select/SelectRow/CountRows exclude deleted rows unless
// the caller filters on deleted_at explicitly, and SoftDelete stamps
// deleted_at instead of removing rows. Everything else passes through to
// the embedded handle unchanged, as do all driver errors.
type DB struct {
	*sql.DB
}

func NewDB(db *sql.DB) *DB {
	return &DB{DB: db}
}

// rewrite appends the not-deleted condition for soft-deletable tables.
// The caller's Where is left untouched; the rendered clause gets the extra
// predicate appended to its AND list.
func (d *DB) rewrite(table string, w *Where) (string, []any) {
	clause, args := w.Clause()
	if !softDeletable[table] || w.References("deleted_at") {
		return clause, args
	}
	if clause == "" {
		return " WHERE deleted_at IS NULL", nil
	}
	return clause + " AND deleted_at IS NULL", args
}

// Select runs a filtered multi-row read. tail carries ORDER BY / LIMIT.
func (d *DB) Select(table, cols string, w *Where, tail string) (*sql.Rows, error) {
	clause, args := d.rewrite(table, w)
	q := `SELECT ` + cols + ` FROM ` + table + clause
	if tail != "" {
		q += " " + tail
	}
	return d.Query(q, args...)
}

// SelectRow runs a single-row read. A row that exists but is soft-deleted
// behaves as not found.
func (d *DB) SelectRow(table, cols string, w *Where) *sql.Row {
	clause, args := d.rewrite(table, w)
	return d.QueryRow(`SELECT `+cols+` FROM `+table+clause, args...)
}

// SelectRowAny is the include-deleted escape hatch for single-row reads.
// Restore paths and cursor resolution use it; nothing else should.
func (d *DB) SelectRowAny(table, cols string, w *Where) *sql.Row {
	clause, args := w.Clause()
	return d.QueryRow(`SELECT `+cols+` FROM `+table+clause, args...)
}

// CountRows counts rows visible under the default filter.
func (d *DB) CountRows(table string, w *Where) (int64, error) {
	clause, args := d.rewrite(table, w)
	var n int64
	err := d.QueryRow(`SELECT COUNT(*) FROM `+table+clause, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// SoftDelete marks the matching not-yet-deleted rows as deleted and
// returns how many were affected. Single-row and bulk deletes share this
// path; no physical delete ever runs through it.
func (d *DB) SoftDelete(table string, w *Where) (int64, error) {
	clause, args := d.rewrite(table, w)
	ts := time.Now().UTC()
	res, err := d.Exec(`UPDATE `+table+` SET deleted_at = ?, updated_at = ?`+clause, append([]any{ts, ts}, args...)...)
	if err != nil {
		return 0, fmt.Errorf("soft delete %s: %w", table, err)
	}
	return res.RowsAffected()
}

// Restore clears deleted_at on the matching currently-deleted rows.
func (d *DB) Restore(table string, w *Where) (int64, error) {
	clause, args := w.Clause()
	if !w.References("deleted_at") {
		if clause == "" {
			clause = " WHERE deleted_at IS NOT NULL"
		} else {
			clause += " AND deleted_at IS NOT NULL"
		}
	}
	res, err := d.Exec(`UPDATE `+table+` SET deleted_at = NULL, updated_at = ?`+clause, append([]any{time.Now().UTC()}, args...)...)
	if err != nil {
		return 0, fmt.Errorf("restore %s: %w", table, err)
	}
	return res.RowsAffected()
}

package sqlcommon

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// Dialect abstracts the few places sqlite and postgres SQL diverge:
// placeholder style, insert-id retrieval, and row locking. Queries in
// this package are written with '?' placeholders and rebound on the way
// out.
type Dialect struct {
	// Rebind rewrites '?' placeholders into the driver's native style.
	Rebind func(query string) string
	// UseReturning selects INSERT ... RETURNING id over LastInsertId.
	UseReturning bool
	// ForUpdate is appended to SELECTs that must serialize per-row
	// updates ("" for sqlite, which has a single writer anyway).
	ForUpdate string
}

// Questions is the sqlite dialect: placeholders pass through unchanged.
var Questions = Dialect{
	Rebind: func(q string) string { return q },
}

// Dollars is the postgres dialect: '?' becomes $1..$n.
var Dollars = Dialect{
	Rebind: func(q string) string {
		var b strings.Builder
		n := 0
		for _, r := range q {
			if r == '?' {
				n++
				b.WriteByte('$')
				b.WriteString(strconv.Itoa(n))
				continue
			}
			b.WriteRune(r)
		}
		return b.String()
	},
	UseReturning: true,
	ForUpdate:    " FOR UPDATE",
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// insertID runs an INSERT and returns the new row id in the dialect's way.
func (d Dialect) insertID(ctx context.Context, e execer, query string, args ...any) (int64, error) {
	if d.UseReturning {
		var id int64
		err := e.QueryRowContext(ctx, d.Rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	res, err := e.ExecContext(ctx, d.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// in builds an "col IN (?,?,...)" fragment and appends the values to args.
func in(col string, n int) string {
	return col + " IN (" + strings.TrimSuffix(strings.Repeat("?,", n), ",") + ")"
}

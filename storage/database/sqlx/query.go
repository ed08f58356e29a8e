package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// conditions collects AND'ed WHERE clauses written with `?` bind vars.
// Slice args are expanded by sqlx.In.
type conditions struct {
	clauses []string
	args    []interface{}
}

func (c *conditions) add(clause string, args ...interface{}) {
	c.clauses = append(c.clauses, clause)
	c.args = append(c.args, args...)
}

func (c *conditions) in(column string, values []string) {
	if len(values) > 0 {
		c.add(column+" IN (?)", values)
	}
}

func (c *conditions) String() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// bind expands slice args and rebinds `query` for the db driver.
func bind(db *sqlx.DB, query string, args ...interface{}) (string, []interface{}, error) {
	q, a, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, errors.Wrap(err, "binding query args")
	}
	return db.Rebind(q), a, nil
}

func selectIn(ctx context.Context, db *sqlx.DB, dest interface{}, query string, args ...interface{}) error {
	q, a, err := bind(db, query, args...)
	if err != nil {
		return err
	}
	return db.SelectContext(ctx, dest, q, a...)
}

func execIn(ctx context.Context, ext sqlx.ExtContext, query string, args ...interface{}) (int64, error) {
	q, a, err := sqlx.In(query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "binding query args")
	}
	res, err := ext.ExecContext(ctx, ext.Rebind(q), a...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func likePattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}

// timestamp drops what postgres cannot store.
func timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// withTx runs fn in a transaction, rolled back when fn fails.
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

// store runs ent SQL builder statements on a driver or transaction.
type store struct {
	eq      dialect.ExecQuerier
	dialect string
}

func newStore(drv dialect.Driver) store {
	return store{eq: drv, dialect: drv.Dialect()}
}

func (s store) withTx(tx dialect.Tx) store {
	return store{eq: tx, dialect: s.dialect}
}

func (s store) builder() *sql.DialectBuilder {
	return sql.Dialect(s.dialect)
}

func (s store) query(ctx context.Context, q sql.Querier, scan func(*sql.Rows) error) error {
	query, args := q.Query()
	rows := &sql.Rows{}
	if err := s.eq.Query(ctx, query, args, rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s store) exec(ctx context.Context, q sql.Querier) (int64, error) {
	query, args := q.Query()
	var res sql.Result
	if err := s.eq.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// insert runs b and returns the generated id.
func (s store) insert(ctx context.Context, b *sql.InsertBuilder) (int64, error) {
	if s.dialect == dialect.Postgres {
		var id int64
		err := s.query(ctx, b.Returning("id"), func(rows *sql.Rows) error {
			return rows.Scan(&id)
		})
		return id, err
	}
	query, args := b.Query()
	var res sql.Result
	if err := s.eq.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s store) count(ctx context.Context, sel *sql.Selector) (int64, error) {
	var n int64
	err := s.query(ctx, sel, func(rows *sql.Rows) error {
		return rows.Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	return sqlgraph.IsUniqueConstraintError(err)
}

func isForeignKeyViolation(err error) bool {
	return sqlgraph.IsForeignKeyConstraintError(err)
}

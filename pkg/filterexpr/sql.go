package filterexpr

import (
	"entgo.io/ent/dialect/sql"
	"github.com/samber/lo"
)

// Apply adds the compiled predicates and ordering to s.
func (q *Query) Apply(s *sql.Selector) {
	q.ApplyWhere(s)
	q.ApplyOrder(s)
}

// ApplyWhere adds only the compiled predicates, for count queries.
func (q *Query) ApplyWhere(s *sql.Selector) {
	if q == nil || len(q.Predicates) == 0 {
		return
	}
	s.Where(sql.And(lo.Map(q.Predicates, func(p Predicate, _ int) *sql.Predicate {
		return p.SQL(s)
	})...))
}

// ApplyOrder adds the compiled ordering.
func (q *Query) ApplyOrder(s *sql.Selector) {
	if q == nil {
		return
	}
	for _, term := range q.Order {
		col := s.C(term.Column)
		if term.NullsFirst {
			s.OrderExpr(sql.Expr(col + " IS NULL DESC"))
		}
		if term.Desc {
			s.OrderBy(sql.Desc(col))
		} else {
			s.OrderBy(sql.Asc(col))
		}
	}
}

// SQL renders the predicate for the table selected by s.
func (p Predicate) SQL(s *sql.Selector) *sql.Predicate {
	col := s.C(p.Column)
	switch p.Op {
	case OpGTE:
		return sql.GTE(col, p.Value)
	case OpLTE:
		return sql.LTE(col, p.Value)
	case OpSW:
		return sql.HasPrefix(col, p.Value.(string))
	case OpIN:
		values := p.Value.([]string)
		return sql.In(col, lo.ToAnySlice(values)...)
	default:
		return sql.EQ(col, p.Value)
	}
}

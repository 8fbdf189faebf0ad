package filterexpr

import (
	"errors"
	"strings"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
)

var problemSchema = Schema{
	Fields: map[string]Field{
		"title":          {Column: "title", Kind: KindString, Ops: []Op{OpEQ, OpSW}},
		"difficulty":     {Column: "difficulty", Kind: KindString, Ops: []Op{OpEQ, OpIN}},
		"bucket":         {Column: "bucket", Kind: KindNumber, Ops: []Op{OpEQ, OpGTE, OpLTE}},
		"next_review_at": {Column: "next_review_at", Kind: KindTimestamp, Ops: []Op{OpGTE, OpLTE}},
	},
	Order: OrderSchema{
		Fields: map[string]OrderField{
			"id":             {Column: "id"},
			"title":          {Column: "title"},
			"next_review_at": {Column: "next_review_at", NullsFirst: true},
		},
		Default:  "next_review_at",
		Tiebreak: "id",
	},
}

func TestCompileConjunction(t *testing.T) {
	q, err := Compile(`difficulty == "Hard" && bucket >= 2 && title.startsWith("Two") && next_review_at <= timestamp("2025-01-01T00:00:00Z")`, "", problemSchema)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	if len(q.Predicates) != 4 {
		t.Fatalf("expected 4 predicates, got %d", len(q.Predicates))
	}

	want := []Predicate{
		{Field: "difficulty", Column: "difficulty", Op: OpEQ, Value: "Hard"},
		{Field: "bucket", Column: "bucket", Op: OpGTE, Value: int64(2)},
		{Field: "title", Column: "title", Op: OpSW, Value: "Two"},
	}
	for i, w := range want {
		if q.Predicates[i] != w {
			t.Fatalf("predicate %d: expected %+v, got %+v", i, w, q.Predicates[i])
		}
	}
	ts, ok := q.Predicates[3].Value.(time.Time)
	if !ok || !ts.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp literal %v", q.Predicates[3].Value)
	}
}

func TestCompileInList(t *testing.T) {
	q, err := Compile(`difficulty in ["Easy", "Medium"]`, "", problemSchema)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	got, ok := q.Predicates[0].Value.([]string)
	if !ok || len(got) != 2 || got[0] != "Easy" || got[1] != "Medium" {
		t.Fatalf("unexpected list value %#v", q.Predicates[0].Value)
	}
}

func TestCompileFractionalNumberStaysFloat(t *testing.T) {
	q, err := Compile(`bucket <= 2.5`, "", problemSchema)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	if v, ok := q.Predicates[0].Value.(float64); !ok || v != 2.5 {
		t.Fatalf("expected float 2.5, got %#v", q.Predicates[0].Value)
	}
}

func TestCompileErrors(t *testing.T) {
	cases := map[string]string{
		"unknown field":     `topic == "graphs"`,
		"operator":          `title >= "A"`,
		"or":                `bucket == 1 || bucket == 2`,
		"negation":          `!(bucket == 1)`,
		"wrong kind":        `bucket == "two"`,
		"syntax":            `bucket ==`,
		"identifier on rhs": `bucket == bucket`,
		"bad timestamp":     `next_review_at >= timestamp("yesterday")`,
	}
	for name, filter := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Compile(filter, "", problemSchema)
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid for %q, got %v", filter, err)
			}
		})
	}
}

func TestCompileOrder(t *testing.T) {
	q, err := Compile("", "", problemSchema)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	want := []OrderTerm{{Column: "next_review_at", NullsFirst: true}, {Column: "id"}}
	if len(q.Order) != len(want) || q.Order[0] != want[0] || q.Order[1] != want[1] {
		t.Fatalf("expected default order %+v, got %+v", want, q.Order)
	}

	q, err = Compile("", "title desc, id", problemSchema)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	want = []OrderTerm{{Column: "title", Desc: true}, {Column: "id"}}
	if len(q.Order) != len(want) || q.Order[0] != want[0] || q.Order[1] != want[1] {
		t.Fatalf("expected %+v, got %+v", want, q.Order)
	}

	for _, raw := range []string{"bucket", "title sideways", "title, title", "title asc extra"} {
		if _, err := Compile("", raw, problemSchema); !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid for order_by %q, got %v", raw, err)
		}
	}
}

func TestApplyRendersSQL(t *testing.T) {
	q, err := Compile(`difficulty in ["Easy", "Hard"] && bucket >= 1`, "title", problemSchema)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	s := sql.Dialect(dialect.Postgres).Select("*").From(sql.Table("problems"))
	q.Apply(s)
	query, args := s.Query()

	for _, fragment := range []string{`"difficulty" IN ($1, $2)`, `"bucket" >= $3`, "ORDER BY", `"title"`, `"id"`} {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected %q in %s", fragment, query)
		}
	}
	if len(args) != 3 || args[0] != "Easy" || args[1] != "Hard" || args[2] != int64(1) {
		t.Fatalf("unexpected args %#v", args)
	}
}

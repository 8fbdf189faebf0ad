package repository

import "github.com/eslsoft/dsasheet/pkg/filterexpr"

var listProblemsSchema = filterexpr.Schema{
	Fields: map[string]filterexpr.Field{
		"title": {
			Column: "title",
			Kind:   filterexpr.KindString,
			Ops:    []filterexpr.Op{filterexpr.OpEQ, filterexpr.OpSW},
		},
		"difficulty": {
			Column: "difficulty",
			Kind:   filterexpr.KindString,
			Ops:    []filterexpr.Op{filterexpr.OpEQ, filterexpr.OpIN},
		},
		"topic": {
			Column: "topic",
			Kind:   filterexpr.KindString,
			Ops:    []filterexpr.Op{filterexpr.OpEQ, filterexpr.OpIN},
		},
		"bucket": {
			Column: "bucket",
			Kind:   filterexpr.KindNumber,
			Ops:    []filterexpr.Op{filterexpr.OpEQ, filterexpr.OpGTE, filterexpr.OpLTE},
		},
		"attempt_count": {
			Column: "attempt_count",
			Kind:   filterexpr.KindNumber,
			Ops:    []filterexpr.Op{filterexpr.OpEQ, filterexpr.OpGTE, filterexpr.OpLTE},
		},
		"next_review_at": {
			Column: "next_review_at",
			Kind:   filterexpr.KindTimestamp,
			Ops:    []filterexpr.Op{filterexpr.OpGTE, filterexpr.OpLTE},
		},
		"created_at": {
			Column: "created_at",
			Kind:   filterexpr.KindTimestamp,
			Ops:    []filterexpr.Op{filterexpr.OpGTE, filterexpr.OpLTE},
		},
	},
	Order: filterexpr.OrderSchema{
		Default:     "created_at",
		DefaultDesc: true,
		Tiebreak:    "id",
		Fields: map[string]filterexpr.OrderField{
			"next_review_at": {Column: "next_review_at", NullsFirst: true},
			"created_at":     {Column: "created_at"},
			"title":          {Column: "title"},
			"bucket":         {Column: "bucket"},
			"id":             {Column: "id"},
		},
	},
}

// Package migrate holds the table definitions and applies them with ent's
// schema migrator.
package migrate

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// ProblemsColumns holds the columns for the "problems" table.
	ProblemsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "user_id", Type: field.TypeInt64},
		{Name: "title", Type: field.TypeString, Size: 512},
		{Name: "title_key", Type: field.TypeString, Size: 512},
		{Name: "source_url", Type: field.TypeString, Size: 2048, Default: ""},
		{Name: "difficulty", Type: field.TypeString, Size: 16, Default: ""},
		{Name: "topic", Type: field.TypeString, Size: 128, Default: ""},
		{Name: "tags", Type: field.TypeJSON, Nullable: true},
		{Name: "notes", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "bucket", Type: field.TypeInt, Default: 0},
		{Name: "interval_days", Type: field.TypeInt, Default: 0},
		{Name: "next_review_at", Type: field.TypeTime, Nullable: true},
		{Name: "personal_difficulty", Type: field.TypeInt, Default: 0},
		{Name: "attempt_count", Type: field.TypeInt64, Default: 0},
		{Name: "last_attempt_at", Type: field.TypeTime, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// ProblemsTable holds the schema information for the "problems" table.
	ProblemsTable = &schema.Table{
		Name:       "problems",
		Columns:    ProblemsColumns,
		PrimaryKey: []*schema.Column{ProblemsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "problem_user_id_title_key",
				Unique:  true,
				Columns: []*schema.Column{ProblemsColumns[1], ProblemsColumns[3]},
			},
			{
				Name:    "problem_user_id_next_review_at",
				Unique:  false,
				Columns: []*schema.Column{ProblemsColumns[1], ProblemsColumns[11]},
			},
		},
	}
	// AttemptsColumns holds the columns for the "attempts" table.
	AttemptsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "problem_id", Type: field.TypeInt64},
		{Name: "user_id", Type: field.TypeInt64},
		{Name: "attempted_at", Type: field.TypeTime},
		{Name: "outcome", Type: field.TypeString, Size: 16},
		{Name: "confidence_rating", Type: field.TypeInt},
		{Name: "time_taken_seconds", Type: field.TypeInt32, Nullable: true},
		{Name: "notes", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
	}
	// AttemptsTable holds the schema information for the "attempts" table.
	AttemptsTable = &schema.Table{
		Name:       "attempts",
		Columns:    AttemptsColumns,
		PrimaryKey: []*schema.Column{AttemptsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "attempts_problems_attempts",
				Columns:    []*schema.Column{AttemptsColumns[1]},
				RefColumns: []*schema.Column{ProblemsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "attempt_problem_id_attempted_at_id",
				Unique:  false,
				Columns: []*schema.Column{AttemptsColumns[1], AttemptsColumns[3], AttemptsColumns[0]},
			},
			{
				Name:    "attempt_user_id_attempted_at",
				Unique:  false,
				Columns: []*schema.Column{AttemptsColumns[2], AttemptsColumns[3]},
			},
		},
	}
	// Tables holds all the tables in the schema, parents first.
	Tables = []*schema.Table{
		ProblemsTable,
		AttemptsTable,
	}
)

func init() {
	AttemptsTable.ForeignKeys[0].RefTable = ProblemsTable
}

// Create creates or upgrades every table on drv.
func Create(ctx context.Context, drv dialect.Driver, opts ...schema.MigrateOption) error {
	m, err := schema.NewMigrate(drv, opts...)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Column returns the named column of table, or nil.
func Column(table *schema.Table, name string) *schema.Column {
	for _, col := range table.Columns {
		if col.Name == name {
			return col
		}
	}
	return nil
}

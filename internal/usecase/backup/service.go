// Package backup streams problems and attempts to and from JSONL so a sheet
// can move between databases without losing its attempt history.
package backup

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"

	"github.com/eslsoft/dsasheet/internal/infrastructure/database/migrate"
)

const (
	defaultBatchSize = 512
	formatVersion    = 1
	metaType         = "meta"
)

var (
	errNoTablesSelected = errors.New("backup: no tables selected")
	// ErrSchemaMismatch means the backup was taken from a different schema.
	ErrSchemaMismatch = errors.New("backup: schema hash mismatch")
)

type ProgressReporter interface {
	StartTable(table string, total int)
	Increment(table string, delta int)
	FinishTable(table string)
}

type noopProgress struct{}

func (noopProgress) StartTable(string, int) {}
func (noopProgress) Increment(string, int)  {}
func (noopProgress) FinishTable(string)     {}

type Service struct {
	drv        dialect.Driver
	batchSize  int
	tables     []*schema.Table
	schemaHash string
}

type Option func(*Service)

func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// NewService constructs a backup service over the application tables.
func NewService(drv dialect.Driver, opts ...Option) *Service {
	svc := &Service{
		drv:        drv,
		batchSize:  defaultBatchSize,
		tables:     migrate.Tables,
		schemaHash: computeSchemaHash(migrate.Tables),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ExportOption func(*exportConfig)

type exportConfig struct {
	tables   []string
	reporter ProgressReporter
}

// WithTables restricts export to the provided table names.
func WithTables(tables []string) ExportOption {
	return func(cfg *exportConfig) {
		cfg.tables = append([]string{}, tables...)
	}
}

// WithProgressReporter registers a reporter that receives progress callbacks during export.
func WithProgressReporter(reporter ProgressReporter) ExportOption {
	return func(cfg *exportConfig) {
		cfg.reporter = reporter
	}
}

type ImportOption func(*importConfig)

type importConfig struct {
	tables              []string
	allowSchemaMismatch bool
}

// WithImportTables restricts import to the provided table names.
func WithImportTables(tables []string) ImportOption {
	return func(cfg *importConfig) {
		cfg.tables = append([]string{}, tables...)
	}
}

// WithAllowSchemaMismatch imports backups whose schema hash differs, as long
// as every column still exists.
func WithAllowSchemaMismatch() ImportOption {
	return func(cfg *importConfig) {
		cfg.allowSchemaMismatch = true
	}
}

type record struct {
	Type       string         `json:"type"`
	Version    int            `json:"version,omitempty"`
	ExportedAt *time.Time     `json:"exported_at,omitempty"`
	SchemaHash string         `json:"schema_hash,omitempty"`
	Tables     []string       `json:"tables,omitempty"`
	RowCounts  map[string]int `json:"row_counts,omitempty"`
	Payload    any            `json:"payload,omitempty"`
}

type rawRecord struct {
	Type       string          `json:"type"`
	Version    int             `json:"version"`
	SchemaHash string          `json:"schema_hash"`
	Payload    json.RawMessage `json:"payload"`
}

// Export writes a meta record followed by one record per row, parents
// before children.
func (s *Service) Export(ctx context.Context, w io.Writer, opts ...ExportOption) error {
	cfg := exportConfig{reporter: noopProgress{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	tables, err := s.selectTables(cfg.tables)
	if err != nil {
		return err
	}

	counts := make(map[string]int, len(tables))
	for _, tbl := range tables {
		count, err := s.countRows(ctx, tbl.Name)
		if err != nil {
			return fmt.Errorf("count table %s: %w", tbl.Name, err)
		}
		counts[tbl.Name] = count
	}

	writer := bufio.NewWriter(w)
	now := time.Now().UTC()
	meta := record{
		Type:       metaType,
		Version:    formatVersion,
		ExportedAt: &now,
		SchemaHash: s.schemaHash,
		Tables:     tableNames(tables),
		RowCounts:  counts,
	}
	if err := writeRecord(writer, meta); err != nil {
		return err
	}

	for _, tbl := range tables {
		cfg.reporter.StartTable(tbl.Name, counts[tbl.Name])
		if err := s.exportTable(ctx, tbl, cfg.reporter, writer); err != nil {
			return err
		}
		cfg.reporter.FinishTable(tbl.Name)
	}
	return writer.Flush()
}

func (s *Service) exportTable(ctx context.Context, table *schema.Table, reporter ProgressReporter, w io.Writer) error {
	columns := columnNames(table)
	t := sql.Table(table.Name)
	for offset := 0; ; offset += s.batchSize {
		sel := sql.Dialect(s.drv.Dialect()).
			Select(t.Columns(columns...)...).
			From(t).
			OrderBy(t.C(table.PrimaryKey[0].Name)).
			Limit(s.batchSize).
			Offset(offset)
		query, args := sel.Query()

		rows := &sql.Rows{}
		if err := s.drv.Query(ctx, query, args, rows); err != nil {
			return fmt.Errorf("query %s: %w", table.Name, err)
		}
		n, err := s.writeRows(rows, table, columns, reporter, w)
		rows.Close()
		if err != nil {
			return err
		}
		if n < s.batchSize {
			return nil
		}
	}
}

func (s *Service) writeRows(rows *sql.Rows, table *schema.Table, columns []string, reporter ProgressReporter, w io.Writer) (int, error) {
	n := 0
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range dest {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return n, fmt.Errorf("scan %s: %w", table.Name, err)
		}
		row := make(map[string]any, len(columns))
		for i, name := range columns {
			val, err := encodeValue(migrate.Column(table, name), values[i])
			if err != nil {
				return n, fmt.Errorf("convert %s.%s: %w", table.Name, name, err)
			}
			row[name] = val
		}
		if err := writeRecord(w, record{Type: table.Name, Payload: row}); err != nil {
			return n, err
		}
		reporter.Increment(table.Name, 1)
		n++
	}
	if err := rows.Err(); err != nil {
		return n, fmt.Errorf("iterate %s: %w", table.Name, err)
	}
	return n, nil
}

// Import upserts every row of the backup inside one transaction and returns
// the number of rows imported per table.
func (s *Service) Import(ctx context.Context, r io.Reader, opts ...ImportOption) (_ map[string]int, err error) {
	cfg := importConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	tables, err := s.selectTables(cfg.tables)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]*schema.Table, len(tables))
	for _, tbl := range tables {
		wanted[tbl.Name] = tbl
	}

	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var (
		metaSeen bool
		counts   = make(map[string]int, len(tables))
		maxIDs   = make(map[string]int64, len(tables))
	)
	br := bufio.NewReader(r)
	for {
		line, readErr := br.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("read backup: %w", readErr)
		}
		if line = bytes.TrimSpace(line); len(line) > 0 {
			var rec rawRecord
			if err = json.Unmarshal(line, &rec); err != nil {
				return nil, fmt.Errorf("decode record: %w", err)
			}
			if rec.Type == metaType {
				if err = s.checkMeta(rec, cfg); err != nil {
					return nil, err
				}
				metaSeen = true
			} else if tbl, ok := wanted[rec.Type]; ok {
				if !metaSeen {
					return nil, errors.New("backup: meta record must come first")
				}
				id, err := s.importRow(ctx, tx, tbl, rec.Payload)
				if err != nil {
					return nil, err
				}
				counts[tbl.Name]++
				maxIDs[tbl.Name] = max(maxIDs[tbl.Name], id)
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
	}
	if !metaSeen {
		return nil, errors.New("backup: missing meta record")
	}
	if err = s.syncSequences(ctx, tx, maxIDs); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}
	return counts, nil
}

func (s *Service) checkMeta(rec rawRecord, cfg importConfig) error {
	if rec.Version != formatVersion {
		return fmt.Errorf("backup: unsupported format version %d", rec.Version)
	}
	if rec.SchemaHash != s.schemaHash && !cfg.allowSchemaMismatch {
		return ErrSchemaMismatch
	}
	return nil
}

func (s *Service) importRow(ctx context.Context, tx dialect.Tx, table *schema.Table, payload json.RawMessage) (int64, error) {
	if len(payload) == 0 {
		return 0, fmt.Errorf("backup: missing payload for table %s", table.Name)
	}
	values, err := decodePayload(table, payload)
	if err != nil {
		return 0, fmt.Errorf("decode payload for %s: %w", table.Name, err)
	}

	pk := table.PrimaryKey[0].Name
	id, ok := values[pk].(int64)
	if !ok {
		return 0, fmt.Errorf("backup: %s row without %s", table.Name, pk)
	}

	cols := make([]string, 0, len(values))
	args := make([]any, 0, len(values))
	for _, col := range table.Columns {
		val, ok := values[col.Name]
		if !ok {
			continue
		}
		if val == nil && !col.Nullable {
			if col.Default == nil {
				return 0, fmt.Errorf("backup: missing required value for %s.%s", table.Name, col.Name)
			}
			val = col.Default
		}
		cols = append(cols, col.Name)
		args = append(args, val)
	}

	ins := sql.Dialect(s.drv.Dialect()).
		Insert(table.Name).
		Columns(cols...).
		Values(args...).
		OnConflict(sql.ConflictColumns(pk), sql.ResolveWithNewValues())
	query, qargs := ins.Query()
	if err := tx.Exec(ctx, query, qargs, nil); err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table.Name, err)
	}
	return id, nil
}

// syncSequences moves postgres serial sequences past the imported ids.
func (s *Service) syncSequences(ctx context.Context, tx dialect.Tx, maxIDs map[string]int64) error {
	if s.drv.Dialect() != dialect.Postgres {
		return nil
	}
	for table, maxID := range maxIDs {
		if maxID <= 0 {
			continue
		}
		query := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s', 'id'), GREATEST(%d, (SELECT COALESCE(MAX(id), 0) FROM %s)))",
			table, maxID, table,
		)
		if err := tx.Exec(ctx, query, []any{}, nil); err != nil {
			return fmt.Errorf("sync sequence for %s: %w", table, err)
		}
	}
	return nil
}

func (s *Service) countRows(ctx context.Context, table string) (int, error) {
	query, args := sql.Dialect(s.drv.Dialect()).Select(sql.Count("*")).From(sql.Table(table)).Query()
	rows := &sql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return 0, err
	}
	defer rows.Close()
	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, err
		}
	}
	return count, rows.Err()
}

// selectTables keeps the migration order so parents are written and
// restored before the rows that reference them.
func (s *Service) selectTables(requested []string) ([]*schema.Table, error) {
	if len(requested) == 0 {
		return s.tables, nil
	}
	set := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		n := strings.TrimSpace(strings.ToLower(name))
		if n == "" {
			continue
		}
		if !s.hasTable(n) {
			return nil, fmt.Errorf("backup: unsupported table %q", name)
		}
		set[n] = struct{}{}
	}
	if len(set) == 0 {
		return nil, errNoTablesSelected
	}
	tbls := make([]*schema.Table, 0, len(set))
	for _, tbl := range s.tables {
		if _, ok := set[tbl.Name]; ok {
			tbls = append(tbls, tbl)
		}
	}
	return tbls, nil
}

func (s *Service) hasTable(name string) bool {
	for _, tbl := range s.tables {
		if tbl.Name == name {
			return true
		}
	}
	return false
}

func columnNames(table *schema.Table) []string {
	cols := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		cols[i] = col.Name
	}
	return cols
}

func tableNames(tables []*schema.Table) []string {
	names := make([]string, len(tables))
	for i, tbl := range tables {
		names[i] = tbl.Name
	}
	return names
}

func computeSchemaHash(tables []*schema.Table) string {
	b := &strings.Builder{}
	for _, tbl := range tables {
		b.WriteString(tbl.Name)
		b.WriteString("|")
		cols := make([]*schema.Column, len(tbl.Columns))
		copy(cols, tbl.Columns)
		sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })
		for _, col := range cols {
			fmt.Fprintf(b, "%s:%s:%t;", col.Name, col.Type, col.Nullable)
		}
		b.WriteByte('\n')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", sum[:])
}

func writeRecord(w io.Writer, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

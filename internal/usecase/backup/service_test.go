package backup

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"entgo.io/ent/dialect"

	"github.com/eslsoft/dsasheet/internal/adapter/repository"
	"github.com/eslsoft/dsasheet/internal/entity"
	"github.com/eslsoft/dsasheet/internal/infrastructure/database"
	"github.com/eslsoft/dsasheet/internal/infrastructure/database/migrate"
	repo "github.com/eslsoft/dsasheet/internal/repository"
)

const userID int64 = 3

func openSQLite(t *testing.T, name string) dialect.Driver {
	t.Helper()
	db, err := sql.Open("sqlite3", "file:"+filepath.Join(t.TempDir(), name)+"?_fk=1")
	if err != nil {
		t.Skipf("sqlite driver not available: %v", err)
	}
	drv, err := database.PrepareSQLite(db)
	if err != nil {
		db.Close()
		t.Skipf("skipping sqlite-dependent tests: %v", err)
	}
	t.Cleanup(func() { drv.Close() })
	if err := migrate.Create(context.Background(), drv); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return drv
}

type snapshot struct {
	Problems []entity.Problem
	Attempts map[int64][]entity.Attempt
}

func seed(t *testing.T, ctx context.Context, drv dialect.Driver) snapshot {
	t.Helper()
	problems := repository.NewProblemRepository(drv)
	attempts := repository.NewAttemptRepository(drv)
	base := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	graph, err := problems.Create(ctx, &entity.Problem{
		UserID: userID, Title: "Clone Graph", Difficulty: entity.DifficultyMedium, Topic: "graphs",
		Tags: []string{"bfs", "hash"}, Notes: "visited map", CreatedAt: base, UpdatedAt: base,
	})
	if err != nil {
		t.Fatalf("create problem: %v", err)
	}
	if _, err := problems.Create(ctx, &entity.Problem{
		UserID: userID, Title: "Two Sum", CreatedAt: base, UpdatedAt: base,
	}); err != nil {
		t.Fatalf("create problem: %v", err)
	}

	taken := int32(600)
	for i, rating := range []int{2, 5} {
		at := base.Add(time.Duration(i) * time.Hour)
		if _, err := attempts.Insert(ctx, &entity.Attempt{
			ProblemID: graph.ID, UserID: userID, AttemptedAt: at, Outcome: entity.OutcomeSolved,
			ConfidenceRating: rating, TimeTakenSeconds: &taken, CreatedAt: at,
		}); err != nil {
			t.Fatalf("insert attempt: %v", err)
		}
	}
	next := base.Add(time.Hour).AddDate(0, 0, 3)
	last := base.Add(time.Hour)
	if err := problems.UpdateSchedule(ctx, scheduleUpdate(graph.ID, next, last)); err != nil {
		t.Fatalf("update schedule: %v", err)
	}
	return take(t, ctx, drv)
}

func take(t *testing.T, ctx context.Context, drv dialect.Driver) snapshot {
	t.Helper()
	problems := repository.NewProblemRepository(drv)
	attempts := repository.NewAttemptRepository(drv)
	list, err := problems.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("list problems: %v", err)
	}
	snap := snapshot{Problems: list, Attempts: make(map[int64][]entity.Attempt)}
	for _, p := range list {
		history, err := attempts.ListByProblem(ctx, userID, p.ID)
		if err != nil {
			t.Fatalf("list attempts: %v", err)
		}
		snap.Attempts[p.ID] = history
	}
	return snap
}

func TestServiceExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := openSQLite(t, "src.db")
	want := seed(t, ctx, src)

	var buf bytes.Buffer
	if err := NewService(src, WithBatchSize(1)).Export(ctx, &buf); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected meta + 4 rows, got %d lines", len(lines))
	}
	var meta record
	if err := json.Unmarshal([]byte(lines[0]), &meta); err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	if meta.Type != metaType || meta.Version != formatVersion {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if !reflect.DeepEqual(meta.Tables, []string{"problems", "attempts"}) {
		t.Fatalf("expected parents first, got %v", meta.Tables)
	}
	if meta.RowCounts["problems"] != 2 || meta.RowCounts["attempts"] != 2 {
		t.Fatalf("unexpected row counts %v", meta.RowCounts)
	}

	dst := openSQLite(t, "dst.db")
	importer := NewService(dst)
	for i := 0; i < 2; i++ {
		counts, err := importer.Import(ctx, bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("import %d failed: %v", i, err)
		}
		if counts["problems"] != 2 || counts["attempts"] != 2 {
			t.Fatalf("unexpected import counts %v", counts)
		}
	}

	got := take(t, ctx, dst)
	if mustJSON(t, got) != mustJSON(t, want) {
		t.Fatalf("round trip mismatch:\nwant %s\ngot  %s", mustJSON(t, want), mustJSON(t, got))
	}

	// new rows continue after imported ids
	created, err := repository.NewProblemRepository(dst).Create(ctx, &entity.Problem{
		UserID: userID, Title: "Fresh", CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("create after import: %v", err)
	}
	if created.ID <= want.Problems[len(want.Problems)-1].ID {
		t.Fatalf("expected id beyond imported rows, got %d", created.ID)
	}
}

func TestServiceExportTables(t *testing.T) {
	ctx := context.Background()
	src := openSQLite(t, "src.db")
	seed(t, ctx, src)

	var buf bytes.Buffer
	if err := NewService(src).Export(ctx, &buf, WithTables([]string{"PROBLEMS"})); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	scanner := bufio.NewScanner(&buf)
	rows := 0
	for scanner.Scan() {
		var rec rawRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if rec.Type == "attempts" {
			t.Fatal("attempts should not be exported")
		}
		if rec.Type == "problems" {
			rows++
		}
	}
	if rows != 2 {
		t.Fatalf("expected 2 problem rows, got %d", rows)
	}

	if err := NewService(src).Export(ctx, &buf, WithTables([]string{"users"})); err == nil {
		t.Fatal("expected error for unknown table")
	}
	if err := NewService(src).Export(ctx, &buf, WithTables([]string{" "})); !errors.Is(err, errNoTablesSelected) {
		t.Fatalf("expected errNoTablesSelected, got %v", err)
	}
}

func TestServiceImportRejectsBadMeta(t *testing.T) {
	ctx := context.Background()
	dst := openSQLite(t, "dst.db")
	svc := NewService(dst)

	cases := map[string]string{
		"missing meta":   `{"type":"problems","payload":{"id":1}}`,
		"version":        `{"type":"meta","version":99}`,
		"schema":         `{"type":"meta","version":1,"schema_hash":"other"}`,
		"garbage":        `not json`,
		"no meta at all": ``,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Import(ctx, strings.NewReader(input)); err == nil {
				t.Fatalf("expected import error for %q", input)
			}
		})
	}

	_, err := svc.Import(ctx, strings.NewReader(`{"type":"meta","version":1,"schema_hash":"other"}`))
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	if _, err := svc.Import(ctx, strings.NewReader(`{"type":"meta","version":1,"schema_hash":"other"}`), WithAllowSchemaMismatch()); err != nil {
		t.Fatalf("expected mismatch to be allowed: %v", err)
	}
}

func scheduleUpdate(id int64, next, last time.Time) repo.ScheduleUpdate {
	return repo.ScheduleUpdate{
		ProblemID:            id,
		UserID:               userID,
		ExpectedAttemptCount: 0,
		Schedule: entity.ScheduleCache{
			Bucket: 1, IntervalDays: 3, NextReviewAt: &next, PersonalDifficulty: 1,
			AttemptCount: 2, LastAttemptAt: &last,
		},
	}
}

// mustJSON compares values independent of the time.Location the driver
// attached while scanning.
func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

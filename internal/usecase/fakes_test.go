package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/eslsoft/dsasheet/internal/entity"
	"github.com/eslsoft/dsasheet/internal/repository"
	"github.com/eslsoft/dsasheet/internal/srs"
)

var errInjected = errors.New("injected failure")

type fakeProblemRepo struct {
	mu    sync.RWMutex
	seq   int64
	items map[int64]*entity.Problem

	// updateErr fails the next UpdateSchedule calls while non-nil.
	updateErr error
	// beforeUpdate runs before every conditional write, outside the lock.
	beforeUpdate func()
	updates      int
}

func newFakeProblemRepo() *fakeProblemRepo {
	return &fakeProblemRepo{items: make(map[int64]*entity.Problem)}
}

func cloneProblem(p *entity.Problem) *entity.Problem {
	if p == nil {
		return nil
	}
	out := *p
	out.Tags = append([]string(nil), p.Tags...)
	if p.Schedule.NextReviewAt != nil {
		t := *p.Schedule.NextReviewAt
		out.Schedule.NextReviewAt = &t
	}
	if p.Schedule.LastAttemptAt != nil {
		t := *p.Schedule.LastAttemptAt
		out.Schedule.LastAttemptAt = &t
	}
	return &out
}

func (r *fakeProblemRepo) Create(ctx context.Context, p *entity.Problem) (*entity.Problem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.UserID == p.UserID && strings.EqualFold(item.Title, p.Title) {
			return nil, entity.ErrDuplicateProblem
		}
	}
	r.seq++
	copy := cloneProblem(p)
	copy.ID = r.seq
	r.items[copy.ID] = copy
	return cloneProblem(copy), nil
}

func (r *fakeProblemRepo) GetByID(ctx context.Context, userID, id int64) (*entity.Problem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok || item.UserID != userID {
		return nil, entity.ErrProblemNotFound
	}
	return cloneProblem(item), nil
}

func (r *fakeProblemRepo) FindByTitle(ctx context.Context, userID int64, title string) (*entity.Problem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, item := range r.items {
		if item.UserID == userID && strings.EqualFold(item.Title, title) {
			return cloneProblem(item), nil
		}
	}
	return nil, nil
}

func (r *fakeProblemRepo) List(ctx context.Context, query *repository.ListProblemQuery) ([]entity.Problem, int64, error) {
	all, err := r.ListByUser(ctx, query.UserID)
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(all))
	start := int(query.Offset())
	if start >= len(all) {
		return []entity.Problem{}, total, nil
	}
	end := start + int(query.PageSize)
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *fakeProblemRepo) ListByUser(ctx context.Context, userID int64) ([]entity.Problem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entity.Problem
	for _, item := range r.items {
		if item.UserID == userID {
			out = append(out, *cloneProblem(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeProblemRepo) UpdateSchedule(ctx context.Context, update repository.ScheduleUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.beforeUpdate != nil {
		r.beforeUpdate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	if r.updateErr != nil {
		return r.updateErr
	}
	item, ok := r.items[update.ProblemID]
	if !ok || item.UserID != update.UserID {
		return entity.ErrProblemNotFound
	}
	if item.Schedule.AttemptCount != update.ExpectedAttemptCount {
		return entity.ErrConcurrentModification
	}
	copy := cloneProblem(&entity.Problem{Schedule: update.Schedule})
	item.Schedule = copy.Schedule
	return nil
}

func (r *fakeProblemRepo) Delete(ctx context.Context, userID, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok || item.UserID != userID {
		return entity.ErrProblemNotFound
	}
	delete(r.items, id)
	return nil
}

// schedule returns the stored schedule cache without going through a usecase.
func (r *fakeProblemRepo) schedule(id int64) entity.ScheduleCache {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneProblem(r.items[id]).Schedule
}

// bumpCount simulates another process folding an attempt into the cache.
func (r *fakeProblemRepo) bumpCount(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[id].Schedule.AttemptCount++
}

type fakeAttemptRepo struct {
	mu    sync.RWMutex
	seq   int64
	items []entity.Attempt

	insertErr error
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{}
}

func (r *fakeAttemptRepo) Insert(ctx context.Context, a *entity.Attempt) (*entity.Attempt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	r.seq++
	copy := *a
	copy.ID = r.seq
	r.items = append(r.items, copy)
	return &copy, nil
}

func (r *fakeAttemptRepo) ListByProblem(ctx context.Context, userID, problemID int64) ([]entity.Attempt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entity.Attempt
	for _, a := range r.items {
		if a.UserID == userID && a.ProblemID == problemID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AttemptedAt.Equal(out[j].AttemptedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].AttemptedAt.Before(out[j].AttemptedAt)
	})
	return out, nil
}

func (r *fakeAttemptRepo) Count(ctx context.Context, userID, problemID int64) (int64, error) {
	list, err := r.ListByProblem(ctx, userID, problemID)
	return int64(len(list)), err
}

func (r *fakeAttemptRepo) ListByUserSince(ctx context.Context, userID int64, since time.Time) ([]entity.Attempt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []entity.Attempt
	for _, a := range r.items {
		if a.UserID == userID && !a.AttemptedAt.Before(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAttemptRepo) CountByUser(ctx context.Context, userID int64) (int64, error) {
	list, err := r.ListByUserSince(ctx, userID, time.Time{})
	return int64(len(list)), err
}

// add appends an attempt directly, bypassing the usecase.
func (r *fakeAttemptRepo) add(a entity.Attempt) entity.Attempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	a.ID = r.seq
	r.items = append(r.items, a)
	return a
}

type recordingObserver struct {
	mu        sync.Mutex
	recorded  int
	failed    map[string]int
	conflicts int
	repaired  int
	clean     int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{failed: make(map[string]int)}
}

func (o *recordingObserver) AttemptRecorded(entity.Outcome, srs.Tier) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.recorded++
}

func (o *recordingObserver) AttemptFailed(stage string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed[stage]++
}

func (o *recordingObserver) ScheduleConflict() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conflicts++
}

func (o *recordingObserver) Reconciled(repaired bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if repaired {
		o.repaired++
	} else {
		o.clean++
	}
}

// stepClock returns a clock starting at start and advancing by step on each call.
func stepClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := now
		now = now.Add(step)
		return t
	}
}

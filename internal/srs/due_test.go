package srs

import (
	"testing"
	"time"
)

type item struct {
	id   int64
	next *time.Time
}

func itemKey(it item) (int64, *time.Time) { return it.id, it.next }

func at(d time.Duration) *time.Time {
	v := t0.Add(d)
	return &v
}

func TestSelectDueMembership(t *testing.T) {
	items := []item{
		{id: 1, next: at(time.Hour)},
		{id: 2, next: nil},
		{id: 3, next: at(0)},
		{id: 4, next: at(-time.Minute)},
		{id: 5, next: at(time.Nanosecond)},
	}
	got := SelectDue(items, t0, itemKey)
	ids := make(map[int64]bool, len(got))
	for _, it := range got {
		ids[it.id] = true
	}
	for _, it := range items {
		want := it.next == nil || !it.next.After(t0)
		if ids[it.id] != want {
			t.Fatalf("item %d: present=%v, want %v", it.id, ids[it.id], want)
		}
	}
}

func TestSelectDueOrdersNeverReviewedFirst(t *testing.T) {
	items := []item{
		{id: 7, next: at(-48 * time.Hour)},
		{id: 9, next: nil},
		{id: 3, next: at(-time.Hour)},
		{id: 2, next: nil},
		{id: 5, next: at(-48 * time.Hour)},
	}
	got := SelectDue(items, t0, itemKey)
	want := []int64{2, 9, 5, 7, 3}
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].id != id {
			t.Fatalf("position %d: got id %d, want %d (full: %+v)", i, got[i].id, id, got)
		}
	}
	if items[0].id != 7 {
		t.Fatal("SelectDue must not reorder its input")
	}
}

func TestSelectDueIsIdempotent(t *testing.T) {
	items := []item{{id: 4, next: nil}, {id: 1, next: at(-time.Hour)}, {id: 2, next: nil}}
	first := SelectDue(items, t0, itemKey)
	second := SelectDue(items, t0, itemKey)
	for i := range first {
		if first[i].id != second[i].id {
			t.Fatalf("order changed between calls at %d", i)
		}
	}
}

func TestSelectDueEmpty(t *testing.T) {
	if got := SelectDue[item](nil, t0, itemKey); len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}

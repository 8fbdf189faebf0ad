package srs

import (
	"slices"
	"time"
)

// DueKey extracts the identity and next review time used for due selection.
type DueKey[T any] func(item T) (id int64, next *time.Time)

// IsDue reports whether a review scheduled at next is due at now. A nil
// schedule means the item was never reviewed and is always due.
func IsDue(next *time.Time, now time.Time) bool {
	return next == nil || !next.After(now)
}

// SelectDue returns the due items ordered by next review time, never
// reviewed items first, ties broken by ascending id. The input is not
// modified.
func SelectDue[T any](items []T, now time.Time, key DueKey[T]) []T {
	due := make([]T, 0, len(items))
	for _, item := range items {
		if _, next := key(item); IsDue(next, now) {
			due = append(due, item)
		}
	}
	slices.SortStableFunc(due, func(a, b T) int {
		aID, aNext := key(a)
		bID, bNext := key(b)
		if c := compareNext(aNext, bNext); c != 0 {
			return c
		}
		switch {
		case aID < bID:
			return -1
		case aID > bID:
			return 1
		default:
			return 0
		}
	})
	return due
}

func compareNext(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}

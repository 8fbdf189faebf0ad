package srs

import (
	"sort"
	"time"
)

// State is the scheduling state of a single problem.
type State struct {
	Bucket             int
	IntervalDays       int
	NextReviewAt       *time.Time
	PersonalDifficulty int
	Folded             int64
	LastReviewAt       *time.Time
}

// Initial is the state of a problem that was never attempted: bucket 0 and
// immediately due.
func Initial() State {
	return State{}
}

// Review is one attempt as seen by the scheduler. Seq breaks ties between
// reviews recorded at the same instant.
type Review struct {
	Seq    int64
	At     time.Time
	Rating int
}

// Apply folds a single review into state and returns the new state together
// with the step that produced it.
func (s *Scheduler) Apply(state State, review Review) (State, Step, error) {
	step, err := s.Advance(state.Bucket, review.Rating)
	if err != nil {
		return state, Step{}, err
	}
	at := review.At
	next := at.AddDate(0, 0, step.IntervalDays)
	return State{
		Bucket:             step.Bucket,
		IntervalDays:       step.IntervalDays,
		NextReviewAt:       &next,
		PersonalDifficulty: PersonalDifficulty(review.Rating),
		Folded:             state.Folded + 1,
		LastReviewAt:       &at,
	}, step, nil
}

// Replay folds reviews in (At, Seq) order starting from the initial state.
// The input slice is not modified.
func (s *Scheduler) Replay(reviews []Review) (State, error) {
	ordered := make([]Review, len(reviews))
	copy(ordered, reviews)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].At.Equal(ordered[j].At) {
			return ordered[i].Seq < ordered[j].Seq
		}
		return ordered[i].At.Before(ordered[j].At)
	})

	state := Initial()
	for _, review := range ordered {
		next, _, err := s.Apply(state, review)
		if err != nil {
			return Initial(), err
		}
		state = next
	}
	return state, nil
}

// Equal reports whether two states describe the same schedule.
func (st State) Equal(other State) bool {
	return st.Bucket == other.Bucket &&
		st.IntervalDays == other.IntervalDays &&
		st.PersonalDifficulty == other.PersonalDifficulty &&
		st.Folded == other.Folded &&
		timePtrEqual(st.NextReviewAt, other.NextReviewAt) &&
		timePtrEqual(st.LastReviewAt, other.LastReviewAt)
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// Package srs implements the review scheduler behind the DSA sheet.
//
// The scheduler is a pure state machine: given the current bucket and a
// 1-5 confidence rating it returns the next bucket and the number of days
// until the next review. It performs no I/O and reads no clock; callers add
// the interval to the attempt time themselves.
package srs

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors for the srs package.
var (
	ErrInvalidRating = errors.New("srs: confidence rating must be between 1 and 5")
	ErrInvalidBucket = errors.New("srs: bucket must not be negative")
)

// GrowthBase is the exponential base used past bucket 1.
const GrowthBase = 2.2

// Tier is the policy branch selected by a confidence rating.
type Tier int

const (
	// TierReset sends the problem back to bucket 0 (forgot or struggled badly).
	TierReset Tier = iota + 1
	// TierShortBump pins the problem at bucket 1 (recalled with difficulty).
	TierShortBump
	// TierGrow advances the problem along its exponential trajectory.
	TierGrow
)

var tierNames = [...]string{TierReset: "reset", TierShortBump: "short_bump", TierGrow: "grow"}

func (t Tier) String() string {
	if t >= TierReset && t <= TierGrow {
		return tierNames[t]
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// Classify maps a confidence rating onto its policy tier.
func Classify(rating int) (Tier, error) {
	switch rating {
	case 1, 2:
		return TierReset, nil
	case 3:
		return TierShortBump, nil
	case 4, 5:
		return TierGrow, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidRating, rating)
	}
}

// Step is the outcome of one scheduling transition.
type Step struct {
	Tier         Tier
	Bucket       int
	IntervalDays int
}

// Scheduler applies the three-tier policy. The zero value is usable and
// does not cap intervals.
type Scheduler struct {
	maxIntervalDays int
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithMaxIntervalDays caps every interval at days. Zero or negative keeps
// intervals uncapped. The bucket keeps growing past the cap.
func WithMaxIntervalDays(days int) Option {
	return func(s *Scheduler) {
		if days > 0 {
			s.maxIntervalDays = days
		}
	}
}

// New builds a Scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxIntervalDays returns the configured cap, 0 when uncapped.
func (s *Scheduler) MaxIntervalDays() int {
	return s.maxIntervalDays
}

// Advance computes the next bucket and interval for a rating given at
// bucket.
func (s *Scheduler) Advance(bucket, rating int) (Step, error) {
	if bucket < 0 {
		return Step{}, fmt.Errorf("%w: %d", ErrInvalidBucket, bucket)
	}
	tier, err := Classify(rating)
	if err != nil {
		return Step{}, err
	}

	var step Step
	switch tier {
	case TierReset:
		step = Step{Tier: tier, Bucket: 0, IntervalDays: 1}
	case TierShortBump:
		step = Step{Tier: tier, Bucket: 1, IntervalDays: 3}
	case TierGrow:
		step = grow(bucket)
	}

	if s.maxIntervalDays > 0 && step.IntervalDays > s.maxIntervalDays {
		step.IntervalDays = s.maxIntervalDays
	}
	return step, nil
}

func grow(bucket int) Step {
	switch bucket {
	case 0:
		return Step{Tier: TierGrow, Bucket: 1, IntervalDays: 3}
	case 1:
		return Step{Tier: TierGrow, Bucket: 2, IntervalDays: 7}
	}
	next := bucket + 1
	return Step{Tier: TierGrow, Bucket: next, IntervalDays: growthInterval(next)}
}

// growthInterval returns ceil(GrowthBase^bucket), saturating at MaxInt32.
func growthInterval(bucket int) int {
	days := math.Ceil(math.Pow(GrowthBase, float64(bucket)))
	if math.IsInf(days, 1) || days >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(days)
}

var defaultScheduler = New()

// Advance runs the uncapped default scheduler.
func Advance(bucket, rating int) (Step, error) {
	return defaultScheduler.Advance(bucket, rating)
}

// PersonalDifficulty derives the 1-10 display metric from a rating. It is
// never fed back into Advance.
func PersonalDifficulty(rating int) int {
	d := 11 - rating*2
	switch {
	case d < 1:
		return 1
	case d > 10:
		return 10
	default:
		return d
	}
}

package entity

import (
	"strings"
	"time"
)

// Difficulty is the published difficulty of a practice problem.
type Difficulty string

const (
	DifficultyUnspecified Difficulty = ""
	DifficultyEasy        Difficulty = "Easy"
	DifficultyMedium      Difficulty = "Medium"
	DifficultyHard        Difficulty = "Hard"
)

// ParseDifficulty converts an arbitrary string into a Difficulty value.
func ParseDifficulty(raw string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return DifficultyUnspecified, nil
	case "easy":
		return DifficultyEasy, nil
	case "medium":
		return DifficultyMedium, nil
	case "hard":
		return DifficultyHard, nil
	default:
		return DifficultyUnspecified, ErrInvalidDifficulty
	}
}

// Problem is a practice problem on a user's sheet.
type Problem struct {
	ID         int64
	UserID     int64
	Title      string
	SourceURL  string
	Difficulty Difficulty
	Topic      string
	Tags       []string
	Notes      string
	Schedule   ScheduleCache
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ScheduleCache is the denormalized result of folding a problem's attempts
// through the scheduler. It is never independent state: reconciliation can
// always rebuild it from the attempt history.
type ScheduleCache struct {
	Bucket             int
	IntervalDays       int
	NextReviewAt       *time.Time
	PersonalDifficulty int
	// AttemptCount is the number of attempts folded into the cache and the
	// version checked by conditional schedule writes.
	AttemptCount  int64
	LastAttemptAt *time.Time
}

// IsDue reports whether the problem should be reviewed at now.
func (p *Problem) IsDue(now time.Time) bool {
	return p.Schedule.NextReviewAt == nil || !p.Schedule.NextReviewAt.After(now)
}

// Normalize ensures defaults & constraints before persistence.
func (p *Problem) Normalize(now time.Time) {
	p.Title = strings.TrimSpace(p.Title)
	p.SourceURL = strings.TrimSpace(p.SourceURL)
	p.Topic = strings.ToLower(strings.TrimSpace(p.Topic))
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.Tags = normalizeTags(p.Tags)
}

func normalizeTags(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, tag := range in {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

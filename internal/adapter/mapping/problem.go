package mapping

import (
	"strings"

	"github.com/samber/lo"

	"github.com/eslsoft/dsasheet/internal/entity"
	studyv1 "github.com/eslsoft/dsasheet/pkg/api/study/v1"
)

// FromApiProblem converts the editable fields of an API problem. The
// schedule is owned by the attempt log and never taken from input.
func FromApiProblem(in *studyv1.Problem) (*entity.Problem, error) {
	difficulty, err := entity.ParseDifficulty(in.Difficulty)
	if err != nil {
		return nil, err
	}
	return &entity.Problem{
		Title:      strings.TrimSpace(in.Title),
		SourceURL:  strings.TrimSpace(in.SourceURL),
		Difficulty: difficulty,
		Topic:      in.Topic,
		Tags:       in.Tags,
		Notes:      in.Notes,
	}, nil
}

func ToApiProblem(p *entity.Problem) *studyv1.Problem {
	if p == nil {
		return nil
	}
	return &studyv1.Problem{
		ID:         p.ID,
		UserID:     p.UserID,
		Title:      p.Title,
		SourceURL:  p.SourceURL,
		Difficulty: string(p.Difficulty),
		Topic:      p.Topic,
		Tags:       p.Tags,
		Notes:      p.Notes,
		Schedule:   ToApiSchedule(p.Schedule),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func ToApiProblems(items []entity.Problem) []*studyv1.Problem {
	return lo.Map(items, func(item entity.Problem, _ int) *studyv1.Problem {
		return ToApiProblem(&item)
	})
}

func ToApiSchedule(s entity.ScheduleCache) *studyv1.Schedule {
	return &studyv1.Schedule{
		Bucket:             s.Bucket,
		IntervalDays:       s.IntervalDays,
		NextReviewAt:       s.NextReviewAt,
		PersonalDifficulty: s.PersonalDifficulty,
		AttemptCount:       s.AttemptCount,
		LastAttemptAt:      s.LastAttemptAt,
	}
}

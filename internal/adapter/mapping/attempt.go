package mapping

import (
	"github.com/samber/lo"

	"github.com/eslsoft/dsasheet/internal/entity"
	"github.com/eslsoft/dsasheet/internal/usecase"
	studyv1 "github.com/eslsoft/dsasheet/pkg/api/study/v1"
)

func FromApiLogAttempt(in *studyv1.LogAttemptRequest) (usecase.LogAttemptInput, error) {
	outcome, err := entity.ParseOutcome(in.Outcome)
	if err != nil {
		return usecase.LogAttemptInput{}, err
	}
	return usecase.LogAttemptInput{
		UserID:           in.UserID,
		ProblemID:        in.ProblemID,
		Outcome:          outcome,
		ConfidenceRating: in.ConfidenceRating,
		TimeTakenSeconds: in.TimeTakenSeconds,
		Notes:            in.Notes,
	}, nil
}

func ToApiAttempt(a *entity.Attempt) *studyv1.Attempt {
	return &studyv1.Attempt{
		ID:               a.ID,
		ProblemID:        a.ProblemID,
		UserID:           a.UserID,
		AttemptedAt:      a.AttemptedAt,
		Outcome:          string(a.Outcome),
		ConfidenceRating: a.ConfidenceRating,
		TimeTakenSeconds: a.TimeTakenSeconds,
		Notes:            a.Notes,
		CreatedAt:        a.CreatedAt,
	}
}

func ToApiAttempts(items []entity.Attempt) []*studyv1.Attempt {
	return lo.Map(items, func(item entity.Attempt, _ int) *studyv1.Attempt {
		return ToApiAttempt(&item)
	})
}

func ToApiAttemptResult(r *usecase.AttemptResult) *studyv1.LogAttemptResponse {
	return &studyv1.LogAttemptResponse{
		Attempt:  ToApiAttempt(&r.Attempt),
		Tier:     r.Tier.String(),
		Schedule: ToApiSchedule(r.Schedule),
	}
}

func ToApiReconcileResult(r *usecase.ReconcileResult) *studyv1.ReconcileProblemResponse {
	return &studyv1.ReconcileProblemResponse{
		ProblemID: r.ProblemID,
		Repaired:  r.Repaired,
		Before:    ToApiSchedule(r.Before),
		After:     ToApiSchedule(r.After),
	}
}

func ToApiStats(s *usecase.Stats) *studyv1.Stats {
	return &studyv1.Stats{
		TotalProblems:     s.TotalProblems,
		DueNow:            s.DueNow,
		NeverReviewed:     s.NeverReviewed,
		ProblemsPerBucket: s.ProblemsPerBucket,
		TotalAttempts:     s.TotalAttempts,
		RecentAttempts:    s.RecentAttempts,
		AverageConfidence: s.AverageConfidence,
		AttemptsByOutcome: lo.MapKeys(s.AttemptsByOutcome, func(_ int64, outcome entity.Outcome) string {
			return string(outcome)
		}),
	}
}

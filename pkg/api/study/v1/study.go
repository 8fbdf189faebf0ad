// Package studyv1 holds the JSON messages of the dsasheet.v1.StudyService API.
package studyv1

import "time"

type Schedule struct {
	Bucket             int        `json:"bucket"`
	IntervalDays       int        `json:"interval_days"`
	NextReviewAt       *time.Time `json:"next_review_at,omitempty"`
	PersonalDifficulty int        `json:"personal_difficulty"`
	AttemptCount       int64      `json:"attempt_count"`
	LastAttemptAt      *time.Time `json:"last_attempt_at,omitempty"`
}

type Problem struct {
	ID         int64     `json:"id,omitempty"`
	UserID     int64     `json:"user_id,omitempty"`
	Title      string    `json:"title"`
	SourceURL  string    `json:"source_url,omitempty"`
	Difficulty string    `json:"difficulty,omitempty"`
	Topic      string    `json:"topic,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	Schedule   *Schedule `json:"schedule,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
	UpdatedAt  time.Time `json:"updated_at,omitzero"`
}

type Attempt struct {
	ID               int64     `json:"id"`
	ProblemID        int64     `json:"problem_id"`
	UserID           int64     `json:"user_id"`
	AttemptedAt      time.Time `json:"attempted_at"`
	Outcome          string    `json:"outcome"`
	ConfidenceRating int       `json:"confidence_rating"`
	TimeTakenSeconds *int32    `json:"time_taken_seconds,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type Empty struct{}

type PaginationRequest struct {
	PageNo   int32 `json:"page_no,omitempty"`
	PageSize int32 `json:"page_size,omitempty"`
}

type PaginationResponse struct {
	Total  int64 `json:"total"`
	PageNo int32 `json:"page_no"`
}

type AddProblemRequest struct {
	UserID  int64    `json:"user_id"`
	Problem *Problem `json:"problem"`
}

type ProblemRequest struct {
	UserID    int64 `json:"user_id"`
	ProblemID int64 `json:"problem_id"`
}

type ListProblemsRequest struct {
	UserID     int64              `json:"user_id"`
	Pagination *PaginationRequest `json:"pagination,omitempty"`
	Filter     string             `json:"filter,omitempty"`
	OrderBy    string             `json:"order_by,omitempty"`
}

type ListProblemsResponse struct {
	Problems   []*Problem          `json:"problems"`
	Pagination *PaginationResponse `json:"pagination"`
}

type LogAttemptRequest struct {
	UserID           int64  `json:"user_id"`
	ProblemID        int64  `json:"problem_id"`
	Outcome          string `json:"outcome"`
	ConfidenceRating int    `json:"confidence_rating"`
	TimeTakenSeconds *int32 `json:"time_taken_seconds,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

type LogAttemptResponse struct {
	Attempt  *Attempt  `json:"attempt"`
	Tier     string    `json:"tier"`
	Schedule *Schedule `json:"schedule"`
}

type ListAttemptsResponse struct {
	Attempts []*Attempt `json:"attempts"`
}

type GetDueQueueRequest struct {
	UserID int64 `json:"user_id"`
	Limit  int   `json:"limit,omitempty"`
}

type GetDueQueueResponse struct {
	Problems []*Problem `json:"problems"`
}

type GetStatsRequest struct {
	UserID int64 `json:"user_id"`
}

type Stats struct {
	TotalProblems     int64            `json:"total_problems"`
	DueNow            int64            `json:"due_now"`
	NeverReviewed     int64            `json:"never_reviewed"`
	ProblemsPerBucket map[int]int64    `json:"problems_per_bucket"`
	TotalAttempts     int64            `json:"total_attempts"`
	RecentAttempts    int64            `json:"recent_attempts"`
	AverageConfidence float64          `json:"average_confidence"`
	AttemptsByOutcome map[string]int64 `json:"attempts_by_outcome"`
}

type ReconcileProblemResponse struct {
	ProblemID int64     `json:"problem_id"`
	Repaired  bool      `json:"repaired"`
	Before    *Schedule `json:"before"`
	After     *Schedule `json:"after"`
}

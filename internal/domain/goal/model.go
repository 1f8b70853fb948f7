package goal

import "time"

// Answer is one questionnaire response. Rows are append-only.
type Answer struct {
	ID           int64
	UserID       string
	QuestionID   string
	AnswerID     string
	QuestionText string
	AnswerText   string
	CreatedAt    time.Time
}

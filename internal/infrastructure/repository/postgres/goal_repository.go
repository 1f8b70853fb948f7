package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/finboard/internal/domain/goal"
	qb "github.com/riskibarqy/finboard/internal/platform/querybuilder"
)

type GoalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// Append inserts every answer as a new row in a single statement.
func (r *GoalRepository) Append(ctx context.Context, answers []goal.Answer) error {
	if len(answers) == 0 {
		return nil
	}

	query, args, err := buildGoalInsert(answers)
	if err != nil {
		return fmt.Errorf("build insert goal answers query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert goal answers: %w", err)
	}
	return nil
}

func buildGoalInsert(answers []goal.Answer) (string, []any, error) {
	builder := qb.InsertInto(goalTable).
		Columns("user_id", "question_id", "answer_id", "question_text", "answer_text", "created_at")
	for _, answer := range answers {
		builder.Values(
			strings.TrimSpace(answer.UserID),
			answer.QuestionID,
			answer.AnswerID,
			answer.QuestionText,
			answer.AnswerText,
			answer.CreatedAt,
		)
	}
	return builder.ToSQL()
}

func (r *GoalRepository) ListByUser(ctx context.Context, userID string) ([]goal.Answer, error) {
	query, args, err := qb.Select(goalColumns...).
		From(goalTable).
		Where(qb.Eq("user_id", userID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list goal answers query: %w", err)
	}

	var rows []goalTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list goal answers: %w", err)
	}

	out := make([]goal.Answer, 0, len(rows))
	for _, row := range rows {
		out = append(out, goal.Answer{
			ID:           row.ID,
			UserID:       row.UserID,
			QuestionID:   row.QuestionID,
			AnswerID:     row.AnswerID,
			QuestionText: row.QuestionText,
			AnswerText:   row.AnswerText,
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return out, nil
}

package memory

import (
	"context"

	"github.com/riskibarqy/finboard/internal/domain/goal"
)

type GoalRepository struct {
	store *Store
}

func (r *GoalRepository) Append(_ context.Context, answers []goal.Answer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, answer := range answers {
		r.store.goalSeq++
		answer.ID = r.store.goalSeq
		r.store.goals = append(r.store.goals, answer)
	}
	return nil
}

func (r *GoalRepository) ListByUser(_ context.Context, userID string) ([]goal.Answer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]goal.Answer, 0)
	for _, answer := range r.store.goals {
		if answer.UserID == userID {
			out = append(out, answer)
		}
	}
	return out, nil
}

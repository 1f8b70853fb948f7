package memory

import (
	"context"

	"github.com/riskibarqy/finboard/internal/domain/onboarding"
)

type OnboardingRepository struct {
	store *Store
}

func (r *OnboardingRepository) GetByUserID(_ context.Context, userID string) (onboarding.Record, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	record, ok := r.store.onboarding[userID]
	if !ok {
		return onboarding.Record{}, false, nil
	}
	return cloneRecord(record), true, nil
}

func (r *OnboardingRepository) Apply(_ context.Context, userID string, patch onboarding.Patch) (onboarding.Record, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return cloneRecord(r.store.applyOnboardingLocked(userID, patch)), nil
}

func (s *Store) applyOnboardingLocked(userID string, patch onboarding.Patch) onboarding.Record {
	current, ok := s.onboarding[userID]
	if !ok {
		current = onboarding.NewRecord(userID)
	}
	next := patch.ApplyTo(current)
	s.onboarding[userID] = next
	return next
}

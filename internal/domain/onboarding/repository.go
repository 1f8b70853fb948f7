package onboarding

import "context"

type Repository interface {
	GetByUserID(ctx context.Context, userID string) (Record, bool, error)
	// Apply upserts the row keyed by userID, writing only the patched fields,
	// and returns the stored result.
	Apply(ctx context.Context, userID string, patch Patch) (Record, error)
}

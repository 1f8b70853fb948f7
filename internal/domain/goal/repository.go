package goal

import "context"

type Repository interface {
	Append(ctx context.Context, answers []Answer) error
	ListByUser(ctx context.Context, userID string) ([]Answer, error)
}

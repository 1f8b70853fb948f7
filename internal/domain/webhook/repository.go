package webhook

import "context"

type Repository interface {
	Append(ctx context.Context, event Event) error
}

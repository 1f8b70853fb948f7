package bankconnection

import "context"

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Connection, error)
	GetByLinkID(ctx context.Context, linkID string) (Connection, bool, error)
	// UpsertByLinkID inserts the connection or, when the same user already
	// holds the link, refreshes institution and marks it active. ConnectedAt
	// of an existing row is preserved. A link held by another user is left
	// untouched and ErrLinkOwnedByOtherUser is returned.
	UpsertByLinkID(ctx context.Context, conn Connection) (Connection, error)
	// TouchSync sets LastSyncAt on the link, and status active when
	// input.Activate is set. The bool is false for unknown links.
	TouchSync(ctx context.Context, input SyncInput) (Connection, bool, error)
	// ExpireConsent marks the link expired and recomputes the owner's
	// openfinance_connected flag from the remaining active links, atomically.
	ExpireConsent(ctx context.Context, input ExpireInput) (ExpireResult, error)
}

package bankconnection

import (
	"errors"
	"time"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

// Connection is one aggregator link owned by a user. LinkID is unique.
type Connection struct {
	ID          string
	UserID      string
	LinkID      string
	Institution string
	Status      Status
	ConnectedAt time.Time
	LastSyncAt  *time.Time
}

// Syncing reports whether the aggregator has not yet confirmed a first sync.
func (c Connection) Syncing() bool {
	return c.LastSyncAt == nil
}

// ErrLinkOwnedByOtherUser is returned when a link id being recorded already
// belongs to a different user.
var ErrLinkOwnedByOtherUser = errors.New("bank link is owned by another user")

type SyncInput struct {
	LinkID string
	At     time.Time
	// Activate also sets the link back to active.
	Activate bool
}

type ExpireInput struct {
	LinkID string
	// UserID is the aggregator's external id echo. When empty the owner of
	// the link row is used.
	UserID string
	At     time.Time
}

type ExpireResult struct {
	LinkFound bool
	// UserID is the user whose aggregate flag was recomputed, empty when none
	// could be resolved.
	UserID               string
	ActiveRemaining      int
	OpenFinanceConnected bool
}

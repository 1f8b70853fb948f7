package memory

import (
	"context"
	"sort"

	"github.com/riskibarqy/finboard/internal/domain/bankconnection"
	"github.com/riskibarqy/finboard/internal/domain/onboarding"
)

type BankConnectionRepository struct {
	store *Store
}

func (r *BankConnectionRepository) ListByUser(_ context.Context, userID string) ([]bankconnection.Connection, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]bankconnection.Connection, 0)
	for _, item := range r.store.connections {
		if item.UserID == userID {
			out = append(out, cloneConnection(item))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ConnectedAt.Equal(out[j].ConnectedAt) {
			return out[i].LinkID < out[j].LinkID
		}
		return out[i].ConnectedAt.After(out[j].ConnectedAt)
	})
	return out, nil
}

func (r *BankConnectionRepository) GetByLinkID(_ context.Context, linkID string) (bankconnection.Connection, bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	item, ok := r.store.connections[linkID]
	if !ok {
		return bankconnection.Connection{}, false, nil
	}
	return cloneConnection(item), true, nil
}

func (r *BankConnectionRepository) UpsertByLinkID(_ context.Context, conn bankconnection.Connection) (bankconnection.Connection, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if existing, ok := r.store.connections[conn.LinkID]; ok {
		if existing.UserID != conn.UserID {
			return bankconnection.Connection{}, bankconnection.ErrLinkOwnedByOtherUser
		}
		if conn.Institution != "" {
			existing.Institution = conn.Institution
		}
		existing.Status = bankconnection.StatusActive
		r.store.connections[conn.LinkID] = existing
		return cloneConnection(existing), nil
	}

	conn.Status = bankconnection.StatusActive
	r.store.connections[conn.LinkID] = cloneConnection(conn)
	return cloneConnection(conn), nil
}

func (r *BankConnectionRepository) TouchSync(_ context.Context, input bankconnection.SyncInput) (bankconnection.Connection, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	item, ok := r.store.connections[input.LinkID]
	if !ok {
		return bankconnection.Connection{}, false, nil
	}
	at := input.At
	item.LastSyncAt = &at
	if input.Activate {
		item.Status = bankconnection.StatusActive
	}
	r.store.connections[input.LinkID] = item
	return cloneConnection(item), true, nil
}

func (r *BankConnectionRepository) ExpireConsent(_ context.Context, input bankconnection.ExpireInput) (bankconnection.ExpireResult, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result := bankconnection.ExpireResult{UserID: input.UserID}
	if item, ok := r.store.connections[input.LinkID]; ok {
		result.LinkFound = true
		item.Status = bankconnection.StatusExpired
		r.store.connections[input.LinkID] = item
		if result.UserID == "" {
			result.UserID = item.UserID
		}
	}
	if result.UserID == "" {
		return result, nil
	}

	for _, item := range r.store.connections {
		if item.UserID == result.UserID && item.Status == bankconnection.StatusActive {
			result.ActiveRemaining++
		}
	}
	result.OpenFinanceConnected = result.ActiveRemaining > 0

	connected := result.OpenFinanceConnected
	r.store.applyOnboardingLocked(result.UserID, onboarding.Patch{
		OpenFinanceConnected: &connected,
		At:                   input.At,
	})
	return result, nil
}

package memory

import (
	"sync"

	"github.com/riskibarqy/finboard/internal/domain/bankconnection"
	"github.com/riskibarqy/finboard/internal/domain/goal"
	"github.com/riskibarqy/finboard/internal/domain/onboarding"
	"github.com/riskibarqy/finboard/internal/domain/webhook"
)

// Store holds every table behind one mutex so multi-table writes are atomic.
type Store struct {
	mu          sync.RWMutex
	onboarding  map[string]onboarding.Record
	connections map[string]bankconnection.Connection
	goals       []goal.Answer
	goalSeq     int64
	events      []webhook.Event
}

func NewStore() *Store {
	return &Store{
		onboarding:  make(map[string]onboarding.Record),
		connections: make(map[string]bankconnection.Connection),
	}
}

func (s *Store) Onboarding() *OnboardingRepository {
	return &OnboardingRepository{store: s}
}

func (s *Store) BankConnections() *BankConnectionRepository {
	return &BankConnectionRepository{store: s}
}

func (s *Store) Goals() *GoalRepository {
	return &GoalRepository{store: s}
}

func (s *Store) WebhookEvents() *WebhookEventRepository {
	return &WebhookEventRepository{store: s}
}

func cloneRecord(r onboarding.Record) onboarding.Record {
	copied := r
	if r.ConnectionDate != nil {
		at := *r.ConnectionDate
		copied.ConnectionDate = &at
	}
	return copied
}

func cloneConnection(c bankconnection.Connection) bankconnection.Connection {
	copied := c
	if c.LastSyncAt != nil {
		at := *c.LastSyncAt
		copied.LastSyncAt = &at
	}
	return copied
}

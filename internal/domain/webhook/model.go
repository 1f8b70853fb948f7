package webhook

import (
	"strings"
	"time"
)

// Kind groups aggregator event types by how they change connection state.
type Kind int

const (
	KindUnknown Kind = iota
	KindHistoricalUpdate
	KindRefresh
	KindConsentLoss
)

func (k Kind) String() string {
	switch k {
	case KindHistoricalUpdate:
		return "historical_update"
	case KindRefresh:
		return "refresh"
	case KindConsentLoss:
		return "consent_loss"
	default:
		return "unknown"
	}
}

const (
	TypeHistoricalUpdate = "historical_update"

	TypeConsentExpired                = "openfinance_consent_expired"
	TypeConsentUnrecoverable          = "openfinance_consent_with_unrecoverable_resources"
	TypeConsentTemporarilyUnavailable = "openfinance_consent_with_temporarily_unavailable_resources"
)

var refreshTypes = map[string]struct{}{
	"new_accounts_available":                {},
	"new_transactions_available":            {},
	"new_owners_available":                  {},
	"new_bills_available":                   {},
	"new_investments_available":             {},
	"new_investment_transactions_available": {},
}

// Classify maps an event type to its reconciliation kind. Matching is
// case-insensitive.
func Classify(eventType string) Kind {
	eventType = strings.ToLower(strings.TrimSpace(eventType))
	switch eventType {
	case TypeHistoricalUpdate:
		return KindHistoricalUpdate
	case TypeConsentExpired, TypeConsentUnrecoverable, TypeConsentTemporarilyUnavailable:
		return KindConsentLoss
	}
	if _, ok := refreshTypes[eventType]; ok {
		return KindRefresh
	}
	return KindUnknown
}

// Event is one authenticated aggregator delivery as journaled.
type Event struct {
	ID         string
	Type       string
	LinkID     string
	ExternalID string
	HasErrors  bool
	Payload    []byte
	ReceivedAt time.Time
}

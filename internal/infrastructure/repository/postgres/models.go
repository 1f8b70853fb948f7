package postgres

import (
	"database/sql"
	"time"

	qb "github.com/riskibarqy/finboard/internal/platform/querybuilder"
)

const (
	onboardingTable     = "user_onboarding"
	goalTable           = "user_goals"
	bankConnectionTable = "bank_connections"
	webhookEventTable   = "aggregator_webhook_events"
)

var (
	onboardingColumns     = qb.Columns(onboardingTableModel{})
	bankConnectionColumns = qb.Columns(bankConnectionTableModel{})
	goalColumns           = qb.Columns(goalTableModel{})
)

type onboardingTableModel struct {
	UserID                 string         `db:"user_id"`
	CurrentStep            int            `db:"current_step"`
	HasCompletedOnboarding bool           `db:"has_completed_onboarding"`
	TaxID                  sql.NullString `db:"tax_id"`
	OpenFinanceConnected   bool           `db:"openfinance_connected"`
	ConnectionDate         *time.Time     `db:"connection_date"`
	BelvoLinkID            sql.NullString `db:"belvo_link_id"`
	CreatedAt              time.Time      `db:"created_at"`
	UpdatedAt              time.Time      `db:"updated_at"`
}

type bankConnectionTableModel struct {
	ID          string         `db:"id"`
	UserID      string         `db:"user_id"`
	LinkID      string         `db:"link_id"`
	Institution sql.NullString `db:"institution"`
	Status      string         `db:"status"`
	ConnectedAt time.Time      `db:"connected_at"`
	LastSyncAt  *time.Time     `db:"last_sync_at"`
}

type bankConnectionInsertModel struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	LinkID      string    `db:"link_id"`
	Institution *string   `db:"institution"`
	Status      string    `db:"status"`
	ConnectedAt time.Time `db:"connected_at"`
}

type goalTableModel struct {
	ID           int64     `db:"id"`
	UserID       string    `db:"user_id"`
	QuestionID   string    `db:"question_id"`
	AnswerID     string    `db:"answer_id"`
	QuestionText string    `db:"question_text"`
	AnswerText   string    `db:"answer_text"`
	CreatedAt    time.Time `db:"created_at"`
}

type webhookEventInsertModel struct {
	ID         string    `db:"id"`
	EventType  string    `db:"event_type"`
	LinkID     *string   `db:"link_id"`
	ExternalID *string   `db:"external_id"`
	HasErrors  bool      `db:"has_errors"`
	Payload    *string   `db:"payload"`
	ReceivedAt time.Time `db:"received_at"`
}

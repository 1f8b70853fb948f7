package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/finboard/internal/domain/bankconnection"
	"github.com/riskibarqy/finboard/internal/domain/onboarding"
	qb "github.com/riskibarqy/finboard/internal/platform/querybuilder"
)

type BankConnectionRepository struct {
	db *sqlx.DB
}

func NewBankConnectionRepository(db *sqlx.DB) *BankConnectionRepository {
	return &BankConnectionRepository{db: db}
}

func (r *BankConnectionRepository) ListByUser(ctx context.Context, userID string) ([]bankconnection.Connection, error) {
	query, args, err := qb.Select(bankConnectionColumns...).
		From(bankConnectionTable).
		Where(qb.Eq("user_id", userID)).
		OrderBy("connected_at DESC", "link_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list bank connections query: %w", err)
	}

	var rows []bankConnectionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list bank connections: %w", err)
	}

	out := make([]bankconnection.Connection, 0, len(rows))
	for _, row := range rows {
		out = append(out, bankConnectionFromRow(row))
	}
	return out, nil
}

func (r *BankConnectionRepository) GetByLinkID(ctx context.Context, linkID string) (bankconnection.Connection, bool, error) {
	query, args, err := qb.Select(bankConnectionColumns...).
		From(bankConnectionTable).
		Where(qb.Eq("link_id", linkID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return bankconnection.Connection{}, false, fmt.Errorf("build get bank connection query: %w", err)
	}

	var row bankConnectionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return bankconnection.Connection{}, false, nil
		}
		return bankconnection.Connection{}, false, fmt.Errorf("get bank connection: %w", err)
	}
	return bankConnectionFromRow(row), true, nil
}

// UpsertByLinkID inserts the link as active. A known link keeps its id,
// owner and connected_at; institution is refreshed. The conflict update only
// fires for the same owner, so no returned row means another user holds it.
func (r *BankConnectionRepository) UpsertByLinkID(ctx context.Context, conn bankconnection.Connection) (bankconnection.Connection, error) {
	query, args, err := buildBankConnectionUpsert(conn)
	if err != nil {
		return bankconnection.Connection{}, fmt.Errorf("build upsert bank connection query: %w", err)
	}

	var row bankConnectionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return bankconnection.Connection{}, bankconnection.ErrLinkOwnedByOtherUser
		}
		return bankconnection.Connection{}, fmt.Errorf("upsert bank connection: %w", err)
	}
	return bankConnectionFromRow(row), nil
}

func buildBankConnectionUpsert(conn bankconnection.Connection) (string, []any, error) {
	insertModel := bankConnectionInsertModel{
		ID:          strings.TrimSpace(conn.ID),
		UserID:      strings.TrimSpace(conn.UserID),
		LinkID:      strings.TrimSpace(conn.LinkID),
		Institution: optionalString(conn.Institution),
		Status:      string(bankconnection.StatusActive),
		ConnectedAt: conn.ConnectedAt,
	}

	builder, err := qb.InsertModel(bankConnectionTable, insertModel)
	if err != nil {
		return "", nil, err
	}
	return builder.
		OnConflictDoUpdate([]string{"link_id"},
			qb.KeepExisting(bankConnectionTable, "institution"),
			qb.Excluded("status"),
		).
		ConflictWhere(bankConnectionTable+".user_id = EXCLUDED.user_id").
		Returning(bankConnectionColumns...).
		ToSQL()
}

func (r *BankConnectionRepository) TouchSync(ctx context.Context, input bankconnection.SyncInput) (bankconnection.Connection, bool, error) {
	query, args, err := buildTouchSync(input)
	if err != nil {
		return bankconnection.Connection{}, false, fmt.Errorf("build touch bank connection sync query: %w", err)
	}

	var row bankConnectionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return bankconnection.Connection{}, false, nil
		}
		return bankconnection.Connection{}, false, fmt.Errorf("touch bank connection sync: %w", err)
	}
	return bankConnectionFromRow(row), true, nil
}

func buildTouchSync(input bankconnection.SyncInput) (string, []any, error) {
	builder := qb.Update(bankConnectionTable).Set("last_sync_at", input.At)
	if input.Activate {
		builder.Set("status", string(bankconnection.StatusActive))
	}
	return builder.
		Where(qb.Eq("link_id", input.LinkID)).
		Returning(bankConnectionColumns...).
		ToSQL()
}

// ExpireConsent marks the link expired and rewrites the owner's aggregate
// flag in one transaction. The onboarding row is locked before counting so
// concurrent expiries for the same user serialize.
func (r *BankConnectionRepository) ExpireConsent(ctx context.Context, input bankconnection.ExpireInput) (bankconnection.ExpireResult, error) {
	result := bankconnection.ExpireResult{UserID: strings.TrimSpace(input.UserID)}

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		expireQuery, expireArgs, err := qb.Update(bankConnectionTable).
			Set("status", string(bankconnection.StatusExpired)).
			Where(qb.Eq("link_id", input.LinkID)).
			Returning("user_id").
			ToSQL()
		if err != nil {
			return fmt.Errorf("build expire bank connection query: %w", err)
		}

		var owner string
		if err := tx.GetContext(ctx, &owner, expireQuery, expireArgs...); err != nil {
			if !isNotFound(err) {
				return fmt.Errorf("expire bank connection: %w", err)
			}
		} else {
			result.LinkFound = true
			if result.UserID == "" {
				result.UserID = owner
			}
		}
		if result.UserID == "" {
			return nil
		}

		lockQuery, lockArgs, err := qb.Select("user_id").
			From(onboardingTable).
			Where(qb.Eq("user_id", result.UserID)).
			ForUpdate().
			ToSQL()
		if err != nil {
			return fmt.Errorf("build lock onboarding query: %w", err)
		}
		var locked string
		if err := tx.GetContext(ctx, &locked, lockQuery, lockArgs...); err != nil && !isNotFound(err) {
			return fmt.Errorf("lock onboarding: %w", err)
		}

		countQuery, countArgs, err := qb.Select("COUNT(*)").
			From(bankConnectionTable).
			Where(
				qb.Eq("user_id", result.UserID),
				qb.Eq("status", string(bankconnection.StatusActive)),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build count active connections query: %w", err)
		}
		if err := tx.GetContext(ctx, &result.ActiveRemaining, countQuery, countArgs...); err != nil {
			return fmt.Errorf("count active connections: %w", err)
		}
		result.OpenFinanceConnected = result.ActiveRemaining > 0

		connected := result.OpenFinanceConnected
		if _, err := applyOnboarding(ctx, tx, result.UserID, onboarding.Patch{
			OpenFinanceConnected: &connected,
			At:                   input.At,
		}); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return bankconnection.ExpireResult{}, err
	}
	return result, nil
}

func bankConnectionFromRow(row bankConnectionTableModel) bankconnection.Connection {
	conn := bankconnection.Connection{
		ID:          row.ID,
		UserID:      row.UserID,
		LinkID:      row.LinkID,
		Institution: strings.TrimSpace(row.Institution.String),
		Status:      bankconnection.Status(row.Status),
		ConnectedAt: row.ConnectedAt.UTC(),
	}
	if row.LastSyncAt != nil {
		at := row.LastSyncAt.UTC()
		conn.LastSyncAt = &at
	}
	return conn
}

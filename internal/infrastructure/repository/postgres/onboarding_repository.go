package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/finboard/internal/domain/onboarding"
	qb "github.com/riskibarqy/finboard/internal/platform/querybuilder"
)

type OnboardingRepository struct {
	db *sqlx.DB
}

func NewOnboardingRepository(db *sqlx.DB) *OnboardingRepository {
	return &OnboardingRepository{db: db}
}

func (r *OnboardingRepository) GetByUserID(ctx context.Context, userID string) (onboarding.Record, bool, error) {
	query, args, err := qb.Select(onboardingColumns...).
		From(onboardingTable).
		Where(qb.Eq("user_id", userID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return onboarding.Record{}, false, fmt.Errorf("build get onboarding query: %w", err)
	}

	var row onboardingTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return onboarding.Record{}, false, nil
		}
		return onboarding.Record{}, false, fmt.Errorf("get onboarding: %w", err)
	}

	return onboardingFromRow(row), true, nil
}

func (r *OnboardingRepository) Apply(ctx context.Context, userID string, patch onboarding.Patch) (onboarding.Record, error) {
	return applyOnboarding(ctx, r.db, userID, patch)
}

// applyOnboarding upserts one row writing only the patched columns. It runs
// against either the pool or an open transaction.
func applyOnboarding(ctx context.Context, q sqlx.QueryerContext, userID string, patch onboarding.Patch) (onboarding.Record, error) {
	query, args, err := buildOnboardingUpsert(userID, patch)
	if err != nil {
		return onboarding.Record{}, fmt.Errorf("build upsert onboarding query: %w", err)
	}

	var row onboardingTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		return onboarding.Record{}, fmt.Errorf("upsert onboarding: %w", err)
	}
	return onboardingFromRow(row), nil
}

func buildOnboardingUpsert(userID string, patch onboarding.Patch) (string, []any, error) {
	at := patch.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	columns := []string{"user_id", "created_at", "updated_at"}
	values := []any{strings.TrimSpace(userID), at, at}
	updates := []qb.Assignment{qb.Excluded("updated_at")}
	set := func(column string, value any) {
		columns = append(columns, column)
		values = append(values, value)
		updates = append(updates, qb.Excluded(column))
	}

	if patch.CurrentStep != nil {
		set("current_step", int(*patch.CurrentStep))
	}
	if patch.HasCompletedOnboarding != nil {
		set("has_completed_onboarding", *patch.HasCompletedOnboarding)
	}
	if patch.TaxID != nil {
		set("tax_id", optionalString(*patch.TaxID))
	}
	if patch.OpenFinanceConnected != nil {
		set("openfinance_connected", *patch.OpenFinanceConnected)
	}
	if patch.ClearConnectionDate {
		set("connection_date", nil)
	} else if patch.ConnectionDate != nil {
		set("connection_date", *patch.ConnectionDate)
	}
	if patch.BelvoLinkID != nil {
		set("belvo_link_id", optionalString(*patch.BelvoLinkID))
	}

	return qb.InsertInto(onboardingTable).
		Columns(columns...).
		Values(values...).
		OnConflictDoUpdate([]string{"user_id"}, updates...).
		Returning(onboardingColumns...).
		ToSQL()
}

func onboardingFromRow(row onboardingTableModel) onboarding.Record {
	record := onboarding.Record{
		UserID:                 row.UserID,
		CurrentStep:            onboarding.Step(row.CurrentStep),
		HasCompletedOnboarding: row.HasCompletedOnboarding,
		TaxID:                  strings.TrimSpace(row.TaxID.String),
		OpenFinanceConnected:   row.OpenFinanceConnected,
		BelvoLinkID:            strings.TrimSpace(row.BelvoLinkID.String),
		CreatedAt:              row.CreatedAt,
		UpdatedAt:              row.UpdatedAt,
	}
	if row.ConnectionDate != nil {
		at := row.ConnectionDate.UTC()
		record.ConnectionDate = &at
	}
	return record
}

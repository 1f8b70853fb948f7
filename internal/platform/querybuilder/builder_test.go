package querybuilder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("id", "link_id").
		From("bank_connections").
		Where(Eq("user_id", "u1"), NotEq("status", "expired"), Expr("connected_at > ?", "ts")).
		OrderBy("connected_at DESC").
		Limit(10).
		ForUpdate().
		ToSQL()
	require.NoError(t, err)

	require.Equal(t, "SELECT id, link_id FROM bank_connections WHERE user_id = $1 AND status <> $2 AND connected_at > $3 ORDER BY connected_at DESC LIMIT 10 FOR UPDATE", query)
	require.Equal(t, []any{"u1", "expired", "ts"}, args)
}

func TestInsertBuilder_MultiRow(t *testing.T) {
	query, args, err := InsertInto("user_goals").
		Columns("user_id", "question_id").
		Values("u1", "priority").
		Values("u1", "tracking").
		Returning("id").
		ToSQL()
	require.NoError(t, err)

	require.Equal(t, "INSERT INTO user_goals (user_id, question_id) VALUES ($1, $2), ($3, $4) RETURNING id", query)
	require.Equal(t, []any{"u1", "priority", "u1", "tracking"}, args)
}

func TestInsertBuilder_RowWidthMismatch(t *testing.T) {
	_, _, err := InsertInto("user_goals").
		Columns("user_id", "question_id").
		Values("u1").
		ToSQL()
	require.Error(t, err)
}

func TestInsertBuilder_Upsert(t *testing.T) {
	query, _, err := InsertInto("bank_connections").
		Columns("link_id", "institution").
		Values("L1", nil).
		OnConflictDoUpdate([]string{"link_id"},
			Excluded("status"),
			KeepExisting("bank_connections", "institution"),
		).
		Returning("id", "link_id").
		ToSQL()
	require.NoError(t, err)

	require.Equal(t, "INSERT INTO bank_connections (link_id, institution) VALUES ($1, $2) "+
		"ON CONFLICT (link_id) DO UPDATE SET status = EXCLUDED.status, "+
		"institution = COALESCE(EXCLUDED.institution, bank_connections.institution) RETURNING id, link_id", query)
}

func TestInsertBuilder_ConflictWhere(t *testing.T) {
	query, _, err := InsertInto("bank_connections").
		Columns("user_id", "link_id").
		Values("u1", "L1").
		OnConflictDoUpdate([]string{"link_id"}, Excluded("status")).
		ConflictWhere("bank_connections.user_id = EXCLUDED.user_id").
		Returning("id").
		ToSQL()
	require.NoError(t, err)
	require.Equal(t, "INSERT INTO bank_connections (user_id, link_id) VALUES ($1, $2) "+
		"ON CONFLICT (link_id) DO UPDATE SET status = EXCLUDED.status "+
		"WHERE bank_connections.user_id = EXCLUDED.user_id RETURNING id", query)

	_, _, err = InsertInto("bank_connections").
		Columns("link_id").
		Values("L1").
		OnConflictDoNothing("link_id").
		ConflictWhere("true").
		ToSQL()
	require.Error(t, err)
}

func TestInsertBuilder_DoNothingRequiresTarget(t *testing.T) {
	query, _, err := InsertInto("aggregator_webhook_events").
		Columns("id").
		Values("evt-1").
		OnConflictDoNothing("id").
		ToSQL()
	require.NoError(t, err)
	require.Equal(t, "INSERT INTO aggregator_webhook_events (id) VALUES ($1) ON CONFLICT (id) DO NOTHING", query)

	_, _, err = InsertInto("aggregator_webhook_events").
		Columns("id").
		Values("evt-1").
		OnConflictDoNothing().
		ToSQL()
	require.Error(t, err)
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("bank_connections").
		Set("status", "expired").
		SetExpr("last_sync_at", "COALESCE(?, last_sync_at)", "ts").
		Where(Eq("link_id", "L1")).
		Returning("user_id").
		ToSQL()
	require.NoError(t, err)

	require.Equal(t, "UPDATE bank_connections SET status = $1, last_sync_at = COALESCE($2, last_sync_at) WHERE link_id = $3 RETURNING user_id", query)
	require.Equal(t, []any{"expired", "ts", "L1"}, args)
}

func TestUpdateBuilder_RequiresWhere(t *testing.T) {
	_, _, err := Update("bank_connections").Set("status", "expired").ToSQL()
	require.Error(t, err)
}

type goalRow struct {
	ID         int64  `db:"id,readonly"`
	UserID     string `db:"user_id"`
	QuestionID string `db:"question_id"`
	internal   string
	Ignored    string `db:"-"`
}

func TestColumns(t *testing.T) {
	require.Equal(t, []string{"id", "user_id", "question_id"}, Columns(&goalRow{}))
	require.Panics(t, func() { Columns("not a struct") })
}

func TestInsertModel_SkipsReadonlyColumns(t *testing.T) {
	builder, err := InsertModel("user_goals", goalRow{ID: 7, UserID: "u1", QuestionID: "priority", internal: "x"})
	require.NoError(t, err)

	query, args, err := builder.Returning("id").ToSQL()
	require.NoError(t, err)
	require.Equal(t, "INSERT INTO user_goals (user_id, question_id) VALUES ($1, $2) RETURNING id", query)
	require.Equal(t, []any{"u1", "priority"}, args)
}

func TestInsertModel_RejectsNil(t *testing.T) {
	var row *goalRow
	_, err := InsertModel("user_goals", row)
	require.Error(t, err)
}

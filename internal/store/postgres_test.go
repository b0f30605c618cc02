package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadflow/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewPostgresFromPool(pool), pool
}

func TestPostgres_InsertPropertyIfAbsent(t *testing.T) {
	t.Parallel()
	s, pool := newMockStore(t)

	pool.ExpectExec(regexp.QuoteMeta(insertPropertySQL)).
		WithArgs(
			pgxmock.AnyArg(), "123 main st|austin|tx|78701", "123 Main St", "Austin", "TX", "78701",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), "high_equity", "none", pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	inserted, err := s.InsertPropertyIfAbsent(context.Background(), "123 main st|austin|tx|78701", testProperty())
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestPostgres_InsertPropertyConflictIsNoOp(t *testing.T) {
	t.Parallel()
	s, pool := newMockStore(t)

	pool.ExpectExec(regexp.QuoteMeta(insertPropertySQL)).
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	inserted, err := s.InsertPropertyIfAbsent(context.Background(), "fp", testProperty())
	require.NoError(t, err)
	assert.False(t, inserted, "conflict reports not-inserted, not an error")
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestPostgres_InsertLeadDeliveryIdempotent(t *testing.T) {
	t.Parallel()
	s, pool := newMockStore(t)

	pool.ExpectExec(regexp.QuoteMeta(insertDeliverySQL)).
		WithArgs("u1", "fp1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	pool.ExpectExec(regexp.QuoteMeta(insertDeliverySQL)).
		WithArgs("u1", "fp1").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	ctx := context.Background()
	require.NoError(t, s.InsertLeadDelivery(ctx, "u1", "fp1"))
	require.NoError(t, s.InsertLeadDelivery(ctx, "u1", "fp1"))
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestPostgres_IsDelivered(t *testing.T) {
	t.Parallel()
	s, pool := newMockStore(t)

	pool.ExpectQuery(`SELECT EXISTS`).
		WithArgs("u1", "fp1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	delivered, err := s.IsDelivered(context.Background(), "u1", "fp1")
	require.NoError(t, err)
	assert.True(t, delivered)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestPostgres_GetSkipCursorDefaultsToZero(t *testing.T) {
	t.Parallel()
	s, pool := newMockStore(t)

	pool.ExpectQuery(`SELECT position FROM skip_cursors`).
		WithArgs("u1", "loc=austin, tx").
		WillReturnError(pgx.ErrNoRows)

	pos, err := s.GetSkipCursor(context.Background(), "u1", "loc=austin, tx")
	require.NoError(t, err)
	assert.Equal(t, 0, pos)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestPostgres_AdvanceSkipCursor(t *testing.T) {
	t.Parallel()
	s, pool := newMockStore(t)

	pool.ExpectExec(`INSERT INTO skip_cursors`).
		WithArgs("u1", "loc=austin, tx", 50).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.AdvanceSkipCursor(context.Background(), "u1", "loc=austin, tx", 50))
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestPostgres_AdvanceSkipCursorRejectsNegative(t *testing.T) {
	t.Parallel()
	s, pool := newMockStore(t)

	err := s.AdvanceSkipCursor(context.Background(), "u1", "k", -1)
	require.Error(t, err)
	assert.NoError(t, pool.ExpectationsWereMet(), "no SQL issued for backward moves")
}

func TestPostgres_ListDeliveredFingerprints(t *testing.T) {
	t.Parallel()
	s, pool := newMockStore(t)

	pool.ExpectQuery(`SELECT fingerprint FROM lead_deliveries`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"fingerprint"}).AddRow("fp1").AddRow("fp2"))

	fps, err := s.ListDeliveredFingerprints(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"fp1", "fp2"}, fps)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestPostgres_ListSkipCursors(t *testing.T) {
	t.Parallel()
	s, pool := newMockStore(t)

	now := time.Now()
	pool.ExpectQuery(`SELECT user_id, criteria_key, position, updated_at FROM skip_cursors`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "criteria_key", "position", "updated_at"}).
			AddRow("u1", "loc=austin, tx", 80, now))

	cursors, err := s.ListSkipCursors(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, cursors, 1)
	assert.Equal(t, 80, cursors[0].Position)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestPostgres_RecordAcquisition(t *testing.T) {
	t.Parallel()
	s, pool := newMockStore(t)

	pool.ExpectExec(`INSERT INTO acquisitions`).
		WithArgs(pgxmock.AnyArg(), "u1", "loc=austin, tx", 10, 2, 5, 3, int64(120), "complete").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.RecordAcquisition(context.Background(), model.Acquisition{
		UserID: "u1", CriteriaKey: "loc=austin, tx",
		Requested: 10, Delivered: 2, TotalChecked: 5, Filtered: 3,
		DurationMS: 120, Status: model.AcquisitionComplete,
	})
	require.NoError(t, err)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestPostgres_ResetDeliveries(t *testing.T) {
	t.Parallel()
	s, pool := newMockStore(t)

	pool.ExpectExec(`DELETE FROM lead_deliveries`).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := s.ResetDeliveries(context.Background(), "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.NoError(t, pool.ExpectationsWereMet())
}

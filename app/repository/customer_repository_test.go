package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      conn,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

// ConsumeGrace must be two statements: a retag of a stale month followed by
// one conditional increment. The quota check lives inside the UPDATE's WHERE
// clause, never in a prior SELECT, so concurrent calls cannot both take the
// last slot.
func TestConsumeGraceIsSingleConditionalUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomerRepository(db)

	mock.ExpectExec("UPDATE `customers` SET .+ WHERE email = \\? AND grace_period_month <> \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE `customers` SET `grace_sermons_used`=grace_sermons_used \\+ 1.* WHERE email = \\? AND grace_period_month = \\? AND grace_sermons_used < \\?").
		WithArgs(sqlmock.AnyArg(), "a@b.com", "2026-09", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	consumed, err := repo.ConsumeGrace("a@b.com", "2026-09", 2)
	require.NoError(t, err)
	assert.True(t, consumed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeGraceExhaustedQuotaReturnsFalse(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomerRepository(db)

	mock.ExpectExec("UPDATE `customers` SET .+ WHERE email = \\? AND grace_period_month <> \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))
	// Zero rows matched the "used < limit" condition.
	mock.ExpectExec("UPDATE `customers` SET `grace_sermons_used`=grace_sermons_used \\+ 1.* WHERE email = \\? AND grace_period_month = \\? AND grace_sermons_used < \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))

	consumed, err := repo.ConsumeGrace("a@b.com", "2026-09", 2)
	require.NoError(t, err)
	assert.False(t, consumed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeGraceRetagsStaleMonthBeforeIncrement(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomerRepository(db)

	// The retag statement zeroes the counter and stamps the new month in a
	// single UPDATE keyed on the month mismatch.
	mock.ExpectExec("UPDATE `customers` SET .*`grace_period_month`=.*`grace_sermons_used`=.* WHERE email = \\? AND grace_period_month <> \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `customers` SET `grace_sermons_used`=grace_sermons_used \\+ 1.* WHERE email = \\? AND grace_period_month = \\? AND grace_sermons_used < \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))

	consumed, err := repo.ConsumeGrace("A@B.com", "2026-09", 2)
	require.NoError(t, err)
	assert.True(t, consumed)
	require.NoError(t, mock.ExpectationsWereMet())
}

// RefundGrace only decrements while the month still matches and the counter
// is above zero, so a refund racing a monthly retag cannot go negative.
func TestRefundGraceIsConditionalDecrement(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCustomerRepository(db)

	mock.ExpectExec("UPDATE `customers` SET `grace_sermons_used`=grace_sermons_used - 1.* WHERE email = \\? AND grace_period_month = \\? AND grace_sermons_used > 0").
		WithArgs(sqlmock.AnyArg(), "a@b.com", "2026-09").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RefundGrace("a@b.com", "2026-09"))
	require.NoError(t, mock.ExpectationsWereMet())
}

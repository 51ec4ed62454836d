package lock

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireOrFail_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewLoadLock(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT pg_try_advisory_lock($1)")).
		WithArgs(l.Key()).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))

	require.NoError(t, l.AcquireOrFail(context.Background()))
	assert.True(t, l.IsHeld())
}

func TestAcquireOrFail_HeldElsewhere(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewLoadLock(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT pg_try_advisory_lock($1)")).
		WithArgs(l.Key()).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))

	err = l.AcquireOrFail(context.Background())
	assert.ErrorIs(t, err, ErrLockHeld)
	assert.False(t, l.IsHeld())
}

func TestAcquireOrFail_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewLoadLock(db)

	mock.ExpectQuery("pg_try_advisory_lock").
		WillReturnError(errors.New("connection reset"))

	err = l.AcquireOrFail(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLockHeld)
}

func TestAcquireOrFail_Idempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewLoadLock(db)

	mock.ExpectQuery("pg_try_advisory_lock").
		WillReturnRows(sqlmock.NewRows([]string{"ok"}).AddRow(true))

	require.NoError(t, l.AcquireOrFail(context.Background()))
	// Second acquire while held is a no-op, no second query.
	require.NoError(t, l.AcquireOrFail(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelease(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewLoadLock(db)

	mock.ExpectQuery("pg_try_advisory_lock").
		WillReturnRows(sqlmock.NewRows([]string{"ok"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT pg_advisory_unlock($1)")).
		WithArgs(l.Key()).
		WillReturnRows(sqlmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(true))

	require.NoError(t, l.AcquireOrFail(context.Background()))
	require.NoError(t, l.Release(context.Background()))
	assert.False(t, l.IsHeld())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelease_NotHeldIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewLoadLock(db)

	require.NoError(t, l.Release(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockKey_Stable(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Same lock name must always map to the same advisory key, or two
	// instances would not contend.
	assert.Equal(t, NewLoadLock(db).Key(), NewLoadLock(db).Key())
}

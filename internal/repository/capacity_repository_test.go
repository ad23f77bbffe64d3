package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tour-booking/internal/model"
)

func snapshotRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id",
		"adult_price_cents", "adult_capacity", "adult_remaining",
		"child_price_cents", "child_capacity", "child_remaining",
		"toddler_price_cents", "toddler_capacity", "toddler_remaining",
		"baby_price_cents", "baby_capacity", "baby_remaining",
	}).AddRow(10,
		150000, 20, 18,
		75000, 10, 9,
		10000, 5, 5,
		0, 5, 5)
}

func TestCapacityReserveDecrementsAndSnapshots(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	q := model.Quantities{Adults: 2, Children: 1}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tours").
		WithArgs(2, 1, 0, 0, uint64(10), 2, 1, 0, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id,").
		WithArgs(uint64(10)).
		WillReturnRows(snapshotRows())
	mock.ExpectCommit()

	repo := NewCapacityRepo(db)
	snap, short, err := repo.Reserve(context.Background(), 10, q)
	require.NoError(t, err)
	require.Empty(t, short)
	require.NotNil(t, snap)
	assert.Equal(t, uint64(10), snap.TourID)
	assert.Equal(t, uint32(18), snap.Pricing.Adult.Remaining)
	assert.Equal(t, uint32(150000), snap.Pricing.Adult.PriceCents)
	assert.Equal(t, uint32(9), snap.Pricing.Child.Remaining)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCapacityReserveShortCategories(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	q := model.Quantities{Adults: 3, Children: 2}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tours").
		WithArgs(3, 2, 0, 0, uint64(10), 3, 2, 0, 0).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT is_active,").
		WithArgs(uint64(10)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"is_active", "adult_remaining", "child_remaining", "toddler_remaining", "baby_remaining"}).
			AddRow(true, 2, 1, 5, 5))
	mock.ExpectRollback()

	repo := NewCapacityRepo(db)
	snap, short, err := repo.Reserve(context.Background(), 10, q)
	require.NoError(t, err)
	assert.Nil(t, snap)
	assert.Equal(t, []model.Category{model.CategoryAdult, model.CategoryChild}, short)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCapacityReserveTourNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tours").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT is_active,").
		WillReturnRows(sqlmock.NewRows(
			[]string{"is_active", "adult_remaining", "child_remaining", "toddler_remaining", "baby_remaining"}))
	mock.ExpectRollback()

	repo := NewCapacityRepo(db)
	_, _, err = repo.Reserve(context.Background(), 99, model.Quantities{Adults: 1})
	assert.ErrorIs(t, err, ErrTourNotFound)
}

func TestCapacityReserveTourInactive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tours").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT is_active,").
		WillReturnRows(sqlmock.NewRows(
			[]string{"is_active", "adult_remaining", "child_remaining", "toddler_remaining", "baby_remaining"}).
			AddRow(false, 5, 5, 5, 5))
	mock.ExpectRollback()

	repo := NewCapacityRepo(db)
	_, _, err = repo.Reserve(context.Background(), 10, model.Quantities{Adults: 1})
	assert.ErrorIs(t, err, ErrTourInactive)
}

func TestCapacityReserveTransientConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// The guard matched nothing, yet the re-read shows every category
	// sufficient: the row changed under a concurrent reservation.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE tours").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT is_active,").
		WillReturnRows(sqlmock.NewRows(
			[]string{"is_active", "adult_remaining", "child_remaining", "toddler_remaining", "baby_remaining"}).
			AddRow(true, 5, 5, 5, 5))
	mock.ExpectRollback()

	repo := NewCapacityRepo(db)
	_, _, err = repo.Reserve(context.Background(), 10, model.Quantities{Adults: 1})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCapacitySnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id,").
		WithArgs(uint64(10)).
		WillReturnRows(snapshotRows())

	repo := NewCapacityRepo(db)
	snap, err := repo.Snapshot(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), snap.Pricing.Toddler.Remaining)
	assert.Equal(t, uint32(0), snap.Pricing.Baby.PriceCents)
}
